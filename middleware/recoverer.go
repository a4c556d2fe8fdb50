package middleware

import (
	"net/http"
	"runtime"

	"github.com/sirupsen/logrus"
)

// Recoverer middleware that adds panic recovering
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				buf := make([]byte, 1<<16)
				buf = buf[:runtime.Stack(buf, false)]

				Logger(r).WithFields(logrus.Fields{
					"stack": string(buf),
				}).Errorf("%#v", rec)

				w.WriteHeader(http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
