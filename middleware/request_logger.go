package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestLogger middleware that tags each request with an id and logger and
// logs its completion
func RequestLogger(source LoggerSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			entry := sourceLogger(source).WithFields(logrus.Fields{
				"request_id":  id,
				"http.method": r.Method,
				"http.path":   r.URL.Path,
				"network.ip":  r.RemoteAddr,
			})

			ctx := context.WithValue(WithLogger(r.Context(), entry), requestIDKey, id)

			writer := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			writer.Header().Set(RequestIDHeader, id)

			defer func(t time.Time) {
				elapsed := time.Since(t)

				status := writer.Status()
				if status == 0 {
					status = http.StatusOK
				}

				logger := entry.WithFields(logrus.Fields{
					"http.status_code":      status,
					"network.bytes_written": writer.BytesWritten(),
					"duration":              elapsed.Nanoseconds(),
				})

				str := fmt.Sprintf("Completed request [%v] [%d %s]", elapsed, status, http.StatusText(status))

				if status < 400 {
					logger.Info(str)
				} else if status < 500 {
					logger.Warn(str)
				} else {
					logger.Error(str)
				}
			}(time.Now())

			next.ServeHTTP(writer, r.WithContext(ctx))
		})
	}
}
