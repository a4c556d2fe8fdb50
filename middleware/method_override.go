package middleware

import (
	"mime"
	"net/http"
	"strings"
)

const (
	MethodOverrideHeader = "X-HTTP-Method-Override"
	MethodOverrideParam  = "_method"

	formMediaType = "application/x-www-form-urlencoded"
)

var overridableMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPut:     true,
	http.MethodPost:    true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
	http.MethodPatch:   true,
}

// MethodOverride lets POST requests from html forms act as another method
// through a _method form param or the X-HTTP-Method-Override header
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if method := overrideMethod(r); method != "" {
				r.Header.Set("X-HTTP-Method-Original", r.Method)
				r.Method = method
			}
		}

		next.ServeHTTP(w, r)
	})
}

func overrideMethod(r *http.Request) string {
	method := r.Header.Get(MethodOverrideHeader)

	if method == "" {
		if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mediaType == formMediaType {
			if err := r.ParseForm(); err == nil {
				method = r.PostForm.Get(MethodOverrideParam)
			}
		}
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if !overridableMethods[method] {
		return ""
	}
	return method
}
