package middleware

import (
	"net/http"
	"strings"
)

const wwwPrefix = "www."

// NormalizerOptions selects which parts of a request URL are made canonical
type NormalizerOptions struct {
	// StrictPath redirects paths containing "//" or a trailing slash
	StrictPath bool

	// StrictWWW redirects hosts to (RequireWWW) or away from the www. prefix
	StrictWWW  bool
	RequireWWW bool
}

// PathNormalizer redirects (301) any path containing "//" or ending in a
// slash to its normalized form without calling next.
func PathNormalizer(next http.Handler) http.Handler {
	return Normalizer(NormalizerOptions{StrictPath: true})(next)
}

// Normalizer builds a normalizing middleware from options
func Normalizer(options NormalizerOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, hostChanged := r.Host, false
			if options.StrictWWW {
				host, hostChanged = normalizeHost(r.Host, options.RequireWWW)
			}

			path, pathChanged := r.URL.EscapedPath(), false
			if options.StrictPath && NeedsNormalizing(path) {
				path, pathChanged = NormalizePath(path), true
			}

			if !hostChanged && !pathChanged {
				next.ServeHTTP(w, r)
				return
			}

			target := path
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}

			if hostChanged {
				target = scheme(r) + "://" + host + target
			}

			http.Redirect(w, r, target, http.StatusMovedPermanently)
		})
	}
}

// NeedsNormalizing reports whether path holds a double slash or ends in
// slashes following at least one other character
func NeedsNormalizing(path string) bool {
	return strings.Contains(path, "//") || hasTailSlash(path)
}

// NormalizePath collapses slash runs and strips trailing slashes, the root
// path stays "/"
func NormalizePath(path string) string {
	var b strings.Builder
	b.Grow(len(path))

	for i := 0; i < len(path); i++ {
		if path[i] == '/' && i > 0 && path[i-1] == '/' {
			continue
		}
		b.WriteByte(path[i])
	}

	normalized := strings.TrimRight(b.String(), "/")
	if normalized == "" {
		return "/"
	}
	return normalized
}

func hasTailSlash(path string) bool {
	trimmed := strings.TrimRight(path, "/")
	return trimmed != "" && len(trimmed) < len(path)
}

func normalizeHost(host string, requireWWW bool) (string, bool) {
	if host == "" {
		return host, false
	}

	hasWWW := strings.HasPrefix(strings.ToLower(host), wwwPrefix)

	switch {
	case requireWWW && !hasWWW:
		return wwwPrefix + host, true
	case !requireWWW && hasWWW:
		return host[len(wwwPrefix):], true
	}

	return host, false
}

func scheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(proto)
	}

	if r.TLS != nil {
		return "https"
	}
	return "http"
}
