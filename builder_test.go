package rigging

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tagMiddleware(tag string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Tags", tag)
			next.ServeHTTP(w, r)
		})
	}
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestBuilderOrder(t *testing.T) {
	b := NewBuilder()

	b.Mount("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "app")
	}))
	b.Use(tagMiddleware("first"), nil, tagMiddleware("second"))

	w := serve(b, "/")

	assert.Equal(t, "app", w.Body.String())
	assert.Equal(t, []string{"first", "second"}, w.Header().Values("X-Tags"))
	assert.Equal(t, 2, b.Len())
}

func TestBuilderRebuildsAfterChanges(t *testing.T) {
	b := NewBuilder()
	assert.Equal(t, http.StatusNotFound, serve(b, "/").Code)

	b.Mount("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "one")
	}))
	assert.Equal(t, "one", serve(b, "/").Body.String())

	b.Mount("", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "two")
	}))
	assert.Equal(t, "two", serve(b, "/").Body.String())
	assert.Equal(t, []string{"/"}, b.Paths())
}

func TestBuilderMountPaths(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s|%s", MountPath(r), r.URL.Path)
	})

	b := NewBuilder().
		Mount("/", echo).
		Mount("api/", echo).
		Mount("/api/v2", echo)

	tests := []struct {
		target string
		want   string
	}{
		{"/", "|/"},
		{"/home", "|/home"},
		{"/api", "/api|/"},
		{"/api/users/1", "/api|/users/1"},
		{"/api/v2/users", "/api/v2|/users"},
		{"/apis", "|/apis"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(b, tt.target).Body.String())
		})
	}

	assert.Equal(t, []string{"/", "/api", "/api/v2"}, b.Paths())
}

func TestBuilderNestedBuilders(t *testing.T) {
	inner := NewBuilder().Mount("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s|%s", MountPath(r), r.URL.Path)
	}))

	outer := NewBuilder().Mount("/admin", inner)

	assert.Equal(t, "/admin|/users", serve(outer, "/admin/users").Body.String())
}

func TestBuilderServesWithoutLocking(t *testing.T) {
	b := NewBuilder().Mount("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))

	compiled := b.Handler()
	assert.Same(t, compiled, b.Handler())

	b.mu.Lock()
	defer b.mu.Unlock()

	done := make(chan string, 1)
	go func() {
		rec := httptest.NewRecorder()
		b.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		done <- rec.Body.String()
	}()

	select {
	case body := <-done:
		assert.Equal(t, "ok", body)
	case <-time.After(2 * time.Second):
		t.Fatal("request blocked on the builder lock")
	}
}
