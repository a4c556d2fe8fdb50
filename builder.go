package rigging

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
)

type mountPathKeyT string

const mountPathKey mountPathKeyT = "rigging.mount_path"

type builderMount struct {
	path    string
	handler http.Handler
}

// Builder composes middleware and mounted endpoints into a single chi
// router. Middleware and mounts can be added in any order, the router is
// built on first use and rebuilt after every change. Serving a compiled
// router takes no lock.
type Builder struct {
	mu          sync.Mutex
	middlewares []func(http.Handler) http.Handler
	mounts      []builderMount
	handler     atomic.Pointer[http.Handler]
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Use appends middleware, the first added sees the request first
func (b *Builder) Use(middlewares ...func(http.Handler) http.Handler) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, mw := range middlewares {
		if mw != nil {
			b.middlewares = append(b.middlewares, mw)
		}
	}

	b.handler.Store(nil)
	return b
}

// Mount routes path and everything below it to h. The mounted handler sees
// the path relative to the mount point, MountPath returns the prefix.
// Mounting a path twice replaces the first handler.
func (b *Builder) Mount(path string, h http.Handler) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()

	path = cleanMountPath(path)
	b.handler.Store(nil)

	for pos := range b.mounts {
		if b.mounts[pos].path == path {
			b.mounts[pos].handler = h
			return b
		}
	}

	b.mounts = append(b.mounts, builderMount{path: path, handler: h})
	return b
}

// Len returns the number of middleware in the pipeline
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.middlewares)
}

// Paths returns mounted paths in mount order
func (b *Builder) Paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	paths := make([]string, 0, len(b.mounts))
	for _, m := range b.mounts {
		paths = append(paths, m.path)
	}
	return paths
}

// Handler returns the composed router
func (b *Builder) Handler() http.Handler {
	if h := b.handler.Load(); h != nil {
		return *h
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if h := b.handler.Load(); h != nil {
		return *h
	}

	h := b.compile()
	b.handler.Store(&h)
	return h
}

func (b *Builder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.Handler().ServeHTTP(w, r)
}

func (b *Builder) compile() http.Handler {
	r := chi.NewRouter()
	r.Use(b.middlewares...)

	for _, m := range b.mounts {
		r.Mount(m.path, mountHandler(m.path, m.handler))
	}

	return r
}

// MountPath returns the prefix the request was routed through, "" when the
// app is mounted at the root
func MountPath(r *http.Request) string {
	path, _ := r.Context().Value(mountPathKey).(string)
	return path
}

func mountHandler(prefix string, h http.Handler) http.Handler {
	if prefix == "/" {
		return h
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r2 := r.WithContext(context.WithValue(r.Context(), mountPathKey, MountPath(r)+prefix))

		u := *r.URL
		u.Path = ensureLeadingSlash(strings.TrimPrefix(r.URL.Path, prefix))
		if r.URL.RawPath != "" {
			u.RawPath = ensureLeadingSlash(strings.TrimPrefix(r.URL.RawPath, prefix))
		}
		r2.URL = &u

		h.ServeHTTP(w, r2)
	})
}

func cleanMountPath(path string) string {
	path = strings.TrimRight(path, "/")
	return ensureLeadingSlash(path)
}

func ensureLeadingSlash(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}
