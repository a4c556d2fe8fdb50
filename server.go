package rigging

import (
	"context"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slimloans/rigging/errors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// FallbackServers are tried in order when the requested server is not
// registered
var FallbackServers = []string{"http", "h2c"}

// Listener is a running server handed to Stop
type Listener interface {
	Addr() net.Addr
}

// GracefulStopper is implemented by listeners that can drain in flight
// requests
type GracefulStopper interface {
	Shutdown(ctx context.Context) error
}

// Stopper is implemented by listeners that can only stop immediately
type Stopper interface {
	Stop() error
}

// Server runs an http.Handler on an address. Run blocks until the server
// has stopped, including draining requests on a graceful stop, and calls
// started once it is accepting connections.
type Server interface {
	Name() string
	Run(handler http.Handler, addr string, started func(Listener)) error
}

// HTTPServer serves http/1.1, and with H2C http/2 without TLS
type HTTPServer struct {
	H2C bool

	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration

	running atomic.Bool
}

func defaultServers() []Server {
	return []Server{
		&HTTPServer{ReadHeaderTimeout: 10 * time.Second},
		&HTTPServer{H2C: true, ReadHeaderTimeout: 10 * time.Second},
	}
}

func (s *HTTPServer) Name() string {
	if s.H2C {
		return "h2c"
	}
	return "http"
}

func (s *HTTPServer) IsRunning() bool { return s.running.Load() }

func (s *HTTPServer) Run(handler http.Handler, addr string, started func(Listener)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	if s.H2C {
		handler = h2c.NewHandler(handler, &http2.Server{IdleTimeout: s.IdleTimeout})
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: s.ReadHeaderTimeout,
		IdleTimeout:       s.IdleTimeout,
	}

	s.running.Store(true)
	defer s.running.Store(false)

	l := &httpListener{server: srv, listener: ln, stopped: make(chan struct{})}
	if started != nil {
		started(l)
	}

	err = srv.Serve(ln)
	if err != http.ErrServerClosed {
		return err
	}

	// Serve returns as soon as shutdown starts, in flight requests are
	// still draining
	<-l.stopped
	return nil
}

// httpListener closes stopped once a Shutdown succeeds or a Stop returns
type httpListener struct {
	server   *http.Server
	listener net.Listener

	stopped chan struct{}
	once    sync.Once
}

func (l *httpListener) Addr() net.Addr { return l.listener.Addr() }

func (l *httpListener) Shutdown(ctx context.Context) error {
	err := l.server.Shutdown(ctx)
	if err == nil {
		l.finish()
	}
	return err
}

func (l *httpListener) Stop() error {
	defer l.finish()
	return l.server.Close()
}

func (l *httpListener) finish() {
	l.once.Do(func() { close(l.stopped) })
}

// RegisterServer makes a server available to Run by name, registering an
// existing name replaces it
func (e *Environment) RegisterServer(s Server) {
	if s == nil {
		return
	}
	e.servers[s.Name()] = s
}

// Servers returns registered server names
func (e *Environment) Servers() []string {
	names := make([]string, 0, len(e.servers))
	for name := range e.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookupServer returns the named server or the first registered fallback
func (e *Environment) lookupServer(name string) (Server, error) {
	if s, ok := e.servers[name]; ok {
		return s, nil
	}

	for _, fallback := range FallbackServers {
		if s, ok := e.servers[fallback]; ok {
			e.log().Warnf("server %q is not available, falling back to %s", name, fallback)
			return s, nil
		}
	}

	return nil, errors.Errorf(errors.ErrorNoServer,
		"could not find a server to run (tried %s, %s)", name, strings.Join(FallbackServers, ", "))
}
