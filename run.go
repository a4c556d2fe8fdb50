package rigging

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/slimloans/rigging/errors"
)

var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// RunOptions override the server settings, zero values fall back to the
// server.port, server.host and server.default settings
type RunOptions struct {
	Port   int
	Host   string
	Server string
}

// Run starts the environment on a network server and blocks until the
// server stops. INT and TERM stop the server while it runs.
func (e *Environment) Run(opts RunOptions) error {
	c := e.Config().Server

	e.port, e.host, e.server = opts.Port, opts.Host, opts.Server
	if e.port == 0 {
		e.port = c.Port
	}
	if e.host == "" {
		e.host = c.Host
	}
	if e.server == "" {
		e.server = c.Default
	}

	server, err := e.lookupServer(e.server)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(e.host, strconv.Itoa(e.port))

	var release func()
	defer func() {
		if release != nil {
			release()
		}
	}()

	e.log().WithField("env", e.env).Infof("starting %s server on %s", server.Name(), addr)

	return server.Run(e, addr, func(l Listener) {
		release = e.trapSignals(l)
	})
}

// trapSignals stops l on INT or TERM until the returned func is called.
// The returned func waits for a stop already in progress.
func (e *Environment) trapSignals(l Listener) func() {
	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	finished := make(chan struct{})

	signal.Notify(sig, stopSignals...)

	go func() {
		defer close(finished)

		select {
		case s := <-sig:
			e.log().Infof("stopping due to signal (%s)", s)
			e.Stop(l)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sig)
		close(done)
		<-finished
	}
}

// Stop shuts down a running listener. Graceful shutdown is tried first,
// bounded by server.shutdown_timeout, then an immediate stop. When neither
// works the process exits with status 1.
func (e *Environment) Stop(l Listener) error {
	err := stopListener(l, e.Config().Server.ShutdownTimeout)
	if err == nil {
		return nil
	}

	e.log().WithFields(errors.Unwrap(err).ToLogFields()).Error("unable to stop server, exiting")
	e.exit(1)

	return err
}

func stopListener(l Listener, timeout time.Duration) error {
	if l == nil {
		return errors.Errorf(errors.ErrorShutdown, "no listener to stop")
	}

	var failed error

	if gs, ok := l.(GracefulStopper); ok {
		ctx, cancel := context.Background(), context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, timeout)
		}
		defer cancel()

		if failed = gs.Shutdown(ctx); failed == nil {
			return nil
		}
	}

	if s, ok := l.(Stopper); ok {
		if failed = s.Stop(); failed == nil {
			return nil
		}
	}

	if failed == nil {
		return errors.Errorf(errors.ErrorShutdown, "listener %T can not be stopped", l)
	}
	return errors.Wrap(errors.ErrorShutdown, failed)
}
