package rigging

import (
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/slimloans/rigging/config"
	"github.com/slimloans/rigging/errors"
	"github.com/slimloans/rigging/hooks"
	"github.com/spf13/viper"
)

const (
	// EventConfigure wraps resolving the configuration for the environment
	EventConfigure hooks.Event = "configure"

	// EventSetup wraps logger initialization and mounting apps
	EventSetup hooks.Event = "setup"

	// EventFork brackets a process fork, see Forking and Forked
	EventFork hooks.Event = "fork"
)

// environmentHooks are shared by every Environment, hooks added to an
// environment itself run after them
var environmentHooks = hooks.NewRegistry[*Environment](EventConfigure, EventSetup, EventFork)

func init() {
	if err := environmentHooks.Before(EventSetup, useDefaultMiddleware); err != nil {
		panic(err)
	}
}

// SharedHooks returns the hooks every Environment runs
func SharedHooks() *hooks.Registry[*Environment] {
	return environmentHooks
}

// AppFunc builds a mountable endpoint for the named environment. The
// builder is the shared pipeline the endpoint is mounted into, so apps can
// add their own middleware to it.
type AppFunc func(env string, builder *Builder) (http.Handler, error)

// MountSetupFunc runs against an app after it is built and before it is
// mounted
type MountSetupFunc func(app http.Handler) error

// Handler wraps a ready made http.Handler as an AppFunc
func Handler(h http.Handler) AppFunc {
	return func(string, *Builder) (http.Handler, error) { return h, nil }
}

type mount struct {
	path  string
	app   AppFunc
	setup []MountSetupFunc
}

// Options configures a new Environment
type Options struct {
	// Store controls where configuration is read from
	Store config.Options

	// Servers replaces the built in network servers when non nil
	Servers []Server

	// Exit terminates the process when a listener cannot be stopped
	// (default os.Exit)
	Exit func(code int)
}

// Environment runs one or more http endpoints behind a shared middleware
// pipeline.
//
// Setup, Run and Reset are expected to be called from a single goroutine
// while the process boots or shuts down; nothing here locks against
// concurrent Setup calls. Mounts and hooks must be registered before Run,
// the request path treats them as read only.
type Environment struct {
	env    string
	port   int
	host   string
	server string

	logger       *logrus.Logger
	logClosers   []io.Closer
	destinations map[string]io.Writer

	store      *config.Store
	settings   *viper.Viper
	config     config.Config
	configured bool

	mounts  []*mount
	builder *Builder

	hooks   *hooks.Registry[*Environment]
	servers map[string]Server
	plugins *PluginManager

	exit func(code int)
}

// New returns an unconfigured Environment
func New(options Options) *Environment {
	e := &Environment{
		store:        config.NewStore(options.Store),
		hooks:        environmentHooks.Instance(),
		destinations: map[string]io.Writer{},
		servers:      map[string]Server{},
		plugins:      NewPluginManager(),
		exit:         options.Exit,
	}

	if e.exit == nil {
		e.exit = os.Exit
	}

	servers := options.Servers
	if servers == nil {
		servers = defaultServers()
	}

	for _, s := range servers {
		e.RegisterServer(s)
	}

	return e
}

func (e *Environment) Env() string    { return e.env }
func (e *Environment) Port() int      { return e.port }
func (e *Environment) Host() string   { return e.host }
func (e *Environment) Server() string { return e.server }

// Logger returns the environment logger, nil until Setup
func (e *Environment) Logger() *logrus.Logger { return e.logger }

// Store returns the configuration store, overrides set on it apply on the
// next Setup
func (e *Environment) Store() *config.Store { return e.store }

// Settings returns the raw settings resolved during Setup, nil before.
// Plugins read their own keys from it.
func (e *Environment) Settings() *viper.Viper { return e.settings }

// Hooks returns the hooks registered on this environment only
func (e *Environment) Hooks() *hooks.Registry[*Environment] { return e.hooks }

func (e *Environment) Plugins() *PluginManager { return e.plugins }

// Config returns the configuration resolved during Setup. Before Setup it
// resolves the default environment on every call.
func (e *Environment) Config() config.Config {
	if e.configured {
		return e.config
	}

	c, err := e.store.Resolve("")
	if err != nil {
		e.log().WithError(err).Warn("unable to resolve configuration, using defaults")
		return config.Defaults()
	}
	return c
}

// Builder returns the pipeline apps are mounted into
func (e *Environment) Builder() *Builder {
	if e.builder == nil {
		e.builder = NewBuilder()
	}
	return e.builder
}

// Use adds middleware to the pipeline
func (e *Environment) Use(middlewares ...func(http.Handler) http.Handler) *Environment {
	e.Builder().Use(middlewares...)
	return e
}

// Before registers a hook on this environment to run before event
func (e *Environment) Before(event hooks.Event, hook hooks.Hook[*Environment]) error {
	return e.hooks.Before(event, hook)
}

// After registers a hook on this environment to run after event
func (e *Environment) After(event hooks.Event, hook hooks.Hook[*Environment]) error {
	return e.hooks.After(event, hook)
}

// Around registers a hook on this environment to run before and after event
func (e *Environment) Around(event hooks.Event, hook hooks.Hook[*Environment]) error {
	return e.hooks.Around(event, hooks.PriorityDefault, hook)
}

// Mount registers app to handle requests at path. Mounting the same path
// again replaces the earlier app. Apps are built during Setup.
func (e *Environment) Mount(app AppFunc, at string, setup ...MountSetupFunc) error {
	if at == "" {
		return errors.Errorf(errors.ErrorArgument, "mount path is required")
	}

	if app == nil {
		return errors.Errorf(errors.ErrorArgument, "mount app is required (at %s)", at)
	}

	at = cleanMountPath(at)
	m := &mount{path: at, app: app, setup: setup}

	for pos := range e.mounts {
		if e.mounts[pos].path == at {
			e.mounts[pos] = m
			return nil
		}
	}

	e.mounts = append(e.mounts, m)
	return nil
}

// Mounts returns the mounted paths in registration order
func (e *Environment) Mounts() []string {
	paths := make([]string, 0, len(e.mounts))
	for _, m := range e.mounts {
		paths = append(paths, m.path)
	}
	return paths
}

// Setup prepares the environment for running. An empty env falls back to
// APP_ENV and then to the env.default setting.
//
// The configure hooks wrap resolving the configuration; the setup hooks wrap
// initializing the logger, building every mounted app and initializing
// plugins. The environment is returned for chaining.
func (e *Environment) Setup(env string) (*Environment, error) {
	env = e.resolveEnv(env)

	e.env = env
	e.builder = NewBuilder()

	err := e.hooks.CallAround(e, EventConfigure, func() error {
		return e.useConfig(env)
	})
	if err != nil {
		return e, err
	}

	err = e.hooks.CallAround(e, EventSetup, func() error {
		if err := e.initLogger(); err != nil {
			return err
		}

		if err := e.buildMounts(); err != nil {
			return err
		}

		return e.plugins.initialize(e)
	})

	return e, err
}

func (e *Environment) useConfig(env string) error {
	v, err := e.store.Load(env)
	if err != nil {
		return err
	}

	c, err := config.Decode(v)
	if err != nil {
		return err
	}

	e.settings, e.config, e.configured = v, c, true
	return nil
}

func (e *Environment) buildMounts() error {
	builder := e.Builder()

	for _, m := range e.mounts {
		app, err := m.app(e.env, builder)
		if err != nil {
			return errors.Wrap(errors.ErrorMissConfigured, err)
		}

		if app == nil {
			return errors.Errorf(errors.ErrorMissConfigured, "app mounted at %s built a nil handler", m.path)
		}

		for _, setup := range m.setup {
			if setup == nil {
				continue
			}

			if err := setup(app); err != nil {
				return err
			}
		}

		builder.Mount(m.path, app)
	}

	return nil
}

// Forking calls the before fork hooks. Call it right before a forking
// server forks the process.
func (e *Environment) Forking() error {
	return e.hooks.Call(e, hooks.Before, EventFork)
}

// Forked calls the after fork hooks. Call it in the process once the fork
// is done.
func (e *Environment) Forked() error {
	return e.hooks.Call(e, hooks.After, EventFork)
}

// Fork calls Forking, fn and then Forked. Once Forking succeeded Forked
// always runs, even when fn fails or panics.
func (e *Environment) Fork(fn func() error) (err error) {
	if err := e.Forking(); err != nil {
		return err
	}

	defer func() {
		if ferr := e.Forked(); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}()

	if fn != nil {
		err = fn()
	}

	return err
}

// Reset returns the environment to its unconfigured state, it is safe to
// call at any time
func (e *Environment) Reset() {
	if err := e.plugins.deinitialize(e); err != nil {
		e.log().WithError(err).Warn("plugins did not deinitialize cleanly")
	}

	e.closeLogs()

	e.env, e.port, e.host, e.server = "", 0, "", ""
	e.logger = nil
	e.mounts = nil
	e.builder = nil
	e.settings, e.config, e.configured = nil, config.Config{}, false

	e.store.Reset()
}

// ServeHTTP hands the request to the pipeline built during Setup
func (e *Environment) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Builder().ServeHTTP(w, r)
}

// log returns a logger that is safe to use before Setup
func (e *Environment) log() *logrus.Logger {
	if e.logger != nil {
		return e.logger
	}
	return logrus.StandardLogger()
}
