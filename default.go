package rigging

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/slimloans/rigging/hooks"
)

var (
	lock               sync.RWMutex
	defaultEnvironment = New(Options{})
)

// Default returns the process wide environment the package level functions
// act on
func Default() *Environment {
	lock.RLock()
	defer lock.RUnlock()

	return defaultEnvironment
}

// SetDefault replaces the process wide environment and returns the previous
// one, tests use it to swap in an isolated environment
func SetDefault(e *Environment) *Environment {
	lock.Lock()
	defer lock.Unlock()

	prev := defaultEnvironment
	defaultEnvironment = e
	return prev
}

// Mount registers app on the default environment
func Mount(app AppFunc, at string, setup ...MountSetupFunc) error {
	return Default().Mount(app, at, setup...)
}

// Setup sets up the default environment
func Setup(env string) (*Environment, error) {
	return Default().Setup(env)
}

// Run runs the default environment
func Run(opts RunOptions) error {
	return Default().Run(opts)
}

// Reset resets the default environment
func Reset() {
	Default().Reset()
}

func Forking() error { return Default().Forking() }
func Forked() error  { return Default().Forked() }

func Fork(fn func() error) error { return Default().Fork(fn) }

// Logger returns the default environment logger, nil until Setup
func Logger() *logrus.Logger {
	return Default().Logger()
}

// Before registers a hook on the default environment
func Before(event hooks.Event, hook hooks.Hook[*Environment]) error {
	return Default().Before(event, hook)
}

// After registers a hook on the default environment
func After(event hooks.Event, hook hooks.Hook[*Environment]) error {
	return Default().After(event, hook)
}

// RegisterPlugin adds plugins to the default environment
func RegisterPlugin(plugins ...Plugin) error {
	return Default().RegisterPlugin(plugins...)
}
