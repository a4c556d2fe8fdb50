package rigging

import (
	"fmt"

	"github.com/slimloans/rigging/errors"
)

// Plugin manages a resource that lives as long as a set up environment,
// database pools and cache clients for example.
type Plugin interface {
	// Name returns the plugin's name, it must be unique per environment.
	Name() string

	// Initialize runs at the end of Setup once apps are mounted.
	Initialize(e *Environment) error

	// Deinitialize runs on Reset.
	Deinitialize(e *Environment) error
}

// PluginBeforeFork is implemented by plugins holding resources that can not
// cross a fork, eg network connections
type PluginBeforeFork interface {
	BeforeFork(e *Environment) error
}

// PluginAfterFork reopens what BeforeFork closed
type PluginAfterFork interface {
	AfterFork(e *Environment) error
}

// PluginManager keeps plugins in registration order
type PluginManager struct {
	plugins     []Plugin
	index       map[string]Plugin
	initialized bool
}

func NewPluginManager() *PluginManager {
	return &PluginManager{index: map[string]Plugin{}}
}

// Get returns a plugin by name, nil when not registered
func (pm *PluginManager) Get(name string) Plugin {
	return pm.index[name]
}

// Names returns plugin names in registration order
func (pm *PluginManager) Names() []string {
	names := make([]string, 0, len(pm.plugins))
	for _, p := range pm.plugins {
		names = append(names, p.Name())
	}
	return names
}

func (pm *PluginManager) Initialized() bool { return pm.initialized }

func (pm *PluginManager) add(p Plugin) error {
	if _, exists := pm.index[p.Name()]; exists {
		return errors.Errorf(errors.ErrorArgument, "plugin %s already registered", p.Name())
	}

	pm.plugins = append(pm.plugins, p)
	pm.index[p.Name()] = p
	return nil
}

func (pm *PluginManager) initialize(e *Environment) error {
	if pm.initialized {
		if err := pm.deinitialize(e); err != nil {
			return err
		}
	}

	for pos := range pm.plugins {
		if err := pm.plugins[pos].Initialize(e); err != nil {
			return fmt.Errorf("failed to initialize plugin %s: %w", pm.plugins[pos].Name(), err)
		}
	}

	pm.initialized = true
	return nil
}

// deinitialize runs in reverse registration order and keeps going on errors
func (pm *PluginManager) deinitialize(e *Environment) error {
	if !pm.initialized {
		return nil
	}
	pm.initialized = false

	var errs []error
	for pos := len(pm.plugins) - 1; pos >= 0; pos-- {
		if err := pm.plugins[pos].Deinitialize(e); err != nil {
			errs = append(errs, fmt.Errorf("failed to deinitialize plugin %s: %w", pm.plugins[pos].Name(), err))
		}
	}

	return errors.Join(errs...)
}

// RegisterPlugin adds plugins to the environment. Fork aware plugins are
// bound to the environment fork hooks, they only run while plugins are
// initialized.
func (e *Environment) RegisterPlugin(plugins ...Plugin) error {
	for _, p := range plugins {
		if p == nil {
			return errors.Errorf(errors.ErrorArgument, "plugin is nil")
		}

		if err := e.plugins.add(p); err != nil {
			return err
		}

		if bf, ok := p.(PluginBeforeFork); ok {
			err := e.hooks.Before(EventFork, func(e *Environment) error {
				if !e.plugins.initialized {
					return nil
				}
				return bf.BeforeFork(e)
			})
			if err != nil {
				return err
			}
		}

		if af, ok := p.(PluginAfterFork); ok {
			err := e.hooks.After(EventFork, func(e *Environment) error {
				if !e.plugins.initialized {
					return nil
				}
				return af.AfterFork(e)
			})
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// GetPlugin returns the named plugin as T
func GetPlugin[T Plugin](e *Environment, name string) (T, bool) {
	p, ok := e.plugins.Get(name).(T)
	return p, ok
}
