package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/slimloans/rigging/errors"
	"github.com/spf13/viper"
)

// Options controls where a Store looks for settings outside of code
type Options struct {
	// Name of the config file without extension (default "rigging")
	Name string

	// Paths searched for the config file (default "." and "$HOME/.<name>")
	Paths []string

	// EnvPrefix for environment variable overrides (default "RIGGING"),
	// server.port is read from RIGGING_SERVER_PORT
	EnvPrefix string

	// SkipFile disables config file loading, useful in tests
	SkipFile bool
}

// Store resolves Config per named environment. Settings are layered, lowest
// first: schema defaults, environment defaults, config file, environment
// variables, overrides for every environment, overrides for the named one.
//
// Resolving never mutates the store so environments never leak into each
// other.
type Store struct {
	options Options

	mu          sync.RWMutex
	envDefaults map[string]Values
	overrides   map[string]Values // "" applies to every environment
}

// NewStore returns a store with the built in schema defaults
func NewStore(options Options) *Store {
	if options.Name == "" {
		options.Name = "rigging"
	}

	if options.EnvPrefix == "" {
		options.EnvPrefix = strings.ToUpper(options.Name)
	}

	if len(options.Paths) == 0 {
		options.Paths = []string{".", fmt.Sprintf("$HOME/.%s", options.Name)}
	}

	s := &Store{options: options}
	s.Reset()

	return s
}

// Reset drops every override and environment default added since creation
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.envDefaults = environmentDefaults()
	s.overrides = map[string]Values{}
}

// Set overrides key for every environment
func (s *Store) Set(key string, value interface{}) {
	s.SetFor("", key, value)
}

// SetFor overrides key for the named environment only
func (s *Store) SetFor(env, key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.overrides[env] == nil {
		s.overrides[env] = Values{}
	}
	s.overrides[env][strings.ToLower(key)] = value
}

// DefaultFor registers a default for the named environment, it still loses
// to config files, environment variables and overrides
func (s *Store) DefaultFor(env, key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.envDefaults[env] == nil {
		s.envDefaults[env] = Values{}
	}
	s.envDefaults[env][strings.ToLower(key)] = value
}

// Load builds the layered viper instance for env
func (s *Store) Load(env string) (*viper.Viper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := viper.New()

	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	for key, value := range s.envDefaults[env] {
		v.SetDefault(key, value)
	}

	if !s.options.SkipFile {
		v.SetConfigName(s.options.Name)
		for _, path := range s.options.Paths {
			v.AddConfigPath(path)
		}

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(errors.ErrorMissConfigured, err)
			}
		}
	}

	v.SetEnvPrefix(s.options.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range s.overrides[""] {
		v.Set(key, value)
	}

	if env != "" {
		for key, value := range s.overrides[env] {
			v.Set(key, value)
		}
	}

	return v, nil
}

// Resolve returns the typed settings for env
func (s *Store) Resolve(env string) (Config, error) {
	v, err := s.Load(env)
	if err != nil {
		return Config{}, err
	}
	return Decode(v)
}

// Decode unmarshals a loaded viper instance into Config
func Decode(v *viper.Viper) (Config, error) {
	var c Config

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(errors.ErrorMissConfigured, err)
	}

	c.finalize()
	return c, nil
}
