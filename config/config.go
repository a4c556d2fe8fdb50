// Package config holds the typed settings schema for a rigging environment
// and the Store that resolves it for a named environment.
package config

import "time"

const (
	Development = "development"
	Test        = "test"
	Staging     = "staging"
	Production  = "production"

	DefaultEnv             = Development
	DefaultPort            = 3000
	DefaultHost            = "localhost"
	DefaultServer          = "http"
	DefaultShutdownTimeout = 10 * time.Second

	// DevNull discards everything written to it
	DevNull = "/dev/null"
	Stdout  = "stdout"
	Stderr  = "stderr"
)

// Config is the resolved settings for one named environment
type Config struct {
	Env        EnvConfig        `mapstructure:"env" yaml:"env"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Normalizer NormalizerConfig `mapstructure:"normalizer" yaml:"normalizer"`
}

type EnvConfig struct {
	// Default is the environment started when none is given
	Default string `mapstructure:"default" yaml:"default"`
}

type ServerConfig struct {
	Port    int    `mapstructure:"port" yaml:"port"`
	Host    string `mapstructure:"host" yaml:"host"`
	Default string `mapstructure:"default" yaml:"default"` // name of the network server

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type LoggerConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Level        string   `mapstructure:"level" yaml:"level"`
	Formatter    string   `mapstructure:"formatter" yaml:"formatter"`
	Destinations []string `mapstructure:"destinations" yaml:"destinations"`
}

type NormalizerConfig struct {
	StrictPath bool `mapstructure:"strict_path" yaml:"strict_path"`
	StrictWWW  bool `mapstructure:"strict_www" yaml:"strict_www"`
	RequireWWW bool `mapstructure:"require_www" yaml:"require_www"`
}

// Values is a flat dotted-key settings table, eg "server.port"
type Values map[string]interface{}

func defaults() Values {
	return Values{
		"env.default": DefaultEnv,

		"server.port":             DefaultPort,
		"server.host":             DefaultHost,
		"server.default":          DefaultServer,
		"server.shutdown_timeout": DefaultShutdownTimeout,

		"logger.enabled":      true,
		"logger.level":        "debug",
		"logger.formatter":    "dev",
		"logger.destinations": []string{},

		"normalizer.strict_path": true,
		"normalizer.strict_www":  false,
		"normalizer.require_www": true,
	}
}

// environmentDefaults are layered over defaults for their environment only
func environmentDefaults() map[string]Values {
	return map[string]Values{
		Test: {
			"logger.enabled":      false,
			"logger.destinations": []string{DevNull},
		},
		Production: {
			"logger.level":     "info",
			"logger.formatter": "logfmt",
		},
	}
}

// Defaults returns the schema defaults without reading files, environment
// variables or overrides
func Defaults() Config {
	return Config{
		Env: EnvConfig{Default: DefaultEnv},
		Server: ServerConfig{
			Port:            DefaultPort,
			Host:            DefaultHost,
			Default:         DefaultServer,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Logger: LoggerConfig{
			Enabled:      true,
			Level:        "debug",
			Formatter:    "dev",
			Destinations: []string{Stdout},
		},
		Normalizer: NormalizerConfig{StrictPath: true, RequireWWW: true},
	}
}

// finalize fills settings that depend on other settings
func (c *Config) finalize() {
	if !c.Logger.Enabled {
		c.Logger.Destinations = []string{DevNull}
		return
	}

	if len(c.Logger.Destinations) == 0 {
		c.Logger.Destinations = []string{Stdout}
	}
}
