package rigging

import (
	"os"

	"github.com/slimloans/rigging/config"
)

const (
	// EnvVarName names the environment started when Setup gets none
	EnvVarName = "APP_ENV"

	Production  = config.Production
	Staging     = config.Staging
	Development = config.Development
	Test        = config.Test
)

func (e *Environment) resolveEnv(env string) string {
	if env != "" {
		return env
	}

	if env = os.Getenv(EnvVarName); env != "" {
		return env
	}

	return e.Config().Env.Default
}

// IsProduction returns true when the environment was set up as production
func (e *Environment) IsProduction() bool { return e.env == Production }

// IsDevelopment returns true when the environment was set up as development
func (e *Environment) IsDevelopment() bool { return e.env == Development }

// IsTest returns true when the environment was set up as test
func (e *Environment) IsTest() bool { return e.env == Test }
