package orm

import (
	"fmt"
	"os"

	"github.com/slimloans/rigging/errors"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverInMemory = "in-memory"
)

// resolveConfig fills the zero fields of config from the database.*
// settings. DATABASE_URL wins over the postgres settings like it does on
// most hosts.
func resolveConfig(config Config, v *viper.Viper) Config {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "app")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "rigging")

	if config.Driver == "" {
		config.Driver = v.GetString("database.driver")
	}

	if config.DSN == "" {
		config.DSN = v.GetString("database.dsn")
	}

	if config.DSN == "" {
		switch config.Driver {
		case DriverPostgres:
			config.DSN = postgresConnectionString(v)
		case DriverSQLite:
			config.DSN = fmt.Sprintf("db/%s.sqlite", v.GetString("database.name"))
		}
	}

	return config
}

func postgresConnectionString(v *viper.Viper) string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	return fmt.Sprintf("dbname=%s host=%s port=%d user=%s password=%s sslmode=disable",
		v.GetString("database.name"),
		v.GetString("database.host"),
		v.GetInt("database.port"),
		v.GetString("database.username"),
		v.GetString("database.password"),
	)
}

func open(driver, dsn string, l *Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverInMemory:
		dialector = sqlite.Open(":memory:")
	default:
		return nil, errors.Errorf(errors.ErrorMissConfigured, "database driver %q not supported", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: l})
	if err != nil {
		return nil, errors.WrapGeneric(err)
	}

	if driver == DriverInMemory {
		// every connection to :memory: is its own database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.WrapGeneric(err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}
