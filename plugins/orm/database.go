// Package orm keeps a gorm connection open for the lifetime of a set up
// environment and hands request scoped sessions to handlers.
package orm

import (
	"context"
	"net/http"
	"sync"

	"github.com/slimloans/rigging"
	"github.com/slimloans/rigging/errors"
	"gorm.io/gorm"
)

const PluginName = "orm"

type contextKeyT string

const contextKey contextKeyT = "rigging.orm"

// Config overrides the database.* settings, zero values fall back to them
type Config struct {
	Driver string
	DSN    string

	// Models are auto migrated every time a connection is opened
	Models []interface{}
}

// Plugin owns the connection. It is closed before a fork and reopened in
// the forked process.
type Plugin struct {
	config Config

	lock     sync.RWMutex
	db       *gorm.DB
	resolved Config
	logger   *Logger
}

func New(config Config) *Plugin {
	return &Plugin{config: config}
}

func (*Plugin) Name() string { return PluginName }

// Initialize opens the connection and installs the session middleware
func (p *Plugin) Initialize(e *rigging.Environment) error {
	p.resolved = resolveConfig(p.config, e.Settings())
	p.logger = newLogger(e.Logger(), p.resolved.Driver)

	if err := p.connect(); err != nil {
		return err
	}

	e.Use(p.Middleware)
	return nil
}

func (p *Plugin) Deinitialize(*rigging.Environment) error {
	return p.close()
}

func (p *Plugin) BeforeFork(*rigging.Environment) error {
	return p.close()
}

func (p *Plugin) AfterFork(*rigging.Environment) error {
	return p.connect()
}

// DB returns the shared connection, nil while closed
func (p *Plugin) DB() *gorm.DB {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return p.db
}

// Driver returns the driver the connection was opened with
func (p *Plugin) Driver() string {
	return p.resolved.Driver
}

// Middleware stores a fresh session on every request context
func (p *Plugin) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if db := p.DB(); db != nil {
			r = r.WithContext(ToContext(r.Context(), db.Session(&gorm.Session{NewDB: true})))
		}
		next.ServeHTTP(w, r)
	})
}

func ToContext(parent context.Context, db *gorm.DB) context.Context {
	return context.WithValue(parent, contextKey, db)
}

func FromContext(ctx context.Context) *gorm.DB {
	if db, ok := ctx.Value(contextKey).(*gorm.DB); ok {
		return db
	}
	return nil
}

func (p *Plugin) connect() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.db != nil {
		return nil
	}

	db, err := open(p.resolved.Driver, p.resolved.DSN, p.logger)
	if err != nil {
		return err
	}

	if len(p.resolved.Models) > 0 {
		if err := db.AutoMigrate(p.resolved.Models...); err != nil {
			closeDB(db)
			return errors.WrapGeneric(err)
		}
	}

	p.db = db
	return nil
}

func (p *Plugin) close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.db == nil {
		return nil
	}

	err := closeDB(p.db)
	p.db = nil
	return err
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
