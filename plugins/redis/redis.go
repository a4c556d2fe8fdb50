// Package redis keeps a go-redis client for the lifetime of a set up
// environment.
package redis

import (
	"context"
	"fmt"
	"sync"

	redis "github.com/redis/go-redis/v9"
	"github.com/segmentio/encoding/json"
	"github.com/slimloans/rigging"
	"github.com/slimloans/rigging/errors"
	"github.com/spf13/viper"
)

const PluginName = "redis"

// Config overrides the redis.* settings, zero values fall back to them
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Plugin owns the client. Connections can not be shared across a fork so
// the client is closed before one and recreated after.
type Plugin struct {
	config Config

	lock     sync.RWMutex
	client   *redis.Client
	resolved Config
	env      *rigging.Environment
}

func New(config Config) *Plugin {
	return &Plugin{config: config}
}

func (*Plugin) Name() string { return PluginName }

func (p *Plugin) Initialize(e *rigging.Environment) error {
	p.env = e
	p.resolved = resolveConfig(p.config, e.Settings())

	p.connect()
	return nil
}

func (p *Plugin) Deinitialize(*rigging.Environment) error {
	return p.close()
}

func (p *Plugin) BeforeFork(*rigging.Environment) error {
	return p.close()
}

func (p *Plugin) AfterFork(*rigging.Environment) error {
	p.connect()
	return nil
}

// Client returns the client, nil while closed
func (p *Plugin) Client() *redis.Client {
	p.lock.RLock()
	defer p.lock.RUnlock()

	return p.client
}

// Ping checks the server is reachable
func (p *Plugin) Ping(ctx context.Context) error {
	client := p.Client()
	if client == nil {
		return errNotConnected()
	}
	return client.Ping(ctx).Err()
}

// Publish sends payload as JSON on channel
func (p *Plugin) Publish(ctx context.Context, channel string, payload interface{}) error {
	client := p.Client()
	if client == nil {
		return errNotConnected()
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return errors.WrapGeneric(err)
	}

	return client.Publish(ctx, channel, b).Err()
}

func (p *Plugin) connect() {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.client != nil {
		return
	}

	if p.env != nil && p.env.Logger() != nil {
		p.env.Logger().Debugf("redis client initialized for %s", p.resolved.Addr)
	}

	p.client = redis.NewClient(&redis.Options{
		Addr:     p.resolved.Addr,
		Password: p.resolved.Password,
		DB:       p.resolved.DB,
	})
}

func (p *Plugin) close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.client == nil {
		return nil
	}

	err := p.client.Close()
	p.client = nil
	return err
}

func resolveConfig(config Config, v *viper.Viper) Config {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("redis.addr", "localhost:6379")

	if config.Addr == "" {
		config.Addr = v.GetString("redis.addr")
	}

	if config.Password == "" {
		config.Password = v.GetString("redis.password")
	}

	if config.DB == 0 {
		config.DB = v.GetInt("redis.db")
	}

	return config
}

func errNotConnected() error {
	return errors.Wrap(errors.ErrorMissConfigured, fmt.Errorf("redis is not connected, is the plugin initialized?"))
}
