package orm

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slimloans/rigging"
	"github.com/slimloans/rigging/config"
	"github.com/slimloans/rigging/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   uint
	Name string
}

func setupPlugin(t *testing.T, config Config) (*rigging.Environment, *Plugin) {
	t.Helper()

	e := rigging.New(rigging.Options{Store: configOptions()})
	p := New(config)
	require.NoError(t, e.RegisterPlugin(p))

	_, err := e.Setup(rigging.Test)
	require.NoError(t, err)

	t.Cleanup(e.Reset)
	return e, p
}

func configOptions() config.Options {
	return config.Options{SkipFile: true}
}

func TestPluginLifecycle(t *testing.T) {
	e, p := setupPlugin(t, Config{Driver: DriverInMemory, Models: []interface{}{&widget{}}})

	db := p.DB()
	require.NotNil(t, db)
	require.NoError(t, db.Create(&widget{Name: "sprocket"}).Error)

	var count int64
	require.NoError(t, db.Model(&widget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, e.Forking())
	assert.Nil(t, p.DB())

	require.NoError(t, e.Forked())
	require.NotNil(t, p.DB())
	assert.NotSame(t, db, p.DB())

	// the reopened connection is migrated again
	require.NoError(t, p.DB().Model(&widget{}).Count(&count).Error)

	e.Reset()
	assert.Nil(t, p.DB())
}

func TestPluginSettings(t *testing.T) {
	e := rigging.New(rigging.Options{Store: configOptions()})
	e.Store().SetFor(rigging.Test, "database.driver", DriverInMemory)

	p := New(Config{})
	require.NoError(t, e.RegisterPlugin(p))

	_, err := e.Setup(rigging.Test)
	require.NoError(t, err)
	defer e.Reset()

	assert.Equal(t, DriverInMemory, p.Driver())
	assert.NotNil(t, p.DB())
}

func TestPluginUnsupportedDriver(t *testing.T) {
	e := rigging.New(rigging.Options{Store: configOptions()})
	require.NoError(t, e.RegisterPlugin(New(Config{Driver: "mongo"})))

	_, err := e.Setup(rigging.Test)
	assert.True(t, errors.Is(err, errors.ErrorMissConfigured))
}

func TestMiddleware(t *testing.T) {
	_, p := setupPlugin(t, Config{Driver: DriverInMemory})

	var found bool
	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		found = FromContext(r.Context()) != nil
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, found)

	assert.Nil(t, FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestMiddlewareInstalledOnSetup(t *testing.T) {
	e := rigging.New(rigging.Options{Store: configOptions()})
	require.NoError(t, e.RegisterPlugin(New(Config{Driver: DriverInMemory})))

	var found bool
	require.NoError(t, e.Mount(rigging.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		found = FromContext(r.Context()) != nil
	})), "/"))

	_, err := e.Setup(rigging.Test)
	require.NoError(t, err)
	defer e.Reset()

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, found)
}

func TestResolveConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	tests := []struct {
		name     string
		config   Config
		settings map[string]interface{}
		want     Config
	}{
		{
			"postgres defaults",
			Config{},
			nil,
			Config{Driver: DriverPostgres, DSN: "dbname=rigging host=127.0.0.1 port=5432 user=app password=password sslmode=disable"},
		},
		{
			"postgres settings",
			Config{},
			map[string]interface{}{"database.host": "db", "database.name": "shop", "database.port": 6432},
			Config{Driver: DriverPostgres, DSN: "dbname=shop host=db port=6432 user=app password=password sslmode=disable"},
		},
		{
			"sqlite file",
			Config{Driver: DriverSQLite},
			map[string]interface{}{"database.name": "shop"},
			Config{Driver: DriverSQLite, DSN: "db/shop.sqlite"},
		},
		{
			"explicit config wins",
			Config{Driver: DriverSQLite, DSN: "test.db"},
			map[string]interface{}{"database.driver": DriverPostgres, "database.dsn": "postgres://x"},
			Config{Driver: DriverSQLite, DSN: "test.db"},
		},
		{
			"in memory needs no dsn",
			Config{Driver: DriverInMemory},
			nil,
			Config{Driver: DriverInMemory},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for key, value := range tt.settings {
				v.Set(key, value)
			}

			assert.Equal(t, tt.want, resolveConfig(tt.config, v))
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://app@db/shop")

	c := resolveConfig(Config{}, nil)
	assert.Equal(t, "postgres://app@db/shop", c.DSN)
}
