package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shibukawa/ucl"
	"github.com/shibukawa/ucl/expand"
)

func loadConfig(t *testing.T, name string, handlers ...expand.Handler) *ucl.Object {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	assert.NoError(t, err)

	p := New(string(data))
	for _, h := range handlers {
		p.AddVariableHandler(h)
	}

	v, err := p.ParseDocument()
	assert.NoError(t, err)

	obj, ok := v.(*ucl.Object)
	assert.True(t, ok)

	return obj
}

func lookup(t *testing.T, obj *ucl.Object, path ...string) ucl.Value {
	t.Helper()

	var v ucl.Value = obj
	for _, key := range path {
		o, ok := v.(*ucl.Object)
		assert.True(t, ok)
		v, ok = o.Get(key)
		assert.True(t, ok)
	}

	return v
}

func TestServerConfig(t *testing.T) {
	obj := loadConfig(t, "server.ucl")

	assert.Equal[ucl.Value](t, ucl.Integer(4), lookup(t, obj, "worker_processes"))
	assert.Equal[ucl.Value](t, ucl.String("/run/app.pid"), lookup(t, obj, "pid"))
	assert.Equal[ucl.Value](t, ucl.Integer(1024), lookup(t, obj, "events", "worker_connections"))
	assert.Equal[ucl.Value](t, ucl.Float(65), lookup(t, obj, "http", "keepalive_timeout"))
	assert.Equal[ucl.Value](t, ucl.Integer(16<<20), lookup(t, obj, "http", "client_max_body_size"))

	// nginx-nested blocks
	assert.Equal[ucl.Value](t, ucl.String("127.0.0.1"), lookup(t, obj, "http", "upstream", "backend", "server"))
	assert.Equal[ucl.Value](t, ucl.String("/var/www/html"), lookup(t, obj, "http", "server", "location", "/", "root"))

	assert.Equal[ucl.Value](t,
		ucl.String("example.com www.example.com"),
		lookup(t, obj, "http", "server", "server_name"))
}

func TestAppConfig(t *testing.T) {
	obj := loadConfig(t, "app.ucl", expand.MapHandler{
		"DB_HOST": "db.internal",
		"DB_USER": "billing",
	})

	assert.Equal[ucl.Value](t, ucl.String("billing"), lookup(t, obj, "name"))
	assert.Equal[ucl.Value](t, ucl.Bool(false), lookup(t, obj, "debug"))
	assert.Equal[ucl.Value](t, ucl.String("db.internal"), lookup(t, obj, "database", "host"))
	assert.Equal[ucl.Value](t, ucl.String("billing"), lookup(t, obj, "database", "user"))
	assert.Equal[ucl.Value](t, ucl.String("${keep-literal}"), lookup(t, obj, "database", "password"))
	assert.Equal[ucl.Value](t, ucl.Float(1800), lookup(t, obj, "database", "pool", "lifetime"))
	assert.Equal[ucl.Value](t, ucl.String("billing service\ninternal use only\n"), lookup(t, obj, "banner"))
	assert.Equal[ucl.Value](t, ucl.Bool(true), lookup(t, obj, "section", "features", "beta", "dark_mode"))
	assert.Equal[ucl.Value](t, ucl.Array{ucl.String("csv"), ucl.String("json")},
		lookup(t, obj, "section", "features", "beta", "exports"))
}

func TestAppConfigWithoutVariables(t *testing.T) {
	obj := loadConfig(t, "app.ucl")

	// fallback applies, unknown references stay verbatim
	assert.Equal[ucl.Value](t, ucl.String("localhost"), lookup(t, obj, "database", "host"))
	assert.Equal[ucl.Value](t, ucl.String("$DB_USER"), lookup(t, obj, "database", "user"))
}

func TestDecodeRoundTrip(t *testing.T) {
	type Pool struct {
		MaxOpen  int     `ucl:"max_open"`
		MaxIdle  int     `ucl:"max_idle"`
		Lifetime float64 `ucl:"lifetime"`
	}
	type Database struct {
		Host string
		Port int
		Pool Pool
	}
	type Limits struct {
		RequestBody int64   `ucl:"request_body"`
		Timeout     float64 `ucl:"timeout"`
		Retries     int
	}
	type Config struct {
		Name        string
		Environment string
		Debug       bool
		Database    Database
		Limits      Limits
	}

	obj := loadConfig(t, "app.ucl", expand.MapHandler{"DB_HOST": "db.internal"})

	var cfg Config
	assert.NoError(t, ucl.Decode(obj, &cfg))

	assert.Equal(t, "billing", cfg.Name)
	assert.Equal(t, "production", cfg.Environment)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, Pool{MaxOpen: 25, MaxIdle: 5, Lifetime: 1800}, cfg.Database.Pool)
	assert.Equal(t, Limits{RequestBody: 4 << 20, Timeout: 15, Retries: 3}, cfg.Limits)
}
