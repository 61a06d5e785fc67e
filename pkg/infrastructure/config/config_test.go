package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kitchenledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, LockLocal, cfg.Lock.Backend)
	assert.Equal(t, 10*time.Second, cfg.Lock.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
	require.Contains(t, cfg.Markups, DefaultPlatform)
	assert.True(t, cfg.Markups[DefaultPlatform].Equal(decimal.NewFromInt(1)))
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: sqlite
  dsn: "file:ledger.db"
lock:
  ttl: 3s
log:
  level: debug
markups:
  default: 1.0
  Delivery: 1.3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "file:ledger.db", cfg.Store.DSN)
	assert.Equal(t, 3*time.Second, cfg.Lock.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Markups["delivery"].Equal(decimal.RequireFromString("1.3")))
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KITCHENLEDGER_STORE_BACKEND", "XLSX")
	t.Setenv("KITCHENLEDGER_STORE_PATH", "books.xlsx")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendXLSX, cfg.Store.Backend)
	assert.Equal(t, "books.xlsx", cfg.Store.Path)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:   StoreConfig{Backend: BackendMemory},
			Lock:    LockConfig{Backend: LockLocal, TTL: time.Second},
			Markups: map[string]decimal.Decimal{DefaultPlatform: decimal.NewFromInt(1)},
		}
	}

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown store backend", func(c *Config) { c.Store.Backend = "mongo" }},
		{"sqlite without dsn", func(c *Config) { c.Store.Backend = BackendSQLite }},
		{"xlsx without path", func(c *Config) { c.Store.Backend = BackendXLSX }},
		{"unknown lock backend", func(c *Config) { c.Lock.Backend = "etcd" }},
		{"redis without addr", func(c *Config) { c.Lock.Backend = LockRedis }},
		{"zero markup", func(c *Config) { c.Markups["grab"] = decimal.Zero }},
		{"negative markup", func(c *Config) { c.Markups[DefaultPlatform] = decimal.NewFromInt(-1) }},
	}

	require.NoError(t, valid().Validate())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
