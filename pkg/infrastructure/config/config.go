package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	BackendMemory   = "memory"
	BackendMemtable = "memtable"
	BackendXLSX     = "xlsx"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	LockLocal = "local"
	LockRedis = "redis"

	DefaultPlatform = "default"
)

// Config holds the ledger runtime configuration.
type Config struct {
	Store   StoreConfig
	Lock    LockConfig
	Log     LogConfig
	Markups map[string]decimal.Decimal
}

type StoreConfig struct {
	Backend string
	Path    string
	DSN     string
}

type LockConfig struct {
	Backend   string
	RedisAddr string
	TTL       time.Duration
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the optional file at path and from
// KITCHENLEDGER_* environment variables. A missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KITCHENLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kitchenledger")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Store: StoreConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("store.backend"))),
			Path:    strings.TrimSpace(v.GetString("store.path")),
			DSN:     strings.TrimSpace(v.GetString("store.dsn")),
		},
		Lock: LockConfig{
			Backend:   strings.ToLower(strings.TrimSpace(v.GetString("lock.backend"))),
			RedisAddr: strings.TrimSpace(v.GetString("lock.redis_addr")),
			TTL:       v.GetDuration("lock.ttl"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}

	markups, err := parseMarkups(v.GetStringMapString("markups"))
	if err != nil {
		return Config{}, err
	}
	cfg.Markups = markups

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.path", "kitchenledger.xlsx")
	v.SetDefault("store.dsn", "")
	v.SetDefault("lock.backend", LockLocal)
	v.SetDefault("lock.redis_addr", "localhost:6379")
	v.SetDefault("lock.ttl", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("markups", map[string]string{DefaultPlatform: "1"})
}

func parseMarkups(raw map[string]string) (map[string]decimal.Decimal, error) {
	markups := make(map[string]decimal.Decimal, len(raw)+1)
	for platform, value := range raw {
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("markups.%s: %w", platform, err)
		}
		markups[strings.ToLower(platform)] = d
	}
	if _, ok := markups[DefaultPlatform]; !ok {
		markups[DefaultPlatform] = decimal.NewFromInt(1)
	}
	return markups, nil
}

// Validate rejects unknown backends and non-positive markups.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendMemtable:
	case BackendXLSX:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the xlsx backend")
		}
	case BackendSQLite, BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s backend", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}

	switch c.Lock.Backend {
	case LockLocal:
	case LockRedis:
		if c.Lock.RedisAddr == "" {
			return errors.New("lock.redis_addr is required for the redis lock backend")
		}
		if c.Lock.TTL <= 0 {
			return errors.New("lock.ttl must be positive")
		}
	default:
		return fmt.Errorf("unknown lock.backend %q", c.Lock.Backend)
	}

	for platform, markup := range c.Markups {
		if !markup.IsPositive() {
			return fmt.Errorf("markups.%s must be positive, got %s", platform, markup)
		}
	}
	return nil
}
