package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrInvalidStorageDriver = errors.New("error getting PR_STORAGE_DRIVER: expected sqlite or postgres")
	ErrEmptyStoragePath     = errors.New("error getting PR_STORAGE_PATH: variable contains an empty string")
	ErrEmptyPostgresDSN     = errors.New("error getting PR_POSTGRES_DSN: variable not specified or contains an empty string")
	ErrIncompleteProxy      = errors.New("error getting PR_PROXY_USERNAME: required when PR_PROXY_HOST is set")
)

type Config struct {
	Env            string // Env is the current environment: local, development, production.
	MarketplaceURL string // MarketplaceURL is the origin every product url is resolved against.
	Storage        Storage
	Proxy          Proxy
	Fetch          Fetch
	Scrape         Scrape
	Scheduler      Scheduler
	Redis          Redis
	Tg             Telegram
}

type Storage struct {
	Driver      string
	Path        string // Path is the sqlite database file.
	PostgresDSN string
	MaxConns    int
	ViaBouncer  bool // ViaBouncer switches pgx to the simple protocol for transaction-pooling bouncers.
}

type Proxy struct {
	Host     string
	Port     int
	Username string
	Password string
	Insecure bool
}

// Enabled reports whether requests go through the proxy.
func (p Proxy) Enabled() bool {
	return p.Host != ""
}

type Fetch struct {
	Timeout time.Duration
	RPS     float64
	Burst   int
}

type Scrape struct {
	Concurrency          int
	BatchDelay           time.Duration
	DiscoveryConcurrency int
	PageDelay            time.Duration
	BatchSize            int
}

type Scheduler struct {
	Interval  time.Duration
	Autostart bool
}

type Redis struct {
	Addr    string // Addr enables the cross-process cycle lock; empty keeps the lock in-process.
	LockTTL time.Duration
}

type Telegram struct {
	Token   string        // Token is an unique telegram bot token. Empty disables the bot.
	Timeout time.Duration // Timeout is a poller timeout duration.
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
func MustLoad() *Config {
	// Automatically binds environment variables to config keys
	viper.SetEnvPrefix("PR")
	viper.AutomaticEnv()
	viper.AllowEmptyEnv(true)

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("MARKETPLACE_URL", "https://www.amazon.com")
	viper.SetDefault("STORAGE_DRIVER", DriverSQLite)
	viper.SetDefault("STORAGE_PATH", "./storage/products.db")
	viper.SetDefault("POSTGRES_MAX_CONNS", 10)
	viper.SetDefault("POSTGRES_VIA_BOUNCER", false)
	viper.SetDefault("PROXY_PORT", 22225)
	viper.SetDefault("PROXY_INSECURE", false)
	viper.SetDefault("FETCH_TIMEOUT", "30s")
	viper.SetDefault("REQUEST_RPS", 10)
	viper.SetDefault("REQUEST_BURST", 20)
	viper.SetDefault("SCRAPE_CONCURRENCY", 20)
	viper.SetDefault("BATCH_DELAY", "100ms")
	viper.SetDefault("DISCOVERY_CONCURRENCY", 5)
	viper.SetDefault("PAGE_DELAY", "500ms")
	viper.SetDefault("BATCH_SIZE", 50)
	viper.SetDefault("SCHEDULE_INTERVAL", "10m")
	viper.SetDefault("SCHEDULER_AUTOSTART", true)
	viper.SetDefault("LOCK_TTL", "30m")
	viper.SetDefault("TELEGRAM_TIMEOUT", "15s")

	storage := Storage{
		Driver:      viper.GetString("STORAGE_DRIVER"),
		Path:        viper.GetString("STORAGE_PATH"),
		PostgresDSN: viper.GetString("POSTGRES_DSN"),
		MaxConns:    viper.GetInt("POSTGRES_MAX_CONNS"),
		ViaBouncer:  viper.GetBool("POSTGRES_VIA_BOUNCER"),
	}
	switch storage.Driver {
	case DriverSQLite:
		if storage.Path == "" {
			panic(ErrEmptyStoragePath)
		}
	case DriverPostgres:
		if storage.PostgresDSN == "" {
			panic(ErrEmptyPostgresDSN)
		}
	default:
		panic(ErrInvalidStorageDriver)
	}

	proxy := Proxy{
		Host:     viper.GetString("PROXY_HOST"),
		Port:     viper.GetInt("PROXY_PORT"),
		Username: viper.GetString("PROXY_USERNAME"),
		Password: viper.GetString("PROXY_PASSWORD"),
		Insecure: viper.GetBool("PROXY_INSECURE"),
	}
	if proxy.Host != "" && proxy.Username == "" {
		panic(ErrIncompleteProxy)
	}

	return &Config{
		Env:            viper.GetString("ENV"),
		MarketplaceURL: viper.GetString("MARKETPLACE_URL"),
		Storage:        storage,
		Proxy:          proxy,
		Fetch: Fetch{
			Timeout: viper.GetDuration("FETCH_TIMEOUT"),
			RPS:     viper.GetFloat64("REQUEST_RPS"),
			Burst:   viper.GetInt("REQUEST_BURST"),
		},
		Scrape: Scrape{
			Concurrency:          viper.GetInt("SCRAPE_CONCURRENCY"),
			BatchDelay:           viper.GetDuration("BATCH_DELAY"),
			DiscoveryConcurrency: viper.GetInt("DISCOVERY_CONCURRENCY"),
			PageDelay:            viper.GetDuration("PAGE_DELAY"),
			BatchSize:            viper.GetInt("BATCH_SIZE"),
		},
		Scheduler: Scheduler{
			Interval:  viper.GetDuration("SCHEDULE_INTERVAL"),
			Autostart: viper.GetBool("SCHEDULER_AUTOSTART"),
		},
		Redis: Redis{
			Addr:    viper.GetString("REDIS_ADDR"),
			LockTTL: viper.GetDuration("LOCK_TTL"),
		},
		Tg: Telegram{
			Token:   viper.GetString("TELEGRAM_TOKEN"),
			Timeout: viper.GetDuration("TELEGRAM_TIMEOUT"),
		},
	}
}
