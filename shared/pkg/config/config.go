package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	AuthFirebase = "firebase"
	AuthJWT      = "jwt"
)

type CommonConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"watch-store-api"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

type HTTPConfig struct {
	Addr string `env:"HTTP_ADDR" envDefault:":5000"`
	// PORT is what most PaaS runtimes inject; it wins over HTTP_ADDR.
	Port        string   `env:"PORT"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" envDefault:"mongo"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DATABASE" envDefault:"watch_store"`
}

type PostgresConfig struct {
	DSN       string `env:"POSTGRES_DSN"`
	DSNLegacy string `env:"PG_DSN"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	AdminTTL time.Duration `env:"ADMIN_CACHE_TTL" envDefault:"5m"`
	EventTTL time.Duration `env:"PROCESSED_EVENT_TTL" envDefault:"24h"`
}

type RabbitConfig struct {
	URL string `env:"RABBIT_URL"`
}

type AuthConfig struct {
	Provider                string `env:"AUTH_PROVIDER" envDefault:"firebase"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	JWTSecret               string `env:"JWT_SECRET"`
	JWTIssuer               string `env:"JWT_ISSUER"`
}

type PaymentConfig struct {
	StripeSecret string `env:"STRIPE_SECRET"`
	Currency     string `env:"PAYMENT_CURRENCY" envDefault:"usd"`
	MethodType   string `env:"PAYMENT_METHOD_TYPE" envDefault:"card"`
}

// OrdersConfig toggles stricter order handling. Both flags default to off,
// which leaves order creation and management open to any caller.
type OrdersConfig struct {
	StrictOwnership bool `env:"ORDERS_STRICT_OWNERSHIP" envDefault:"false"`
	AdminOnly       bool `env:"ORDERS_ADMIN_ONLY" envDefault:"false"`
}

type Config struct {
	Common   CommonConfig
	HTTP     HTTPConfig
	Store    StoreConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Rabbit   RabbitConfig
	Auth     AuthConfig
	Payment  PaymentConfig
	Orders   OrdersConfig
}

// Load reads the API configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.Port != "" {
		cfg.HTTP.Addr = ":" + cfg.HTTP.Port
	}
	if cfg.Postgres.DSN == "" {
		cfg.Postgres.DSN = cfg.Postgres.DSNLegacy
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	cfg.Auth.Provider = strings.ToLower(strings.TrimSpace(cfg.Auth.Provider))

	switch cfg.Store.Driver {
	case StoreMongo:
		if cfg.Mongo.URI == "" {
			return Config{}, fmt.Errorf("mongo uri is empty: set MONGO_URI")
		}
	case StorePostgres:
		if cfg.Postgres.DSN == "" {
			return Config{}, fmt.Errorf("postgres dsn is empty: set POSTGRES_DSN (or legacy PG_DSN)")
		}
	case StoreMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}

	switch cfg.Auth.Provider {
	case AuthFirebase:
	case AuthJWT:
		if cfg.Auth.JWTSecret == "" {
			return Config{}, fmt.Errorf("jwt secret is empty: set JWT_SECRET")
		}
	default:
		return Config{}, fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.Auth.Provider)
	}

	if cfg.Payment.StripeSecret == "" {
		return Config{}, fmt.Errorf("stripe secret is empty: set STRIPE_SECRET")
	}
	return cfg, nil
}

// WorkerConfig is the subset the notification worker needs.
type WorkerConfig struct {
	Common      CommonConfig
	Redis       RedisConfig
	Rabbit      RabbitConfig
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9100"`
}

func LoadWorker() (WorkerConfig, error) {
	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		return WorkerConfig{}, err
	}
	if cfg.Rabbit.URL == "" {
		return WorkerConfig{}, fmt.Errorf("rabbit url is empty: set RABBIT_URL")
	}
	if cfg.Redis.Addr == "" {
		return WorkerConfig{}, fmt.Errorf("redis addr is empty: set REDIS_ADDR")
	}
	return cfg, nil
}
