package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=production"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Backend  BackendConfig
	Session  SessionConfig
	Realtime RealtimeConfig
	Cache    CacheConfig

	Mongo MongoConfig
	Redis RedisConfig
}

// BackendConfig points at the marketplace REST API. The variable names are
// shared with the dashboard front-end.
type BackendConfig struct {
	BaseURL string        `env:"NEXT_PUBLIC_API_URL"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT, default=15s"`
}

type SessionConfig struct {
	Secret       string        `env:"NEXTAUTH_SECRET"`
	CookieName   string        `env:"SESSION_COOKIE_NAME, default=supplier_session"`
	MaxAge       time.Duration `env:"SESSION_MAX_AGE,     default=720h"`
	RequiredRole string        `env:"REQUIRED_ROLE,       default=supplier"`

	// CookieSecure marks the session cookie Secure. Only a local plain-HTTP
	// setup should turn it off.
	CookieSecure bool `env:"SESSION_COOKIE_SECURE, default=true"`
}

type RealtimeConfig struct {
	URL                  string        `env:"NEXT_PUBLIC_WS_URL,            default=ws://localhost:5000"`
	ReconnectMaxAttempts int           `env:"REALTIME_RECONNECT_ATTEMPTS,   default=0"`
	ReconnectBaseDelay   time.Duration `env:"REALTIME_RECONNECT_BASE_DELAY, default=500ms"`
	ReconnectMaxDelay    time.Duration `env:"REALTIME_RECONNECT_MAX_DELAY,  default=30s"`
}

type CacheConfig struct {
	NotificationTTL     time.Duration `env:"NOTIFICATION_CACHE_TTL, default=2m"`
	InvalidationWorkers int           `env:"INVALIDATION_WORKERS,   default=8"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=supplier_console"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsDevelopment reports whether the service runs in a local environment,
// where logs are printed for humans.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "test"
}

// Validate checks settings the service cannot start without. A missing
// NEXT_PUBLIC_API_URL is not fatal: every upstream call then fails with a
// configuration error.
func (c *Config) Validate() error {
	var errs []error
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("NEXTAUTH_SECRET is required"))
	}
	if c.Session.MaxAge <= 0 {
		errs = append(errs, errors.New("SESSION_MAX_AGE must be positive"))
	}
	if c.Realtime.ReconnectMaxAttempts < 0 {
		errs = append(errs, errors.New("REALTIME_RECONNECT_ATTEMPTS must not be negative"))
	}
	if c.Realtime.ReconnectBaseDelay < 0 || c.Realtime.ReconnectMaxDelay < 0 {
		errs = append(errs, errors.New("REALTIME_RECONNECT delays must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
