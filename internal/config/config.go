package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"dev"`
	Port int    `env:"PORT" envDefault:"8080"`

	DB     DBConfig
	Redis  RedisConfig
	Offers OffersConfig
	Media  MediaConfig
	Stripe StripeConfig
	Worker WorkerConfig

	OTELEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"marketplace-api"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MaxBodyBytes       int64    `env:"MAX_BODY_BYTES" envDefault:"10485760"`

	AuthRateLimit     int           `env:"AUTH_RATE_LIMIT" envDefault:"20"`
	AuthRateWindow    time.Duration `env:"AUTH_RATE_WINDOW" envDefault:"1m"`
	PaymentRateLimit  int           `env:"PAYMENT_RATE_LIMIT" envDefault:"10"`
	PaymentRateWindow time.Duration `env:"PAYMENT_RATE_WINDOW" envDefault:"1m"`

	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"30s"`

	SeedUserMail     string `env:"SEED_USER_MAIL"`
	SeedUserPassword string `env:"SEED_USER_PASSWORD"`
	SeedUserName     string `env:"SEED_USER_NAME" envDefault:"seed"`
}

type DBConfig struct {
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"marketplace"`
	Password string `env:"DB_PASSWORD" envDefault:"marketplace"`
	Name     string `env:"DB_NAME" envDefault:"marketplace"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

// DSN prefers DATABASE_URL and otherwise assembles one from the DB_* pieces.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=" + c.SSLMode
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type OffersConfig struct {
	PriceCeiling float64 `env:"OFFER_PRICE_CEILING" envDefault:"100000"`
	PageSize     int     `env:"OFFER_PAGE_SIZE" envDefault:"2"`
	MaxPageSize  int     `env:"OFFER_MAX_PAGE_SIZE" envDefault:"100"`
	Currency     string  `env:"OFFER_CURRENCY" envDefault:"eur"`
}

type MediaConfig struct {
	Endpoint      string `env:"MEDIA_S3_ENDPOINT"`
	Region        string `env:"MEDIA_S3_REGION" envDefault:"us-east-1"`
	Bucket        string `env:"MEDIA_S3_BUCKET" envDefault:"marketplace"`
	AccessKey     string `env:"MEDIA_S3_ACCESS_KEY"`
	SecretKey     string `env:"MEDIA_S3_SECRET_KEY"`
	PublicBaseURL string `env:"MEDIA_PUBLIC_BASE_URL"`
}

func (c MediaConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

type StripeConfig struct {
	BaseURL   string        `env:"STRIPE_BASE_URL" envDefault:"https://api.stripe.com"`
	SecretKey string        `env:"STRIPE_SECRET"`
	Timeout   time.Duration `env:"STRIPE_TIMEOUT" envDefault:"10s"`
}

type WorkerConfig struct {
	PollInterval  time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"500ms"`
	Concurrency   int           `env:"WORKER_CONCURRENCY" envDefault:"4"`
	LockTTL       time.Duration `env:"WORKER_LOCK_TTL" envDefault:"1m"`
	ShutdownGrace time.Duration `env:"WORKER_SHUTDOWN_GRACE" envDefault:"10s"`
	HealthPort    int           `env:"WORKER_HEALTH_PORT" envDefault:"8081"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	err := godotenv.Load()

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Offers.PageSize <= 0 || cfg.Offers.MaxPageSize < cfg.Offers.PageSize {
		return Config{}, fmt.Errorf("invalid offer page sizes: default=%d max=%d", cfg.Offers.PageSize, cfg.Offers.MaxPageSize)
	}

	if cfg.Offers.PriceCeiling <= 0 {
		return Config{}, fmt.Errorf("invalid offer price ceiling: %v", cfg.Offers.PriceCeiling)
	}

	return cfg, nil
}

// WithTimeout bounds a store call. A nil parent falls back to context.Background.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}

	return context.WithTimeout(parent, duration)
}
