// Package config loads the auth service configuration from the environment.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	"github.com/Joseph-VJ/houlnd-realty/internal/password"
	"github.com/Joseph-VJ/houlnd-realty/internal/ratelimit"
	"github.com/Joseph-VJ/houlnd-realty/internal/service"
	"github.com/Joseph-VJ/houlnd-realty/internal/token"
	pkgconfig "github.com/Joseph-VJ/houlnd-realty/pkg/config"
	"github.com/Joseph-VJ/houlnd-realty/pkg/database"
	"github.com/Joseph-VJ/houlnd-realty/pkg/tracing"
)

// Development secrets. They are rejected outside development.
const (
	DefaultAccessSecret  = "dev-access-secret-change-me-0123456789"
	DefaultRefreshSecret = "dev-refresh-secret-change-me-0123456789"

	minSecretLength        = 32
	minProductionBcrypt    = 10
	environmentDevelopment = "development"
)

// Config holds all configuration for the auth service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development" validate:"oneof=development test staging production"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"auth-service"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8001" validate:"min=1,max=65535"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// PostgreSQL
	PostgresHost        string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort        int           `env:"POSTGRES_PORT" envDefault:"5432" validate:"min=1,max=65535"`
	PostgresUser        string        `env:"POSTGRES_USER" envDefault:"houlnd"`
	PostgresPass        string        `env:"POSTGRES_PASSWORD" envDefault:"houlnd_secret"`
	PostgresDB          string        `env:"POSTGRES_DB" envDefault:"houlnd_auth"`
	PostgresSSL         string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns    int32         `env:"POSTGRES_MAX_CONNS" envDefault:"20" validate:"min=1"`
	PostgresMinConns    int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2" validate:"min=0"`
	PostgresMaxLifetime time.Duration `env:"POSTGRES_MAX_CONN_LIFETIME" envDefault:"1h"`
	PostgresMaxIdleTime time.Duration `env:"POSTGRES_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	RunMigrations       bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	SlowQueryThreshold  time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379" validate:"min=1,max=65535"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0" validate:"min=0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20" validate:"min=1"`

	// Kafka. Empty disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0" validate:"min=0,max=1"`
	OTELInsecure   bool    `env:"OTEL_INSECURE" envDefault:"true"`

	// JWT
	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET" envDefault:"dev-access-secret-change-me-0123456789"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"dev-refresh-secret-change-me-0123456789"`
	JWTIssuer        string        `env:"JWT_ISSUER" envDefault:"houlnd-realty"`
	JWTAudience      string        `env:"JWT_AUDIENCE" envDefault:"houlnd-realty-client"`
	JWTAccessTTL     time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	JWTRefreshTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`

	// Passwords
	BcryptCost  int `env:"BCRYPT_COST" envDefault:"12" validate:"min=4,max=31"`
	HashWorkers int `env:"HASH_WORKERS" envDefault:"0" validate:"min=0"`

	// Auth flows
	LockoutMaxAttempts   int           `env:"LOCKOUT_MAX_ATTEMPTS" envDefault:"5" validate:"min=1"`
	LockoutDuration      time.Duration `env:"LOCKOUT_DURATION" envDefault:"15m"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"24h"`
	StoreTimeout         time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`
	AuditTimeout         time.Duration `env:"AUDIT_TIMEOUT" envDefault:"2s"`

	// Rate limiting. Zero keeps the policy default.
	RateLimitAuthMax       int64         `env:"RATE_LIMIT_AUTH_MAX" envDefault:"0" validate:"min=0"`
	RateLimitAuthWindow    time.Duration `env:"RATE_LIMIT_AUTH_WINDOW" envDefault:"0s"`
	RateLimitResetMax      int64         `env:"RATE_LIMIT_RESET_MAX" envDefault:"0" validate:"min=0"`
	RateLimitResetWindow   time.Duration `env:"RATE_LIMIT_RESET_WINDOW" envDefault:"0s"`
	RateLimitAPIMax        int64         `env:"RATE_LIMIT_API_MAX" envDefault:"0" validate:"min=0"`
	RateLimitAPIWindow     time.Duration `env:"RATE_LIMIT_API_WINDOW" envDefault:"0s"`
	RateLimitSweepInterval time.Duration `env:"RATE_LIMIT_SWEEP_INTERVAL" envDefault:"1m"`

	// Reverse proxies in front of the service. Each appends one
	// X-Forwarded-For entry; entries left of them are client-supplied.
	TrustedProxyHops int `env:"TRUSTED_PROXY_HOPS" envDefault:"1" validate:"min=0"`

	// CORS and cookies
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	CookieDomain       string   `env:"COOKIE_DOMAIN"`

	// Profiling
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load auth config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	positive := map[string]time.Duration{
		"JWT_ACCESS_TTL":            c.JWTAccessTTL,
		"JWT_REFRESH_TTL":           c.JWTRefreshTTL,
		"LOCKOUT_DURATION":          c.LockoutDuration,
		"RESET_TOKEN_TTL":           c.ResetTokenTTL,
		"VERIFICATION_TOKEN_TTL":    c.VerificationTokenTTL,
		"STORE_TIMEOUT":             c.StoreTimeout,
		"AUDIT_TIMEOUT":             c.AuditTimeout,
		"SHUTDOWN_TIMEOUT":          c.ShutdownTimeout,
		"RATE_LIMIT_SWEEP_INTERVAL": c.RateLimitSweepInterval,
	}
	for name, d := range positive {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.JWTRefreshTTL <= c.JWTAccessTTL {
		return fmt.Errorf("JWT_REFRESH_TTL (%s) must be longer than JWT_ACCESS_TTL (%s)", c.JWTRefreshTTL, c.JWTAccessTTL)
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	if c.IsDevelopment() {
		return nil
	}

	// Outside development, require explicitly set, strong secrets.
	if c.JWTAccessSecret == DefaultAccessSecret || c.JWTRefreshSecret == DefaultRefreshSecret {
		return fmt.Errorf("JWT secrets must be explicitly set via environment variables in %q mode", c.Environment)
	}
	if len(c.JWTAccessSecret) < minSecretLength {
		return fmt.Errorf("JWT_ACCESS_SECRET must be at least %d characters long, got %d", minSecretLength, len(c.JWTAccessSecret))
	}
	if len(c.JWTRefreshSecret) < minSecretLength {
		return fmt.Errorf("JWT_REFRESH_SECRET must be at least %d characters long, got %d", minSecretLength, len(c.JWTRefreshSecret))
	}
	if c.BcryptCost < minProductionBcrypt {
		return fmt.Errorf("BCRYPT_COST must be at least %d in %q mode, got %d", minProductionBcrypt, c.Environment, c.BcryptCost)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == environmentDevelopment
}

// Postgres returns the database connection settings.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        c.PostgresMinConns,
		MaxConnLifetime: c.PostgresMaxLifetime,
		MaxConnIdleTime: c.PostgresMaxIdleTime,
	}
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:         c.RedisHost,
		Port:         c.RedisPort,
		Password:     c.RedisPassword,
		DB:           c.RedisDB,
		PoolSize:     c.RedisPoolSize,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing() tracing.Config {
	return tracing.Config{
		ServiceName:  c.ServiceName,
		Environment:  c.Environment,
		OTLPEndpoint: c.OTELEndpoint,
		SampleRate:   c.OTELSampleRate,
		Insecure:     c.OTELInsecure,
		Enabled:      c.OTELEnabled,
	}
}

// Token returns the JWT signing settings.
func (c *Config) Token() token.Config {
	return token.Config{
		AccessSecret:  c.JWTAccessSecret,
		RefreshSecret: c.JWTRefreshSecret,
		Issuer:        c.JWTIssuer,
		Audience:      c.JWTAudience,
		AccessTTL:     c.JWTAccessTTL,
		RefreshTTL:    c.JWTRefreshTTL,
	}
}

// Hasher builds the bcrypt hasher. Zero workers means one per CPU.
func (c *Config) Hasher() *password.Hasher {
	workers := c.HashWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return password.NewHasher(c.BcryptCost, workers)
}

// Service returns the auth flow settings.
func (c *Config) Service() service.Config {
	return service.Config{
		Lockout: domain.LockoutPolicy{
			MaxAttempts: c.LockoutMaxAttempts,
			Duration:    c.LockoutDuration,
		},
		ResetTokenTTL:        c.ResetTokenTTL,
		VerificationTokenTTL: c.VerificationTokenTTL,
		StoreTimeout:         c.StoreTimeout,
		AuditTimeout:         c.AuditTimeout,
	}
}

// AuthPolicy returns the login/registration budget.
func (c *Config) AuthPolicy() ratelimit.Policy {
	return ratelimit.AuthPolicy().WithLimit(c.RateLimitAuthWindow, c.RateLimitAuthMax)
}

// PasswordResetPolicy returns the password reset budget.
func (c *Config) PasswordResetPolicy() ratelimit.Policy {
	return ratelimit.PasswordResetPolicy().WithLimit(c.RateLimitResetWindow, c.RateLimitResetMax)
}

// APIPolicy returns the general API budget.
func (c *Config) APIPolicy() ratelimit.Policy {
	return ratelimit.APIPolicy().WithLimit(c.RateLimitAPIWindow, c.RateLimitAPIMax)
}
