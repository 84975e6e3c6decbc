// Package app wires the auth service dependencies and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Joseph-VJ/houlnd-realty/internal/config"
	"github.com/Joseph-VJ/houlnd-realty/internal/event"
	handler "github.com/Joseph-VJ/houlnd-realty/internal/handler/http"
	"github.com/Joseph-VJ/houlnd-realty/internal/password"
	"github.com/Joseph-VJ/houlnd-realty/internal/ratelimit"
	"github.com/Joseph-VJ/houlnd-realty/internal/repository/postgres"
	"github.com/Joseph-VJ/houlnd-realty/internal/repository/redis"
	"github.com/Joseph-VJ/houlnd-realty/internal/service"
	"github.com/Joseph-VJ/houlnd-realty/internal/token"
	"github.com/Joseph-VJ/houlnd-realty/migrations"
	"github.com/Joseph-VJ/houlnd-realty/pkg/breaker"
	"github.com/Joseph-VJ/houlnd-realty/pkg/database"
	"github.com/Joseph-VJ/houlnd-realty/pkg/health"
	pkgkafka "github.com/Joseph-VJ/houlnd-realty/pkg/kafka"
	"github.com/Joseph-VJ/houlnd-realty/pkg/middleware"
	"github.com/Joseph-VJ/houlnd-realty/pkg/tracing"
)

const serviceVersion = "0.1.0"

// App wires together all dependencies and runs the auth service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	rateMemory     *ratelimit.MemoryStore
	ipGuard        *ratelimit.IPGuard
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	traceCfg := cfg.Tracing()
	traceCfg.ServiceVersion = serviceVersion
	tracerShutdown, err := tracing.InitTracer(ctx, traceCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, cfg.ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")
	}

	// Redis backs the blacklist, sessions and rate limits. The service starts
	// without it and runs degraded until it appears.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis(), false)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create redis client: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable at startup, running degraded",
			slog.String("addr", cfg.Redis().Addr()),
			slog.String("error", err.Error()),
		)
	}

	pgTracer := database.NewQueryTracer("postgresql", cfg.SlowQueryThreshold, logger)
	redisTracer := database.NewQueryTracer("redis", cfg.SlowQueryThreshold, logger)

	store := postgres.NewStore(pool, pgTracer)
	blacklist := redis.NewBlacklist(redisClient, redisTracer)
	sessions := redis.NewSessionStore(redisClient, redisTracer)

	tokens := token.NewService(cfg.Token())
	policy := password.DefaultPolicy()

	deps := service.Deps{
		Repos:     store.Repositories(),
		Tx:        store,
		Tokens:    tokens,
		Policy:    policy,
		Hasher:    cfg.Hasher(),
		Blacklist: blacklist,
		Sessions:  sessions,
		Logger:    logger,
	}

	// Initialize Kafka producer.
	var producer *pkgkafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		deps.Events = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("no kafka brokers configured, auth events are disabled")
	}

	authService := service.NewAuthService(deps, cfg.Service())

	// Rate limiting falls back to process memory while Redis is unavailable.
	rateMemory := ratelimit.NewMemoryStore()
	rateStore := ratelimit.NewFallbackStore(
		ratelimit.NewRedisStore(redisClient),
		rateMemory,
		breaker.DefaultConfig("ratelimit-redis"),
		logger,
	)
	limiter := ratelimit.NewLimiter(rateStore, logger)
	ipGuard := ratelimit.NewIPGuard(logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		Service:        authService,
		Tokens:         tokens,
		PasswordPolicy: policy,
		Limiter:        limiter,
		Policies: handler.Policies{
			Auth:          cfg.AuthPolicy(),
			PasswordReset: cfg.PasswordResetPolicy(),
			API:           cfg.APIPolicy(),
		},
		IPGuard:          ipGuard,
		TrustedProxyHops: cfg.TrustedProxyHops,
		Cookie: handler.RefreshCookie{
			Domain: cfg.CookieDomain,
			Secure: !cfg.IsDevelopment(),
			MaxAge: cfg.JWTRefreshTTL,
		},
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Correlation-ID", handler.DeviceFingerprintHeader},
			ExposedHeaders:   []string{"X-Correlation-ID", "Retry-After"},
			MaxAge:           600,
			AllowCredentials: true,
		},
		Health:            healthHandler,
		RequestTimeout:    cfg.RequestTimeout,
		PprofEnabled:      cfg.PprofEnabled,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		Logger:            logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		rateMemory:     rateMemory,
		ipGuard:        ipGuard,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// IPGuard returns the blocklist consulted before routing. Nothing inside the
// service adds entries; operators and embedding programs block addresses
// through it.
func (a *App) IPGuard() *ratelimit.IPGuard {
	return a.ipGuard
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.rateMemory.Run(sweepCtx, a.cfg.RateLimitSweepInterval)

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
