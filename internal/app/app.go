package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wisersense-io/mate-session/internal/config"
	"github.com/wisersense-io/mate-session/internal/event"
	"github.com/wisersense-io/mate-session/internal/gateway"
	handler "github.com/wisersense-io/mate-session/internal/handler/http"
	redisrepo "github.com/wisersense-io/mate-session/internal/repository/redis"
	"github.com/wisersense-io/mate-session/internal/service"
	"github.com/wisersense-io/mate-session/pkg/health"
	"github.com/wisersense-io/mate-session/pkg/httpclient"
	pkgkafka "github.com/wisersense-io/mate-session/pkg/kafka"
	"github.com/wisersense-io/mate-session/pkg/middleware"
	"github.com/wisersense-io/mate-session/pkg/tracing"
)

// App wires together all dependencies and runs the session service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "session",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize Redis client.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Upstream Mate API client behind a circuit breaker.
	hcCfg := httpclient.DefaultConfig()
	hcCfg.Timeout = cfg.MateTimeout()
	mateClient := gateway.NewClient(
		cfg.MateAPIBaseURL,
		httpclient.NewCircuitBreakerClient(
			httpclient.New(hcCfg),
			httpclient.DefaultCircuitBreakerConfig("mate-api"),
			logger,
		),
		logger,
	)

	// Build the dependency graph.
	tokenRepo := redisrepo.NewTokenRepository(rdb)
	orgRepo := redisrepo.NewOrganizationRepository(rdb)
	sessionRepo := redisrepo.NewSessionRepository(rdb)
	eventProducer := event.NewProducer(producer, logger)
	sessionManager := service.NewSessionManager(ctx, sessionRepo, logger)
	authService := service.NewAuthService(mateClient, tokenRepo, orgRepo, sessionManager, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(authService, sessionManager, orgRepo, healthHandler, logger, middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close", slog.String("error", err.Error()))
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(ctx); err != nil {
		a.logger.Error("tracer shutdown", slog.String("error", err.Error()))
	}

	a.logger.Info("shutdown complete")
	return nil
}
