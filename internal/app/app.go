package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Anuraj-madd/shubhanya-storefront/pkg/health"
	"github.com/Anuraj-madd/shubhanya-storefront/pkg/httpclient"
	pkgkafka "github.com/Anuraj-madd/shubhanya-storefront/pkg/kafka"
	"github.com/Anuraj-madd/shubhanya-storefront/pkg/middleware"

	"github.com/Anuraj-madd/shubhanya-storefront/internal/backend"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/cart"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/catalog"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/checkout"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/clientstore"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/config"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/domain"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/event"
	handler "github.com/Anuraj-madd/shubhanya-storefront/internal/handler/http"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/orders"
	"github.com/Anuraj-madd/shubhanya-storefront/internal/session"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      clientstore.Store
	producer   *pkgkafka.Producer
	manager    *cart.Manager
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Client store.
	switch cfg.ClientStoreDriver {
	case "redis":
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
		a.store = clientstore.NewRedisStore(rdb, logger)
	case "file":
		fs, err := clientstore.NewFileStore(cfg.ClientStoreFile, logger)
		if err != nil {
			return nil, fmt.Errorf("open client store file: %w", err)
		}
		logger.Info("using file client store", slog.String("path", cfg.ClientStoreFile))
		a.store = fs
	default:
		a.store = clientstore.NewMemoryStore()
		logger.Warn("using in-memory client store, state is lost on restart")
	}

	// Upstream commerce API client behind retries and a circuit breaker.
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.BackendTimeout
	clientCfg.MaxRetries = cfg.BackendMaxRetries
	breaker := httpclient.NewCircuitBreakerClient(
		httpclient.New(clientCfg),
		httpclient.DefaultCircuitBreakerConfig("backend"),
		logger,
	)
	backendClient := backend.NewClient(cfg.BackendBaseURL, breaker, logger)

	// Optional Kafka analytics.
	var publisher cart.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	reader := session.NewReader(a.store, logger)
	a.manager = cart.NewManager(func(sess domain.Session) *cart.Store {
		return cart.New(sess, backendClient, a.store, publisher, cart.Options{
			DebounceWindow:    cfg.CartDebounceWindow,
			PendingTTL:        cfg.CartPendingTTL,
			RollbackOnFailure: cfg.CartRollbackOnFailure,
		}, logger)
	}, cfg.CartStoreIdleTTL)

	catalogService := catalog.NewService(backendClient, cfg.CatalogCacheTTL, logger)
	orderService := orders.NewService(backendClient, logger)
	checkoutService := checkout.NewService(backendClient, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("client_store", a.store.Ping)
	if a.producer != nil {
		healthHandler.Register("kafka", a.producer.Ping)
	}

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.AllowedOrigins
	h := handler.NewHandler(reader, a.manager, backendClient, catalogService, orderService, checkoutService, a.store, logger)
	router := handler.NewRouter(h, healthHandler, corsCfg, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
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
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.manager.Close()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	// Closing the store also closes the Redis client when that driver is in
	// use.
	if err := a.store.Close(); err != nil {
		a.logger.Error("client store close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
