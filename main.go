package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcart "github.com/Zhima-Mochi/minishop-cart/internal/application/cart"
	"github.com/Zhima-Mochi/minishop-cart/internal/application/persistence"
	"github.com/Zhima-Mochi/minishop-cart/internal/config"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-cart/internal/domain/storage"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/httpclient"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/sqlite"
	"github.com/Zhima-Mochi/minishop-cart/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-cart/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-cart/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		LogFile: cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	if err := run(cfg, baseLogger, systemLogger); err != nil {
		systemLogger.Error("cart_service_failed", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, baseLogger, systemLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := oteltrace.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			systemLogger.Warn("tracing_shutdown_error", zap.Error(err))
		}
	}()

	appLogger := zaplogger.Wrap(baseLogger)
	tel := infraobs.New(infraobs.Options{
		Service:  cfg.ServiceName,
		Logger:   appLogger,
		Registry: prometrics.New(prometheus.DefaultRegisterer, "", ""),
	})

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	inv, cat, err := upstreams(cfg)
	if err != nil {
		return err
	}

	// Events are dispatched one at a time so snapshots reach the store in commit order.
	bus := outbox.NewBus(appLogger, 1024, 1)
	bus.Start(ctx)

	synchronizer := persistence.NewSynchronizer(store, cfg.StorageKey, tel)
	initial := synchronizer.Hydrate(ctx)
	systemLogger.Info("cart_hydrated",
		zap.String("driver", cfg.StoreDriver),
		zap.Int("lines", initial.Len()),
	)

	engine := appcart.NewEngine(initial, inv, cat, bus, tel)
	persistence.NewWorker(bus, synchronizer, tel).Start()
	workerpresentation.NewNoticeSink(bus, tel, nil).Start()

	handler := httppresentation.NewHandler(engine, appLogger, tel)
	router := handler.Router()
	router.Handle("/metrics", promhttp.Handler())
	if cfg.UseDemoUpstream() {
		router.Mount("/api", httppresentation.NewUpstream(handler, inv, cat).Router())
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.Bool("demo_upstream", cfg.UseDemoUpstream()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			systemLogger.Error("http_server_error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		systemLogger.Info("http_server_stopped")
	}
	// Drain queued commits so the last snapshot is mirrored before exit.
	bus.Stop(shutdownCtx)
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		s := postgres.NewStore(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil
	default:
		return memory.NewStore(), func() {}, nil
	}
}

func upstreams(cfg config.Config) (inventory.Gateway, catalog.Catalog, error) {
	if cfg.UseDemoUpstream() {
		stock, products := demoCatalog()
		return memory.NewInventoryGateway(stock), memory.NewCatalog(products...), nil
	}
	client, err := httpclient.NewClient("api", cfg.APIBaseURL, &http.Client{Timeout: cfg.UpstreamTimeout})
	if err != nil {
		return nil, nil, err
	}
	return httpclient.NewStockClient(client), httpclient.NewProductClient(client), nil
}

func demoCatalog() (map[int]int, []catalog.Product) {
	products := []catalog.Product{
		{ID: 1, Title: "Lightweight Walking Sneaker", Price: decimal.RequireFromString("179.90"), Image: "/images/sneaker-1.jpg"},
		{ID: 2, Title: "Leather Trim Walking Sneaker", Price: decimal.RequireFromString("139.90"), Image: "/images/sneaker-2.jpg"},
		{ID: 3, Title: "Lite Running Shoe", Price: decimal.RequireFromString("219.90"), Image: "/images/sneaker-3.jpg"},
	}
	stock := map[int]int{1: 3, 2: 5, 3: 2}
	return stock, products
}
