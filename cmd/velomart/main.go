package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/velomart-erp/velomart-erp/internal/app"
	"github.com/velomart-erp/velomart-erp/internal/catalog"
	"github.com/velomart-erp/velomart-erp/internal/masterdata/brands"
	"github.com/velomart-erp/velomart-erp/internal/masterdata/categories"
	"github.com/velomart-erp/velomart-erp/internal/masterdata/suppliers"
	"github.com/velomart-erp/velomart-erp/internal/observability"
	"github.com/velomart-erp/velomart-erp/internal/orders"
	"github.com/velomart-erp/velomart-erp/internal/platform/cache"
	"github.com/velomart-erp/velomart-erp/internal/platform/db"
	"github.com/velomart-erp/velomart-erp/internal/receiving"
	"github.com/velomart-erp/velomart-erp/internal/settings"
	"github.com/velomart-erp/velomart-erp/internal/shared"
	"github.com/velomart-erp/velomart-erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	events := jobs.NewClient(asynqClient, logger)
	defer func() {
		if err := events.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(logger, settingsRepo, redisClient, cfg.SettingsCacheTTL, settings.Defaults{
		StockAlertLevel:         cfg.StockAlertLevel,
		SlugCheckIncludeDeleted: cfg.SlugCheckIncludeDeleted,
	})
	settingsHandler := settings.NewHandler(logger, settingsService)

	categoriesRepo := categories.NewRepository(pool)
	categoriesService := categories.NewService(categoriesRepo)
	categoriesHandler := categories.NewHandler(logger, categoriesService)

	brandsRepo := brands.NewRepository(pool)
	brandsService := brands.NewService(brandsRepo)
	brandsHandler := brands.NewHandler(logger, brandsService)

	suppliersRepo := suppliers.NewRepository(pool)
	suppliersService := suppliers.NewService(suppliersRepo)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService)

	idempotencyStore := shared.NewIdempotencyStore(pool)
	aggregateCache := catalog.NewAggregateCache(redisClient, logger, cfg.AggregateCacheTTL)

	catalogRepo := catalog.NewRepository(pool)
	stockCalc := catalog.NewStockCalculator(catalog.DefaultStockPolicy())
	builder := catalog.NewAggregateBuilder(stockCalc)
	catalogService := catalog.NewService(
		logger,
		catalogRepo,
		categoriesService,
		brandsService,
		settingsService,
		builder,
		idempotencyStore,
		events,
		aggregateCache,
	)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	receivingRepo := receiving.NewRepository(pool)
	receivingService := receiving.NewService(logger, receivingRepo, suppliersService, events)
	receivingHandler := receiving.NewHandler(logger, receivingService)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(logger, ordersRepo, events)
	ordersHandler := orders.NewHandler(logger, ordersService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		CatalogHandler:    catalogHandler,
		CategoriesHandler: categoriesHandler,
		BrandsHandler:     brandsHandler,
		SuppliersHandler:  suppliersHandler,
		SettingsHandler:   settingsHandler,
		ReceivingHandler:  receivingHandler,
		OrdersHandler:     ordersHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
