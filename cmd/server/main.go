package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/erp/pos/internal/application/catalog"
	financingapp "github.com/erp/pos/internal/application/financing"
	reportapp "github.com/erp/pos/internal/application/report"
	salesapp "github.com/erp/pos/internal/application/sales"
	"github.com/erp/pos/internal/infrastructure/auth"
	"github.com/erp/pos/internal/infrastructure/cache"
	"github.com/erp/pos/internal/infrastructure/config"
	"github.com/erp/pos/internal/infrastructure/docstore"
	"github.com/erp/pos/internal/infrastructure/event"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/infrastructure/persistence"
	"github.com/erp/pos/internal/infrastructure/printing"
	"github.com/erp/pos/internal/infrastructure/scheduler"
	"github.com/erp/pos/internal/infrastructure/storage"
	"github.com/erp/pos/internal/infrastructure/telemetry"
	"github.com/erp/pos/internal/interfaces/http/handler"
	"github.com/erp/pos/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/erp/pos/docs"
)

const (
	appVersion      = "1.0.0"
	localImagePath  = "/images"
	shutdownTimeout = 30 * time.Second
)

//	@title			POS API
//	@version		1.0
//	@description	Point-of-sale API: catalog, carts, checkout, hire purchase and reports.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		_ = providers.Shutdown(context.Background())
	}()
	log = providers.BridgeLogger(log, zapcore.InfoLevel)

	log.Info("Starting POS backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.Telemetry.ProfilingEnabled {
		profiler, err := telemetry.StartProfiler(cfg.Telemetry.ServiceName, cfg.Telemetry.PyroscopeServer, log)
		if err != nil {
			log.Fatal("Failed to start profiler", zap.Error(err))
		}
		defer func() {
			_ = profiler.Stop()
		}()
		if profiler.Running() {
			providers.EnableSpanProfiles()
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), telemetry.DefaultSlowQueryThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	if cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, db.Driver, telemetry.DefaultSlowQueryThreshold, log); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}
	if cfg.Telemetry.DBMetricsEnabled {
		dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, providers.Meter("db.client"), telemetry.DBMetricsConfig{
			SlowQueryThreshold: telemetry.DefaultSlowQueryThreshold,
			CollectionSetting:  docstore.CollectionSetting,
		}, log)
		if err != nil {
			log.Warn("Database metrics disabled", zap.Error(err))
		} else {
			defer dbMetrics.Stop()
		}
	}

	stores, err := cache.NewStoreFactory(cfg.Redis, cfg.Cart.TTL, cache.WithLogger(log)).CreateStores()
	if err != nil {
		log.Fatal("Failed to create session stores", zap.Error(err))
	}
	defer func() {
		_ = stores.Close()
	}()

	// Change notifications fan out through Redis so every instance's product
	// stream sees writes made by the others.
	var notifier docstore.Notifier = docstore.NewChangeHub()
	if stores.Client != nil {
		redisNotifier := docstore.NewRedisChangeNotifier(stores.Client, docstore.WithChangeLogger(log))
		go func() {
			if err := redisNotifier.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Change notifier stopped", zap.Error(err))
			}
		}()
		defer func() {
			_ = redisNotifier.Close()
		}()
		notifier = redisNotifier
	}

	store, err := docstore.NewGormStore(db.DB, notifier, log)
	if err != nil {
		log.Fatal("Failed to create document store", zap.Error(err))
	}
	if db.Driver == persistence.DriverSQLite {
		if err := store.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate document store", zap.Error(err))
		}
	}

	productRepo := persistence.NewDocumentProductRepository(store)
	saleRepo := persistence.NewDocumentSaleRepository(store)
	agreementRepo := persistence.NewDocumentAgreementRepository(store)

	metrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:           providers.Meter("pos"),
		Logger:          log,
		CollectInterval: cfg.Telemetry.MetricsInterval,
		LowStock:        productRepo,
	})
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	metrics.StartPeriodicCollection(ctx)
	defer metrics.Stop()

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		catalogapp.NewLowStockAlertHandler(log, metrics), stores.Idempotency, log,
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()

	productOpts := []catalogapp.ProductServiceOption{
		catalogapp.WithEventPublisher(eventBus),
		catalogapp.WithWatcher(productRepo),
	}
	imageDir := ""
	if cfg.Storage.Enabled {
		images, err := storage.NewS3ImageStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create image storage", zap.Error(err))
		}
		if err := images.EnsureBucket(ctx); err != nil {
			log.Warn("Image bucket check failed", zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
		}
		productOpts = append(productOpts, catalogapp.WithImageStorage(images))
	} else if cfg.Storage.LocalDir != "" {
		baseURL := cfg.Storage.PublicURL
		if baseURL == "" {
			baseURL = localImagePath
		}
		images, err := storage.NewLocalImageStorage(cfg.Storage.LocalDir, baseURL)
		if err != nil {
			log.Fatal("Failed to create image storage", zap.Error(err))
		}
		imageDir = images.Dir()
		productOpts = append(productOpts, catalogapp.WithImageStorage(images))
	}

	receipts := printing.NewReceiptTemplates(printing.StoreInfo{
		Name:    cfg.Printing.StoreName,
		Address: cfg.Printing.StoreAddress,
	}, cfg.Printing.Locale)
	saleOpts := []salesapp.SaleServiceOption{
		salesapp.WithReceiptRenderer(receipts),
		salesapp.WithSaleEvents(eventBus),
	}
	var pdf salesapp.PDFRenderer
	if cfg.Printing.PDFEnabled {
		chrome := printing.NewChromedpRenderer(&cfg.Printing, log)
		defer func() {
			_ = chrome.Close()
		}()
		pdf = chrome
		saleOpts = append(saleOpts, salesapp.WithPDFRenderer(chrome))
	}

	locks := salesapp.NewSessionLocks()
	productService := catalogapp.NewProductService(productRepo, log, productOpts...)
	cartService := salesapp.NewCartService(stores.Carts, productRepo, locks, log)
	checkoutService := salesapp.NewCheckoutService(stores.Carts, saleRepo, productRepo, locks, log,
		salesapp.WithCheckoutEvents(eventBus),
		salesapp.WithCheckoutMetrics(metrics),
	)
	saleService := salesapp.NewSaleService(saleRepo, log, saleOpts...)
	hirePurchaseService := financingapp.NewHirePurchaseService(agreementRepo, stores.Carts, productRepo, locks, log,
		financingapp.WithEvents(eventBus),
		financingapp.WithMetrics(metrics),
	)
	reportService := reportapp.NewReportService(saleRepo, agreementRepo)

	sweeper := scheduler.NewOverdueSweepScheduler(hirePurchaseService, log, scheduler.OverdueSweepConfig{
		Enabled:    cfg.Scheduler.OverdueSweepEnabled,
		Interval:   cfg.Scheduler.OverdueSweepInterval,
		Timeout:    scheduler.DefaultOverdueSweepConfig().Timeout,
		RunOnStart: true,
	})
	if err := sweeper.Start(ctx); err != nil {
		log.Fatal("Failed to start overdue sweep", zap.Error(err))
	}

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if stores.Client != nil {
		checks["redis"] = func(ctx context.Context) error { return stores.Client.Ping(ctx).Err() }
	}

	hirePurchaseHandler := handler.NewHirePurchaseHandler(hirePurchaseService, receipts, pdf)

	engine, err := router.NewEngine(router.EngineDeps{
		Config:      cfg,
		Logger:      log,
		Meter:       providers.Meter("pos.http"),
		JWT:         auth.NewJWTService(cfg.JWT),
		Idempotency: stores.Idempotency,
		System:      handler.NewSystemHandler(cfg.App.Name, appVersion, checks),
		ImageDir:    imageDir,
		ImagePath:   localImagePath,
		Handlers: router.Handlers{
			Product:       handler.NewProductHandler(productService),
			ProductStream: handler.NewProductStreamHandler(productService, cfg.HTTP.SSEHeartbeat, log),
			Cart:          handler.NewCartHandler(cartService),
			Checkout:      handler.NewCheckoutHandler(checkoutService),
			Sale:          handler.NewSaleHandler(saleService),
			HirePurchase:  hirePurchaseHandler,
			Report:        handler.NewReportHandler(reportService),
		},
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
		BaseContext:    func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := sweeper.Stop(shutdownCtx); err != nil {
		log.Warn("Overdue sweep did not stop cleanly", zap.Error(err))
	}
	// Open product streams end when the base context is cancelled
	stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
