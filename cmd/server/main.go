package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appaccounting "github.com/tecsitel/backend/internal/application/accounting"
	appinvoicing "github.com/tecsitel/backend/internal/application/invoicing"
	"github.com/tecsitel/backend/internal/application/state"
	"github.com/tecsitel/backend/internal/infrastructure/autosave"
	"github.com/tecsitel/backend/internal/infrastructure/config"
	"github.com/tecsitel/backend/internal/infrastructure/logger"
	"github.com/tecsitel/backend/internal/infrastructure/persistence"
	"github.com/tecsitel/backend/internal/interfaces/http/handler"
	"github.com/tecsitel/backend/internal/interfaces/http/middleware"
	"github.com/tecsitel/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Tecsitel backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("storage", string(cfg.Storage.Backend)),
	)

	// Select the storage adapter
	repo, cleanup, err := buildRepository(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage backend", zap.Error(err))
	}
	if cleanup != nil {
		defer cleanup()
	}

	// The initial load is the one persistence failure that is fatal:
	// serving with unknown state could silently fork invoice numbering
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.Storage.SaveTimeout)
	loaded, err := repo.Load(loadCtx)
	cancelLoad()
	if err != nil {
		log.Fatal("Failed to load persisted state", zap.Error(err))
	}

	store := state.NewStore(cfg.Invoicing.Series)
	store.Replace(loaded)
	log.Info("State loaded",
		zap.Int("invoices", len(loaded.Invoices)),
		zap.Int("transactions", len(loaded.Transactions)),
		zap.Int64("invoice_counter", loaded.InvoiceCounter),
	)

	// Background saver
	saver := autosave.NewSaver(autosave.Config{
		Interval:    cfg.Storage.AutoSaveInterval,
		SaveTimeout: cfg.Storage.SaveTimeout,
	}, store, repo, log)
	if err := saver.Start(context.Background()); err != nil {
		log.Fatal("Failed to start auto-saver", zap.Error(err))
	}

	// Application services
	defaultIGVRate := decimal.NewFromFloat(cfg.Invoicing.DefaultIGVRate)
	invoiceService := appinvoicing.NewService(store, saver, defaultIGVRate, log)
	accountingService := appaccounting.NewService(store, saver, log)

	// HTTP handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	transactionHandler := handler.NewTransactionHandler(accountingService)
	reportHandler := handler.NewReportHandler(accountingService)
	stateHandler := handler.NewStateHandler(store, saver, repo)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithOrigins(cfg.HTTP.CORSAllowOrigins))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(saver))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(invoiceHandler).
		Register(transactionHandler).
		Register(reportHandler).
		Register(stateHandler)
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Flush pending saves before exiting
	if err := saver.Stop(ctx); err != nil {
		log.Error("Auto-saver shutdown incomplete", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildRepository selects the storage adapter for the configured backend
func buildRepository(cfg *config.Config) (state.Repository, func(), error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendSQLite:
		db, err := persistence.NewDatabase(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		repo, err := persistence.NewGormStateRepository(db.DB)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func() { _ = db.Close() }, nil
	case config.StorageBackendGitHub:
		return persistence.NewGitHubStateRepository(cfg.Storage.GitHub), nil, nil
	default:
		return persistence.NewFileStateRepository(cfg.Storage.Path), nil, nil
	}
}

// healthHandler reports process liveness and the outcome of the last save
func healthHandler(saver *autosave.Saver) gin.HandlerFunc {
	return func(c *gin.Context) {
		storage := "ok"
		if err := saver.LastError(); err != nil {
			storage = "degraded"
			logger.GetGinLogger(c).Warn("Storage backend degraded", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"time":    time.Now().Format(time.RFC3339),
			"storage": storage,
		})
	}
}
