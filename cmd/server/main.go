package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dferran/hoard/internal/clients/exchangerate"
	"github.com/dferran/hoard/internal/clients/spotgrid"
	"github.com/dferran/hoard/internal/config"
	"github.com/dferran/hoard/internal/database"
	"github.com/dferran/hoard/internal/modules/fx"
	fxhandlers "github.com/dferran/hoard/internal/modules/fx/handlers"
	fxjobs "github.com/dferran/hoard/internal/modules/fx/jobs"
	"github.com/dferran/hoard/internal/modules/lots"
	lothandlers "github.com/dferran/hoard/internal/modules/lots/handlers"
	"github.com/dferran/hoard/internal/modules/prices"
	pricehandlers "github.com/dferran/hoard/internal/modules/prices/handlers"
	pricejobs "github.com/dferran/hoard/internal/modules/prices/jobs"
	"github.com/dferran/hoard/internal/modules/valuation"
	valuationhandlers "github.com/dferran/hoard/internal/modules/valuation/handlers"
	"github.com/dferran/hoard/internal/scheduler"
	"github.com/dferran/hoard/internal/server"
	"github.com/dferran/hoard/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		errLog := logger.New(logger.Config{Level: "error"})
		errLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Hoard")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := initSchemas(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize schemas")
	}

	// Repositories
	lotRepo := lots.NewRepository(db.Conn(), log)
	priceRepo := prices.NewRepository(db.Conn(), log)
	rateRepo := fx.NewRepository(db.Conn(), log)

	// External clients
	quoteProvider := spotgrid.NewClient(cfg.SpotgridURL, cfg.SpotgridAPIKey, log)
	rateProvider := exchangerate.NewClient(cfg.ExchangeRateURL, log)

	// Services
	fxService := fx.NewService(rateRepo, cfg.PivotCurrency, log)
	refreshService := prices.NewRefreshService(priceRepo, quoteProvider, cfg.PivotCurrency, log)
	valuationService := valuation.NewService(lotRepo, priceRepo, fxService, log)

	// Background jobs
	refreshJob := pricejobs.NewRefreshJob(refreshService, lotRepo, log)
	fxSyncJob := fxjobs.NewSyncJob(rateRepo, rateProvider, cfg.PivotCurrency, cfg.QuoteCurrencies, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.PriceRefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price refresh job")
	}
	if err := sched.AddJob(cfg.FxSyncSchedule, fxSyncJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register fx sync job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port: cfg.Port,
		Log:  log,
		Handlers: server.Handlers{
			Lots:      lothandlers.NewHandler(lotRepo, log),
			Prices:    pricehandlers.NewHandler(priceRepo, refreshService, lotRepo, log),
			Fx:        fxhandlers.NewHandler(fxService, rateRepo, fxSyncJob, log),
			Valuation: valuationhandlers.NewHandler(valuationService, log),
			System:    server.NewSystemHandlers(db, log),
		},
		DevMode: cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func initSchemas(db *database.DB) error {
	if err := lots.InitSchema(db.Conn()); err != nil {
		return err
	}
	if err := prices.InitSchema(db.Conn()); err != nil {
		return err
	}
	return fx.InitSchema(db.Conn())
}
