package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/earnscan/internal/clients/alphavantage"
	"github.com/aristath/earnscan/internal/clients/tradier"
	"github.com/aristath/earnscan/internal/config"
	"github.com/aristath/earnscan/internal/database"
	"github.com/aristath/earnscan/internal/domain"
	"github.com/aristath/earnscan/internal/events"
	"github.com/aristath/earnscan/internal/locking"
	"github.com/aristath/earnscan/internal/modules/history"
	"github.com/aristath/earnscan/internal/modules/predictions"
	"github.com/aristath/earnscan/internal/modules/scanner"
	"github.com/aristath/earnscan/internal/modules/scoring"
	"github.com/aristath/earnscan/internal/modules/scoring/scorers"
	"github.com/aristath/earnscan/internal/modules/vrp"
	"github.com/aristath/earnscan/internal/scheduler"
	"github.com/aristath/earnscan/internal/server"
	"github.com/aristath/earnscan/pkg/logger"
)

var errScanRunning = errors.New("a scan is already running")

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting earnscan")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Shared infrastructure
	eventManager := events.NewManager(log)
	lockManager := locking.NewManager()

	// Data clients
	tradierClient := tradier.NewClient(cfg.TradierBaseURL, cfg.TradierAPIKey, log)
	calendarClient := alphavantage.NewClient("", cfg.AlphaVantageAPIKey, log)

	// History: realized moves, IV record, per-ticker prices
	priceDB := history.NewPriceDB(cfg.HistoryDir, log)
	moveRepo := history.NewMoveRepository(db.Conn(), log)
	ivRepo := history.NewIVRepository(db.Conn(), priceDB, eventManager, log)
	ingestor := history.NewIngestor(priceDB, moveRepo, eventManager, log)

	// VRP calculator
	vrpCalc, err := vrp.New(moveRepo, vrp.Config{
		MinQuarters: cfg.MinQuarters,
		MoveMetric:  domain.MoveMetric(cfg.MoveMetric),
		Thresholds: vrp.Thresholds{
			Excellent: cfg.VRPExcellent,
			Good:      cfg.VRPGood,
			Marginal:  cfg.VRPMarginal,
		},
		Lookback: cfg.LookbackLimit,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create VRP calculator")
	}

	// Composite scorer. Hard-filter units go first so excluded tickers
	// skip the I/O-backed expansion scorer.
	units := []scorers.Scorer{
		scorers.NewIVLevelScorer(scorers.IVLevelConfig{MinIV: cfg.MinIV}),
		scorers.NewLiquidityScorer(scorers.LiquidityConfig{
			MinVolume: cfg.MinOptVolume,
			MinOI:     cfg.MinOpenInt,
		}),
		scorers.NewIVExpansionScorer(ivRepo, scorers.IVExpansionConfig{
			LookbackDays: cfg.IVLookbackDays,
		}, log),
		scorers.NewCrushEdgeScorer(0),
		scorers.NewFundamentalsScorer(0),
	}
	composite := scoring.New(units, scoring.Config{}, log)

	// Optional magnitude predictor
	var predictor domain.MagnitudePredictor
	if cfg.PredictorServiceURL != "" {
		predictor = predictions.NewClient(cfg.PredictorServiceURL, log)
	}

	// Scanner
	scanRepo := scanner.NewRepository(db.Conn(), log)
	scan := scanner.New(calendarClient, tradierClient, composite, vrpCalc,
		ivRepo, predictor, scanRepo, eventManager, scanner.Config{
			DaysAhead:   cfg.ScanDaysAhead,
			MinScore:    cfg.ScanMinScore,
			Concurrency: cfg.ScanConcurrency,
		}, log)

	// Scheduler and jobs
	marketHours := scheduler.NewMarketHours()
	sched := scheduler.New(log)

	scanJob := scheduler.NewScanCycleJob(scheduler.ScanCycleConfig{
		Log:         log,
		LockManager: lockManager,
		Scanner:     scan,
		MarketHours: marketHours,
	})
	ivJob := scheduler.NewIVSnapshotJob(scheduler.IVSnapshotConfig{
		Log:         log,
		LockManager: lockManager,
		Calendar:    calendarClient,
		Market:      tradierClient,
		IVs:         ivRepo,
		MarketHours: marketHours,
		DaysAhead:   cfg.ScanDaysAhead,
	})
	moveJob := scheduler.NewMoveIngestJob(scheduler.MoveIngestConfig{
		Log:         log,
		LockManager: lockManager,
		Source:      scanRepo,
		Ingestor:    ingestor,
		Events:      eventManager,
	})
	healthJob := scheduler.NewHealthCheckJob(scheduler.HealthCheckConfig{
		Log:         log,
		LockManager: lockManager,
		DB:          db,
		HistoryDir:  cfg.HistoryDir,
	})

	// Pre-open and midday scans; IV snapshot near the close; move ingest
	// after it. Times are UTC.
	mustAddJob(log, sched, "0 0 13 * * MON-FRI", scanJob)
	mustAddJob(log, sched, "0 0 17 * * MON-FRI", scanJob)
	mustAddJob(log, sched, "0 30 19 * * MON-FRI", ivJob)
	mustAddJob(log, sched, "0 0 22 * * MON-FRI", moveJob)
	mustAddJob(log, sched, "0 0 */6 * * *", healthJob)

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		DevMode: cfg.DevMode,
		Scans:   scanRepo,
		VRP:     vrpCalc,
		Scorer:  composite,
		Prices:  priceDB,
		Jobs:    sched,
		TriggerScan: func() error {
			if lockManager.IsHeld("scan_cycle") {
				return errScanRunning
			}
			go func() {
				if err := sched.RunNow(scanJob); err != nil {
					log.Error().Err(err).Msg("Triggered scan failed")
				}
			}()
			return nil
		},
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func mustAddJob(log zerolog.Logger, sched *scheduler.Scheduler, schedule string, job scheduler.Job) {
	if err := sched.AddJob(schedule, job); err != nil {
		log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
	}
}
