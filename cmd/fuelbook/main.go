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

	"github.com/fuelbook/fuelbook/internal/app"
	"github.com/fuelbook/fuelbook/internal/audit"
	"github.com/fuelbook/fuelbook/internal/gauge"
	"github.com/fuelbook/fuelbook/internal/journal"
	"github.com/fuelbook/fuelbook/internal/meter"
	"github.com/fuelbook/fuelbook/internal/observability"
	"github.com/fuelbook/fuelbook/internal/platform/cache"
	"github.com/fuelbook/fuelbook/internal/platform/db"
	"github.com/fuelbook/fuelbook/internal/recon"
	"github.com/fuelbook/fuelbook/internal/report"
	"github.com/fuelbook/fuelbook/internal/shift"
	"github.com/fuelbook/fuelbook/internal/station"
	"github.com/fuelbook/fuelbook/internal/stock"
	"github.com/fuelbook/fuelbook/jobs"
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
		logger.Warn("redis unavailable, snapshot cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()
	snapshotCache := recon.NewSnapshotCache(redisClient, cfg.SnapshotTTL)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)

	stationRepo := station.NewRepository(pool)
	shiftRepo := shift.NewRepository(pool)
	shiftService := shift.NewService(shiftRepo, stationRepo, cfg.LockWindow).WithSnapshots(snapshotCache)

	meterRepo := meter.NewRepository(pool)
	meterService := meter.NewService(meterRepo, stationRepo, shiftService, auditService).WithSnapshots(snapshotCache)
	shiftService.WithMeters(meterService)

	stationService := station.NewService(stationRepo, shiftService, auditService).WithSnapshots(snapshotCache)

	gaugeRepo := gauge.NewRepository(pool)
	gaugeService := gauge.NewService(gaugeRepo, stationRepo, shiftService).WithSnapshots(snapshotCache)

	journalRepo := journal.NewRepository(pool)
	journalService := journal.NewService(journalRepo, shiftService, auditService).WithSnapshots(snapshotCache)

	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(stockRepo, journalService, cfg.KGToLiters).WithSnapshots(snapshotCache)

	thresholds := recon.Thresholds{
		MeterTxnLiters:   cfg.ThresholdMeterTxnL,
		GaugeMeterLiters: cfg.ThresholdGaugeMeterL,
		StockLiters:      cfg.ThresholdStockL,
		RevenueCurrency:  cfg.ThresholdRevenue,
	}
	reconService := recon.NewService(meterService, gaugeService, stockService, journalService,
		stationService, shiftService, metrics, thresholds, cfg.TankCapacityL)

	reportService := report.NewService(reconService, journalService, stockService, stationService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		StationHandler: station.NewHandler(logger, stationService),
		MeterHandler:   meter.NewHandler(logger, meterService),
		GaugeHandler:   gauge.NewHandler(logger, gaugeService),
		StockHandler:   stock.NewHandler(logger, stockService),
		JournalHandler: journal.NewHandler(logger, journalService),
		ShiftHandler:   shift.NewHandler(logger, shiftService),
		ReconHandler:   recon.NewHandler(logger, reconService, snapshotCache),
		AuditHandler:   audit.NewHandler(logger, auditService),
		ReportHandler:  report.NewHandler(logger, reportService),
		JobHandler:     jobs.NewHandler(inspector, jobsClient, logger),
		Metrics:        metrics,
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
