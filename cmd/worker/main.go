package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/fuelbook/fuelbook/internal/app"
	"github.com/fuelbook/fuelbook/internal/gauge"
	"github.com/fuelbook/fuelbook/internal/journal"
	"github.com/fuelbook/fuelbook/internal/meter"
	"github.com/fuelbook/fuelbook/internal/platform/cache"
	"github.com/fuelbook/fuelbook/internal/platform/db"
	"github.com/fuelbook/fuelbook/internal/recon"
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
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	stationRepo := station.NewRepository(pool)
	shiftRepo := shift.NewRepository(pool)
	shiftService := shift.NewService(shiftRepo, stationRepo, cfg.LockWindow)

	meterRepo := meter.NewRepository(pool)
	meterService := meter.NewService(meterRepo, stationRepo, shiftService, nil)
	shiftService.WithMeters(meterService)

	stationService := station.NewService(stationRepo, shiftService, nil)
	gaugeService := gauge.NewService(gauge.NewRepository(pool), stationRepo, shiftService)
	journalService := journal.NewService(journal.NewRepository(pool), shiftService, nil)
	stockService := stock.NewService(stock.NewRepository(pool), journalService, cfg.KGToLiters)

	thresholds := recon.Thresholds{
		MeterTxnLiters:   cfg.ThresholdMeterTxnL,
		GaugeMeterLiters: cfg.ThresholdGaugeMeterL,
		StockLiters:      cfg.ThresholdStockL,
		RevenueCurrency:  cfg.ThresholdRevenue,
	}
	reconService := recon.NewService(meterService, gaugeService, stockService, journalService,
		stationService, shiftService, nil, thresholds, cfg.TankCapacityL)
	snapshotCache := recon.NewSnapshotCache(redisClient, cfg.SnapshotTTL)

	scanJob := jobs.NewReconScanJob(reconService, stationService, snapshotCache, logger)

	scanTask, err := jobs.NewReconScanTask(jobs.ReconScanPayload{})
	if err != nil {
		logger.Error("build recon scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReconScan, Handler: scanJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ReconScanSchedule, Task: scanTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting worker", slog.String("schedule", cfg.ReconScanSchedule))
		return worker.Run(ctx)
	})
	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
