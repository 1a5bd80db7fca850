package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tpcbench/tpcbench/internal/app"
	"github.com/tpcbench/tpcbench/internal/bench"
	"github.com/tpcbench/tpcbench/internal/platform/cache"
	"github.com/tpcbench/tpcbench/internal/platform/db"
	"github.com/tpcbench/tpcbench/internal/tpcc"
	"github.com/tpcbench/tpcbench/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
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

	tpccRepo := tpcc.NewRepository(pool)
	tpccService := tpcc.NewService(tpccRepo, logger)

	paramSource, err := bench.NewDefaultParamSource(ctx, tpccService)
	if err != nil {
		logger.Error("seed workload parameters", slog.Any("error", err))
		os.Exit(1)
	}
	invoker := bench.NewEngineInvoker(tpccService, paramSource, nil)
	runner := bench.NewRunner(invoker, logger, cfg.BenchRoundPause)
	reportStore := bench.NewReportStore(redisClient, cfg.BenchReportTTL)

	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeBenchRun, Handler: jobs.NewBenchRunHandler(runner, reportStore, logger)},
		},
	})

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
