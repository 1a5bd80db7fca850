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

	"github.com/tpcbench/tpcbench/internal/app"
	"github.com/tpcbench/tpcbench/internal/auth"
	"github.com/tpcbench/tpcbench/internal/bench"
	"github.com/tpcbench/tpcbench/internal/observability"
	"github.com/tpcbench/tpcbench/internal/platform/cache"
	"github.com/tpcbench/tpcbench/internal/platform/db"
	"github.com/tpcbench/tpcbench/internal/tpcc"
	"github.com/tpcbench/tpcbench/internal/tpch"
	"github.com/tpcbench/tpcbench/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	metrics := observability.NewMetrics()

	tpccRepo := tpcc.NewRepository(pool)
	tpccService := tpcc.NewService(tpccRepo, logger)
	tpccHandler := tpcc.NewHandler(logger, tpccService)

	paramSource, err := bench.NewDefaultParamSource(ctx, tpccService)
	if err != nil {
		logger.Error("seed workload parameters", slog.Any("error", err))
		os.Exit(1)
	}
	invoker := bench.NewEngineInvoker(tpccService, paramSource, metrics)
	runner := bench.NewRunner(invoker, logger, cfg.BenchRoundPause)
	reportStore := bench.NewReportStore(redisClient, cfg.BenchReportTTL)

	enqueuer := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()
	benchHandler := bench.NewHandler(logger, runner, reportStore, enqueuer, cfg.BenchMaxDuration)

	tpchService := tpch.NewService(pool, logger)
	tpchHandler := tpch.NewHandler(logger, tpchService, metrics, cfg.BenchRoundPause, cfg.BenchMaxDuration)

	authRepo := auth.NewSQLRepository(pool)
	tokenStore := auth.NewTokenStore(redisClient, cfg.SessionTTL)
	authService := auth.NewService(authRepo, tokenStore, logger)
	authHandler := auth.NewHandler(logger, authService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		TPCCHandler:  tpccHandler,
		BenchHandler: benchHandler,
		TPCHHandler:  tpchHandler,
		AuthHandler:  authHandler,
		JobHandler:   jobHandler,
		Metrics:      metrics,
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
