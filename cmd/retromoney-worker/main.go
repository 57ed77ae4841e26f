package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron"
	"retromoney/internal/amqp"
	"retromoney/internal/cli"
	"retromoney/internal/fx"
	"retromoney/internal/log"
	"retromoney/internal/rates"
	"retromoney/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting retromoney-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	rateSource := rates.NewCachedSource(rates.NewClient(cfg.DolarAPIBaseURL, logger))
	ledgerWorker := worker.NewLedgerWorker(repo, rateSource, fx.RateType(cfg.DefaultRateType), logger)
	refresher := worker.NewRateRefresher(rateSource, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		_ = amqpClient.Close()
	})

	// Warm the quotes once at startup, then on the configured schedule.
	refresher.Refresh()

	c := cron.New()
	if err := c.AddFunc(cfg.RateRefreshSchedule, refresher.Refresh); err != nil {
		logger.Error("Invalid rate refresh schedule",
			"schedule", cfg.RateRefreshSchedule, log.FieldError, err.Error())
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	go func() {
		if err := amqpClient.ConsumeLedgerEvents(ctx, ledgerWorker.Handle); err != nil {
			if ctx.Err() == nil {
				logger.Error("Ledger event consumption failed", log.FieldError, err.Error())
			}
		}
	}()

	logger.Info("Worker running",
		"queue", cfg.AMQPQueue,
		"schedule", cfg.RateRefreshSchedule)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
