package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retromoney/internal/amqp"
	"retromoney/internal/cache"
	"retromoney/internal/cli"
	"retromoney/internal/fx"
	apphttp "retromoney/internal/http"
	"retromoney/internal/log"
	"retromoney/internal/rates"
	"retromoney/internal/services"
	"retromoney/internal/transfers"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Messaging is optional: without a broker the ledger still works,
	// the worker just never hears about changes.
	var publisher services.EventPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, ledger events disabled", log.FieldError, err.Error())
	} else {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	rateSource := rates.NewCachedSource(rates.NewClient(cfg.DolarAPIBaseURL, logger))
	expenseService := services.NewExpenseService(repo, publisher, logger)
	transferService := transfers.NewService(repo, expenseService, rateSource, logger)

	cacheManager := cache.NewManager()
	cacheManager.Register(expenseService)
	cacheManager.Register(rateSource)
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)

	srv := apphttp.NewServer(":"+cfg.Port, expenseService, repo, transferService,
		rateSource, fx.RateType(cfg.DefaultRateType), logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		cacheManager.Stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("Starting retromoney server",
		"port", cfg.Port,
		log.FieldRateType, cfg.DefaultRateType,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
