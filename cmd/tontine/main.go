package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tontine/internal/amqp"
	"tontine/internal/backend"
	"tontine/internal/cli"
	"tontine/internal/cycles"
	"tontine/internal/finance"
	apphttp "tontine/internal/http"
	"tontine/internal/members"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)
	result, err := factory.CreateStore(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", "error", err)
			}
		}()
	}
	logger.Info("Data backend initialized", "backend", cfg.DataBackend)

	// AMQP is optional: without a URL the ledger runs standalone and the
	// sheet mirror simply never hears about new transactions.
	var (
		cyclePublisher   cycles.EventPublisher
		financePublisher finance.EventPublisher
	)
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		cyclePublisher = amqpClient
		financePublisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ctx := context.Background()
	registry, err := members.NewRegistry(ctx, result.Store)
	if err != nil {
		logger.Error("Failed to load member registry", "error", err)
		os.Exit(1)
	}
	cycleEngine, err := cycles.NewEngine(ctx, result.Store, registry, cyclePublisher)
	if err != nil {
		logger.Error("Failed to load cycle engine", "error", err)
		os.Exit(1)
	}
	finEngine, err := finance.NewEngine(ctx, result.Store, registry, cycleEngine, financePublisher)
	if err != nil {
		logger.Error("Failed to load finance engine", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, registry, cycleEngine, finEngine)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	shutdownCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()

		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting tontine server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-shutdownCtx.Done()
	logger.Info("Server stopped gracefully")
}
