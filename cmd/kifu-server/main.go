package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"kifu/internal/config"
	"kifu/internal/logging"
	"kifu/internal/metrics"
	"kifu/internal/server"
	"kifu/internal/service"
	"kifu/internal/store"
)

func main() {
	configPath := flag.String("config", "", "config file (default: KIFU_CONFIG or nearest kifu.yaml)")
	addr := flag.String("addr", "", "listen address, overrides server.addr")
	flag.Parse()

	cfg, err := config.Load(config.Resolve(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(cancel, logger)

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatalw("Failed to open record store", "backend", cfg.Store.Backend, "error", err)
	}

	collector := metrics.NewCollector()
	lib := service.New(st, cfg, logger, collector)
	defer func() {
		if err := lib.Close(context.Background()); err != nil {
			logger.Errorw("Failed to close library", "error", err)
		}
	}()

	srv := server.New(cfg.Server, lib, logger, collector)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Errorw("Server stopped", "error", err)
	}
}

func handleShutdown(cancel context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancel()
}
