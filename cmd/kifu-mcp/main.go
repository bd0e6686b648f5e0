package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"kifu/internal/config"
	"kifu/internal/logging"
	"kifu/internal/mcptools"
	"kifu/internal/metrics"
	"kifu/internal/render"
)

var (
	// Version information injected at build time.
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "config file (default: KIFU_CONFIG or nearest kifu.yaml)")
	showVersion := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("kifu-mcp version %s (commit %s)\n", Version, GitCommit)
		os.Exit(0)
	}

	cfg, err := config.Load(config.Resolve(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		cancel()
	}()

	mcpServer := server.NewMCPServer("kifu-mcp", Version, server.WithLogging())

	toolsHandler := mcptools.NewToolsHandler(logger, render.FromConfig(cfg.Display))
	toolsHandler.SetMiddleware(mcptools.NewMiddleware(logger, metrics.NewCollector()))
	toolsHandler.RegisterTools(mcpServer)

	logger.Infow("KIF MCP server ready", "version", Version)

	done := make(chan error, 1)
	go func() {
		done <- server.ServeStdio(mcpServer)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Errorw("Server error", "error", err)
		}
	case <-ctx.Done():
		logger.Info("Server stopped by context cancellation")
	}
}
