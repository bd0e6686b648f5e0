package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kifu/internal/config"
)

// New builds a sugared logger from the log section: "json" uses the
// production encoder, "console" the development one.
func New(cfg config.LogConfig) (*zap.SugaredLogger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	switch cfg.Format {
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	// Stdout carries MCP traffic for the stdio server, so logs go to stderr.
	zc.OutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Must is New that panics, for command entry points.
func Must(cfg config.LogConfig) *zap.SugaredLogger {
	logger, err := New(cfg)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger
}
