package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CheckDebug reports whether LINAE_DEBUG asks for a debug log.
func CheckDebug() bool {
	debug := os.Getenv("LINAE_DEBUG")
	return debug == "true" || debug == "1"
}

// NewDebugLogger returns a logger writing to <dataDir>/debug.log when
// LINAE_DEBUG is set, and a no-op logger otherwise. The terminal UI owns
// stdout and stderr, so it never logs there.
func NewDebugLogger(dataDir string) (*zap.Logger, error) {
	if !CheckDebug() {
		return zap.NewNop(), nil
	}

	logPath := filepath.Join(dataDir, "debug.log")
	// 0600: the log may contain prompts.
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open debug log at %s: %w", logPath, err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)
	logger := zap.New(core, zap.AddCaller())

	logger.Debug("debug logging started",
		zap.String("LINAE_DEBUG", os.Getenv("LINAE_DEBUG")),
		zap.String("path", logPath))
	return logger, nil
}

// NewCLILogger builds the stderr logger used by the non-interactive
// commands.
func NewCLILogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
