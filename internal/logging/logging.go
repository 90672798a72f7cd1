// Package logging builds the client's zap logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options select where and how the logger writes.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	Path   string // log file; empty writes to stderr
}

// New returns a logger for opts. The console format uses plain level names
// so log files stay readable without a terminal.
func New(opts Options) (*zap.Logger, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("rewear"), nil
}

// buildConfig maps opts onto a zap config. zap's own errors go where the
// entries go, keeping stderr clear of the terminal interface.
func buildConfig(opts Options) (zap.Config, error) {
	level, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		return zap.Config{}, fmt.Errorf("parse log level: %w", err)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		cfg = zap.NewProductionConfig()
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.Development = false
	default:
		return zap.Config{}, fmt.Errorf("unknown log format %q", opts.Format)
	}
	cfg.Level = level
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.DisableStacktrace = true
	cfg.Sampling = nil

	output := "stderr"
	if path := strings.TrimSpace(opts.Path); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zap.Config{}, fmt.Errorf("create log dir: %w", err)
		}
		output = path
	}
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{output}
	return cfg, nil
}
