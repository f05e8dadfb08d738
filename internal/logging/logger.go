package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a zap logger configured for structured production logging together with
// the atomic level backing it, so callers can retune verbosity without rebuilding the logger.
func NewLogger(level string) (*zap.Logger, zap.AtomicLevel, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	logger, err := cfg.Build()
	if err != nil {
		return nil, cfg.Level, err
	}
	return logger, cfg.Level, nil
}

// NewFileLogger returns a JSON logger appending to path. Terminal clients use it so log lines
// never interleave with the rendered screen.
func NewFileLogger(path, level string) (*zap.Logger, error) {
	if strings.TrimSpace(path) == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

// ParseLevel maps a textual level to a zapcore level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
