package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel converts a level name from configuration into an AtomicLevel
// that can later be raised or lowered at runtime (e.g. by --verbose).
func ParseLevel(level string) (zap.AtomicLevel, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("parsing log level: %w", err)
	}
	return zap.NewAtomicLevelAt(lvl), nil
}

// NewLogger builds the production zap logger used for diagnostics. With no
// outputPaths the logger writes to stderr.
func NewLogger(level zap.AtomicLevel, outputPaths ...string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = level
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if len(outputPaths) > 0 {
		config.OutputPaths = outputPaths
		config.ErrorOutputPaths = outputPaths
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
