package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with environment-aware construction
type Logger struct {
	*zap.Logger
}

// Config holds logger configuration
type Config struct {
	// Environment selects encoder and level defaults: "development" or "production"
	Environment string
	// Level overrides the default level when non-empty (debug, info, warn, error)
	Level string
	// ServiceName is attached to every entry
	ServiceName string
}

// New creates a new logger for the given configuration
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{Environment: "development"}
	}

	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	log, err := zapCfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg.ServiceName != "" {
		log = log.With(zap.String("service", cfg.ServiceName))
	}

	return &Logger{Logger: log}, nil
}

// NewNop returns a no-op logger for tests
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// With returns a child logger with the given fields attached
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
