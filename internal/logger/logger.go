package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the encoder and level of the process logger.
type Config struct {
	Service string
	Env     string
	Level   string
}

// New builds a logger. Production uses JSON, anything else a console encoder.
func New(cfg Config) (*zap.Logger, error) {
	var logConfig zap.Config
	if cfg.Env == "production" {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	logConfig.Level.SetLevel(level)

	log, err := logConfig.Build()
	if err != nil {
		return nil, err
	}
	return log.With(
		zap.String("service", cfg.Service),
		zap.String("env", cfg.Env),
	), nil
}

// Init builds the logger and installs it as the zap global.
func Init(cfg Config) (*zap.Logger, error) {
	log, err := New(cfg)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}

type ctxKey struct{}

// WithContext stores a request-scoped logger.
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the request-scoped logger, or the global one.
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && log != nil {
		return log
	}
	return zap.L()
}
