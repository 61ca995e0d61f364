package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a production ready structured logger at the given level.
// Unknown levels fall back to info.
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// WithOperation enriches the logger with the pipeline operation and upload identifier.
func WithOperation(logger *zap.Logger, operation, uploadID string) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if uploadID != "" {
		fields = append(fields, zap.String("upload_id", uploadID))
	}
	return logger.With(fields...)
}
