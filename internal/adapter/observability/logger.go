// Package observability wires structured logging for the service.
package observability

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bkyoung/review-bot/internal/usecase/review"
)

// NewLogger builds a zap logger from config strings.
// Level is one of debug/info/warn/error; format is console or json.
func NewLogger(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	if format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	cfg.DisableStacktrace = true

	return cfg.Build()
}

// ReviewLogger adapts a zap logger to the review.Logger port, so the
// pipeline depends on the port rather than on zap.
type ReviewLogger struct {
	logger *zap.SugaredLogger
}

// NewReviewLogger creates a new review logger adapter.
func NewReviewLogger(logger *zap.Logger) review.Logger {
	return &ReviewLogger{logger: logger.Sugar()}
}

// LogWarning logs a warning message with structured fields.
func (l *ReviewLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.Warnw(message, flatten(fields)...)
}

// LogInfo logs an informational message with structured fields.
func (l *ReviewLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.Infow(message, flatten(fields)...)
}

// flatten converts a field map into zap's alternating key/value form.
func flatten(fields map[string]interface{}) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}
