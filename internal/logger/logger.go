package logger

import (
	"context"

	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger to provide logging functionality
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger creates a new Logger instance with the configured level
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg != nil && cfg.Logging.Level == types.LogLevelDebug {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	zapLogger, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// WithContext returns a logger enriched with the request scoped fields
// available on the context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := make([]interface{}, 0, 4)
	if tenantID := types.GetTenantID(ctx); tenantID != "" {
		fields = append(fields, "tenant_id", tenantID)
	}
	if requestID := types.GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if len(fields) == 0 {
		return l
	}
	return &Logger{SugaredLogger: l.SugaredLogger.With(fields...)}
}

// With returns a logger with the given structured fields attached.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}
