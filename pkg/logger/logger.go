// Package logger provides structured logging for widecol
package logger

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger *zap.Logger
	mu           sync.Mutex
)

// contextKey is the type for context keys
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// OperationKey is the context key for the operation kind
	OperationKey contextKey = "operation"
	// KeyspaceKey is the context key for the keyspace name
	KeyspaceKey contextKey = "keyspace"
)

// Config represents logger configuration
type Config struct {
	Level       string
	Development bool
	Encoding    string // json or console
	OutputPaths []string
}

// Init initializes the global logger. Only the first successful call takes effect.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		return nil
	}
	l, err := New(cfg)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// New creates a zap logger from cfg without touching the global logger
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "json"
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stderr"}
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg.Development {
		logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return logger, nil
}

// Get returns the global logger
func Get() *zap.Logger {
	mu.Lock()
	l := globalLogger
	mu.Unlock()
	if l != nil {
		return l
	}

	if err := Init(Config{Level: "info", Encoding: "json"}); err != nil {
		fallback, _ := zap.NewProduction()
		mu.Lock()
		globalLogger = fallback
		mu.Unlock()
		return fallback
	}

	mu.Lock()
	defer mu.Unlock()
	return globalLogger
}

// Set replaces the global logger. Used by tests and the CLI.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger = l
}

// WithContext returns a logger with context values
func WithContext(ctx context.Context) *zap.Logger {
	return Get().With(ContextFields(ctx)...)
}

// ContextFields returns the request id, operation and keyspace carried by ctx
// as log fields. Executors attach them to their own loggers.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		fields = append(fields, zap.String("request_id", requestID))
	}

	if op, ok := ctx.Value(OperationKey).(string); ok {
		fields = append(fields, zap.String("operation", op))
	}

	if ks, ok := ctx.Value(KeyspaceKey).(string); ok {
		fields = append(fields, zap.String("keyspace", ks))
	}

	return fields
}

// WithRequestID returns a copy of ctx carrying id for WithContext loggers.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	Get().Fatal(msg, fields...)
	os.Exit(1)
}

// With creates a child logger with additional fields
func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

// Sync flushes any buffered log entries
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
