package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 带 ctx 的格式化日志，ctx 中的链路字段自动附加到每条日志
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
	Sync() error
}

type ctxKey int

const (
	traceIDKey ctxKey = iota
	workerIDKey
	actionTypeKey
	advisoryIDKey
)

// WithTraceID 请求或 Job 的 request_id
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func WithWorkerID(ctx context.Context, workerID int) context.Context {
	return context.WithValue(ctx, workerIDKey, workerID)
}

func WithActionType(ctx context.Context, actionType string) context.Context {
	return context.WithValue(ctx, actionTypeKey, actionType)
}

// WithAdvisoryID 当前处理的建议
func WithAdvisoryID(ctx context.Context, advisoryID string) context.Context {
	return context.WithValue(ctx, advisoryIDKey, advisoryID)
}

// TraceID 读取 trace_id，不存在时为空串
func TraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey).(string)
	return traceID
}

// ZapLogger zap 实现，JSON 输出到 stdout
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger 按级别名创建日志，无法识别的级别按 info 处理
func NewZapLogger(level string) (Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &ZapLogger{logger: zl}, nil
}

// NewNopLogger 测试用
func NewNopLogger() Logger {
	return &ZapLogger{logger: zap.NewNop()}
}

func (l *ZapLogger) fields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}

	var fs []zap.Field
	if v, ok := ctx.Value(traceIDKey).(string); ok && v != "" {
		fs = append(fs, zap.String("trace_id", v))
	}
	if v, ok := ctx.Value(workerIDKey).(int); ok {
		fs = append(fs, zap.Int("worker_id", v))
	}
	if v, ok := ctx.Value(actionTypeKey).(string); ok && v != "" {
		fs = append(fs, zap.String("action_type", v))
	}
	if v, ok := ctx.Value(advisoryIDKey).(string); ok && v != "" {
		fs = append(fs, zap.String("advisory_id", v))
	}
	return fs
}

func (l *ZapLogger) Debugf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), l.fields(ctx)...)
}

func (l *ZapLogger) Infof(ctx context.Context, format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...), l.fields(ctx)...)
}

func (l *ZapLogger) Warnf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), l.fields(ctx)...)
}

func (l *ZapLogger) Errorf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), l.fields(ctx)...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
