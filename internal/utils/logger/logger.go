package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dwarvesf/swap-history/internal/types/environments"
)

type Logger struct {
	wrappedLogger *zap.Logger
}

type options struct {
	filePath string
}

type Option func(*options)

// WithFileRotation additionally writes json logs to a rotated file.
func WithFileRotation(path string) Option {
	return func(o *options) {
		o.filePath = path
	}
}

func New(env environments.Environment, opts ...Option) *Logger {
	var cfg zap.Config

	switch env {
	case environments.Development:
		cfg = newDevelopmentLoggerConfig()
	case environments.Test:
		cfg = newTestLoggerConfig()
	case environments.Staging:
		cfg = newStagingLoggerConfig()
	case environments.Production:
		cfg = newProductionLoggerConfig()
	default:
		cfg = newProductionLoggerConfig()
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	zapLogger, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	if o.filePath != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(newEncoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   o.filePath,
				MaxSize:    500, // megabytes
				MaxBackups: 7,
				MaxAge:     7, // days
				Compress:   true,
			}),
			cfg.Level,
		)
		zapLogger = zapLogger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}

	return &Logger{
		wrappedLogger: zapLogger,
	}
}

func (l *Logger) Debug(msg string, inputFields ...map[string]string) {
	fields := []zap.Field{}

	if len(inputFields) > 0 {
		fields = transformStrMapToFields(inputFields[0])
	}

	l.wrappedLogger.Debug(msg, fields...)
}

func (l *Logger) Error(msg string, inputFields ...map[string]string) {
	fields := []zap.Field{}

	if len(inputFields) > 0 {
		fields = transformStrMapToFields(inputFields[0])
	}

	l.wrappedLogger.Error(msg, fields...)
}

func (l *Logger) Fatal(msg string, inputFields ...map[string]string) {
	fields := []zap.Field{}

	if len(inputFields) > 0 {
		fields = transformStrMapToFields(inputFields[0])
	}

	l.wrappedLogger.Fatal(msg, fields...)
}

func (l *Logger) Info(msg string, inputFields ...map[string]string) {
	fields := []zap.Field{}

	if len(inputFields) > 0 {
		fields = transformStrMapToFields(inputFields[0])
	}

	l.wrappedLogger.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, inputFields ...map[string]string) {
	fields := []zap.Field{}

	if len(inputFields) > 0 {
		fields = transformStrMapToFields(inputFields[0])
	}

	l.wrappedLogger.Warn(msg, fields...)
}

// Sync flushes buffered entries, call it before exit.
func (l *Logger) Sync() error {
	return l.wrappedLogger.Sync()
}

func transformStrMapToFields(strMap map[string]string) []zap.Field {
	fields := []zap.Field{}
	for k, v := range strMap {
		fields = append(fields, zap.String(k, v))
	}

	return fields
}
