// Package logger provides a structured logging facility using zap logger.
// The active logger travels inside context.Context so library packages emit
// diagnostics through whatever sink the entry point configured.
package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DevelopmentEnvironment writes human readable lines to the log file.
	DevelopmentEnvironment = "development"

	// ProductionEnvironment writes JSON lines to the log file.
	ProductionEnvironment = "production"

	consoleTimeLayout = "2006-01-02 15:04:05"
)

// defaultLogger is the package-level logger instance used when no logger is found in context.
var defaultLogger = zap.NewNop() //nolint: gochecknoglobals

// Options controls the sinks built by Setup.
type Options struct {
	// Verbose lowers the console level from info to debug.
	Verbose bool
	// File is the path of the log file. It is truncated on every Setup. An empty
	// path disables the file sink.
	File string
}

// Setup initializes the default logger. It always logs to stdout and, when
// options.File is set, also to that file at debug level. The returned function
// flushes and closes the file sink.
func Setup(environment string, options Options) (func(), error) {
	consoleLevel := zap.InfoLevel
	if options.Verbose {
		consoleLevel = zap.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout(consoleTimeLayout)
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	consoleCfg.EncodeCaller = nil
	consoleCfg.NameKey = ""

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), consoleLevel),
	}

	var file *os.File
	if options.File != "" {
		if err := os.MkdirAll(filepath.Dir(options.File), 0o755); err != nil {
			return nil, fmt.Errorf("could not create log directory: %w", err)
		}

		var err error
		file, err = os.Create(options.File)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}

		var enc zapcore.Encoder
		if environment == ProductionEnvironment {
			enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		} else {
			enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(file), zap.DebugLevel))
	}

	defaultLogger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))

	return func() {
		_ = defaultLogger.Sync()
		if file != nil {
			_ = file.Close()
		}
	}, nil
}

// key is a custom type used as a context key for storing and retrieving logger instances.
type key struct{}

// Get retrieves a logger from the provided context.
// If no logger is found in the context, it returns the default logger.
func Get(ctx context.Context) *zap.Logger {
	if logger, _ := ctx.Value(key{}).(*zap.Logger); logger != nil {
		return logger
	}

	return defaultLogger
}

// WithLogger creates a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, key{}, logger)
}

// WithFields creates a new context with a logger that includes the specified fields.
func WithFields(ctx context.Context, fields ...zapcore.Field) context.Context {
	return WithLogger(ctx, Get(ctx).With(fields...))
}

// IsDebug reports whether the logger in the context emits debug entries.
func IsDebug(ctx context.Context) bool {
	return Get(ctx).Core().Enabled(zap.DebugLevel)
}

// Debug logs a message at debug level with the given fields.
func Debug(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Debug(msg, fields...)
}

// Info logs a message at info level with the given fields.
func Info(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Info(msg, fields...)
}

// Warn logs a message at warn level with the given fields.
func Warn(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Warn(msg, fields...)
}

// Error logs a message at error level with the given fields.
func Error(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Error(msg, fields...)
}

// Critical logs a message above error level together with a stack trace. Loggers
// built by Setup never panic on it.
func Critical(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).DPanic(msg, append(fields, zap.StackSkip("stack", 1))...)
}
