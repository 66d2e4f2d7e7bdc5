package logger

import (
	"context"
	"fmt"
	"os"

	"modelctl/pkg/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log *zap.Logger
var sugar *zap.SugaredLogger

const (
	defaultInvocationID = "-"
)

type invocationKey struct{}

func init() {
	// Default development configuration, writes to stderr
	defaultConfig := zap.NewDevelopmentConfig()
	defaultConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	defaultConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	defaultConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")

	defaultLogger, _ := defaultConfig.Build(zap.AddCallerSkip(1))

	Log = defaultLogger
	sugar = defaultLogger.Sugar()
}

// Init initializes logger from config.GlobalConfig
func Init() error {
	cfg := config.Default().Logger
	if config.GlobalConfig != nil {
		cfg = config.GlobalConfig.Logger
	}
	return InitWith(cfg)
}

// InitWith initializes logger from an explicit logger configuration
func InitWith(cfg config.LoggerConfig) error {
	atomicLevel := zap.NewAtomicLevel()
	switch cfg.Level {
	case "debug":
		atomicLevel.SetLevel(zapcore.DebugLevel)
	case "info":
		atomicLevel.SetLevel(zapcore.InfoLevel)
	case "warn":
		atomicLevel.SetLevel(zapcore.WarnLevel)
	case "error":
		atomicLevel.SetLevel(zapcore.ErrorLevel)
	default:
		atomicLevel.SetLevel(zapcore.WarnLevel)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	// Console goes to stderr so command output on stdout stays parseable
	var syncer zapcore.WriteSyncer
	switch cfg.Output {
	case "file":
		syncer = zapcore.AddSync(newRotatingFile(cfg.File))
	case "both":
		syncer = zapcore.NewMultiWriteSyncer(
			zapcore.AddSync(os.Stderr),
			zapcore.AddSync(newRotatingFile(cfg.File)),
		)
	default: // console
		syncer = zapcore.AddSync(os.Stderr)
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		syncer,
		atomicLevel,
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	sugar = Log.Sugar()

	return nil
}

// newRotatingFile returns a size-rotated log file; lumberjack creates the directory
func newRotatingFile(cfg config.LoggerFileConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
}

// WithInvocationID attaches the id of the current CLI invocation to ctx
func WithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationKey{}, id)
}

// InvocationID returns the invocation id carried by ctx
func InvocationID(ctx context.Context) string {
	if ctx == nil {
		return defaultInvocationID
	}
	if id, ok := ctx.Value(invocationKey{}).(string); ok && id != "" {
		return id
	}
	return defaultInvocationID
}

// Debug level
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Info level
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn level
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error level
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

func ctxPrefix(ctx context.Context) string {
	return fmt.Sprintf("%s\t", InvocationID(ctx))
}

func DebugCtx(ctx context.Context, format string, args ...interface{}) {
	sugar.Debugf(ctxPrefix(ctx)+format, args...)
}

func InfoCtx(ctx context.Context, format string, args ...interface{}) {
	sugar.Infof(ctxPrefix(ctx)+format, args...)
}

func WarnCtx(ctx context.Context, format string, args ...interface{}) {
	sugar.Warnf(ctxPrefix(ctx)+format, args...)
}

func ErrorCtx(ctx context.Context, format string, args ...interface{}) {
	sugar.Errorf(ctxPrefix(ctx)+format, args...)
}

// Sync flushes any buffered log entries
func Sync() error {
	return Log.Sync()
}
