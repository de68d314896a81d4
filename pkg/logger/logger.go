package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the key/value logging interface used across the service
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Fatal(msg string, keysAndValues ...interface{})
	With(keysAndValues ...interface{}) Logger
	// Named adds a component name to the logger's name
	Named(name string) Logger
}

// Output formats
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// ZapLogger implements Logger on a zap SugaredLogger
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// Options select the level and encoding
type Options struct {
	Level  string
	Format string
}

// NewLogger creates a JSON logger at info level
func NewLogger() *ZapLogger {
	return New(Options{})
}

// NewLoggerWithLevel creates a JSON logger at level
func NewLoggerWithLevel(level string) *ZapLogger {
	return New(Options{Level: level})
}

// New builds a logger from opts. Unknown levels fall back to info and unknown formats to JSON.
func New(opts Options) *ZapLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.NewProductionConfig()
	if strings.EqualFold(opts.Format, FormatConsole) {
		config = zap.NewDevelopmentConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.Encoding = FormatConsole
	}
	config.EncoderConfig = encoderConfig

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	built, err := config.Build()
	if err != nil {
		built = zap.NewNop()
	}
	return &ZapLogger{logger: built.Sugar()}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop().Sugar()}
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l *ZapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Infow(msg, keysAndValues...)
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warnw(msg, keysAndValues...)
}

func (l *ZapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, keysAndValues...)
}

// Fatal logs and exits the process
func (l *ZapLogger) Fatal(msg string, keysAndValues ...interface{}) {
	l.logger.Fatalw(msg, keysAndValues...)
}

// With returns a logger that adds keysAndValues to every entry
func (l *ZapLogger) With(keysAndValues ...interface{}) Logger {
	return &ZapLogger{logger: l.logger.With(keysAndValues...)}
}

func (l *ZapLogger) Named(name string) Logger {
	return &ZapLogger{logger: l.logger.Named(name)}
}

// Sync flushes buffered entries
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
