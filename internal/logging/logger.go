package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables read when the caller passes no value.
const (
	// LogLevelEnvVar selects the level: debug, info, warn or error.
	// Unset means silent.
	LogLevelEnvVar = "CHECKOUT_LOG_LEVEL"

	// LogFileEnvVar sends output to a file instead of stdout.
	LogFileEnvVar = "CHECKOUT_LOG_FILE"
)

var logger *zap.Logger

// Initialize sets up the global logger writing to stdout.
// An empty level falls back to CHECKOUT_LOG_LEVEL; with neither, logging is off.
func Initialize(level string) error {
	return InitializeToFile(level, "")
}

// InitializeToFile sets up the global logger writing to path.
// An empty path falls back to CHECKOUT_LOG_FILE, then stdout.
func InitializeToFile(level, path string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	if path == "" {
		path = os.Getenv(LogFileEnvVar)
	}
	if path == "" {
		path = "stdout"
	}

	l, err := newConfig(parseLevel(level), path).Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// newConfig returns a console config. Colors are only used on stdout.
func newConfig(level zapcore.Level, path string) zap.Config {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if path == "stdout" {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		EncoderConfig:    enc,
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// parseLevel maps a level name to zap. Unknown names mean info.
func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil || l < zapcore.DebugLevel || l > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return l
}

// SetLogger replaces the global logger. Passing nil restores the silent one.
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger, silent until initialized
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func Info(msg string, fields ...zap.Field)  { GetLogger().Info(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { GetLogger().Debug(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetLogger().Error(msg, fields...) }

// Sync flushes buffered entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
