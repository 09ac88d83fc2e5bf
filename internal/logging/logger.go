package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "ANNA_LOG_LEVEL"

// maxBodyLog caps how much of a gateway response body is logged
const maxBodyLog = 512

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Initialize creates a new logger with the specified level.
// If level is empty, it checks ANNA_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:         zap.NewAtomicLevelAt(ParseLevel(level)),
		Development:   false,
		Encoding:      "console",
		EncoderConfig: zap.NewDevelopmentEncoderConfig(),
		// stdout carries command output (including --format json)
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// InitializeFromEnv initializes the logger from the ANNA_LOG_LEVEL
// environment variable.
func InitializeFromEnv() error {
	return Initialize("")
}

// SetLogger replaces the global logger, e.g. with an observer in tests
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Silent until initialized
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogCommand logs a write sent to a gateway and how it was answered
func LogCommand(host, request string, err error) {
	fields := []zap.Field{
		zap.String("gateway", host),
		zap.String("request", request),
	}
	if err != nil {
		Warn("Command failed", append(fields, zap.Error(err))...)
		return
	}
	Info("Command sent", fields...)
}

// LogVerification logs one read-back attempt after a write
func LogVerification(host string, attempt int, mismatch string, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("gateway", host),
		zap.Int("attempt", attempt),
		zap.Duration("elapsed", elapsed),
	}
	if mismatch != "" {
		Debug("Change not visible yet", append(fields, zap.String("mismatch", mismatch))...)
		return
	}
	Info("Change confirmed", fields...)
}

// LogDiscovery logs a gateway found via mDNS
func LogDiscovery(hostname, ip string, port int) {
	Info("Gateway discovered",
		zap.String("hostname", hostname),
		zap.String("ip", ip),
		zap.Int("port", port),
	)
}

// LogResponseBody logs a (truncated) gateway response body at debug level
func LogResponseBody(label string, body []byte) {
	if !GetLogger().Core().Enabled(zapcore.DebugLevel) {
		return
	}
	Debug(label,
		zap.Int("length", len(body)),
		zap.String("body", truncate(body)),
	)
}

func truncate(body []byte) string {
	if len(body) <= maxBodyLog {
		return string(body)
	}
	return string(body[:maxBodyLog]) + "..."
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
