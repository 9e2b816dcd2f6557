package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config builds the zap configuration shared by the server and the worker. Every entry
// carries the service name; debug mode lowers the level so prompt and completion
// previews are emitted.
func Config(service string, debugMode bool) zap.Config {
	level := zapcore.InfoLevel
	if debugMode {
		level = zapcore.DebugLevel
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "ts"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeDuration = zapcore.MillisDurationEncoder
	encoder.FunctionKey = zapcore.OmitKey

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "json"
	cfg.EncoderConfig = encoder
	cfg.DisableStacktrace = false
	if service != "" {
		cfg.InitialFields = map[string]any{"service": service}
	}
	return cfg
}

// NewForService builds the JSON production logger tagged with the service name.
func NewForService(service string, debugMode bool) (*zap.Logger, error) {
	return Config(service, debugMode).Build()
}

// Sync flushes any buffered log entries. It's safe to call Sync() multiple times.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}
