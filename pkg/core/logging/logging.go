package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration shared by both services.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string

	// Format is "json" or "console".
	Format string
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

// New creates a named zap logger writing to stderr. Stdout is reserved for
// the MCP transport, so nothing may ever log there.
func New(service string, cfg Config) *zap.Logger {
	level := zapcore.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core).Named(service)
}
