// Package logger holds the process-wide zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log starts as a no-op so packages may log before Init (tests, tools)
var Log = zap.NewNop()

// Init replaces Log. Development builds a coloured console logger at debug,
// production a JSON logger at info. A non-empty level overrides either default.
func Init(isDevelopment bool, level string) error {
	cfg := zap.NewProductionConfig()
	if isDevelopment {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	built, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return err
	}
	Log = built.With(zap.String("service", "community-hub"))
	return nil
}

// Sync flushes buffered entries; call it before exit
func Sync() {
	_ = Log.Sync()
}
