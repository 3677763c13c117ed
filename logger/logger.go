// Package logger provides structured logging for the storefront service.
//
// It wraps Uber's zap logger and exposes a process-wide Log instance that is
// initialised once at startup:
//
//	logger.InitLogger("debug") // Options: debug, info, warn, error
//
//	logger.Log.Info("order created",
//	    zap.String("order_id", o.ID),
//	    zap.Float64("total", o.Total),
//	)
//
// Log starts out as a no-op logger so packages can log before (or without)
// InitLogger, which is what tests rely on.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log = zap.NewNop()

func InitLogger(level string) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zap.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	Log = l
}

// Nop resets Log to a logger that discards everything.
func Nop() {
	Log = zap.NewNop()
}
