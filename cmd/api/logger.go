// Package main
package main

import (
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kardiachain/circulation-backend/cfg"
)

func newLogger(sCfg cfg.CirculationConfig) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	switch sCfg.ServerMode {
	case cfg.ModeDev:
		logCfg = zap.NewDevelopmentConfig()
		logCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case cfg.ModeProduction:
		logCfg = zap.NewProductionConfig()
	}

	switch sCfg.LogLevel {
	case "info":
		logCfg.Level.SetLevel(zapcore.InfoLevel)
	case "debug":
		logCfg.Level.SetLevel(zapcore.DebugLevel)
	case "warn":
		logCfg.Level.SetLevel(zapcore.WarnLevel)
	case "error":
		logCfg.Level.SetLevel(zapcore.ErrorLevel)
	default:
		logCfg.Level.SetLevel(zapcore.InfoLevel)
	}
	sentryOpts := zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.RegisterHooks(core, func(entry zapcore.Entry) error {
			level, ok := sentryLevel(entry.Level)
			if !ok {
				return nil
			}
			e := sentry.NewEvent()
			e.Message = entry.Message
			e.Logger = entry.LoggerName
			e.Level = level
			sentry.CaptureEvent(e)
			return nil
		})
	})

	return logCfg.Build(sentryOpts)
}

// sentryLevel maps a zap level to a sentry event level. Only errors are
// reported, so an aborted refresh cycle raises a single event.
func sentryLevel(l zapcore.Level) (sentry.Level, bool) {
	switch {
	case l < zapcore.ErrorLevel:
		return "", false
	case l == zapcore.ErrorLevel:
		return sentry.LevelError, true
	default:
		return sentry.LevelFatal, true
	}
}

func setupSentry(sCfg cfg.CirculationConfig) error {
	opts := sentry.ClientOptions{
		Dsn:         sCfg.SentryDSN,
		Environment: sCfg.ServerMode,
	}
	return sentry.Init(opts)
}
