package main

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/kardiachain/circulation-backend/cfg"
)

func TestSentryLevel(t *testing.T) {
	for _, l := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel} {
		_, ok := sentryLevel(l)
		assert.False(t, ok, l.String())
	}
	level, ok := sentryLevel(zapcore.ErrorLevel)
	assert.True(t, ok)
	assert.Equal(t, sentry.LevelError, level)

	level, ok = sentryLevel(zapcore.PanicLevel)
	assert.True(t, ok)
	assert.Equal(t, sentry.LevelFatal, level)
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(cfg.CirculationConfig{ServerMode: cfg.ModeDev, LogLevel: "warn"})
	assert.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
