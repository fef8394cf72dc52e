package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(zapcore.WarnLevel, &buf)

	l.Info("hidden")
	l.Warn("shown", zap.String("run_id", "abc"))
	_ = l.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "abc")
}

func TestGlobalLogger(t *testing.T) {
	ResetLogger()
	t.Cleanup(ResetLogger)

	var buf bytes.Buffer
	installed := InitLogger(zapcore.DebugLevel, &buf)
	assert.Same(t, installed, GetLogger())

	GetLogger().Debug("debug line")
	Sync()
	assert.Contains(t, buf.String(), "debug line")

	ResetLogger()
	assert.NotNil(t, GetLogger())
	assert.NotSame(t, installed, GetLogger())
}
