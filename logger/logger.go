// Package logger wraps zap for structured logging.
package logger

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log *zap.Logger
)

// New builds a console logger writing to w at the given level.
// Stdout is reserved for the comparison output, so callers pass stderr.
func New(level zapcore.Level, w io.Writer) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core, zap.AddCaller())
}

// InitLogger installs the process-wide logger used by the command line.
func InitLogger(level zapcore.Level, w io.Writer) *zap.Logger {
	l := New(level, w)
	mu.Lock()
	log = l
	mu.Unlock()
	return l
}

// GetLogger provides access to the initialized logger.
// Before InitLogger it returns a logger that writes warnings to stderr.
func GetLogger() *zap.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l == nil {
		return InitLogger(zapcore.WarnLevel, os.Stderr)
	}
	return l
}

// Sync ensures buffered logs are written before the application exits.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}

// ResetLogger drops the installed logger.
func ResetLogger() {
	mu.Lock()
	defer mu.Unlock()
	log = nil
}
