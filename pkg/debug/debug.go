// Package debug provides logging utilities for troubleshooting verdict's
// compile and export steps. All types are nil-safe: a nil *Logger is a no-op.
package debug

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes debug output to a writer. A nil *Logger is safe to use;
// all methods are no-ops.
type Logger struct {
	z *zap.SugaredLogger
}

// NewLogger creates a Logger that writes plain "[debug] ..." lines to w.
func NewLogger(w io.Writer) *Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.LevelKey = ""
	enc.CallerKey = ""
	enc.NameKey = ""
	enc.StacktraceKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zapcore.DebugLevel)
	return &Logger{z: zap.New(core).Sugar()}
}

// Printf writes a formatted debug line. No-op on nil receiver.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	l.z.Debugf("[debug] "+format, args...)
}

// Section writes a visual separator. No-op on nil receiver.
func (l *Logger) Section(label string) {
	if l == nil {
		return
	}
	l.z.Debugf("[debug] ─── %s ───", label)
}

// With returns a logger that appends key/value context to every line.
func (l *Logger) With(keysAndValues ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{z: l.z.With(keysAndValues...)}
}

// Sync flushes buffered output. No-op on nil receiver.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.z.Sync()
}
