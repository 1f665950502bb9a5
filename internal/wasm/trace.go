package wasm

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
)

// traceWriter feeds wazero's call log into zap at debug level, one entry per
// line.
type traceWriter struct {
	w *zapio.Writer
}

func newTraceWriter(logger *zap.Logger) *traceWriter {
	return &traceWriter{w: &zapio.Writer{
		Log:   logger.With(zap.String("component", "wasm-trace")),
		Level: zapcore.DebugLevel,
	}}
}

func (t *traceWriter) Write(p []byte) (int, error) {
	return t.w.Write(p)
}

func (t *traceWriter) WriteString(s string) (int, error) {
	return t.w.Write([]byte(s))
}

func (t *traceWriter) WriteByte(c byte) error {
	_, err := t.w.Write([]byte{c})
	return err
}
