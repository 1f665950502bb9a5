package wasm

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	abi "github.com/woxQAQ/wasm-interop/api/wasm"
	"github.com/woxQAQ/wasm-interop/internal/interop"
	"go.uber.org/zap"
)

// HostFunctionsImpl implements host functions for Wasm modules.
type HostFunctionsImpl struct {
	logger  *zap.Logger
	console interop.Console
}

// HostOption configures HostFunctionsImpl.
type HostOption func(*HostFunctionsImpl)

// WithConsole mirrors every guest console message to c.
func WithConsole(c interop.Console) HostOption {
	return func(h *HostFunctionsImpl) {
		h.console = c
	}
}

// NewHostFunctions creates a new host functions implementation.
func NewHostFunctions(logger *zap.Logger, opts ...HostOption) *HostFunctionsImpl {
	h := &HostFunctionsImpl{
		logger:  logger.With(zap.String("component", "wasm-console")),
		console: interop.Discard,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// logMessage is called by Wasm modules to log messages.
// Signature: log_message(level, ptr, length)
// level: 0 = debug, 1 = info, 2 = warn, 3 = error
func (h *HostFunctionsImpl) logMessage(ctx context.Context, mod api.Module, level uint32, ptr uint32, length uint32) {
	// Read message from Wasm memory.
	msg, ok := mod.Memory().Read(ptr, length)
	if !ok {
		h.logger.Error("Failed to read log message from Wasm memory",
			zap.Error(&MemoryAccessError{Operation: "read", Address: ptr, Length: length}),
		)
		return
	}
	text := string(msg)

	h.console.Log(text)

	fields := []zap.Field{zap.String("module", mod.Name())}
	switch abi.LogLevel(level) {
	case abi.LogLevelDebug:
		h.logger.Debug(text, fields...)
	case abi.LogLevelInfo:
		h.logger.Info(text, fields...)
	case abi.LogLevelWarn:
		h.logger.Warn(text, fields...)
	case abi.LogLevelError:
		h.logger.Error(text, fields...)
	default:
		h.logger.Info(text, fields...)
	}
}

// instantiate registers the host module so guests can import from it.
func (h *HostFunctionsImpl) instantiate(ctx context.Context, r wazero.Runtime) error {
	_, err := r.NewHostModuleBuilder(abi.HostModule).
		NewFunctionBuilder().
		WithFunc(h.logMessage).
		WithParameterNames("level", "ptr", "length").
		Export(abi.FuncLogMessage).
		Instantiate(ctx)
	if err != nil {
		return &HostFunctionError{FunctionName: abi.FuncLogMessage, Err: err}
	}
	return nil
}
