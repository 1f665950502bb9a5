package wasm

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
	abi "github.com/woxQAQ/wasm-interop/api/wasm"
	"github.com/woxQAQ/wasm-interop/internal/interop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// wasiGuestWAT reports the errno of a WASI random_get call through increment.
const wasiGuestWAT = `(module
	(import "wasi_snapshot_preview1" "random_get" (func $random_get (param i32 i32) (result i32)))
	(memory (export "memory") 1)
	(func (export "increment") (param f64) (result f64)
		(f64.convert_i32_u (call $random_get (i32.const 0) (i32.const 8)))))`

func TestRuntimeCloseIdempotent(t *testing.T) {
	ctx := context.Background()

	rt, err := NewRuntime(ctx, zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	assert.False(t, rt.IsClosed())

	require.NoError(t, rt.Close(ctx))
	require.NoError(t, rt.Close(ctx))
	assert.True(t, rt.IsClosed())
}

func TestRuntimeCloseReleasesInstances(t *testing.T) {
	rt, instance := newTestInstance(t, zaptest.NewLogger(t), stubGuestWAT)
	require.Equal(t, 1, rt.InstanceCount())

	require.NoError(t, rt.Close(context.Background()))

	_, err := instance.Call(context.Background(), abi.ExportIncrement, 0)
	var closedErr *InstanceClosedError
	require.ErrorAs(t, err, &closedErr)
	assert.Equal(t, instance.ID, closedErr.InstanceID)
}

func TestRuntimeProvidesWASI(t *testing.T) {
	_, instance := newTestInstance(t, zaptest.NewLogger(t), wasiGuestWAT)

	results, err := instance.Call(context.Background(), abi.ExportIncrement, 0)
	require.NoError(t, err)
	assert.Zero(t, results[0], "random_get should return errno 0")
}

func TestRuntimeCompilationCacheDir(t *testing.T) {
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "arm64" {
		t.Skip("compilation cache requires the wazero compiler")
	}
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	config := DefaultRuntimeConfig()
	config.CacheDir = t.TempDir()

	rt, err := NewRuntime(ctx, logger, config)
	require.NoError(t, err)
	defer rt.Close(ctx)

	_, err = NewModuleLoader(rt, logger).LoadModuleFromMemory(ctx, "cached", compileWAT(t, stubGuestWAT))
	require.NoError(t, err)

	var files int
	err = filepath.WalkDir(config.CacheDir, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && d.Type().IsRegular() {
			files++
		}
		return err
	})
	require.NoError(t, err)
	assert.Positive(t, files, "compiled code should be persisted to the cache dir")
}

func TestRuntimeCompilationCacheDirInvalid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	config := DefaultRuntimeConfig()
	config.CacheDir = file

	_, err := NewRuntime(context.Background(), zaptest.NewLogger(t), config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation cache")
}

func TestInstanceCallCanceled(t *testing.T) {
	config := DefaultRuntimeConfig()
	config.ExecutionTimeout = 0

	rt, instance := instantiateFixture(t, zaptest.NewLogger(t), config, compileWAT(t, spinGuestWAT), false)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := instance.Call(ctx, abi.ExportIncrement, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	assert.Zero(t, rt.InstanceCount(), "interrupted instance should be retired")

	_, err = instance.Call(context.Background(), abi.ExportIncrement, 0)
	var closedErr *InstanceClosedError
	assert.ErrorAs(t, err, &closedErr)
}

func TestRuntimeDebugTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	config := DefaultRuntimeConfig()
	config.DebugEnabled = true

	_, instance := instantiateFixture(t, logger, config, compileWAT(t, stubGuestWAT), false)

	_, err := instance.Call(context.Background(), abi.ExportIncrement, api.EncodeF64(1))
	require.NoError(t, err)

	trace := logs.FilterField(zap.String("component", "wasm-trace")).All()
	require.NotEmpty(t, trace)

	var enter, leave int
	for _, entry := range trace {
		assert.Equal(t, zapcore.DebugLevel, entry.Level)
		switch {
		case strings.HasPrefix(entry.Message, "-->"):
			enter++
		case strings.HasPrefix(entry.Message, "<--"):
			leave++
		}
	}
	assert.Equal(t, 1, enter, "trace should log entry into the export")
	assert.Equal(t, 1, leave, "trace should log return from the export")

	calls := logs.FilterMessage("Called export").All()
	require.Len(t, calls, 1)
	assert.Equal(t, abi.ExportIncrement, calls[0].ContextMap()["function"])
}

func TestRuntimeDebugDisabled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	_, instance := instantiateFixture(t, zap.New(core), nil, compileWAT(t, stubGuestWAT), false)

	_, err := instance.Call(context.Background(), abi.ExportIncrement, api.EncodeF64(1))
	require.NoError(t, err)

	assert.Zero(t, logs.FilterField(zap.String("component", "wasm-trace")).Len())
	assert.Zero(t, logs.FilterMessage("Called export").Len())
}

func TestRuntimeHostConflict(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	rt, err := NewRuntime(ctx, logger, nil)
	require.NoError(t, err)
	defer rt.Close(ctx)

	_, err = NewModuleLoader(rt, logger).LoadModuleFromMemory(ctx, "fixture", compileWAT(t, stubGuestWAT))
	require.NoError(t, err)

	host := NewHostFunctions(logger)
	_, err = NewInstanceManager(rt, host, logger).Instantiate(ctx, &InstanceConfig{ModuleName: "fixture"})
	require.NoError(t, err)

	// Same host functions through another manager.
	_, err = NewInstanceManager(rt, host, logger).Instantiate(ctx, &InstanceConfig{ModuleName: "fixture"})
	require.NoError(t, err)

	other := NewHostFunctions(logger, WithConsole(interop.ConsoleFunc(func(string) {})))
	_, err = NewInstanceManager(rt, other, logger).Instantiate(ctx, &InstanceConfig{ModuleName: "fixture"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHostConflict))
	assert.Equal(t, 2, rt.InstanceCount())
}

func TestCompilationError(t *testing.T) {
	err := &CompilationError{ModuleName: "test", Err: errTest}
	assert.Equal(t, "failed to compile Wasm module 'test': test error", err.Error())
	assert.True(t, errors.Is(err, errTest))
}

func TestInstantiationError(t *testing.T) {
	err := &InstantiationError{ModuleName: "test", InstanceID: "inst-1", Err: errTest}
	assert.Equal(t, "failed to instantiate module 'test' (instance: inst-1): test error", err.Error())
}

func TestModuleNotFoundError(t *testing.T) {
	err := &ModuleNotFoundError{ModuleName: "test"}
	assert.Equal(t, "module 'test' not found in cache", err.Error())
}

func TestFunctionNotFoundError(t *testing.T) {
	err := &FunctionNotFoundError{ModuleName: "test", FunctionName: "increment"}
	assert.Equal(t, "function 'increment' not found in module 'test'", err.Error())
}

func TestImportError(t *testing.T) {
	err := &ImportError{ModuleName: "test", Import: "env.foo", Reason: "unknown import module"}
	assert.Equal(t, "module 'test' imports 'env.foo': unknown import module", err.Error())
}

func TestSignatureError(t *testing.T) {
	err := &SignatureError{ModuleName: "test", FunctionName: "increment", Want: "(f64) -> (f64)", Got: "(i32) -> (i32)"}
	assert.Equal(t, "function 'increment' in module 'test' has signature (i32) -> (i32), want (f64) -> (f64)", err.Error())
}

func TestInstanceClosedError(t *testing.T) {
	err := &InstanceClosedError{InstanceID: "inst-1"}
	assert.Equal(t, "instance 'inst-1' is closed", err.Error())
}

func TestCallError(t *testing.T) {
	err := &CallError{FunctionName: "concat", Status: abi.StatusCapacityExceeded}
	assert.Equal(t, "call to 'concat' failed: capacity exceeded", err.Error())
	assert.True(t, errors.Is(err, interop.ErrCapacityExceeded))

	invalid := &CallError{FunctionName: "add_to_array", Status: abi.StatusInvalidArgument}
	assert.True(t, errors.Is(invalid, interop.ErrInvalidArgument))

	unknown := &CallError{FunctionName: "concat", Status: abi.Status(9)}
	assert.Nil(t, unknown.Unwrap())
}

func TestMemoryAccessErrorWithoutCause(t *testing.T) {
	err := &MemoryAccessError{Operation: "write", Address: 8, Length: 4}
	assert.Equal(t, "memory access failed (op=write, addr=8, len=4): out of range", err.Error())
}

var errTest = errors.New("test error")
