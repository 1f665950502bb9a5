package module

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wippyai/wasm-runtime/wat"
	"github.com/woxQAQ/wasm-interop/internal/wasm"
	"go.uber.org/zap"
)

// exportsOnlyWAT declares every export with the right signature and no behavior.
const exportsOnlyWAT = `(module
	(memory (export "memory") 1)
	(func (export "allocate") (param i32) (result i32) (i32.const 0))
	(func (export "deallocate") (param i32 i32))
	(func (export "increment") (param f64) (result f64) (local.get 0))
	(func (export "concat") (param f64 i32 i32 i32 i32) (result i32) (i32.const 0))
	(func (export "add_to_array") (param f64 i32 i32 i32 i32) (result i32) (i32.const 0)))`

func newTestRuntime(t *testing.T) *wasm.Runtime {
	t.Helper()
	ctx := context.Background()

	runtime, err := wasm.NewRuntime(ctx, zap.NewNop(), wasm.DefaultRuntimeConfig())
	require.NoError(t, err)
	t.Cleanup(func() { runtime.Close(ctx) })
	return runtime
}

// writeModuleDir copies the valid manifest next to a binary compiled from source.
func writeModuleDir(t *testing.T, source string) string {
	t.Helper()

	dir := t.TempDir()
	manifest, err := os.ReadFile(filepath.Join("testdata", "modules", "valid", ManifestFile))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), manifest, 0644))

	wasmBytes, err := wat.Compile(source)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "interop.wasm"), wasmBytes, 0644))
	return dir
}

func TestLoader_Load_Valid(t *testing.T) {
	loader := NewLoader(newTestRuntime(t), zap.NewNop())
	dir := writeModuleDir(t, exportsOnlyWAT)

	mod, err := loader.Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "interop", mod.Name())
	assert.Equal(t, "1.0.0", mod.Version())
	assert.Equal(t, filepath.Join(dir, "interop.wasm"), mod.CompiledName())
	assert.False(t, mod.LoadedAt.IsZero())
}

func TestLoader_Load_MissingExportInBinary(t *testing.T) {
	loader := NewLoader(newTestRuntime(t), zap.NewNop())

	// The checked-in binary is an empty module.
	_, err := loader.Load(context.Background(), filepath.Join("testdata", "modules", "valid"))
	require.Error(t, err)

	var loadErr *ModuleLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "interop", loadErr.ModuleName)

	var missing *MissingExportError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "allocate", missing.Export)
}

func TestLoader_Load_ManifestNotFound(t *testing.T) {
	loader := NewLoader(newTestRuntime(t), zap.NewNop())

	_, err := loader.Load(context.Background(), filepath.Join("testdata", "modules", "nonexistent"))

	var notFound *ManifestNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestLoader_Load_CompilationError(t *testing.T) {
	loader := NewLoader(newTestRuntime(t), zap.NewNop())

	dir := t.TempDir()
	manifest, err := os.ReadFile(filepath.Join("testdata", "modules", "valid", ManifestFile))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), manifest, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "interop.wasm"), []byte("garbage"), 0644))

	_, err = loader.Load(context.Background(), dir)

	var compErr *wasm.CompilationError
	assert.True(t, errors.As(err, &compErr))
}

func TestLoader_Load_WrongExportSignature(t *testing.T) {
	loader := NewLoader(newTestRuntime(t), zap.NewNop())

	// increment takes and returns i32 instead of f64.
	source := `(module
	(memory (export "memory") 1)
	(func (export "allocate") (param i32) (result i32) (i32.const 0))
	(func (export "deallocate") (param i32 i32))
	(func (export "increment") (param i32) (result i32) (local.get 0))
	(func (export "concat") (param f64 i32 i32 i32 i32) (result i32) (i32.const 0))
	(func (export "add_to_array") (param f64 i32 i32 i32 i32) (result i32) (i32.const 0)))`

	_, err := loader.Load(context.Background(), writeModuleDir(t, source))
	require.Error(t, err)

	var loadErr *ModuleLoadError
	require.True(t, errors.As(err, &loadErr))

	var sigErr *wasm.SignatureError
	require.True(t, errors.As(err, &sigErr))
	assert.Equal(t, "increment", sigErr.FunctionName)
}

func TestLoader_Load_UnsupportedImport(t *testing.T) {
	loader := NewLoader(newTestRuntime(t), zap.NewNop())

	source := `(module
	(import "env" "abort" (func (param i32 i32 i32 i32)))
	(memory (export "memory") 1))`

	_, err := loader.Load(context.Background(), writeModuleDir(t, source))

	var importErr *wasm.ImportError
	require.True(t, errors.As(err, &importErr))
	assert.Equal(t, "env.abort", importErr.Import)
}
