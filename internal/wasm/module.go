package wasm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tetratelabs/wazero/experimental"
	"github.com/tetratelabs/wazero/experimental/logging"
	"go.uber.org/zap"
)

// ModuleLoader compiles guest binaries and checks them against the host ABI.
type ModuleLoader struct {
	runtime *Runtime
	logger  *zap.Logger
}

// NewModuleLoader creates a new module loader.
func NewModuleLoader(runtime *Runtime, logger *zap.Logger) *ModuleLoader {
	return &ModuleLoader{
		runtime: runtime,
		logger:  logger.With(zap.String("component", "wasm-loader")),
	}
}

// ModuleSource supplies a guest binary and the key it is cached under.
type ModuleSource interface {
	Bytes() ([]byte, error)
	Name() string
}

// FileModuleSource reads a binary from disk. The path is the cache key.
type FileModuleSource struct {
	Path string
}

func (f *FileModuleSource) Bytes() ([]byte, error) {
	return os.ReadFile(f.Path)
}

func (f *FileModuleSource) Name() string {
	return f.Path
}

// MemoryModuleSource serves a binary already in memory, such as a test
// fixture.
type MemoryModuleSource struct {
	ModuleName string
	Data       []byte
}

func (m *MemoryModuleSource) Bytes() ([]byte, error) {
	return m.Data, nil
}

func (m *MemoryModuleSource) Name() string {
	return m.ModuleName
}

// LoadModule compiles source once per runtime. A module whose imports the
// host cannot satisfy is rejected here rather than at instantiation. With
// debug enabled, calls into the module's exports and host functions are
// traced to the logger.
func (l *ModuleLoader) LoadModule(ctx context.Context, source ModuleSource) (*CompiledModule, error) {
	name := source.Name()
	if l.runtime.IsClosed() {
		return nil, fmt.Errorf("cannot load module %s: runtime is closed", name)
	}

	if cached, ok := l.runtime.GetCompiledModule(name); ok {
		l.logger.Debug("Module cache hit", zap.String("module", name))
		return cached, nil
	}

	wasmBytes, err := source.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read module %s: %w", name, err)
	}

	if l.runtime.config.DebugEnabled {
		ctx = experimental.WithFunctionListenerFactory(ctx,
			logging.NewHostLoggingListenerFactory(newTraceWriter(l.logger), logging.LogScopeAll))
	}

	startTime := time.Now()
	compiled, err := l.runtime.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, &CompilationError{ModuleName: name, Err: err}
	}

	if err := checkImports(name, compiled); err != nil {
		compiled.Close(ctx)
		return nil, err
	}

	module := &CompiledModule{
		Module:    compiled,
		Name:      name,
		SizeBytes: int64(len(wasmBytes)),
	}
	l.runtime.StoreCompiledModule(module)

	l.logger.Info("Module compiled",
		zap.String("module", name),
		zap.Int64("size_bytes", module.SizeBytes),
		zap.Int("imported_functions", len(compiled.ImportedFunctions())),
		zap.Int("exported_functions", len(compiled.ExportedFunctions())),
		zap.Bool("traced", l.runtime.config.DebugEnabled),
		zap.Duration("duration", time.Since(startTime)),
	)

	return module, nil
}

// LoadModuleFromFile compiles the binary at path.
func (l *ModuleLoader) LoadModuleFromFile(ctx context.Context, path string) (*CompiledModule, error) {
	return l.LoadModule(ctx, &FileModuleSource{Path: path})
}

// LoadModuleFromMemory compiles data under name.
func (l *ModuleLoader) LoadModuleFromMemory(ctx context.Context, name string, data []byte) (*CompiledModule, error) {
	return l.LoadModule(ctx, &MemoryModuleSource{ModuleName: name, Data: data})
}
