package wasm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	abi "github.com/woxQAQ/wasm-interop/api/wasm"
	"go.uber.org/zap"
)

var (
	errMissingInitialize = errors.New("reactor module does not export " + abi.ExportInitialize)
	errExitedDuringStart = errors.New("module exited during " + abi.ExportStart)
)

// InstanceManager creates and manages module instances.
type InstanceManager struct {
	runtime   *Runtime
	logger    *zap.Logger
	hostFuncs *HostFunctionsImpl
}

// NewInstanceManager creates a new instance manager. Managers sharing a
// runtime must share hostFuncs as well.
func NewInstanceManager(runtime *Runtime, hostFuncs *HostFunctionsImpl, logger *zap.Logger) *InstanceManager {
	return &InstanceManager{
		runtime:   runtime,
		hostFuncs: hostFuncs,
		logger:    logger.With(zap.String("component", "wasm-instance")),
	}
}

// InstanceConfig holds configuration for creating instances.
type InstanceConfig struct {
	// Module name to instantiate.
	ModuleName string

	// Instance ID (if empty, one is generated).
	InstanceID string

	// Reactor modules are initialized through _initialize and stay usable.
	// Other modules run _start, which must return without exiting.
	Reactor bool
}

// Instance represents an instantiated Wasm module.
type Instance struct {
	module  api.Module
	runtime *Runtime
	logger  *zap.Logger

	ID        string
	Name      string
	CreatedAt time.Time

	exports map[string]api.Function
	timeout time.Duration
	debug   bool
	closed  atomic.Bool
}

// Instantiate creates a new instance from a compiled module.
func (m *InstanceManager) Instantiate(ctx context.Context, config *InstanceConfig) (*Instance, error) {
	compiled, ok := m.runtime.GetCompiledModule(config.ModuleName)
	if !ok {
		return nil, &ModuleNotFoundError{ModuleName: config.ModuleName}
	}

	if limit := m.runtime.config.MaxInstances; limit > 0 && m.runtime.InstanceCount() >= limit {
		return nil, fmt.Errorf("instance limit reached (%d)", limit)
	}

	instanceID := config.InstanceID
	if instanceID == "" {
		instanceID = generateUUID()
	}

	m.logger.Info("Instantiating Wasm module",
		zap.String("module", config.ModuleName),
		zap.String("instance_id", instanceID),
		zap.Bool("reactor", config.Reactor),
	)

	if err := m.runtime.registerHost(ctx, m.hostFuncs); err != nil {
		return nil, fmt.Errorf("failed to export host functions: %w", err)
	}

	moduleConfig := wazero.NewModuleConfig().
		WithName(instanceID).
		WithStdout(os.Stdout).
		WithStderr(os.Stderr)
	if config.Reactor {
		if !compiled.HasExport(abi.ExportInitialize) {
			return nil, &InstantiationError{ModuleName: config.ModuleName, InstanceID: instanceID, Err: errMissingInitialize}
		}
		moduleConfig = moduleConfig.WithStartFunctions()
	} else {
		moduleConfig = moduleConfig.WithStartFunctions(abi.ExportStart)
	}

	module, err := m.runtime.runtime.InstantiateModule(ctx, compiled.Module, moduleConfig)
	if err != nil {
		return nil, &InstantiationError{ModuleName: config.ModuleName, InstanceID: instanceID, Err: err}
	}
	// wazero reports a zero exit from _start as success but closes the module.
	if module.IsClosed() {
		return nil, &InstantiationError{ModuleName: config.ModuleName, InstanceID: instanceID, Err: errExitedDuringStart}
	}

	if config.Reactor {
		if _, err := module.ExportedFunction(abi.ExportInitialize).Call(ctx); err != nil {
			module.Close(ctx)
			return nil, &InstantiationError{
				ModuleName: config.ModuleName,
				InstanceID: instanceID,
				Err:        fmt.Errorf("%s: %w", abi.ExportInitialize, err),
			}
		}
	}

	instance := &Instance{
		module:    module,
		runtime:   m.runtime,
		logger:    m.logger.With(zap.String("instance_id", instanceID)),
		ID:        instanceID,
		Name:      config.ModuleName,
		CreatedAt: time.Now(),
		exports:   cacheExportedFunctions(module),
		timeout:   m.runtime.config.ExecutionTimeout,
		debug:     m.runtime.config.DebugEnabled,
	}

	m.runtime.StoreInstance(instanceID, instance)

	m.logger.Info("Module instantiated successfully",
		zap.String("instance_id", instanceID),
		zap.Int("exported_functions", len(instance.exports)),
	)

	return instance, nil
}

// Call invokes an exported function, bounded by the execution timeout.
// An interrupted call closes the guest module, so the instance is retired
// and later calls fail with InstanceClosedError.
func (i *Instance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	if i.closed.Load() {
		return nil, &InstanceClosedError{InstanceID: i.ID}
	}

	fn, ok := i.exports[name]
	if !ok {
		return nil, &FunctionNotFoundError{ModuleName: i.Name, FunctionName: name}
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := fn.Call(ctx, params...)
	if i.debug {
		i.logger.Debug("Called export",
			zap.String("function", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			i.retire()
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, &TimeoutError{Duration: i.timeout}
			}
			return nil, fmt.Errorf("call to '%s' interrupted: %w", name, ctxErr)
		}
		return nil, fmt.Errorf("call to '%s' failed: %w", name, err)
	}
	return results, nil
}

// retire stops tracking an instance whose module wazero has closed.
func (i *Instance) retire() {
	if i.closed.CompareAndSwap(false, true) {
		i.runtime.DeleteInstance(i.ID)
		i.logger.Warn("Instance retired after interrupted call")
	}
}

// HasExport reports whether the instance exports the named function.
func (i *Instance) HasExport(name string) bool {
	_, ok := i.exports[name]
	return ok
}

// Memory returns a memory helper for the instance.
func (i *Instance) Memory() *Memory {
	return NewMemory(i.module)
}

// Close closes the instance and releases resources.
func (i *Instance) Close(ctx context.Context) error {
	i.closed.Store(true)
	i.runtime.DeleteInstance(i.ID)
	return i.module.Close(ctx)
}

// cacheExportedFunctions resolves the ABI exports once per instance.
func cacheExportedFunctions(module api.Module) map[string]api.Function {
	exports := make(map[string]api.Function)

	for _, name := range abi.RequiredExports {
		if fn := module.ExportedFunction(name); fn != nil {
			exports[name] = fn
		}
	}

	return exports
}

var instanceSeq atomic.Uint64

// generateUUID generates a unique instance ID.
func generateUUID() string {
	return fmt.Sprintf("inst-%d-%d", time.Now().UnixNano(), instanceSeq.Add(1))
}
