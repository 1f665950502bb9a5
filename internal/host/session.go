package host

import (
	"context"
	"fmt"

	"github.com/woxQAQ/wasm-interop/internal/config"
	"github.com/woxQAQ/wasm-interop/internal/module"
	"github.com/woxQAQ/wasm-interop/internal/wasm"
	"go.uber.org/zap"
)

// Session owns a runtime with the interop module loaded and instantiated.
type Session struct {
	cfg     *config.Config
	logger  *zap.Logger
	runtime *wasm.Runtime
	module  *module.Module
	client  *wasm.Client
}

// NewSession loads the module in cfg.ModuleDir and returns a session ready
// for calls. opts configure the host functions the module imports.
func NewSession(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...wasm.HostOption) (*Session, error) {
	wasmConfig := &wasm.RuntimeConfig{
		MemoryPages:      cfg.Wasm.MemoryPages,
		DebugEnabled:     cfg.Wasm.Debug,
		CacheDir:         cfg.Wasm.CacheDir,
		MaxInstances:     cfg.Wasm.MaxInstances,
		ExecutionTimeout: cfg.Wasm.Timeout(),
	}

	runtime, err := wasm.NewRuntime(ctx, logger, wasmConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Wasm runtime: %w", err)
	}

	mod, err := module.NewLoader(runtime, logger).Load(ctx, cfg.ModuleDir)
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}

	instanceMgr := wasm.NewInstanceManager(runtime, wasm.NewHostFunctions(logger, opts...), logger)
	instance, err := instanceMgr.Instantiate(ctx, &wasm.InstanceConfig{
		ModuleName: mod.CompiledName(),
		Reactor:    mod.Manifest.Wasm.Reactor,
	})
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}

	client, err := wasm.NewClient(instance, cfg.Wasm.MaxBufferBytes, logger)
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}

	logger.Info("Host session initialized",
		zap.String("module", mod.Name()),
		zap.String("version", mod.Version()),
		zap.Uint32("wasm_memory_pages", cfg.Wasm.MemoryPages),
		zap.String("wasm_cache_dir", cfg.Wasm.CacheDir),
	)

	return &Session{
		cfg:     cfg,
		logger:  logger,
		runtime: runtime,
		module:  mod,
		client:  client,
	}, nil
}

// Client returns the typed client of the loaded instance.
func (s *Session) Client() *wasm.Client {
	return s.client
}

// Module returns the loaded module.
func (s *Session) Module() *module.Module {
	return s.module
}

// Close gracefully shuts down the session.
func (s *Session) Close(ctx context.Context) error {
	s.logger.Info("Shutting down host session")

	if err := s.client.Close(ctx); err != nil {
		s.logger.Warn("Failed to close instance", zap.Error(err))
	}

	if err := s.runtime.Close(ctx); err != nil {
		s.logger.Error("Failed to shutdown Wasm runtime", zap.Error(err))
		return err
	}

	s.logger.Info("Host session shutdown complete")
	return nil
}
