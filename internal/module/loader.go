package module

import (
	"context"
	"time"

	"github.com/woxQAQ/wasm-interop/internal/wasm"
	"go.uber.org/zap"
)

// Loader handles loading modules from disk.
type Loader struct {
	moduleLoader *wasm.ModuleLoader
	logger       *zap.Logger
}

// NewLoader creates a new module loader.
func NewLoader(runtime *wasm.Runtime, logger *zap.Logger) *Loader {
	return &Loader{
		moduleLoader: wasm.NewModuleLoader(runtime, logger),
		logger:       logger.With(zap.String("component", "module-loader")),
	}
}

// Load parses the manifest in dir, compiles the referenced binary and checks
// that every declared export is present with its ABI signature.
func (l *Loader) Load(ctx context.Context, dir string) (*Module, error) {
	l.logger.Debug("Loading module", zap.String("dir", dir))

	manifest, err := ParseManifest(dir)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Loading module",
		zap.String("name", manifest.Name),
		zap.String("version", manifest.Version),
		zap.Bool("reactor", manifest.Wasm.Reactor),
	)

	compiled, err := l.moduleLoader.LoadModuleFromFile(ctx, manifest.WasmPath())
	if err != nil {
		return nil, &ModuleLoadError{
			ModuleName: manifest.Name,
			Err:        err,
		}
	}

	for _, name := range manifest.Exports {
		if !compiled.HasExport(name) {
			return nil, &ModuleLoadError{
				ModuleName: manifest.Name,
				Err:        &MissingExportError{ModuleName: manifest.Name, Export: name},
			}
		}
	}
	if err := compiled.VerifyExports(manifest.Exports...); err != nil {
		return nil, &ModuleLoadError{ModuleName: manifest.Name, Err: err}
	}

	l.logger.Info("Module loaded successfully",
		zap.String("name", manifest.Name),
		zap.Int64("size_bytes", compiled.SizeBytes),
	)

	return &Module{
		Manifest: manifest,
		Compiled: compiled,
		LoadedAt: time.Now(),
	}, nil
}
