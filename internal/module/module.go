package module

import (
	"time"

	"github.com/woxQAQ/wasm-interop/internal/wasm"
)

// Module is a loaded interop module: its manifest and compiled binary.
type Module struct {
	Manifest *Manifest
	Compiled *wasm.CompiledModule
	LoadedAt time.Time
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.Manifest.Name
}

// Version returns the module version.
func (m *Module) Version() string {
	return m.Manifest.Version
}

// CompiledName is the key of the compiled module in the runtime cache.
func (m *Module) CompiledName() string {
	return m.Compiled.Name
}
