package wasm

import (
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	abi "github.com/woxQAQ/wasm-interop/api/wasm"
)

// signature is the parameter and result types of an ABI function.
type signature struct {
	params  []api.ValueType
	results []api.ValueType
}

func types(t ...api.ValueType) []api.ValueType { return t }

const (
	i32 = api.ValueTypeI32
	f64 = api.ValueTypeF64
)

// exportSignatures are the guest exports the client calls.
var exportSignatures = map[string]signature{
	abi.ExportAllocate:   {params: types(i32), results: types(i32)},
	abi.ExportDeallocate: {params: types(i32, i32)},
	abi.ExportIncrement:  {params: types(f64), results: types(f64)},
	abi.ExportConcat:     {params: types(f64, i32, i32, i32, i32), results: types(i32)},
	abi.ExportAddToArray: {params: types(f64, i32, i32, i32, i32), results: types(i32)},
}

// hostSignatures are the functions the host module provides.
var hostSignatures = map[string]signature{
	abi.FuncLogMessage: {params: types(i32, i32, i32)},
}

func (s signature) matches(def api.FunctionDefinition) bool {
	return equalTypes(s.params, def.ParamTypes()) && equalTypes(s.results, def.ResultTypes())
}

func (s signature) String() string {
	return formatSignature(s.params, s.results)
}

func equalTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatSignature(params, results []api.ValueType) string {
	name := func(ts []api.ValueType) string {
		names := make([]string, len(ts))
		for i, t := range ts {
			names[i] = api.ValueTypeName(t)
		}
		return "(" + strings.Join(names, ", ") + ")"
	}
	return name(params) + " -> " + name(results)
}

// checkImports rejects imports the runtime cannot satisfy: anything outside
// WASI and the host module, and host functions with the wrong signature.
func checkImports(moduleName string, compiled wazero.CompiledModule) error {
	for _, def := range compiled.ImportedFunctions() {
		from, name, _ := def.Import()

		switch from {
		case wasi_snapshot_preview1.ModuleName:
			continue
		case abi.HostModule:
			want, ok := hostSignatures[name]
			if !ok {
				return &ImportError{ModuleName: moduleName, Import: from + "." + name,
					Reason: "not provided by the host"}
			}
			if !want.matches(def) {
				return &ImportError{ModuleName: moduleName, Import: from + "." + name,
					Reason: fmt.Sprintf("signature %s, host provides %s",
						formatSignature(def.ParamTypes(), def.ResultTypes()), want)}
			}
		default:
			return &ImportError{ModuleName: moduleName, Import: from + "." + name,
				Reason: "unknown import module"}
		}
	}
	return nil
}

// VerifyExports checks that every named function is exported and, for the
// ABI functions, has the expected signature.
func (c *CompiledModule) VerifyExports(names ...string) error {
	if c.Module == nil {
		return &ModuleNotFoundError{ModuleName: c.Name}
	}

	exported := c.Module.ExportedFunctions()
	for _, name := range names {
		def, ok := exported[name]
		if !ok {
			return &FunctionNotFoundError{ModuleName: c.Name, FunctionName: name}
		}
		if want, known := exportSignatures[name]; known && !want.matches(def) {
			return &SignatureError{
				ModuleName:   c.Name,
				FunctionName: name,
				Want:         want.String(),
				Got:          formatSignature(def.ParamTypes(), def.ResultTypes()),
			}
		}
	}
	return nil
}
