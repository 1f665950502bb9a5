package wasm

// This file defines the Wasm export interface of the interop module.
// The guest implements these functions using //go:wasmexport.
//
// NOTE: uint32 is used for pointers and lengths because WebAssembly uses a 32-bit
// linear memory model. Numbers cross the boundary as f64.
// See: https://github.com/golang/go/issues/65199
//
// //go:wasmexport allocate
// func allocate(size uint32) uint32
//
// //go:wasmexport deallocate
// func deallocate(ptr, size uint32)
//
// //go:wasmexport increment
// func increment(x float64) float64
//
// Every region passed to concat and add_to_array must lie inside a single
// block returned by allocate and not yet released: [bufPtr, bufPtr+bufCap),
// [arrPtr, arrPtr+arrLen) for concat, [strPtr, strPtr+strLen) and
// [arrPtr, arrPtr+4*arrLen) for add_to_array. Zero-length regions are exempt.
// A region that breaks this rule, or a misaligned int32 array, yields
// StatusInvalidArgument and the guest touches no memory.
//
// //go:wasmexport concat
// func concat(v float64, bufPtr, bufCap, arrPtr, arrLen uint32) uint32
//
// //go:wasmexport add_to_array
// func addToArray(v float64, strPtr, strLen, arrPtr, arrLen uint32) uint32

// Export names.
const (
	ExportAllocate   = "allocate"
	ExportDeallocate = "deallocate"
	ExportIncrement  = "increment"
	ExportConcat     = "concat"
	ExportAddToArray = "add_to_array"

	// ExportInitialize is present on reactor modules built with -buildmode=c-shared.
	ExportInitialize = "_initialize"
	// ExportStart is the entry point of command modules.
	ExportStart = "_start"
)

// RequiredExports lists every function a module must export to be usable
// by the host client.
var RequiredExports = []string{
	ExportAllocate,
	ExportDeallocate,
	ExportIncrement,
	ExportConcat,
	ExportAddToArray,
}

// Status is the result code returned by concat and add_to_array.
type Status uint32

const (
	StatusOK Status = iota
	// StatusCapacityExceeded means the buffer cannot hold the result plus its NUL terminator.
	StatusCapacityExceeded
	// StatusInvalidArgument means a pointer, length or buffer content was rejected.
	StatusInvalidArgument
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCapacityExceeded:
		return "capacity exceeded"
	case StatusInvalidArgument:
		return "invalid argument"
	default:
		return "unknown status"
	}
}
