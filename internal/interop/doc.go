// Package interop implements the functions exported by the interop module.
//
// The package has no build constraints: the wasip1 guest in cmd/interop-wasm
// wraps it with //go:wasmexport shims over linear memory, and the host CLI can
// run it in-process through Module.
package interop
