//go:build wasip1

// Command interop-wasm is the interop module loaded by the host.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o interop.wasm ./cmd/interop-wasm
package main

import (
	"math"
	"unsafe"

	abi "github.com/woxQAQ/wasm-interop/api/wasm"
	"github.com/woxQAQ/wasm-interop/internal/interop"
)

// counter lives as long as the module instance.
var counter interop.Counter

//go:wasmimport host log_message
func hostLogMessage(level, ptr, length uint32)

// hostConsole forwards console output to the host.
type hostConsole struct{}

func (hostConsole) Log(msg string) {
	if len(msg) == 0 {
		hostLogMessage(uint32(abi.LogLevelConsole), 0, 0)
		return
	}
	b := []byte(msg)
	hostLogMessage(uint32(abi.LogLevelConsole), uint32(uintptr(unsafe.Pointer(&b[0]))), uint32(len(b)))
}

//go:wasmexport increment
func increment(x float64) float64 {
	return counter.Increment(x)
}

//go:wasmexport concat
func concat(v float64, bufPtr, bufCap, arrPtr, arrLen uint32) uint32 {
	mem, ok := region(bufPtr, bufCap)
	if !ok {
		return uint32(abi.StatusInvalidArgument)
	}
	buf, err := interop.WrapBuffer(mem)
	if err != nil {
		return uint32(abi.StatusInvalidArgument)
	}

	arr, ok := int8sAt(arrPtr, arrLen)
	if !ok {
		return uint32(abi.StatusInvalidArgument)
	}

	if err := interop.Concat(hostConsole{}, v, buf, arr); err != nil {
		return uint32(abi.StatusCapacityExceeded)
	}
	return uint32(abi.StatusOK)
}

//go:wasmexport add_to_array
func addToArray(v float64, strPtr, strLen, arrPtr, arrLen uint32) uint32 {
	str, ok := region(strPtr, strLen)
	if !ok {
		return uint32(abi.StatusInvalidArgument)
	}

	arr, ok := int32sAt(arrPtr, arrLen)
	if !ok {
		return uint32(abi.StatusInvalidArgument)
	}

	interop.AddToArray(hostConsole{}, v, string(str), arr)
	return uint32(abi.StatusOK)
}

func int8sAt(ptr, n uint32) ([]int8, bool) {
	b, ok := region(ptr, n)
	if !ok || n == 0 {
		return nil, ok
	}
	return unsafe.Slice((*int8)(unsafe.Pointer(&b[0])), n), true
}

func int32sAt(ptr, n uint32) ([]int32, bool) {
	if n == 0 {
		return nil, true
	}
	if ptr%4 != 0 || n > math.MaxUint32/4 {
		return nil, false
	}
	b, ok := region(ptr, n*4)
	if !ok {
		return nil, false
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&b[0])), n), true
}

func main() {}
