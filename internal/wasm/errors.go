package wasm

import (
	"errors"
	"fmt"
	"time"

	abi "github.com/woxQAQ/wasm-interop/api/wasm"
	"github.com/woxQAQ/wasm-interop/internal/interop"
)

// CompilationError occurs when Wasm module compilation fails
type CompilationError struct {
	ModuleName string
	Err        error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile Wasm module '%s': %v", e.ModuleName, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// InstantiationError occurs when module instantiation fails
type InstantiationError struct {
	ModuleName string
	InstanceID string
	Err        error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("failed to instantiate module '%s' (instance: %s): %v",
		e.ModuleName, e.InstanceID, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// ModuleNotFoundError occurs when a module is not in cache
type ModuleNotFoundError struct {
	ModuleName string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module '%s' not found in cache", e.ModuleName)
}

// FunctionNotFoundError occurs when an exported function is missing
type FunctionNotFoundError struct {
	ModuleName   string
	FunctionName string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("function '%s' not found in module '%s'",
		e.FunctionName, e.ModuleName)
}

// MemoryAccessError occurs when memory operations fail
type MemoryAccessError struct {
	Operation string
	Address   uint32
	Length    uint32
	Err       error
}

func (e *MemoryAccessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("memory access failed (op=%s, addr=%d, len=%d): out of range",
			e.Operation, e.Address, e.Length)
	}
	return fmt.Sprintf("memory access failed (op=%s, addr=%d, len=%d): %v",
		e.Operation, e.Address, e.Length, e.Err)
}

func (e *MemoryAccessError) Unwrap() error {
	return e.Err
}

// HostFunctionError occurs when host function execution fails
type HostFunctionError struct {
	FunctionName string
	Err          error
}

func (e *HostFunctionError) Error() string {
	return fmt.Sprintf("host function '%s' failed: %v", e.FunctionName, e.Err)
}

func (e *HostFunctionError) Unwrap() error {
	return e.Err
}

// TimeoutError occurs when Wasm execution times out
type TimeoutError struct {
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Wasm execution timed out after %v", e.Duration)
}

// CallError occurs when an exported function reports a non-OK status.
type CallError struct {
	FunctionName string
	Status       abi.Status
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call to '%s' failed: %s", e.FunctionName, e.Status)
}

// Unwrap maps the status onto the matching interop sentinel.
func (e *CallError) Unwrap() error {
	switch e.Status {
	case abi.StatusCapacityExceeded:
		return interop.ErrCapacityExceeded
	case abi.StatusInvalidArgument:
		return interop.ErrInvalidArgument
	default:
		return nil
	}
}

// ImportError occurs when a module imports something the runtime cannot provide.
type ImportError struct {
	ModuleName string
	Import     string
	Reason     string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("module '%s' imports '%s': %s", e.ModuleName, e.Import, e.Reason)
}

// SignatureError occurs when an export has the wrong parameter or result types.
type SignatureError struct {
	ModuleName   string
	FunctionName string
	Want         string
	Got          string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("function '%s' in module '%s' has signature %s, want %s",
		e.FunctionName, e.ModuleName, e.Got, e.Want)
}

// InstanceClosedError occurs when calling an instance that was closed or
// retired after an interrupted call.
type InstanceClosedError struct {
	InstanceID string
}

func (e *InstanceClosedError) Error() string {
	return fmt.Sprintf("instance '%s' is closed", e.InstanceID)
}

// ErrHostConflict means a runtime already serves another host module.
var ErrHostConflict = errors.New("runtime already serves a different host module")
