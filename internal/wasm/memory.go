package wasm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	abi "github.com/woxQAQ/wasm-interop/api/wasm"
)

var errNullAllocation = errors.New("guest allocator returned null")

// Memory provides safe memory operations for Wasm module interaction.
//
// Reads and writes are bounds-checked against the guest's linear memory.
// Allocations go through the guest's allocate/deallocate exports so the
// guest runtime knows the region is in use.
type Memory struct {
	module api.Module
	mem    api.Memory
}

// NewMemory creates a memory helper.
func NewMemory(module api.Module) *Memory {
	return &Memory{module: module, mem: module.Memory()}
}

// Size returns the current size of linear memory in bytes.
func (m *Memory) Size() uint32 {
	return m.mem.Size()
}

// ReadString reads a null-terminated string from Wasm memory.
// Without a terminator within maxLen bytes the whole range is returned.
func (m *Memory) ReadString(ptr uint32, maxLen uint32) (string, bool) {
	buf, ok := m.mem.Read(ptr, maxLen)
	if !ok {
		return "", false
	}

	end := len(buf)
	for i, b := range buf {
		if b == 0 {
			end = i
			break
		}
	}

	return string(buf[:end]), true
}

// Write copies data to ptr.
func (m *Memory) Write(ptr uint32, data []byte) error {
	if !m.mem.Write(ptr, data) {
		return &MemoryAccessError{Operation: "write", Address: ptr, Length: uint32(len(data))}
	}
	return nil
}

// Allocate reserves size bytes through the guest's allocate export.
func (m *Memory) Allocate(ctx context.Context, size uint32) (uint32, error) {
	fn := m.module.ExportedFunction(abi.ExportAllocate)
	if fn == nil {
		return 0, &FunctionNotFoundError{ModuleName: m.module.Name(), FunctionName: abi.ExportAllocate}
	}

	results, err := fn.Call(ctx, api.EncodeU32(size))
	if err != nil {
		return 0, &MemoryAccessError{Operation: "allocate", Length: size, Err: err}
	}

	ptr := api.DecodeU32(results[0])
	if ptr == 0 {
		return 0, &MemoryAccessError{Operation: "allocate", Length: size, Err: errNullAllocation}
	}
	if uint64(ptr)+uint64(size) > uint64(m.mem.Size()) {
		return 0, &MemoryAccessError{Operation: "allocate", Address: ptr, Length: size,
			Err: fmt.Errorf("region exceeds memory size %d", m.mem.Size())}
	}
	return ptr, nil
}

// Free releases memory obtained from Allocate. Zero pointers are ignored.
func (m *Memory) Free(ctx context.Context, ptr, size uint32) error {
	if ptr == 0 {
		return nil
	}

	fn := m.module.ExportedFunction(abi.ExportDeallocate)
	if fn == nil {
		return &FunctionNotFoundError{ModuleName: m.module.Name(), FunctionName: abi.ExportDeallocate}
	}

	if _, err := fn.Call(ctx, api.EncodeU32(ptr), api.EncodeU32(size)); err != nil {
		return &MemoryAccessError{Operation: "deallocate", Address: ptr, Length: size, Err: err}
	}
	return nil
}

// WriteBytes allocates guest memory and copies data into it.
// Empty data yields a zero pointer and length without allocating.
func (m *Memory) WriteBytes(ctx context.Context, data []byte) (uint32, uint32, error) {
	if len(data) == 0 {
		return 0, 0, nil
	}

	size := uint32(len(data))
	ptr, err := m.Allocate(ctx, size)
	if err != nil {
		return 0, 0, err
	}
	if err := m.Write(ptr, data); err != nil {
		m.Free(ctx, ptr, size)
		return 0, 0, err
	}
	return ptr, size, nil
}

// WriteString writes a string to Wasm memory without a terminator.
func (m *Memory) WriteString(ctx context.Context, s string) (uint32, uint32, error) {
	return m.WriteBytes(ctx, []byte(s))
}

// WriteInt32s allocates guest memory and stores values little-endian.
func (m *Memory) WriteInt32s(ctx context.Context, values []int32) (uint32, error) {
	if len(values) == 0 {
		return 0, nil
	}

	size := uint32(len(values) * 4)
	ptr, err := m.Allocate(ctx, size)
	if err != nil {
		return 0, err
	}
	for i, v := range values {
		if !m.mem.WriteUint32Le(ptr+uint32(i*4), uint32(v)) {
			m.Free(ctx, ptr, size)
			return 0, &MemoryAccessError{Operation: "write", Address: ptr, Length: size}
		}
	}
	return ptr, nil
}

// ReadInt32s reads len(dst) little-endian int32 values starting at ptr into dst.
func (m *Memory) ReadInt32s(ptr uint32, dst []int32) error {
	for i := range dst {
		v, ok := m.mem.ReadUint32Le(ptr + uint32(i*4))
		if !ok {
			return &MemoryAccessError{Operation: "read", Address: ptr, Length: uint32(len(dst) * 4)}
		}
		dst[i] = int32(v)
	}
	return nil
}
