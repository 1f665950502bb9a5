//go:build wasip1

package main

import (
	"sync"
	"unsafe"
)

// maxAllocated bounds the memory the host can pin through allocate.
const maxAllocated = 16 * 1024 * 1024

// pinned keeps host-requested allocations reachable until deallocate.
var pinned = struct {
	sync.Mutex
	ptrs  map[uint32][]byte
	total int
}{
	ptrs: make(map[uint32][]byte),
}

// allocate reserves size bytes of linear memory for the host.
// It returns 0 for a zero size or when the limit would be exceeded.
//
//go:wasmexport allocate
func allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}

	pinned.Lock()
	defer pinned.Unlock()

	if pinned.total+int(size) > maxAllocated {
		return 0
	}

	// Backed by uint32s so every pointer is 4-byte aligned for int32 arrays.
	words := make([]uint32, (size+3)/4)
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))

	pinned.ptrs[ptr] = buf
	pinned.total += int(size)
	return ptr
}

// deallocate releases memory returned by allocate. Unknown pointers are ignored.
//
//go:wasmexport deallocate
func deallocate(ptr, size uint32) {
	pinned.Lock()
	defer pinned.Unlock()

	buf, ok := pinned.ptrs[ptr]
	if !ok {
		return
	}
	delete(pinned.ptrs, ptr)
	pinned.total -= len(buf)
}

// region returns the n bytes at ptr when they lie inside one live allocation.
// The slice is capped at n so appends cannot spill into a neighbour.
func region(ptr, n uint32) ([]byte, bool) {
	if n == 0 {
		return nil, true
	}

	pinned.Lock()
	defer pinned.Unlock()

	end := uint64(ptr) + uint64(n)
	for start, buf := range pinned.ptrs {
		if ptr >= start && end <= uint64(start)+uint64(len(buf)) {
			off := ptr - start
			return buf[off : off+n : off+n], true
		}
	}
	return nil, false
}
