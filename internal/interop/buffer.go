package interop

import "bytes"

// Buffer is a NUL-terminated text buffer over a fixed region of memory.
// The capacity counts the terminator.
type Buffer struct {
	mem []byte
	n   int
}

// NewBuffer allocates a buffer of the given capacity holding s.
func NewBuffer(s string, capacity int) (*Buffer, error) {
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return nil, ErrInvalidArgument
	}
	if len(s)+1 > capacity {
		return nil, &CapacityError{Need: len(s) + 1, Have: capacity}
	}

	mem := make([]byte, capacity)
	copy(mem, s)
	return &Buffer{mem: mem, n: len(s)}, nil
}

// WrapBuffer uses mem as the buffer storage. The current text is everything
// before the first NUL byte. Writes go straight to mem.
func WrapBuffer(mem []byte) (*Buffer, error) {
	n := bytes.IndexByte(mem, 0)
	if n < 0 {
		return nil, ErrUnterminated
	}
	return &Buffer{mem: mem, n: n}, nil
}

// Append writes s after the current text and re-terminates the buffer.
// The buffer is left untouched when it cannot hold the result.
func (b *Buffer) Append(s string) error {
	need := b.n + len(s) + 1
	if need > len(b.mem) {
		return &CapacityError{Need: need, Have: len(b.mem)}
	}

	copy(b.mem[b.n:], s)
	b.n += len(s)
	b.mem[b.n] = 0
	return nil
}

// String returns the text without the terminator.
func (b *Buffer) String() string {
	return string(b.mem[:b.n])
}

// Len returns the text length in bytes.
func (b *Buffer) Len() int {
	return b.n
}

// Cap returns the buffer capacity including the terminator.
func (b *Buffer) Cap() int {
	return len(b.mem)
}

// Bytes returns the text followed by its terminator.
func (b *Buffer) Bytes() []byte {
	return b.mem[:b.n+1]
}
