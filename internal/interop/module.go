package interop

import "context"

// Module runs the exported functions in-process. It owns one counter, like a
// single loaded instance of the wasm module.
type Module struct {
	counter        Counter
	console        Console
	maxBufferBytes int
}

// NewModule creates a module logging to console. maxBufferBytes bounds the
// buffer Concat works in; zero means no bound.
func NewModule(console Console, maxBufferBytes int) *Module {
	if console == nil {
		console = Discard
	}
	return &Module{
		console:        console,
		maxBufferBytes: maxBufferBytes,
	}
}

// Increment bumps the counter and returns x plus the new counter value.
func (m *Module) Increment(ctx context.Context, x float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.counter.Increment(x), nil
}

// Concat returns s followed by the six-decimal rendering of v.
func (m *Module) Concat(ctx context.Context, v float64, s string, arr []int8) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	buf, err := NewBuffer(s, ConcatCapacity(s, m.maxBufferBytes))
	if err != nil {
		return "", err
	}
	if err := Concat(m.console, v, buf, arr); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// AddToArray adds v to every element of arr in place.
func (m *Module) AddToArray(ctx context.Context, v float64, s string, arr []int32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	AddToArray(m.console, v, s, arr)
	return nil
}
