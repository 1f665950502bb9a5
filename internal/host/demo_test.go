package host

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woxQAQ/wasm-interop/internal/interop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRunDemo_Native(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var console []string
	mod := interop.NewModule(interop.ConsoleFunc(func(msg string) {
		console = append(console, msg)
	}), 4096)

	result, err := RunDemo(context.Background(), mod, zap.New(core))
	require.NoError(t, err)

	assert.InDelta(t, 100.8, result.Sum, 1e-9)
	assert.Equal(t, "Concatenated number: 42.000000", result.Concatenated)
	assert.Equal(t, []int32{math.MaxInt32, -2147483564, 83, 84, 85}, result.Array)

	assert.Equal(t, 3, logs.FilterField(zap.String("component", "demo")).Len())
	assert.Contains(t, console, "typedArray[1] = -128")
	assert.Contains(t, console, "typedArray[0] = 2147483647")
}

func TestRunDemo_PropagatesErrors(t *testing.T) {
	// Too small to hold the demo string.
	mod := interop.NewModule(nil, 8)

	_, err := RunDemo(context.Background(), mod, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, interop.ErrCapacityExceeded))
	assert.Contains(t, err.Error(), "concat")
}

func TestRunDemo_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunDemo(ctx, interop.NewModule(nil, 0), zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDemoInputsAreFresh(t *testing.T) {
	a := DemoArray()
	a[0] = 0
	assert.Equal(t, int32(math.MaxInt32), DemoArray()[0])
}
