package host

import (
	"context"
	"fmt"

	"github.com/woxQAQ/wasm-interop/internal/interop"
	"github.com/woxQAQ/wasm-interop/internal/wasm"
	"go.uber.org/zap"
)

// Functions are the three interop calls. Both the wasm client and the
// in-process module implement it.
type Functions interface {
	Increment(ctx context.Context, x float64) (float64, error)
	Concat(ctx context.Context, v float64, s string, arr []int8) (string, error)
	AddToArray(ctx context.Context, v float64, s string, arr []int32) error
}

var (
	_ Functions = (*wasm.Client)(nil)
	_ Functions = (*interop.Module)(nil)
)

// Demo inputs, one call per function.
const (
	DemoIncrementInput = 99.3
	DemoConcatNumber   = 42
	DemoConcatString   = "Concatenated number: "
	DemoArrayAddend    = 84
	DemoArrayString    = "Manual memory management!"
)

// DemoConcatArray returns the byte array passed to concat.
func DemoConcatArray() []int8 {
	return []int8{127, -128, 0, 1, 0, -1, 0, 2, 0, -2}
}

// DemoArray returns the int32 array passed to add_to_array.
func DemoArray() []int32 {
	return []int32{2147483647, -2147483648, -1, 0, 1}
}

// DemoResult holds what each demo call returned.
type DemoResult struct {
	Sum          float64
	Concatenated string
	Array        []int32
}

// RunDemo calls every function once with the demo inputs and logs the results.
func RunDemo(ctx context.Context, fns Functions, logger *zap.Logger) (*DemoResult, error) {
	logger = logger.With(zap.String("component", "demo"))

	sum, err := fns.Increment(ctx, DemoIncrementInput)
	if err != nil {
		return nil, fmt.Errorf("increment: %w", err)
	}
	logger.Info("increment returned",
		zap.Float64("input", DemoIncrementInput),
		zap.Float64("result", sum),
	)

	concatenated, err := fns.Concat(ctx, DemoConcatNumber, DemoConcatString, DemoConcatArray())
	if err != nil {
		return nil, fmt.Errorf("concat: %w", err)
	}
	logger.Info("concat returned", zap.String("result", concatenated))

	arr := DemoArray()
	if err := fns.AddToArray(ctx, DemoArrayAddend, DemoArrayString, arr); err != nil {
		return nil, fmt.Errorf("add_to_array: %w", err)
	}
	logger.Info("add_to_array returned", zap.Int32s("result", arr))

	return &DemoResult{
		Sum:          sum,
		Concatenated: concatenated,
		Array:        arr,
	}, nil
}
