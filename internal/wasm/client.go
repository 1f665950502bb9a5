package wasm

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	abi "github.com/woxQAQ/wasm-interop/api/wasm"
	"github.com/woxQAQ/wasm-interop/internal/interop"
	"go.uber.org/zap"
)

// Client calls the interop module's exports with Go values.
// Calls are serialised because a module instance is single-threaded.
type Client struct {
	mu             sync.Mutex
	instance       *Instance
	mem            *Memory
	maxBufferBytes int
	logger         *zap.Logger
}

// NewClient wraps an instance. It fails if a required export is missing.
// maxBufferBytes bounds the buffer allocated for Concat; zero means no bound.
func NewClient(instance *Instance, maxBufferBytes int, logger *zap.Logger) (*Client, error) {
	for _, name := range abi.RequiredExports {
		if !instance.HasExport(name) {
			return nil, &FunctionNotFoundError{ModuleName: instance.Name, FunctionName: name}
		}
	}

	return &Client{
		instance:       instance,
		mem:            instance.Memory(),
		maxBufferBytes: maxBufferBytes,
		logger: logger.With(
			zap.String("component", "wasm-client"),
			zap.String("instance_id", instance.ID),
		),
	}, nil
}

// Increment bumps the instance counter and returns x plus the new value.
func (c *Client) Increment(ctx context.Context, x float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	results, err := c.instance.Call(ctx, abi.ExportIncrement, api.EncodeF64(x))
	if err != nil {
		return 0, err
	}
	return api.DecodeF64(results[0]), nil
}

// Concat returns s followed by the six-decimal rendering of v, built by the
// module in a guest buffer.
func (c *Client) Concat(ctx context.Context, v float64, s string, arr []int8) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf, err := interop.NewBuffer(s, interop.ConcatCapacity(s, c.maxBufferBytes))
	if err != nil {
		return "", err
	}

	bufCap := uint32(buf.Cap())
	bufPtr, err := c.mem.Allocate(ctx, bufCap)
	if err != nil {
		return "", err
	}
	defer c.free(ctx, bufPtr, bufCap)

	if err := c.mem.Write(bufPtr, buf.Bytes()); err != nil {
		return "", err
	}

	raw := make([]byte, len(arr))
	for i, e := range arr {
		raw[i] = byte(e)
	}
	arrPtr, arrLen, err := c.mem.WriteBytes(ctx, raw)
	if err != nil {
		return "", err
	}
	defer c.free(ctx, arrPtr, arrLen)

	results, err := c.instance.Call(ctx, abi.ExportConcat,
		api.EncodeF64(v),
		api.EncodeU32(bufPtr), api.EncodeU32(bufCap),
		api.EncodeU32(arrPtr), api.EncodeU32(arrLen),
	)
	if err != nil {
		return "", err
	}
	if status := abi.Status(api.DecodeU32(results[0])); status != abi.StatusOK {
		return "", &CallError{FunctionName: abi.ExportConcat, Status: status}
	}

	out, ok := c.mem.ReadString(bufPtr, bufCap)
	if !ok {
		return "", &MemoryAccessError{Operation: "read", Address: bufPtr, Length: bufCap}
	}
	return out, nil
}

// AddToArray adds v to every element of arr in place. The module does the
// arithmetic on a copy in guest memory which is then copied back.
func (c *Client) AddToArray(ctx context.Context, v float64, s string, arr []int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	strPtr, strLen, err := c.mem.WriteString(ctx, s)
	if err != nil {
		return err
	}
	defer c.free(ctx, strPtr, strLen)

	arrPtr, err := c.mem.WriteInt32s(ctx, arr)
	if err != nil {
		return err
	}
	arrSize := uint32(len(arr) * 4)
	defer c.free(ctx, arrPtr, arrSize)

	results, err := c.instance.Call(ctx, abi.ExportAddToArray,
		api.EncodeF64(v),
		api.EncodeU32(strPtr), api.EncodeU32(strLen),
		api.EncodeU32(arrPtr), api.EncodeU32(uint32(len(arr))),
	)
	if err != nil {
		return err
	}
	if status := abi.Status(api.DecodeU32(results[0])); status != abi.StatusOK {
		return &CallError{FunctionName: abi.ExportAddToArray, Status: status}
	}

	if len(arr) == 0 {
		return nil
	}
	return c.mem.ReadInt32s(arrPtr, arr)
}

// Close closes the underlying instance.
func (c *Client) Close(ctx context.Context) error {
	return c.instance.Close(ctx)
}

func (c *Client) free(ctx context.Context, ptr, size uint32) {
	if err := c.mem.Free(ctx, ptr, size); err != nil {
		c.logger.Warn("Failed to free guest memory",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err),
		)
	}
}
