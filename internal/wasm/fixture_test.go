package wasm

import (
	"context"
	"testing"

	"github.com/wippyai/wasm-runtime/wat"
	"go.uber.org/zap"
)

// stubGuestWAT follows the interop ABI. increment and add_to_array behave
// like the real module; concat always appends "42.000000" so the host side
// of the buffer protocol can be tested without a Go-built guest.
const stubGuestWAT = `(module
	(import "host" "log_message" (func $log (param i32 i32 i32)))
	(memory (export "memory") 1)
	(global $bump (mut i32) (i32.const 1024))
	(global $counter (mut f64) (f64.const 0.5))
	(data (i32.const 16) "42.000000")
	(data (i32.const 32) "stub guest called")

	(func (export "allocate") (param $size i32) (result i32)
		(local $ptr i32)
		(if (i32.eqz (local.get $size)) (then (return (i32.const 0))))
		(local.set $ptr (global.get $bump))
		(global.set $bump
			(i32.and
				(i32.add (i32.add (global.get $bump) (local.get $size)) (i32.const 7))
				(i32.const -8)))
		(local.get $ptr))

	(func (export "deallocate") (param i32 i32))

	(func (export "increment") (param $x f64) (result f64)
		(global.set $counter (f64.add (global.get $counter) (f64.const 1)))
		(f64.add (local.get $x) (global.get $counter)))

	(func (export "concat") (param $v f64) (param $buf i32) (param $cap i32) (param $arr i32) (param $len i32) (result i32)
		(local $n i32)
		(block $done
			(loop $scan
				(br_if $done (i32.ge_u (local.get $n) (local.get $cap)))
				(br_if $done (i32.eqz (i32.load8_u (i32.add (local.get $buf) (local.get $n)))))
				(local.set $n (i32.add (local.get $n) (i32.const 1)))
				(br $scan)))
		(if (i32.ge_u (local.get $n) (local.get $cap)) (then (return (i32.const 2))))
		(if (i32.gt_u (i32.add (local.get $n) (i32.const 10)) (local.get $cap)) (then (return (i32.const 1))))
		(call $log (i32.const 1) (i32.const 32) (i32.const 17))
		(memory.copy (i32.add (local.get $buf) (local.get $n)) (i32.const 16) (i32.const 9))
		(i32.store8 (i32.add (local.get $buf) (i32.add (local.get $n) (i32.const 9))) (i32.const 0))
		(i32.const 0))

	(func (export "add_to_array") (param $v f64) (param $s i32) (param $slen i32) (param $arr i32) (param $len i32) (result i32)
		(local $i i32)
		(local $p i32)
		(if (i32.and (local.get $arr) (i32.const 3)) (then (return (i32.const 2))))
		(block $done
			(loop $each
				(br_if $done (i32.ge_u (local.get $i) (local.get $len)))
				(local.set $p (i32.add (local.get $arr) (i32.shl (local.get $i) (i32.const 2))))
				(i32.store (local.get $p)
					(i32.trunc_sat_f64_s
						(f64.add (f64.convert_i32_s (i32.load (local.get $p))) (local.get $v))))
				(local.set $i (i32.add (local.get $i) (i32.const 1)))
				(br $each)))
		(i32.const 0))
)`

// spinGuestWAT never returns from increment.
const spinGuestWAT = `(module
	(func (export "increment") (param f64) (result f64)
		(loop $forever (br $forever))
		(f64.const 0)))`

// memoryOnlyWAT exports a single page of memory and nothing else.
const memoryOnlyWAT = `(module (memory (export "memory") 1))`

func compileWAT(t *testing.T, source string) []byte {
	t.Helper()

	wasmBytes, err := wat.Compile(source)
	if err != nil {
		t.Fatalf("wat compile: %v", err)
	}
	return wasmBytes
}

// newTestInstance compiles source and instantiates it on a fresh runtime.
func newTestInstance(t *testing.T, logger *zap.Logger, source string, opts ...HostOption) (*Runtime, *Instance) {
	t.Helper()
	return instantiateFixture(t, logger, nil, compileWAT(t, source), false, opts...)
}

// instantiateFixture loads wasmBytes into a runtime built from config and
// instantiates it once.
func instantiateFixture(t *testing.T, logger *zap.Logger, config *RuntimeConfig, wasmBytes []byte, reactor bool, opts ...HostOption) (*Runtime, *Instance) {
	t.Helper()
	ctx := context.Background()

	runtime, err := NewRuntime(ctx, logger, config)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	t.Cleanup(func() { runtime.Close(ctx) })

	loader := NewModuleLoader(runtime, logger)
	if _, err := loader.LoadModuleFromMemory(ctx, "fixture", wasmBytes); err != nil {
		t.Fatalf("Failed to load module: %v", err)
	}

	instanceMgr := NewInstanceManager(runtime, NewHostFunctions(logger, opts...), logger)
	instance, err := instanceMgr.Instantiate(ctx, &InstanceConfig{ModuleName: "fixture", Reactor: reactor})
	if err != nil {
		t.Fatalf("Failed to instantiate: %v", err)
	}
	return runtime, instance
}
