// Package runtimeabi names the small set of functions Bract's generated
// code calls into for anything a memory strategy cannot resolve at compile
// time: heap allocation, reference counting, region bookkeeping, and the
// trap paths for bounds and contract violations. internal/bir's explicit
// memory ops (OpAllocate, OpFree, OpArcIncref, ...) each map to exactly one
// entry here; internal/mir's BIR-to-target-IR lowering emits a call to the
// matching entry point for every one of them, and a future native or LLVM
// backend provides the implementations these calls link against.
package runtimeabi

// Func names a runtime entry point along with the argument/result shape
// callers must honor. Signature is documented, not typed, since the actual
// calling convention belongs to whichever backend links against it.
type Func struct {
	Name      string
	Signature string
	Doc       string
}

var (
	Malloc = Func{
		Name:      "bract_malloc",
		Signature: "(size: u64) -> *u8",
		Doc:       "Allocates size bytes on the heap for Linear and SmartPtr values; never returns null, traps on exhaustion.",
	}
	Free = Func{
		Name:      "bract_free",
		Signature: "(ptr: *u8) -> ()",
		Doc:       "Releases a Linear or Manual allocation. Called once per OpFree; double-free is a compile-time error, not a runtime check.",
	}
	ArcInc = Func{
		Name:      "bract_arc_inc",
		Signature: "(ptr: *u8) -> ()",
		Doc:       "Atomically increments a SmartPtr's reference count. Emitted for OpArcIncref.",
	}
	ArcDec = Func{
		Name:      "bract_arc_dec",
		Signature: "(ptr: *u8) -> ()",
		Doc:       "Atomically decrements a SmartPtr's reference count, freeing the backing allocation when it reaches zero. Emitted for OpArcDecref.",
	}
	RegionAlloc = Func{
		Name:      "bract_region_alloc",
		Signature: "(region: u32, size: u64) -> *u8",
		Doc:       "Bump-allocates size bytes inside the named region's arena. Emitted for OpAllocate on Region-strategy values.",
	}
	RegionEnter = Func{
		Name:      "bract_region_enter",
		Signature: "(hint_size: u64) -> u32",
		Doc:       "Opens a new region arena and returns its runtime handle. Emitted for OpRegionEnter.",
	}
	RegionExit = Func{
		Name:      "bract_region_exit",
		Signature: "(region: u32) -> ()",
		Doc:       "Releases every allocation made in the region in one bulk deallocation. Emitted for OpRegionExit.",
	}
	TrapBounds = Func{
		Name:      "bract_trap_bounds",
		Signature: "(index: u64, len: u64) -> !",
		Doc:       "Aborts with a bounds-violation diagnostic. Emitted on the failing edge of an OpBoundsCheck.",
	}
	TrapContract = Func{
		Name:      "bract_trap_contract",
		Signature: "(code: u32) -> !",
		Doc:       "Aborts with a performance-contract violation code when a check deferred to runtime (e.g. unbounded recursion depth) actually fires.",
	}
	Profile = Func{
		Name:      "bract_profile_hook",
		Signature: "(site: u32) -> ()",
		Doc:       "Records a profiling sample at a profiler-hook site. Emitted for OpProfilerHook; a no-op build links a stub.",
	}
)

// All lists every ABI entry point, used by the backend to verify a link
// target provides all of them before codegen proceeds.
func All() []Func {
	return []Func{Malloc, Free, ArcInc, ArcDec, RegionAlloc, RegionEnter, RegionExit, TrapBounds, TrapContract, Profile}
}
