package mir

import (
	"bract/internal/bir"
	"bract/internal/runtimeabi"
)

// InstrKind distinguishes a passthrough BIR instruction from one of the
// lowering forms a memory op expands into.
type InstrKind uint8

const (
	// InstrKeep carries over a non-memory BIR instruction unchanged: mir
	// only rewrites the explicit memory ops, everything else (arithmetic,
	// field/index access, calls to user functions, casts...) is already in
	// its final shape once BIR chose a strategy.
	InstrKeep InstrKind = iota
	// InstrLocalAddr materializes the address of a stack slot declared in
	// Func.StackSlots; the result of lowering Allocate{Stack}.
	InstrLocalAddr
	// InstrRuntimeCall calls one of internal/runtimeabi's fixed entry
	// points: the result of lowering Allocate{Linear|Manual|Region|SmartPtr},
	// Free, ArcIncref, ArcDecref, RegionEnter, RegionExit, and ProfilerHook.
	InstrRuntimeCall
	// InstrStoreImm writes a constant word to the memory addressed by Ptr;
	// used to initialize a SmartPtr allocation's refcount header to 1.
	InstrStoreImm
	// InstrICmpLt computes Left < Right as a bool, synthesized to drive the
	// conditional branch a BoundsCheck expands into.
	InstrICmpLt
)

// OperandKind distinguishes a runtime call argument backed by an existing
// BIR value from one backed by a constant known at lowering time (a size
// hint, a region index, a profiler location id).
type OperandKind uint8

const (
	OperandValue OperandKind = iota
	OperandImm
)

// Operand is one argument to a runtime-ABI call.
type Operand struct {
	Kind  OperandKind
	Value bir.ValueID
	Imm   uint64
}

// ValueOperand wraps an existing BIR value as a runtime-call argument.
func ValueOperand(v bir.ValueID) Operand { return Operand{Kind: OperandValue, Value: v} }

// ImmOperand wraps a lowering-time constant as a runtime-call argument.
func ImmOperand(v uint64) Operand { return Operand{Kind: OperandImm, Imm: v} }

// RuntimeCall carries a lowered call to a fixed runtime ABI entry point.
type RuntimeCall struct {
	HasDst bool
	Dst    bir.ValueID
	Target runtimeabi.Func
	Args   []Operand
}

// StoreImm writes Imm into the word addressed by Ptr.
type StoreImm struct {
	Ptr bir.ValueID
	Imm uint64
}

// ICmpLt computes Dst = Left < Right.
type ICmpLt struct {
	Dst   bir.ValueID
	Left  bir.ValueID
	Right bir.ValueID
}

// Instr is one target-IR instruction.
type Instr struct {
	Kind InstrKind

	// Keep holds the original BIR instruction for InstrKeep.
	Keep *bir.Instr
	// LocalAddr names the stack slot (by its defining value) for InstrLocalAddr.
	LocalAddr bir.ValueID

	RuntimeCall RuntimeCall
	StoreImm    StoreImm
	ICmpLt      ICmpLt
}
