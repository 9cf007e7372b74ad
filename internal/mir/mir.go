// Package mir is the target-level IR that lowering produces from BIR: the
// final internal stage before a native backend takes over (spec.md §4.7,
// "BIR -> Target-IR lowering"). Where BIR keeps memory management abstract
// (an Allocate{strategy} instruction, a bare BoundsCheck op), mir expands
// each strategy-specific instruction into the concrete shape a codegen
// backend emits: a stack slot reservation, a runtime ABI call, or a
// conditional branch to a trap block. mir never re-derives a strategy
// decision; it only translates the one BIR already chose.
//
// mir reuses bir's ValueID/BlockID/FuncID numbering for every value and
// block that already existed in the source bir.Func, and only mints new
// IDs for the handful of synthetic values/blocks a lowering rule
// introduces (a bounds-check comparison, a trap block).
package mir

import (
	"bract/internal/bir"
	"bract/internal/types"
)

// Module collects every function lowered to mir for one compilation unit.
type Module struct {
	Funcs map[bir.FuncID]*Func
}

// NewModule returns an empty Module.
func NewModule() *Module {
	return &Module{Funcs: make(map[bir.FuncID]*Func)}
}

// StackSlot describes one Allocate{Stack} reservation: a named, sized,
// aligned slot in the function's frame.
type StackSlot struct {
	Value bir.ValueID
	Size  uint64
	Align uint32
}

// Func is one function lowered to the target-level IR.
type Func struct {
	ID     bir.FuncID
	Name   string
	Params []bir.ValueID
	Result types.TypeID

	// Values carries every value the source bir.Func defined plus any
	// synthesized here (bounds-check comparisons, refcount-init results);
	// indexed the same way bir.Func.Values is (id-1).
	Values []bir.Value

	StackSlots []StackSlot
	Blocks     []*Block
	Entry      bir.BlockID
}

// Block is a basic block in the target IR: instructions are either a
// verbatim carry-over of a non-memory BIR instruction or one of the
// lowered memory-op kinds below.
type Block struct {
	ID     bir.BlockID
	Params []bir.ValueID
	Instrs []Instr
	Term   Terminator
}
