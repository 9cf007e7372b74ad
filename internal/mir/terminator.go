package mir

import "bract/internal/bir"

// TermKind enumerates the target-IR's terminators: the same shape BIR
// uses, since lowering never changes a function's overall control-flow
// graph, only splits individual blocks at a BoundsCheck.
type TermKind uint8

const (
	TermNone TermKind = iota
	TermReturn
	TermBranch
	TermCondBranch
	TermUnreachable
)

// Terminator ends a Block.
type Terminator struct {
	Kind TermKind

	Return     ReturnTerm
	Branch     BranchTerm
	CondBranch CondBranchTerm
}

// ReturnTerm returns from the function, optionally with a value.
type ReturnTerm struct {
	HasValue bool
	Value    bir.ValueID
}

// BranchTerm jumps unconditionally to Target, supplying Args for its block
// parameters.
type BranchTerm struct {
	Target bir.BlockID
	Args   []bir.ValueID
}

// CondBranchTerm branches to Then or Else depending on Cond. Used both for
// ordinary if/else control flow carried over from BIR and for the trap
// edge synthesized from a BoundsCheck (Else targets a block that calls
// runtimeabi.TrapBounds and never returns).
type CondBranchTerm struct {
	Cond     bir.ValueID
	Then     bir.BlockID
	ThenArgs []bir.ValueID
	Else     bir.BlockID
	ElseArgs []bir.ValueID
}
