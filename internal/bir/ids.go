// Package bir provides Bract IR: the typed, SSA, block-argument-style
// intermediate representation that sits between typed HIR and the
// target-level internal/mir. Every BIR instruction carries a type and,
// where relevant, a memory strategy; memory management is explicit at this
// layer (Allocate, Move, ArcIncref, ArcDecref, RegionEnter, RegionExit,
// BoundsCheck, ProfilerHook) rather than implied by ownership annotations,
// so internal/contract can walk a function once and account for its actual
// cost, and internal/mir can lower each op to a runtime ABI call without
// re-deriving strategy decisions.
package bir

// FuncID identifies a function within a bir.Module.
type FuncID uint32

// BlockID identifies a basic block within a Func.
type BlockID uint32

// ValueID identifies an SSA value: the result of an instruction, a block
// parameter, or a function parameter. Every Value is defined exactly once.
type ValueID uint32

// Invalid ID constants (zero is sentinel), matching the rest of the
// compiler's arena-style ID types.
const (
	NoFuncID  FuncID  = 0
	NoBlockID BlockID = 0
	NoValueID ValueID = 0
)

// IsValid returns true if the ID is valid (non-zero).
func (id FuncID) IsValid() bool  { return id != NoFuncID }
func (id BlockID) IsValid() bool { return id != NoBlockID }
func (id ValueID) IsValid() bool { return id != NoValueID }
