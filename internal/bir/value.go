package bir

import (
	"bract/internal/region"
	"bract/internal/strategy"
	"bract/internal/types"
)

// ValueKind distinguishes how a ValueID was introduced.
type ValueKind uint8

const (
	// ValueParam is a function parameter.
	ValueParam ValueKind = iota
	// ValueBlockParam is a block-argument-style phi replacement: the value
	// a predecessor supplies when branching into a block.
	ValueBlockParam
	// ValueInstr is the result of an instruction in this block.
	ValueInstr
)

// Value describes one SSA value: its static type, the memory strategy
// chosen for it (Unset for values with no strategy dimension, such as
// plain integers), and the region it was allocated in, if any.
type Value struct {
	ID       ValueID
	Kind     ValueKind
	Type     types.TypeID
	Strategy strategy.Strategy
	Region   region.ID
	Name     string // optional, carried from the source binding for diagnostics/printing
}
