package bir

import (
	"bract/internal/ast"
	"bract/internal/region"
	"bract/internal/strategy"
	"bract/internal/symbols"
	"bract/internal/types"
)

// Op enumerates BIR instruction opcodes. The first block are ordinary
// value-producing operations carried over from typed HIR with minimal
// change; the second block are the explicit memory operations that make
// BIR suitable for cost accounting and ABI lowering without re-deriving
// strategy decisions downstream.
type Op uint8

const (
	OpConst Op = iota
	OpBinary
	OpUnary
	OpCall
	OpFieldGet
	OpFieldSet
	OpIndexGet
	OpIndexSet
	OpStructMake
	OpArrayMake
	OpTupleMake
	OpTagTest
	OpTagPayload
	OpCast
	OpIterInit
	OpIterNext

	// OpAllocate requests storage for a value under its chosen strategy.
	// For Stack it reserves a frame slot; for Linear/Manual it lowers to a
	// bract_malloc call; for Region it lowers to bract_region_alloc against
	// Region; for SmartPtr it lowers to bract_malloc plus a refcount cell.
	OpAllocate
	// OpFree releases a Linear or Manual allocation. Emitted by lowering at
	// the value's last use for Linear (compiler-inserted, always paired);
	// emitted only where the source program calls it explicitly for Manual.
	OpFree
	// OpMove transfers ownership of src into the result, without copying
	// the pointee. The source value is not valid after an OpMove.
	OpMove
	// OpArcIncref increments a SmartPtr's reference count, emitted when an
	// alias is taken.
	OpArcIncref
	// OpArcDecref decrements a SmartPtr's reference count, emitted at the
	// end of an alias's lifetime; the runtime frees the pointee when the
	// count reaches zero.
	OpArcDecref
	// OpRegionEnter opens a region's backing arena.
	OpRegionEnter
	// OpRegionExit releases every allocation made in a region at once.
	OpRegionExit
	// OpBoundsCheck guards an index operation, trapping via the runtime
	// ABI's bract_trap_bounds when the index is out of range.
	OpBoundsCheck
	// OpProfilerHook emits a cost-accounting callout, inserted only for
	// functions instrumented under a performance contract.
	OpProfilerHook
)

func (o Op) String() string {
	switch o {
	case OpConst:
		return "const"
	case OpBinary:
		return "binary"
	case OpUnary:
		return "unary"
	case OpCall:
		return "call"
	case OpFieldGet:
		return "field_get"
	case OpFieldSet:
		return "field_set"
	case OpIndexGet:
		return "index_get"
	case OpIndexSet:
		return "index_set"
	case OpStructMake:
		return "struct_make"
	case OpArrayMake:
		return "array_make"
	case OpTupleMake:
		return "tuple_make"
	case OpTagTest:
		return "tag_test"
	case OpTagPayload:
		return "tag_payload"
	case OpCast:
		return "cast"
	case OpIterInit:
		return "iter_init"
	case OpIterNext:
		return "iter_next"
	case OpAllocate:
		return "allocate"
	case OpFree:
		return "free"
	case OpMove:
		return "move"
	case OpArcIncref:
		return "arc_incref"
	case OpArcDecref:
		return "arc_decref"
	case OpRegionEnter:
		return "region_enter"
	case OpRegionExit:
		return "region_exit"
	case OpBoundsCheck:
		return "bounds_check"
	case OpProfilerHook:
		return "profiler_hook"
	default:
		return "unknown"
	}
}

// IsMemoryOp reports whether o is one of the explicit memory operations
// (as opposed to an ordinary value computation), the set internal/contract
// walks to build its cost Vector and internal/mir lowers against the
// runtime ABI rather than plain arithmetic/control codegen.
func (o Op) IsMemoryOp() bool {
	return o >= OpAllocate
}

// ConstKind distinguishes literal constant kinds, mirrored from mir's
// Const so the target-IR lowering pass can translate one-for-one.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstUint
	ConstFloat
	ConstBool
	ConstString
	ConstNothing
	ConstFn
)

// Const carries a literal value.
type Const struct {
	Kind        ConstKind
	Text        string // raw literal text, source of truth for numeric constants
	IntValue    int64
	UintValue   uint64
	FloatValue  float64
	BoolValue   bool
	StringValue string
	Sym         symbols.SymbolID
}

// CalleeKind distinguishes call target shapes.
type CalleeKind uint8

const (
	CalleeSym CalleeKind = iota
	CalleeValue
	// CalleeRuntime targets a fixed C-callable runtime ABI entry point by
	// name (internal/runtimeabi), used only for instructions synthesized
	// by lowering (OpAllocate, OpFree, OpArcIncref, ...) rather than by
	// direct translation of a call in source.
	CalleeRuntime
)

// Callee names a call target.
type Callee struct {
	Kind    CalleeKind
	Sym     symbols.SymbolID
	Runtime string // runtimeabi function name, set when Kind == CalleeRuntime
	Value   ValueID
}

// Instr is a single BIR instruction: it consumes zero or more ValueIDs as
// arguments and, unless it is a pure side-effecting memory op (RegionEnter,
// RegionExit, ArcIncref/Decref, Free), produces one new ValueID equal to
// its own position as recorded in Func.Values.
type Instr struct {
	Result ValueID
	Op     Op
	Type   types.TypeID
	Args   []ValueID

	Const   Const
	Binary  BinaryOp
	Unary   UnaryOp
	Call    CallData
	Field   FieldData
	Index   IndexData
	Struct  StructData
	Tag     TagData
	Cast    CastData
	Iter    IterData
	Memory  MemoryData
}

// BinaryOp carries a binary operator instruction's operator and operands.
type BinaryOp struct {
	Op    ast.ExprBinaryOp
	Left  ValueID
	Right ValueID
}

// UnaryOp carries a unary operator instruction's operator and operand.
type UnaryOp struct {
	Op      ast.ExprUnaryOp
	Operand ValueID
}

// CallData carries a call instruction's target and arguments.
type CallData struct {
	Callee Callee
	Args   []ValueID
}

// FieldData carries a field get/set instruction's operands.
type FieldData struct {
	Object    ValueID
	FieldName string
	FieldIdx  int
	Value     ValueID // set only for field_set
}

// IndexData carries an index get/set instruction's operands.
type IndexData struct {
	Object ValueID
	Index  ValueID
	Value  ValueID // set only for index_set
}

// StructLitField names one field initializer in a struct_make instruction.
type StructLitField struct {
	Name  string
	Value ValueID
}

// StructData carries struct/array/tuple literal construction operands.
type StructData struct {
	Fields []StructLitField // struct_make
	Elems  []ValueID        // array_make, tuple_make
}

// TagData carries a union tag test/payload-extraction instruction's operands.
type TagData struct {
	Value   ValueID
	TagName string
	Index   int // tag_payload only
}

// CastData carries a cast instruction's operand and target type.
type CastData struct {
	Value    ValueID
	TargetTy types.TypeID
}

// IterData carries an iterator init/next instruction's operand.
type IterData struct {
	Value ValueID
}

// MemoryData carries the operands specific to the explicit memory ops.
type MemoryData struct {
	Strategy strategy.Strategy
	Region   region.ID
	SizeHint uint64
	HasHint  bool
	// Target is the value being moved, freed, refcounted, or bounds-checked.
	Target ValueID
	// Index and Len are set for OpBoundsCheck.
	Index ValueID
	Len   ValueID
	// Label identifies a profiler hook's checkpoint name.
	Label string
}
