package bir

import (
	"bytes"
	"strings"
	"testing"

	"bract/internal/strategy"
	"bract/internal/symbols"
	"bract/internal/types"
)

// buildAddOne constructs `fn add_one(x: int) -> int { return x + 1 }` by
// hand, the way internal/mir's tests exercise the IR shape directly
// without going through the full lowering pipeline.
func buildAddOne(typesIn *types.Interner) *Func {
	intTy := typesIn.Builtins().Int
	f := &Func{
		ID:     1,
		Name:   "add_one",
		Result: intTy,
	}
	paramVal := Value{ID: 1, Kind: ValueParam, Type: intTy, Strategy: strategy.Stack}
	f.Values = append(f.Values, paramVal)
	f.Params = []ValueID{1}

	oneConst := Value{ID: 2, Kind: ValueInstr, Type: intTy}
	sum := Value{ID: 3, Kind: ValueInstr, Type: intTy}
	f.Values = append(f.Values, oneConst, sum)

	entry := Block{
		ID: 1,
		Instrs: []Instr{
			{Result: 2, Op: OpConst, Type: intTy, Const: Const{Kind: ConstInt, IntValue: 1}},
			{Result: 3, Op: OpBinary, Type: intTy, Binary: BinaryOp{Left: 1, Right: 2}},
		},
		Term: Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: true, Value: 3}},
	}
	f.Blocks = []Block{entry}
	f.Entry = 1
	return f
}

func TestValidatePassesOnWellFormedFunc(t *testing.T) {
	typesIn := types.NewInterner()
	f := buildAddOne(typesIn)
	m := &Module{Funcs: map[FuncID]*Func{1: f}, FuncBySym: map[symbols.SymbolID]FuncID{}}
	if err := Validate(m); err != nil {
		t.Fatalf("expected valid module, got %v", err)
	}
}

func TestValidateCatchesUndefinedValue(t *testing.T) {
	typesIn := types.NewInterner()
	f := buildAddOne(typesIn)
	f.Blocks[0].Term.Return.Value = 99 // dangling reference
	m := &Module{Funcs: map[FuncID]*Func{1: f}}
	if err := Validate(m); err == nil {
		t.Fatal("expected validation error for undefined value")
	}
}

func TestValidateCatchesMissingTerminator(t *testing.T) {
	typesIn := types.NewInterner()
	f := buildAddOne(typesIn)
	f.Blocks[0].Term = Terminator{}
	m := &Module{Funcs: map[FuncID]*Func{1: f}}
	if err := Validate(m); err == nil {
		t.Fatal("expected validation error for missing terminator")
	}
}

func TestEliminateDeadInstrsDropsUnusedConst(t *testing.T) {
	typesIn := types.NewInterner()
	f := buildAddOne(typesIn)
	// Add a dead constant nothing downstream reads.
	f.Values = append(f.Values, Value{ID: 4, Kind: ValueInstr, Type: typesIn.Builtins().Int})
	f.Blocks[0].Instrs = append(f.Blocks[0].Instrs, Instr{Result: 4, Op: OpConst, Const: Const{Kind: ConstInt, IntValue: 42}})

	f.EliminateDeadInstrs()

	for _, ins := range f.Blocks[0].Instrs {
		if ins.Result == 4 {
			t.Fatal("expected dead instruction to be eliminated")
		}
	}
}

func TestDumpModuleIsDeterministic(t *testing.T) {
	typesIn := types.NewInterner()
	f := buildAddOne(typesIn)
	m := &Module{Funcs: map[FuncID]*Func{1: f}}

	var a, b bytes.Buffer
	if err := DumpModule(&a, m, typesIn); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if err := DumpModule(&b, m, typesIn); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if a.String() != b.String() {
		t.Fatal("expected DumpModule to be deterministic across calls")
	}
	if !strings.Contains(a.String(), "fn add_one") {
		t.Fatalf("expected dump to mention function name, got %q", a.String())
	}
}

func TestStrategyCostAccounting(t *testing.T) {
	typesIn := types.NewInterner()
	f := buildAddOne(typesIn)
	allocVal := Value{ID: 4, Kind: ValueInstr, Type: typesIn.Builtins().Int, Strategy: strategy.Linear}
	f.Values = append(f.Values, allocVal)
	f.Blocks[0].Instrs = append([]Instr{{
		Result: 4, Op: OpAllocate, Type: typesIn.Builtins().Int,
		Memory: MemoryData{Strategy: strategy.Linear, Target: 1},
	}}, f.Blocks[0].Instrs...)

	var seen int
	f.WalkCost(nil, func(v Value, size uint64) {
		seen++
		if v.Strategy != strategy.Linear {
			t.Errorf("expected Linear strategy, got %v", v.Strategy)
		}
	})
	if seen != 1 {
		t.Fatalf("expected exactly one cost event, got %d", seen)
	}
}
