package mir

import (
	"strings"
	"testing"

	"bract/internal/bir"
	"bract/internal/strategy"
	"bract/internal/types"
)

// buildAllocator constructs a tiny function that allocates one Stack value
// and one Linear value, then indexes into a slice with a runtime-checked
// bound, the way internal/bir's own tests build functions by hand rather
// than through the full sema pipeline.
func buildAllocator(typesIn *types.Interner) *bir.Func {
	intTy := typesIn.Builtins().Int
	ptrTy := typesIn.Builtins().Int

	f := &bir.Func{
		ID:     1,
		Name:   "allocator",
		Result: intTy,
		Params: []bir.ValueID{1, 2},
		Entry:  1,
	}
	f.Values = []bir.Value{
		{ID: 1, Kind: bir.ValueParam, Type: ptrTy},                       // array param
		{ID: 2, Kind: bir.ValueParam, Type: intTy},                       // index param
		{ID: 3, Kind: bir.ValueInstr, Type: intTy},                       // len(array)
		{ID: 4, Kind: bir.ValueInstr, Type: ptrTy, Strategy: strategy.Stack},
		{ID: 5, Kind: bir.ValueInstr, Type: ptrTy, Strategy: strategy.Linear},
		{ID: 6, Kind: bir.ValueInstr, Type: intTy},
	}
	f.Blocks = []bir.Block{
		{
			ID: 1,
			Instrs: []bir.Instr{
				{Result: 3, Op: bir.OpConst, Type: intTy, Const: bir.Const{Kind: bir.ConstInt, IntValue: 8}},
				{Result: 4, Op: bir.OpAllocate, Type: ptrTy, Memory: bir.MemoryData{Strategy: strategy.Stack, SizeHint: 8}},
				{Result: 5, Op: bir.OpAllocate, Type: ptrTy, Memory: bir.MemoryData{Strategy: strategy.Linear, SizeHint: 4}},
				{Op: bir.OpBoundsCheck, Memory: bir.MemoryData{Target: 1, Index: 2, Len: 3}},
				{Result: 6, Op: bir.OpIndexGet, Type: intTy, Index: bir.IndexData{Object: 1, Index: 2}},
				{Op: bir.OpFree, Memory: bir.MemoryData{Target: 5}},
			},
			Term: bir.Terminator{Kind: bir.TermReturn, Return: bir.ReturnTerm{HasValue: true, Value: 6}},
		},
	}
	return f
}

func TestLowerExpandsStackAllocate(t *testing.T) {
	typesIn := types.NewInterner()
	f := buildAllocator(typesIn)
	lf, err := LowerFunc(f, typesIn)
	if err != nil {
		t.Fatalf("LowerFunc: %v", err)
	}
	var buf strings.Builder
	if err := DumpModule(&buf, &Module{Funcs: map[bir.FuncID]*Func{1: lf}}); err != nil {
		t.Fatalf("DumpModule: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "local_addr") {
		t.Errorf("expected a local_addr instruction for the Stack allocation, got:\n%s", out)
	}
	if !strings.Contains(out, "bract_malloc") {
		t.Errorf("expected a bract_malloc call for the Linear allocation, got:\n%s", out)
	}
}

func TestLowerExpandsBoundsCheckIntoTrapBlock(t *testing.T) {
	typesIn := types.NewInterner()
	f := buildAllocator(typesIn)
	lf, err := LowerFunc(f, typesIn)
	if err != nil {
		t.Fatalf("LowerFunc: %v", err)
	}
	if len(lf.Blocks) != 3 {
		t.Fatalf("expected 3 blocks (entry split + continuation + trap), got %d", len(lf.Blocks))
	}
	var sawTrap, sawCond bool
	for _, b := range lf.Blocks {
		if b.Term.Kind == TermCondBranch {
			sawCond = true
		}
		if b.Term.Kind == TermUnreachable {
			sawTrap = true
			found := false
			for _, ins := range b.Instrs {
				if ins.Kind == InstrRuntimeCall && ins.RuntimeCall.Target.Name == "bract_trap_bounds" {
					found = true
				}
			}
			if !found {
				t.Errorf("trap block missing bract_trap_bounds call")
			}
		}
	}
	if !sawCond {
		t.Errorf("expected a cond_branch terminator from the bounds check split")
	}
	if !sawTrap {
		t.Errorf("expected an unreachable trap block")
	}
}

func TestLowerInitializesSmartPtrRefcount(t *testing.T) {
	typesIn := types.NewInterner()
	intTy := typesIn.Builtins().Int
	f := &bir.Func{
		ID:     1,
		Name:   "make_shared",
		Result: intTy,
		Entry:  1,
		Values: []bir.Value{
			{ID: 1, Kind: bir.ValueInstr, Type: intTy, Strategy: strategy.SmartPtr},
		},
		Blocks: []bir.Block{{
			ID: 1,
			Instrs: []bir.Instr{
				{Result: 1, Op: bir.OpAllocate, Type: intTy, Memory: bir.MemoryData{Strategy: strategy.SmartPtr, SizeHint: 4}},
			},
			Term: bir.Terminator{Kind: bir.TermReturn, Return: bir.ReturnTerm{HasValue: true, Value: 1}},
		}},
	}
	lf, err := LowerFunc(f, typesIn)
	if err != nil {
		t.Fatalf("LowerFunc: %v", err)
	}
	instrs := lf.Blocks[0].Instrs
	if len(instrs) != 2 {
		t.Fatalf("expected malloc + store, got %d instrs", len(instrs))
	}
	if instrs[0].Kind != InstrRuntimeCall || instrs[0].RuntimeCall.Target.Name != "bract_malloc" {
		t.Errorf("expected first instr to be a bract_malloc call, got %+v", instrs[0])
	}
	if instrs[1].Kind != InstrStoreImm || instrs[1].StoreImm.Imm != 1 {
		t.Errorf("expected refcount store of 1, got %+v", instrs[1])
	}
}
