package mir

import (
	"fmt"

	"bract/internal/bir"
	"bract/internal/runtimeabi"
	"bract/internal/strategy"
	"bract/internal/types"
)

// Lower translates every function in a bir.Module into the target-level
// IR, expanding each strategy-specific memory op into stack-slot
// reservations, runtime-ABI calls, or (for BoundsCheck) a conditional
// branch to a trap block, per spec.md §4.7.
func Lower(mod *bir.Module, typesIn *types.Interner) (*Module, error) {
	if mod == nil {
		return nil, fmt.Errorf("mir: nil bir module")
	}
	out := NewModule()
	for id, fn := range mod.Funcs {
		lf, err := LowerFunc(fn, typesIn)
		if err != nil {
			return nil, fmt.Errorf("mir: lowering %s: %w", fn.Name, err)
		}
		out.Funcs[id] = lf
	}
	return out, nil
}

// funcLowerer carries the per-function state used while expanding memory
// ops: the growing Value/Block arenas (starting as a copy of the source
// bir.Func's, extended with anything this pass synthesizes) and the
// running ID counters for fresh values/blocks.
type funcLowerer struct {
	types  *types.Interner
	out    *Func
	nextID uint32 // next fresh bir.BlockID
	nextVl uint32 // next fresh bir.ValueID
}

// LowerFunc lowers a single BIR function.
func LowerFunc(fn *bir.Func, typesIn *types.Interner) (*Func, error) {
	if fn == nil {
		return nil, fmt.Errorf("mir: nil bir func")
	}
	fl := &funcLowerer{
		types: typesIn,
		out: &Func{
			ID:     fn.ID,
			Name:   fn.Name,
			Params: append([]bir.ValueID(nil), fn.Params...),
			Result: fn.Result,
			Values: append([]bir.Value(nil), fn.Values...),
			Entry:  fn.Entry,
		},
		nextID: uint32(len(fn.Blocks)) + 1,
		nextVl: uint32(len(fn.Values)) + 1,
	}
	for i := range fn.Blocks {
		if err := fl.lowerBlock(&fn.Blocks[i]); err != nil {
			return nil, err
		}
	}
	return fl.out, nil
}

func (fl *funcLowerer) freshBlockID() bir.BlockID {
	id := bir.BlockID(fl.nextID)
	fl.nextID++
	return id
}

func (fl *funcLowerer) freshValue(typ types.TypeID) bir.ValueID {
	id := bir.ValueID(fl.nextVl)
	fl.nextVl++
	fl.out.Values = append(fl.out.Values, bir.Value{ID: id, Kind: bir.ValueInstr, Type: typ})
	return id
}

func (fl *funcLowerer) addBlock(b *Block) {
	fl.out.Blocks = append(fl.out.Blocks, b)
}

func (fl *funcLowerer) lowerBlock(src *bir.Block) error {
	cur := &Block{ID: src.ID, Params: append([]bir.ValueID(nil), src.Params...)}

	for i := range src.Instrs {
		in := src.Instrs[i]
		if !in.Op.IsMemoryOp() {
			kept := in
			cur.Instrs = append(cur.Instrs, Instr{Kind: InstrKeep, Keep: &kept})
			continue
		}
		if in.Op == bir.OpBoundsCheck {
			contID := fl.freshBlockID()
			trapID := fl.freshBlockID()

			boolTy := types.NoTypeID
			if fl.types != nil {
				boolTy = fl.types.Builtins().Bool
			}
			cond := fl.freshValue(boolTy)
			cur.Instrs = append(cur.Instrs, Instr{
				Kind:   InstrICmpLt,
				ICmpLt: ICmpLt{Dst: cond, Left: in.Memory.Index, Right: in.Memory.Len},
			})
			cur.Term = Terminator{
				Kind: TermCondBranch,
				CondBranch: CondBranchTerm{
					Cond: cond,
					Then: contID,
					Else: trapID,
				},
			}
			fl.addBlock(cur)

			trap := &Block{ID: trapID}
			trap.Instrs = append(trap.Instrs, Instr{
				Kind: InstrRuntimeCall,
				RuntimeCall: RuntimeCall{
					Target: runtimeabi.TrapBounds,
					Args:   []Operand{ValueOperand(in.Memory.Index), ValueOperand(in.Memory.Len)},
				},
			})
			trap.Term = Terminator{Kind: TermUnreachable}
			fl.addBlock(trap)

			cur = &Block{ID: contID}
			continue
		}

		lowered, err := fl.lowerMemoryInstr(in)
		if err != nil {
			return err
		}
		cur.Instrs = append(cur.Instrs, lowered...)
	}

	cur.Term = lowerTerminator(src.Term)
	fl.addBlock(cur)
	return nil
}

func lowerTerminator(t bir.Terminator) Terminator {
	switch t.Kind {
	case bir.TermReturn:
		return Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: t.Return.HasValue, Value: t.Return.Value}}
	case bir.TermBranch:
		return Terminator{Kind: TermBranch, Branch: BranchTerm{Target: t.Branch.Target, Args: t.Branch.Args}}
	case bir.TermCondBranch:
		return Terminator{Kind: TermCondBranch, CondBranch: CondBranchTerm{
			Cond: t.CondBranch.Cond, Then: t.CondBranch.Then, ThenArgs: t.CondBranch.ThenArgs,
			Else: t.CondBranch.Else, ElseArgs: t.CondBranch.ElseArgs,
		}}
	case bir.TermUnreachable:
		return Terminator{Kind: TermUnreachable}
	default:
		return Terminator{Kind: TermNone}
	}
}

// lowerMemoryInstr expands one explicit BIR memory op into its concrete
// target-IR shape, per the table in spec.md §4.7. Most ops lower to a
// single instruction; Allocate{SmartPtr} lowers to two (the allocation
// plus the refcount-init store), so every case returns a slice.
func (fl *funcLowerer) lowerMemoryInstr(in bir.Instr) ([]Instr, error) {
	switch in.Op {
	case bir.OpAllocate:
		return fl.lowerAllocate(in)
	case bir.OpFree:
		return []Instr{{Kind: InstrRuntimeCall, RuntimeCall: RuntimeCall{
			Target: runtimeabi.Free,
			Args:   []Operand{ValueOperand(in.Memory.Target)},
		}}}, nil
	case bir.OpArcIncref:
		return []Instr{{Kind: InstrRuntimeCall, RuntimeCall: RuntimeCall{
			Target: runtimeabi.ArcInc,
			Args:   []Operand{ValueOperand(in.Memory.Target)},
		}}}, nil
	case bir.OpArcDecref:
		return []Instr{{Kind: InstrRuntimeCall, RuntimeCall: RuntimeCall{
			Target: runtimeabi.ArcDec,
			Args:   []Operand{ValueOperand(in.Memory.Target)},
		}}}, nil
	case bir.OpRegionEnter:
		return []Instr{{Kind: InstrRuntimeCall, RuntimeCall: RuntimeCall{
			HasDst: true,
			Dst:    in.Result,
			Target: runtimeabi.RegionEnter,
			Args:   []Operand{ImmOperand(in.Memory.SizeHint)},
		}}}, nil
	case bir.OpRegionExit:
		return []Instr{{Kind: InstrRuntimeCall, RuntimeCall: RuntimeCall{
			Target: runtimeabi.RegionExit,
			Args:   []Operand{ImmOperand(uint64(in.Memory.Region))},
		}}}, nil
	case bir.OpProfilerHook:
		return []Instr{{Kind: InstrRuntimeCall, RuntimeCall: RuntimeCall{
			Target: runtimeabi.Profile,
			Args:   []Operand{ImmOperand(profilerSiteID(in.Memory.Label))},
		}}}, nil
	case bir.OpMove:
		// A move carries no runtime effect of its own; the value identity
		// transfer already happened in BIR. Keep it as a no-op passthrough
		// so downstream consumers that walk mir.Instr.Keep still see it.
		kept := in
		return []Instr{{Kind: InstrKeep, Keep: &kept}}, nil
	default:
		kept := in
		return []Instr{{Kind: InstrKeep, Keep: &kept}}, nil
	}
}

// lowerAllocate expands Allocate{strategy} per spec.md §4.7:
//   - Stack becomes a frame slot of the given size/alignment.
//   - Linear and Manual become bract_malloc(size) calls.
//   - Region becomes a bump allocation against the region's page pointer.
//   - SmartPtr allocates sizeof(header)+size and initializes refcount to 1;
//     the header is a single atomic 32-bit counter at offset 0 (spec.md §6),
//     so lowering stores 1 at the pointer the allocation returns.
func (fl *funcLowerer) lowerAllocate(in bir.Instr) ([]Instr, error) {
	mem := in.Memory
	switch mem.Strategy {
	case strategy.Stack:
		align := stackAlign(mem.SizeHint)
		fl.out.StackSlots = append(fl.out.StackSlots, StackSlot{Value: in.Result, Size: mem.SizeHint, Align: align})
		return []Instr{{Kind: InstrLocalAddr, LocalAddr: in.Result}}, nil

	case strategy.Linear, strategy.Manual:
		return []Instr{{Kind: InstrRuntimeCall, RuntimeCall: RuntimeCall{
			HasDst: true,
			Dst:    in.Result,
			Target: runtimeabi.Malloc,
			Args:   []Operand{ImmOperand(mem.SizeHint)},
		}}}, nil

	case strategy.Region:
		return []Instr{{Kind: InstrRuntimeCall, RuntimeCall: RuntimeCall{
			HasDst: true,
			Dst:    in.Result,
			Target: runtimeabi.RegionAlloc,
			Args:   []Operand{ImmOperand(uint64(mem.Region)), ImmOperand(mem.SizeHint)},
		}}}, nil

	case strategy.SmartPtr:
		return []Instr{
			{Kind: InstrRuntimeCall, RuntimeCall: RuntimeCall{
				HasDst: true,
				Dst:    in.Result,
				Target: runtimeabi.Malloc,
				Args:   []Operand{ImmOperand(refcountHeaderSize + mem.SizeHint)},
			}},
			{Kind: InstrStoreImm, StoreImm: StoreImm{Ptr: in.Result, Imm: 1}},
		}, nil

	default:
		return nil, fmt.Errorf("mir: allocate with unresolved strategy %v", mem.Strategy)
	}
}

// refcountHeaderSize is sizeof(refcount_header): a single atomic 32-bit
// counter at offset 0 (spec.md §6); the header is never larger since no
// other field is specified.
const refcountHeaderSize = 4

// stackAlign picks a natural alignment for a stack slot of the given size,
// capped at 16 bytes (the widest scalar Bract's ABI needs to align).
func stackAlign(size uint64) uint32 {
	switch {
	case size == 0:
		return 1
	case size%16 == 0:
		return 16
	case size%8 == 0:
		return 8
	case size%4 == 0:
		return 4
	case size%2 == 0:
		return 2
	default:
		return 1
	}
}

// profilerSiteID derives a stable location id from a profiler hook's
// checkpoint label. FNV-1a keeps it dependency-free and deterministic
// across runs, which is all runtime_profile needs: a number a debug build
// can correlate back to the label in its own side table.
func profilerSiteID(label string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(label); i++ {
		h ^= uint64(label[i])
		h *= prime64
	}
	return h & 0xffffffff
}
