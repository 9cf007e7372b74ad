package bir

import (
	"fmt"

	"fortio.org/safecast"

	"bract/internal/contract"
	"bract/internal/hir"
	"bract/internal/region"
	"bract/internal/strategy"
	"bract/internal/symbols"
	"bract/internal/types"
)

// ContractLookup resolves the performance contract declared for a symbol,
// if any. Supplied by sema's contract table; kept as a function value
// rather than a concrete type to avoid bir depending on sema.
type ContractLookup func(symbols.SymbolID) *contract.Spec

// LowerFunc lowers one typed, borrow-checked HIR function into BIR,
// inserting explicit Allocate/Free/ArcIncref/ArcDecref operations at the
// points hir's borrow checker already identified (BorrowGraph's EvDrop
// events mark exactly where a value's lifetime ends) and resolving each
// binding's strategy via resolveStrategy.
func LowerFunc(id FuncID, fn *hir.Func, typesIn *types.Interner, regions *region.Table, contracts ContractLookup) (*Func, error) {
	if fn == nil {
		return nil, fmt.Errorf("bir: nil function")
	}
	if regions == nil {
		regions = region.NewTable()
	}
	var spec *contract.Spec
	if contracts != nil {
		spec = contracts(fn.SymbolID)
	}
	fl := &funcLowerer{
		types:      typesIn,
		regions:    regions,
		symToValue: make(map[symbols.SymbolID]ValueID),
		dropAt:     collectDropEvents(fn.Borrow),
	}
	return fl.lower(id, fn, spec)
}

type funcLowerer struct {
	f          *Func
	types      *types.Interner
	regions    *region.Table
	regionOpen region.Stack
	symToValue map[symbols.SymbolID]ValueID
	cur        BlockID
	// loop stack for break/continue targets
	loops []loopTargets
	// dropAt maps a hir.LocalID to true when the borrow graph recorded an
	// end-of-lifetime event for it; consulted at end of each block.
	dropAt map[hir.LocalID]bool
}

type loopTargets struct {
	breakTo    BlockID
	continueTo BlockID
}

func collectDropEvents(g *hir.BorrowGraph) map[hir.LocalID]bool {
	out := make(map[hir.LocalID]bool)
	if g == nil {
		return out
	}
	for _, ev := range g.Events {
		if ev.Kind == hir.EvDrop {
			out[ev.Local] = true
		}
	}
	return out
}

func (l *funcLowerer) lower(id FuncID, fn *hir.Func, spec *contract.Spec) (*Func, error) {
	l.f = &Func{
		ID:       id,
		Sym:      fn.SymbolID,
		Name:     fn.Name,
		Span:     fn.Span,
		Result:   fn.Result,
		Regions:  l.regions,
		Contract: spec,
	}

	for _, p := range fn.Params {
		strat, via := resolveStrategy(l.types, p.Type)
		vid := l.newValue(ValueParam, p.Type, strat, via)
		l.f.Params = append(l.f.Params, vid)
		if p.SymbolID.IsValid() {
			l.symToValue[p.SymbolID] = vid
		}
	}

	entry := l.newBlock()
	l.f.Entry = entry
	l.cur = entry

	if fn.Body != nil {
		if err := l.lowerBlock(fn.Body); err != nil {
			return nil, err
		}
	}

	if !l.curBlock().Terminated() {
		if fn.Result == types.NoTypeID {
			l.setTerm(Terminator{Kind: TermReturn})
		} else {
			l.setTerm(Terminator{Kind: TermUnreachable})
		}
	}
	for i := range l.f.Blocks {
		if l.f.Blocks[i].Term.Kind == TermNone {
			l.f.Blocks[i].Term.Kind = TermUnreachable
		}
	}
	return l.f, nil
}

// --- block/instruction plumbing, grounded on internal/mir's funcLowerer ---

func (l *funcLowerer) curBlock() *Block {
	if l == nil || l.f == nil {
		return nil
	}
	idx := int(l.cur)
	if idx <= 0 || idx > len(l.f.Blocks) {
		return nil
	}
	return &l.f.Blocks[idx-1]
}

func (l *funcLowerer) newBlock() BlockID {
	raw, err := safecast.Conv[uint32](len(l.f.Blocks) + 1)
	if err != nil {
		panic(fmt.Errorf("bir: block id overflow: %w", err))
	}
	id := BlockID(raw)
	l.f.Blocks = append(l.f.Blocks, Block{ID: id, Term: Terminator{Kind: TermNone}})
	return id
}

func (l *funcLowerer) setTerm(t Terminator) {
	b := l.curBlock()
	if b == nil || b.Terminated() {
		return
	}
	b.Term = t
}

func (l *funcLowerer) newValue(kind ValueKind, ty types.TypeID, strat strategy.Strategy, via string) ValueID {
	raw, err := safecast.Conv[uint32](len(l.f.Values) + 1)
	if err != nil {
		panic(fmt.Errorf("bir: value id overflow: %w", err))
	}
	id := ValueID(raw)
	l.f.Values = append(l.f.Values, Value{ID: id, Kind: kind, Type: ty, Strategy: strat, Region: l.regionOpen.Current()})
	if via != "" && l.types != nil {
		l.types.SetTypeStrategy(ty, types.StrategyAttrs{Strategy: strat, Via: via})
	}
	return id
}

func (l *funcLowerer) emit(ins Instr) ValueID {
	b := l.curBlock()
	if b == nil || b.Terminated() {
		return NoValueID
	}
	if ins.Result == NoValueID && !ins.Op.IsMemoryOp() {
		ins.Result = l.newValue(ValueInstr, ins.Type, strategy.Unset, "")
	}
	b.Instrs = append(b.Instrs, ins)
	return ins.Result
}

func (l *funcLowerer) emitMemory(op Op, ty types.TypeID, data MemoryData) ValueID {
	var result ValueID
	if op == OpAllocate || op == OpMove {
		strat, _ := resolveStrategy(l.types, ty)
		if data.Region == region.NoID {
			data.Region = l.regionOpen.Current()
		}
		result = l.newValue(ValueInstr, ty, strat, "")
	}
	b := l.curBlock()
	if b == nil || b.Terminated() {
		return result
	}
	b.Instrs = append(b.Instrs, Instr{Result: result, Op: op, Type: ty, Memory: data})
	return result
}
