package bir

import "bract/internal/layout"

// WalkCost visits every memory instruction in f and folds its strategy
// cost into the supplied accumulator callback, giving internal/contract a
// function-shaped view of BIR without bir depending on contract (contract
// imports bir's types where it needs them; bir never imports contract for
// more than the Spec value already attached to Func).
func (f *Func) WalkCost(layoutEngine *layout.LayoutEngine, add func(strat Value, sizeBytes uint64)) {
	if f == nil {
		return
	}
	for bi := range f.Blocks {
		for _, ins := range f.Blocks[bi].Instrs {
			if !ins.Op.IsMemoryOp() {
				continue
			}
			switch ins.Op {
			case OpAllocate:
				v := f.ValueOf(ins.Result)
				var size uint64
				if layoutEngine != nil {
					size = uint64(layoutEngine.SizeOf(ins.Type))
				}
				add(v, size)
			case OpArcIncref:
				add(f.ValueOf(ins.Memory.Target), 0)
			}
		}
	}
}

// RecursionBounded reports whether the function contains no direct
// self-call, a crude but sound static bound: any self-recursive function
// is treated as unbounded unless a contract's max_stack pins a limit,
// matching the spec's intent that unbounded recursion without an explicit
// max_stack is itself the contract violation.
func (f *Func) RecursionBounded() bool {
	if f == nil {
		return true
	}
	for bi := range f.Blocks {
		for _, ins := range f.Blocks[bi].Instrs {
			if ins.Op != OpCall {
				continue
			}
			if ins.Call.Callee.Kind == CalleeSym && ins.Call.Callee.Sym == f.Sym {
				return false
			}
		}
	}
	return true
}
