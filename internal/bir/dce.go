package bir

// EliminateDeadInstrs removes instructions whose result is never used and
// that have no side effect, the value-level counterpart to internal/mono's
// function-level reachability DCE: build a worklist of live values seeded
// from terminators and side-effecting instructions, walk backward marking
// each operand live, then drop anything left unmarked.
func (f *Func) EliminateDeadInstrs() {
	if f == nil {
		return
	}
	live := make(map[ValueID]bool)
	var mark func(ValueID)
	mark = func(v ValueID) {
		if !v.IsValid() || live[v] {
			return
		}
		live[v] = true
	}

	for bi := range f.Blocks {
		b := &f.Blocks[bi]
		for _, arg := range termArgs(&b.Term) {
			mark(arg)
		}
		if b.Term.Kind == TermCondBranch {
			mark(b.Term.CondBranch.Cond)
		}
		if b.Term.Kind == TermReturn && b.Term.Return.HasValue {
			mark(b.Term.Return.Value)
		}
		for _, ins := range b.Instrs {
			if hasSideEffect(ins.Op) {
				for _, a := range instrArgs(&ins) {
					mark(a)
				}
			}
		}
	}

	// Fixpoint: marking a live instruction's result live also marks its
	// operands live, so iterate until no new value is marked.
	changed := true
	for changed {
		changed = false
		for bi := range f.Blocks {
			for _, ins := range f.Blocks[bi].Instrs {
				if !live[ins.Result] && !hasSideEffect(ins.Op) {
					continue
				}
				for _, a := range instrArgs(&ins) {
					if a.IsValid() && !live[a] {
						live[a] = true
						changed = true
					}
				}
			}
		}
	}

	for bi := range f.Blocks {
		b := &f.Blocks[bi]
		kept := b.Instrs[:0]
		for _, ins := range b.Instrs {
			if hasSideEffect(ins.Op) || live[ins.Result] {
				kept = append(kept, ins)
			}
		}
		b.Instrs = kept
	}
}

func hasSideEffect(op Op) bool {
	switch op {
	case OpCall, OpFieldSet, OpIndexSet, OpAllocate, OpFree, OpMove,
		OpArcIncref, OpArcDecref, OpRegionEnter, OpRegionExit,
		OpBoundsCheck, OpProfilerHook:
		return true
	default:
		return false
	}
}

func termArgs(t *Terminator) []ValueID {
	switch t.Kind {
	case TermBranch:
		return t.Branch.Args
	case TermCondBranch:
		return append(append([]ValueID{}, t.CondBranch.ThenArgs...), t.CondBranch.ElseArgs...)
	default:
		return nil
	}
}

func instrArgs(ins *Instr) []ValueID {
	var out []ValueID
	switch ins.Op {
	case OpBinary:
		out = append(out, ins.Binary.Left, ins.Binary.Right)
	case OpUnary:
		out = append(out, ins.Unary.Operand)
	case OpCall:
		if ins.Call.Callee.Kind == CalleeValue {
			out = append(out, ins.Call.Callee.Value)
		}
		out = append(out, ins.Call.Args...)
	case OpFieldGet:
		out = append(out, ins.Field.Object)
	case OpFieldSet:
		out = append(out, ins.Field.Object, ins.Field.Value)
	case OpIndexGet:
		out = append(out, ins.Index.Object, ins.Index.Index)
	case OpIndexSet:
		out = append(out, ins.Index.Object, ins.Index.Index, ins.Index.Value)
	case OpStructMake:
		for _, fld := range ins.Struct.Fields {
			out = append(out, fld.Value)
		}
		out = append(out, ins.Struct.Elems...)
	case OpArrayMake, OpTupleMake:
		out = append(out, ins.Struct.Elems...)
	case OpTagTest, OpTagPayload:
		out = append(out, ins.Tag.Value)
	case OpCast:
		out = append(out, ins.Cast.Value)
	case OpIterInit, OpIterNext:
		out = append(out, ins.Iter.Value)
	case OpAllocate, OpFree, OpMove, OpArcIncref, OpArcDecref:
		out = append(out, ins.Memory.Target)
	case OpBoundsCheck:
		out = append(out, ins.Memory.Target, ins.Memory.Index)
	}
	return out
}
