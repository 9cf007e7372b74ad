package bir

import (
	"fmt"
	"io"
	"slices"

	"bract/internal/types"
)

// DumpModule writes a human-readable, deterministic representation of a
// BIR module, used both for debugging (`bract bir` in cmd/bract) and as
// the golden-file format regression tests compare against.
func DumpModule(w io.Writer, m *Module, typesIn *types.Interner) error {
	if w == nil || m == nil {
		return nil
	}
	funcs := make([]*Func, 0, len(m.Funcs))
	for _, f := range m.Funcs {
		if f != nil {
			funcs = append(funcs, f)
		}
	}
	slices.SortStableFunc(funcs, func(a, b *Func) int {
		if a.Name != b.Name {
			if a.Name < b.Name {
				return -1
			}
			return 1
		}
		return 0
	})
	fmt.Fprintf(w, "funcs=%d\n", len(funcs))
	for _, f := range funcs {
		if err := dumpFunc(w, f, typesIn); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunc(w io.Writer, f *Func, typesIn *types.Interner) error {
	if f == nil {
		return nil
	}
	fmt.Fprintf(w, "fn %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		v := f.ValueOf(p)
		fmt.Fprintf(w, "%%%d: %s/%s", p, typeStr(typesIn, v.Type), v.Strategy)
	}
	fmt.Fprintf(w, ") -> %s\n", typeStr(typesIn, f.Result))

	for bi := range f.Blocks {
		b := &f.Blocks[bi]
		fmt.Fprintf(w, "  bb%d(", b.ID)
		for i, p := range b.Params {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "%%%d", p)
		}
		fmt.Fprint(w, "):\n")
		for _, ins := range b.Instrs {
			dumpInstr(w, ins)
		}
		dumpTerm(w, b.Term)
	}
	return nil
}

func dumpInstr(w io.Writer, ins Instr) {
	if ins.Result.IsValid() {
		fmt.Fprintf(w, "    %%%d = %s", ins.Result, ins.Op)
	} else {
		fmt.Fprintf(w, "    %s", ins.Op)
	}
	switch {
	case ins.Op.IsMemoryOp():
		fmt.Fprintf(w, " strategy=%s target=%%%d", ins.Memory.Strategy, ins.Memory.Target)
		if ins.Memory.Region.IsValid() {
			fmt.Fprintf(w, " region=%d", ins.Memory.Region)
		}
	case ins.Op == OpCall:
		fmt.Fprintf(w, " callee=%v args=%v", ins.Call.Callee, ins.Call.Args)
	case ins.Op == OpConst:
		fmt.Fprintf(w, " %v", ins.Const)
	}
	fmt.Fprintln(w)
}

func dumpTerm(w io.Writer, t Terminator) {
	switch t.Kind {
	case TermReturn:
		if t.Return.HasValue {
			fmt.Fprintf(w, "    return %%%d\n", t.Return.Value)
		} else {
			fmt.Fprintln(w, "    return")
		}
	case TermBranch:
		fmt.Fprintf(w, "    branch bb%d%v\n", t.Branch.Target, t.Branch.Args)
	case TermCondBranch:
		fmt.Fprintf(w, "    cond_branch %%%d ? bb%d%v : bb%d%v\n",
			t.CondBranch.Cond, t.CondBranch.Then, t.CondBranch.ThenArgs, t.CondBranch.Else, t.CondBranch.ElseArgs)
	case TermUnreachable:
		fmt.Fprintln(w, "    unreachable")
	default:
		fmt.Fprintln(w, "    <no terminator>")
	}
}

func typeStr(typesIn *types.Interner, id types.TypeID) string {
	if typesIn == nil || id == types.NoTypeID {
		return "?"
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	return tt.Kind.String()
}
