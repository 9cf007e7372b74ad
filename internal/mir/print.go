package mir

import (
	"fmt"
	"io"
	"slices"

	"bract/internal/bir"
)

// DumpModule writes a deterministic, human-readable rendering of a
// lowered module; used for `bract bir --target` and as the golden-file
// format regression tests diff against (spec.md §9: "snapshot tests of
// BIR text are the primary regression mechanism", extended here to the
// target-IR stage).
func DumpModule(w io.Writer, m *Module) error {
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
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
	fmt.Fprintf(w, "funcs=%d\n", len(funcs))
	for _, f := range funcs {
		dumpFunc(w, f)
	}
	return nil
}

func dumpFunc(w io.Writer, f *Func) {
	if f == nil {
		return
	}
	fmt.Fprintf(w, "fn %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		fmt.Fprintf(w, "%%%d", p)
	}
	fmt.Fprint(w, ")\n")

	for _, slot := range f.StackSlots {
		fmt.Fprintf(w, "  slot %%%d: size=%d align=%d\n", slot.Value, slot.Size, slot.Align)
	}

	for _, b := range f.Blocks {
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
}

func dumpInstr(w io.Writer, ins Instr) {
	switch ins.Kind {
	case InstrKeep:
		if ins.Keep == nil {
			return
		}
		if ins.Keep.Result.IsValid() {
			fmt.Fprintf(w, "    %%%d = %s\n", ins.Keep.Result, ins.Keep.Op)
		} else {
			fmt.Fprintf(w, "    %s\n", ins.Keep.Op)
		}
	case InstrLocalAddr:
		fmt.Fprintf(w, "    %%%d = local_addr\n", ins.LocalAddr)
	case InstrRuntimeCall:
		rc := ins.RuntimeCall
		if rc.HasDst {
			fmt.Fprintf(w, "    %%%d = call %s(", rc.Dst, rc.Target.Name)
		} else {
			fmt.Fprintf(w, "    call %s(", rc.Target.Name)
		}
		for i, a := range rc.Args {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			dumpOperand(w, a)
		}
		fmt.Fprint(w, ")\n")
	case InstrStoreImm:
		fmt.Fprintf(w, "    store %d -> %%%d\n", ins.StoreImm.Imm, ins.StoreImm.Ptr)
	case InstrICmpLt:
		fmt.Fprintf(w, "    %%%d = icmp_lt %%%d, %%%d\n", ins.ICmpLt.Dst, ins.ICmpLt.Left, ins.ICmpLt.Right)
	}
}

func dumpOperand(w io.Writer, op Operand) {
	if op.Kind == OperandImm {
		fmt.Fprintf(w, "%d", op.Imm)
		return
	}
	fmt.Fprintf(w, "%%%d", op.Value)
}

func dumpTerm(w io.Writer, t Terminator) {
	switch t.Kind {
	case TermReturn:
		if t.Return.HasValue {
			fmt.Fprintf(w, "    return %%%d\n", t.Return.Value)
		} else {
			fmt.Fprint(w, "    return\n")
		}
	case TermBranch:
		fmt.Fprintf(w, "    branch bb%d(", t.Branch.Target)
		dumpArgs(w, t.Branch.Args)
		fmt.Fprint(w, ")\n")
	case TermCondBranch:
		fmt.Fprintf(w, "    cond_branch %%%d, bb%d(", t.CondBranch.Cond, t.CondBranch.Then)
		dumpArgs(w, t.CondBranch.ThenArgs)
		fmt.Fprintf(w, "), bb%d(", t.CondBranch.Else)
		dumpArgs(w, t.CondBranch.ElseArgs)
		fmt.Fprint(w, ")\n")
	case TermUnreachable:
		fmt.Fprint(w, "    unreachable\n")
	default:
		fmt.Fprint(w, "    <no terminator>\n")
	}
}

func dumpArgs(w io.Writer, args []bir.ValueID) {
	for i, a := range args {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		fmt.Fprintf(w, "%%%d", a)
	}
}
