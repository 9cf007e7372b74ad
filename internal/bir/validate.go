package bir

import (
	"errors"
	"fmt"
)

// Validate checks BIR module invariants: every block terminates, every
// branch target exists, every value used is defined before use within the
// same function, and the explicit memory ops carry a concrete (non-Unset)
// strategy.
func Validate(m *Module) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, f := range m.Funcs {
		if f == nil {
			continue
		}
		if err := validateFunc(f); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", f.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateFunc(f *Func) error {
	var errs []error
	if err := validateTerminated(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateBranchTargets(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateValueIDs(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateMemoryOps(f); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateTerminated(f *Func) error {
	for i := range f.Blocks {
		if !f.Blocks[i].Terminated() {
			return fmt.Errorf("block bb%d has no terminator", f.Blocks[i].ID)
		}
	}
	return nil
}

func validateBranchTargets(f *Func) error {
	exists := func(id BlockID) bool {
		return id.IsValid() && int(id) <= len(f.Blocks)
	}
	var errs []error
	for i := range f.Blocks {
		t := f.Blocks[i].Term
		switch t.Kind {
		case TermBranch:
			if !exists(t.Branch.Target) {
				errs = append(errs, fmt.Errorf("bb%d: branch target bb%d does not exist", f.Blocks[i].ID, t.Branch.Target))
			}
		case TermCondBranch:
			if !exists(t.CondBranch.Then) {
				errs = append(errs, fmt.Errorf("bb%d: cond_branch then target bb%d does not exist", f.Blocks[i].ID, t.CondBranch.Then))
			}
			if !exists(t.CondBranch.Else) {
				errs = append(errs, fmt.Errorf("bb%d: cond_branch else target bb%d does not exist", f.Blocks[i].ID, t.CondBranch.Else))
			}
		}
	}
	return errors.Join(errs...)
}

func validateValueIDs(f *Func) error {
	defined := make(map[ValueID]bool, len(f.Values))
	for _, p := range f.Params {
		defined[p] = true
	}
	for bi := range f.Blocks {
		for _, p := range f.Blocks[bi].Params {
			defined[p] = true
		}
	}
	var errs []error
	checkArg := func(bb BlockID, v ValueID) {
		if v.IsValid() && !defined[v] {
			errs = append(errs, fmt.Errorf("bb%d: use of undefined value %%%d", bb, v))
		}
	}
	for bi := range f.Blocks {
		b := &f.Blocks[bi]
		for _, ins := range b.Instrs {
			for _, a := range instrArgs(&ins) {
				checkArg(b.ID, a)
			}
			if ins.Result.IsValid() {
				defined[ins.Result] = true
			}
		}
		for _, a := range termArgs(&b.Term) {
			checkArg(b.ID, a)
		}
		if b.Term.Kind == TermCondBranch {
			checkArg(b.ID, b.Term.CondBranch.Cond)
		}
		if b.Term.Kind == TermReturn && b.Term.Return.HasValue {
			checkArg(b.ID, b.Term.Return.Value)
		}
	}
	return errors.Join(errs...)
}

func validateMemoryOps(f *Func) error {
	var errs []error
	for bi := range f.Blocks {
		for _, ins := range f.Blocks[bi].Instrs {
			if ins.Op != OpAllocate && ins.Op != OpFree && ins.Op != OpArcIncref && ins.Op != OpArcDecref {
				continue
			}
			if ins.Memory.Strategy.String() == "unset" {
				errs = append(errs, fmt.Errorf("bb%d: %s on value with unresolved strategy", f.Blocks[bi].ID, ins.Op))
			}
		}
	}
	return errors.Join(errs...)
}
