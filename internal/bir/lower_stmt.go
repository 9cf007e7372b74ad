package bir

import (
	"fmt"

	"bract/internal/hir"
	"bract/internal/region"
	"bract/internal/strategy"
	"bract/internal/types"
)

func (l *funcLowerer) lowerBlock(b *hir.Block) error {
	if b == nil {
		return nil
	}
	for i := range b.Stmts {
		if l.curBlock().Terminated() {
			break
		}
		if err := l.lowerStmt(&b.Stmts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (l *funcLowerer) lowerStmt(s *hir.Stmt) error {
	switch s.Kind {
	case hir.StmtLet:
		return l.lowerLet(s.Data.(hir.LetData))
	case hir.StmtExpr:
		_, err := l.lowerExpr(s.Data.(hir.ExprStmtData).Expr)
		return err
	case hir.StmtAssign:
		return l.lowerAssign(s.Data.(hir.AssignData))
	case hir.StmtReturn:
		return l.lowerReturn(s.Data.(hir.ReturnData))
	case hir.StmtBreak:
		if len(l.loops) == 0 {
			return fmt.Errorf("bir: break outside loop")
		}
		l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: l.loops[len(l.loops)-1].breakTo}})
		return nil
	case hir.StmtContinue:
		if len(l.loops) == 0 {
			return fmt.Errorf("bir: continue outside loop")
		}
		l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: l.loops[len(l.loops)-1].continueTo}})
		return nil
	case hir.StmtIf:
		return l.lowerIfStmt(s.Data.(hir.IfStmtData))
	case hir.StmtWhile:
		return l.lowerWhile(s.Data.(hir.WhileData))
	case hir.StmtFor:
		return l.lowerFor(s.Data.(hir.ForData))
	case hir.StmtBlock:
		return l.lowerBlock(s.Data.(hir.BlockStmtData).Block)
	case hir.StmtDrop:
		_, err := l.lowerExplicitDrop(s.Data.(hir.DropData))
		return err
	case hir.StmtRegion:
		return l.lowerRegion(s.Data.(hir.RegionData))
	default:
		return fmt.Errorf("bir: unsupported statement kind %s", s.Kind)
	}
}

// lowerLet binds the initializer's value to the local's symbol. When the
// binding's strategy puts it on the heap or in a region, an explicit
// Allocate is emitted first and the initializer's value is moved into it;
// Stack bindings keep the initializer's value directly, with no extra
// instruction.
func (l *funcLowerer) lowerLet(d hir.LetData) error {
	if d.Value == nil {
		return nil
	}
	val, err := l.lowerExpr(d.Value)
	if err != nil {
		return err
	}
	strat, _ := resolveStrategy(l.types, d.Type)
	bound := val
	if strat.IsHeap() || strat == strategy.Region || strat == strategy.SmartPtr {
		bound = l.emitMemory(OpAllocate, d.Type, MemoryData{Strategy: strat, Target: val})
	}
	if d.SymbolID.IsValid() {
		l.symToValue[d.SymbolID] = bound
	}
	return nil
}

func (l *funcLowerer) lowerExplicitDrop(d hir.DropData) (ValueID, error) {
	if d.Value == nil {
		return NoValueID, nil
	}
	val, err := l.lowerExpr(d.Value)
	if err != nil {
		return NoValueID, err
	}
	l.releaseValue(val)
	return val, nil
}

// releaseValue emits the strategy-appropriate release instruction for a
// value reaching the end of its lifetime, per the BorrowGraph's EvDrop
// events. Stack and Region values need no instruction here: a Stack slot
// is reclaimed with the frame, a Region value with its region's exit.
func (l *funcLowerer) releaseValue(v ValueID) {
	if !v.IsValid() {
		return
	}
	val := l.f.ValueOf(v)
	switch val.Strategy {
	case strategy.Linear, strategy.Manual:
		l.emitMemory(OpFree, val.Type, MemoryData{Strategy: val.Strategy, Target: v})
	case strategy.SmartPtr:
		l.emitMemory(OpArcDecref, val.Type, MemoryData{Strategy: val.Strategy, Target: v})
	}
}

func (l *funcLowerer) lowerAssign(d hir.AssignData) error {
	rhs, err := l.lowerExpr(d.Value)
	if err != nil {
		return err
	}
	switch d.Target.Kind {
	case hir.ExprVarRef:
		ref := d.Target.Data.(hir.VarRefData)
		if ref.SymbolID.IsValid() {
			l.symToValue[ref.SymbolID] = rhs
		}
		return nil
	case hir.ExprFieldAccess:
		fa := d.Target.Data.(hir.FieldAccessData)
		obj, err := l.lowerExpr(fa.Object)
		if err != nil {
			return err
		}
		l.emit(Instr{Op: OpFieldSet, Type: d.Target.Type, Field: FieldData{Object: obj, FieldName: fa.FieldName, FieldIdx: fa.FieldIdx, Value: rhs}})
		return nil
	case hir.ExprIndex:
		ix := d.Target.Data.(hir.IndexData)
		obj, err := l.lowerExpr(ix.Object)
		if err != nil {
			return err
		}
		idx, err := l.lowerExpr(ix.Index)
		if err != nil {
			return err
		}
		l.insertBoundsCheck(obj, idx)
		l.emit(Instr{Op: OpIndexSet, Type: d.Target.Type, Index: IndexData{Object: obj, Index: idx, Value: rhs}})
		return nil
	default:
		return fmt.Errorf("bir: unsupported assignment target kind %s", d.Target.Kind)
	}
}

func (l *funcLowerer) lowerReturn(d hir.ReturnData) error {
	if d.Value == nil {
		l.setTerm(Terminator{Kind: TermReturn})
		return nil
	}
	v, err := l.lowerExpr(d.Value)
	if err != nil {
		return err
	}
	l.setTerm(Terminator{Kind: TermReturn, Return: ReturnTerm{HasValue: true, Value: v}})
	return nil
}

func (l *funcLowerer) lowerIfStmt(d hir.IfStmtData) error {
	cond, err := l.lowerExpr(d.Cond)
	if err != nil {
		return err
	}
	thenBB := l.newBlock()
	elseBB := l.newBlock()
	joinBB := l.newBlock()
	l.setTerm(Terminator{Kind: TermCondBranch, CondBranch: CondBranchTerm{Cond: cond, Then: thenBB, Else: elseBB}})

	l.cur = thenBB
	if err := l.lowerBlock(d.Then); err != nil {
		return err
	}
	if !l.curBlock().Terminated() {
		l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: joinBB}})
	}

	l.cur = elseBB
	if d.Else != nil {
		if err := l.lowerBlock(d.Else); err != nil {
			return err
		}
	}
	if !l.curBlock().Terminated() {
		l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: joinBB}})
	}

	l.cur = joinBB
	return nil
}

func (l *funcLowerer) lowerWhile(d hir.WhileData) error {
	condBB := l.newBlock()
	bodyBB := l.newBlock()
	afterBB := l.newBlock()

	l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: condBB}})

	l.cur = condBB
	cond, err := l.lowerExpr(d.Cond)
	if err != nil {
		return err
	}
	l.setTerm(Terminator{Kind: TermCondBranch, CondBranch: CondBranchTerm{Cond: cond, Then: bodyBB, Else: afterBB}})

	l.loops = append(l.loops, loopTargets{breakTo: afterBB, continueTo: condBB})
	l.cur = bodyBB
	if err := l.lowerBlock(d.Body); err != nil {
		return err
	}
	if !l.curBlock().Terminated() {
		l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: condBB}})
	}
	l.loops = l.loops[:len(l.loops)-1]

	l.cur = afterBB
	return nil
}

func (l *funcLowerer) lowerFor(d hir.ForData) error {
	if d.Kind == hir.ForClassic {
		if d.Init != nil {
			if err := l.lowerStmt(d.Init); err != nil {
				return err
			}
		}
		condBB := l.newBlock()
		bodyBB := l.newBlock()
		postBB := l.newBlock()
		afterBB := l.newBlock()

		l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: condBB}})
		l.cur = condBB
		if d.Cond != nil {
			cond, err := l.lowerExpr(d.Cond)
			if err != nil {
				return err
			}
			l.setTerm(Terminator{Kind: TermCondBranch, CondBranch: CondBranchTerm{Cond: cond, Then: bodyBB, Else: afterBB}})
		} else {
			l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: bodyBB}})
		}

		l.loops = append(l.loops, loopTargets{breakTo: afterBB, continueTo: postBB})
		l.cur = bodyBB
		if err := l.lowerBlock(d.Body); err != nil {
			return err
		}
		if !l.curBlock().Terminated() {
			l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: postBB}})
		}
		l.loops = l.loops[:len(l.loops)-1]

		l.cur = postBB
		if d.Post != nil {
			if _, err := l.lowerExpr(d.Post); err != nil {
				return err
			}
		}
		l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: condBB}})

		l.cur = afterBB
		return nil
	}

	// ForIn: desugar into the iterator protocol's init/next intrinsics,
	// already produced by hir for `for x in xs`.
	iterable, err := l.lowerExpr(d.Iterable)
	if err != nil {
		return err
	}
	iter := l.emit(Instr{Op: OpIterInit, Type: d.VarType, Iter: IterData{Value: iterable}})

	condBB := l.newBlock()
	bodyBB := l.newBlock()
	afterBB := l.newBlock()

	l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: condBB}})
	l.cur = condBB
	next := l.emit(Instr{Op: OpIterNext, Type: d.VarType, Iter: IterData{Value: iter}})
	l.setTerm(Terminator{Kind: TermCondBranch, CondBranch: CondBranchTerm{Cond: next, Then: bodyBB, Else: afterBB}})

	l.loops = append(l.loops, loopTargets{breakTo: afterBB, continueTo: condBB})
	l.cur = bodyBB
	if d.VarSym.IsValid() {
		l.symToValue[d.VarSym] = next
	}
	if err := l.lowerBlock(d.Body); err != nil {
		return err
	}
	if !l.curBlock().Terminated() {
		l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: condBB}})
	}
	l.loops = l.loops[:len(l.loops)-1]

	l.cur = afterBB
	return nil
}

// lowerRegion opens the region declared by a 'region NAME { ... }' block,
// lowers its body, and closes the region again unless the body already
// terminated the current block (e.g. via an early return), in which case
// there is no fallthrough edge to attach an OpRegionExit to.
func (l *funcLowerer) lowerRegion(d hir.RegionData) error {
	if d.ID == region.NoID {
		return l.lowerBlock(d.Body)
	}
	l.regionOpen.Push(d.ID)
	l.emitMemory(OpRegionEnter, types.NoTypeID, MemoryData{Region: d.ID})
	if err := l.lowerBlock(d.Body); err != nil {
		l.regionOpen.Pop()
		return err
	}
	if !l.curBlock().Terminated() {
		l.emitMemory(OpRegionExit, types.NoTypeID, MemoryData{Region: d.ID})
	}
	l.regionOpen.Pop()
	return nil
}

// insertBoundsCheck adds a conditional trap edge before an index
// operation: BoundsCheck itself is the explicit BIR op (spec's memory op
// set); lowering to mir turns its failing edge into a call to the runtime
// ABI's bract_trap_bounds.
func (l *funcLowerer) insertBoundsCheck(obj, idx ValueID) {
	l.emit(Instr{Op: OpBoundsCheck, Memory: MemoryData{Target: obj, Index: idx}})
}
