package bir

import (
	"fmt"

	"bract/internal/hir"
)

func (l *funcLowerer) lowerExpr(e *hir.Expr) (ValueID, error) {
	if e == nil {
		return NoValueID, nil
	}
	switch e.Kind {
	case hir.ExprLiteral:
		return l.lowerLiteral(e)
	case hir.ExprVarRef:
		ref := e.Data.(hir.VarRefData)
		if v, ok := l.symToValue[ref.SymbolID]; ok {
			return v, nil
		}
		return NoValueID, fmt.Errorf("bir: reference to unbound symbol %q", ref.Name)
	case hir.ExprUnaryOp:
		d := e.Data.(hir.UnaryOpData)
		operand, err := l.lowerExpr(d.Operand)
		if err != nil {
			return NoValueID, err
		}
		return l.emit(Instr{Op: OpUnary, Type: e.Type, Unary: UnaryOp{Op: d.Op, Operand: operand}}), nil
	case hir.ExprBinaryOp:
		d := e.Data.(hir.BinaryOpData)
		left, err := l.lowerExpr(d.Left)
		if err != nil {
			return NoValueID, err
		}
		right, err := l.lowerExpr(d.Right)
		if err != nil {
			return NoValueID, err
		}
		return l.emit(Instr{Op: OpBinary, Type: e.Type, Binary: BinaryOp{Op: d.Op, Left: left, Right: right}}), nil
	case hir.ExprCall:
		return l.lowerCall(e)
	case hir.ExprFieldAccess:
		d := e.Data.(hir.FieldAccessData)
		obj, err := l.lowerExpr(d.Object)
		if err != nil {
			return NoValueID, err
		}
		return l.emit(Instr{Op: OpFieldGet, Type: e.Type, Field: FieldData{Object: obj, FieldName: d.FieldName, FieldIdx: d.FieldIdx}}), nil
	case hir.ExprIndex:
		d := e.Data.(hir.IndexData)
		obj, err := l.lowerExpr(d.Object)
		if err != nil {
			return NoValueID, err
		}
		idx, err := l.lowerExpr(d.Index)
		if err != nil {
			return NoValueID, err
		}
		l.insertBoundsCheck(obj, idx)
		return l.emit(Instr{Op: OpIndexGet, Type: e.Type, Index: IndexData{Object: obj, Index: idx}}), nil
	case hir.ExprStructLit:
		return l.lowerStructLit(e)
	case hir.ExprArrayLit:
		d := e.Data.(hir.ArrayLitData)
		elems := make([]ValueID, 0, len(d.Elements))
		for _, el := range d.Elements {
			v, err := l.lowerExpr(el)
			if err != nil {
				return NoValueID, err
			}
			elems = append(elems, v)
		}
		return l.emit(Instr{Op: OpArrayMake, Type: e.Type, Struct: StructData{Elems: elems}}), nil
	case hir.ExprTupleLit:
		d := e.Data.(hir.TupleLitData)
		elems := make([]ValueID, 0, len(d.Elements))
		for _, el := range d.Elements {
			v, err := l.lowerExpr(el)
			if err != nil {
				return NoValueID, err
			}
			elems = append(elems, v)
		}
		return l.emit(Instr{Op: OpTupleMake, Type: e.Type, Struct: StructData{Elems: elems}}), nil
	case hir.ExprTagTest:
		d := e.Data.(hir.TagTestData)
		v, err := l.lowerExpr(d.Value)
		if err != nil {
			return NoValueID, err
		}
		return l.emit(Instr{Op: OpTagTest, Type: e.Type, Tag: TagData{Value: v, TagName: d.TagName}}), nil
	case hir.ExprTagPayload:
		d := e.Data.(hir.TagPayloadData)
		v, err := l.lowerExpr(d.Value)
		if err != nil {
			return NoValueID, err
		}
		return l.emit(Instr{Op: OpTagPayload, Type: e.Type, Tag: TagData{Value: v, TagName: d.TagName, Index: d.Index}}), nil
	case hir.ExprIterInit:
		d := e.Data.(hir.IterInitData)
		v, err := l.lowerExpr(d.Iterable)
		if err != nil {
			return NoValueID, err
		}
		return l.emit(Instr{Op: OpIterInit, Type: e.Type, Iter: IterData{Value: v}}), nil
	case hir.ExprIterNext:
		d := e.Data.(hir.IterNextData)
		v, err := l.lowerExpr(d.Iter)
		if err != nil {
			return NoValueID, err
		}
		return l.emit(Instr{Op: OpIterNext, Type: e.Type, Iter: IterData{Value: v}}), nil
	case hir.ExprIf:
		return l.lowerIfExpr(e)
	case hir.ExprCast:
		d := e.Data.(hir.CastData)
		v, err := l.lowerExpr(d.Value)
		if err != nil {
			return NoValueID, err
		}
		return l.emit(Instr{Op: OpCast, Type: e.Type, Cast: CastData{Value: v, TargetTy: e.Type}}), nil
	case hir.ExprBlock:
		d := e.Data.(hir.BlockExprData)
		return l.lowerBlockExpr(d.Block)
	case hir.ExprCompare:
		return l.lowerCompare(e)
	default:
		return NoValueID, fmt.Errorf("bir: expression kind %s has no Bract equivalent (async/channel constructs are not part of this language)", e.Kind)
	}
}

func (l *funcLowerer) lowerLiteral(e *hir.Expr) (ValueID, error) {
	d := e.Data.(hir.LiteralData)
	c := Const{Text: d.Text}
	switch d.Kind {
	case hir.LiteralInt:
		c.Kind, c.IntValue = ConstInt, d.IntValue
	case hir.LiteralFloat:
		c.Kind, c.FloatValue = ConstFloat, d.FloatValue
	case hir.LiteralBool:
		c.Kind, c.BoolValue = ConstBool, d.BoolValue
	case hir.LiteralString:
		c.Kind, c.StringValue = ConstString, d.StringValue
	case hir.LiteralNothing:
		c.Kind = ConstNothing
	}
	return l.emit(Instr{Op: OpConst, Type: e.Type, Const: c}), nil
}

func (l *funcLowerer) lowerCall(e *hir.Expr) (ValueID, error) {
	d := e.Data.(hir.CallData)
	var callee Callee
	if d.SymbolID.IsValid() {
		callee = Callee{Kind: CalleeSym, Sym: d.SymbolID}
	} else {
		v, err := l.lowerExpr(d.Callee)
		if err != nil {
			return NoValueID, err
		}
		callee = Callee{Kind: CalleeValue, Value: v}
	}
	args := make([]ValueID, 0, len(d.Args))
	for _, a := range d.Args {
		v, err := l.lowerExpr(a)
		if err != nil {
			return NoValueID, err
		}
		args = append(args, v)
	}
	return l.emit(Instr{Op: OpCall, Type: e.Type, Call: CallData{Callee: callee, Args: args}}), nil
}

func (l *funcLowerer) lowerStructLit(e *hir.Expr) (ValueID, error) {
	d := e.Data.(hir.StructLitData)
	fields := make([]StructLitField, 0, len(d.Fields))
	for _, f := range d.Fields {
		v, err := l.lowerExpr(f.Value)
		if err != nil {
			return NoValueID, err
		}
		fields = append(fields, StructLitField{Name: f.Name, Value: v})
	}
	return l.emit(Instr{Op: OpStructMake, Type: e.Type, Struct: StructData{Fields: fields}}), nil
}

// lowerIfExpr lowers a ternary/if-expression into a join block whose
// result value is selected via a block parameter, the block-argument-style
// equivalent of a phi node: both arms branch into the same join block,
// each supplying its own result as that block's sole argument.
func (l *funcLowerer) lowerIfExpr(e *hir.Expr) (ValueID, error) {
	d := e.Data.(hir.IfData)
	cond, err := l.lowerExpr(d.Cond)
	if err != nil {
		return NoValueID, err
	}
	thenBB := l.newBlock()
	elseBB := l.newBlock()
	joinBB := l.newBlock()
	l.setTerm(Terminator{Kind: TermCondBranch, CondBranch: CondBranchTerm{Cond: cond, Then: thenBB, Else: elseBB}})

	l.cur = thenBB
	thenV, err := l.lowerExpr(d.Then)
	if err != nil {
		return NoValueID, err
	}
	if !l.curBlock().Terminated() {
		l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: joinBB, Args: []ValueID{thenV}}})
	}

	l.cur = elseBB
	elseV, err := l.lowerExpr(d.Else)
	if err != nil {
		return NoValueID, err
	}
	if !l.curBlock().Terminated() {
		l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: joinBB, Args: []ValueID{elseV}}})
	}

	strat, via := resolveStrategy(l.types, e.Type)
	result := l.newValue(ValueBlockParam, e.Type, strat, via)
	l.cur = joinBB
	l.f.Block(joinBB).Params = []ValueID{result}
	return result, nil
}

func (l *funcLowerer) lowerBlockExpr(b *hir.Block) (ValueID, error) {
	if b == nil || len(b.Stmts) == 0 {
		return NoValueID, nil
	}
	for i := 0; i < len(b.Stmts)-1; i++ {
		if err := l.lowerStmt(&b.Stmts[i]); err != nil {
			return NoValueID, err
		}
	}
	last := &b.Stmts[len(b.Stmts)-1]
	if last.Kind == hir.StmtExpr {
		return l.lowerExpr(last.Data.(hir.ExprStmtData).Expr)
	}
	return NoValueID, l.lowerStmt(last)
}

// lowerCompare lowers a compare (pattern match) expression into a chain of
// conditional branches: a tag-name pattern lowers to TagTest, a bare
// binding or wildcard pattern always matches. This covers the common shape
// of Bract's pattern matching; arms with structural sub-patterns are
// matched on their tag only, with payload destructuring left to the
// existing TagPayload instruction at first use inside the arm body.
func (l *funcLowerer) lowerCompare(e *hir.Expr) (ValueID, error) {
	d := e.Data.(hir.CompareData)
	subject, err := l.lowerExpr(d.Value)
	if err != nil {
		return NoValueID, err
	}
	joinBB := l.newBlock()
	strat, via := resolveStrategy(l.types, e.Type)
	result := l.newValue(ValueBlockParam, e.Type, strat, via)
	var nextBB BlockID
	for i, arm := range d.Arms {
		armBB := l.newBlock()
		if arm.IsFinally || i == len(d.Arms)-1 {
			l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: armBB}})
		} else if tagName, ok := tagPatternName(arm.Pattern); ok {
			nextBB = l.newBlock()
			test := l.emit(Instr{Op: OpTagTest, Type: e.Type, Tag: TagData{Value: subject, TagName: tagName}})
			l.setTerm(Terminator{Kind: TermCondBranch, CondBranch: CondBranchTerm{Cond: test, Then: armBB, Else: nextBB}})
		} else {
			l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: armBB}})
		}

		l.cur = armBB
		v, err := l.lowerExpr(arm.Result)
		if err != nil {
			return NoValueID, err
		}
		if !l.curBlock().Terminated() {
			l.setTerm(Terminator{Kind: TermBranch, Branch: BranchTerm{Target: joinBB, Args: []ValueID{v}}})
		}

		if nextBB.IsValid() {
			l.cur = nextBB
		}
	}
	l.cur = joinBB
	l.f.Block(joinBB).Params = []ValueID{result}
	return result, nil
}

func tagPatternName(pattern *hir.Expr) (string, bool) {
	if pattern == nil {
		return "", false
	}
	if pattern.Kind == hir.ExprTagTest {
		d, ok := pattern.Data.(hir.TagTestData)
		if ok {
			return d.TagName, true
		}
	}
	return "", false
}
