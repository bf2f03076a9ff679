package jjs

import (
	"jjsdev/internal/engine/ast"
	"jjsdev/internal/engine/decl"
)

const (
	javaLangString = "java.lang.String"
	javaLangClass  = "java.lang.Class"
	javaLangObject = "java.lang.Object"
)

// walker lowers decl bodies into mini-AST statements and expressions.
type walker struct {
	mapper *ReferenceMapper
	info   ast.SourceInfo
}

func (w *walker) thisRef(ls *LocalStack) *ast.ThisRef {
	c, ok := ls.Enclosing().(*ast.ClassType)
	if !ok {
		bail("this reference inside interface %s", ls.Enclosing().Name())
	}
	return &ast.ThisRef{Info: w.info, Class: c}
}

// isConstructorCall matches an explicit this(...) or super(...) statement.
func isConstructorCall(s decl.Stmt) (*decl.MethodCall, bool) {
	es, ok := s.(*decl.ExprStmt)
	if !ok {
		return nil, false
	}
	call, ok := es.X.(*decl.MethodCall)
	if !ok || !call.Sig.IsConstructor() {
		return nil, false
	}
	return call, true
}

// hasSiblingConstructorCall reports whether body delegates to another
// constructor of owner.
func hasSiblingConstructorCall(owner decl.GlobalName, s decl.Stmt) bool {
	if b, ok := s.(*decl.Block); ok {
		for _, x := range b.Stmts {
			if hasSiblingConstructorCall(owner, x) {
				return true
			}
		}
		return false
	}
	call, ok := isConstructorCall(s)
	return ok && call.Sig.Owner == owner
}

func (w *walker) block(b *decl.Block, jb *ast.Block, ls *LocalStack) {
	ls.PushBlock()
	for _, s := range b.Stmts {
		if call, ok := isConstructorCall(s); ok {
			jb.AddStmt(ast.MakeStatement(w.constructorCall(call.Sig, call.Args, ls)))
			continue
		}
		jb.AddStmt(w.stmt(s, ls))
	}
	ls.PopBlock()
}

// flatten appends s to jb, splicing a block's statements in place.
func (w *walker) flatten(s decl.Stmt, jb *ast.Block, ls *LocalStack) {
	if b, ok := s.(*decl.Block); ok {
		w.block(b, jb, ls)
		return
	}
	jb.AddStmt(w.stmt(s, ls))
}

// wrap lowers s into a block, reusing s itself when it already is one.
func (w *walker) wrap(s decl.Stmt, ls *LocalStack) *ast.Block {
	b := ast.NewBlock(w.info)
	w.flatten(s, b, ls)
	return b
}

func (w *walker) stmt(s decl.Stmt, ls *LocalStack) ast.Stmt {
	switch x := s.(type) {
	case *decl.Block:
		b := ast.NewBlock(w.info)
		w.block(x, b, ls)
		return b
	case *decl.VarDef:
		return w.varDef(x, ls)
	case *decl.ExprStmt:
		return ast.MakeStatement(w.expr(x.X, ls))
	case *decl.If:
		out := &ast.IfStatement{Info: w.info, Cond: w.expr(x.Cond, ls), Then: w.wrap(x.Then, ls)}
		if x.Else != nil {
			out.Else = w.wrap(x.Else, ls)
		}
		return out
	case *decl.While:
		return &ast.WhileStatement{Info: w.info, Cond: w.expr(x.Cond, ls), Body: w.stmt(x.Body, ls)}
	case *decl.DoWhile:
		body := w.stmt(x.Body, ls)
		return &ast.DoStatement{Info: w.info, Body: body, Cond: w.expr(x.Cond, ls)}
	case *decl.For:
		return w.forStmt(x, ls)
	case *decl.Try:
		return w.tryStmt(x, ls)
	case *decl.Switch:
		return w.switchStmt(x, ls)
	case *decl.Return:
		out := &ast.ReturnStatement{Info: w.info}
		if x.X != nil {
			out.Expr = w.expr(x.X, ls)
		}
		return out
	case *decl.Throw:
		return &ast.ThrowStatement{Info: w.info, Expr: w.expr(x.X, ls)}
	case *decl.Break:
		out := &ast.BreakStatement{Info: w.info}
		if x.Label != "" {
			out.Label = ls.Label(x.Label)
		}
		return out
	case *decl.Continue:
		out := &ast.ContinueStatement{Info: w.info}
		if x.Label != "" {
			out.Label = ls.Label(x.Label)
		}
		return out
	case *decl.Labelled:
		label := &ast.Label{Info: w.info, Name: x.Label}
		ls.PushLabel(label)
		body := w.stmt(x.Body, ls)
		ls.PopLabel(label.Name)
		return &ast.LabeledStatement{Info: w.info, Label: label, Body: body}
	}
	bail("unknown statement %T", s)
	return nil
}

func (w *walker) varDef(x *decl.VarDef, ls *LocalStack) *ast.DeclarationStatement {
	local := ls.Body().NewLocal(w.info, x.Name, w.mapper.TypeOf(x.Type), x.Final)
	ls.AddVar(x.Name, local)
	out := &ast.DeclarationStatement{Info: w.info, Variable: &ast.LocalRef{Info: w.info, Local: local}}
	if x.Initializer != nil {
		out.Initializer = w.expr(x.Initializer, ls)
	}
	return out
}

func (w *walker) forStmt(x *decl.For, ls *LocalStack) *ast.ForStatement {
	ls.PushBlock()
	defer ls.PopBlock()
	out := &ast.ForStatement{Info: w.info}
	for _, s := range x.Init {
		out.Init = append(out.Init, w.stmt(s, ls))
	}
	if x.Cond != nil {
		out.Cond = w.expr(x.Cond, ls)
	}
	for _, e := range x.Update {
		out.Increments = append(out.Increments, ast.MakeStatement(w.expr(e, ls)))
	}
	out.Body = w.stmt(x.Body, ls)
	return out
}

func (w *walker) tryStmt(x *decl.Try, ls *LocalStack) *ast.TryStatement {
	out := &ast.TryStatement{Info: w.info, Try: ast.NewBlock(w.info)}
	w.block(x.Body, out.Try, ls)
	for _, c := range x.Catches {
		// each catch variable lives in its own scope
		ls.PushBlock()
		local := ls.Body().NewLocal(w.info, c.Param, w.mapper.ClassType(c.Type.JavaName()), false)
		ls.AddVar(c.Param, local)
		cb := ast.NewBlock(w.info)
		w.block(c.Body, cb, ls)
		ls.PopBlock()
		out.CatchVars = append(out.CatchVars, &ast.LocalRef{Info: w.info, Local: local})
		out.CatchBlocks = append(out.CatchBlocks, cb)
	}
	if x.Finally != nil {
		out.Finally = ast.NewBlock(w.info)
		w.block(x.Finally, out.Finally, ls)
	}
	return out
}

func (w *walker) switchStmt(x *decl.Switch, ls *LocalStack) *ast.SwitchStatement {
	out := &ast.SwitchStatement{Info: w.info, Expr: w.expr(x.X, ls), Body: ast.NewBlock(w.info)}
	ls.PushBlock()
	defer ls.PopBlock()
	for _, c := range x.Cases {
		cs := &ast.CaseStatement{Info: w.info}
		if c.Const != nil {
			cs.Expr = w.literal(c.Const)
		}
		out.Body.AddStmt(cs)
		for _, s := range c.Body {
			out.Body.AddStmt(w.stmt(s, ls))
		}
	}
	return out
}

func (w *walker) literal(l *decl.Literal) ast.Literal {
	switch l.Kind {
	case decl.LitBool:
		return &ast.BooleanLiteral{Value: l.Bool}
	case decl.LitChar:
		return &ast.CharLiteral{Value: uint16(l.Int)}
	case decl.LitByte, decl.LitShort, decl.LitInt:
		// byte and short constants are int literals in Java
		return &ast.IntLiteral{Value: int32(l.Int)}
	case decl.LitLong:
		return &ast.LongLiteral{Value: l.Int}
	case decl.LitFloat:
		return &ast.FloatLiteral{Value: float32(l.Float)}
	case decl.LitDouble:
		return &ast.DoubleLiteral{Value: l.Float}
	case decl.LitString:
		return &ast.StringLiteral{Info: w.info, Value: l.Str, StringType: w.mapper.ClassType(javaLangString)}
	case decl.LitNull:
		return &ast.NullLiteral{}
	}
	bail("unknown literal kind %d", l.Kind)
	return nil
}

func (w *walker) exprs(es []decl.Expr, ls *LocalStack) []ast.Expr {
	out := make([]ast.Expr, 0, len(es))
	for _, e := range es {
		out = append(out, w.expr(e, ls))
	}
	return out
}

func (w *walker) expr(e decl.Expr, ls *LocalStack) ast.Expr {
	switch x := e.(type) {
	case *decl.Literal:
		return w.literal(x)
	case *decl.VarRef:
		return ls.Resolve(x.Name)
	case *decl.ThisRef, *decl.SuperRef:
		// super is modelled as this with static dispatch on the call
		return w.thisRef(ls)
	case *decl.MethodCall:
		return w.methodCall(x, ls)
	case *decl.NewObject:
		call := w.constructorCall(x.Sig, x.Args, ls)
		return &ast.NewInstance{Info: w.info, Ctor: call.Target, Args: call.Args, EnclosingType: ls.Enclosing()}
	case *decl.NewArray:
		return w.newArray(x, ls)
	case *decl.Conditional:
		return &ast.Conditional{
			Info:       w.info,
			ResultType: w.mapper.TypeOf(x.Type),
			Cond:       w.expr(x.Cond, ls),
			Then:       w.expr(x.Then, ls),
			Else:       w.expr(x.Else, ls),
		}
	case *decl.Cast:
		return &ast.CastOperation{Info: w.info, CastType: w.mapper.TypeOf(x.Type), Expr: w.expr(x.X, ls)}
	case *decl.Binary:
		lhs, rhs := w.expr(x.Lhs, ls), w.expr(x.Rhs, ls)
		return &ast.BinaryOperation{Info: w.info, Op: binaryOp(x.Op), ResultType: w.mapper.TypeOf(x.Type), Lhs: lhs, Rhs: rhs}
	case *decl.Unary:
		return w.unary(x, ls)
	case *decl.FieldRef:
		return w.fieldRef(x, ls)
	case *decl.ArrayRef:
		return &ast.ArrayRef{Info: w.info, Instance: w.expr(x.Array, ls), Index: w.expr(x.Index, ls)}
	case *decl.ArrayLength:
		return &ast.ArrayLength{Info: w.info, Instance: w.expr(x.Array, ls)}
	case *decl.InstanceOf:
		ref, ok := w.mapper.TypeOf(x.Type).(ast.ReferenceType)
		if !ok {
			bail("instanceof against non-reference type %s", x.Type.SourceName())
		}
		return &ast.InstanceOf{Info: w.info, TestType: ref, Expr: w.expr(x.X, ls)}
	case *decl.ClassLiteral:
		return &ast.ClassLiteral{Info: w.info, RefType: w.mapper.TypeOf(x.Type), ClassType: w.mapper.ClassType(javaLangClass)}
	case *decl.Assignment:
		lhs, rhs := w.expr(x.Lhs, ls), w.expr(x.Rhs, ls)
		op := ast.OpAsg
		if x.Op != 0 {
			op = assignOp(x.Op)
		}
		return &ast.BinaryOperation{Info: w.info, Op: op, ResultType: lhs.Type(), Lhs: lhs, Rhs: rhs}
	}
	bail("unknown expression %T", e)
	return nil
}

func (w *walker) methodCall(x *decl.MethodCall, ls *LocalStack) *ast.MethodCall {
	ctor := x.Sig.IsConstructor()
	if ctor && x.Receiver == nil {
		return w.constructorCall(x.Sig, x.Args, ls)
	}
	target := w.mapper.Method(x.Sig, x.Receiver == nil)
	call := &ast.MethodCall{Info: w.info, Target: target}
	if x.Receiver != nil {
		call.Instance = w.expr(x.Receiver, ls)
	}
	if len(x.Args) != len(x.Sig.ParamTypes) {
		bail("call to %s has %d arguments for %d parameters", x.Sig.Descriptor(), len(x.Args), len(x.Sig.ParamTypes))
	}
	call.AddArgs(w.exprs(x.Args, ls)...)
	if _, super := x.Receiver.(*decl.SuperRef); super || ctor {
		call.StaticDispatchOnly = true
	}
	return call
}

// constructorCall is this(...) or super(...) inside a constructor, and the
// core of a new expression.
func (w *walker) constructorCall(sig decl.MethodSignature, args []decl.Expr, ls *LocalStack) *ast.MethodCall {
	if !sig.IsConstructor() {
		bail("%s is not a constructor", sig.Descriptor())
	}
	target := w.mapper.Method(sig, false)
	call := &ast.MethodCall{Info: w.info, Target: target, StaticDispatchOnly: true}
	if c, ok := ls.Enclosing().(*ast.ClassType); ok {
		call.Instance = &ast.ThisRef{Info: w.info, Class: c}
	}
	call.AddArgs(w.exprs(args, ls)...)
	return call
}

func (w *walker) newArray(x *decl.NewArray, ls *LocalStack) *ast.NewArray {
	elem := w.mapper.TypeOf(x.Elem)
	if len(x.Init) > 0 {
		if x.Dims != 1 {
			bail("array initializer with %d dimensions", x.Dims)
		}
		return &ast.NewArray{Info: w.info, ArrayType: ast.NewArrayType(elem), Initializers: w.exprs(x.Init, ls)}
	}
	t := elem
	for range x.Dims {
		t = ast.NewArrayType(t)
	}
	arr, ok := t.(*ast.ArrayType)
	if !ok {
		bail("array allocation without dimensions")
	}
	dims := w.exprs(x.DimExprs, ls)
	for i := len(x.DimExprs); i < x.Dims; i++ {
		dims = append(dims, &ast.AbsentArrayDimension{})
	}
	return &ast.NewArray{Info: w.info, ArrayType: arr, Dims: dims}
}

func (w *walker) fieldRef(x *decl.FieldRef, ls *LocalStack) *ast.FieldRef {
	out := &ast.FieldRef{Info: w.info, EnclosingType: ls.Enclosing()}
	if x.Qualifier != nil {
		out.Instance = w.expr(x.Qualifier, ls)
	}
	out.Field = w.mapper.Field(x.Owner.JavaName(), x.Name, x.Qualifier == nil, w.mapper.TypeOf(x.Type))
	return out
}

func (w *walker) unary(x *decl.Unary, ls *LocalStack) ast.Expr {
	arg := w.expr(x.X, ls)
	switch x.Op {
	case decl.OpNeg:
		return &ast.PrefixOperation{Info: w.info, Op: ast.OpNeg, Arg: arg}
	case decl.OpNot:
		return &ast.PrefixOperation{Info: w.info, Op: ast.OpNot, Arg: arg}
	case decl.OpBitNot:
		return &ast.PrefixOperation{Info: w.info, Op: ast.OpBitNot, Arg: arg}
	case decl.OpPreInc:
		return &ast.PrefixOperation{Info: w.info, Op: ast.OpInc, Arg: arg}
	case decl.OpPreDec:
		return &ast.PrefixOperation{Info: w.info, Op: ast.OpDec, Arg: arg}
	case decl.OpPostInc:
		return &ast.PostfixOperation{Info: w.info, Op: ast.OpInc, Arg: arg}
	case decl.OpPostDec:
		return &ast.PostfixOperation{Info: w.info, Op: ast.OpDec, Arg: arg}
	}
	bail("unknown unary operator %d", x.Op)
	return nil
}

var binaryOps = map[decl.BinaryOp]ast.BinaryOperator{
	decl.OpAnd: ast.OpAnd, decl.OpOr: ast.OpOr,
	decl.OpBitAnd: ast.OpBitAnd, decl.OpBitOr: ast.OpBitOr, decl.OpBitXor: ast.OpBitXor,
	decl.OpShl: ast.OpShl, decl.OpShr: ast.OpShr, decl.OpUshr: ast.OpShru,
	decl.OpConcat: ast.OpConcat, decl.OpAdd: ast.OpAdd, decl.OpSub: ast.OpSub,
	decl.OpMul: ast.OpMul, decl.OpDiv: ast.OpDiv, decl.OpMod: ast.OpMod,
	decl.OpEq: ast.OpEq, decl.OpNe: ast.OpNeq, decl.OpLt: ast.OpLt,
	decl.OpLe: ast.OpLte, decl.OpGt: ast.OpGt, decl.OpGe: ast.OpGte,
}

var assignOps = map[decl.BinaryOp]ast.BinaryOperator{
	decl.OpAdd: ast.OpAsgAdd, decl.OpSub: ast.OpAsgSub, decl.OpMul: ast.OpAsgMul,
	decl.OpDiv: ast.OpAsgDiv, decl.OpMod: ast.OpAsgMod, decl.OpShl: ast.OpAsgShl,
	decl.OpShr: ast.OpAsgShr, decl.OpUshr: ast.OpAsgShru, decl.OpBitAnd: ast.OpAsgBitAnd,
	decl.OpBitOr: ast.OpAsgBitOr, decl.OpBitXor: ast.OpAsgBitXor, decl.OpConcat: ast.OpAsgConcat,
}

func binaryOp(op decl.BinaryOp) ast.BinaryOperator {
	out, ok := binaryOps[op]
	if !ok {
		bail("unknown binary operator %d", op)
	}
	return out
}

func assignOp(op decl.BinaryOp) ast.BinaryOperator {
	out, ok := assignOps[op]
	if !ok {
		bail("unknown compound assignment operator %d", op)
	}
	return out
}
