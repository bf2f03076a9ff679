package javafe

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"jjsdev/internal/engine/decl"
)

// methodCtx lowers one member body.
type methodCtx struct {
	*unitCtx
	pt     *pendingType
	scope  *typeScope
	static bool
	ret    decl.Type
	frames []map[string]decl.Type
	temps  int
}

func (c *unitCtx) newMethodCtx(pt *pendingType, scope *typeScope, static bool, ret decl.Type) *methodCtx {
	m := &methodCtx{unitCtx: c, pt: pt, scope: scope, static: static, ret: ret}
	m.push()
	return m
}

func (m *methodCtx) push() { m.frames = append(m.frames, make(map[string]decl.Type)) }

func (m *methodCtx) pop() { m.frames = m.frames[:len(m.frames)-1] }

func (m *methodCtx) declare(n *sitter.Node, name string, t decl.Type) {
	if _, ok := m.local(name); ok {
		m.failf(n, "Duplicate local variable %s", name)
	}
	m.frames[len(m.frames)-1][name] = t
}

func (m *methodCtx) local(name string) (decl.Type, bool) {
	for i := len(m.frames) - 1; i >= 0; i-- {
		if t, ok := m.frames[i][name]; ok {
			return t, true
		}
	}
	return decl.Type{}, false
}

// temp declares a compiler temporary; the $ keeps it apart from source names.
func (m *methodCtx) temp(n *sitter.Node, base string, t decl.Type) string {
	m.temps++
	name := fmt.Sprintf("$%s%d", base, m.temps)
	m.declare(n, name, t)
	return name
}

func (m *methodCtx) block(n *sitter.Node) *decl.Block {
	m.push()
	defer m.pop()
	b := &decl.Block{Stmts: []decl.Stmt{}}
	for _, s := range namedChildren(n) {
		b.Stmts = append(b.Stmts, m.stmts(s)...)
	}
	return b
}

// stmts lowers one statement node. A declaration may yield several.
func (m *methodCtx) stmts(n *sitter.Node) []decl.Stmt {
	switch n.Kind() {
	case "local_variable_declaration":
		return m.localVars(n)
	case "assert_statement":
		return nil
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		m.failf(n, "Local types are not supported")
	case "explicit_constructor_invocation":
		m.failf(n, "Constructor call must be the first statement in a constructor")
	}
	return []decl.Stmt{m.stmt(n)}
}

// single lowers a statement in a position that takes exactly one.
func (m *methodCtx) single(n *sitter.Node) decl.Stmt {
	if n == nil || n.Kind() == ";" {
		return &decl.Block{}
	}
	if n.Kind() == "local_variable_declaration" {
		m.failf(n, "Syntax error, a declaration is not allowed here")
	}
	m.push()
	defer m.pop()
	ss := m.stmts(n)
	if len(ss) == 1 {
		return ss[0]
	}
	return &decl.Block{Stmts: ss}
}

func (m *methodCtx) stmt(n *sitter.Node) decl.Stmt {
	switch n.Kind() {
	case "block":
		return m.block(n)
	case ";":
		return &decl.Block{}
	case "expression_statement":
		return &decl.ExprStmt{X: m.statementExpr(namedChildren(n)[0])}
	case "if_statement":
		out := &decl.If{
			Cond: m.condition(n.ChildByFieldName("condition")),
			Then: m.single(n.ChildByFieldName("consequence")),
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			out.Else = m.single(alt)
		}
		return out
	case "while_statement":
		return &decl.While{Cond: m.condition(n.ChildByFieldName("condition")), Body: m.single(n.ChildByFieldName("body"))}
	case "do_statement":
		body := m.single(n.ChildByFieldName("body"))
		return &decl.DoWhile{Body: body, Cond: m.condition(n.ChildByFieldName("condition"))}
	case "for_statement":
		return m.forStmt(n)
	case "enhanced_for_statement":
		return m.forEach(n)
	case "try_statement":
		return m.tryStmt(n)
	case "switch_expression", "switch_statement":
		return m.switchStmt(n)
	case "return_statement":
		return m.returnStmt(n)
	case "throw_statement":
		v := m.expr(namedChildren(n)[0])
		if !m.isThrowable(v.t) {
			m.failf(n, "No exception of type %s can be thrown; an exception type must be a subclass of Throwable", v.t.SourceName())
		}
		return &decl.Throw{X: v.x}
	case "break_statement":
		return &decl.Break{Label: m.text(childOfKind(n, "identifier"))}
	case "continue_statement":
		return &decl.Continue{Label: m.text(childOfKind(n, "identifier"))}
	case "labeled_statement":
		var body *sitter.Node
		for _, ch := range namedChildren(n) {
			if ch.Kind() != "identifier" {
				body = ch
			}
		}
		return &decl.Labelled{Label: m.text(childOfKind(n, "identifier")), Body: m.single(body)}
	case "synchronized_statement":
		m.expr(childOfKind(n, "parenthesized_expression"))
		return m.block(n.ChildByFieldName("body"))
	case "try_with_resources_statement":
		m.failf(n, "try-with-resources is not supported")
	}
	m.unsupported(n)
	return nil
}

func (m *methodCtx) isThrowable(t decl.Type) bool {
	if t.Kind != decl.KindNamed {
		return false
	}
	name := t.Named.JavaName()
	if !m.u.exists(name) || name == javaLangObject {
		return true
	}
	return m.u.isSubtype(name, "java.lang.Throwable")
}

func (m *methodCtx) statementExpr(n *sitter.Node) decl.Expr {
	switch n.Kind() {
	case "assignment_expression", "update_expression", "method_invocation", "object_creation_expression":
		return m.expr(n).x
	}
	m.failf(n, "Syntax error, %s is not a statement", m.text(n))
	return nil
}

func (m *methodCtx) condition(n *sitter.Node) decl.Expr {
	v := m.expr(n)
	if !isBoolean(v.t) {
		m.failf(n, "Type mismatch: cannot convert from %s to boolean", describe(v.t))
	}
	return m.unbox(v).x
}

func (m *methodCtx) localVars(n *sitter.Node) []decl.Stmt {
	final := hasModifier(m.unitCtx, n, "final")
	typeNode := n.ChildByFieldName("type")
	infer := m.text(typeNode) == "var"
	var base decl.Type
	if !infer {
		base = m.resolveType(typeNode, m.scope)
	}
	var out []decl.Stmt
	for _, v := range childrenOfKind(n, "variable_declarator") {
		name := m.text(v.ChildByFieldName("name"))
		t := arrayOf(base, dims(m.text(v.ChildByFieldName("dimensions"))))
		def := &decl.VarDef{Name: name, Type: t, Final: final}
		switch val := v.ChildByFieldName("value"); {
		case val != nil && infer:
			iv := m.expr(val)
			if isNull(iv.t) {
				m.failf(v, "Cannot infer type for local variable initialized to 'null'")
			}
			def.Type, def.Initializer = iv.t, iv.x
		case val != nil:
			def.Initializer = m.initializer(val, t)
		case infer:
			m.failf(v, "Cannot use 'var' on variable without initializer")
		}
		m.declare(v, name, def.Type)
		out = append(out, def)
	}
	return out
}

// initializer lowers a variable initializer, which may be an array
// initializer, converted to t.
func (m *methodCtx) initializer(n *sitter.Node, t decl.Type) decl.Expr {
	if n.Kind() == "array_initializer" {
		return m.arrayInit(n, t)
	}
	return m.coerce(n, m.expr(n), t)
}

func (m *methodCtx) arrayInit(n *sitter.Node, t decl.Type) decl.Expr {
	if t.Kind != decl.KindArray {
		m.failf(n, "Type mismatch: cannot convert from array initializer to %s", t.SourceName())
	}
	elem := *t.Elem
	out := &decl.NewArray{Elem: elem, Dims: 1, Init: []decl.Expr{}}
	for _, e := range namedChildren(n) {
		out.Init = append(out.Init, m.initializer(e, elem))
	}
	return out
}

func (m *methodCtx) forStmt(n *sitter.Node) decl.Stmt {
	m.push()
	defer m.pop()
	out := &decl.For{}
	section := 0
	for _, ch := range children(n) {
		if isComment(ch) {
			continue
		}
		if section == 3 {
			out.Body = m.single(ch)
			continue
		}
		switch ch.Kind() {
		case "for", "(", ",":
			continue
		case ";":
			section++
			continue
		case ")":
			section = 3
			continue
		}
		switch section {
		case 0:
			if ch.Kind() == "local_variable_declaration" {
				out.Init = append(out.Init, m.localVars(ch)...)
				section = 1
			} else {
				out.Init = append(out.Init, &decl.ExprStmt{X: m.statementExpr(ch)})
			}
		case 1:
			out.Cond = m.condition(ch)
		case 2:
			out.Update = append(out.Update, m.statementExpr(ch))
		}
	}
	if out.Body == nil {
		out.Body = &decl.Block{}
	}
	return out
}

// forEach lowers the enhanced for loop to an indexed loop over arrays and
// an iterator loop over Iterables.
func (m *methodCtx) forEach(n *sitter.Node) decl.Stmt {
	m.push()
	defer m.pop()
	it := m.expr(n.ChildByFieldName("value"))
	name := m.text(n.ChildByFieldName("name"))
	typeNode := n.ChildByFieldName("type")
	infer := m.text(typeNode) == "var"
	var varType decl.Type
	if !infer {
		varType = m.resolveType(typeNode, m.scope)
		varType = arrayOf(varType, dims(m.text(n.ChildByFieldName("dimensions"))))
	}
	final := hasModifier(m.unitCtx, n, "final")

	switch {
	case it.t.Kind == decl.KindArray:
		arr := m.temp(n, "arr", it.t)
		idx := m.temp(n, "i", decl.Prim(decl.Int))
		elem := value{x: &decl.ArrayRef{Array: &decl.VarRef{Name: arr}, Index: &decl.VarRef{Name: idx}}, t: *it.t.Elem}
		if infer {
			varType = elem.t
		}
		m.declare(n, name, varType)
		return &decl.For{
			Init: []decl.Stmt{
				&decl.VarDef{Name: arr, Type: it.t, Initializer: it.x, Final: true},
				&decl.VarDef{Name: idx, Type: decl.Prim(decl.Int), Initializer: decl.IntLit(0)},
			},
			Cond: &decl.Binary{
				Op:   decl.OpLt,
				Lhs:  &decl.VarRef{Name: idx},
				Rhs:  &decl.ArrayLength{Array: &decl.VarRef{Name: arr}},
				Type: decl.Prim(decl.Boolean),
			},
			Update: []decl.Expr{&decl.Unary{Op: decl.OpPreInc, X: &decl.VarRef{Name: idx}}},
			Body: decl.Stmts(
				&decl.VarDef{Name: name, Type: varType, Initializer: m.coerce(n, elem, varType), Final: final},
				m.single(n.ChildByFieldName("body")),
			),
		}
	case it.t.Kind == decl.KindNamed && m.u.isSubtype(it.t.Named.JavaName(), "java.lang.Iterable"):
		iterator := m.methodCall(n, it, "iterator")
		iter := m.temp(n, "it", iterator.t)
		iterVal := value{x: &decl.VarRef{Name: iter}, t: iterator.t}
		next := m.methodCall(n, iterVal, "next")
		if infer {
			varType = next.t
		}
		m.declare(n, name, varType)
		return &decl.For{
			Init: []decl.Stmt{&decl.VarDef{Name: iter, Type: iterator.t, Initializer: iterator.x, Final: true}},
			Cond: m.methodCall(n, iterVal, "hasNext").x,
			Body: decl.Stmts(
				&decl.VarDef{Name: name, Type: varType, Initializer: m.coerce(n, next, varType), Final: final},
				m.single(n.ChildByFieldName("body")),
			),
		}
	}
	m.failf(n, "Can only iterate over an array or an instance of java.lang.Iterable")
	return nil
}

func (m *methodCtx) tryStmt(n *sitter.Node) decl.Stmt {
	out := &decl.Try{Body: m.block(n.ChildByFieldName("body"))}
	for _, cc := range childrenOfKind(n, "catch_clause") {
		param := childOfKind(cc, "catch_formal_parameter")
		types := namedChildren(childOfKind(param, "catch_type"))
		if len(types) != 1 {
			m.failf(param, "Multi-catch is not supported")
		}
		t := m.resolveType(types[0], m.scope)
		if !m.isThrowable(t) {
			m.failf(types[0], "No exception of type %s can be thrown; an exception type must be a subclass of Throwable", t.SourceName())
		}
		name := m.text(param.ChildByFieldName("name"))
		m.push()
		m.declare(param, name, t)
		body := m.block(cc.ChildByFieldName("body"))
		m.pop()
		out.Catches = append(out.Catches, decl.Catch{Param: name, Type: t.Named, Body: body})
	}
	if fin := childOfKind(n, "finally_clause"); fin != nil {
		out.Finally = m.block(childOfKind(fin, "block"))
	}
	return out
}

func (m *methodCtx) switchStmt(n *sitter.Node) decl.Stmt {
	cond := n.ChildByFieldName("condition")
	v := m.expr(cond)
	var x decl.Expr
	switch {
	case isString(v.t):
		x = v.x
	case isNumeric(v.t) && isIntegral(v.t) && primitiveOf(v.t) != decl.Long:
		x = m.unbox(v).x
	default:
		m.failf(cond, "Cannot switch on a value of type %s", describe(v.t))
	}
	out := &decl.Switch{X: x}
	m.push()
	defer m.pop()
	for _, g := range namedChildren(n.ChildByFieldName("body")) {
		if g.Kind() != "switch_block_statement_group" {
			m.failf(g, "Switch rules are not supported")
		}
		var labels []*sitter.Node
		var body []decl.Stmt
		for _, ch := range namedChildren(g) {
			if ch.Kind() == "switch_label" {
				labels = append(labels, ch)
				continue
			}
			body = append(body, m.stmts(ch)...)
		}
		for i, l := range labels {
			c := decl.Case{Const: m.caseLabel(l, v.t)}
			if i == len(labels)-1 {
				c.Body = body
			}
			out.Cases = append(out.Cases, c)
		}
	}
	return out
}

func (m *methodCtx) caseLabel(l *sitter.Node, t decl.Type) *decl.Literal {
	exprs := namedChildren(l)
	if len(exprs) == 0 {
		return nil
	}
	if len(exprs) > 1 {
		m.failf(l, "Multiple case labels are not supported")
	}
	lit := m.constant(exprs[0])
	if lit == nil {
		m.failf(exprs[0], "case expressions must be constant expressions")
	}
	if isString(t) != (lit.Kind == decl.LitString) {
		m.failf(exprs[0], "Type mismatch: cannot convert from %s to %s", m.text(exprs[0]), describe(t))
	}
	return lit
}

func (m *methodCtx) returnStmt(n *sitter.Node) decl.Stmt {
	kids := namedChildren(n)
	if len(kids) == 0 {
		if m.ret.Kind != decl.KindVoid {
			m.failf(n, "This method must return a result of type %s", m.ret.SourceName())
		}
		return &decl.Return{}
	}
	if m.ret.Kind == decl.KindVoid {
		m.failf(n, "Void methods cannot return a value")
	}
	return &decl.Return{X: m.coerce(kids[0], m.expr(kids[0]), m.ret)}
}

// constructorBody lowers a constructor. Without an explicit this(...) or
// super(...) call the superclass's no-argument constructor is called,
// except for direct subclasses of java.lang.Object.
func (m *methodCtx) constructorBody(n *sitter.Node) *decl.Block {
	m.push()
	defer m.pop()
	b := &decl.Block{Stmts: []decl.Stmt{}}
	kids := namedChildren(n)
	if len(kids) > 0 && kids[0].Kind() == "explicit_constructor_invocation" {
		b.Stmts = append(b.Stmts, m.explicitConstructorCall(kids[0]))
		kids = kids[1:]
	} else if s := m.implicitSuperCall(n); s != nil {
		b.Stmts = append(b.Stmts, s)
	}
	for _, s := range kids {
		b.Stmts = append(b.Stmts, m.stmts(s)...)
	}
	return b
}

func (m *methodCtx) implicitSuperCall(n *sitter.Node) decl.Stmt {
	info := m.pt.info
	if info.super == nil || info.super.JavaName() == javaLangObject {
		return nil
	}
	super := m.mustLookup(n, info.super.JavaName())
	best := m.u.choose(m.u.constructors(super, 0), nil)
	if best == nil {
		m.failf(n, "Implicit super constructor %s() is undefined. Must explicitly invoke another constructor", simpleName(super.name.Name))
	}
	return &decl.ExprStmt{X: &decl.MethodCall{Sig: super.signature(best.method), Args: []decl.Expr{}}}
}

func (m *methodCtx) explicitConstructorCall(n *sitter.Node) decl.Stmt {
	if n.ChildByFieldName("object") != nil {
		m.failf(n, "Qualified superclass constructor calls are not supported")
	}
	target := m.pt.info
	kind := m.text(n.ChildByFieldName("constructor"))
	if kind == "super" {
		if target.super == nil {
			return &decl.Block{}
		}
		target = m.mustLookup(n, target.super.JavaName())
	}
	// arguments are evaluated before the instance exists
	m.static = true
	args := m.args(n.ChildByFieldName("arguments"))
	m.static = false
	best := m.u.choose(m.u.constructors(target, len(args)), argTypes(args))
	if best == nil {
		m.failf(n, "The constructor %s(%s) is undefined", simpleName(target.name.Name), describeAll(argTypes(args)))
	}
	return &decl.ExprStmt{X: &decl.MethodCall{Sig: target.signature(best.method), Args: m.convertArgs(n, best.method, args)}}
}
