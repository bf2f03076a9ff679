package javafe

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"jjsdev/internal/engine/decl"
)

// value is a lowered expression with its static type. Generic types are
// erased, so reading a type variable yields its bound.
type value struct {
	x decl.Expr
	t decl.Type
}

func describe(t decl.Type) string {
	if isNull(t) {
		return "null"
	}
	return t.SourceName()
}

func describeAll(ts []decl.Type) string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = describe(t)
	}
	return strings.Join(out, ", ")
}

func argTypes(args []value) []decl.Type {
	out := make([]decl.Type, len(args))
	for i, a := range args {
		out[i] = a.t
	}
	return out
}

func isIntegral(t decl.Type) bool {
	switch primitiveOf(t) {
	case decl.Byte, decl.Short, decl.Char, decl.Int, decl.Long:
		return isNumeric(t)
	}
	return false
}

func isObject(t decl.Type) bool {
	return t.Kind == decl.KindNamed && t.Named.JavaName() == javaLangObject
}

func (m *methodCtx) mustLookup(n *sitter.Node, javaName string) *typeInfo {
	ti := m.u.lookup(javaName)
	if ti == nil {
		m.failf(n, "%s cannot be resolved to a type", javaName)
	}
	return ti
}

func (m *methodCtx) expr(n *sitter.Node) value {
	switch n.Kind() {
	case "parenthesized_expression":
		return m.expr(namedChildren(n)[0])
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal",
		"decimal_floating_point_literal", "hex_floating_point_literal",
		"true", "false", "null_literal", "character_literal", "string_literal":
		return literalValue(m.literal(n))
	case "this":
		if m.static {
			m.failf(n, "Cannot use this in a static context")
		}
		return value{x: &decl.ThisRef{}, t: decl.NamedType(m.pt.info.name)}
	case "identifier", "field_access":
		return m.valueOf(n, m.ambiguous(n))
	case "method_invocation":
		return m.call(n)
	case "object_creation_expression":
		return m.newObject(n)
	case "array_creation_expression":
		return m.newArray(n)
	case "array_access":
		arr := m.expr(n.ChildByFieldName("array"))
		if arr.t.Kind != decl.KindArray {
			m.failf(n, "The type of the expression must be an array type but it resolved to %s", describe(arr.t))
		}
		idx := n.ChildByFieldName("index")
		return value{
			x: &decl.ArrayRef{Array: arr.x, Index: m.coerce(idx, m.expr(idx), decl.Prim(decl.Int))},
			t: *arr.t.Elem,
		}
	case "assignment_expression":
		return m.assign(n)
	case "binary_expression":
		return m.binary(n)
	case "unary_expression":
		return m.unary(n)
	case "update_expression":
		return m.update(n)
	case "ternary_expression":
		return m.ternary(n)
	case "cast_expression":
		return m.cast(n)
	case "instanceof_expression":
		return m.instanceOf(n)
	case "class_literal":
		t := m.resolveType(namedChildren(n)[0], m.scope)
		return value{x: &decl.ClassLiteral{Type: t}, t: decl.Named("java.lang.Class")}
	case "array_initializer":
		m.failf(n, "Array constants can only be used in initializers")
	case "lambda_expression":
		m.failf(n, "Lambda expressions are not supported")
	case "method_reference":
		m.failf(n, "Method references are not supported")
	case "switch_expression":
		m.failf(n, "Switch expressions are not supported")
	}
	m.unsupported(n)
	return value{}
}

func literalValue(l *decl.Literal) value {
	v := value{x: l}
	switch l.Kind {
	case decl.LitBool:
		v.t = decl.Prim(decl.Boolean)
	case decl.LitChar:
		v.t = decl.Prim(decl.Char)
	case decl.LitInt:
		v.t = decl.Prim(decl.Int)
	case decl.LitLong:
		v.t = decl.Prim(decl.Long)
	case decl.LitFloat:
		v.t = decl.Prim(decl.Float)
	case decl.LitDouble:
		v.t = decl.Prim(decl.Double)
	case decl.LitString:
		v.t = decl.Named(javaLangString)
	case decl.LitNull:
		v.t = nullType
	}
	return v
}

// meaning is what a possibly qualified name denotes: a value, a type for
// static member access, or a package prefix.
type meaning struct {
	v   *value
	typ *typeInfo
	pkg string
}

func (m *methodCtx) ambiguous(n *sitter.Node) meaning {
	switch n.Kind() {
	case "identifier":
		id := m.text(n)
		if v, ok := m.variable(n, id); ok {
			return meaning{v: &v}
		}
		if t, ok := m.simpleType(id, m.scope); ok && t.Kind == decl.KindNamed {
			m.refSimple(id)
			m.refType(t)
			return meaning{typ: m.mustLookup(n, t.Named.JavaName())}
		}
		return meaning{pkg: id}
	case "field_access":
		obj := n.ChildByFieldName("object")
		field := m.text(n.ChildByFieldName("field"))
		var left meaning
		switch obj.Kind() {
		case "identifier", "field_access":
			left = m.ambiguous(obj)
		case "super":
			left = meaning{v: &value{x: &decl.SuperRef{}, t: m.superType(obj)}}
		default:
			v := m.expr(obj)
			left = meaning{v: &v}
		}
		switch {
		case left.v != nil:
			v := m.member(n, *left.v, field)
			return meaning{v: &v}
		case left.typ != nil:
			if holder, f := m.u.findField(left.typ, field); f != nil {
				if !f.static {
					m.failf(n, "Cannot make a static reference to the non-static field %s", field)
				}
				m.refName(holder.javaName())
				return meaning{v: &value{x: &decl.FieldRef{Owner: holder.name, Name: field, Type: f.typ}, t: f.typ}}
			}
			if nested := left.typ.javaName() + "$" + field; m.u.exists(nested) {
				m.refName(nested)
				return meaning{typ: m.mustLookup(n, nested)}
			}
			m.failf(n, "%s cannot be resolved or is not a field", field)
		default:
			full := left.pkg + "." + field
			if m.u.exists(full) {
				m.refName(full)
				return meaning{typ: m.mustLookup(n, full)}
			}
			return meaning{pkg: full}
		}
	}
	v := m.expr(n)
	return meaning{v: &v}
}

func (m *methodCtx) valueOf(n *sitter.Node, nm meaning) value {
	if nm.v == nil {
		m.failf(n, "%s cannot be resolved to a variable", m.text(n))
	}
	return *nm.v
}

func (m *methodCtx) superType(n *sitter.Node) decl.Type {
	if m.static {
		m.failf(n, "Cannot use super in a static context")
	}
	super := m.pt.info.super
	if super == nil {
		m.failf(n, "%s has no superclass", m.pt.info.name.Name)
	}
	return decl.NamedType(*super)
}

// variable resolves a simple name to a local, a field of an enclosing
// type or a statically imported field.
func (m *methodCtx) variable(n *sitter.Node, id string) (value, bool) {
	if t, ok := m.local(id); ok {
		return value{x: &decl.VarRef{Name: id}, t: t}, true
	}
	for sc := m.scope; sc != nil; sc = sc.parent {
		if sc.owner == nil {
			continue
		}
		holder, f := m.u.findField(sc.owner, id)
		if f == nil {
			continue
		}
		m.refName(holder.javaName())
		ref := &decl.FieldRef{Owner: holder.name, Name: id, Type: f.typ}
		if !f.static {
			if sc.owner != m.pt.info {
				m.failf(n, "Access to the enclosing instance field %s is not supported", id)
			}
			if m.static {
				m.failf(n, "Cannot make a static reference to the non-static field %s", id)
			}
			ref.Qualifier = &decl.ThisRef{}
		}
		return value{x: ref, t: f.typ}, true
	}
	for _, owner := range m.staticOwners(id) {
		ti := m.u.lookup(owner)
		if ti == nil {
			continue
		}
		if holder, f := m.u.findField(ti, id); f != nil && f.static {
			m.refName(holder.javaName())
			return value{x: &decl.FieldRef{Owner: holder.name, Name: id, Type: f.typ}, t: f.typ}, true
		}
	}
	return value{}, false
}

func (m *methodCtx) staticOwners(member string) []string {
	return append(append([]string(nil), m.staticSingle[member]...), m.staticOnDemand...)
}

// member reads field of recv. Arrays only have length.
func (m *methodCtx) member(n *sitter.Node, recv value, field string) value {
	switch recv.t.Kind {
	case decl.KindArray:
		if field == "length" {
			return value{x: &decl.ArrayLength{Array: recv.x}, t: decl.Prim(decl.Int)}
		}
	case decl.KindNamed:
		ti := m.mustLookup(n, recv.t.Named.JavaName())
		if holder, f := m.u.findField(ti, field); f != nil {
			m.refName(holder.javaName())
			ref := &decl.FieldRef{Qualifier: recv.x, Owner: holder.name, Name: field, Type: f.typ}
			if f.static {
				ref.Qualifier = nil
			}
			return value{x: ref, t: f.typ}
		}
	default:
		m.failf(n, "Cannot access field %s on type %s", field, describe(recv.t))
	}
	m.failf(n, "%s cannot be resolved or is not a field", field)
	return value{}
}

func (m *methodCtx) args(n *sitter.Node) []value {
	out := []value{}
	for _, a := range namedChildren(n) {
		out = append(out, m.expr(a))
	}
	return out
}

func (m *methodCtx) convertArgs(n *sitter.Node, mi *methodInfo, args []value) []decl.Expr {
	out := make([]decl.Expr, len(args))
	for i, a := range args {
		out[i] = m.coerce(n, a, mi.params[i])
	}
	return out
}

func (m *methodCtx) invoke(n *sitter.Node, best *candidate, recv decl.Expr, args []value) value {
	m.refName(best.owner.javaName())
	if best.method.static {
		recv = nil
	}
	return value{
		x: &decl.MethodCall{
			Receiver: recv,
			Sig:      best.owner.signature(best.method),
			Args:     m.convertArgs(n, best.method, args),
		},
		t: best.method.ret,
	}
}

func (m *methodCtx) notApplicable(n *sitter.Node, method string, owner *typeInfo, args []value) {
	m.failf(n, "The method %s(%s) is undefined for the type %s", method, describeAll(argTypes(args)), simpleName(owner.name.Name))
}

func (m *methodCtx) call(n *sitter.Node) value {
	obj := n.ChildByFieldName("object")
	method := m.text(n.ChildByFieldName("name"))
	args := m.args(n.ChildByFieldName("arguments"))
	types := argTypes(args)

	if obj == nil {
		for sc := m.scope; sc != nil; sc = sc.parent {
			if sc.owner == nil {
				continue
			}
			cands := m.u.methods(sc.owner, method, len(args))
			if len(cands) == 0 {
				continue
			}
			best := m.u.choose(cands, types)
			if best == nil {
				m.notApplicable(n, method, sc.owner, args)
			}
			var recv decl.Expr
			if !best.method.static {
				if sc.owner != m.pt.info {
					m.failf(n, "Calling the enclosing instance method %s is not supported", method)
				}
				if m.static {
					m.failf(n, "Cannot make a static reference to the non-static method %s(%s)", method, describeAll(best.method.params))
				}
				recv = &decl.ThisRef{}
			}
			return m.invoke(n, best, recv, args)
		}
		for _, owner := range m.staticOwners(method) {
			ti := m.u.lookup(owner)
			if ti == nil {
				continue
			}
			if best := m.u.choose(m.u.methods(ti, method, len(args)), types); best != nil && best.method.static {
				return m.invoke(n, best, nil, args)
			}
		}
		m.notApplicable(n, method, m.pt.info, args)
	}

	var recv value
	switch obj.Kind() {
	case "super":
		recv = value{x: &decl.SuperRef{}, t: m.superType(obj)}
	case "identifier", "field_access":
		left := m.ambiguous(obj)
		if left.typ != nil {
			best := m.u.choose(m.u.methods(left.typ, method, len(args)), types)
			if best == nil {
				m.notApplicable(n, method, left.typ, args)
			}
			if !best.method.static {
				m.failf(n, "Cannot make a static reference to the non-static method %s(%s) from the type %s",
					method, describeAll(best.method.params), simpleName(left.typ.name.Name))
			}
			return m.invoke(n, best, nil, args)
		}
		recv = m.valueOf(obj, left)
	default:
		recv = m.expr(obj)
	}
	owner := m.receiverType(obj, recv.t)
	best := m.u.choose(m.u.methods(owner, method, len(args)), types)
	if best == nil {
		m.notApplicable(n, method, owner, args)
	}
	return m.invoke(n, best, recv.x, args)
}

// receiverType is the type whose methods a call on t sees. Arrays have
// the methods of Object.
func (m *methodCtx) receiverType(n *sitter.Node, t decl.Type) *typeInfo {
	switch t.Kind {
	case decl.KindNamed:
		return m.mustLookup(n, t.Named.JavaName())
	case decl.KindArray:
		return m.mustLookup(n, javaLangObject)
	}
	m.failf(n, "Cannot invoke a method on the type %s", describe(t))
	return nil
}

// methodCall calls the no-argument method named method on recv.
func (m *methodCtx) methodCall(n *sitter.Node, recv value, method string) value {
	owner := m.receiverType(n, recv.t)
	best := m.u.choose(m.u.methods(owner, method, 0), nil)
	if best == nil {
		m.notApplicable(n, method, owner, nil)
	}
	return m.invoke(n, best, recv.x, nil)
}

func (m *methodCtx) newObject(n *sitter.Node) value {
	if childOfKind(n, "class_body") != nil {
		m.failf(n, "Anonymous classes are not supported")
	}
	for _, ch := range children(n) {
		if ch.Kind() == "." {
			m.failf(n, "Qualified instance creation is not supported")
		}
	}
	t := m.resolveType(n.ChildByFieldName("type"), m.scope)
	if t.Kind != decl.KindNamed {
		m.failf(n, "Cannot instantiate the type %s", t.SourceName())
	}
	ti := m.mustLookup(n, t.Named.JavaName())
	if ti.isInterface || ti.isAbstract {
		m.failf(n, "Cannot instantiate the type %s", simpleName(ti.name.Name))
	}
	args := m.args(n.ChildByFieldName("arguments"))
	best := m.u.choose(m.u.constructors(ti, len(args)), argTypes(args))
	if best == nil {
		m.failf(n, "The constructor %s(%s) is undefined", simpleName(ti.name.Name), describeAll(argTypes(args)))
	}
	return value{
		x: &decl.NewObject{Class: ti.name, Sig: ti.signature(best.method), Args: m.convertArgs(n, best.method, args)},
		t: decl.NamedType(ti.name),
	}
}

func (m *methodCtx) newArray(n *sitter.Node) value {
	elem := m.resolveType(n.ChildByFieldName("type"), m.scope)
	var dimExprs []decl.Expr
	for _, d := range childrenOfKind(n, "dimensions_expr") {
		e := namedChildren(d)[0]
		dimExprs = append(dimExprs, m.coerce(e, m.expr(e), decl.Prim(decl.Int)))
	}
	total := len(dimExprs)
	for _, d := range childrenOfKind(n, "dimensions") {
		total += dims(m.text(d))
	}
	t := arrayOf(elem, total)
	if init := n.ChildByFieldName("value"); init != nil {
		return value{x: m.arrayInit(init, t), t: t}
	}
	return value{x: &decl.NewArray{Elem: elem, Dims: total, DimExprs: dimExprs}, t: t}
}

func (m *methodCtx) lvalue(n *sitter.Node) value {
	v := m.expr(n)
	switch v.x.(type) {
	case *decl.VarRef, *decl.FieldRef, *decl.ArrayRef:
		return v
	}
	m.failf(n, "The left-hand side of an assignment must be a variable")
	return value{}
}

var compoundOps = map[string]decl.BinaryOp{
	"+=": decl.OpAdd, "-=": decl.OpSub, "*=": decl.OpMul, "/=": decl.OpDiv, "%=": decl.OpMod,
	"<<=": decl.OpShl, ">>=": decl.OpShr, ">>>=": decl.OpUshr,
	"&=": decl.OpBitAnd, "|=": decl.OpBitOr, "^=": decl.OpBitXor,
}

func (m *methodCtx) assign(n *sitter.Node) value {
	lhs := m.lvalue(n.ChildByFieldName("left"))
	op := m.text(n.ChildByFieldName("operator"))
	right := n.ChildByFieldName("right")
	if op == "=" {
		return value{x: &decl.Assignment{Lhs: lhs.x, Rhs: m.initializerExpr(right, lhs.t)}, t: lhs.t}
	}
	bop, ok := compoundOps[op]
	if !ok {
		m.failf(n, "Unknown assignment operator %s", op)
	}
	rhs := m.expr(right)
	if op == "+=" && isString(lhs.t) {
		return value{x: &decl.Assignment{Op: decl.OpConcat, Lhs: lhs.x, Rhs: rhs.x}, t: lhs.t}
	}
	if lhs.t.Kind != decl.KindPrimitive {
		m.failf(n, "The operator %s is undefined for the argument type(s) %s, %s", op, describe(lhs.t), describe(rhs.t))
	}
	switch bop {
	case decl.OpBitAnd, decl.OpBitOr, decl.OpBitXor:
		if isBoolean(lhs.t) != isBoolean(rhs.t) || (!isBoolean(lhs.t) && !(isIntegral(lhs.t) && isIntegral(rhs.t))) {
			m.failf(n, "The operator %s is undefined for the argument type(s) %s, %s", op, describe(lhs.t), describe(rhs.t))
		}
	case decl.OpShl, decl.OpShr, decl.OpUshr:
		if !isIntegral(lhs.t) || !isIntegral(rhs.t) {
			m.failf(n, "The operator %s is undefined for the argument type(s) %s, %s", op, describe(lhs.t), describe(rhs.t))
		}
	default:
		if !isNumeric(lhs.t) || !isNumeric(rhs.t) {
			m.failf(n, "The operator %s is undefined for the argument type(s) %s, %s", op, describe(lhs.t), describe(rhs.t))
		}
	}
	return value{x: &decl.Assignment{Op: bop, Lhs: lhs.x, Rhs: m.unbox(rhs).x}, t: lhs.t}
}

// initializerExpr rejects array initializers outside declarations.
func (m *methodCtx) initializerExpr(n *sitter.Node, t decl.Type) decl.Expr {
	if n.Kind() == "array_initializer" {
		m.failf(n, "Array constants can only be used in initializers")
	}
	return m.coerce(n, m.expr(n), t)
}

var binaryOps = map[string]decl.BinaryOp{
	"&&": decl.OpAnd, "||": decl.OpOr, "&": decl.OpBitAnd, "|": decl.OpBitOr, "^": decl.OpBitXor,
	"<<": decl.OpShl, ">>": decl.OpShr, ">>>": decl.OpUshr,
	"+": decl.OpAdd, "-": decl.OpSub, "*": decl.OpMul, "/": decl.OpDiv, "%": decl.OpMod,
	"==": decl.OpEq, "!=": decl.OpNe, "<": decl.OpLt, "<=": decl.OpLe, ">": decl.OpGt, ">=": decl.OpGe,
}

func (m *methodCtx) binary(n *sitter.Node) value {
	op := m.text(n.ChildByFieldName("operator"))
	l, r := m.expr(n.ChildByFieldName("left")), m.expr(n.ChildByFieldName("right"))
	bop, ok := binaryOps[op]
	if !ok {
		m.failf(n, "Unknown operator %s", op)
	}
	undefined := func() {
		m.failf(n, "The operator %s is undefined for the argument type(s) %s, %s", op, describe(l.t), describe(r.t))
	}
	boolean := decl.Prim(decl.Boolean)
	out := &decl.Binary{Op: bop}
	switch bop {
	case decl.OpAnd, decl.OpOr:
		if !isBoolean(l.t) || !isBoolean(r.t) {
			undefined()
		}
		out.Type = boolean
	case decl.OpAdd:
		if isString(l.t) || isString(r.t) {
			if l.t.Kind == decl.KindVoid || r.t.Kind == decl.KindVoid {
				undefined()
			}
			out.Op, out.Lhs, out.Rhs, out.Type = decl.OpConcat, l.x, r.x, decl.Named(javaLangString)
			return value{x: out, t: out.Type}
		}
		fallthrough
	case decl.OpSub, decl.OpMul, decl.OpDiv, decl.OpMod:
		if !isNumeric(l.t) || !isNumeric(r.t) {
			undefined()
		}
		out.Type = promote(l.t, r.t)
	case decl.OpShl, decl.OpShr, decl.OpUshr:
		if !isIntegral(l.t) || !isIntegral(r.t) {
			undefined()
		}
		out.Type = promote(l.t, l.t)
	case decl.OpBitAnd, decl.OpBitOr, decl.OpBitXor:
		switch {
		case isBoolean(l.t) && isBoolean(r.t):
			out.Type = boolean
		case isIntegral(l.t) && isIntegral(r.t):
			out.Type = promote(l.t, r.t)
		default:
			undefined()
		}
	case decl.OpEq, decl.OpNe:
		numeric := isNumeric(l.t) && isNumeric(r.t) && (l.t.Kind == decl.KindPrimitive || r.t.Kind == decl.KindPrimitive)
		booleans := isBoolean(l.t) && isBoolean(r.t) && (l.t.Kind == decl.KindPrimitive || r.t.Kind == decl.KindPrimitive)
		refs := (l.t.IsReference() || isNull(l.t)) && (r.t.IsReference() || isNull(r.t))
		if !numeric && !booleans && !refs {
			undefined()
		}
		out.Type = boolean
		if refs && !numeric && !booleans {
			out.Lhs, out.Rhs = l.x, r.x
			return value{x: out, t: boolean}
		}
	default:
		if !isNumeric(l.t) || !isNumeric(r.t) {
			undefined()
		}
		out.Type = boolean
	}
	out.Lhs, out.Rhs = m.unbox(l).x, m.unbox(r).x
	return value{x: out, t: out.Type}
}

func (m *methodCtx) unary(n *sitter.Node) value {
	op := m.text(n.ChildByFieldName("operator"))
	operand := n.ChildByFieldName("operand")
	if op == "-" {
		if lit := m.constant(n); lit != nil {
			return literalValue(lit)
		}
	}
	v := m.expr(operand)
	switch op {
	case "-", "+":
		if !isNumeric(v.t) {
			break
		}
		t := promote(v.t, v.t)
		if op == "+" {
			return value{x: m.unbox(v).x, t: t}
		}
		return value{x: &decl.Unary{Op: decl.OpNeg, X: m.unbox(v).x}, t: t}
	case "!":
		if isBoolean(v.t) {
			return value{x: &decl.Unary{Op: decl.OpNot, X: m.unbox(v).x}, t: decl.Prim(decl.Boolean)}
		}
	case "~":
		if isIntegral(v.t) {
			return value{x: &decl.Unary{Op: decl.OpBitNot, X: m.unbox(v).x}, t: promote(v.t, v.t)}
		}
	}
	m.failf(n, "The operator %s is undefined for the argument type(s) %s", op, describe(v.t))
	return value{}
}

func (m *methodCtx) update(n *sitter.Node) value {
	kids := children(n)
	prefix := kids[0].Kind() == "++" || kids[0].Kind() == "--"
	opNode := kids[len(kids)-1]
	if prefix {
		opNode = kids[0]
	}
	v := m.lvalue(namedChildren(n)[0])
	if v.t.Kind != decl.KindPrimitive || !isNumeric(v.t) {
		m.failf(n, "Invalid argument to operation %s", opNode.Kind())
	}
	var op decl.UnaryOp
	switch {
	case prefix && opNode.Kind() == "++":
		op = decl.OpPreInc
	case prefix:
		op = decl.OpPreDec
	case opNode.Kind() == "++":
		op = decl.OpPostInc
	default:
		op = decl.OpPostDec
	}
	return value{x: &decl.Unary{Op: op, X: v.x}, t: v.t}
}

func (m *methodCtx) ternary(n *sitter.Node) value {
	cond := m.condition(n.ChildByFieldName("condition"))
	thenNode, elseNode := n.ChildByFieldName("consequence"), n.ChildByFieldName("alternative")
	a, b := m.expr(thenNode), m.expr(elseNode)
	var t decl.Type
	switch {
	case a.t.Equal(b.t):
		t = a.t
	case isNumeric(a.t) && isNumeric(b.t):
		t = promote(a.t, b.t)
		if primitiveOf(a.t) == primitiveOf(b.t) {
			t = decl.Prim(primitiveOf(a.t))
		}
	case isBoolean(a.t) && isBoolean(b.t):
		t = decl.Prim(decl.Boolean)
	case isNull(a.t) && isNull(b.t):
		t = decl.Named(javaLangObject)
	case isNull(a.t):
		t = m.boxedType(b.t)
	case isNull(b.t):
		t = m.boxedType(a.t)
	default:
		at, bt := m.boxedType(a.t), m.boxedType(b.t)
		switch {
		case m.u.assignable(at, bt, false):
			t = bt
		case m.u.assignable(bt, at, false):
			t = at
		default:
			t = decl.Named(javaLangObject)
		}
	}
	return value{
		x: &decl.Conditional{Cond: cond, Then: m.coerce(thenNode, a, t), Else: m.coerce(elseNode, b, t), Type: t},
		t: t,
	}
}

func (m *methodCtx) boxedType(t decl.Type) decl.Type {
	if t.Kind == decl.KindPrimitive {
		return decl.Named(boxes[t.Primitive])
	}
	return t
}

func (m *methodCtx) cast(n *sitter.Node) value {
	typeNode := n.ChildByFieldName("type")
	if len(namedChildren(n)) > 2 {
		m.failf(n, "Intersection casts are not supported")
	}
	t := m.resolveType(typeNode, m.scope)
	v := m.expr(n.ChildByFieldName("value"))
	cannot := func() {
		m.failf(n, "Cannot cast from %s to %s", describe(v.t), t.SourceName())
	}
	switch {
	case t.Kind == decl.KindPrimitive && v.t.Kind == decl.KindPrimitive:
		if (t.Primitive == decl.Boolean) != (v.t.Primitive == decl.Boolean) {
			cannot()
		}
		if t.Primitive == v.t.Primitive {
			return v
		}
		return value{x: &decl.Cast{Type: t, X: v.x}, t: t}
	case t.Kind == decl.KindPrimitive:
		if k, ok := unboxedKind(v.t); ok && widens(k, t.Primitive) {
			u := m.unbox(v)
			if k == t.Primitive {
				return u
			}
			return value{x: &decl.Cast{Type: t, X: u.x}, t: t}
		}
		if isObject(v.t) {
			return m.unbox(value{x: &decl.Cast{Type: decl.Named(boxes[t.Primitive]), X: v.x}, t: decl.Named(boxes[t.Primitive])})
		}
		cannot()
	case v.t.Kind == decl.KindPrimitive:
		box := decl.Named(boxes[v.t.Primitive])
		if !m.u.assignable(box, t, false) {
			cannot()
		}
		return value{x: m.boxed(v).x, t: t}
	}
	if !isNull(v.t) && !m.castable(v.t, t) {
		cannot()
	}
	return value{x: &decl.Cast{Type: t, X: v.x}, t: t}
}

// castable allows any cast involving an interface, as javac does for
// non-final classes.
func (m *methodCtx) castable(from, to decl.Type) bool {
	if m.u.assignable(from, to, false) || m.u.assignable(to, from, false) {
		return true
	}
	if from.Kind != decl.KindNamed || to.Kind != decl.KindNamed {
		return false
	}
	fi, fk := m.u.isInterface(from.Named.JavaName())
	ti, tk := m.u.isInterface(to.Named.JavaName())
	return !fk || !tk || fi || ti
}

func (m *methodCtx) instanceOf(n *sitter.Node) value {
	if n.ChildByFieldName("name") != nil || childOfKind(n, "record_pattern", "type_pattern") != nil {
		m.failf(n, "instanceof patterns are not supported")
	}
	v := m.expr(n.ChildByFieldName("left"))
	t := m.resolveType(n.ChildByFieldName("right"), m.scope)
	if !v.t.IsReference() && !isNull(v.t) {
		m.failf(n, "Incompatible conditional operand types %s and %s", describe(v.t), t.SourceName())
	}
	if !t.IsReference() {
		m.failf(n, "Syntax error, %s is not a reference type", t.SourceName())
	}
	return value{x: &decl.InstanceOf{X: v.x, Type: t}, t: decl.Prim(decl.Boolean)}
}

// unbox converts a boxed value to its primitive through xxxValue().
func (m *methodCtx) unbox(v value) value {
	k, ok := unboxedKind(v.t)
	if !ok {
		return v
	}
	box := v.t.Named
	m.refName(box.JavaName())
	return value{
		x: &decl.MethodCall{
			Receiver: v.x,
			Sig:      decl.MethodSignature{Name: k.String() + "Value", Owner: box, ReturnType: decl.Prim(k)},
			Args:     []decl.Expr{},
		},
		t: decl.Prim(k),
	}
}

// boxed converts a primitive through the box's static valueOf.
func (m *methodCtx) boxed(v value) value {
	box := decl.ParseGlobalName(boxes[v.t.Primitive])
	m.refName(box.JavaName())
	return value{
		x: &decl.MethodCall{
			Sig: decl.MethodSignature{
				Name:       "valueOf",
				Owner:      box,
				ParamTypes: []decl.Type{v.t},
				ReturnType: decl.NamedType(box),
			},
			Args: []decl.Expr{v.x},
		},
		t: decl.NamedType(box),
	}
}

// coerce applies assignment conversion of v to t. A value of erased type
// Object is cast to the expected reference type.
func (m *methodCtx) coerce(n *sitter.Node, v value, t decl.Type) decl.Expr {
	mismatch := func() {
		m.failf(n, "Type mismatch: cannot convert from %s to %s", describe(v.t), t.SourceName())
	}
	from := v.t
	switch {
	case t.Kind == decl.KindVoid || from.Kind == decl.KindVoid:
		mismatch()
	case isNull(from):
		if !t.IsReference() {
			mismatch()
		}
		return v.x
	case from.Equal(t):
		return v.x
	case from.Kind == decl.KindPrimitive && t.Kind == decl.KindPrimitive:
		if widens(from.Primitive, t.Primitive) {
			return v.x
		}
		if lit, ok := v.x.(*decl.Literal); ok && lit.Kind == decl.LitInt && fitsConstant(lit.Int, t.Primitive) {
			return narrowLiteral(lit, t.Primitive)
		}
		mismatch()
	case from.Kind == decl.KindPrimitive:
		if t.Kind != decl.KindNamed || !m.u.isSubtype(boxes[from.Primitive], t.Named.JavaName()) {
			mismatch()
		}
		return m.boxed(v).x
	case t.Kind == decl.KindPrimitive:
		if k, ok := unboxedKind(from); ok && widens(k, t.Primitive) {
			return m.unbox(v).x
		}
		if isObject(from) {
			box := decl.Named(boxes[t.Primitive])
			return m.unbox(value{x: &decl.Cast{Type: box, X: v.x}, t: box}).x
		}
		mismatch()
	}
	if !m.u.assignable(from, t, false) {
		mismatch()
	}
	if isObject(from) && !isObject(t) {
		return &decl.Cast{Type: t, X: v.x}
	}
	return v.x
}

func fitsConstant(v int64, k decl.PrimitiveKind) bool {
	switch k {
	case decl.Byte:
		return v >= -128 && v <= 127
	case decl.Short:
		return v >= -32768 && v <= 32767
	case decl.Char:
		return v >= 0 && v <= 0xFFFF
	}
	return false
}

func narrowLiteral(l *decl.Literal, k decl.PrimitiveKind) *decl.Literal {
	out := *l
	switch k {
	case decl.Byte:
		out.Kind = decl.LitByte
	case decl.Short:
		out.Kind = decl.LitShort
	case decl.Char:
		out.Kind = decl.LitChar
	}
	return &out
}
