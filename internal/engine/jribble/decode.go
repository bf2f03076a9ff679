package jribble

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/engine/decl"
)

// decodeError aborts a decode from arbitrarily deep inside the message.
type decodeError struct{ msg string }

func fail(format string, args ...any) {
	panic(decodeError{msg: fmt.Sprintf(format, args...)})
}

func catch(err *error) {
	if r := recover(); r != nil {
		de, ok := r.(decodeError)
		if !ok {
			panic(r)
		}
		*err = errors.New(errors.CodeCorrupt, de.msg)
	}
}

// DecodeType converts a DeclaredType wire message into a decl value.
func (s *Schema) DecodeType(m proto.Message) (t *decl.DeclaredType, err error) {
	defer catch(&err)
	return decodeDeclaredType(m.ProtoReflect()), nil
}

// DecodeUnit converts a CompilationUnit wire message into a decl value.
func (s *Schema) DecodeUnit(m proto.Message) (u *decl.CompilationUnitDecl, err error) {
	defer catch(&err)
	r := m.ProtoReflect()
	u = &decl.CompilationUnitDecl{
		Package:    getString(r, "pkg"),
		SourceFile: getString(r, "source_file"),
	}
	for _, t := range getList(r, "type") {
		u.Types = append(u.Types, decodeDeclaredType(t))
	}
	return u, nil
}

// UnmarshalType is the inverse of MarshalType.
func (s *Schema) UnmarshalType(b []byte) (*decl.DeclaredType, error) {
	m := s.New("DeclaredType")
	if err := proto.Unmarshal(b, m); err != nil {
		return nil, errors.Wrap(err, errors.CodeCorrupt, "decoding declared type")
	}
	return s.DecodeType(m)
}

func getString(m protoreflect.Message, name string) string {
	return m.Get(field(m, name)).String()
}

func getBool(m protoreflect.Message, name string) bool {
	return m.Get(field(m, name)).Bool()
}

func getInt(m protoreflect.Message, name string) int {
	return int(m.Get(field(m, name)).Int())
}

func getEnum(m protoreflect.Message, name string, max int) int {
	n := int(m.Get(field(m, name)).Enum())
	if n <= 0 || n > max {
		fail("%s.%s: enum value %d out of range", m.Descriptor().Name(), name, n)
	}
	return n
}

func has(m protoreflect.Message, name string) bool {
	return m.Has(field(m, name))
}

// getMessage returns the sub-message in field name, failing when absent.
func getMessage(m protoreflect.Message, name string) protoreflect.Message {
	if !has(m, name) {
		fail("%s: missing %s", m.Descriptor().Name(), name)
	}
	return m.Get(field(m, name)).Message()
}

func getList(m protoreflect.Message, name string) []protoreflect.Message {
	list := m.Get(field(m, name)).List()
	out := make([]protoreflect.Message, list.Len())
	for i := range out {
		out[i] = list.Get(i).Message()
	}
	return out
}

func oneof(m protoreflect.Message) (string, protoreflect.Message) {
	od := m.Descriptor().Oneofs().ByName("kind")
	fd := m.WhichOneof(od)
	if fd == nil {
		fail("%s: no kind set", m.Descriptor().Name())
	}
	return string(fd.Name()), m.Get(fd).Message()
}

func decodeGlobalName(m protoreflect.Message) decl.GlobalName {
	g := decl.GlobalName{Pkg: getString(m, "pkg"), Name: getString(m, "name")}
	if g.Name == "" {
		fail("GlobalName: empty name")
	}
	return g
}

func optGlobalName(m protoreflect.Message, name string) *decl.GlobalName {
	if !has(m, name) {
		return nil
	}
	g := decodeGlobalName(getMessage(m, name))
	return &g
}

func decodeType(m protoreflect.Message) decl.Type {
	t := decl.Type{Kind: decl.TypeKind(getEnum(m, "kind", int(decl.KindVoid)))}
	switch t.Kind {
	case decl.KindPrimitive:
		t.Primitive = decl.PrimitiveKind(getEnum(m, "primitive", int(decl.Short)))
	case decl.KindNamed:
		t.Named = decodeGlobalName(getMessage(m, "named"))
	case decl.KindArray:
		elem := decodeType(getMessage(m, "element"))
		t.Elem = &elem
	}
	return t
}

func decodeModifiers(m protoreflect.Message) decl.Modifiers {
	return decl.Modifiers{
		Public:       getBool(m, "is_public"),
		Protected:    getBool(m, "is_protected"),
		Private:      getBool(m, "is_private"),
		Static:       getBool(m, "is_static"),
		Final:        getBool(m, "is_final"),
		Abstract:     getBool(m, "is_abstract"),
		Volatile:     getBool(m, "is_volatile"),
		Native:       getBool(m, "is_native"),
		Transient:    getBool(m, "is_transient"),
		Synchronized: getBool(m, "is_synchronized"),
	}
}

func decodeDeclaredType(m protoreflect.Message) *decl.DeclaredType {
	t := &decl.DeclaredType{
		Name:        decodeGlobalName(getMessage(m, "name")),
		IsInterface: getBool(m, "is_interface"),
		Ext:         optGlobalName(m, "ext"),
		Outer:       optGlobalName(m, "outer"),
		IsLocal:     getBool(m, "is_local"),
		SourceFile:  getString(m, "source_file"),
		Line:        getInt(m, "line"),
	}
	if has(m, "modifiers") {
		t.Modifiers = decodeModifiers(getMessage(m, "modifiers"))
	}
	for _, i := range getList(m, "implements") {
		t.Implements = append(t.Implements, decodeGlobalName(i))
	}
	for _, d := range getList(m, "member") {
		t.Members = append(t.Members, decodeMember(d))
	}
	return t
}

func decodeMember(m protoreflect.Message) decl.Member {
	d := decl.Member{
		Kind: decl.MemberKind(getEnum(m, "kind", int(decl.MemberInitializer))),
		Line: getInt(m, "line"),
	}
	if has(m, "modifiers") {
		d.Modifiers = decodeModifiers(getMessage(m, "modifiers"))
	}
	switch d.Kind {
	case decl.MemberField:
		f := getMessage(m, "field_def")
		d.Field = &decl.FieldDef{
			Name:        getString(f, "name"),
			Type:        decodeType(getMessage(f, "type")),
			Initializer: optExpr(f, "initializer"),
		}
	case decl.MemberMethod:
		d.Method = decodeMethod(getMessage(m, "method"))
	case decl.MemberInitializer:
		d.Init = decodeBlock(getMessage(m, "initializer"))
	}
	return d
}

func decodeMethod(m protoreflect.Message) *decl.Method {
	meth := &decl.Method{
		Name:          getString(m, "name"),
		IsConstructor: getBool(m, "is_constructor"),
		Jsni:          getString(m, "jsni"),
	}
	if meth.IsConstructor && !has(m, "return_type") {
		meth.ReturnType = decl.Void
	} else {
		meth.ReturnType = decodeType(getMessage(m, "return_type"))
	}
	for _, p := range getList(m, "param_def") {
		meth.Params = append(meth.Params, decl.ParamDef{
			Name: getString(p, "name"),
			Type: decodeType(getMessage(p, "type")),
		})
	}
	if has(m, "body") {
		meth.Body = decodeBlock(getMessage(m, "body"))
	}
	return meth
}

func decodeSignature(m protoreflect.Message) decl.MethodSignature {
	s := decl.MethodSignature{
		Name:       getString(m, "name"),
		Owner:      decodeGlobalName(getMessage(m, "owner")),
		ReturnType: decl.Void,
	}
	if has(m, "return_type") {
		s.ReturnType = decodeType(getMessage(m, "return_type"))
	}
	for _, p := range getList(m, "param_type") {
		s.ParamTypes = append(s.ParamTypes, decodeType(p))
	}
	return s
}

func decodeBlock(m protoreflect.Message) *decl.Block {
	b := &decl.Block{}
	for _, s := range getList(m, "statement") {
		b.Stmts = append(b.Stmts, decodeStmt(s))
	}
	return b
}

func optBlock(m protoreflect.Message, name string) *decl.Block {
	if !has(m, name) {
		return nil
	}
	return decodeBlock(getMessage(m, name))
}

func optStmt(m protoreflect.Message, name string) decl.Stmt {
	if !has(m, name) {
		return nil
	}
	return decodeStmt(getMessage(m, name))
}

func decodeStmt(m protoreflect.Message) decl.Stmt {
	kind, v := oneof(m)
	switch kind {
	case "block":
		return decodeBlock(v)
	case "var_def":
		return &decl.VarDef{
			Name:        getString(v, "name"),
			Type:        decodeType(getMessage(v, "type")),
			Initializer: optExpr(v, "initializer"),
			Final:       getBool(v, "is_final"),
		}
	case "expr":
		return &decl.ExprStmt{X: decodeExpr(v)}
	case "if_stat":
		return &decl.If{
			Cond: decodeExpr(getMessage(v, "condition")),
			Then: decodeStmt(getMessage(v, "then")),
			Else: optStmt(v, "elsee"),
		}
	case "while_stat":
		return &decl.While{
			Cond: decodeExpr(getMessage(v, "condition")),
			Body: decodeStmt(getMessage(v, "body")),
		}
	case "do_while":
		return &decl.DoWhile{
			Body: decodeStmt(getMessage(v, "body")),
			Cond: decodeExpr(getMessage(v, "condition")),
		}
	case "for_stat":
		f := &decl.For{Cond: optExpr(v, "condition"), Body: decodeStmt(getMessage(v, "body"))}
		for _, s := range getList(v, "init") {
			f.Init = append(f.Init, decodeStmt(s))
		}
		f.Update = decodeExprs(v, "update")
		return f
	case "try_stat":
		t := &decl.Try{Body: decodeBlock(getMessage(v, "block")), Finally: optBlock(v, "finalizer")}
		for _, c := range getList(v, "catch") {
			t.Catches = append(t.Catches, decl.Catch{
				Param: getString(c, "param"),
				Type:  decodeGlobalName(getMessage(c, "type")),
				Body:  decodeBlock(getMessage(c, "body")),
			})
		}
		return t
	case "switch_stat":
		sw := &decl.Switch{X: decodeExpr(getMessage(v, "expression"))}
		for _, c := range getList(v, "case") {
			var cs decl.Case
			if has(c, "constant") {
				cs.Const = decodeLiteral(getMessage(c, "constant"))
			}
			for _, s := range getList(c, "statement") {
				cs.Body = append(cs.Body, decodeStmt(s))
			}
			sw.Cases = append(sw.Cases, cs)
		}
		return sw
	case "return_stat":
		return &decl.Return{X: optExpr(v, "expression")}
	case "throw_stat":
		return &decl.Throw{X: decodeExpr(getMessage(v, "expression"))}
	case "break_stat":
		return &decl.Break{Label: getString(v, "label")}
	case "continue_stat":
		return &decl.Continue{Label: getString(v, "label")}
	case "labelled_stat":
		return &decl.Labelled{Label: getString(v, "label"), Body: decodeStmt(getMessage(v, "statement"))}
	}
	fail("unknown statement kind %s", kind)
	return nil
}

func decodeLiteral(m protoreflect.Message) *decl.Literal {
	l := &decl.Literal{Kind: decl.LiteralKind(getEnum(m, "kind", int(decl.LitNull)))}
	switch l.Kind {
	case decl.LitBool:
		l.Bool = getBool(m, "bool_value")
	case decl.LitChar, decl.LitByte, decl.LitShort, decl.LitInt, decl.LitLong:
		l.Int = m.Get(field(m, "int_value")).Int()
	case decl.LitFloat, decl.LitDouble:
		l.Float = m.Get(field(m, "float_value")).Float()
	case decl.LitString:
		l.Str = getString(m, "string_value")
	}
	return l
}

func optExpr(m protoreflect.Message, name string) decl.Expr {
	if !has(m, name) {
		return nil
	}
	return decodeExpr(getMessage(m, name))
}

func decodeExprs(m protoreflect.Message, name string) []decl.Expr {
	var out []decl.Expr
	for _, e := range getList(m, name) {
		out = append(out, decodeExpr(e))
	}
	return out
}

func decodeExpr(m protoreflect.Message) decl.Expr {
	kind, v := oneof(m)
	switch kind {
	case "literal":
		return decodeLiteral(v)
	case "var_ref":
		return &decl.VarRef{Name: getString(v, "name")}
	case "this_ref":
		return &decl.ThisRef{}
	case "super_ref":
		return &decl.SuperRef{}
	case "method_call":
		return &decl.MethodCall{
			Receiver: optExpr(v, "receiver"),
			Sig:      decodeSignature(getMessage(v, "signature")),
			Args:     decodeExprs(v, "argument"),
		}
	case "new_object":
		return &decl.NewObject{
			Class: decodeGlobalName(getMessage(v, "clazz")),
			Sig:   decodeSignature(getMessage(v, "signature")),
			Args:  decodeExprs(v, "argument"),
		}
	case "new_array":
		return &decl.NewArray{
			Elem:     decodeType(getMessage(v, "element_type")),
			Dims:     getInt(v, "dimensions"),
			DimExprs: decodeExprs(v, "dimension_expr"),
			Init:     decodeExprs(v, "init_expr"),
		}
	case "conditional":
		return &decl.Conditional{
			Cond: decodeExpr(getMessage(v, "condition")),
			Then: decodeExpr(getMessage(v, "then")),
			Else: decodeExpr(getMessage(v, "elsee")),
			Type: decodeType(getMessage(v, "type")),
		}
	case "cast":
		return &decl.Cast{Type: decodeType(getMessage(v, "type")), X: decodeExpr(getMessage(v, "expr"))}
	case "binary":
		return &decl.Binary{
			Op:   decl.BinaryOp(getEnum(v, "op", int(decl.OpGe))),
			Lhs:  decodeExpr(getMessage(v, "lhs")),
			Rhs:  decodeExpr(getMessage(v, "rhs")),
			Type: decodeType(getMessage(v, "type")),
		}
	case "unary":
		return &decl.Unary{
			Op: decl.UnaryOp(getEnum(v, "op", int(decl.OpPostDec))),
			X:  decodeExpr(getMessage(v, "expr")),
		}
	case "field_ref":
		return &decl.FieldRef{
			Qualifier: optExpr(v, "qualifier"),
			Owner:     decodeGlobalName(getMessage(v, "enclosing_type")),
			Name:      getString(v, "name"),
			Type:      decodeType(getMessage(v, "type")),
		}
	case "array_ref":
		return &decl.ArrayRef{Array: decodeExpr(getMessage(v, "array")), Index: decodeExpr(getMessage(v, "index"))}
	case "array_length":
		return &decl.ArrayLength{Array: decodeExpr(getMessage(v, "array"))}
	case "instance_of":
		return &decl.InstanceOf{X: decodeExpr(getMessage(v, "expr")), Type: decodeType(getMessage(v, "type"))}
	case "class_literal":
		return &decl.ClassLiteral{Type: decodeType(getMessage(v, "type"))}
	case "assignment":
		op := int(v.Get(field(v, "op")).Enum())
		if op < 0 || op > int(decl.OpGe) {
			fail("assignment: operator %d out of range", op)
		}
		return &decl.Assignment{
			Op:  decl.BinaryOp(op),
			Lhs: decodeExpr(getMessage(v, "lhs")),
			Rhs: decodeExpr(getMessage(v, "rhs")),
		}
	}
	fail("unknown expression kind %s", kind)
	return nil
}
