package jribble

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"jjsdev/internal/engine/decl"
)

// EncodeType converts t into a DeclaredType wire message.
func (s *Schema) EncodeType(t *decl.DeclaredType) proto.Message {
	m := s.New("DeclaredType")
	encodeDeclaredType(m, t)
	return m
}

// EncodeUnit converts u into a CompilationUnit wire message.
func (s *Schema) EncodeUnit(u *decl.CompilationUnitDecl) proto.Message {
	m := s.New("CompilationUnit")
	setString(m, "pkg", u.Package)
	setString(m, "source_file", u.SourceFile)
	for _, t := range u.Types {
		encodeDeclaredType(appendMessage(m, "type"), t)
	}
	return m
}

// MarshalType renders t deterministically, so equal declarations always
// produce equal bytes.
func (s *Schema) MarshalType(t *decl.DeclaredType) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(s.EncodeType(t))
}

func field(m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic(fmt.Sprintf("jribble: %s has no field %s", m.Descriptor().Name(), name))
	}
	return fd
}

func setString(m protoreflect.Message, name, v string) {
	if v != "" {
		m.Set(field(m, name), protoreflect.ValueOfString(v))
	}
}

func setBool(m protoreflect.Message, name string, v bool) {
	if v {
		m.Set(field(m, name), protoreflect.ValueOfBool(v))
	}
}

func setInt32(m protoreflect.Message, name string, v int32) {
	if v != 0 {
		m.Set(field(m, name), protoreflect.ValueOfInt32(v))
	}
}

func setEnum(m protoreflect.Message, name string, v int) {
	if v != 0 {
		m.Set(field(m, name), protoreflect.ValueOfEnum(protoreflect.EnumNumber(v)))
	}
}

// mutable returns the sub-message in field name, populating it.
func mutable(m protoreflect.Message, name string) protoreflect.Message {
	return m.Mutable(field(m, name)).Message()
}

func appendMessage(m protoreflect.Message, name string) protoreflect.Message {
	list := m.Mutable(field(m, name)).List()
	elem := list.NewElement()
	list.Append(elem)
	return elem.Message()
}

func encodeGlobalName(m protoreflect.Message, g decl.GlobalName) {
	setString(m, "pkg", g.Pkg)
	setString(m, "name", g.Name)
}

func encodeType(m protoreflect.Message, t decl.Type) {
	setEnum(m, "kind", int(t.Kind))
	switch t.Kind {
	case decl.KindPrimitive:
		setEnum(m, "primitive", int(t.Primitive))
	case decl.KindNamed:
		encodeGlobalName(mutable(m, "named"), t.Named)
	case decl.KindArray:
		encodeType(mutable(m, "element"), *t.Elem)
	}
}

func encodeModifiers(m protoreflect.Message, mod decl.Modifiers) {
	setBool(m, "is_public", mod.Public)
	setBool(m, "is_protected", mod.Protected)
	setBool(m, "is_private", mod.Private)
	setBool(m, "is_static", mod.Static)
	setBool(m, "is_final", mod.Final)
	setBool(m, "is_abstract", mod.Abstract)
	setBool(m, "is_volatile", mod.Volatile)
	setBool(m, "is_native", mod.Native)
	setBool(m, "is_transient", mod.Transient)
	setBool(m, "is_synchronized", mod.Synchronized)
}

func encodeDeclaredType(m protoreflect.Message, t *decl.DeclaredType) {
	encodeGlobalName(mutable(m, "name"), t.Name)
	encodeModifiers(mutable(m, "modifiers"), t.Modifiers)
	setBool(m, "is_interface", t.IsInterface)
	if t.Ext != nil {
		encodeGlobalName(mutable(m, "ext"), *t.Ext)
	}
	for _, i := range t.Implements {
		encodeGlobalName(appendMessage(m, "implements"), i)
	}
	for i := range t.Members {
		encodeMember(appendMessage(m, "member"), &t.Members[i])
	}
	if t.Outer != nil {
		encodeGlobalName(mutable(m, "outer"), *t.Outer)
	}
	setBool(m, "is_local", t.IsLocal)
	setString(m, "source_file", t.SourceFile)
	setInt32(m, "line", int32(t.Line))
}

func encodeMember(m protoreflect.Message, d *decl.Member) {
	setEnum(m, "kind", int(d.Kind))
	encodeModifiers(mutable(m, "modifiers"), d.Modifiers)
	switch d.Kind {
	case decl.MemberField:
		f := mutable(m, "field_def")
		encodeType(mutable(f, "type"), d.Field.Type)
		setString(f, "name", d.Field.Name)
		if d.Field.Initializer != nil {
			encodeExpr(mutable(f, "initializer"), d.Field.Initializer)
		}
	case decl.MemberMethod:
		encodeMethod(mutable(m, "method"), d.Method)
	case decl.MemberInitializer:
		encodeBlock(mutable(m, "initializer"), d.Init)
	}
	setInt32(m, "line", int32(d.Line))
}

func encodeMethod(m protoreflect.Message, meth *decl.Method) {
	setString(m, "name", meth.Name)
	setBool(m, "is_constructor", meth.IsConstructor)
	for _, p := range meth.Params {
		pm := appendMessage(m, "param_def")
		setString(pm, "name", p.Name)
		encodeType(mutable(pm, "type"), p.Type)
	}
	encodeType(mutable(m, "return_type"), meth.ReturnType)
	if meth.Body != nil {
		encodeBlock(mutable(m, "body"), meth.Body)
	}
	setString(m, "jsni", meth.Jsni)
}

func encodeSignature(m protoreflect.Message, s decl.MethodSignature) {
	setString(m, "name", s.Name)
	encodeGlobalName(mutable(m, "owner"), s.Owner)
	for _, p := range s.ParamTypes {
		encodeType(appendMessage(m, "param_type"), p)
	}
	encodeType(mutable(m, "return_type"), s.ReturnType)
}

func encodeBlock(m protoreflect.Message, b *decl.Block) {
	for _, s := range b.Stmts {
		encodeStmt(appendMessage(m, "statement"), s)
	}
}

func encodeStmt(m protoreflect.Message, s decl.Stmt) {
	switch x := s.(type) {
	case *decl.Block:
		encodeBlock(mutable(m, "block"), x)
	case *decl.VarDef:
		v := mutable(m, "var_def")
		encodeType(mutable(v, "type"), x.Type)
		setString(v, "name", x.Name)
		if x.Initializer != nil {
			encodeExpr(mutable(v, "initializer"), x.Initializer)
		}
		setBool(v, "is_final", x.Final)
	case *decl.ExprStmt:
		encodeExpr(mutable(m, "expr"), x.X)
	case *decl.If:
		v := mutable(m, "if_stat")
		encodeExpr(mutable(v, "condition"), x.Cond)
		encodeStmt(mutable(v, "then"), x.Then)
		if x.Else != nil {
			encodeStmt(mutable(v, "elsee"), x.Else)
		}
	case *decl.While:
		v := mutable(m, "while_stat")
		encodeExpr(mutable(v, "condition"), x.Cond)
		encodeStmt(mutable(v, "body"), x.Body)
	case *decl.DoWhile:
		v := mutable(m, "do_while")
		encodeStmt(mutable(v, "body"), x.Body)
		encodeExpr(mutable(v, "condition"), x.Cond)
	case *decl.For:
		v := mutable(m, "for_stat")
		for _, st := range x.Init {
			encodeStmt(appendMessage(v, "init"), st)
		}
		if x.Cond != nil {
			encodeExpr(mutable(v, "condition"), x.Cond)
		}
		for _, e := range x.Update {
			encodeExpr(appendMessage(v, "update"), e)
		}
		encodeStmt(mutable(v, "body"), x.Body)
	case *decl.Try:
		v := mutable(m, "try_stat")
		encodeBlock(mutable(v, "block"), x.Body)
		for _, c := range x.Catches {
			cm := appendMessage(v, "catch")
			encodeGlobalName(mutable(cm, "type"), c.Type)
			setString(cm, "param", c.Param)
			encodeBlock(mutable(cm, "body"), c.Body)
		}
		if x.Finally != nil {
			encodeBlock(mutable(v, "finalizer"), x.Finally)
		}
	case *decl.Switch:
		v := mutable(m, "switch_stat")
		encodeExpr(mutable(v, "expression"), x.X)
		for _, c := range x.Cases {
			cm := appendMessage(v, "case")
			if c.Const != nil {
				encodeLiteral(mutable(cm, "constant"), c.Const)
			}
			for _, st := range c.Body {
				encodeStmt(appendMessage(cm, "statement"), st)
			}
		}
	case *decl.Return:
		v := mutable(m, "return_stat")
		if x.X != nil {
			encodeExpr(mutable(v, "expression"), x.X)
		}
	case *decl.Throw:
		encodeExpr(mutable(mutable(m, "throw_stat"), "expression"), x.X)
	case *decl.Break:
		setString(mutable(m, "break_stat"), "label", x.Label)
	case *decl.Continue:
		setString(mutable(m, "continue_stat"), "label", x.Label)
	case *decl.Labelled:
		v := mutable(m, "labelled_stat")
		setString(v, "label", x.Label)
		encodeStmt(mutable(v, "statement"), x.Body)
	default:
		panic(fmt.Sprintf("jribble: cannot encode statement %T", s))
	}
}

func encodeLiteral(m protoreflect.Message, l *decl.Literal) {
	setEnum(m, "kind", int(l.Kind))
	switch l.Kind {
	case decl.LitBool:
		setBool(m, "bool_value", l.Bool)
	case decl.LitChar, decl.LitByte, decl.LitShort, decl.LitInt, decl.LitLong:
		if l.Int != 0 {
			m.Set(field(m, "int_value"), protoreflect.ValueOfInt64(l.Int))
		}
	case decl.LitFloat, decl.LitDouble:
		if l.Float != 0 {
			m.Set(field(m, "float_value"), protoreflect.ValueOfFloat64(l.Float))
		}
	case decl.LitString:
		setString(m, "string_value", l.Str)
	}
}

func encodeExprs(m protoreflect.Message, name string, es []decl.Expr) {
	for _, e := range es {
		encodeExpr(appendMessage(m, name), e)
	}
}

func encodeExpr(m protoreflect.Message, e decl.Expr) {
	switch x := e.(type) {
	case *decl.Literal:
		encodeLiteral(mutable(m, "literal"), x)
	case *decl.VarRef:
		setString(mutable(m, "var_ref"), "name", x.Name)
	case *decl.ThisRef:
		mutable(m, "this_ref")
	case *decl.SuperRef:
		mutable(m, "super_ref")
	case *decl.MethodCall:
		v := mutable(m, "method_call")
		if x.Receiver != nil {
			encodeExpr(mutable(v, "receiver"), x.Receiver)
		}
		encodeSignature(mutable(v, "signature"), x.Sig)
		encodeExprs(v, "argument", x.Args)
	case *decl.NewObject:
		v := mutable(m, "new_object")
		encodeGlobalName(mutable(v, "clazz"), x.Class)
		encodeSignature(mutable(v, "signature"), x.Sig)
		encodeExprs(v, "argument", x.Args)
	case *decl.NewArray:
		v := mutable(m, "new_array")
		encodeType(mutable(v, "element_type"), x.Elem)
		setInt32(v, "dimensions", int32(x.Dims))
		encodeExprs(v, "dimension_expr", x.DimExprs)
		encodeExprs(v, "init_expr", x.Init)
	case *decl.Conditional:
		v := mutable(m, "conditional")
		encodeExpr(mutable(v, "condition"), x.Cond)
		encodeExpr(mutable(v, "then"), x.Then)
		encodeExpr(mutable(v, "elsee"), x.Else)
		encodeType(mutable(v, "type"), x.Type)
	case *decl.Cast:
		v := mutable(m, "cast")
		encodeType(mutable(v, "type"), x.Type)
		encodeExpr(mutable(v, "expr"), x.X)
	case *decl.Binary:
		v := mutable(m, "binary")
		setEnum(v, "op", int(x.Op))
		encodeExpr(mutable(v, "lhs"), x.Lhs)
		encodeExpr(mutable(v, "rhs"), x.Rhs)
		encodeType(mutable(v, "type"), x.Type)
	case *decl.Unary:
		v := mutable(m, "unary")
		setEnum(v, "op", int(x.Op))
		encodeExpr(mutable(v, "expr"), x.X)
	case *decl.FieldRef:
		v := mutable(m, "field_ref")
		if x.Qualifier != nil {
			encodeExpr(mutable(v, "qualifier"), x.Qualifier)
		}
		encodeGlobalName(mutable(v, "enclosing_type"), x.Owner)
		setString(v, "name", x.Name)
		encodeType(mutable(v, "type"), x.Type)
	case *decl.ArrayRef:
		v := mutable(m, "array_ref")
		encodeExpr(mutable(v, "array"), x.Array)
		encodeExpr(mutable(v, "index"), x.Index)
	case *decl.ArrayLength:
		encodeExpr(mutable(mutable(m, "array_length"), "array"), x.Array)
	case *decl.InstanceOf:
		v := mutable(m, "instance_of")
		encodeExpr(mutable(v, "expr"), x.X)
		encodeType(mutable(v, "type"), x.Type)
	case *decl.ClassLiteral:
		encodeType(mutable(mutable(m, "class_literal"), "type"), x.Type)
	case *decl.Assignment:
		v := mutable(m, "assignment")
		setEnum(v, "op", int(x.Op))
		encodeExpr(mutable(v, "lhs"), x.Lhs)
		encodeExpr(mutable(v, "rhs"), x.Rhs)
	default:
		panic(fmt.Sprintf("jribble: cannot encode expression %T", e))
	}
}
