// Package decl is the front-end neutral declaration model. The Java front end
// lowers parse trees into it and Jribble input is decoded straight into it;
// the AST builders consume nothing else.
package decl

import (
	"fmt"
	"strings"
)

// GlobalName is a package-qualified type name. Nested types keep their
// binary form in Name, e.g. {Pkg: "foo", Name: "Outer$Inner"}.
type GlobalName struct {
	Pkg  string
	Name string
}

// ParseGlobalName splits a dotted binary name at its last dot.
func ParseGlobalName(javaName string) GlobalName {
	if i := strings.LastIndexByte(javaName, '.'); i >= 0 {
		return GlobalName{Pkg: javaName[:i], Name: javaName[i+1:]}
	}
	return GlobalName{Name: javaName}
}

func (g GlobalName) IsZero() bool { return g.Name == "" }

// JavaName is the dotted binary name: "foo.Outer$Inner".
func (g GlobalName) JavaName() string {
	if g.Pkg == "" {
		return g.Name
	}
	return g.Pkg + "." + g.Name
}

// InternalName is the slash form used for class lookups: "foo/Outer$Inner".
func (g GlobalName) InternalName() string {
	return strings.ReplaceAll(g.JavaName(), ".", "/")
}

func (g GlobalName) String() string { return g.JavaName() }

type PrimitiveKind int

const (
	Boolean PrimitiveKind = iota + 1
	Byte
	Char
	Double
	Float
	Int
	Long
	Short
)

var primitiveDescriptors = map[PrimitiveKind]string{
	Boolean: "Z", Byte: "B", Char: "C", Double: "D", Float: "F", Int: "I", Long: "J", Short: "S",
}

var primitiveNames = map[PrimitiveKind]string{
	Boolean: "boolean", Byte: "byte", Char: "char", Double: "double",
	Float: "float", Int: "int", Long: "long", Short: "short",
}

func (p PrimitiveKind) Descriptor() string { return primitiveDescriptors[p] }

func (p PrimitiveKind) String() string { return primitiveNames[p] }

// PrimitiveByName maps a Java keyword such as "int" to its kind.
func PrimitiveByName(name string) (PrimitiveKind, bool) {
	for k, n := range primitiveNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

type TypeKind int

const (
	KindPrimitive TypeKind = iota + 1
	KindNamed
	KindArray
	KindVoid
)

// Type is a value type reference. Elem is set only for arrays.
type Type struct {
	Kind      TypeKind
	Primitive PrimitiveKind
	Named     GlobalName
	Elem      *Type
}

var Void = Type{Kind: KindVoid}

func Prim(p PrimitiveKind) Type { return Type{Kind: KindPrimitive, Primitive: p} }

func Named(javaName string) Type {
	return Type{Kind: KindNamed, Named: ParseGlobalName(javaName)}
}

func NamedType(g GlobalName) Type { return Type{Kind: KindNamed, Named: g} }

func ArrayOf(elem Type) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e}
}

// MapperName is the lookup key reference mappers use: the dotted name for
// named types, "[" + element for arrays, the descriptor letter for
// primitives and "void" for void.
func (t Type) MapperName() string {
	switch t.Kind {
	case KindNamed:
		return t.Named.JavaName()
	case KindArray:
		return "[" + t.Elem.MapperName()
	case KindPrimitive:
		return t.Primitive.Descriptor()
	case KindVoid:
		return "void"
	}
	panic(fmt.Sprintf("decl: unknown type kind %d", t.Kind))
}

// Descriptor is the JNI form: "I", "[Ljava/lang/String;", "V".
func (t Type) Descriptor() string {
	switch t.Kind {
	case KindNamed:
		return "L" + t.Named.InternalName() + ";"
	case KindArray:
		return "[" + t.Elem.Descriptor()
	case KindPrimitive:
		return t.Primitive.Descriptor()
	case KindVoid:
		return "V"
	}
	panic(fmt.Sprintf("decl: unknown type kind %d", t.Kind))
}

// SourceName renders the type the way Java source spells it.
func (t Type) SourceName() string {
	switch t.Kind {
	case KindNamed:
		return strings.ReplaceAll(t.Named.JavaName(), "$", ".")
	case KindArray:
		return t.Elem.SourceName() + "[]"
	case KindPrimitive:
		return t.Primitive.String()
	case KindVoid:
		return "void"
	}
	return "?"
}

func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive == o.Primitive
	case KindNamed:
		return t.Named == o.Named
	case KindArray:
		return t.Elem.Equal(*o.Elem)
	}
	return true
}

func (t Type) IsReference() bool { return t.Kind == KindNamed || t.Kind == KindArray }

// Leaf strips all array dimensions.
func (t Type) Leaf() Type {
	for t.Kind == KindArray {
		t = *t.Elem
	}
	return t
}

type Modifiers struct {
	Public       bool
	Protected    bool
	Private      bool
	Static       bool
	Final        bool
	Abstract     bool
	Volatile     bool
	Native       bool
	Transient    bool
	Synchronized bool
}

// Visible reports whether a member takes part in the class's API shape.
func (m Modifiers) Visible() bool { return !m.Private }
