// Package ast holds the mini-AST: the declared types, members, statements and
// expressions the compiler works on after a front end has finished. Node
// families are closed; only this package can add a variant.
package ast

import "strings"

// Node is implemented by every mini-AST node.
type Node interface {
	node()
}

// SourceInfo locates a node. The zero value means unknown.
type SourceInfo struct {
	File string
	Line int
}

var Unknown = SourceInfo{}

// Type is any mini-AST type.
type Type interface {
	Node
	Name() string
	// SignatureName is the JNI-style descriptor: "I", "Ljava/lang/String;", "[Z".
	SignatureName() string
	isType()
}

// ReferenceType is a type whose values are references.
type ReferenceType interface {
	Type
	isReference()
}

type PrimitiveType struct {
	name string
	sig  string
}

var (
	Boolean = &PrimitiveType{name: "boolean", sig: "Z"}
	Byte    = &PrimitiveType{name: "byte", sig: "B"}
	Char    = &PrimitiveType{name: "char", sig: "C"}
	Double  = &PrimitiveType{name: "double", sig: "D"}
	Float   = &PrimitiveType{name: "float", sig: "F"}
	Int     = &PrimitiveType{name: "int", sig: "I"}
	Long    = &PrimitiveType{name: "long", sig: "J"}
	Short   = &PrimitiveType{name: "short", sig: "S"}
	Void    = &PrimitiveType{name: "void", sig: "V"}
)

// Primitives lists every primitive type including void.
func Primitives() []*PrimitiveType {
	return []*PrimitiveType{Boolean, Byte, Char, Double, Float, Int, Long, Short, Void}
}

func (*PrimitiveType) node()                   {}
func (*PrimitiveType) isType()                 {}
func (p *PrimitiveType) Name() string          { return p.name }
func (p *PrimitiveType) SignatureName() string { return p.sig }

// IsNumeric reports whether p takes part in numeric promotion.
func (p *PrimitiveType) IsNumeric() bool {
	return p != Boolean && p != Void
}

// NullType is the type of the null literal.
type NullType struct{}

var Null = &NullType{}

func (*NullType) node()                 {}
func (*NullType) isType()               {}
func (*NullType) isReference()          {}
func (*NullType) Name() string          { return "null" }
func (*NullType) SignatureName() string { return "N" }

type ArrayType struct {
	Elem Type
}

func NewArrayType(elem Type) *ArrayType {
	return &ArrayType{Elem: elem}
}

func (*ArrayType) node()                   {}
func (*ArrayType) isType()                 {}
func (*ArrayType) isReference()            {}
func (a *ArrayType) Name() string          { return a.Elem.Name() + "[]" }
func (a *ArrayType) SignatureName() string { return "[" + a.Elem.SignatureName() }

// Leaf returns the innermost non-array element type.
func (a *ArrayType) Leaf() Type {
	var t Type = a
	for {
		arr, ok := t.(*ArrayType)
		if !ok {
			return t
		}
		t = arr.Elem
	}
}

func (a *ArrayType) Dims() int {
	dims := 0
	var t Type = a
	for {
		arr, ok := t.(*ArrayType)
		if !ok {
			return dims
		}
		dims++
		t = arr.Elem
	}
}

// ReferenceSignature turns a dotted binary name into "Lpkg/Name;".
func ReferenceSignature(binaryName string) string {
	return "L" + strings.ReplaceAll(binaryName, ".", "/") + ";"
}
