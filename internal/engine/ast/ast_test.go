package ast

import (
	"strings"
	"testing"
)

func TestMethodSignature(t *testing.T) {
	bar := NewClassType(Unknown, "foo.Bar", false, false)
	object := NewExternalClassType("java.lang.Object")

	zaz := NewMethod(Unknown, "zaz", bar, Void, false, false, false, AccessPublic)
	zaz.FreezeParamTypes()
	if got := zaz.Signature(); got != "zaz()V" {
		t.Fatalf("expected zaz()V, got %s", got)
	}

	add := NewMethod(Unknown, "add", bar, Void, false, false, false, AccessPublic)
	add.AddParam(&Parameter{Name: "o", Type: object})
	add.AddParam(&Parameter{Name: "xs", Type: NewArrayType(Int)})
	if got := add.Signature(); got != "add(Ljava/lang/Object;[I)V" {
		t.Fatalf("unexpected signature %s", got)
	}
	if add.Params[0].Method != add {
		t.Fatal("AddParam must link the parameter back to its method")
	}
}

func TestFrozenParamsPanic(t *testing.T) {
	m := NewExternalMethod("f", NewExternalClassType("a.B"), []Type{Int}, Void, true, false)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when adding to frozen params")
		}
	}()
	m.AddParam(&Parameter{Name: "x", Type: Int})
}

func TestConstructorNamedAfterShortName(t *testing.T) {
	inner := NewClassType(Unknown, "foo.Outer$Inner", false, false)
	ctor := NewConstructor(Unknown, inner)
	if ctor.Name != "Inner" || !ctor.Constructor {
		t.Fatalf("unexpected constructor %q", ctor.Name)
	}
	if inner.PackageName() != "foo" {
		t.Fatalf("unexpected package %q", inner.PackageName())
	}
	if inner.SignatureName() != "Lfoo/Outer$Inner;" {
		t.Fatalf("unexpected descriptor %s", inner.SignatureName())
	}
}

func TestArrayType(t *testing.T) {
	arr := NewArrayType(NewArrayType(Char))
	if arr.Name() != "char[][]" || arr.SignatureName() != "[[C" {
		t.Fatalf("unexpected array naming %s %s", arr.Name(), arr.SignatureName())
	}
	if arr.Dims() != 2 || arr.Leaf() != Char {
		t.Fatal("unexpected array shape")
	}
}

func TestInsertStmt(t *testing.T) {
	b := NewBlock(Unknown)
	b.AddStmt(&ReturnStatement{})
	b.InsertStmt(0, &BreakStatement{})
	if _, ok := b.Stmts[0].(*BreakStatement); !ok || len(b.Stmts) != 2 {
		t.Fatal("InsertStmt should prepend")
	}
}

func TestInspectAndDump(t *testing.T) {
	bar := NewClassType(Unknown, "foo.Bar", false, false)
	bar.Super = NewExternalClassType("java.lang.Object")
	m := NewMethod(Unknown, "count", bar, Int, false, false, false, AccessPublic)
	m.AddParam(&Parameter{Name: "n", Type: Int})
	m.FreezeParamTypes()
	m.Body = NewMethodBody(Unknown)
	i := m.Body.NewLocal(Unknown, "i", Int, false)
	m.Body.Block.AddStmt(&DeclarationStatement{Variable: &LocalRef{Local: i}, Initializer: &IntLiteral{Value: 0}})
	m.Body.Block.AddStmt(&WhileStatement{
		Cond: &BinaryOperation{Op: OpLt, ResultType: Boolean, Lhs: &LocalRef{Local: i}, Rhs: &ParameterRef{Param: m.Params[0]}},
		Body: MakeStatement(&PostfixOperation{Op: OpInc, Arg: &LocalRef{Local: i}}),
	})
	m.Body.Block.AddStmt(&ReturnStatement{Expr: &LocalRef{Local: i}})
	bar.AddMethod(m)

	var refs int
	Inspect(bar, func(n Node) bool {
		if _, ok := n.(*LocalRef); ok {
			refs++
		}
		return true
	})
	if refs != 4 {
		t.Fatalf("expected 4 local refs, got %d", refs)
	}

	out := Dump(bar)
	for _, want := range []string{"class foo.Bar extends java.lang.Object", "public int count(int n)", "while ((i < n)) i++;", "return i;"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
