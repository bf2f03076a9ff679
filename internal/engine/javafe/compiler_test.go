package javafe

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/javac"
	"jjsdev/internal/engine/resource"
	"jjsdev/internal/shared/treelog"
)

const shapeSrc = `package shapes;

public abstract class Shape {
  private static int count;
  protected final String name;

  protected Shape(String name) {
    this.name = name;
    count++;
  }

  public abstract double area();

  public static int count() {
    return count;
  }
}
`

const circleSrc = `package shapes;

public class Circle extends Shape {
  private final double r;

  public Circle(double r) {
    super("circle");
    this.r = r;
  }

  @Override
  public double area() {
    return Math.PI * r * r;
  }
}
`

// compileAll runs one batch and returns the front-end output per type name.
func compileAll(t *testing.T, c *Compiler, pairs ...string) map[string]*javac.FrontEndUnit {
	t.Helper()
	var builders []*javac.UnitBuilder
	for i := 0; i < len(pairs); i += 2 {
		builders = append(builders, javac.NewResourceBuilder(resource.NewMemory(pairs[i], []byte(pairs[i+1]), 1)))
	}
	out := make(map[string]*javac.FrontEndUnit)
	err := c.DoCompile(context.Background(), builders, func(b *javac.UnitBuilder, fu *javac.FrontEndUnit) error {
		out[b.TypeName()] = fu
		return nil
	})
	require.NoError(t, err)
	require.Len(t, out, len(builders))
	return out
}

func compileOne(t *testing.T, path, src string) *javac.FrontEndUnit {
	t.Helper()
	return compileAll(t, New(), path, src)[resource.ToTypeName(path)]
}

func messages(fu *javac.FrontEndUnit) []string {
	var out []string
	for _, p := range fu.Problems {
		out = append(out, p.Message)
	}
	return out
}

func typeNamed(t *testing.T, fu *javac.FrontEndUnit, binary string) *decl.DeclaredType {
	t.Helper()
	for _, dt := range fu.Decl.Types {
		if dt.Name.Name == binary {
			return dt
		}
	}
	t.Fatalf("type %s not declared", binary)
	return nil
}

func methodNamed(t *testing.T, dt *decl.DeclaredType, name string) *decl.Method {
	t.Helper()
	for _, m := range dt.Methods() {
		if m.Method.Name == name {
			return m.Method
		}
	}
	t.Fatalf("method %s not declared in %s", name, dt.Name)
	return nil
}

func TestCompilesClassHierarchy(t *testing.T) {
	units := compileAll(t, New(), "shapes/Shape.java", shapeSrc, "shapes/Circle.java", circleSrc)
	shape, circle := units["shapes.Shape"], units["shapes.Circle"]
	require.Empty(t, shape.Problems)
	require.Empty(t, circle.Problems)

	s := typeNamed(t, shape, "Shape")
	assert.True(t, s.Modifiers.Abstract)
	assert.Len(t, s.Constructors(), 1, "explicit constructors suppress the default one")
	assert.Nil(t, methodNamed(t, s, "area").Body)

	c := typeNamed(t, circle, "Circle")
	require.NotNil(t, c.Ext)
	assert.Equal(t, "shapes.Shape", c.Ext.JavaName())

	ctor := c.Constructors()[0]
	require.NotEmpty(t, ctor.Body.Stmts)
	call := ctor.Body.Stmts[0].(*decl.ExprStmt).X.(*decl.MethodCall)
	assert.Nil(t, call.Receiver)
	assert.Equal(t, "new(Ljava/lang/String;)V", call.Sig.Descriptor())
	assert.Equal(t, "shapes.Shape", call.Sig.Owner.JavaName())

	ret := methodNamed(t, c, "area").Body.Stmts[0].(*decl.Return)
	product := ret.X.(*decl.Binary)
	assert.Equal(t, decl.OpMul, product.Op)
	assert.True(t, product.Type.Equal(decl.Prim(decl.Double)))

	assert.Contains(t, circle.QualifiedRefs, "shapes.Shape")
	assert.Contains(t, circle.QualifiedRefs, "java.lang.Math")
	assert.Contains(t, circle.SimpleRefs, "Math")
}

func TestGenericsAreErasedWithCasts(t *testing.T) {
	fu := compileOne(t, "util/Names.java", `package util;

import java.util.ArrayList;
import java.util.List;

public class Names {
  private final List<String> names = new ArrayList<>();

  public void add(String n) {
    names.add(n);
  }

  public String first() {
    return names.get(0);
  }

  public Integer boxed(int i) {
    return i;
  }

  public int total(Integer[] values) {
    int sum = 0;
    for (Integer v : values) {
      sum += v;
    }
    return sum;
  }
}
`)
	require.Empty(t, fu.Problems)
	names := typeNamed(t, fu, "Names")

	first := methodNamed(t, names, "first").Body.Stmts[0].(*decl.Return)
	cast, ok := first.X.(*decl.Cast)
	require.True(t, ok, "erased result must be cast, got %T", first.X)
	assert.Equal(t, "java.lang.String", cast.Type.Named.JavaName())

	boxed := methodNamed(t, names, "boxed").Body.Stmts[0].(*decl.Return)
	valueOf := boxed.X.(*decl.MethodCall)
	assert.Equal(t, "valueOf", valueOf.Sig.Name)
	assert.Equal(t, "java.lang.Integer", valueOf.Sig.Owner.JavaName())

	total := methodNamed(t, names, "total").Body
	loop := total.Stmts[1].(*decl.For)
	require.Len(t, loop.Init, 2)
	assert.True(t, strings.HasPrefix(loop.Init[0].(*decl.VarDef).Name, "$arr"))
	body := loop.Body.(*decl.Block)
	inner := body.Stmts[1].(*decl.Block).Stmts[0].(*decl.ExprStmt).X.(*decl.Assignment)
	assert.Equal(t, decl.OpAdd, inner.Op)
	assert.Equal(t, "intValue", inner.Rhs.(*decl.MethodCall).Sig.Name)
}

func TestIterableForEachUsesIterator(t *testing.T) {
	fu := compileOne(t, "util/Join.java", `package util;

import java.util.List;

class Join {
  static String join(List<String> parts) {
    String out = "";
    for (String p : parts) {
      out += p;
    }
    return out;
  }
}
`)
	require.Empty(t, fu.Problems)
	loop := methodNamed(t, typeNamed(t, fu, "Join"), "join").Body.Stmts[1].(*decl.For)
	iter := loop.Init[0].(*decl.VarDef)
	assert.Equal(t, "java.util.Iterator", iter.Type.Named.JavaName())
	assert.Equal(t, "hasNext", loop.Cond.(*decl.MethodCall).Sig.Name)
	concat := loop.Body.(*decl.Block).Stmts[1].(*decl.Block).Stmts[0].(*decl.ExprStmt).X.(*decl.Assignment)
	assert.Equal(t, decl.OpConcat, concat.Op)
}

func TestNestedTypesAndImports(t *testing.T) {
	units := compileAll(t, New(),
		"a/Outer.java", `package a;

public class Outer {
  public static class Inner {
    public int v() { return 1; }
  }

  public int use() {
    Inner i = new Inner();
    return i.v();
  }
}
`,
		"b/User.java", `package b;

import a.Outer;
import a.Outer.Inner;

public class User {
  int f() { return new Outer.Inner().v() + new Inner().v(); }
}
`)
	outer, user := units["a.Outer"], units["b.User"]
	require.Empty(t, outer.Problems)
	require.Empty(t, user.Problems)

	inner := typeNamed(t, outer, "Outer$Inner")
	require.NotNil(t, inner.Outer)
	assert.Equal(t, "a.Outer", inner.Outer.JavaName())
	assert.Equal(t, "Outer", outer.Decl.TopLevel().Name.Name)
	assert.Contains(t, user.QualifiedRefs, "a.Outer$Inner")
	assert.Contains(t, user.SimpleRefs, "Outer")
}

func TestDefaultConstructorCallsSuper(t *testing.T) {
	units := compileAll(t, New(),
		"p/Base.java", "package p; public class Base { public Base() {} }",
		"p/Derived.java", "package p; public class Derived extends Base {}",
	)
	derived := typeNamed(t, units["p.Derived"], "Derived")
	ctors := derived.Constructors()
	require.Len(t, ctors, 1)
	assert.Equal(t, "<init>", ctors[0].Name)
	call := ctors[0].Body.Stmts[0].(*decl.ExprStmt).X.(*decl.MethodCall)
	assert.Equal(t, "p.Base", call.Sig.Owner.JavaName())
	assert.True(t, call.Sig.IsConstructor())

	base := typeNamed(t, units["p.Base"], "Base")
	assert.Empty(t, base.Constructors()[0].Body.Stmts, "direct subclasses of Object get no super call")
}

func TestJsniBodies(t *testing.T) {
	fu := compileOne(t, "js/Window.java", `package js;

public class Window {
  public static native void alert(String msg) /*-{
    $wnd.alert(msg);
  }-*/;
}
`)
	require.Empty(t, fu.Problems)
	require.Len(t, fu.Jsni, 1)
	j := fu.Jsni[0]
	assert.Equal(t, "alert", j.Name)
	assert.Equal(t, "alert(Ljava/lang/String;)V", j.Signature)
	assert.Equal(t, []string{"msg"}, j.Params)
	assert.Contains(t, j.Body, "$wnd.alert(msg);")
	assert.Equal(t, 4, j.Line)
	assert.Equal(t, j.Body, methodNamed(t, typeNamed(t, fu, "Window"), "alert").Jsni)
}

func TestProblems(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unresolved type", "package p; class T { Missing m; }", "Missing cannot be resolved to a type"},
		{"undefined method", "package p; class T { void f() { g(); } }", "The method g() is undefined for the type T"},
		{"type mismatch", `package p; class T { int f() { return "s"; } }`, "Type mismatch: cannot convert from java.lang.String to int"},
		{"static context", "package p; class T { int x; static int f() { return x; } }", "Cannot make a static reference to the non-static field x"},
		{"void return", "package p; class T { void f() { return 1; } }", "Void methods cannot return a value"},
		{"duplicate local", "package p; class T { void f() { int a = 1; int a = 2; } }", "Duplicate local variable a"},
		{"syntax", "package p; class T { void f() { int x = ; } }", "Syntax error"},
		{"native without jsni", "package p; class T { native void f(); }", "Native methods require a JavaScript implementation"},
		{"lambda", "package p; class T { Runnable r = () -> {}; }", "Lambda expressions are not supported"},
		{"anonymous class", "package p; class T { Object o = new Object() {}; }", "Anonymous classes are not supported"},
		{"enum", "package p; enum T { A }", "Unsupported construct: enum_declaration"},
		{"abstract instantiation", "package p; abstract class T { Object f() { return new T(); } }", "Cannot instantiate the type T"},
		{"int out of range", "package p; class T { int x = 2147483648; }", "out of range"},
		{"not a statement", "package p; class T { void f() { 1 + 2; } }", "is not a statement"},
		{"bad throw", "package p; class T { void f() { throw \"x\"; } }", "must be a subclass of Throwable"},
		{"interface superclass", "package p; class T extends Runnable {}", "a superclass must be a class"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fu := compileOne(t, "p/T.java", tt.src)
			require.True(t, fu.HasErrors(), "problems: %v", messages(fu))
			assert.True(t, containsMessage(fu, tt.want), "want %q in %v", tt.want, messages(fu))
		})
	}
}

func containsMessage(fu *javac.FrontEndUnit, want string) bool {
	for _, m := range messages(fu) {
		if strings.Contains(m, want) {
			return true
		}
	}
	return false
}

func TestFailingMemberKeepsTheRest(t *testing.T) {
	fu := compileOne(t, "p/T.java", `package p;
class T {
  void ok() {}
  void bad() { g(); }
}
`)
	require.True(t, fu.HasErrors())
	require.Len(t, fu.Problems, 1)
	assert.Equal(t, 4, fu.Problems[0].Line)
	dt := typeNamed(t, fu, "T")
	methodNamed(t, dt, "ok")
	for _, m := range dt.Methods() {
		assert.NotEqual(t, "bad", m.Method.Name)
	}
}

func TestUnusedImportIsAWarning(t *testing.T) {
	fu := compileOne(t, "p/T.java", "package p;\nimport java.util.List;\nclass T {}\n")
	assert.False(t, fu.HasErrors())
	require.Len(t, fu.Problems, 1)
	assert.Equal(t, javac.SeverityWarning, fu.Problems[0].Severity)
	assert.Equal(t, "The import java.util.List is never used", fu.Problems[0].Message)
	assert.Equal(t, 2, fu.Problems[0].Line)
}

func TestDuplicateTypeInBatch(t *testing.T) {
	units := compileAll(t, New(),
		"p/A.java", "package p; class A {} class Dup {}",
		"p/B.java", "package p; class B {} class Dup {}",
	)
	assert.False(t, units["p.A"].HasErrors())
	assert.True(t, containsMessage(units["p.B"], "The type Dup is already defined"))
}

func TestLaterBatchesSeeEarlierTypes(t *testing.T) {
	c := New()
	compileAll(t, c, "p/A.java", "package p; public class A { public static int one() { return 1; } }")
	units := compileAll(t, c, "p/B.java", "package p; class B { int two() { return A.one() + A.one(); } }")
	assert.Empty(t, units["p.B"].Problems)

	known, isKnown := c.IsInterface("p.A")
	assert.True(t, isKnown)
	assert.False(t, known)
	iface, isKnown := c.IsInterface("java.lang.Runnable")
	assert.True(t, isKnown)
	assert.True(t, iface)
	_, isKnown = c.IsInterface("p.Nope")
	assert.False(t, isKnown)
}

func TestStateBuilderWithJavaFrontEnd(t *testing.T) {
	sb := javac.NewStateBuilder(Factory(WithWorkers(2)))
	ctx := context.Background()
	res := []resource.Resource{
		resource.NewMemory("shapes/Shape.java", []byte(shapeSrc), 1),
		resource.NewMemory("shapes/Circle.java", []byte(circleSrc), 1),
	}
	state, err := sb.BuildFrom(ctx, treelog.Discard(), res, false)
	require.NoError(t, err)
	assert.Empty(t, state.ErrorUnits())
	assert.Contains(t, state.ClassFileMap(), "shapes/Circle")

	// Circle now compiles against Shape's cached class bytes.
	changed := strings.Replace(circleSrc, "r * r", "r * r * 1.0", 1)
	res[1] = resource.NewMemory("shapes/Circle.java", []byte(changed), 2)
	state, err = sb.BuildFrom(ctx, treelog.Discard(), res, false)
	require.NoError(t, err)
	assert.Empty(t, state.ErrorUnits())

	broken := strings.Replace(circleSrc, "Math.PI * r * r", "Math.PI * r * r * count(1)", 1)
	res[1] = resource.NewMemory("shapes/Circle.java", []byte(broken), 3)
	state, err = sb.BuildFrom(ctx, treelog.Discard(), res, true)
	require.NoError(t, err)
	require.Len(t, state.ErrorUnits(), 1)
	assert.Equal(t, "shapes.Circle", state.ErrorUnits()[0].TypeName())
}
