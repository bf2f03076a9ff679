package classfile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jjsdev/internal/engine/decl"
)

func sample() *decl.DeclaredType {
	outer := decl.ParseGlobalName("foo.Outer")
	return &decl.DeclaredType{
		Name:       decl.ParseGlobalName("foo.Outer$Inner"),
		Modifiers:  decl.Modifiers{Public: true, Static: true},
		Implements: []decl.GlobalName{decl.ParseGlobalName("java.lang.Runnable")},
		Outer:      &outer,
		SourceFile: "foo/Outer.java",
		Line:       10,
		Members: []decl.Member{
			{
				Kind:      decl.MemberField,
				Modifiers: decl.Modifiers{Public: true, Static: true, Final: true},
				Field:     &decl.FieldDef{Name: "MAX", Type: decl.Prim(decl.Int), Initializer: decl.IntLit(4)},
				Line:      11,
			},
			{
				Kind:      decl.MemberField,
				Modifiers: decl.Modifiers{Private: true},
				Field:     &decl.FieldDef{Name: "secret", Type: decl.Named("java.lang.String")},
			},
			{
				Kind:      decl.MemberMethod,
				Modifiers: decl.Modifiers{Public: true},
				Method:    &decl.Method{Name: "run", ReturnType: decl.Void, Body: decl.Stmts(&decl.Return{})},
				Line:      12,
			},
		},
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	in := sample()
	b, err := Encode(in)
	require.NoError(t, err)

	again, err := Encode(sample())
	require.NoError(t, err)
	assert.Equal(t, b, again, "encoding must be deterministic")

	out, err := Decode(b)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeData(t *testing.T) {
	b, err := Encode(sample())
	require.NoError(t, err)
	td, err := ReadTypeData(b)
	require.NoError(t, err)

	assert.Equal(t, &TypeData{
		InternalName: "foo/Outer$Inner",
		PackageName:  "foo",
		OuterName:    "foo/Outer",
		InnerName:    "Inner",
		SuperName:    "java/lang/Object",
		Interfaces:   []string{"java/lang/Runnable"},
	}, td)
}

func TestLocalInnerName(t *testing.T) {
	assert.Equal(t, "Local", innerName("Outer$1Local", "Outer"))
	assert.Equal(t, "", innerName("Outer$1", "Outer"))
	assert.Equal(t, "Deep", innerName("A$B$Deep", "A$B"))
}

func TestSignatureHashIgnoresBodiesAndLines(t *testing.T) {
	base := SignatureHashOf(sample())

	moved := sample()
	moved.Line = 99
	moved.Members[2].Line = 40
	moved.Members[2].Method.Body = decl.Stmts(&decl.Throw{X: decl.NullLit()})
	moved.Members[0], moved.Members[2] = moved.Members[2], moved.Members[0]
	assert.Equal(t, base, SignatureHashOf(moved))

	private := sample()
	private.Members[1].Field.Type = decl.Prim(decl.Long)
	assert.Equal(t, base, SignatureHashOf(private), "private members are not API")

	b, err := Encode(moved)
	require.NoError(t, err)
	fromBytes, err := SignatureHash(b)
	require.NoError(t, err)
	assert.Equal(t, base, fromBytes)
}

func TestSignatureHashSeesShapeChanges(t *testing.T) {
	base := SignatureHashOf(sample())

	changes := map[string]func(*decl.DeclaredType){
		"constant value": func(d *decl.DeclaredType) { d.Members[0].Field.Initializer = decl.IntLit(5) },
		"method removed": func(d *decl.DeclaredType) { d.Members = d.Members[:2] },
		"return type":    func(d *decl.DeclaredType) { d.Members[2].Method.ReturnType = decl.Prim(decl.Int) },
		"visibility":     func(d *decl.DeclaredType) { d.Members[2].Modifiers = decl.Modifiers{Protected: true} },
		"superclass": func(d *decl.DeclaredType) {
			ext := decl.ParseGlobalName("foo.Base")
			d.Ext = &ext
		},
	}
	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			d := sample()
			change(d)
			assert.NotEqual(t, base, SignatureHashOf(d))
		})
	}
}
