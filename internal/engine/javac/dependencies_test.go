package javac

import (
	"maps"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/data/blob"
	"jjsdev/internal/engine/decl"
	"jjsdev/internal/shared/treelog"
)

func TestContentIDIdempotence(t *testing.T) {
	a := NewContentID("foo.Bar", []byte("class Bar {}"))
	b := NewContentID("foo.Bar", []byte("class Bar {}"))
	c := NewContentID("foo.Bar", []byte("class Bar {} "))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a.StrongHash, 64)
	assert.Equal(t, "foo.Bar:"+a.StrongHash, a.String())
	assert.True(t, ContentID{}.IsZero())
}

func TestBuildFromAPIRefs(t *testing.T) {
	d := BuildFromAPIRefs("foo.bar", []string{"foo.bar.Zaz", "java.lang.String"})
	assert.Equal(t, "foo.bar", d.Package())
	if diff := cmp.Diff([]string{"String"}, d.UnresolvedSimple()); diff != "" {
		t.Errorf("simple refs (-want +got):\n%s", diff)
	}
	want := []string{"foo", "foo.bar", "foo.bar.Zaz", "java", "java.lang", "java.lang.String"}
	if diff := cmp.Diff(want, d.UnresolvedQualified()); diff != "" {
		t.Errorf("qualified refs (-want +got):\n%s", diff)
	}
}

func classFor(t *testing.T, store *blob.Store, name string, methods ...string) *CompiledClass {
	t.Helper()
	dt := &decl.DeclaredType{Name: decl.ParseGlobalName(name), Modifiers: decl.Modifiers{Public: true}}
	for _, m := range methods {
		dt.Members = append(dt.Members, decl.Member{
			Kind:      decl.MemberMethod,
			Modifiers: decl.Modifiers{Public: true},
			Method:    &decl.Method{Name: m, ReturnType: decl.Void, Body: decl.Stmts()},
		})
	}
	cc, err := compiledClassOf(store, nil, dt, nil)
	require.NoError(t, err)
	return cc
}

func TestResolveAndValidate(t *testing.T) {
	store := blob.NewMemory()
	zaz := classFor(t, store, "foo.bar.Zaz", "m")
	str := classFor(t, store, "java.lang.String")
	local := classFor(t, store, "foo.bar.Local")
	classes := map[string]*CompiledClass{
		"foo/bar/Zaz":      zaz,
		"java/lang/String": str,
		"foo/bar/Local":    local,
	}

	d := NewDependencies("foo.bar", []string{"foo.bar.Zaz", "foo.bar.zaz", "nope.Nope"}, []string{"String", "Local", "i"}, nil)
	require.NoError(t, d.Resolve(classes))
	assert.Empty(t, d.UnresolvedQualified())
	assert.Equal(t, []string{"foo.bar.Zaz"}, keys(d.Qualified()))
	assert.Equal(t, []string{"Local", "String"}, keys(d.Simple()))
	assert.Equal(t, "java/lang/String", d.Simple()["String"].InternalName)

	ok, err := d.Validate(treelog.Discard(), classes)
	require.NoError(t, err)
	assert.True(t, ok)

	classes["foo/bar/Zaz"] = classFor(t, store, "foo.bar.Zaz", "m", "extra")
	ok, err = d.Validate(treelog.Discard(), classes)
	require.NoError(t, err)
	assert.False(t, ok, "shape change must invalidate")

	delete(classes, "foo/bar/Zaz")
	ok, err = d.Validate(treelog.Discard(), classes)
	require.NoError(t, err)
	assert.False(t, ok, "missing class must invalidate")
}

func TestValidateSurfacesMissingBytes(t *testing.T) {
	cc := RestoreCompiledClass(blob.NewMemory(), nil, blob.Key([]byte("gone")), nil, false, "foo/Gone", "")
	d := RestoreDependencies("foo", map[string]Ref{"foo.Gone": {InternalName: "foo/Gone", SignatureHash: "X"}}, nil, nil)
	_, err := d.Validate(treelog.Discard(), map[string]*CompiledClass{"foo/Gone": cc})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeIO))
}

func keys(m map[string]Ref) []string {
	return slices.Sorted(maps.Keys(m))
}

func TestSourceName(t *testing.T) {
	store := blob.NewMemory()
	outerDecl := &decl.DeclaredType{Name: decl.GlobalName{Pkg: "foo", Name: "Outer"}}
	outer, err := compiledClassOf(store, nil, outerDecl, nil)
	require.NoError(t, err)
	innerDecl := &decl.DeclaredType{
		Name:  decl.GlobalName{Pkg: "foo", Name: "Outer$Inner"},
		Outer: &decl.GlobalName{Pkg: "foo", Name: "Outer"},
	}
	inner, err := compiledClassOf(store, nil, innerDecl, outer)
	require.NoError(t, err)
	localDecl := &decl.DeclaredType{
		Name:    decl.GlobalName{Pkg: "foo", Name: "Outer$Inner$1Helper"},
		Outer:   &decl.GlobalName{Pkg: "foo", Name: "Outer$Inner"},
		IsLocal: true,
	}
	local, err := compiledClassOf(store, nil, localDecl, inner)
	require.NoError(t, err)
	assert.True(t, local.IsLocal())

	all := map[string]*CompiledClass{"foo/Outer": outer, "foo/Outer$Inner": inner, "foo/Outer$Inner$1Helper": local}
	name, err := local.SourceName(all)
	require.NoError(t, err)
	assert.Equal(t, "foo.Outer.Inner.Helper", name)

	// Without the outer classes the name is approximated.
	name, err = inner.SourceName(map[string]*CompiledClass{})
	require.NoError(t, err)
	assert.Equal(t, "foo.Outer.Inner", name)
	assert.Equal(t, "foo", inner.PackageName())
}

func TestSignatureHashIgnoresBodies(t *testing.T) {
	store := blob.NewMemory()
	mk := func(body *decl.Block, line int) *CompiledClass {
		dt := &decl.DeclaredType{
			Name: decl.GlobalName{Pkg: "foo", Name: "Bar"},
			Line: line,
			Members: []decl.Member{{
				Kind:      decl.MemberMethod,
				Modifiers: decl.Modifiers{Public: true},
				Method:    &decl.Method{Name: "zaz", ReturnType: decl.Void, Body: body},
				Line:      line + 1,
			}},
		}
		cc, err := compiledClassOf(store, nil, dt, nil)
		require.NoError(t, err)
		return cc
	}
	a := mk(decl.Stmts(&decl.Return{}), 1)
	b := mk(decl.Stmts(&decl.VarDef{Name: "x", Type: decl.Prim(decl.Int), Initializer: decl.IntLit(1)}, &decl.Return{}), 9)
	ha, err := a.SignatureHash()
	require.NoError(t, err)
	hb, err := b.SignatureHash()
	require.NoError(t, err)
	assert.NotEqual(t, a.BlobKey(), b.BlobKey())
	assert.Equal(t, ha, hb)
}

func TestCopiedClassesKeepSignatureHash(t *testing.T) {
	store := blob.NewMemory()
	cc := classFor(t, store, "foo.bar.Zaz", "m")
	want, err := cc.SignatureHash()
	require.NoError(t, err)

	out := copyClasses([]*CompiledClass{cc})
	require.Len(t, out, 1)
	assert.NotSame(t, cc, out[0])
	got, err := out[0].SignatureHash()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// a handle restored without a hash computes it from the class bytes
	bare := RestoreCompiledClass(store, nil, cc.blobKey, nil, false, cc.internalName, "")
	got, err = bare.SignatureHash()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
