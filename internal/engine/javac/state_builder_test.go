package javac

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/data/blob"
	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/jribble"
	"jjsdev/internal/engine/resource"
	"jjsdev/internal/shared/treelog"
)

const (
	srcA  = "class foo.A\nmethod run\nref foo.B"
	srcB  = "class foo.B\nmethod m"
	srcC  = "class foo.C\nmethod c\nref foo.A"
	srcB2 = "class foo.B"
)

func TestRebuildWithoutChangesSkipsCompiler(t *testing.T) {
	f := &fakeFactory{}
	sb := NewStateBuilder(f.New)
	res := memResources(1, "foo/A.java", srcA, "foo/B.java", srcB)

	first := build(t, sb, res)
	assert.Equal(t, 1, f.last().calls)
	assert.ElementsMatch(t, []string{"foo.A", "foo.B"}, f.last().compiled)

	second := build(t, sb, res)
	assert.Zero(t, f.last().calls, "unchanged rebuild must not call the front end")
	assert.ElementsMatch(t, []string{"foo.A", "foo.B"}, f.last().added)
	require.Len(t, second.Units(), 2)

	a1, _ := first.Unit("foo.A")
	a2, _ := second.Unit("foo.A")
	assert.Same(t, a1, a2)
	assert.Contains(t, second.ClassFileMap(), "foo/B")
	assert.Contains(t, second.ClassFileMapBySource(), "foo.B")
}

func TestInvalidationCascade(t *testing.T) {
	f := &fakeFactory{}
	sb := NewStateBuilder(f.New)
	build(t, sb, memResources(1, "foo/A.java", srcA, "foo/B.java", srcB, "foo/C.java", srcC))

	state := build(t, sb, []resource.Resource{
		resource.NewMemory("foo/A.java", []byte(srcA), 1),
		resource.NewMemory("foo/B.java", []byte(srcB2), 2),
		resource.NewMemory("foo/C.java", []byte(srcC), 1),
	})

	c := f.last()
	assert.Equal(t, []string{"foo.B", "foo.A"}, c.compiled, "A depends on B's removed method")
	assert.Equal(t, 2, c.calls)
	require.Len(t, state.Units(), 3)

	a, ok := state.Unit("foo.A")
	require.True(t, ok)
	ref := a.Dependencies().Qualified()["foo.B"]
	b, _ := state.Unit("foo.B")
	hash, err := b.CompiledClasses()[0].SignatureHash()
	require.NoError(t, err)
	assert.Equal(t, hash, ref.SignatureHash)
}

func TestBodyOnlyChangeKeepsDependents(t *testing.T) {
	f := &fakeFactory{}
	sb := NewStateBuilder(f.New)
	build(t, sb, memResources(1, "foo/A.java", srcA, "foo/B.java", srcB))

	build(t, sb, []resource.Resource{
		resource.NewMemory("foo/A.java", []byte(srcA), 1),
		resource.NewMemory("foo/B.java", []byte(srcB+"\nbody 3"), 2),
	})
	assert.Equal(t, []string{"foo.B"}, f.last().compiled)
}

func TestIterationCapStopsCascade(t *testing.T) {
	f := &fakeFactory{}
	sb := NewStateBuilder(f.New, WithMaxIterations(1))
	build(t, sb, memResources(1, "foo/A.java", srcA, "foo/B.java", srcB))

	_, err := sb.BuildFrom(context.Background(), treelog.Discard(), []resource.Resource{
		resource.NewMemory("foo/A.java", []byte(srcA), 1),
		resource.NewMemory("foo/B.java", []byte(srcB2), 2),
	}, false)
	require.Error(t, err)
	assert.True(t, errors.IsInternal(err))
}

func TestTimestampChangeWithSameContentIsRescued(t *testing.T) {
	f := &fakeFactory{}
	sb := NewStateBuilder(f.New)
	build(t, sb, memResources(1, "foo/A.java", srcA))

	state := build(t, sb, memResources(7, "foo/A.java", srcA))
	assert.Zero(t, f.last().calls)
	a, _ := state.Unit("foo.A")
	assert.Equal(t, int64(7), a.LastModified())
	assert.Equal(t, int64(7), sb.Cache().Find("foo/A.java").LastModified())
}

func TestWorkerBuildsEveryUnit(t *testing.T) {
	const n = 64
	var pairs []string
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("T%02d", i)
		pairs = append(pairs, "foo/"+name+".java", "class foo."+name+"\nmethod m\nref foo.T00")
	}
	f := &fakeFactory{}
	state := build(t, NewStateBuilder(f.New), memResources(1, pairs...))

	units := state.Units()
	require.Len(t, units, n)
	seen := make(map[string]bool)
	for _, u := range units {
		assert.False(t, seen[u.TypeName()])
		seen[u.TypeName()] = true
		require.Len(t, u.CompiledClasses(), 1)
		assert.Same(t, u, u.CompiledClasses()[0].Unit())
	}
}

func TestWorkerErrorIsReturnedAfterJoin(t *testing.T) {
	var more *CompileMoreLater
	f := &fakeFactory{push: func(b *UnitBuilder) bool {
		if b.TypeName() != "foo.Broken" {
			return false
		}
		more.buildQueue <- b
		return true
	}}
	sb := NewStateBuilder(f.New)
	more = newCompileMoreLater(sb, false)

	var builders []*UnitBuilder
	for _, r := range memResources(1, "foo/A.java", srcA, "foo/Broken.java", "class foo.Broken") {
		builders = append(builders, NewResourceBuilder(r))
	}
	_, err := more.compile(context.Background(), treelog.Discard(), builders, nil, "resources", false)
	require.Error(t, err)
	assert.True(t, errors.IsInternal(err))
	assert.Contains(t, err.Error(), "missing")
	assert.Zero(t, sb.Cache().(*MemoryUnitCache).Len(), "a failed build caches nothing")
}

func bufferLogger(level treelog.Level) (*treelog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level.Slog()})
	return treelog.New(slog.New(h)), &buf
}

func TestErrorUnits(t *testing.T) {
	f := &fakeFactory{}
	sb := NewStateBuilder(f.New)
	logger, buf := bufferLogger(treelog.Info)
	res := memResources(1, "foo/A.java", srcA, "foo/B.java", srcB, "foo/Bad.java", "class foo.Bad\nerror boom")

	state, err := sb.BuildFrom(context.Background(), logger, res, false)
	require.NoError(t, err)
	bad, ok := state.Unit("foo.Bad")
	require.True(t, ok)
	assert.True(t, bad.IsError())
	assert.Empty(t, bad.CompiledClasses())
	assert.NotContains(t, state.CompileMoreLater().ValidClasses(), "foo/Bad")
	assert.Equal(t, []CompilationUnit{bad}, state.ErrorUnits())

	out := buf.String()
	assert.Contains(t, out, "Errors in 'mem:foo/Bad.java'")
	assert.Contains(t, out, "Line 2: boom")

	// An unchanged error unit is reused as-is.
	again := build(t, sb, res)
	assert.Zero(t, f.last().calls)
	assert.Len(t, again.ErrorUnits(), 1)
}

func TestSuppressedErrorsAreSummarized(t *testing.T) {
	sb := NewStateBuilder((&fakeFactory{}).New)
	logger, buf := bufferLogger(treelog.Info)
	_, err := sb.BuildFrom(context.Background(), logger,
		memResources(1, "foo/Bad.java", "class foo.Bad\nerror boom", "foo/Worse.java", "class foo.Worse\nerror bang"), true)
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "boom")
	assert.Contains(t, out, "Ignored 2 units with compilation errors in first pass.")
}

func TestSuppressedSummaryText(t *testing.T) {
	assert.Equal(t,
		"Ignored 1 unit with compilation errors in first pass.\n"+
			"Compile with -strict or with -logLevel set to TRACE or DEBUG to see all errors.",
		suppressedSummary(1))
	assert.True(t, strings.HasPrefix(suppressedSummary(3), "Ignored 3 units "))
}

func TestGeneratedUnits(t *testing.T) {
	f := &fakeFactory{}
	sb := NewStateBuilder(f.New)
	state := build(t, sb, memResources(1, "foo/A.java", srcA, "foo/B.java", srcB))

	gen := NewGeneratedUnit("foo.Gen", "class foo.Gen\nmethod g\nref foo.A")
	units, err := state.AddGeneratedCompilationUnits(context.Background(), treelog.Discard(), []GeneratedUnit{gen})
	require.NoError(t, err)
	require.Len(t, units, 1)
	u := units[0]
	assert.True(t, u.IsGenerated())
	assert.Equal(t, "foo/Gen.java", u.ResourcePath())
	assert.True(t, strings.HasPrefix(u.ResourceLocation(), "generated://"+gen.StrongHash()+"/"))
	assert.Contains(t, state.ClassFileMap(), "foo/Gen")
	assert.Contains(t, u.Dependencies().Qualified(), "foo.A")
	_, ok := state.Unit("foo.Gen")
	assert.True(t, ok)

	// Same generated content in a later state comes from the cache.
	next := build(t, sb, memResources(1, "foo/A.java", srcA, "foo/B.java", srcB))
	_, err = next.AddGeneratedCompilationUnits(context.Background(), treelog.Discard(),
		[]GeneratedUnit{NewGeneratedUnit("foo.Gen", "class foo.Gen\nmethod g\nref foo.A")})
	require.NoError(t, err)
	assert.Zero(t, f.last().calls)
}

func TestGeneratedErrorUnitsAreRebuilt(t *testing.T) {
	f := &fakeFactory{}
	sb := NewStateBuilder(f.New)
	for i := 0; i < 2; i++ {
		state := build(t, sb, nil)
		_, err := state.AddGeneratedCompilationUnits(context.Background(), treelog.Discard(),
			[]GeneratedUnit{NewGeneratedUnit("foo.Gen", "class foo.Gen\nerror nope")})
		require.NoError(t, err)
		assert.Equal(t, []string{"foo.Gen"}, f.last().compiled)
	}
}

func TestArchives(t *testing.T) {
	store := blob.NewMemory()
	res := memResources(1, "foo/A.java", srcA, "foo/B.java", srcB)
	first := build(t, NewStateBuilder((&fakeFactory{}).New, WithBlobStore(store)), res)

	archive := NewArchive(first.Units())
	require.Len(t, archive.Units, 2)
	assert.NotEmpty(t, archive.ID)

	f := &fakeFactory{}
	sb := NewStateBuilder(f.New, WithBlobStore(store))
	assert.Equal(t, 2, sb.AddArchive(archive))
	assert.Zero(t, sb.AddArchive(archive), "an archive never replaces an entry of the same age")

	build(t, sb, res)
	assert.Zero(t, f.last().calls)
	assert.Equal(t, OriginArchived, sb.Cache().(*MemoryUnitCache).Entries()["foo/A.java"])

	stale := NewArchive(first.Units())
	for _, u := range stale.Units {
		u.typesVersion = TypesVersion + 1
	}
	assert.Zero(t, NewStateBuilder(f.New, WithBlobStore(store)).AddArchive(stale))
}

func jribbleSource(t *testing.T) string {
	t.Helper()
	j := &decl.DeclaredType{
		Name:      decl.GlobalName{Pkg: "foo", Name: "J"},
		Modifiers: decl.Modifiers{Public: true},
		Members: []decl.Member{{
			Kind:      decl.MemberMethod,
			Modifiers: decl.Modifiers{Public: true},
			Method: &decl.Method{
				Name:       "hello",
				ReturnType: decl.Named("java.lang.String"),
				Body:       decl.Stmts(&decl.Return{X: decl.StringLit("hi")}),
			},
		}},
		SourceFile: "J.scala",
	}
	var buf bytes.Buffer
	require.NoError(t, jribble.MustSchema().WriteText(&buf, j))
	return buf.String()
}

func TestJribbleUnitsBypassTheFrontEnd(t *testing.T) {
	f := &fakeFactory{}
	sb := NewStateBuilder(f.New)
	state := build(t, sb, memResources(1,
		"foo/J.jribble", jribbleSource(t),
		"foo/User.java", "class foo.User\nmethod u\nref foo.J",
	))

	c := f.last()
	assert.Equal(t, []string{"foo.User"}, c.compiled)
	assert.True(t, c.known["foo/J"])

	j, ok := state.Unit("foo.J")
	require.True(t, ok)
	require.IsType(t, &JribbleUnit{}, j)
	assert.False(t, j.IsError())
	assert.False(t, j.ShouldBePersisted())
	assert.Contains(t, j.Dependencies().APIRefs(), "java.lang.Object")

	types, err := j.Types()
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "foo.J", types[0].Name())
	reparsed, err := j.Types()
	require.NoError(t, err)
	require.Len(t, reparsed, 1)
	assert.NotSame(t, types[0], reparsed[0])

	user, _ := state.Unit("foo.User")
	assert.Contains(t, user.Dependencies().Qualified(), "foo.J")
}

func TestCachedUnitRebuildsTypes(t *testing.T) {
	state := build(t, NewStateBuilder((&fakeFactory{}).New), memResources(1, "foo/A.java", srcA))
	a, _ := state.Unit("foo.A")
	cu := a.AsCached()
	require.NotNil(t, cu)

	types, err := cu.Types()
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "foo.A", types[0].Name())
	assert.Equal(t, a.ContentID(), cu.ContentID())
	assert.Same(t, cu, cu.CompiledClasses()[0].Unit())
}
