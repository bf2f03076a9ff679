package javac

import (
	"sort"
	"sync"

	"jjsdev/internal/engine/ast"
	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/jjs"
	"jjsdev/internal/engine/jribble"
	"jjsdev/internal/engine/resource"
	"jjsdev/internal/shared/intern"
)

// TypesVersion changes whenever the mini-AST a unit yields would differ
// for the same class bytes. Archived units of another version are ignored.
const TypesVersion = 1

// CompilationUnit is the immutable result of building one source file.
type CompilationUnit interface {
	// ResourcePath is the root-relative path, the primary cache key.
	ResourcePath() string
	ResourceLocation() string
	LastModified() int64
	TypeName() string
	ContentID() ContentID

	CompiledClasses() []*CompiledClass
	// Types returns the unit's mini-AST. Cached and Jribble units rebuild
	// it, which can fail on unreadable class bytes or resources.
	Types() ([]ast.DeclaredType, error)
	Dependencies() *Dependencies
	JsniMethods() []JsniMethod
	MethodArgs() *jjs.MethodArgNames
	Problems() []Problem

	IsError() bool
	IsGenerated() bool
	ShouldBePersisted() bool
	// AsCached returns the form a cache stores, or nil when the unit must
	// not outlive this build.
	AsCached() *CachedUnit
}

// Less orders units by resource path, then type name.
func Less(a, b CompilationUnit) bool {
	if a.ResourcePath() != b.ResourcePath() {
		return a.ResourcePath() < b.ResourcePath()
	}
	return a.TypeName() < b.TypeName()
}

// SortUnits sorts units into reporting order.
func SortUnits(units []CompilationUnit) {
	sort.SliceStable(units, func(i, j int) bool { return Less(units[i], units[j]) })
}

type unitImpl struct {
	classes  []*CompiledClass
	types    []ast.DeclaredType
	deps     *Dependencies
	jsni     []JsniMethod
	argNames *jjs.MethodArgNames
	problems []Problem
}

func (u *unitImpl) CompiledClasses() []*CompiledClass  { return u.classes }
func (u *unitImpl) Types() ([]ast.DeclaredType, error) { return u.types, nil }
func (u *unitImpl) Dependencies() *Dependencies        { return u.deps }
func (u *unitImpl) JsniMethods() []JsniMethod          { return u.jsni }
func (u *unitImpl) MethodArgs() *jjs.MethodArgNames    { return u.argNames }
func (u *unitImpl) Problems() []Problem                { return u.problems }
func (u *unitImpl) IsError() bool                      { return hasErrors(u.problems) }
func (u *unitImpl) IsGenerated() bool                  { return false }
func (u *unitImpl) ShouldBePersisted() bool            { return true }

func (u *unitImpl) adopt(owner CompilationUnit) {
	for _, cc := range u.classes {
		cc.initUnit(owner)
	}
}

// SourceFileUnit was compiled from a resource.
type SourceFileUnit struct {
	unitImpl
	res          resource.Resource
	contentID    ContentID
	lastModified int64
}

func (u *SourceFileUnit) ResourcePath() string     { return u.res.Path() }
func (u *SourceFileUnit) ResourceLocation() string { return u.res.Location() }
func (u *SourceFileUnit) LastModified() int64      { return u.lastModified }
func (u *SourceFileUnit) TypeName() string         { return resource.ToTypeName(u.res.Path()) }
func (u *SourceFileUnit) ContentID() ContentID     { return u.contentID }
func (u *SourceFileUnit) AsCached() *CachedUnit {
	return cachedFrom(u, u.lastModified, u.ResourceLocation())
}

// GeneratedCompilationUnit was compiled from generator output.
type GeneratedCompilationUnit struct {
	unitImpl
	gen GeneratedUnit
}

func (u *GeneratedCompilationUnit) ResourcePath() string     { return resource.ToPath(u.gen.TypeName()) }
func (u *GeneratedCompilationUnit) ResourceLocation() string { return generatedLocation(u.gen) }
func (u *GeneratedCompilationUnit) LastModified() int64      { return u.gen.CreationTime() }
func (u *GeneratedCompilationUnit) TypeName() string         { return u.gen.TypeName() }
func (u *GeneratedCompilationUnit) IsGenerated() bool        { return true }
func (u *GeneratedCompilationUnit) Source() string           { return u.gen.Source() }

func (u *GeneratedCompilationUnit) ContentID() ContentID {
	return ContentID{TypeName: u.gen.TypeName(), StrongHash: u.gen.StrongHash()}
}

func (u *GeneratedCompilationUnit) AsCached() *CachedUnit {
	return cachedFrom(u, u.LastModified(), u.ResourceLocation())
}

// CachedUnit is a unit restored from a cache or archive. It keeps class
// bytes rather than the mini-AST and rebuilds types on each Types call.
type CachedUnit struct {
	unitImpl
	path         string
	location     string
	typeName     string
	lastModified int64
	contentID    ContentID
	generated    bool
	isError      bool
	typesVersion int

	interner *intern.Interner
}

func cachedFrom(u CompilationUnit, lastModified int64, location string) *CachedUnit {
	var interner *intern.Interner
	if c, ok := u.(*CachedUnit); ok {
		interner = c.interner
	}
	c := &CachedUnit{
		unitImpl: unitImpl{
			deps:     u.Dependencies(),
			jsni:     u.JsniMethods(),
			argNames: u.MethodArgs(),
			problems: u.Problems(),
		},
		path:         u.ResourcePath(),
		location:     location,
		typeName:     u.TypeName(),
		lastModified: lastModified,
		contentID:    u.ContentID(),
		generated:    u.IsGenerated(),
		isError:      u.IsError(),
		typesVersion: TypesVersion,
		interner:     interner,
	}
	c.classes = copyClasses(u.CompiledClasses())
	c.adopt(c)
	return c
}

// WithTimestamp returns a copy of c for a resource whose timestamp changed
// but whose content did not.
func (c *CachedUnit) WithTimestamp(lastModified int64, location string) *CachedUnit {
	return cachedFrom(c, lastModified, location)
}

// copyClasses duplicates class handles so a new unit can own them. Blob
// keys and computed hashes carry over.
func copyClasses(in []*CompiledClass) []*CompiledClass {
	copies := make(map[*CompiledClass]*CompiledClass, len(in))
	var copyOf func(cc *CompiledClass) *CompiledClass
	copyOf = func(cc *CompiledClass) *CompiledClass {
		if cc == nil {
			return nil
		}
		if cp, ok := copies[cc]; ok {
			return cp
		}
		// An empty hash is recomputed lazily from the class bytes.
		hash, _ := cc.SignatureHash()
		cp := RestoreCompiledClass(cc.store, nil, cc.blobKey, copyOf(cc.enclosing), cc.isLocal, cc.internalName, hash)
		copies[cc] = cp
		return cp
	}
	out := make([]*CompiledClass, len(in))
	for i, cc := range in {
		out[i] = copyOf(cc)
	}
	return out
}

func (c *CachedUnit) ResourcePath() string     { return c.path }
func (c *CachedUnit) ResourceLocation() string { return c.location }
func (c *CachedUnit) LastModified() int64      { return c.lastModified }
func (c *CachedUnit) TypeName() string         { return c.typeName }
func (c *CachedUnit) ContentID() ContentID     { return c.contentID }
func (c *CachedUnit) IsError() bool            { return c.isError }
func (c *CachedUnit) IsGenerated() bool        { return c.generated }
func (c *CachedUnit) TypesVersion() int        { return c.typesVersion }
func (c *CachedUnit) AsCached() *CachedUnit    { return c }

// Types decodes every class and runs them through a fresh AST builder.
func (c *CachedUnit) Types() ([]ast.DeclaredType, error) {
	if len(c.classes) == 0 {
		return nil, nil
	}
	decls := make([]*decl.DeclaredType, 0, len(c.classes))
	for _, cc := range c.classes {
		d, err := cc.Decl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	b := jjs.NewBuilder(jjs.NewReferenceMapper(jjs.WithInterner(c.interner)))
	res, err := b.Process(decls)
	if err != nil {
		return nil, err
	}
	return res.Types, nil
}

// JribbleUnit was loaded from a Jribble resource. It owns a single class
// and is never persisted to disk; the memory cache layer may reuse it.
type JribbleUnit struct {
	res       resource.Resource
	cc        *CompiledClass
	contentID ContentID
	deps      *Dependencies
	argNames  *jjs.MethodArgNames
	interner  *intern.Interner

	mu      sync.Mutex
	pending []ast.DeclaredType
}

func newJribbleUnit(res resource.Resource, cc *CompiledClass, id ContentID, deps *Dependencies, argNames *jjs.MethodArgNames, types []ast.DeclaredType, interner *intern.Interner) *JribbleUnit {
	u := &JribbleUnit{res: res, cc: cc, contentID: id, deps: deps, argNames: argNames, pending: types, interner: interner}
	cc.initUnit(u)
	return u
}

func (u *JribbleUnit) ResourcePath() string              { return u.res.Path() }
func (u *JribbleUnit) ResourceLocation() string          { return u.res.Location() }
func (u *JribbleUnit) LastModified() int64               { return u.res.LastModified() }
func (u *JribbleUnit) TypeName() string                  { return resource.ToTypeName(u.res.Path()) }
func (u *JribbleUnit) ContentID() ContentID              { return u.contentID }
func (u *JribbleUnit) CompiledClasses() []*CompiledClass { return []*CompiledClass{u.cc} }
func (u *JribbleUnit) Dependencies() *Dependencies       { return u.deps }
func (u *JribbleUnit) JsniMethods() []JsniMethod         { return nil }
func (u *JribbleUnit) MethodArgs() *jjs.MethodArgNames   { return u.argNames }
func (u *JribbleUnit) Problems() []Problem               { return nil }
func (u *JribbleUnit) IsError() bool                     { return false }
func (u *JribbleUnit) IsGenerated() bool                 { return false }
func (u *JribbleUnit) ShouldBePersisted() bool           { return false }
func (u *JribbleUnit) AsCached() *CachedUnit             { return nil }

// Types hands out the types built during compilation once; later calls
// parse the resource again so callers never share mutable nodes.
func (u *JribbleUnit) Types() ([]ast.DeclaredType, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.pending != nil {
		types := u.pending
		u.pending = nil
		return types, nil
	}
	t, err := readJribble(u.res)
	if err != nil {
		return nil, err
	}
	res, err := jribble.NewAstBuilder(u.interner).Process(t)
	if err != nil {
		return nil, err
	}
	return res.Types, nil
}

func readJribble(res resource.Resource) (*decl.DeclaredType, error) {
	rc, err := res.Open()
	if err != nil {
		return nil, ioError(err, "opening jribble resource", res.Location())
	}
	defer rc.Close()
	return jribble.MustSchema().Read(res.Path(), rc)
}
