package javac

import (
	"fmt"
	"time"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/engine/ast"
	"jjsdev/internal/engine/jjs"
	"jjsdev/internal/engine/jribble"
	"jjsdev/internal/engine/resource"
	"jjsdev/internal/shared/intern"
)

// GeneratedUnit is source produced by a generator during the build.
type GeneratedUnit interface {
	TypeName() string
	Source() string
	StrongHash() string
	// CreationTime is in Unix milliseconds.
	CreationTime() int64
	// OptionalFileLocation is where the source was dumped, if anywhere.
	OptionalFileLocation() string
}

type generatedSource struct {
	typeName string
	source   string
	hash     string
	created  int64
}

// NewGeneratedUnit wraps generator output created now.
func NewGeneratedUnit(typeName, source string) GeneratedUnit {
	return &generatedSource{
		typeName: typeName,
		source:   source,
		hash:     StrongHash([]byte(source)),
		created:  time.Now().UnixMilli(),
	}
}

func (g *generatedSource) TypeName() string             { return g.typeName }
func (g *generatedSource) Source() string               { return g.source }
func (g *generatedSource) StrongHash() string           { return g.hash }
func (g *generatedSource) CreationTime() int64          { return g.created }
func (g *generatedSource) OptionalFileLocation() string { return "" }

func generatedLocation(g GeneratedUnit) string {
	if loc := g.OptionalFileLocation(); loc != "" {
		return loc
	}
	return "generated://" + g.StrongHash() + "/" + resource.ToPath(g.TypeName())
}

func ioError(err error, msg, location string) error {
	return errors.AddContext(errors.Wrap(err, errors.CodeIO, msg), errors.CtxPath, location)
}

const (
	setClasses = 1 << iota
	setTypes
	setDependencies
	setJsni
	setMethodArgs

	setAll = setClasses | setTypes | setDependencies | setJsni | setMethodArgs
)

// UnitBuilder collects compiler output for one unit until Build freezes it.
// It holds the source text only until Build.
type UnitBuilder struct {
	res resource.Resource
	gen GeneratedUnit

	typeName     string
	contentID    ContentID
	lastModified int64
	source       []byte
	sourceRead   bool

	set      int
	classes  []*CompiledClass
	types    []ast.DeclaredType
	deps     *Dependencies
	jsni     []JsniMethod
	argNames *jjs.MethodArgNames
	problems []Problem

	// set for Jribble units, whose types are rebuilt with it
	interner *intern.Interner
}

// NewResourceBuilder starts a unit for a source file.
func NewResourceBuilder(res resource.Resource) *UnitBuilder {
	return &UnitBuilder{res: res, typeName: resource.ToTypeName(res.Path()), lastModified: -1}
}

// NewGeneratedBuilder starts a unit for generator output.
func NewGeneratedBuilder(gen GeneratedUnit) *UnitBuilder {
	b := &UnitBuilder{gen: gen, typeName: gen.TypeName(), lastModified: gen.CreationTime()}
	b.contentID = ContentID{TypeName: gen.TypeName(), StrongHash: gen.StrongHash()}
	return b
}

func (b *UnitBuilder) TypeName() string { return b.typeName }

func (b *UnitBuilder) IsGenerated() bool { return b.gen != nil }

func (b *UnitBuilder) Resource() resource.Resource { return b.res }

func (b *UnitBuilder) Location() string {
	if b.gen != nil {
		return generatedLocation(b.gen)
	}
	return b.res.Location()
}

// IsJribble reports whether the unit bypasses the Java front end.
func (b *UnitBuilder) IsJribble() bool {
	return b.res != nil && jribble.IsJribble(b.res.Path())
}

// LastModified is the timestamp pinned when the source was read, or the
// resource's current one before that.
func (b *UnitBuilder) LastModified() int64 {
	if b.lastModified < 0 {
		return b.res.LastModified()
	}
	return b.lastModified
}

// Source reads the unit's source once.
func (b *UnitBuilder) Source() ([]byte, error) {
	if b.sourceRead {
		return b.source, nil
	}
	if b.gen != nil {
		b.source = []byte(b.gen.Source())
	} else {
		// Pin the timestamp first: a unit seen as too stale is harmless.
		b.lastModified = b.res.LastModified()
		content, err := resource.ReadAll(b.res)
		if err != nil {
			return nil, err
		}
		b.source = content
		b.contentID = NewContentID(b.typeName, content)
	}
	b.sourceRead = true
	return b.source, nil
}

// ContentID hashes the source, reading it if needed.
func (b *UnitBuilder) ContentID() (ContentID, error) {
	if b.contentID.IsZero() {
		if _, err := b.Source(); err != nil {
			return ContentID{}, err
		}
	}
	return b.contentID, nil
}

func (b *UnitBuilder) SetClasses(classes []*CompiledClass) *UnitBuilder {
	b.classes, b.set = classes, b.set|setClasses
	return b
}

func (b *UnitBuilder) SetTypes(types []ast.DeclaredType) *UnitBuilder {
	b.types, b.set = types, b.set|setTypes
	return b
}

func (b *UnitBuilder) SetDependencies(deps *Dependencies) *UnitBuilder {
	b.deps, b.set = deps, b.set|setDependencies
	return b
}

func (b *UnitBuilder) SetJsniMethods(jsni []JsniMethod) *UnitBuilder {
	b.jsni, b.set = jsni, b.set|setJsni
	return b
}

func (b *UnitBuilder) SetMethodArgs(args *jjs.MethodArgNames) *UnitBuilder {
	b.argNames, b.set = args, b.set|setMethodArgs
	return b
}

func (b *UnitBuilder) SetProblems(problems []Problem) *UnitBuilder {
	b.problems = problems
	return b
}

var outputNames = []struct {
	bit  int
	name string
}{
	{setClasses, "classes"},
	{setTypes, "types"},
	{setDependencies, "dependencies"},
	{setJsni, "jsni methods"},
	{setMethodArgs, "method args"},
}

func (b *UnitBuilder) missing() []string {
	var out []string
	for _, o := range outputNames {
		if b.set&o.bit == 0 {
			out = append(out, o.name)
		}
	}
	return out
}

// Build freezes the builder into a unit and releases the source. Every
// output must have been set.
func (b *UnitBuilder) Build() (CompilationUnit, error) {
	b.source = nil
	if b.set != setAll {
		err := errors.Internal("builder for %s is missing %v", b.typeName, b.missing())
		return nil, errors.AddContext(err, errors.CtxUnit, b.Location())
	}
	if b.IsJribble() {
		if len(b.classes) != 1 {
			return nil, errors.Internal("jribble unit %s has %d classes", b.typeName, len(b.classes))
		}
		return newJribbleUnit(b.res, b.classes[0], b.contentID, b.deps, b.argNames, b.types, b.interner), nil
	}
	impl := unitImpl{
		classes:  b.classes,
		types:    b.types,
		deps:     b.deps,
		jsni:     b.jsni,
		argNames: b.argNames,
		problems: b.problems,
	}
	var u CompilationUnit
	if b.gen != nil {
		g := &GeneratedCompilationUnit{unitImpl: impl, gen: b.gen}
		g.adopt(g)
		u = g
	} else {
		s := &SourceFileUnit{unitImpl: impl, res: b.res, contentID: b.contentID, lastModified: b.LastModified()}
		s.adopt(s)
		u = s
	}
	return u, nil
}

func (b *UnitBuilder) String() string {
	return fmt.Sprintf("UnitBuilder(%s)", b.Location())
}
