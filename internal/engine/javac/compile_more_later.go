package javac

import (
	"bytes"
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/data/blob"
	"jjsdev/internal/engine/ast"
	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/jjs"
	"jjsdev/internal/engine/jribble"
	"jjsdev/internal/engine/resource"
	"jjsdev/internal/shared/intern"
	"jjsdev/internal/shared/observability"
	"jjsdev/internal/shared/treelog"
)

type cachedEntry struct {
	builder *UnitBuilder
	unit    CompilationUnit
}

// CompileMoreLater owns the state of one compilation: the front end, the
// AST builders and the table of currently valid classes. It outlives
// BuildFrom so generated units can be added to the same state.
type CompileMoreLater struct {
	owner    *StateBuilder
	compiler JavaCompiler
	store    *blob.Store
	interner *intern.Interner
	cache    UnitCache

	astBuilder     *jjs.GwtAstBuilder
	jribbleBuilder *jribble.AstBuilder

	// keyed by internal name; only touched between worker joins
	allValidClasses map[string]*CompiledClass
	buildQueue      chan *UnitBuilder

	suppressErrors bool
	maxIterations  int

	stats BuildStats
}

// BuildStats counts the work of every compile run against one state.
type BuildStats struct {
	Compiled    int
	Reused      int
	Invalidated int
	Iterations  int
}

func newCompileMoreLater(owner *StateBuilder, suppressErrors bool) *CompileMoreLater {
	c := &CompileMoreLater{
		owner:           owner,
		compiler:        owner.newCompiler(),
		store:           owner.store,
		interner:        owner.interner,
		cache:           owner.cache,
		jribbleBuilder:  jribble.NewAstBuilder(owner.interner),
		allValidClasses: make(map[string]*CompiledClass),
		suppressErrors:  suppressErrors,
		maxIterations:   owner.maxIterations,
	}
	c.astBuilder = jjs.NewGwtAstBuilder(c.compiler.IsInterface, owner.interner)
	return c
}

// AddGeneratedTypes compiles generator output into this state.
func (c *CompileMoreLater) AddGeneratedTypes(ctx context.Context, logger *treelog.Logger, generated []GeneratedUnit) ([]CompilationUnit, error) {
	return c.owner.buildGeneratedTypes(ctx, logger, generated, c, c.suppressErrors)
}

// ValidClasses returns a copy of the valid-class table.
func (c *CompileMoreLater) ValidClasses() map[string]*CompiledClass {
	out := make(map[string]*CompiledClass, len(c.allValidClasses))
	for k, v := range c.allValidClasses {
		out[k] = v
	}
	return out
}

func (c *CompileMoreLater) addValidUnit(u CompilationUnit) error {
	if err := c.compiler.AddCompiledUnit(u); err != nil {
		return err
	}
	if u.IsError() {
		return nil
	}
	for _, cc := range u.CompiledClasses() {
		c.allValidClasses[cc.InternalName()] = cc
	}
	return nil
}

func (c *CompileMoreLater) internAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = c.interner.Intern(s)
	}
	return out
}

// process turns one front-end result into a filled builder and queues it
// for the worker. Units with errors get no types and no classes.
func (c *CompileMoreLater) process(b *UnitBuilder, fu *FrontEndUnit) error {
	pkg := c.interner.Intern(resource.PackageOf(b.TypeName()))
	types := []ast.DeclaredType{}
	argNames := jjs.NewMethodArgNames()
	var apiRefs []string
	var classes []*CompiledClass
	if !fu.HasErrors() {
		res, err := c.astBuilder.ProcessUnit(fu.Decl)
		if err != nil {
			return errors.AddContext(err, errors.CtxUnit, b.Location())
		}
		types, apiRefs, argNames = res.Types, c.internAll(res.APIRefs), res.MethodArgNames
		if classes, err = c.compiledClasses(fu.Decl); err != nil {
			return err
		}
		for _, cc := range classes {
			c.allValidClasses[cc.InternalName()] = cc
		}
	}
	deps := NewDependencies(pkg, c.internAll(fu.QualifiedRefs), c.internAll(fu.SimpleRefs), apiRefs)
	b.SetClasses(classes).
		SetTypes(types).
		SetDependencies(deps).
		SetJsniMethods(fu.Jsni).
		SetMethodArgs(argNames).
		SetProblems(fu.Problems)
	c.buildQueue <- b
	return nil
}

// compiledClasses encodes every declared type, outer classes first so that
// nested classes can point at them.
func (c *CompileMoreLater) compiledClasses(cud *decl.CompilationUnitDecl) ([]*CompiledClass, error) {
	byName := make(map[decl.GlobalName]*decl.DeclaredType, len(cud.Types))
	for _, t := range cud.Types {
		byName[t.Name] = t
	}
	done := make(map[decl.GlobalName]*CompiledClass, len(cud.Types))
	var classOf func(t *decl.DeclaredType) (*CompiledClass, error)
	classOf = func(t *decl.DeclaredType) (*CompiledClass, error) {
		if cc, ok := done[t.Name]; ok {
			return cc, nil
		}
		var enclosing *CompiledClass
		if t.Outer != nil {
			if outer, ok := byName[*t.Outer]; ok {
				var err error
				if enclosing, err = classOf(outer); err != nil {
					return nil, err
				}
			}
		}
		cc, err := compiledClassOf(c.store, c.interner, t, enclosing)
		if err != nil {
			return nil, err
		}
		done[t.Name] = cc
		return cc, nil
	}
	out := make([]*CompiledClass, 0, len(cud.Types))
	for _, t := range cud.Types {
		cc, err := classOf(t)
		if err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, nil
}

// stealJribbleUnits removes Jribble builders from the Java batch, builds
// them directly and queues them with the others. Their classes become
// visible to the Java sources of the same batch.
func (c *CompileMoreLater) stealJribbleUnits(logger *treelog.Logger, builders []*UnitBuilder) ([]*UnitBuilder, error) {
	rest := builders[:0:0]
	for _, b := range builders {
		if !b.IsJribble() {
			rest = append(rest, b)
			continue
		}
		logger.Log(treelog.Debug, "Compiling jribble unit", "type", b.TypeName())
		src, err := b.Source()
		if err != nil {
			return nil, err
		}
		t, err := jribble.MustSchema().Read(b.Resource().Path(), bytes.NewReader(src))
		if err != nil {
			err = errors.Wrap(err, errors.CodeInternalCompiler, "parsing jribble unit")
			return nil, errors.AddContext(err, errors.CtxUnit, b.Location())
		}
		cc, err := compiledClassOf(c.store, c.interner, t, nil)
		if err != nil {
			return nil, err
		}
		res, err := c.jribbleBuilder.Process(t)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxUnit, b.Location())
		}
		b.interner = c.interner
		b.SetTypes(res.Types).
			SetDependencies(BuildFromAPIRefs(cc.PackageName(), c.internAll(res.APIRefs))).
			SetMethodArgs(res.MethodArgNames).
			SetClasses([]*CompiledClass{cc}).
			SetJsniMethods(nil)
		c.allValidClasses[cc.InternalName()] = cc
		if err := c.compiler.AddCompiledClass(cc); err != nil {
			return nil, err
		}
		c.buildQueue <- b
	}
	return rest, nil
}

// compilePass runs the front end over builders while a worker goroutine
// freezes finished builders into units. The worker is joined before its
// results are read.
func (c *CompileMoreLater) compilePass(ctx context.Context, logger *treelog.Logger, builders []*UnitBuilder, iteration int) ([]CompilationUnit, error) {
	ctx, span := observability.Tracer.Start(ctx, "javac.compilePass", trace.WithAttributes(
		attribute.Int("iteration", iteration),
		attribute.Int("builders", len(builders)),
	))
	defer span.End()

	queue := make(chan *UnitBuilder, len(builders)+1)
	sentinel := &UnitBuilder{}
	var newlyBuilt []CompilationUnit
	var workerErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				workerErr = errors.Internal("unit build worker panicked: %v", r)
			}
		}()
		for b := range queue {
			if b == sentinel {
				return
			}
			if workerErr != nil {
				continue
			}
			u, err := b.Build()
			if err != nil {
				workerErr = err
				continue
			}
			newlyBuilt = append(newlyBuilt, u)
		}
	}()

	c.buildQueue = queue
	rest, err := c.stealJribbleUnits(logger, builders)
	if err == nil && len(rest) > 0 {
		err = c.compiler.DoCompile(ctx, rest, c.process)
	}
	queue <- sentinel
	<-done
	c.buildQueue = nil

	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if workerErr != nil {
		span.RecordError(workerErr)
		return nil, workerErr
	}
	return newlyBuilt, nil
}

// compile builds the builders, revalidates cached units against the
// result and rebuilds the ones whose dependencies changed until nothing
// more is invalidated. Every resulting unit is added to the cache.
func (c *CompileMoreLater) compile(ctx context.Context, logger *treelog.Logger, builders []*UnitBuilder, cached []cachedEntry, kind string, suppressErrors bool) ([]CompilationUnit, error) {
	ctx, span := observability.Tracer.Start(ctx, "javac.compile", trace.WithAttributes(
		attribute.String("kind", kind),
		attribute.Int("builders", len(builders)),
		attribute.Int("cached", len(cached)),
	))
	defer span.End()

	var resultUnits []CompilationUnit
	for iteration := 1; ; iteration++ {
		if iteration > c.maxIterations {
			return nil, errors.Internal("units still invalidated after %d compile rounds", c.maxIterations)
		}
		newlyBuilt, err := c.compilePass(ctx, logger, builders, iteration)
		if err != nil {
			return nil, err
		}
		resultUnits = append(resultUnits, newlyBuilt...)
		observability.UnitsCompiledTotal.Add(float64(len(newlyBuilt)))
		builders = nil
		c.stats.Compiled += len(newlyBuilt)
		c.stats.Iterations = iteration

		for _, u := range newlyBuilt {
			if err := u.Dependencies().Resolve(c.allValidClasses); err != nil {
				return nil, err
			}
		}

		var invalidated []CompilationUnit
		kept := cached[:0]
		for _, e := range cached {
			valid, err := e.unit.Dependencies().Validate(logger, c.allValidClasses)
			if err != nil {
				return nil, err
			}
			if valid {
				kept = append(kept, e)
				continue
			}
			if logger.IsLoggable(treelog.Trace) {
				logger.Log(treelog.Trace, "Invalid Unit: "+e.unit.TypeName())
			}
			invalidated = append(invalidated, e.unit)
			builders = append(builders, e.builder)
		}
		cached = kept

		if len(invalidated) > 0 {
			if logger.IsLoggable(treelog.Trace) {
				logger.Log(treelog.Trace, fmt.Sprintf("Invalid units found: %d", len(invalidated)))
			}
			observability.UnitsInvalidatedTotal.Add(float64(len(invalidated)))
			c.stats.Invalidated += len(invalidated)
		}
		for _, u := range invalidated {
			c.cache.Remove(u)
			for _, cc := range u.CompiledClasses() {
				delete(c.allValidClasses, cc.InternalName())
			}
		}
		if len(builders) == 0 {
			observability.BuildIterations.Observe(float64(iteration))
			break
		}
	}

	for _, u := range resultUnits {
		c.cache.Add(u)
	}
	for _, e := range cached {
		resultUnits = append(resultUnits, e.unit)
	}
	c.stats.Reused += len(cached)

	_, cleanupSpan := observability.Tracer.Start(ctx, "javac.cacheCleanup")
	c.cache.Cleanup(logger)
	cleanupSpan.End()

	SortUnits(resultUnits)
	logger = logger.Branch(treelog.Debug, "Validating units:")
	errorCount := 0
	for _, u := range resultUnits {
		if ReportErrors(logger, u, suppressErrors) {
			errorCount++
		}
	}
	if suppressErrors && errorCount > 0 && !logger.IsLoggable(treelog.Trace) && logger.IsLoggable(treelog.Info) {
		logger.Log(treelog.Info, suppressedSummary(errorCount))
	}
	return resultUnits, nil
}
