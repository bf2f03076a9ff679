// Package javafe is the Java front end: it parses sources with tree-sitter,
// resolves names against the batch, earlier units and the JRE stubs, and
// lowers bodies into the decl model.
//
// Generic types are erased to their bounds. Enums, records, annotations,
// lambdas, anonymous and local classes are reported as unsupported.
package javafe

import (
	"context"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/javac"
)

type Option func(*Compiler)

// WithWorkers bounds parallel parsing; values below one are ignored.
func WithWorkers(n int) Option {
	return func(c *Compiler) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// WithParserPool shares a parser pool between compilers.
func WithParserPool(pool *ParserPool) Option {
	return func(c *Compiler) { c.pool = pool }
}

// Compiler implements javac.JavaCompiler. It keeps every type it has seen
// so later batches resolve against earlier ones.
type Compiler struct {
	pool    *ParserPool
	workers int
	logger  *slog.Logger
	u       *universe
}

func New(opts ...Option) *Compiler {
	c := &Compiler{workers: runtime.GOMAXPROCS(0), logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	if c.pool == nil {
		c.pool = NewParserPool(Java())
	}
	return c
}

// Factory returns a compiler factory for javac.NewStateBuilder. Compilers
// made by one factory share a parser pool.
func Factory(opts ...Option) javac.CompilerFactory {
	pool := NewParserPool(Java())
	return func() javac.JavaCompiler {
		return New(append([]Option{WithParserPool(pool)}, opts...)...)
	}
}

var _ javac.JavaCompiler = (*Compiler)(nil)

func (c *Compiler) universe() (*universe, error) {
	if c.u != nil {
		return c.u, nil
	}
	stubs, err := jreStubs(c.pool)
	if err != nil {
		return nil, err
	}
	c.u = newUniverse(stubs)
	return c.u, nil
}

func (c *Compiler) AddCompiledUnit(unit javac.CompilationUnit) error {
	u, err := c.universe()
	if err != nil {
		return err
	}
	for _, cc := range unit.CompiledClasses() {
		u.addClass(cc)
	}
	return nil
}

func (c *Compiler) AddCompiledClass(cc *javac.CompiledClass) error {
	u, err := c.universe()
	if err != nil {
		return err
	}
	u.addClass(cc)
	return nil
}

func (c *Compiler) IsInterface(javaName string) (isInterface, known bool) {
	u, err := c.universe()
	if err != nil {
		return false, false
	}
	return u.isInterface(javaName)
}

type parsed struct {
	src  []byte
	tree *sitter.Tree
}

func (c *Compiler) DoCompile(ctx context.Context, builders []*javac.UnitBuilder, process javac.UnitProcessor) (err error) {
	u, err := c.universe()
	if err != nil {
		return err
	}
	files, err := c.parseAll(ctx, builders)
	defer func() {
		for _, f := range files {
			if f.tree != nil {
				f.tree.Close()
			}
		}
	}()
	if err != nil {
		return err
	}

	current := ""
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(fatal); ok {
				err = errors.AddContext(f.err, errors.CtxUnit, current)
				return
			}
			err = errors.AddContext(errors.Internal("java front end failed: %v", r), errors.CtxUnit, current)
		}
	}()

	units := make([]*unitCtx, len(builders))
	broken := make([]bool, len(builders))
	for i, b := range builders {
		current = b.Location()
		uc := newUnitCtx(u, files[i].src, b.Location())
		root := files[i].tree.RootNode()
		for _, e := range syntaxErrors(root) {
			broken[i] = true
			if e.IsMissing() {
				uc.errorf(e, "Syntax error, insert \"%s\"", e.Kind())
			} else {
				uc.errorf(e, "Syntax error on token \"%s\"", uc.text(e))
			}
		}
		uc.collectHeader(root)
		uc.declareTypes(root)
		units[i] = uc
	}
	for i, uc := range units {
		current = builders[i].Location()
		if broken[i] {
			for _, pt := range uc.types {
				pt.info.declared = true
			}
			continue
		}
		uc.resolveImports()
		uc.resolveHeaders()
	}
	for i, uc := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := builders[i]
		current = b.Location()
		cud := &decl.CompilationUnitDecl{Package: uc.pkg, SourceFile: b.Location()}
		if !broken[i] {
			cud.Types = uc.lowerTypes()
			uc.warnUnusedImports()
		}
		sort.SliceStable(uc.problems, func(x, y int) bool { return uc.problems[x].Line < uc.problems[y].Line })
		fu := &javac.FrontEndUnit{
			Decl:          cud,
			QualifiedRefs: slices.Sorted(maps.Keys(uc.qualified)),
			SimpleRefs:    slices.Sorted(maps.Keys(uc.simple)),
			Jsni:          uc.jsniMethods,
			Problems:      uc.problems,
		}
		if err := process(b, fu); err != nil {
			return err
		}
	}
	c.logger.Debug("compiled java batch", "units", len(builders))
	return nil
}

// parseAll reads and parses every builder in parallel.
func (c *Compiler) parseAll(ctx context.Context, builders []*javac.UnitBuilder) ([]parsed, error) {
	files := make([]parsed, len(builders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, b := range builders {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := b.Source()
			if err != nil {
				return err
			}
			tree, err := c.pool.Parse(src)
			if err != nil {
				return errors.AddContext(err, errors.CtxUnit, b.Location())
			}
			files[i] = parsed{src: src, tree: tree}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return files, err
	}
	return files, nil
}
