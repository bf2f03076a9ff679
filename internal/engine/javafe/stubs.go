package javafe

import (
	"embed"
	"io/fs"
	"sync"

	"jjsdev/internal/core/errors"
)

// stubFS holds the JRE shapes user code compiles against: signatures only,
// no bodies. Stub types never become compilation units.
//
//go:embed stubs/*.java
var stubFS embed.FS

var (
	stubsOnce sync.Once
	stubTypes map[string]*typeInfo
	stubsErr  error
)

// jreStubs parses the embedded stubs once per process.
func jreStubs(pool *ParserPool) (map[string]*typeInfo, error) {
	stubsOnce.Do(func() {
		stubTypes, stubsErr = loadStubs(pool)
	})
	return stubTypes, stubsErr
}

func loadStubs(pool *ParserPool) (map[string]*typeInfo, error) {
	paths, err := fs.Glob(stubFS, "stubs/*.java")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternalCompiler, "listing JRE stubs")
	}
	u := newUniverse(nil)
	var units []*unitCtx
	for _, p := range paths {
		src, err := stubFS.ReadFile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternalCompiler, "reading JRE stub")
		}
		tree, err := pool.Parse(src)
		if err != nil {
			return nil, err
		}
		defer tree.Close()
		root := tree.RootNode()
		if errs := syntaxErrors(root); len(errs) > 0 {
			return nil, errors.Internal("syntax error in JRE stub %s line %d", p, lineOf(errs[0]))
		}
		c := newUnitCtx(u, src, p)
		c.stub = true
		c.collectHeader(root)
		c.declareTypes(root)
		units = append(units, c)
	}
	for _, c := range units {
		c.resolveImports()
		c.resolveHeaders()
	}
	for _, c := range units {
		if len(c.problems) > 0 {
			p := c.problems[0]
			return nil, errors.Internal("JRE stub %s: %s", c.file, p.String())
		}
	}
	return u.types, nil
}
