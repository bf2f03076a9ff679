package javac

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/resource"
	"jjsdev/internal/shared/treelog"
)

// fakeCompiler understands a line-oriented toy source format:
//
//	class foo.Bar        top-level class (interface foo.Bar for interfaces)
//	method zaz           void no-arg method
//	ref foo.Baz          qualified reference
//	simple Baz           simple reference
//	error message        compile error
//	body 2               pad every method body with two statements
type fakeCompiler struct {
	mu       sync.Mutex
	calls    int
	compiled []string
	added    []string
	known    map[string]bool

	// push, when set for a type, hands the builder straight to the worker
	// without filling it in.
	push func(b *UnitBuilder) bool
}

type fakeFactory struct {
	mu        sync.Mutex
	compilers []*fakeCompiler
	push      func(b *UnitBuilder) bool
}

func (f *fakeFactory) New() JavaCompiler {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &fakeCompiler{known: make(map[string]bool), push: f.push}
	f.compilers = append(f.compilers, c)
	return c
}

func (f *fakeFactory) last() *fakeCompiler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.compilers[len(f.compilers)-1]
}

func (c *fakeCompiler) DoCompile(_ context.Context, builders []*UnitBuilder, process UnitProcessor) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	for _, b := range builders {
		src, err := b.Source()
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.compiled = append(c.compiled, b.TypeName())
		c.mu.Unlock()
		if c.push != nil && c.push(b) {
			continue
		}
		fu, err := parseFake(b.TypeName(), string(src))
		if err != nil {
			return err
		}
		if err := process(b, fu); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeCompiler) AddCompiledUnit(u CompilationUnit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.added = append(c.added, u.TypeName())
	return nil
}

func (c *fakeCompiler) AddCompiledClass(cc *CompiledClass) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known[cc.InternalName()] = true
	return nil
}

func (c *fakeCompiler) IsInterface(string) (bool, bool) { return false, false }

func parseFake(typeName, src string) (*FrontEndUnit, error) {
	fu := &FrontEndUnit{}
	top := &decl.DeclaredType{
		Name:       decl.ParseGlobalName(typeName),
		Modifiers:  decl.Modifiers{Public: true},
		SourceFile: resource.ToPath(typeName),
		Line:       1,
	}
	pad := 0
	var methods []string
	sc := bufio.NewScanner(strings.NewReader(src))
	line := 0
	for sc.Scan() {
		line++
		kw, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		switch kw {
		case "":
		case "class":
			top.Name = decl.ParseGlobalName(arg)
		case "interface":
			top.Name = decl.ParseGlobalName(arg)
			top.IsInterface = true
		case "method":
			methods = append(methods, arg)
		case "ref":
			fu.QualifiedRefs = append(fu.QualifiedRefs, arg)
		case "simple":
			fu.SimpleRefs = append(fu.SimpleRefs, arg)
		case "error":
			fu.Problems = append(fu.Problems, Problem{Severity: SeverityError, Message: arg, Line: line})
		case "warning":
			fu.Problems = append(fu.Problems, Problem{Severity: SeverityWarning, Message: arg, Line: line})
		case "body":
			fmt.Sscanf(arg, "%d", &pad)
		default:
			return nil, fmt.Errorf("fake: unknown directive %q", kw)
		}
	}
	for _, name := range methods {
		body := &decl.Block{}
		for i := 0; i < pad; i++ {
			body.Stmts = append(body.Stmts, &decl.VarDef{
				Name: fmt.Sprintf("x%d", i), Type: decl.Prim(decl.Int), Initializer: decl.IntLit(int32(i)),
			})
		}
		body.Stmts = append(body.Stmts, &decl.Return{})
		m := &decl.Method{Name: name, ReturnType: decl.Void}
		mods := decl.Modifiers{Public: true}
		if top.IsInterface {
			mods.Abstract = true
		} else {
			m.Body = body
		}
		top.Members = append(top.Members, decl.Member{Kind: decl.MemberMethod, Modifiers: mods, Method: m, Line: 2})
	}
	fu.Decl = &decl.CompilationUnitDecl{
		Package:    top.Name.Pkg,
		SourceFile: top.SourceFile,
		Types:      []*decl.DeclaredType{top},
	}
	return fu, nil
}

// memResources builds resources from path/content pairs, all stamped mod.
func memResources(mod int64, pairs ...string) []resource.Resource {
	var out []resource.Resource
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, resource.NewMemory(pairs[i], []byte(pairs[i+1]), mod))
	}
	return out
}

func build(t *testing.T, sb *StateBuilder, resources []resource.Resource) *CompilationState {
	t.Helper()
	state, err := sb.BuildFrom(context.Background(), treelog.Discard(), resources, false)
	if err != nil {
		t.Fatalf("BuildFrom: %v", err)
	}
	return state
}
