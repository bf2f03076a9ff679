package javafe

import (
	"sync"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/shared/observability"
)

var (
	javaOnce sync.Once
	javaLang *sitter.Language
)

// Java returns the tree-sitter Java grammar.
func Java() *sitter.Language {
	javaOnce.Do(func() {
		javaLang = sitter.NewLanguage(tree_sitter_java.Language())
	})
	return javaLang
}

// ParserPool recycles tree-sitter parsers. Parsers are not safe for
// concurrent use, the pool is.
//
//	sp := pool.Get()
//	defer pool.Put(sp)
//	tree := sp.Parse(source, nil)
type ParserPool struct {
	lang *sitter.Language
	pool sync.Pool

	leases   map[*sitter.Parser]time.Time
	leasesMu sync.Mutex
}

func NewParserPool(lang *sitter.Language) *ParserPool {
	p := &ParserPool{
		lang:   lang,
		leases: make(map[*sitter.Parser]time.Time),
	}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

// Get returns a parser configured for the pool's language.
func (p *ParserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	sp.SetLanguage(p.lang)

	p.leasesMu.Lock()
	p.leases[sp] = time.Now()
	p.leasesMu.Unlock()
	return sp
}

// Put resets sp and returns it. Callers must not use sp afterwards.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.leasesMu.Lock()
	delete(p.leases, sp)
	p.leasesMu.Unlock()

	sp.Reset()
	p.pool.Put(sp)
}

// Active returns the number of leased parsers.
func (p *ParserPool) Active() int {
	p.leasesMu.Lock()
	defer p.leasesMu.Unlock()
	return len(p.leases)
}

// Parse parses src with a pooled parser. The caller closes the tree.
func (p *ParserPool) Parse(src []byte) (*sitter.Tree, error) {
	start := time.Now()
	defer func() { observability.ParsingDuration.WithLabelValues("java").Observe(time.Since(start).Seconds()) }()

	sp := p.Get()
	defer p.Put(sp)
	tree := sp.Parse(src, nil)
	if tree == nil {
		return nil, errors.Internal("tree-sitter returned no tree")
	}
	return tree, nil
}
