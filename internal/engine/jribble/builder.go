package jribble

import (
	"jjsdev/internal/engine/decl"
	"jjsdev/internal/engine/jjs"
	"jjsdev/internal/shared/intern"
)

// NewReferenceMapper returns a mapper with no kind information. Jribble
// names an external type as a class until some unit looks it up as an
// interface, at which point the class placeholder is superseded.
func NewReferenceMapper(interner *intern.Interner) *jjs.ReferenceMapper {
	return jjs.NewReferenceMapper(jjs.WithInterner(interner))
}

// AstBuilder builds the mini-AST of one Jribble declaration at a time.
type AstBuilder struct {
	b *jjs.Builder
}

func NewAstBuilder(interner *intern.Interner) *AstBuilder {
	return &AstBuilder{b: jjs.NewBuilder(NewReferenceMapper(interner))}
}

func (a *AstBuilder) Mapper() *jjs.ReferenceMapper { return a.b.Mapper() }

// Process builds t. Each Jribble resource carries exactly one declaration.
func (a *AstBuilder) Process(t *decl.DeclaredType) (*jjs.Result, error) {
	return a.b.Process([]*decl.DeclaredType{t})
}
