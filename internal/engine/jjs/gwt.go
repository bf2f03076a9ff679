package jjs

import (
	"jjsdev/internal/engine/decl"
	"jjsdev/internal/shared/intern"
)

// GwtAstBuilder builds units that came out of the Java front end. Those may
// declare several types and may name external interfaces before any
// interface lookup happened, so its mapper consults a KindResolver.
type GwtAstBuilder struct {
	*Builder
}

func NewGwtAstBuilder(kinds KindResolver, interner *intern.Interner) *GwtAstBuilder {
	mapper := NewReferenceMapper(WithKindResolver(kinds), WithInterner(interner))
	return &GwtAstBuilder{Builder: NewBuilder(mapper)}
}

// ProcessUnit builds every type a Java compilation unit declares.
func (g *GwtAstBuilder) ProcessUnit(cud *decl.CompilationUnitDecl) (*Result, error) {
	return g.Process(cud.Types)
}
