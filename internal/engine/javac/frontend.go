package javac

import (
	"context"

	"jjsdev/internal/engine/decl"
)

// FrontEndUnit is what the Java front end produced for one builder.
type FrontEndUnit struct {
	Decl *decl.CompilationUnitDecl
	// QualifiedRefs are the resolved binary names the source referenced,
	// such as a.Outer$Inner; SimpleRefs are type names as written.
	QualifiedRefs []string
	SimpleRefs    []string
	Jsni          []JsniMethod
	Problems      []Problem
}

func (u *FrontEndUnit) HasErrors() bool { return hasErrors(u.Problems) }

// UnitProcessor receives each compiled unit. Calls are never concurrent.
type UnitProcessor func(b *UnitBuilder, out *FrontEndUnit) error

// JavaCompiler is the Java front end. It parses and checks a batch of
// builders and knows the classes of units compiled earlier.
type JavaCompiler interface {
	// DoCompile compiles every builder and calls process exactly once for
	// each. A process error aborts the batch.
	DoCompile(ctx context.Context, builders []*UnitBuilder, process UnitProcessor) error
	// AddCompiledUnit makes the classes of a valid unit visible to later
	// batches.
	AddCompiledUnit(u CompilationUnit) error
	AddCompiledClass(cc *CompiledClass) error
	// IsInterface reports whether a type outside the unit being built is an
	// interface; known is false for names the compiler never saw.
	IsInterface(javaName string) (isInterface, known bool)
}

// CompilerFactory returns a fresh front end for each build.
type CompilerFactory func() JavaCompiler
