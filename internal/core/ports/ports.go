// Package ports declares the surfaces the app service drives and exposes.
package ports

import (
	"context"
	"io"
	"time"

	"jjsdev/internal/engine/javac"
	"jjsdev/internal/engine/resource"
	"jjsdev/internal/shared/treelog"
)

// ResourceOracle lists the compiler's current inputs.
type ResourceOracle interface {
	Resources() ([]resource.Resource, error)
}

// CompilationContext is one cached compilation context.
type CompilationContext interface {
	BuildFrom(ctx context.Context, logger *treelog.Logger, resources []resource.Resource, suppressErrors bool) (*javac.CompilationState, error)
	AddArchive(a *javac.Archive) int
	Close() error
}

// BuildRequest asks for an incremental build of every source root.
type BuildRequest struct {
	// Strict reports first-pass errors even when the config suppresses them.
	Strict bool
	// Changed lists the paths that triggered a watch build, for logging.
	Changed []string
}

// BuildResult summarizes a completed build.
type BuildResult struct {
	Units      int
	Classes    int
	ErrorUnits []string
	Stats      javac.BuildStats
	Duration   time.Duration
}

// BuildService is what the CLI drives.
type BuildService interface {
	Build(ctx context.Context, req BuildRequest) (BuildResult, error)
	// Dump writes the mini-AST of typeName, or of every unit when empty.
	Dump(ctx context.Context, w io.Writer, typeName string) error
	WriteArchive(ctx context.Context, path string) (int, error)
	LoadArchive(ctx context.Context, path string) (int, error)
	// Watch rebuilds on every burst of source changes until ctx ends.
	Watch(ctx context.Context, onBuild func(BuildResult, error)) error
}
