package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/core/ports"
	"jjsdev/internal/data/unitcache"
	"jjsdev/internal/engine/ast"
	"jjsdev/internal/engine/javac"
	"jjsdev/internal/shared/observability"
	"jjsdev/internal/shared/util"
)

type buildService struct {
	app *App
}

var _ ports.BuildService = (*buildService)(nil)

func NewBuildService(app *App) ports.BuildService {
	return &buildService{app: app}
}

func (a *App) BuildService() ports.BuildService {
	return NewBuildService(a)
}

func (s *buildService) Build(ctx context.Context, req ports.BuildRequest) (ports.BuildResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "buildService.Build", trace.WithAttributes(
		attribute.Int("changed", len(req.Changed)),
		attribute.Bool("strict", req.Strict),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.BuildResult{}, err
	}
	if s.app == nil {
		return ports.BuildResult{}, fmt.Errorf("app is required")
	}
	res, err := s.app.runBuild(ctx, req)
	if err != nil {
		span.RecordError(err)
	}
	return res, err
}

func (a *App) runBuild(ctx context.Context, req ports.BuildRequest) (ports.BuildResult, error) {
	start := time.Now()
	if len(req.Changed) > 0 {
		slog.Debug("rebuilding after source changes", "changed", len(req.Changed), "first", req.Changed[0])
	}

	resources, err := a.oracle.Resources()
	if err != nil {
		return ports.BuildResult{}, errors.AddContext(err, errors.CtxOperation, "list_resources")
	}
	sb, err := a.context()
	if err != nil {
		return ports.BuildResult{}, err
	}

	settings := a.buildSettings()
	suppress := settings.Suppressed() && !req.Strict
	state, err := sb.BuildFrom(ctx, a.logger, resources, suppress)
	if err != nil {
		return ports.BuildResult{}, errors.AddContext(err, errors.CtxOperation, "build")
	}
	a.setLast(state)

	res := resultOf(state, time.Since(start))
	slog.Info("build finished",
		"units", res.Units,
		"classes", res.Classes,
		"compiled", res.Stats.Compiled,
		"reused", res.Stats.Reused,
		"invalidated", res.Stats.Invalidated,
		"iterations", res.Stats.Iterations,
		"errors", len(res.ErrorUnits),
		"duration", res.Duration,
		"heap_mb", util.GetHeapAllocMB(),
	)
	if (req.Strict || settings.Strict) && len(res.ErrorUnits) > 0 {
		err := errors.Newf(errors.CodeValidationError, "%d units have errors", len(res.ErrorUnits))
		return res, errors.AddContext(err, errors.CtxUnit, res.ErrorUnits)
	}
	return res, nil
}

func resultOf(state *javac.CompilationState, d time.Duration) ports.BuildResult {
	res := ports.BuildResult{
		Units:    len(state.Units()),
		Classes:  len(state.ClassFileMap()),
		Stats:    state.Stats(),
		Duration: d,
	}
	for _, u := range state.ErrorUnits() {
		res.ErrorUnits = append(res.ErrorUnits, u.TypeName())
	}
	return res
}

// state returns the last build, building once if there is none yet.
func (s *buildService) state(ctx context.Context) (*javac.CompilationState, error) {
	if st := s.app.LastState(); st != nil {
		return st, nil
	}
	if _, err := s.Build(ctx, ports.BuildRequest{}); err != nil {
		return nil, err
	}
	return s.app.LastState(), nil
}

func (s *buildService) Dump(ctx context.Context, w io.Writer, typeName string) error {
	state, err := s.state(ctx)
	if err != nil {
		return err
	}
	units := state.Units()
	if typeName != "" {
		u, ok := state.Unit(typeName)
		if !ok {
			return errors.AddContext(errors.New(errors.CodeNotFound, "no compilation unit"), errors.CtxTypeName, typeName)
		}
		units = []javac.CompilationUnit{u}
	}
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		types, err := u.Types()
		if err != nil {
			return errors.AddContext(err, errors.CtxUnit, u.ResourceLocation())
		}
		if _, err := fmt.Fprintf(w, "// %s\n", u.ResourcePath()); err != nil {
			return err
		}
		for _, t := range types {
			if _, err := io.WriteString(w, ast.Dump(t)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *buildService) WriteArchive(ctx context.Context, path string) (int, error) {
	state, err := s.state(ctx)
	if err != nil {
		return 0, err
	}
	sb, err := s.app.context()
	if err != nil {
		return 0, err
	}
	archive := javac.NewArchive(state.Units())
	if err := unitcache.WriteArchiveFile(path, archive, sb.Store()); err != nil {
		return 0, err
	}
	slog.Info("wrote unit archive", "path", path, "id", archive.ID, "units", len(archive.Units))
	return len(archive.Units), nil
}

func (s *buildService) LoadArchive(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	sb, err := s.app.context()
	if err != nil {
		return 0, err
	}
	archive, err := unitcache.ReadArchiveFile(path, sb.Store(), sb.Interner())
	if err != nil {
		return 0, err
	}
	added := sb.AddArchive(archive)
	slog.Info("loaded unit archive", "path", path, "id", archive.ID, "units", len(archive.Units), "added", added)
	return added, nil
}

func (s *buildService) Watch(ctx context.Context, onBuild func(ports.BuildResult, error)) error {
	return s.app.watch(ctx, s, onBuild)
}
