package javac

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"jjsdev/internal/data/blob"
	"jjsdev/internal/engine/resource"
	"jjsdev/internal/shared/intern"
	"jjsdev/internal/shared/observability"
	"jjsdev/internal/shared/treelog"
)

const DefaultMaxIterations = 64

// StateBuilder is one compilation context: it owns the unit cache, the blob
// store and the interner, and runs at most one build at a time.
type StateBuilder struct {
	mu sync.Mutex

	cache         UnitCache
	store         *blob.Store
	interner      *intern.Interner
	newCompiler   CompilerFactory
	maxIterations int
}

type Option func(*StateBuilder)

func WithUnitCache(c UnitCache) Option { return func(s *StateBuilder) { s.cache = c } }

func WithBlobStore(st *blob.Store) Option { return func(s *StateBuilder) { s.store = st } }

func WithInterner(i *intern.Interner) Option { return func(s *StateBuilder) { s.interner = i } }

// WithMaxIterations caps compile rounds per build. Values below one keep
// the default.
func WithMaxIterations(n int) Option {
	return func(s *StateBuilder) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// NewStateBuilder defaults to a memory unit cache and a memory blob store.
func NewStateBuilder(newCompiler CompilerFactory, opts ...Option) *StateBuilder {
	s := &StateBuilder{newCompiler: newCompiler, maxIterations: DefaultMaxIterations}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewMemoryUnitCache()
	}
	if s.store == nil {
		s.store = blob.NewMemory()
	}
	if s.interner == nil {
		s.interner = intern.New()
	}
	return s
}

func (s *StateBuilder) Cache() UnitCache { return s.cache }

func (s *StateBuilder) Store() *blob.Store { return s.store }

func (s *StateBuilder) Interner() *intern.Interner { return s.interner }

// Close releases the unit cache.
func (s *StateBuilder) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Close()
}

// BuildFrom compiles resources into a new state, reusing every cached unit
// whose resource and dependencies are unchanged.
func (s *StateBuilder) BuildFrom(ctx context.Context, logger *treelog.Logger, resources []resource.Resource, suppressErrors bool) (*CompilationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		observability.BuildDuration.WithLabelValues("resources").Observe(time.Since(start).Seconds())
	}()
	buildID := uuid.NewString()
	ctx, span := observability.Tracer.Start(ctx, "javac.BuildFrom", trace.WithAttributes(
		attribute.String("build.id", buildID),
		attribute.Int("resources", len(resources)),
	))
	defer span.End()
	logger = logger.WithContext(ctx).With("build", buildID)

	more := newCompileMoreLater(s, suppressErrors)
	var builders []*UnitBuilder
	var cached []cachedEntry
	for _, res := range resources {
		b := NewResourceBuilder(res)
		unit := s.cache.Find(res.Path())

		// A changed timestamp with unchanged content keeps the cached unit.
		if unit != nil && unit.LastModified() != res.LastModified() {
			s.cache.Remove(unit)
			id, err := b.ContentID()
			if err != nil {
				span.RecordError(err)
				return nil, err
			}
			if cu := unit.AsCached(); cu != nil && unit.ContentID() == id {
				updated := cu.WithTimestamp(res.LastModified(), res.Location())
				s.cache.Add(updated)
				unit = updated
			} else {
				unit = nil
			}
		}
		if unit != nil {
			cached = append(cached, cachedEntry{builder: b, unit: unit})
			if err := more.addValidUnit(unit); err != nil {
				return nil, err
			}
			continue
		}
		builders = append(builders, b)
	}
	if logger.IsLoggable(treelog.Trace) {
		logger.Log(treelog.Trace, fmt.Sprintf("Found %d cached/archived units.  Used %d / %d units from cache.",
			len(cached), len(cached), len(resources)))
	}
	observability.UnitsReusedTotal.Add(float64(len(cached)))

	units, err := more.compile(ctx, logger, builders, cached, "resources", suppressErrors)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return newCompilationState(logger, units, more)
}

// buildGeneratedTypes compiles generator output into an existing state.
// Generated units are found by content; a cached unit with errors is
// rebuilt so its source can be inspected.
func (s *StateBuilder) buildGeneratedTypes(ctx context.Context, logger *treelog.Logger, generated []GeneratedUnit, more *CompileMoreLater, suppressErrors bool) ([]CompilationUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		observability.BuildDuration.WithLabelValues("generated").Observe(time.Since(start).Seconds())
	}()

	var builders []*UnitBuilder
	var cached []cachedEntry
	for _, g := range generated {
		b := NewGeneratedBuilder(g)
		if unit := s.cache.FindByContentID(b.contentID); unit != nil && !unit.IsError() {
			cached = append(cached, cachedEntry{builder: b, unit: unit})
			if err := more.addValidUnit(unit); err != nil {
				return nil, err
			}
			continue
		}
		builders = append(builders, b)
	}
	observability.UnitsReusedTotal.Add(float64(len(cached)))
	return more.compile(ctx, logger, builders, cached, "generated", suppressErrors)
}

// Archive is a set of previously built units shipped with a library.
type Archive struct {
	ID    string
	Units []*CachedUnit
}

// NewArchive collects the persistable units of a build.
func NewArchive(units []CompilationUnit) *Archive {
	a := &Archive{ID: uuid.NewString()}
	for _, u := range units {
		if !u.ShouldBePersisted() {
			continue
		}
		if cu := u.AsCached(); cu != nil {
			a.Units = append(a.Units, cu)
		}
	}
	return a
}

// AddArchive seeds the cache with archived units. A unit built by a
// different AST version is skipped, and an archived unit only replaces a
// cache entry that is older. It returns the number of units taken.
func (s *StateBuilder) AddArchive(a *Archive) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, u := range a.Units {
		if u.TypesVersion() != TypesVersion {
			continue
		}
		existing := s.cache.Find(u.ResourcePath())
		if existing == nil || existing.LastModified() < u.LastModified() {
			s.cache.AddArchived(u)
			added++
		}
	}
	return added
}
