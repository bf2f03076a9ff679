// Package app wires configuration, the resource oracle and the cached
// compilation contexts into the build service the CLI drives.
package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"jjsdev/internal/core/config"
	"jjsdev/internal/core/errors"
	"jjsdev/internal/core/ports"
	"jjsdev/internal/core/watcher"
	"jjsdev/internal/data/blob"
	"jjsdev/internal/data/unitcache"
	"jjsdev/internal/engine/javac"
	"jjsdev/internal/engine/javafe"
	"jjsdev/internal/engine/resource"
	"jjsdev/internal/shared/intern"
	"jjsdev/internal/shared/treelog"
	"jjsdev/internal/shared/util"
)

// limiterTTL keeps an idle context's rebuild limiter around between bursts.
const limiterTTL = 10 * time.Minute

var (
	_ ports.ResourceOracle     = (*resource.Oracle)(nil)
	_ ports.CompilationContext = (*javac.StateBuilder)(nil)
)

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	oracle   ports.ResourceOracle
	registry *javac.Registry
	limiters *util.LimiterRegistry
	logger   *treelog.Logger

	mu      sync.Mutex
	build   config.Build
	last    *javac.CompilationState
	watcher *watcher.Watcher
}

// New resolves paths against the working directory and prepares, but does
// not open, the compilation context.
func New(cfg *config.Config) (*App, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "reading working directory")
	}
	return NewAt(cfg, cwd)
}

// NewAt is New with an explicit working directory.
func NewAt(cfg *config.Config, cwd string) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeValidationError, "config is required")
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "resolving paths")
	}
	oracle, err := resource.NewOracle(paths.SourceRoots, cfg.Resources.Include, cfg.Resources.ExcludeDirs, cfg.Resources.ExcludeFiles)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Paths:    paths,
		oracle:   oracle,
		limiters: util.NewLimiterRegistry(cfg.Watch.RebuildsPerSecond, cfg.Watch.Burst, limiterTTL),
		logger:   treelog.New(slog.Default()),
		build:    cfg.Build,
	}
	a.registry, err = javac.NewRegistry(cfg.Cache.Contexts, a.openContext)
	if err != nil {
		a.limiters.Close()
		return nil, err
	}
	return a, nil
}

// ContextKey names the compilation context of this project.
func (a *App) ContextKey() string { return a.Paths.ProjectRoot }

// ContextDir is where a context's unit database and class blobs live.
func (a *App) ContextDir(key string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(key))
	return filepath.Join(a.Paths.CacheDir, id.String())
}

func (a *App) openContext(key string) (*javac.StateBuilder, error) {
	interner := intern.New()
	factory := javafe.Factory(
		javafe.WithWorkers(a.Config.Build.ParseWorkers),
		javafe.WithLogger(slog.Default()),
	)
	opts := []javac.Option{
		javac.WithInterner(interner),
		javac.WithMaxIterations(a.Config.Build.MaxIterations),
	}
	if a.Config.Cache.Mode != config.CachePersistent {
		slog.Debug("opening in-memory compilation context", "context", key)
		return javac.NewStateBuilder(factory, opts...), nil
	}

	dir := a.ContextDir(key)
	store, err := blob.Open(filepath.Join(dir, a.Config.Cache.BlobDir), a.Config.Cache.HotBlobs)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, dir)
	}
	cache, err := unitcache.Open(filepath.Join(dir, a.Config.Cache.DBPath), store, interner)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, dir)
	}
	slog.Debug("opened persistent compilation context", "context", key, "dir", dir, "units", cache.Len())
	opts = append(opts, javac.WithBlobStore(store), javac.WithUnitCache(cache))
	return javac.NewStateBuilder(factory, opts...), nil
}

func (a *App) context() (*javac.StateBuilder, error) {
	return a.registry.Get(a.ContextKey())
}

// LastState is the state of the most recent successful build, or nil.
func (a *App) LastState() *javac.CompilationState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

func (a *App) setLast(s *javac.CompilationState) {
	a.mu.Lock()
	a.last = s
	a.mu.Unlock()
}

// ApplyConfig takes the build and debounce settings of a reloaded config.
// Paths, cache and resource settings only change on restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.build = cfg.Build
	if a.watcher != nil {
		a.watcher.SetDebounce(cfg.Watch.Debounce)
	}
	slog.Info("applied reloaded config", "strict", cfg.Build.Strict, "debounce", cfg.Watch.Debounce)
}

func (a *App) buildSettings() config.Build {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.build
}

// Close flushes and closes every open context.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	a.registry.Close()
	a.limiters.Close()
	return nil
}
