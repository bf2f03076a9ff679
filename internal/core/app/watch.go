package app

import (
	"context"
	"log/slog"

	"jjsdev/internal/core/errors"
	"jjsdev/internal/core/ports"
	"jjsdev/internal/core/watcher"
)

// watch rebuilds after every debounced burst of source changes. Bursts
// that arrive while a build runs collapse into one follow-up build, and
// builds are throttled by the context's rebuild limiter.
func (a *App) watch(ctx context.Context, svc ports.BuildService, onBuild func(ports.BuildResult, error)) error {
	changes := make(chan []string, 1)
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Resources.ExcludeDirs,
		a.Config.Resources.ExcludeFiles,
		func(paths []string) {
			select {
			case changes <- paths:
			default:
				slog.Debug("build already pending", "changed", len(paths))
			}
		},
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeIO, "creating source watcher")
	}
	defer w.Close()
	if err := w.Watch(a.Paths.SourceRoots); err != nil {
		return errors.Wrap(err, errors.CodeIO, "watching source roots")
	}

	a.mu.Lock()
	a.watcher = w
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.watcher = nil
		a.mu.Unlock()
	}()

	limiter := a.limiters.Get(a.ContextKey())
	slog.Info("watching sources", "roots", a.Paths.SourceRoots)
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			if err := limiter.Wait(ctx, 1); err != nil {
				return nil
			}
			res, err := svc.Build(ctx, ports.BuildRequest{Changed: paths})
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				slog.Error("watch build failed", "error", err)
			}
			if onBuild != nil {
				onBuild(res, err)
			}
		}
	}
}
