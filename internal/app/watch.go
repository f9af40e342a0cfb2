package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.trai.ch/strata/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

// Watch builds, then rebuilds whenever files under the project root change, until ctx is done.
// Failed builds are reported and watching continues. A change to a configuration file
// reopens the project so new options and plugins take effect.
func (a *App) Watch(ctx context.Context, opts RunOptions) error {
	s, err := a.open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { a.close(s) }()

	a.rebuild(ctx, s, opts)

	if err := a.Watcher.Start(ctx, s.root, ignoreGlobs(s)); err != nil {
		return err
	}
	defer func() { _ = a.Watcher.Stop() }()

	window := a.debounceWindow
	if window <= 0 {
		window = watcher.DefaultDebounceWindow
	}
	batches := make(chan []ports.WatchEvent)
	debouncer := watcher.NewDebouncer(window, func(events []ports.WatchEvent) {
		select {
		case batches <- events:
		case <-ctx.Done():
		}
	})
	go func() {
		for event := range a.Watcher.Events() {
			debouncer.Add(event)
		}
	}()

	a.Logger.Info(fmt.Sprintf("watching %s for changes", s.root))
	for {
		select {
		case <-ctx.Done():
			return nil
		case events := <-batches:
			if touchesConfig(s, events) {
				a.Logger.Info("configuration changed, reloading")
				next, err := a.open(ctx, opts)
				if err != nil {
					a.Logger.Error(err)
					continue
				}
				a.close(s)
				s = next
			} else {
				s.compilation.Invalidate(events...)
				a.Logger.Info(fmt.Sprintf("%d files changed, rebuilding", len(events)))
			}
			a.rebuild(ctx, s, opts)
		}
	}
}

// rebuild builds and logs failures that were not already reported as diagnostics.
func (a *App) rebuild(ctx context.Context, s *session, opts RunOptions) {
	err := a.build(ctx, s, opts)
	switch {
	case err == nil, ctx.Err() != nil:
	case errors.Is(err, domain.ErrBuildFailed):
		a.Logger.Warn("build failed, waiting for changes")
	default:
		a.Logger.Error(err)
	}
}

// ignoreGlobs keeps build outputs from triggering rebuilds.
func ignoreGlobs(s *session) []string {
	var globs []string
	for _, dir := range s.compilation.DistDirs() {
		if rel := relative(s.root, dir); rel != "." {
			globs = append(globs, rel)
		}
	}
	return globs
}

func touchesConfig(s *session, events []ports.WatchEvent) bool {
	return slices.ContainsFunc(events, func(e ports.WatchEvent) bool {
		return slices.Contains(s.configFiles, e.Path)
	})
}
