package app

import (
	"context"

	"inlinelog/internal/core/watcher"
)

// StartWatcher re-analyzes files under paths whenever their content
// changes. Passes run with ctx until it is cancelled.
func (a *App) StartWatcher(ctx context.Context, paths []string) error {
	w, err := watcher.NewWatcher(a.Config().Analysis.Debounce, a.filter, a.HandleChanges)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.watchCtx = ctx
	a.mu.Unlock()

	a.activeWatcher = w
	return w.Watch(paths)
}
