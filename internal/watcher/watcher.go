package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/mockjson/internal/logger"
)

type implWatcher struct {
	dir      string
	file     string
	handler  ChangeHandler
	logger   logger.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// Start consumes change events until the context is cancelled or the
// underlying subscription closes. Events are handled inline, so at most
// one reload is in flight at a time.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started. Monitoring: %s", filepath.Join(w.dir, w.file))

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Exact base-name match only; siblings in the same
			// directory never trigger a reload.
			if filepath.Base(event.Name) != w.file {
				w.logger.Debug(ctx, "Ignoring change to %s", event.Name)
				continue
			}

			w.logger.Info(ctx, "Change detected: %s", event.Name)

			if w.debounce <= 0 {
				w.fire(ctx)
				continue
			}

			// Trailing-edge debounce: editors that write via
			// temp-file-then-rename fire several events per save.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = timer.C
			} else {
				// Drain a tick that fired before the Reset so a
				// stale value can't trigger an early reload.
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-pending:
			timer = nil
			pending = nil
			w.fire(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the filesystem subscription
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) fire(ctx context.Context) {
	if err := w.handler(ctx); err != nil {
		w.logger.Error(ctx, "Reload failed, keeping previous data: %v", err)
	}
}
