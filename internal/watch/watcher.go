// Package watch re-runs the unification whenever new raw files are dropped
// into the data directories, so the processed tables track the inbox without
// manual runs.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
)

// Runner is invoked after the debounce window closes.
type Runner func(ctx context.Context) error

// Watcher debounces file events on the raw data directories. A burst of
// copies (scp of a month of files) triggers one run, not one per file.
type Watcher struct {
	dirs     []string
	debounce time.Duration
	run      Runner
	logger   *slog.Logger
	clock    clockwork.Clock
}

func New(dirs []string, debounce time.Duration, run Runner, logger *slog.Logger, clock clockwork.Clock) *Watcher {
	return &Watcher{dirs: dirs, debounce: debounce, run: run, logger: logger, clock: clock}
}

// Watch blocks until ctx is cancelled. Runner errors are logged, not fatal:
// a malformed file must not kill the watcher.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	watched := 0
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return errors.New("no watchable directories")
	}
	w.logger.Info("watching for new raw files", "dirs", watched, "debounce", w.debounce)

	timer := w.clock.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.Chan()
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("file event", "path", ev.Name, "op", ev.Op.String())
			if pending {
				if !timer.Stop() {
					select {
					case <-timer.Chan():
					default:
					}
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-timer.Chan():
			if !pending {
				continue
			}
			pending = false
			w.logger.Info("raw files changed, re-running unification")
			if err := w.run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				w.logger.Error("unification run failed", "error", err)
			}
		}
	}
}
