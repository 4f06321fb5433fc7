package orchestra

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/colonyops/orchestra/internal/core/backlog"
	"github.com/colonyops/orchestra/internal/core/eventbus"
	"github.com/colonyops/orchestra/internal/core/logging"
)

// BacklogWatcher watches one scope's backlog document for edits. The
// parent directory is watched rather than the file so that editors which
// save by rename are still observed.
type BacklogWatcher struct {
	watcher     *fsnotify.Watcher
	scope       backlog.Scope
	path        string
	debounceDur time.Duration
	bus         *eventbus.EventBus
	log         zerolog.Logger
}

// NewBacklogWatcher creates a watcher for the scope's document.
func NewBacklogWatcher(scope backlog.Scope, debounce time.Duration, bus *eventbus.EventBus) (*BacklogWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	path := scope.BacklogPath()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &BacklogWatcher{
		watcher:     watcher,
		scope:       scope,
		path:        filepath.Clean(path),
		debounceDur: debounce,
		bus:         bus,
		log:         logging.ScopeComponent("backlog-watcher", scope.ID),
	}, nil
}

// Run blocks until ctx is cancelled or the watcher is closed. Each burst
// of writes to the document is collapsed into a single call to onChange
// once no further events arrive for the debounce interval.
func (w *BacklogWatcher) Run(ctx context.Context, onChange func(context.Context)) error {
	var (
		debounce *time.Timer
		fire     <-chan time.Time
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}

			w.log.Debug().
				Str("path", event.Name).
				Str("op", event.Op.String()).
				Msg("file system event")

			if debounce == nil {
				debounce = time.NewTimer(w.debounceDur)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.debounceDur)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			w.bus.PublishBacklogChanged(eventbus.BacklogChangedPayload{ScopeID: w.scope.ID, Path: w.path})
			onChange(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

// Close stops the watcher.
func (w *BacklogWatcher) Close() error {
	return w.watcher.Close()
}
