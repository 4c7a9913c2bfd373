package defaults

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
)

const reloadDebounce = 250 * time.Millisecond

// Watch loads dir into the overlay and reloads it whenever a JSON file in it
// changes. It blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context, dir string) error {
	if err := s.LoadDir(dir); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err = watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	// Editors emit bursts of events per save; reload once the burst settles.
	timer := time.NewTimer(reloadDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".json" || event.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(reloadDebounce)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("Defaults watcher error", logger.Error(watchErr))

		case <-timer.C:
			if reloadErr := s.LoadDir(dir); reloadErr != nil {
				s.log.Error("Failed to reload default schemas", logger.Error(reloadErr))
			}
		}
	}
}
