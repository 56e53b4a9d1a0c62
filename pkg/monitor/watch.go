package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// startEventWatcher watches the logs root for new JSONL data and
// signals on the returned channel when a pass is worth running early.
//
// Watching is best effort: if the watcher cannot be created or the
// root does not exist, watch mode silently degrades to pure interval
// polling. The returned closer is always safe to call.
func (s *scheduler) startEventWatcher(ctx context.Context) (<-chan struct{}, func()) {
	noop := func() {}

	if s.watchRoot == "" {
		return nil, noop
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("file watching unavailable, polling only", "error", err)
		return nil, noop
	}

	if err := addTreeToWatcher(fsw, s.watchRoot); err != nil {
		s.logger.Warn("failed to watch logs root, polling only",
			"path", s.watchRoot, "error", err)
		_ = fsw.Close()
		return nil, noop
	}

	events := make(chan struct{}, 1)

	go func() {
		defer close(events)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fsw.Events:
				if !ok {
					return
				}

				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}

				// A new project directory needs watching itself.
				if event.Op&fsnotify.Create != 0 {
					if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
						if addErr := fsw.Add(event.Name); addErr != nil {
							s.logger.Debug("failed to watch new directory",
								"path", event.Name, "error", addErr)
						}
						continue
					}
				}

				if !strings.HasSuffix(event.Name, ".jsonl") {
					continue
				}

				// Coalesce bursts: an already-pending signal is enough.
				select {
				case events <- struct{}{}:
				default:
				}

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				s.logger.Warn("file watcher error", "error", err)
			}
		}
	}()

	return events, func() { _ = fsw.Close() }
}

// addTreeToWatcher registers the root and its project subdirectories.
func addTreeToWatcher(fsw *fsnotify.Watcher, root string) error {
	if err := fsw.Add(root); err != nil {
		return err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// Subdirectory races are tolerable; the interval tick still
		// picks the data up.
		_ = fsw.Add(filepath.Join(root, entry.Name()))
	}

	return nil
}
