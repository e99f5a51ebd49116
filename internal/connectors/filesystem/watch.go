package filesystem

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/logger"
)

// Watch signals on the returned channel whenever a visible file below the
// root is created, written, removed, or renamed. Directories created after
// the watch started are added to it. The channel closes when ctx is done
// or the connector is closed.
func (c *Connector) Watch(ctx context.Context) (<-chan struct{}, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = append(c.cancel, cancel)
	c.mu.Unlock()

	wake := make(chan struct{}, 1)
	go func() {
		defer close(wake)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change, ok := c.handleFsEvent(event)
				if !ok {
					continue
				}
				if change == domain.ChangeCreated {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := addTree(watcher, event.Name); err != nil {
							logger.Warn("watch new directory %s: %v", event.Name, err)
						}
					}
				}
				logger.Debug("filesystem %s: %s", change, event.Name)
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("filesystem watch error: %v", err)
			}
		}
	}()

	return wake, nil
}

// handleFsEvent maps an fsnotify event onto a change type.
// Chmod-only events and hidden paths are ignored.
func (c *Connector) handleFsEvent(event fsnotify.Event) (domain.ChangeType, bool) {
	rel, err := filepath.Rel(c.rootPath, event.Name)
	if err != nil {
		rel = event.Name
	}
	if isHidden(rel) {
		return 0, false
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return domain.ChangeDeleted, true
	case event.Has(fsnotify.Create):
		return domain.ChangeCreated, true
	case event.Has(fsnotify.Write):
		return domain.ChangeUpdated, true
	default:
		return 0, false
	}
}

// addTree watches root and every visible directory below it.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
