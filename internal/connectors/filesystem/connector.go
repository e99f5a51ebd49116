// Package filesystem watches a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// Ensure Connector implements the interfaces.
var (
	_ driven.Connector = (*Connector)(nil)
	_ driven.Notifier  = (*Connector)(nil)
)

// Connector lists and reads files below a root directory.
// Hidden files and directories are ignored everywhere.
type Connector struct {
	sourceID string
	rootPath string

	mu     sync.Mutex
	closed bool
	cancel []context.CancelFunc
}

// New creates a filesystem connector.
func New(sourceID, rootPath string) *Connector {
	return &Connector{
		sourceID: sourceID,
		rootPath: rootPath,
	}
}

// Type returns the connector type identifier.
func (c *Connector) Type() domain.SourceType {
	return domain.SourceLocal
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Root returns the watched directory.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks that the root exists and is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(c.rootPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: path does not exist: %s", domain.ErrConnectorValidation, c.rootPath)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnectorValidation, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: not a directory: %s", domain.ErrConnectorValidation, c.rootPath)
	}
	if _, err := os.ReadDir(c.rootPath); err != nil {
		return fmt.Errorf("%w: cannot read directory: %v", domain.ErrConnectorValidation, err)
	}
	return nil
}

// ListChanged walks the tree and returns files that are not in known or
// whose modification or change time is after since.
func (c *Connector) ListChanged(ctx context.Context, since time.Time, known map[string]time.Time) ([]domain.WatchedItem, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(c.rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	var items []domain.WatchedItem
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable entries are skipped, not fatal
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		item := itemFromInfo(path, info)
		if _, ok := known[item.ID]; !ok || item.ChangedSince(since) {
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return items, nil
}

// IsDeleted reports whether a file no longer exists.
func (c *Connector) IsDeleted(_ context.Context, id string) (bool, error) {
	_, err := os.Stat(id)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", id, err)
	}
	return false, nil
}

// Fetch reads a file from disk.
func (c *Connector) Fetch(ctx context.Context, item domain.WatchedItem) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(item.ID)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", item.ID, err)
	}
	mediaType := item.MediaType
	if mediaType == "" {
		mediaType = DetectMIMEType(item.ID)
	}
	return &domain.RawDocument{
		ItemID:          item.ID,
		Name:            filepath.Base(item.ID),
		URL:             FileURI(item.ID),
		MediaType:       mediaType,
		SourceMediaType: mediaType,
		Content:         content,
	}, nil
}

// Close stops any active watches. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, cancel := range c.cancel {
		cancel()
	}
	c.cancel = nil
	return nil
}

func (c *Connector) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConnectorClosed
	}
	return nil
}

func itemFromInfo(path string, info fs.FileInfo) domain.WatchedItem {
	return domain.WatchedItem{
		ID:          path,
		DisplayName: info.Name(),
		MediaType:   DetectMIMEType(path),
		ModifiedAt:  info.ModTime().UTC(),
		CreatedAt:   changeTime(info).UTC(),
		Location:    FileURI(path),
		ParentID:    filepath.Dir(path),
	}
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
