package drive

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/ragsync/internal/connectors/google"
	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
	"github.com/custodia-labs/ragsync/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector polls a Drive folder and its subfolders.
type Connector struct {
	sourceID string
	api      FilesAPI
	cfg      Config
	limiter  *google.RateLimiter

	mu     sync.Mutex
	closed bool
}

// Option configures a Connector.
type Option func(*Connector)

// WithRateLimiter replaces the default Drive rate limiter.
func WithRateLimiter(l *google.RateLimiter) Option {
	return func(c *Connector) {
		c.limiter = l
	}
}

// New creates a Drive connector over api.
func New(sourceID string, api FilesAPI, cfg Config, opts ...Option) *Connector {
	c := &Connector{
		sourceID: sourceID,
		api:      api,
		cfg:      cfg.withDefaults(),
		limiter:  google.NewRateLimiter(google.DriveRateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the connector type identifier.
func (c *Connector) Type() domain.SourceType {
	return domain.SourceGoogleDrive
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// FolderID returns the watched folder, empty for the whole drive.
func (c *Connector) FolderID() string {
	return c.cfg.FolderID
}

// Validate checks the credentials and, when a folder is configured,
// that it exists and is a folder.
func (c *Connector) Validate(ctx context.Context) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if c.cfg.FolderID == "" {
		err := c.limiter.Call(ctx, func() error {
			_, err := c.api.List(ctx, "trashed=false", "", 1)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: list files: %w", domain.ErrConnectorValidation, err)
		}
		return nil
	}

	var folder *drive.File
	err := c.limiter.Call(ctx, func() error {
		f, err := c.api.Get(ctx, c.cfg.FolderID, folderFields)
		folder = f
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: folder %s: %w", domain.ErrConnectorValidation, c.cfg.FolderID, err)
	}
	if !isFolder(folder) {
		return fmt.Errorf("%w: %s is not a folder (%s)", domain.ErrConnectorValidation, c.cfg.FolderID, folder.MimeType)
	}
	if folder.Trashed {
		return fmt.Errorf("%w: folder %s is trashed", domain.ErrConnectorValidation, c.cfg.FolderID)
	}
	return nil
}

// ListChanged returns files modified or created after since in the
// configured folder tree. Folders are traversed but never returned.
// Trashed files are returned with Trashed set.
func (c *Connector) ListChanged(ctx context.Context, since time.Time, _ map[string]time.Time) ([]domain.WatchedItem, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	if c.cfg.FolderID == "" {
		return c.listFolder(ctx, "", since)
	}

	var items []domain.WatchedItem
	queue := []string{c.cfg.FolderID}
	visited := map[string]bool{c.cfg.FolderID: true}

	for len(queue) > 0 {
		folderID := queue[0]
		queue = queue[1:]

		found, err := c.listFolder(ctx, folderID, since)
		if err != nil {
			return nil, err
		}
		items = append(items, found...)

		subfolders, err := c.listSubfolders(ctx, folderID)
		if err != nil {
			return nil, err
		}
		for _, id := range subfolders {
			if !visited[id] {
				visited[id] = true
				queue = append(queue, id)
			}
		}
	}

	return items, nil
}

func (c *Connector) listFolder(ctx context.Context, folderID string, since time.Time) ([]domain.WatchedItem, error) {
	var items []domain.WatchedItem
	err := c.eachPage(ctx, changedQuery(folderID, since), func(f *drive.File) {
		if !isFolder(f) {
			items = append(items, itemFromFile(f))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("list folder %q: %w", folderID, err)
	}
	return items, nil
}

func (c *Connector) listSubfolders(ctx context.Context, folderID string) ([]string, error) {
	var ids []string
	err := c.eachPage(ctx, subfolderQuery(folderID), func(f *drive.File) {
		ids = append(ids, f.Id)
	})
	if err != nil {
		return nil, fmt.Errorf("list subfolders of %q: %w", folderID, err)
	}
	return ids, nil
}

func (c *Connector) eachPage(ctx context.Context, query string, fn func(*drive.File)) error {
	pageToken := ""
	for {
		var page *drive.FileList
		err := c.limiter.Call(ctx, func() error {
			p, err := c.api.List(ctx, query, pageToken, c.cfg.PageSize)
			page = p
			return err
		})
		if err != nil {
			return err
		}
		for _, f := range page.Files {
			fn(f)
		}
		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

// IsDeleted reports whether a file is trashed or gone. Any error other
// than 404 is returned as is.
func (c *Connector) IsDeleted(ctx context.Context, id string) (bool, error) {
	var file *drive.File
	err := c.limiter.Call(ctx, func() error {
		f, err := c.api.Get(ctx, id, deletedFields)
		file = f
		return err
	})
	if google.IsNotFound(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", id, err)
	}
	return file.Trashed, nil
}

// Fetch exports Workspace files and downloads everything else.
func (c *Connector) Fetch(ctx context.Context, item domain.WatchedItem) (*domain.RawDocument, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	mediaType := item.MediaType
	exportType, exported := c.cfg.ExportTypes[item.MediaType]

	var content []byte
	err := c.limiter.Call(ctx, func() error {
		var body io.ReadCloser
		var err error
		if exported {
			body, err = c.api.Export(ctx, item.ID, exportType)
		} else {
			body, err = c.api.Download(ctx, item.ID)
		}
		if err != nil {
			return err
		}
		defer body.Close()
		content, err = io.ReadAll(io.LimitReader(body, c.cfg.MaxDownloadSize))
		return err
	})
	if err != nil {
		if exported {
			return nil, fmt.Errorf("export %s as %s: %w", item.ID, exportType, err)
		}
		return nil, fmt.Errorf("download %s: %w", item.ID, err)
	}

	if exported {
		mediaType = exportType
		logger.Debug("exported %s from %s to %s (%d bytes)", item.ID, item.MediaType, exportType, len(content))
	}

	return &domain.RawDocument{
		ItemID:          item.ID,
		Name:            item.DisplayName,
		URL:             item.Location,
		MediaType:       mediaType,
		SourceMediaType: item.MediaType,
		Content:         content,
	}, nil
}

// Close marks the connector closed.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
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
