package drive

import (
	"context"
	"io"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// FilesAPI is the subset of the Drive files resource the connector uses.
type FilesAPI interface {
	// List returns one page of files matching query.
	List(ctx context.Context, query, pageToken string, pageSize int64) (*drive.FileList, error)
	// Get returns file metadata restricted to fields.
	Get(ctx context.Context, id, fields string) (*drive.File, error)
	// Download returns the content of a binary file.
	Download(ctx context.Context, id string) (io.ReadCloser, error)
	// Export converts a Workspace file to mimeType.
	Export(ctx context.Context, id, mimeType string) (io.ReadCloser, error)
}

// Ensure serviceAPI implements FilesAPI.
var _ FilesAPI = (*serviceAPI)(nil)

type serviceAPI struct {
	files *drive.FilesService
}

// NewFilesAPI wraps a drive.Service.
func NewFilesAPI(svc *drive.Service) FilesAPI {
	return &serviceAPI{files: svc.Files}
}

func (s *serviceAPI) List(ctx context.Context, query, pageToken string, pageSize int64) (*drive.FileList, error) {
	call := s.files.List().
		Context(ctx).
		Q(query).
		Fields(listFields).
		PageSize(pageSize).
		IncludeItemsFromAllDrives(true).
		SupportsAllDrives(true)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

func (s *serviceAPI) Get(ctx context.Context, id, fields string) (*drive.File, error) {
	return s.files.Get(id).
		Context(ctx).
		Fields(googleapi.Field(fields)).
		SupportsAllDrives(true).
		Do()
}

func (s *serviceAPI) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	resp, err := s.files.Get(id).Context(ctx).SupportsAllDrives(true).Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (s *serviceAPI) Export(ctx context.Context, id, mimeType string) (io.ReadCloser, error) {
	resp, err := s.files.Export(id, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
