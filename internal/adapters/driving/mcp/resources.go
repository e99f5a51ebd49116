package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for ragsync resources.
	uriScheme = "ragsync://"
)

// documentInfo is the JSON body of a document resource.
type documentInfo struct {
	FileID     string         `json:"file_id"`
	Title      string         `json:"title"`
	URL        string         `json:"url"`
	MediaType  string         `json:"media_type"`
	SourceType string         `json:"source_type"`
	Schema     map[string]any `json:"schema,omitempty"`
	UpdatedAt  string         `json:"updated_at"`
	Chunks     int            `json:"chunks"`
	Embedded   int            `json:"embedded"`
	Rows       int            `json:"rows"`
}

// registerResources registers resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Documents == nil {
		return
	}

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{fileId}",
		Name:        "indexed-document",
		Description: "Metadata record and stored counts of an indexed document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// handleDocumentResource returns the summary of one indexed document.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	fileID := extractFileID(req.Params.URI)
	if fileID == "" || s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	summary, err := s.ports.Documents.Inspect(ctx, fileID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("inspecting document: %w", err)
	}

	rec := summary.Record
	data, err := json.MarshalIndent(documentInfo{
		FileID:     rec.FileID,
		Title:      rec.Title,
		URL:        rec.URL,
		MediaType:  rec.MediaType,
		SourceType: string(rec.SourceType),
		Schema:     rec.Schema,
		UpdatedAt:  rec.UpdatedAt.UTC().Format(time.RFC3339),
		Chunks:     summary.Chunks,
		Embedded:   summary.Embedded,
		Rows:       summary.Rows,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractFileID extracts the file id from a URI like ragsync://documents/{fileId}.
func extractFileID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
