package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragsync/internal/connectors/filesystem"
	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/logger"
)

// Tool names.
const (
	ToolProcessFile    = "process_file_for_rag"
	ToolDeleteDocument = "delete_document_by_file_id"
)

// ProcessFileInput is the input schema for process_file_for_rag.
type ProcessFileInput struct {
	Path          string `json:"path,omitempty" jsonschema:"path of a local file to index; mutually exclusive with content_base64"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"base64 encoded file bytes; mutually exclusive with path"`
	FileID        string `json:"file_id" jsonschema:"stable identifier of the document, used to replace or delete it later"`
	FileURL       string `json:"file_url,omitempty" jsonschema:"link back to the original document"`
	FileTitle     string `json:"file_title,omitempty" jsonschema:"display name; defaults to the base name of path"`
	MediaType     string `json:"media_type,omitempty" jsonschema:"media type of the content; detected from the title when empty"`
}

// ProcessFileOutput is the output schema for process_file_for_rag.
type ProcessFileOutput struct {
	Success        bool   `json:"success"`
	ChunksInserted int    `json:"chunks_inserted"`
	RowsInserted   int    `json:"rows_inserted"`
	Error          string `json:"error,omitempty"`
}

// DeleteDocumentInput is the input schema for delete_document_by_file_id.
type DeleteDocumentInput struct {
	FileID string `json:"file_id" jsonschema:"identifier the document was indexed under"`
}

// DeleteDocumentOutput is the output schema for delete_document_by_file_id.
type DeleteDocumentOutput struct {
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolProcessFile,
		Description: "Extract, chunk, embed and store one file so it can be retrieved later. Replaces anything already indexed under file_id.",
	}, s.handleProcessFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolDeleteDocument,
		Description: "Remove the chunks, rows and metadata indexed under file_id",
	}, s.handleDeleteDocument)
}

// handleProcessFile handles the process_file_for_rag tool invocation.
// Failures are reported in the output rather than as tool errors.
func (s *Server) handleProcessFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProcessFileInput,
) (*mcp.CallToolResult, ProcessFileOutput, error) {
	content, meta, err := input.resolve()
	if err != nil {
		logger.Warn("%s: %v", ToolProcessFile, err)
		return nil, ProcessFileOutput{Error: err.Error()}, nil
	}

	res := s.ports.Ingestion.IndexFile(ctx, content, "", meta)
	return nil, ProcessFileOutput{
		Success:        res.Success,
		ChunksInserted: res.ChunksInserted,
		RowsInserted:   res.RowsInserted,
		Error:          res.ErrorMessage,
	}, nil
}

// resolve loads the content and fills in defaulted metadata.
func (in ProcessFileInput) resolve() ([]byte, domain.FileMetadata, error) {
	meta := domain.FileMetadata{
		FileID:     in.FileID,
		FileURL:    in.FileURL,
		FileTitle:  in.FileTitle,
		MediaType:  in.MediaType,
		SourceType: domain.SourceManual,
	}
	if in.FileID == "" {
		return nil, meta, fmt.Errorf("file_id is required: %w", domain.ErrInvalidInput)
	}

	var content []byte
	switch {
	case in.Path != "" && in.ContentBase64 != "":
		return nil, meta, fmt.Errorf("path and content_base64 are mutually exclusive: %w", domain.ErrInvalidInput)
	case in.Path != "":
		data, err := os.ReadFile(in.Path)
		if err != nil {
			return nil, meta, fmt.Errorf("read %s: %w", in.Path, err)
		}
		content = data
		if meta.FileTitle == "" {
			meta.FileTitle = filepath.Base(in.Path)
		}
		if meta.FileURL == "" {
			meta.FileURL = filesystem.FileURI(in.Path)
		}
	case in.ContentBase64 != "":
		data, err := base64.StdEncoding.DecodeString(in.ContentBase64)
		if err != nil {
			return nil, meta, fmt.Errorf("decode content_base64: %w", errors.Join(domain.ErrInvalidInput, err))
		}
		content = data
	default:
		return nil, meta, fmt.Errorf("one of path or content_base64 is required: %w", domain.ErrInvalidInput)
	}

	if meta.FileTitle == "" {
		meta.FileTitle = in.FileID
	}
	if meta.MediaType == "" {
		meta.MediaType = filesystem.DetectMIMEType(meta.FileTitle)
	}
	return content, meta, nil
}

// handleDeleteDocument handles the delete_document_by_file_id tool invocation.
func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteDocumentInput,
) (*mcp.CallToolResult, DeleteDocumentOutput, error) {
	if input.FileID == "" {
		return nil, DeleteDocumentOutput{Error: "file_id is required"}, nil
	}
	if err := s.ports.Ingestion.DeleteDocument(ctx, input.FileID); err != nil {
		logger.Warn("%s %s: %v", ToolDeleteDocument, input.FileID, err)
		return nil, DeleteDocumentOutput{Error: err.Error()}, nil
	}
	return nil, DeleteDocumentOutput{Deleted: true}, nil
}
