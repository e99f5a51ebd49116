// Package mcp provides an MCP (Model Context Protocol) server adapter for ragsync.
// It lets AI assistants hand files to the indexing pipeline and remove
// indexed documents.
package mcp

import "errors"

// ErrMissingIngestionService is returned when the ingestion service is not provided.
var ErrMissingIngestionService = errors.New("mcp: ingestion service is required")
