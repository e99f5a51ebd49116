package mcp

import (
	"github.com/custodia-labs/ragsync/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Ingestion indexes and deletes documents.
	Ingestion driving.IngestionService

	// Documents reads back indexed documents. Optional; without it the
	// document resource is not registered.
	Documents driving.DocumentInspector
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingestion == nil {
		return ErrMissingIngestionService
	}
	return nil
}
