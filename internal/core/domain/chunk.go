package domain

import (
	"fmt"
	"strings"
)

// Section is a heading-delimited part of a markdown body.
// It exists only while chunks are being built.
type Section struct {
	// Header is the heading line, including its # prefix.
	Header string

	// Content is the body with boundary markers stripped.
	Content string

	HasStartMarker bool
	HasEndMarker   bool
}

// Name returns the header text without the # prefix, cut at the first colon.
func (s Section) Name() string {
	name := strings.TrimLeft(strings.TrimSpace(s.Header), "#")
	if i := strings.Index(name, ":"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// ChunkRole labels a chunk's place within its section.
type ChunkRole string

// RoleSectionComplete marks a section that fit in a single chunk.
const RoleSectionComplete ChunkRole = "section_complete"

// PartRole returns the role of part i (zero-based) of n.
func PartRole(i, n int) ChunkRole {
	if n <= 1 {
		return RoleSectionComplete
	}
	return ChunkRole(fmt.Sprintf("section_part_%d_of_%d", i+1, n))
}

// MetadataKind discriminates the ChunkMetadata union.
type MetadataKind string

const (
	// MetadataBasic carries document identity and position only.
	MetadataBasic MetadataKind = "basic"

	// MetadataSection adds section position and frontmatter provenance.
	MetadataSection MetadataKind = "section_enriched"
)

// ChunkMetadata is either BasicMetadata or SectionMetadata.
// The variant is chosen when the chunk is built and is never re-inspected.
type ChunkMetadata interface {
	// Kind returns the union discriminator.
	Kind() MetadataKind

	// Fields flattens the metadata into the map stored alongside the chunk.
	Fields() map[string]any

	isChunkMetadata()
}

// BasicMetadata is the metadata of a fixed-window chunk.
type BasicMetadata struct {
	FileID     string
	FileURL    string
	FileTitle  string
	ChunkIndex int

	// Extra holds variant-free additions such as inline image bytes.
	Extra map[string]any
}

// Kind implements ChunkMetadata.
func (BasicMetadata) Kind() MetadataKind { return MetadataBasic }

func (BasicMetadata) isChunkMetadata() {}

// Fields implements ChunkMetadata.
func (m BasicMetadata) Fields() map[string]any {
	fields := make(map[string]any, 5+len(m.Extra))
	for k, v := range m.Extra {
		fields[k] = v
	}
	fields["file_id"] = m.FileID
	fields["file_url"] = m.FileURL
	fields["file_title"] = m.FileTitle
	fields["chunk_index"] = m.ChunkIndex
	fields["metadata_kind"] = string(MetadataBasic)
	return fields
}

// SectionMetadata is the metadata of a section-aware chunk.
type SectionMetadata struct {
	BasicMetadata

	Section            string
	SectionChunkIndex  int
	TotalSectionChunks int
	Role               ChunkRole

	// Frontmatter is duplicated onto every chunk when present.
	Frontmatter *CaseStudyFrontmatter
}

// Kind implements ChunkMetadata.
func (SectionMetadata) Kind() MetadataKind { return MetadataSection }

func (SectionMetadata) isChunkMetadata() {}

// Fields implements ChunkMetadata.
func (m SectionMetadata) Fields() map[string]any {
	fields := m.BasicMetadata.Fields()
	fields["section"] = m.Section
	fields["section_chunk_index"] = m.SectionChunkIndex
	fields["total_section_chunks"] = m.TotalSectionChunks
	fields["chunk_role"] = string(m.Role)
	fields["metadata_kind"] = string(MetadataSection)
	if m.Frontmatter != nil {
		for k, v := range m.Frontmatter.ChunkFields() {
			fields[k] = v
		}
	}
	return fields
}

// DocumentChunk is a bounded piece of a document ready for storage.
type DocumentChunk struct {
	// Content is the chunk text.
	Content string

	// ChunkIndex is dense and zero-based per document.
	ChunkIndex int

	// Metadata is the tagged union built with the chunk.
	Metadata ChunkMetadata

	// Embedding is filled by the indexer before insertion.
	Embedding []float32
}

// FileID returns the join key carried by the chunk's metadata.
func (c DocumentChunk) FileID() string {
	switch m := c.Metadata.(type) {
	case SectionMetadata:
		return m.FileID
	case BasicMetadata:
		return m.FileID
	default:
		return ""
	}
}

// SectionName returns the section the chunk belongs to, if any.
func (c DocumentChunk) SectionName() string {
	if m, ok := c.Metadata.(SectionMetadata); ok {
		return m.Section
	}
	return ""
}

// Role returns the chunk role. Plain chunks are complete by definition.
func (c DocumentChunk) Role() ChunkRole {
	if m, ok := c.Metadata.(SectionMetadata); ok {
		return m.Role
	}
	return RoleSectionComplete
}

// StoredChunk is a chunk as read back from an index store.
type StoredChunk struct {
	ID         string
	FileID     string
	Content    string
	ChunkIndex int
	Metadata   map[string]any
	Embedding  []float32
}
