package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// Section boundary markers. They are recorded on the Section and stripped
// from its content.
const (
	StartMarker = "[START OF SECTION]"
	EndMarker   = "[END OF SECTION]"
)

// FallbackHeader names the section synthesised for text without headings.
const FallbackHeader = "# Document"

// DefaultMaxSectionChunkSize is the largest chunk ChunkSections emits.
const DefaultMaxSectionChunkSize = domain.DefaultMaxSectionChunkSize

var headingPattern = regexp.MustCompile(`(?m)^(#{1,3}[ \t]+\S.*)$`)

// ExtractSections partitions markdown into sections at level 1-3 headings.
// Text without any heading becomes a single "# Document" section.
func ExtractSections(text string) []domain.Section {
	locs := headingPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []domain.Section{newSection(FallbackHeader, text)}
	}

	var all []domain.Section
	if pre := strings.TrimSpace(text[:locs[0][0]]); pre != "" {
		all = append(all, newSection(FallbackHeader, pre))
	}

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		header := strings.TrimSpace(text[loc[0]:loc[1]])
		all = append(all, newSection(header, text[loc[1]:end]))
	}

	kept := make([]domain.Section, 0, len(all))
	for _, s := range all {
		if s.Content != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		// Headers with no body at all: keep them so the document still
		// produces chunks.
		return all
	}
	return kept
}

func newSection(header, body string) domain.Section {
	s := domain.Section{
		Header:         header,
		HasStartMarker: strings.Contains(body, StartMarker),
		HasEndMarker:   strings.Contains(body, EndMarker),
	}
	body = strings.ReplaceAll(body, StartMarker, "")
	body = strings.ReplaceAll(body, EndMarker, "")
	s.Content = strings.TrimSpace(body)
	return s
}

// SplitSection returns the chunks for one section. A section that fits in
// maxSize is returned whole; otherwise it is split at blank-line paragraph
// boundaries. Every chunk starts with the section header.
func SplitSection(section domain.Section, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxSectionChunkSize
	}

	full := section.Header + "\n\n" + section.Content
	if utf8.RuneCountInString(full) <= maxSize {
		return []string{strings.TrimSpace(full)}
	}

	header := section.Header + "\n\n"
	// A buffer holding only the header (plus a little slack) is empty.
	emptyLen := utf8.RuneCountInString(section.Header) + 10

	var chunks []string
	var buf strings.Builder
	buf.WriteString(header)

	for _, para := range strings.Split(section.Content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		bufLen := utf8.RuneCountInString(buf.String())
		if bufLen+utf8.RuneCountInString(para)+2 <= maxSize {
			buf.WriteString(para + "\n\n")
			continue
		}

		if bufLen > emptyLen {
			chunks = append(chunks, strings.TrimSpace(buf.String()))
			buf.Reset()
			buf.WriteString(header + para + "\n\n")
		} else {
			// Oversized paragraph on an empty buffer: emit it on its own.
			buf.WriteString(para + "\n\n")
			chunks = append(chunks, strings.TrimSpace(buf.String()))
			buf.Reset()
			buf.WriteString(header)
		}
	}

	if utf8.RuneCountInString(buf.String()) > emptyLen {
		chunks = append(chunks, strings.TrimSpace(buf.String()))
	}

	return chunks
}

// ChunkSections splits markdown into section-aware chunks with enriched
// metadata. It returns the chunks and the distinct section names in order
// of first appearance.
func ChunkSections(text string, meta domain.FileMetadata, fm *domain.CaseStudyFrontmatter, maxSize int) ([]domain.DocumentChunk, []string) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var (
		chunks []domain.DocumentChunk
		names  []string
		seen   = make(map[string]bool)
		index  int
	)

	for _, section := range ExtractSections(text) {
		name := section.Name()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}

		pieces := SplitSection(section, maxSize)
		for i, piece := range pieces {
			chunks = append(chunks, domain.DocumentChunk{
				Content:    piece,
				ChunkIndex: index,
				Metadata: domain.SectionMetadata{
					BasicMetadata:      basicMetadata(meta, index),
					Section:            name,
					SectionChunkIndex:  i,
					TotalSectionChunks: len(pieces),
					Role:               domain.PartRole(i, len(pieces)),
					Frontmatter:        fm,
				},
			})
			index++
		}
	}

	return chunks, names
}
