package markdown

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// frontmatterPattern matches a "---" delimited block at the very start of
// the document, capturing the block and the remaining body.
var frontmatterPattern = regexp.MustCompile(`(?s)\A---[ \t]*\n(.*?)\n---[ \t]*(?:\n(.*))?\z`)

// SplitFrontmatter separates a leading frontmatter block from the body.
// ok is false when the text does not open with a delimited block.
func SplitFrontmatter(text string) (block, body string, ok bool) {
	m := frontmatterPattern.FindStringSubmatch(text)
	if m == nil {
		return "", text, false
	}
	return m[1], m[2], true
}

// ParseFrontmatter extracts and validates case-study frontmatter.
//
// With no frontmatter block it returns (nil, text, nil). When the block is
// present but is not valid YAML or fails validation, it returns the full
// original text as body together with the reason, so the caller can keep
// the header as content.
func ParseFrontmatter(text string) (*domain.CaseStudyFrontmatter, string, error) {
	block, body, ok := SplitFrontmatter(text)
	if !ok {
		return nil, text, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(block), &fields); err != nil {
		return nil, text, fmt.Errorf("parse frontmatter yaml: %w", err)
	}
	if len(fields) == 0 {
		return nil, text, nil
	}

	fm, err := decode(fields)
	if err != nil {
		return nil, text, err
	}
	return fm, body, nil
}

// decode maps YAML fields onto the frontmatter, rejecting mistyped values.
func decode(fields map[string]any) (*domain.CaseStudyFrontmatter, error) {
	if err := domain.CheckRequiredFields(fields); err != nil {
		return nil, err
	}

	var bad []string
	str := func(key string) string {
		v, present := fields[key]
		if !present || v == nil {
			return ""
		}
		s, ok := v.(string)
		if !ok {
			bad = append(bad, key)
		}
		return s
	}

	fm := &domain.CaseStudyFrontmatter{
		Title:         str("title"),
		Client:        str("client"),
		Industry:      str("industry"),
		ProjectType:   str("project_type"),
		Function:      str("function"),
		ProjectStatus: str("project_status"),
	}

	switch v := fields["technologies_used"].(type) {
	case nil:
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				bad = append(bad, "technologies_used")
				break
			}
			fm.TechnologiesUsed = append(fm.TechnologiesUsed, s)
		}
	default:
		bad = append(bad, "technologies_used")
	}

	switch v := fields["key_metrics"].(type) {
	case nil:
	case map[string]any:
		fm.KeyMetrics = v
	default:
		bad = append(bad, "key_metrics")
	}

	if len(bad) > 0 {
		return nil, &domain.FieldError{Fields: bad}
	}
	return fm, nil
}

// Ensure FrontmatterParser implements the interface.
var _ driven.FrontmatterParser = FrontmatterParser{}

// FrontmatterParser adapts ParseFrontmatter to the driven port.
type FrontmatterParser struct{}

// ParseFrontmatter implements driven.FrontmatterParser.
func (FrontmatterParser) ParseFrontmatter(text string) (*domain.CaseStudyFrontmatter, string, error) {
	return ParseFrontmatter(text)
}
