package domain

import "strings"

// CaseStudyFrontmatter is the structured header of a markdown case study.
// It only exists when the header parsed and validated; a broken header
// is treated as body text, not as an error.
type CaseStudyFrontmatter struct {
	Title       string
	Client      string
	Industry    string
	ProjectType string

	// TechnologiesUsed is the tech stack list.
	TechnologiesUsed []string

	// KeyMetrics holds arbitrary keyed records, usually {value, unit}.
	KeyMetrics map[string]any

	Function      string
	ProjectStatus string
}

// RequiredFrontmatterFields must be present in every case-study header.
var RequiredFrontmatterFields = []string{"title", "client", "industry", "project_type"}

// CheckRequiredFields lists the required keys that are absent or null.
// An empty string counts as present.
func CheckRequiredFields(fields map[string]any) error {
	var missing []string
	for _, key := range RequiredFrontmatterFields {
		if v, ok := fields[key]; !ok || v == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &FieldError{Fields: missing}
	}
	return nil
}

// Record returns the frontmatter keyed by its source field names.
// Used as the frontmatter part of a document's schema record.
func (f *CaseStudyFrontmatter) Record() map[string]any {
	rec := map[string]any{
		"title":             f.Title,
		"client":            f.Client,
		"industry":          f.Industry,
		"project_type":      f.ProjectType,
		"technologies_used": nonNilStrings(f.TechnologiesUsed),
	}
	if len(f.KeyMetrics) > 0 {
		rec["key_metrics"] = f.KeyMetrics
	}
	if f.Function != "" {
		rec["function"] = f.Function
	}
	if f.ProjectStatus != "" {
		rec["project_status"] = f.ProjectStatus
	}
	return rec
}

// ChunkFields returns the subset duplicated onto every chunk.
func (f *CaseStudyFrontmatter) ChunkFields() map[string]any {
	fields := map[string]any{
		"title":          f.Title,
		"client":         f.Client,
		"industry":       f.Industry,
		"project_type":   f.ProjectType,
		"tech_stack":     nonNilStrings(f.TechnologiesUsed),
		"function":       f.Function,
		"project_status": f.ProjectStatus,
	}
	if len(f.KeyMetrics) > 0 {
		fields["key_metrics"] = f.KeyMetrics
	}
	return fields
}

// MetricRows converts key metrics into tabular rows.
// A map-valued metric is spread into the row; any other value lands under "value".
func (f *CaseStudyFrontmatter) MetricRows() []map[string]any {
	if len(f.KeyMetrics) == 0 {
		return nil
	}
	names := sortedKeys(f.KeyMetrics)
	rows := make([]map[string]any, 0, len(names))
	for _, name := range names {
		row := map[string]any{"metric_name": name}
		if fields, ok := f.KeyMetrics[name].(map[string]any); ok {
			for k, v := range fields {
				row[k] = v
			}
		} else {
			row["value"] = f.KeyMetrics[name]
		}
		rows = append(rows, row)
	}
	return rows
}

// FieldError reports missing or mistyped frontmatter fields.
type FieldError struct {
	Fields []string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return "invalid frontmatter fields: " + strings.Join(e.Fields, ", ")
}

// Is lets errors.Is match FieldError against ErrInvalidInput.
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidInput
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
