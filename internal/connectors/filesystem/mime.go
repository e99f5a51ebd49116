package filesystem

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragsync/internal/core/domain"
)

// extensionTypes covers extensions where the platform MIME table is
// missing or disagrees across systems.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".csv":      "text/csv",
	".pdf":      "application/pdf",
	".xlsx":     domain.MediaTypeXLSX,
	".xls":      "application/vnd.ms-excel",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":      "application/msword",
	".pptx":     "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odt":      "application/vnd.oasis.opendocument.text",
	".rtf":      "application/rtf",
	".html":     "text/html",
	".htm":      "text/html",
	".json":     "application/json",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".png":      "image/png",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".gif":      "image/gif",
	".webp":     "image/webp",
}

// DetectMIMEType returns the media type for a file name without any
// parameters. Files without an extension are plain text; unknown
// extensions are application/octet-stream.
func DetectMIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "text/plain"
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return strings.TrimSpace(t)
	}
	return "application/octet-stream"
}
