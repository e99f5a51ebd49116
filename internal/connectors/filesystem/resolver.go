package filesystem

import "strings"

// FileURI returns the file:// location stored with a local document.
func FileURI(path string) string {
	return "file://" + path
}

// ResolvePath converts a file:// URI back to a local path.
// Bare paths pass through unchanged.
func ResolvePath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
