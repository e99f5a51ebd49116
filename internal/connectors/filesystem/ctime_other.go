//go:build !linux && !darwin

package filesystem

import (
	"io/fs"
	"time"
)

// changeTime returns mtime on platforms without a portable ctime.
func changeTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
