package filesystem

import (
	"io/fs"
	"syscall"
	"time"
)

// changeTime returns the inode change time, falling back to mtime.
func changeTime(info fs.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec)) //nolint:unconvert // int32 on some platforms
	}
	return info.ModTime()
}
