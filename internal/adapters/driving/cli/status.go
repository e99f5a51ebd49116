package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/custodia-labs/ragsync/internal/core/ports/driving"
)

// statusLine prints one line per watch cycle. On a terminal the line is
// rewritten in place; otherwise only cycles with activity are printed.
type statusLine struct {
	mu    sync.Mutex
	w     io.Writer
	tty   bool
	dirty bool
	now   func() time.Time
}

func newStatusLine(w io.Writer) *statusLine {
	return &statusLine{w: w, tty: isTerminal(w), now: time.Now}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s *statusLine) cycle(r *driving.CycleReport) {
	if r == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	active := r.Changed > 0 || r.Deleted > 0
	if !s.tty && !active {
		return
	}

	line := fmt.Sprintf("[%s] %s: %d changed, %d indexed, %d skipped, %d failed, %d deleted",
		s.now().Format(time.TimeOnly), r.SourceID, r.Changed, r.Processed, r.Skipped, r.Failed, r.Deleted)
	if s.tty {
		fmt.Fprintf(s.w, "\r\033[K%s", line)
		s.dirty = true
		return
	}
	fmt.Fprintln(s.w, line)
}

// done ends an in-place line so the shell prompt starts on a new line.
func (s *statusLine) done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		fmt.Fprintln(s.w)
		s.dirty = false
	}
}
