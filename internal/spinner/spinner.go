// Package spinner implements the thread-safe live progress renderer from
// spec §4.7: a rotating glyph over the set of currently-running
// environment names, with one finalize line printed per environment on
// completion.
//
// Grounded on the teacher's mutex-guarded shared-state types
// (internal/infrastructure/processmgr/slot_pool.go, log_buffer.go): same
// "every public method takes the lock" discipline, applied here to a
// render-loop goroutine instead of a semaphore.
package spinner

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
	clearLine  = "\r\x1b[K"
	tickRate   = 100 * time.Millisecond
	maxWidth   = 100
)

var glyphs = []rune{'|', '/', '-', '\\'}

// Spinner renders one live-updating line while environments run, and a
// one-line finalize summary per environment as each completes.
type Spinner struct {
	mu       sync.Mutex
	out      io.Writer
	running  map[string]struct{}
	enabled  bool
	isTTY    bool
	glyphIdx int

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// New builds a Spinner writing to out. enabled is the caller's verbosity
// gate (spec §6: effective level < 1); rendering is additionally
// suppressed when out is not a terminal, in which case only finalize
// lines are printed (spec §4.7).
func New(out io.Writer, enabled bool) *Spinner {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Spinner{
		out:     out,
		running: make(map[string]struct{}),
		enabled: enabled && isTTY,
		isTTY:   isTTY,
	}
}

// Start begins the 10Hz render loop and hides the cursor if the target is
// a TTY. Safe to call once; a second call is a no-op.
func (s *Spinner) Start() {
	s.once.Do(func() {
		s.stopCh = make(chan struct{})
		s.doneCh = make(chan struct{})
		if s.enabled {
			fmt.Fprint(s.out, hideCursor)
		}
		go s.renderLoop()
	})
}

// Stop ends the render loop and restores the cursor.
func (s *Spinner) Stop() {
	if s.stopCh == nil {
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.doneCh
	if s.enabled {
		fmt.Fprint(s.out, clearLine, showCursor)
	}
}

func (s *Spinner) renderLoop() {
	defer close(s.doneCh)
	if !s.enabled {
		return
	}
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	names := make([]string, 0, len(s.running))
	for n := range s.running {
		names = append(names, n)
	}
	sort.Strings(names)
	glyph := glyphs[s.glyphIdx%len(glyphs)]
	s.glyphIdx++
	s.mu.Unlock()

	line := fmt.Sprintf("%c %s", glyph, strings.Join(names, ", "))
	if len(line) > maxWidth {
		line = line[:maxWidth-1] + "…"
	}
	fmt.Fprint(s.out, clearLine, line)
}

// Add registers name as currently running.
func (s *Spinner) Add(name string) {
	s.mu.Lock()
	s.running[name] = struct{}{}
	s.mu.Unlock()
}

// Finalize removes name from the running set and prints its one-line
// summary (spec §4.7): a glyph, the env name, human-readable duration.
func (s *Spinner) Finalize(name string, status string, elapsed time.Duration) {
	s.mu.Lock()
	delete(s.running, name)
	s.mu.Unlock()

	mark := finalizeMark(status)
	prefix := ""
	if s.enabled {
		prefix = clearLine
	}
	fmt.Fprintf(s.out, "%s%s %s (%s)\n", prefix, mark, name, elapsed.Round(10*time.Millisecond))
}

func finalizeMark(status string) string {
	switch status {
	case "OK":
		return "✔ OK"
	case "SKIP":
		return "⚠ SKIP"
	default:
		return "✖ FAIL"
	}
}
