package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Spinner shows an animated status line on stderr while a request is in
// flight. Once a request has taken longer than a second the elapsed time is
// shown too. It stays silent when stderr is not a terminal.
type Spinner struct {
	message string
	out     io.Writer
	active  bool

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerTick = 80 * time.Millisecond

// NewSpinner creates a spinner for stderr.
func NewSpinner(message string) *Spinner {
	fd := os.Stderr.Fd()
	return newSpinner(message, os.Stderr, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

func newSpinner(message string, out io.Writer, active bool) *Spinner {
	return &Spinner{message: message, out: out, active: active, done: make(chan struct{})}
}

// Start begins the animation.
func (s *Spinner) Start() {
	if !s.active {
		return
	}

	start := time.Now()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(spinnerTick)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			select {
			case <-s.done:
				fmt.Fprint(s.out, "\r\033[K")
				return
			case <-ticker.C:
				fmt.Fprintf(s.out, "\r%s %s", Bold.Render(spinnerFrames[frame%len(spinnerFrames)]), Muted.Render(s.status(time.Since(start))))
			}
		}
	}()
}

func (s *Spinner) status(elapsed time.Duration) string {
	if elapsed < time.Second {
		return s.message
	}
	return fmt.Sprintf("%s (%.1fs)", s.message, elapsed.Seconds())
}

// Stop ends the animation and clears its line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	if !s.active {
		return
	}
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
}
