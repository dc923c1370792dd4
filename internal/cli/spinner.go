package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a message on stderr while a layout or render runs.
// It only draws on a terminal, so piped output and CI logs stay clean.
// It stops by itself when its context is canceled.
type Spinner struct {
	ctx     context.Context
	w       io.Writer
	message string
	animate bool

	once    sync.Once
	stop    chan struct{}
	stopped chan struct{}
	drawn   bool
}

func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	return &Spinner{
		ctx:     ctx,
		w:       os.Stderr,
		message: message,
		animate: isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the animation in a background goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		defer s.clear()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				if s.animate {
					frame := spinnerFrames[i%len(spinnerFrames)]
					fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
					s.drawn = true
				}
			}
		}
	}()
}

// Stop ends the animation and waits until the line is cleared. It may be
// called more than once and after the context was canceled.
func (s *Spinner) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.stopped
}

// StopWithError stops the spinner and prints message as an error.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// clear erases the spinner line. Only the spinner goroutine calls it.
func (s *Spinner) clear() {
	if s.drawn {
		// Message plus frame and separator.
		fmt.Fprintf(s.w, "\r%*s\r", len([]rune(s.message))+2, "")
	}
}
