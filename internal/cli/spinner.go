package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// spinnerFrames cycles while a chart is being converted and decoded.
var spinnerFrames = []string{"◐", "◓", "◑", "◒"}

const spinnerInterval = 120 * time.Millisecond

// Spinner animates a status line on the terminal during a long-running
// stage, typically an Inkscape conversion. It erases itself on Stop so the
// per-chart result lines stay clean, and disappears early when the
// surrounding context is cancelled.
type Spinner struct {
	out     io.Writer
	message string
	ctx     context.Context
	cancel  context.CancelFunc
	halt    sync.Once
	started bool
	idle    chan struct{}
}

// newSpinnerWithContext creates a spinner that also stops when ctx is
// cancelled, so an interrupted batch doesn't leave a frame on screen.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     os.Stderr,
		message: message,
		ctx:     ctx,
		cancel:  cancel,
		idle:    make(chan struct{}),
	}
}

// Start begins the animation. The spinner owns the current terminal line
// until Stop returns.
func (s *Spinner) Start() {
	s.started = true
	go s.run()
}

func (s *Spinner) run() {
	defer close(s.idle)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.clearLine()
			return
		case <-ticker.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
		}
	}
}

// Stop ends the animation and clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	s.halt.Do(s.cancel)
	if s.started {
		<-s.idle
	}
}

func (s *Spinner) clearLine() {
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}
