package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

// spinnerOver builds a spinner animating into buf instead of stderr.
func spinnerOver(ctx context.Context, buf *bytes.Buffer, message string) *Spinner {
	s := newSpinnerWithContext(ctx, message)
	s.out = buf
	return s
}

func TestSpinnerRendersMessage(t *testing.T) {
	var buf bytes.Buffer
	s := spinnerOver(context.Background(), &buf, "Processing chart1.pdf")

	s.Start()
	time.Sleep(4 * spinnerInterval)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Processing chart1.pdf") {
		t.Errorf("output %q should contain the message", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("output %q should end with the line cleared", out)
	}
}

func TestSpinnerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := spinnerOver(ctx, &buf, "Converting chart1.pdf")

	s.Start()
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop should return promptly after context cancellation")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := spinnerOver(context.Background(), &buf, "Processing chart1.pdf")

	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopBeforeStart(t *testing.T) {
	var buf bytes.Buffer
	s := spinnerOver(context.Background(), &buf, "Processing chart1.pdf")

	// A spinner that never ran must not block Stop.
	s.Stop()

	if buf.Len() != 0 {
		t.Errorf("unstarted spinner wrote %q", buf.String())
	}
}
