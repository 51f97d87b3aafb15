package cli

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// spinnerFrames are the animation frames, one per tick.
var spinnerFrames = []string{"|", "/", "-", "\\"}

// Spinner shows a small animation while a command waits on the provider,
// typically between sending a streaming request and the first fragment
// arriving. It writes carriage-return frames, so it should only run on a
// terminal and must be stopped before other output starts.
type Spinner struct {
	writer   io.Writer
	interval time.Duration

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{
		writer:   w,
		interval: 100 * time.Millisecond,
	}
}

// Start begins the animation with a label. Starting a running spinner is a
// no-op.
func (s *Spinner) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		frame := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Fprintf(s.writer, "\r%s %s", spinnerFrames[frame%len(spinnerFrames)], label)
				frame++
			}
		}
	}(s.done)
}

// Stop halts the animation and clears the line. Stopping a stopped spinner is
// a no-op.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.done)
	s.running = false
	fmt.Fprint(s.writer, "\r\033[K")
}
