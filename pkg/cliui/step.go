package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// spinner redraws msg with a rotating frame until stop is called.
type spinner struct {
	w    io.Writer
	msg  string
	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

func startSpinner(w io.Writer, msg string) *spinner {
	s := &spinner{w: w, msg: msg, done: make(chan struct{})}
	s.wg.Add(1)
	go s.loop()
	return s
}

func (s *spinner) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		s.mu.Lock()
		fmt.Fprintf(s.w, "\r  %s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), s.msg)
		s.mu.Unlock()

		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

func (s *spinner) stop() {
	close(s.done)
	s.wg.Wait()
}

// Step runs fn under msg and finishes the line with a ✓ or ✗ and the elapsed
// time. Terminals also get a spinner while fn runs.
func Step(w io.Writer, msg string, fn func() error) error {
	var sp *spinner
	if IsTerminal(w) {
		sp = startSpinner(w, msg)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if sp != nil {
		sp.stop()
	}
	fmt.Fprintf(w, "\r  %s %s %s\n", Mark(err), msg, StepStyle.Render("("+FormatDuration(elapsed)+")"))
	return err
}
