// Package logsink keeps the log lines of a single harvest so they can be
// returned to the caller alongside the result.
package logsink

import (
	"strings"
	"sync"
)

const DefaultCapacity = 500

// Sink is a bounded ring of log lines. When full, the oldest line is dropped.
type Sink struct {
	mu      sync.Mutex
	lines   []string
	next    int
	full    bool
	dropped int
}

func NewSink(capacity int) *Sink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Sink{lines: make([]string, capacity)}
}

// Write appends one line per newline-terminated chunk of p.
func (s *Sink) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		s.Append(line)
	}
	return len(p), nil
}

func (s *Sink) Append(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.full {
		s.dropped++
	}
	s.lines[s.next] = line
	s.next = (s.next + 1) % len(s.lines)
	if s.next == 0 {
		s.full = true
	}
}

// Lines returns the retained lines, oldest first.
func (s *Sink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.full {
		out := make([]string, s.next)
		copy(out, s.lines[:s.next])
		return out
	}
	out := make([]string, 0, len(s.lines))
	out = append(out, s.lines[s.next:]...)
	out = append(out, s.lines[:s.next]...)
	return out
}

// Dropped reports how many lines were evicted.
func (s *Sink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
