// Package common provides shared timing utilities for pipeline stages.
package common

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Timer measures one pipeline stage.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer starts an unnamed timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// NewNamedTimer starts a timer for a named stage.
func NewNamedTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Name returns the timer name, empty if unnamed.
func (t *Timer) Name() string {
	return t.name
}

// String formats the timer for logs.
func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, t.duration)
	}
	return fmt.Sprintf("%v", t.duration)
}

// StageTiming collects per-stage durations for one processed frame.
type StageTiming map[string]time.Duration

// Record stores a stage duration, accumulating on repeat calls.
func (s StageTiming) Record(name string, d time.Duration) {
	s[name] += d
}

// Total sums all recorded stages.
func (s StageTiming) Total() time.Duration {
	var total time.Duration
	for _, d := range s {
		total += d
	}
	return total
}

// String renders the stages sorted by name, for logs.
func (s StageTiming) String() string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, s[name]))
	}
	return strings.Join(parts, " ")
}
