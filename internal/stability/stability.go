// Package stability debounces recognized frames so that single-frame
// recognition flicker never reaches the output, while large legitimate
// changes (page turns) commit without lag.
package stability

import (
	"log/slog"
	"slices"
)

// Defaults for the filter's tunables.
const (
	DefaultRequiredFrames   = 2
	DefaultMajorChangeRatio = 0.5
)

// Config holds the debounce tunables.
type Config struct {
	// RequiredFrames is how many consecutive identical frames commit a
	// new output. 1 means immediate pass-through.
	RequiredFrames int

	// MajorChangeRatio is the fraction of rows that must differ from the
	// last stable output for a frame to bypass the debounce entirely.
	MajorChangeRatio float64
}

// DefaultConfig returns the documented debounce defaults.
func DefaultConfig() Config {
	return Config{
		RequiredFrames:   DefaultRequiredFrames,
		MajorChangeRatio: DefaultMajorChangeRatio,
	}
}

// Filter is the per-display debounce state machine. Not safe for
// concurrent use; it belongs to the single pipeline worker.
type Filter struct {
	cfg        Config
	logger     *slog.Logger
	lastStable []string
	pending    []string
	count      int
}

// New returns a filter with no committed output yet.
func New(cfg Config, logger *slog.Logger) *Filter {
	if cfg.RequiredFrames <= 0 {
		cfg.RequiredFrames = DefaultRequiredFrames
	}
	if cfg.MajorChangeRatio <= 0 {
		cfg.MajorChangeRatio = DefaultMajorChangeRatio
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{cfg: cfg, logger: logger}
}

// Push feeds one recognized frame and returns the current stable output
// together with whether this call committed a new one. The returned slice
// is the committed state, never the raw input, and must not be mutated by
// the caller.
func (f *Filter) Push(lines []string) ([]string, bool) {
	if slices.Equal(lines, f.pending) {
		f.count++
	} else {
		f.pending = slices.Clone(lines)
		f.count = 1
	}

	commit := f.count >= f.cfg.RequiredFrames
	if !commit && f.majorChange(lines) {
		f.logger.Debug("stability bypass on major change",
			"differing_rows", diffRows(lines, f.lastStable))
		commit = true
	}
	if commit && slices.Equal(f.pending, f.lastStable) {
		// Re-confirming the committed state is not a new commit.
		return f.lastStable, false
	}
	if commit {
		f.lastStable = slices.Clone(f.pending)
		f.count = f.cfg.RequiredFrames
		return f.lastStable, true
	}
	return f.lastStable, false
}

// Stable returns the last committed output, nil before the first commit.
func (f *Filter) Stable() []string {
	return f.lastStable
}

// Reset drops all state, as when the profile changes.
func (f *Filter) Reset() {
	f.lastStable = nil
	f.pending = nil
	f.count = 0
}

// majorChange reports whether lines differ from the last stable output in
// more than the configured fraction of rows. A first frame with no stable
// output yet always counts as major.
func (f *Filter) majorChange(lines []string) bool {
	if len(f.lastStable) == 0 {
		return len(lines) > 0
	}
	larger := max(len(lines), len(f.lastStable))
	return float64(diffRows(lines, f.lastStable)) > f.cfg.MajorChangeRatio*float64(larger)
}

// diffRows counts differing row strings plus the absolute row count
// difference.
func diffRows(a, b []string) int {
	n := min(len(a), len(b))
	d := len(a) - len(b)
	if d < 0 {
		d = -d
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}
