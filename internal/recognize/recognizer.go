// Package recognize converts binarized display frames into character grids.
// Two interchangeable strategies sit behind one interface: a per-character
// glyph classifier and a per-line CTC sequence classifier, both backed by
// pre-trained ONNX models.
package recognize

import (
	"errors"
	"fmt"
	"image"

	"github.com/dcsflight/cduocr/internal/grid"
	"github.com/dcsflight/cduocr/internal/models"
	"github.com/dcsflight/cduocr/internal/profile"
)

// ErrModelNotLoaded is returned when Recognize is called before the model
// session is ready. This is a caller error, not a degraded mode.
var ErrModelNotLoaded = errors.New("recognition model not loaded")

// Recognizer turns a binarized frame into a rows×cols grid. The inverted
// rectangles come from the normalizer; cells whose center falls inside one
// are flagged.
type Recognizer interface {
	Recognize(bin *image.Gray, inverted []image.Rectangle, p *profile.Profile) (*grid.Grid, error)
	IsLoaded() bool
	Close() error
}

// Config holds model artifact locations and inference settings.
type Config struct {
	CharModelPath string // isolated-glyph classifier
	LineModelPath string // CTC sequence classifier
	CharsetPath   string // ordered label alphabet, one token per line
	CharInputSize int    // square input size of the glyph classifier
	LineHeight    int    // fixed input height of the sequence classifier
	NumThreads    int    // CPU threads (0 for runtime default)
}

// DefaultConfig resolves model paths under the configured models directory.
func DefaultConfig() Config {
	return Config{
		CharModelPath: models.CharModelPath(""),
		LineModelPath: models.LineModelPath(""),
		CharsetPath:   models.CharsetPath(""),
		CharInputSize: 32,
		LineHeight:    48,
	}
}

// UpdateModelPaths re-resolves artifact paths for a models directory.
func (c *Config) UpdateModelPaths(dir string) {
	c.CharModelPath = models.CharModelPath(dir)
	c.LineModelPath = models.LineModelPath(dir)
	c.CharsetPath = models.CharsetPath(dir)
}

// New builds the recognizer strategy selected by the profile.
func New(p *profile.Profile, cfg Config) (Recognizer, error) {
	switch p.RecognizerMode {
	case profile.RecognizeChar:
		return NewCharRecognizer(cfg)
	case profile.RecognizeLine:
		return NewLineRecognizer(cfg)
	default:
		return nil, fmt.Errorf("unknown recognizer mode %q", p.RecognizerMode)
	}
}

// cellInverted reports whether the cell center falls inside any inverted
// region.
func cellInverted(rect image.Rectangle, regions []image.Rectangle) bool {
	center := image.Pt(rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2)
	for _, r := range regions {
		if center.In(r) {
			return true
		}
	}
	return false
}
