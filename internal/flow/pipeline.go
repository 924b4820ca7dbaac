// Package flow orchestrates the full reading pipeline, either on a fixed
// polling cadence or triggered by inbound telemetry messages. It owns the
// only goroutine that touches the stability filter.
package flow

import (
	"fmt"
	"log/slog"

	"github.com/dcsflight/cduocr/internal/capture"
	"github.com/dcsflight/cduocr/internal/common"
	"github.com/dcsflight/cduocr/internal/correct"
	"github.com/dcsflight/cduocr/internal/indication"
	"github.com/dcsflight/cduocr/internal/normalize"
	"github.com/dcsflight/cduocr/internal/preprocess"
	"github.com/dcsflight/cduocr/internal/profile"
	"github.com/dcsflight/cduocr/internal/recognize"
	"github.com/dcsflight/cduocr/internal/stability"
)

// Result is one committed frame: the stable row strings and the stage
// timings of the run that produced them.
type Result struct {
	Rows   []string
	Timing common.StageTiming
}

// Pipeline is the per-frame transform. Stateless apart from the model
// session held by the recognizer; the stability filter lives in the
// Controller.
type Pipeline struct {
	profile    *profile.Profile
	capturer   capture.Capturer
	recognizer recognize.Recognizer
	corrector  *correct.Corrector
	normCfg    normalize.Config
	logger     *slog.Logger
}

// NewPipeline wires the stages for one display profile.
func NewPipeline(p *profile.Profile, cap capture.Capturer, rec recognize.Recognizer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		profile:    p,
		capturer:   cap,
		recognizer: rec,
		corrector:  correct.New(p),
		normCfg:    normalize.DefaultConfig(),
		logger:     logger,
	}
}

// Ready reports whether a frame can be processed.
func (pl *Pipeline) Ready() bool {
	return pl.profile != nil && pl.capturer != nil &&
		pl.recognizer != nil && pl.recognizer.IsLoaded()
}

// RunFrame executes capture through correction once. ref and fragments are
// optional telemetry data; nil means OCR-only correction. Panics inside a
// stage are converted to errors so a single bad frame never stops the
// stream.
func (pl *Pipeline) RunFrame(parsed *indication.Parsed) (rows []string, timing common.StageTiming, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline stage panicked: %v", r)
		}
	}()
	timing = common.StageTiming{}

	timer := common.NewNamedTimer("capture")
	img, err := pl.capturer.Capture(pl.profile.Capture)
	timing.Record("capture", timer.Stop())
	if err != nil {
		return nil, timing, fmt.Errorf("capture: %w", err)
	}

	timer = common.NewNamedTimer("preprocess")
	bin := preprocess.Preprocess(img, preprocess.ParamsFromProfile(pl.profile))
	bin, inverted := normalize.Normalize(bin, pl.normCfg)
	timing.Record("preprocess", timer.Stop())

	timer = common.NewNamedTimer("recognition")
	g, err := pl.recognizer.Recognize(bin, inverted, pl.profile)
	timing.Record("recognition", timer.Stop())
	if err != nil {
		return nil, timing, fmt.Errorf("recognize: %w", err)
	}

	timer = common.NewNamedTimer("correction")
	var ref [][]rune
	var fragments []string
	if parsed != nil {
		ref = parsed.Reference
		fragments = parsed.Fragments
	}
	rows = pl.corrector.Correct(g, ref, fragments)
	timing.Record("correction", timer.Stop())

	return rows, timing, nil
}

// stabilize pushes a recognized frame through the filter and observes the
// commit, shared by both controller modes.
func stabilize(filter *stability.Filter, rows []string, timing common.StageTiming) ([]string, bool) {
	timer := common.NewNamedTimer("stability")
	stable, committed := filter.Push(rows)
	timing.Record("stability", timer.Stop())
	return stable, committed
}
