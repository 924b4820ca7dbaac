package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/dcsflight/cduocr/internal/indication"
	"github.com/dcsflight/cduocr/internal/stability"
)

// Controller timing defaults.
const (
	DefaultPollInterval  = 200 * time.Millisecond
	DefaultNotReadyDelay = time.Second
	DefaultRefineDelay   = 150 * time.Millisecond
)

// resultBuffer is the committed-result channel depth.
const resultBuffer = 16

// Config holds the controller's pacing knobs.
type Config struct {
	// PollInterval paces the polling loop.
	PollInterval time.Duration

	// NotReadyDelay is the extra backoff when the model or profile is not
	// ready yet.
	NotReadyDelay time.Duration

	// RefineDelay schedules the single re-run after an event-triggered
	// frame, to catch late on-screen rendering.
	RefineDelay time.Duration
}

// DefaultControllerConfig returns the documented pacing defaults.
func DefaultControllerConfig() Config {
	return Config{
		PollInterval:  DefaultPollInterval,
		NotReadyDelay: DefaultNotReadyDelay,
		RefineDelay:   DefaultRefineDelay,
	}
}

// Controller drives the pipeline from a trigger source: a periodic tick
// (Poll) or inbound telemetry messages (Listen). All pipeline and
// stability-filter access happens on the goroutine that called Poll or
// Listen.
type Controller struct {
	cfg      Config
	pipeline *Pipeline
	filter   *stability.Filter
	logger   *slog.Logger
	results  chan Result
	lastBlob string
}

// NewController wires a pipeline to a fresh stability filter.
func NewController(cfg Config, pipeline *Pipeline, stabCfg stability.Config, logger *slog.Logger) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.NotReadyDelay <= 0 {
		cfg.NotReadyDelay = DefaultNotReadyDelay
	}
	if cfg.RefineDelay <= 0 {
		cfg.RefineDelay = DefaultRefineDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:      cfg,
		pipeline: pipeline,
		filter:   stability.New(stabCfg, logger),
		logger:   logger,
		results:  make(chan Result, resultBuffer),
	}
}

// Results streams one Result per committed frame. Slow consumers lose the
// oldest result, never the newest.
func (c *Controller) Results() <-chan Result {
	return c.results
}

// Stable returns the last committed output.
func (c *Controller) Stable() []string {
	return c.filter.Stable()
}

// Poll runs the fixed-rate loop until ctx is cancelled.
func (c *Controller) Poll(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	defer close(c.results)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if !c.pipeline.Ready() {
			framesTotal.WithLabelValues("poll", "skipped").Inc()
			c.logger.Debug("pipeline not ready, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.NotReadyDelay):
			}
			continue
		}
		c.process("poll", nil)
	}
}

// Listen runs the event-triggered loop until ctx is cancelled or the
// message channel closes. Each fresh telemetry blob runs the pipeline
// immediately and schedules exactly one refinement re-run; a newer blob
// cancels a pending one.
func (c *Controller) Listen(ctx context.Context, messages <-chan string) error {
	defer close(c.results)

	refine := time.NewTimer(time.Hour)
	stopTimer(refine)
	defer refine.Stop()

	var pending *indication.Parsed
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case blob, ok := <-messages:
			if !ok {
				return nil
			}
			if blob == c.lastBlob {
				telemetryBlobsTotal.WithLabelValues("duplicate").Inc()
				continue
			}
			telemetryBlobsTotal.WithLabelValues("fresh").Inc()
			c.lastBlob = blob
			parsed := indication.Parse(blob, c.pipeline.profile)
			pending = &parsed

			stopTimer(refine)
			if c.pipeline.Ready() {
				c.process("event", pending)
			} else {
				framesTotal.WithLabelValues("event", "skipped").Inc()
			}
			refine.Reset(c.cfg.RefineDelay)
		case <-refine.C:
			if pending == nil || !c.pipeline.Ready() {
				continue
			}
			c.process("refine", pending)
		}
	}
}

// process runs one frame and publishes the result if the stability filter
// commits.
func (c *Controller) process(trigger string, parsed *indication.Parsed) {
	rows, timing, err := c.pipeline.RunFrame(parsed)
	if err != nil {
		framesTotal.WithLabelValues(trigger, "error").Inc()
		c.logger.Warn("frame skipped", "trigger", trigger, "error", err)
		return
	}
	stable, committed := stabilize(c.filter, rows, timing)
	for stage, d := range timing {
		stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
	framesTotal.WithLabelValues(trigger, "ok").Inc()
	if !committed {
		return
	}
	commitsTotal.Inc()
	c.logger.Debug("frame committed", "trigger", trigger, "timing", timing.String())
	c.publish(Result{Rows: stable, Timing: timing})
}

// publish sends without blocking, dropping the oldest queued result when
// the consumer lags.
func (c *Controller) publish(r Result) {
	select {
	case c.results <- r:
		return
	default:
	}
	select {
	case <-c.results:
	default:
	}
	select {
	case c.results <- r:
	default:
	}
}

// stopTimer stops t and drains a pending fire so Reset starts clean.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
