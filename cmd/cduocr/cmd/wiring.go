package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dcsflight/cduocr/internal/config"
	"github.com/dcsflight/cduocr/internal/flow"
	"github.com/dcsflight/cduocr/internal/profile"
	"github.com/dcsflight/cduocr/internal/recognize"
	"github.com/dcsflight/cduocr/internal/server"
	"github.com/dcsflight/cduocr/internal/stability"
)

func loadProfile(cfg *config.Config) (*profile.Profile, error) {
	if cfg.Profile == "" {
		return nil, errors.New("no display profile given (use --profile)")
	}
	return profile.Load(cfg.Profile)
}

func buildRecognizer(p *profile.Profile, cfg *config.Config) (recognize.Recognizer, error) {
	rc := recognize.DefaultConfig()
	if cfg.ModelsDir != "" {
		rc.UpdateModelPaths(cfg.ModelsDir)
	}
	if cfg.Recognizer.NumThreads > 0 {
		rc.NumThreads = cfg.Recognizer.NumThreads
	}
	if cfg.Recognizer.CharInputSize > 0 {
		rc.CharInputSize = cfg.Recognizer.CharInputSize
	}
	if cfg.Recognizer.LineHeight > 0 {
		rc.LineHeight = cfg.Recognizer.LineHeight
	}
	rec, err := recognize.New(p, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to load recognition model: %w", err)
	}
	return rec, nil
}

func flowConfig(cfg *config.Config) flow.Config {
	return flow.Config{
		PollInterval:  time.Duration(cfg.Flow.PollIntervalMS) * time.Millisecond,
		NotReadyDelay: time.Duration(cfg.Flow.NotReadyDelayMS) * time.Millisecond,
		RefineDelay:   time.Duration(cfg.Flow.RefineDelayMS) * time.Millisecond,
	}
}

func stabilityConfig(cfg *config.Config) stability.Config {
	return stability.Config{
		RequiredFrames:   cfg.Stability.RequiredFrames,
		MajorChangeRatio: cfg.Stability.MajorChangeRatio,
	}
}

// consumeResults forwards committed frames either to the publish server or
// to stdout. It returns when the controller closes its result channel.
func consumeResults(ctx context.Context, cfg *config.Config, ctrl *flow.Controller, publish bool) <-chan error {
	done := make(chan error, 1)
	if publish {
		srv := server.New(server.Config{Host: cfg.Server.Host, Port: cfg.Server.Port}, slog.Default())
		go func() { done <- srv.Run(ctx, ctrl.Results()) }()
		return done
	}
	go func() {
		for r := range ctrl.Results() {
			for _, row := range r.Rows {
				fmt.Println(row)
			}
			fmt.Println()
		}
		done <- nil
	}()
	return done
}
