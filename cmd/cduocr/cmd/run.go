package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dcsflight/cduocr/internal/capture"
	"github.com/dcsflight/cduocr/internal/flow"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Read the display on a fixed polling cadence",
	Long: `Captures the profile's screen region at a fixed interval, runs the
recognition pipeline and prints each committed stable frame. With --publish
the frames go to WebSocket subscribers instead of stdout.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("publish", false, "serve committed frames over WebSocket instead of printing them")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig()
	prof, err := loadProfile(cfg)
	if err != nil {
		return err
	}
	rec, err := buildRecognizer(prof, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rec.Close() }()

	pipeline := flow.NewPipeline(prof, capture.ScreenCapturer{}, rec, slog.Default())
	ctrl := flow.NewController(flowConfig(cfg), pipeline, stabilityConfig(cfg), slog.Default())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publish, _ := cmd.Flags().GetBool("publish")
	done := consumeResults(ctx, cfg, ctrl, publish)

	slog.Info("polling display", "profile", prof.Name, "rows", prof.Rows, "cols", prof.Cols)
	if err := ctrl.Poll(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-done
}
