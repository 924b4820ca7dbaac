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
	"github.com/dcsflight/cduocr/internal/indication"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Read the display when telemetry indications arrive",
	Long: `Binds a UDP port for out-of-band telemetry blobs. Each fresh blob
triggers the pipeline with the blob's parsed reference data and schedules a
single refinement re-run; duplicates are ignored.`,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().Int("port", 0, "telemetry UDP port (default from config)")
	listenCmd.Flags().Bool("publish", false, "serve committed frames over WebSocket instead of printing them")
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, _ []string) error {
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

	port := cfg.Telemetry.Port
	if flagPort, _ := cmd.Flags().GetInt("port"); flagPort > 0 {
		port = flagPort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := indication.Listen(ctx, port, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = listener.Close() }()

	pipeline := flow.NewPipeline(prof, capture.ScreenCapturer{}, rec, slog.Default())
	ctrl := flow.NewController(flowConfig(cfg), pipeline, stabilityConfig(cfg), slog.Default())

	publish, _ := cmd.Flags().GetBool("publish")
	done := consumeResults(ctx, cfg, ctrl, publish)

	slog.Info("waiting for telemetry", "profile", prof.Name, "port", listener.Port())
	if err := ctrl.Listen(ctx, listener.Messages()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-done
}
