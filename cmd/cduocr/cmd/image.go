package cmd

import (
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/dcsflight/cduocr/internal/capture"
	"github.com/dcsflight/cduocr/internal/flow"
)

var imageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "Read a single display frame from an image file",
	Long: `Runs the full pipeline once over an image file instead of a live
screen capture and prints the recognized rows. No stability debounce is
applied; the frame's corrected output is printed directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runImage,
}

func init() {
	rootCmd.AddCommand(imageCmd)
}

func runImage(cmd *cobra.Command, args []string) error {
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

	img, err := imaging.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", args[0], err)
	}

	pipeline := flow.NewPipeline(prof, capture.StaticCapturer{Image: img}, rec, slog.Default())
	rows, timing, err := pipeline.RunFrame(nil)
	if err != nil {
		return err
	}

	for _, row := range rows {
		fmt.Fprintln(cmd.OutOrStdout(), row)
	}
	slog.Debug("frame processed", "timing", timing.String())
	return nil
}
