package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcsflight/cduocr/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage display profiles",
}

var profileInitCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Write a new display profile with documented defaults",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileInit,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Validate a profile and print its effective settings",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

func init() {
	profileInitCmd.Flags().Int("rows", 14, "display row count")
	profileInitCmd.Flags().Int("cols", 24, "display column count")
	profileInitCmd.Flags().String("name", "default", "profile name")
	profileCmd.AddCommand(profileInitCmd)
	profileCmd.AddCommand(profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileInit(cmd *cobra.Command, args []string) error {
	rows, _ := cmd.Flags().GetInt("rows")
	cols, _ := cmd.Flags().GetInt("cols")
	name, _ := cmd.Flags().GetString("name")

	p := profile.Default(rows, cols)
	p.Name = name
	if err := p.Validate(); err != nil {
		return err
	}
	if err := p.Save(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", args[0], rows, cols)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	p, err := profile.Load(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "name:             %s\n", p.Name)
	fmt.Fprintf(out, "grid:             %dx%d\n", p.Rows, p.Cols)
	fmt.Fprintf(out, "capture:          %dx%d at (%d,%d)\n", p.Capture.W, p.Capture.H, p.Capture.X, p.Capture.Y)
	fmt.Fprintf(out, "segmentation:     %s\n", p.SegmentationMode)
	fmt.Fprintf(out, "recognizer:       %s\n", p.RecognizerMode)
	fmt.Fprintf(out, "context rules:    %d\n", len(p.ContextRules))
	fmt.Fprintf(out, "field mappings:   %d\n", len(p.FieldMap))
	return nil
}
