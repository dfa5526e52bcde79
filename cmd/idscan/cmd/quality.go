package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/idscan/internal/input"
	"github.com/MeKo-Tech/idscan/internal/quality"
)

// qualityCmd represents the quality command.
var qualityCmd = &cobra.Command{
	Use:   "quality <image>",
	Short: "Check whether an image is good enough for extraction",
	Long: `Analyze an image's blur, brightness, contrast, noise and resolution and
report whether extraction should proceed. No OCR runs.

Examples:
  idscan quality scan.jpg
  idscan quality scan.jpg --quality-threshold 80 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runQuality,
}

func init() {
	qualityCmd.Flags().StringP("format", "f", "", "output format: text or json (default from config)")
	qualityCmd.Flags().Float64("quality-threshold", 0, "override the quality gate threshold (0-100)")

	rootCmd.AddCommand(qualityCmd)
}

func runQuality(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q (text, json)", format)
	}
	threshold := cfg.Pipeline.QualityThreshold
	if cmd.Flags().Changed("quality-threshold") {
		threshold, _ = cmd.Flags().GetFloat64("quality-threshold")
	}

	img, _, err := input.LoadImage(args[0])
	if err != nil {
		return err
	}
	img = input.NormalizeSize(img, cfg.Pipeline.MaxImageDim)

	report := quality.Analyze(img)
	gate := quality.Gate(report, threshold)

	if format == "json" {
		data, err := json.MarshalIndent(map[string]any{
			"report":   report,
			"decision": gate.Decision,
			"warnings": gate.Warnings,
		}, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall score: %.1f\n", report.OverallScore)
	fmt.Fprintf(&sb, "  blur:       %.1f\n", report.Blur)
	fmt.Fprintf(&sb, "  brightness: %.1f\n", report.Brightness)
	fmt.Fprintf(&sb, "  contrast:   %.1f\n", report.Contrast)
	fmt.Fprintf(&sb, "  noise:      %.1f\n", report.Noise)
	fmt.Fprintf(&sb, "  resolution: %.1f\n", report.Resolution)
	fmt.Fprintf(&sb, "Decision: %s\n", gate.Decision)
	for _, w := range gate.Warnings {
		fmt.Fprintf(&sb, "  warning: %s\n", w)
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), sb.String())
	return nil
}
