package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/idscan/internal/input"
	"github.com/MeKo-Tech/idscan/internal/verify"
)

// extractCmd represents the extract command.
var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract labeled fields from a document image or PDF",
	Long: `Extract labeled fields from a scanned document. Images run as a single
page; PDFs are processed page by page.

The image is quality-gated first: a too blurry or too dark capture is
rejected with a recapture verdict instead of producing unreliable fields.

Examples:
  idscan extract scan.jpg
  idscan extract scan.jpg --format json
  idscan extract scan.jpg --reference applicant.json
  idscan extract form.pdf --pages 1-3`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringP("format", "f", "", "output format: text or json (default from config)")
	extractCmd.Flags().String("reference", "", "JSON file with reference fields to verify against")
	extractCmd.Flags().String("pages", "", "page selection for PDFs, e.g. \"1-3\" or \"1,4\"")
	extractCmd.Flags().StringSlice("engines", nil, "engines to run, e.g. \"tesseract,handwriting\" (default from config)")
	extractCmd.Flags().Float64("quality-threshold", 0, "override the quality gate threshold (0-100)")
	extractCmd.Flags().Bool("no-quality-gate", false, "skip the pre-OCR quality gate")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if cmd.Flags().Changed("quality-threshold") {
		cfg.Pipeline.QualityThreshold, _ = cmd.Flags().GetFloat64("quality-threshold")
	}
	if skip, _ := cmd.Flags().GetBool("no-quality-gate"); skip {
		cfg.Pipeline.QualityGate = false
	}
	if cmd.Flags().Changed("engines") {
		names, _ := cmd.Flags().GetStringSlice("engines")
		if err := selectEngines(cfg, names); err != nil {
			return err
		}
	}
	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q (text, json)", format)
	}

	pl, err := buildPipeline(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	path := args[0]
	if input.IsPDF(path) {
		pages, _ := cmd.Flags().GetString("pages")
		res, err := pl.ProcessPDF(cmd.Context(), path, pages)
		if err != nil {
			return err
		}
		return printResult(cmd, format, res)
	}

	res, err := pl.ProcessFile(cmd.Context(), path)
	if err != nil {
		return err
	}
	if err := printResult(cmd, format, res); err != nil {
		return err
	}

	refPath, _ := cmd.Flags().GetString("reference")
	if refPath == "" || res.NeedsRecapture() {
		return nil
	}
	reference, err := loadFieldMap(refPath)
	if err != nil {
		return fmt.Errorf("loading reference: %w", err)
	}
	report := pl.Verify(res, reference)
	return printVerifyReport(cmd, format, report)
}

// textRenderer is satisfied by both single-page and PDF results.
type textRenderer interface {
	ToText() string
	ToJSON() (string, error)
}

func printResult(cmd *cobra.Command, format string, res textRenderer) error {
	if format == "json" {
		out, err := res.ToJSON()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), res.ToText())
	return nil
}

func printVerifyReport(cmd *cobra.Command, format string, report verify.Report) error {
	if format == "json" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), renderVerifyText(report))
	return nil
}

func loadFieldMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-provided path is expected
	if err != nil {
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}
