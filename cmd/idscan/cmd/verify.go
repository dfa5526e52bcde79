package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/idscan/internal/catalog"
	"github.com/MeKo-Tech/idscan/internal/verify"
)

// verifyCmd represents the verify command.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify extracted fields against reference data",
	Long: `Compare extracted document fields against trusted reference data.

Both sides are cleaned the same way before comparison, so formatting
differences (date styles, case, whitespace) do not count as mismatches.
Near-identical values are reported as corrections rather than failures.

Examples:
  idscan verify --extracted fields.json --reference applicant.json
  idscan verify --extracted fields.json --reference applicant.json --format json`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().String("extracted", "", "JSON file with extracted fields (required)")
	verifyCmd.Flags().String("reference", "", "JSON file with reference fields (required)")
	verifyCmd.Flags().StringP("format", "f", "", "output format: text or json (default from config)")
	_ = verifyCmd.MarkFlagRequired("extracted")
	_ = verifyCmd.MarkFlagRequired("reference")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q (text, json)", format)
	}

	extractedPath, _ := cmd.Flags().GetString("extracted")
	referencePath, _ := cmd.Flags().GetString("reference")

	extracted, err := loadFieldMap(extractedPath)
	if err != nil {
		return fmt.Errorf("loading extracted fields: %w", err)
	}
	reference, err := loadFieldMap(referencePath)
	if err != nil {
		return fmt.Errorf("loading reference fields: %w", err)
	}

	report := verify.Verify(extracted, reference, catalog.Default())
	return printVerifyReport(cmd, format, report)
}

// renderVerifyText formats a verification report for terminal output.
func renderVerifyText(report verify.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Overall: %s\n", report.OverallStatus)
	fmt.Fprintf(&sb, "Fields: %d total, %d passed, %d corrected, %d mismatched, %d missing\n",
		report.Summary.TotalFields, report.Summary.Passed, report.Summary.Corrected,
		report.Summary.Mismatched, report.Summary.Missing)

	for _, f := range report.Fields {
		fmt.Fprintf(&sb, "  %-24s %-10s %5.1f%%", f.Field, f.Status, f.MatchPercentage)
		if f.Reference != "" && f.Status != verify.StatusPass {
			fmt.Fprintf(&sb, "  %q vs %q", f.Extracted, f.Reference)
		}
		sb.WriteByte('\n')
		for _, issue := range f.Issues {
			fmt.Fprintf(&sb, "    issue: %s\n", issue)
		}
	}
	return sb.String()
}
