package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shiftclock/output"
)

var (
	exportFormat string
	exportMode   string
	exportOutput string
	exportFrom   string
	exportTo     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries or evaluated days to CSV/Excel",
	Long: `Export stored time entries.

Modes:
- raw: one row per entry (kind, start, end, minutes, manual flag, note)
- daily: one row per day (span, gross, taken break, required and deducted break, net, compliance)

The range defaults to today. Output format can be selected explicitly via
--format or inferred from the --output extension.`,
	Example: `
  # Export this month's entries to CSV
  shiftclock export --mode raw --from 2026-03-01 --to 2026-03-31 --output ./entries.csv

  # Export the daily evaluation to Excel
  shiftclock export --mode daily --from 2026-03-01 --to 2026-03-31 --output ./report.xlsx

  # Force Excel format independent of extension
  shiftclock export --mode daily --format excel --output ./report.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}

		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		from, to, err := resolveDayRange(a, exportFrom, exportTo)
		if err != nil {
			return err
		}
		entries, err := a.store.ListRange(cmd.Context(), a.userID(), from, to)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch strings.TrimSpace(strings.ToLower(exportMode)) {
		case "", "raw":
			writer, err := output.WriterForFormat(format)
			if err != nil {
				return err
			}
			if err := writer.Write(exportOutput, entries); err != nil {
				return err
			}
			fmt.Fprintf(out, "Export completed. Rows: %d, Mode: raw, Format: %s, File: %s\n", len(entries), format, exportOutput)
		case "daily":
			writer, err := output.ReportWriterForFormat(format)
			if err != nil {
				return err
			}
			rows := output.BuildDailyRows(entries, a.profile, a.now().In(a.loc))
			if err := writer.WriteReport(exportOutput, rows); err != nil {
				return err
			}
			fmt.Fprintf(out, "Export completed. Days: %d, Mode: daily, Format: %s, File: %s\n", len(rows), format, exportOutput)
		default:
			return fmt.Errorf("unsupported export mode: %s (supported: raw, daily)", exportMode)
		}
		return nil
	},
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportMode, "mode", "raw", "Export mode: raw|daily")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First day, YYYY-MM-DD (default: today)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last day, YYYY-MM-DD (default: --from)")

	_ = exportCmd.MarkFlagRequired("output")
}
