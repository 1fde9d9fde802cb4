package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"shiftclock/importer"
)

var (
	importInputs      []string
	importFormat      string
	importDryRun      bool
	importStopOnError bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import manual entries from CSV/Excel files",
	Long: `Read source files and store every row as a manual entry.

Recognized columns (header names are case-insensitive, German aliases accepted):
- date (datum): YYYY-MM-DD or DD.MM.YYYY
- kind (art): work|break, default work
- start (von), end (bis): HH:MM; an end earlier than start means the next day
- minutes or hours (stunden) instead of end
- note (beschreibung): required; rows without a note are rejected

Invalid rows are reported and skipped unless --stop-on-error is set. Rows
matching an already stored entry are skipped; rows overlapping a stored entry
are reported and skipped.
When --format is omitted, format is inferred from each input file extension.`,
	Example: `
  # Import a CSV file
  shiftclock import -i ./entries.csv

  # Check an Excel file without writing anything
  shiftclock import -i ./timesheet.xlsx --dry-run
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := importer.Run(cmd.Context(), importInputs, a.store, importer.RunOptions{
			UserID:      a.userID(),
			Format:      importFormat,
			Location:    a.loc,
			DryRun:      importDryRun,
			StopOnError: importStopOnError,
			Logger:      a.log,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, rowErr := range result.Errors {
			fmt.Fprintf(out, "Skipped %v\n", rowErr)
		}
		fmt.Fprintf(out, "Import completed. Files: %d, Rows read: %d, Rows mapped: %d, Rows skipped: %d, Rows invalid: %d, Duplicates: %d, Overlaps: %d, Rows persisted: %d\n",
			result.FilesProcessed,
			result.RowsRead,
			result.RowsMapped,
			result.RowsSkipped,
			result.RowsInvalid,
			result.RowsDuplicate,
			result.RowsOverlap,
			result.RowsStored,
		)
		if importDryRun {
			fmt.Fprintln(out, "Dry run: nothing was written.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringArrayVarP(&importInputs, "input", "i", nil, "Input file path (repeatable)")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format: csv|excel (optional, inferred from extension when omitted)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and map rows without storing them")
	importCmd.Flags().BoolVar(&importStopOnError, "stop-on-error", false, "Abort on the first invalid row")

	_ = importCmd.MarkFlagRequired("input")
}
