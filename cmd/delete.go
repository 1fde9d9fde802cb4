package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shiftclock/config"
	"shiftclock/storage"
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete all stored time entries",
	Long: `Destructive database cleanup command.

For SQLite the complete database file is removed. For PostgreSQL every row of
the time_entries table is deleted; the schema is kept.
Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete the configured database (requires interactive confirmation)
  shiftclock delete

  # Delete a specific SQLite file
  shiftclock delete --db ./shiftclock.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		dsn := cfg.Database.DSN
		if strings.TrimSpace(dbOverride) != "" {
			dsn = dbOverride
		}

		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, dsn)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		return deleteDatabase(cmd.Context(), cmd.OutOrStdout(), cfg.Database.Driver, dsn)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

// deleteDatabase removes the SQLite file at dsn, or empties time_entries for
// PostgreSQL.
func deleteDatabase(ctx context.Context, out io.Writer, driver, dsn string) error {
	if driver == storage.DriverPostgres {
		store, err := storage.Open(driver, dsn)
		if err != nil {
			return err
		}
		defer store.Close()

		removed, err := store.DeleteAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d time entries from %s\n", removed, driver)
		return nil
	}

	if err := removeDatabaseFile(dsn); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted database file: %s\n", dsn)
	return nil
}

func confirmDeletePrompt(input io.Reader, output io.Writer, target string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete all entries in %q? Type Y to confirm: ", target); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", path)
		}
		return fmt.Errorf("stat database file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("database path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database file: %w", err)
	}
	return nil
}
