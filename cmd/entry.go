package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shiftclock/internal/timeutil"
	"shiftclock/timeentry"
)

var (
	entryDate  string
	entryKind  string
	entryStart string
	entryEnd   string
	entryNote  string
	entryFrom  string
	entryTo    string
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Add, list and delete time entries",
	Long: `Manage stored time entries directly.

Manual entries are closed intervals and need a note explaining them.
The running session cannot be edited or deleted here; stop it first.`,
	Example: `
  # Add a forgotten work block
  shiftclock entry add --date 2026-03-04 --start 09:00 --end 12:30 --note "client workshop"

  # Add a break
  shiftclock entry add --kind break --start 12:30 --end 13:00 --note "lunch"

  # List today's entries
  shiftclock entry list

  # List a range
  shiftclock entry list --from 2026-03-01 --to 2026-03-07

  # Delete an entry by ID
  shiftclock entry delete 6f1c0f3e-...
`,
}

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a manual entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		manual, err := buildManualEntry(a, entryDate, entryKind, entryStart, entryEnd, entryNote)
		if err != nil {
			return err
		}
		id, err := a.store.CreateManual(cmd.Context(), manual)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s entry %s on %s (%s - %s).\n",
			manual.Kind, id, manual.Date, manual.Start.Format("15:04"), manual.End.Format("15:04"))
		return nil
	},
}

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries of a day or a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		from, to, err := resolveDayRange(a, entryFrom, entryTo)
		if err != nil {
			return err
		}
		entries, err := a.store.ListRange(cmd.Context(), a.userID(), from, to)
		if err != nil {
			return err
		}
		printEntries(cmd.OutOrStdout(), entries, a.now())
		return nil
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := deleteEntry(cmd.Context(), a, timeentry.ID(strings.TrimSpace(args[0]))); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %s.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryAddCmd, entryListCmd, entryDeleteCmd)

	entryAddCmd.Flags().StringVar(&entryDate, "date", "", "Day the entry is filed under, YYYY-MM-DD (default: today)")
	entryAddCmd.Flags().StringVar(&entryKind, "kind", "work", "Entry kind: work|break")
	entryAddCmd.Flags().StringVar(&entryStart, "start", "", "Start time HH:MM")
	entryAddCmd.Flags().StringVar(&entryEnd, "end", "", "End time HH:MM (earlier than start means the next day)")
	entryAddCmd.Flags().StringVar(&entryNote, "note", "", "Why the entry is added by hand")
	_ = entryAddCmd.MarkFlagRequired("start")
	_ = entryAddCmd.MarkFlagRequired("end")
	_ = entryAddCmd.MarkFlagRequired("note")

	entryListCmd.Flags().StringVar(&entryFrom, "from", "", "First day, YYYY-MM-DD (default: today)")
	entryListCmd.Flags().StringVar(&entryTo, "to", "", "Last day, YYYY-MM-DD (default: --from)")
}

func buildManualEntry(a *app, dateValue, kindValue, startValue, endValue, note string) (timeentry.ManualEntry, error) {
	day := a.now().In(a.loc)
	if strings.TrimSpace(dateValue) != "" {
		parsed, err := timeutil.ParseDay(dateValue, a.loc)
		if err != nil {
			return timeentry.ManualEntry{}, err
		}
		day = parsed
	}

	kind, err := timeentry.ParseKind(kindValue)
	if err != nil {
		return timeentry.ManualEntry{}, err
	}
	start, err := timeutil.ClockOnDay(day, startValue)
	if err != nil {
		return timeentry.ManualEntry{}, fmt.Errorf("invalid --start: %w", err)
	}
	end, err := timeutil.ClockOnDay(day, endValue)
	if err != nil {
		return timeentry.ManualEntry{}, fmt.Errorf("invalid --end: %w", err)
	}
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}

	return timeentry.ManualEntry{
		UserID: a.userID(),
		Date:   timeutil.DayKey(day),
		Kind:   kind,
		Start:  start,
		End:    end,
		Note:   note,
	}, nil
}

func resolveDayRange(a *app, fromValue, toValue string) (string, string, error) {
	from := timeutil.DayKey(a.now().In(a.loc))
	if strings.TrimSpace(fromValue) != "" {
		parsed, err := timeutil.ParseDay(fromValue, a.loc)
		if err != nil {
			return "", "", fmt.Errorf("invalid --from value: %w", err)
		}
		from = timeutil.DayKey(parsed)
	}
	to := from
	if strings.TrimSpace(toValue) != "" {
		parsed, err := timeutil.ParseDay(toValue, a.loc)
		if err != nil {
			return "", "", fmt.Errorf("invalid --to value: %w", err)
		}
		to = timeutil.DayKey(parsed)
	}
	if from > to {
		return "", "", fmt.Errorf("invalid range: --from must be <= --to")
	}
	return from, to, nil
}

func deleteEntry(ctx context.Context, a *app, id timeentry.ID) error {
	existing, found, err := a.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !found || existing.UserID != a.userID() {
		return fmt.Errorf("entry %s: %w", id, timeentry.ErrNotFound)
	}
	if existing.Open() {
		return fmt.Errorf("entry %s is the running session; stop it first", id)
	}
	deleted, err := a.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("entry %s: %w", id, timeentry.ErrNotFound)
	}
	return nil
}

func printEntries(w io.Writer, entries []timeentry.Entry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}
	for _, entry := range entries {
		end := "running"
		if entry.End != nil {
			end = entry.End.Format("15:04")
		}
		manual := ""
		if entry.IsManual {
			manual = " manual"
		}
		line := fmt.Sprintf("%s  %-5s  %s - %-7s  %8s  %s%s",
			entry.Date,
			entry.Kind,
			entry.Start.Format("15:04"),
			end,
			timeutil.FormatMinutes(int(entry.Duration(now)/time.Minute)),
			entry.ID,
			manual,
		)
		if entry.Note != "" {
			line += "  " + entry.Note
		}
		fmt.Fprintln(w, line)
	}
}
