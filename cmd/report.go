package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"shiftclock/duration"
	"shiftclock/internal/timeutil"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show evaluated work time per day or month",
	Long: `Evaluate stored entries against the break rules of the configured profile.

Gross is the logged work time. Taken break is logged breaks plus unlogged gaps
between work entries. Missing break time required by the region is deducted
from the net total (Germany); other regions only flag the day.`,
	Example: `
  # Today
  shiftclock report day

  # A specific day
  shiftclock report day 2026-03-04

  # A month
  shiftclock report month 2026-03
`,
}

var reportDayCmd = &cobra.Command{
	Use:   "day [YYYY-MM-DD]",
	Short: "Report one day",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		day := timeutil.DayKey(a.now().In(a.loc))
		if len(args) == 1 {
			parsed, err := timeutil.ParseDay(args[0], a.loc)
			if err != nil {
				return err
			}
			day = timeutil.DayKey(parsed)
		}

		entries, err := a.store.ListDay(cmd.Context(), a.userID(), day)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		now := a.now().In(a.loc)
		fmt.Fprintf(out, "Day: %s (%s)\n", day, a.profile.Region)
		printEntries(out, entries, now)
		fmt.Fprintln(out)
		printDailyResult(out, duration.ComputeDaily(entries, a.profile, now))
		return nil
	},
}

var reportMonthCmd = &cobra.Command{
	Use:   "month [YYYY-MM]",
	Short: "Report one month",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		monthStart := a.now().In(a.loc)
		if len(args) == 1 {
			monthStart, err = timeutil.ParseMonth(args[0], a.loc)
			if err != nil {
				return err
			}
		}
		from, to := timeutil.MonthDays(monthStart)

		entries, err := a.store.ListRange(cmd.Context(), a.userID(), from, to)
		if err != nil {
			return err
		}

		now := a.now().In(a.loc)
		summary := duration.BuildMonthlySummary(monthStart.Format(timeutil.MonthLayout), duration.ComputeDays(entries, a.profile, now))
		printMonthlySummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportDayCmd, reportMonthCmd)
}

func printMonthlySummary(w io.Writer, summary duration.MonthlySummary) {
	fmt.Fprintf(w, "Month: %s\n", summary.Month)
	if len(summary.Days) == 0 {
		fmt.Fprintln(w, "No entries.")
		return
	}

	fmt.Fprintf(w, "%-10s  %9s  %9s  %9s  %9s  %-9s  %s\n", "Date", "Gross", "Taken", "Deducted", "Net", "Compliant", "Severity")
	for _, day := range summary.Days {
		result := day.Result
		fmt.Fprintf(w, "%-10s  %9s  %9s  %9s  %9s  %-9t  %s\n",
			day.Date,
			timeutil.FormatMinutes(result.Gross),
			timeutil.FormatMinutes(result.TakenBreak),
			timeutil.FormatMinutes(result.DeductedBreak),
			timeutil.FormatMinutes(result.Net),
			result.IsCompliant,
			result.Severity,
		)
	}
	fmt.Fprintf(w, "%-10s  %9s  %9s  %9s  %9s\n",
		"Total",
		timeutil.FormatMinutes(summary.TotalGross),
		timeutil.FormatMinutes(summary.TotalTakenBreak),
		timeutil.FormatMinutes(summary.TotalDeducted),
		timeutil.FormatMinutes(summary.TotalNet),
	)
	fmt.Fprintf(w, "Non-compliant days: %d\n", summary.NonCompliantDays)
}
