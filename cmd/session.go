package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"shiftclock/duration"
	"shiftclock/internal/timeutil"
	"shiftclock/session"
	"shiftclock/timeentry"
)

var strictTransitions bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start working",
	Long: `Open a work entry at the current time.

Does nothing when a work or break entry is already running, unless --strict
is set, in which case the command fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionCommand(cmd.Context(), cmd.OutOrStdout(), session.OpStartWork)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop working",
	Long:  `Close the running work entry at the current time. Only valid while working.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionCommand(cmd.Context(), cmd.OutOrStdout(), session.OpStopWork)
	},
}

var breakCmd = &cobra.Command{
	Use:   "break",
	Short: "Toggle between work and break",
	Long: `Close the running entry and open one of the opposite kind at the same
instant: working goes on break, on break goes back to work.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionCommand(cmd.Context(), cmd.OutOrStdout(), session.OpToggleBreak)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running session and today's totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		controller, err := a.controller(cmd.Context())
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), a, controller)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd, stopCmd, breakCmd, statusCmd)

	for _, command := range []*cobra.Command{startCmd, stopCmd, breakCmd} {
		command.Flags().BoolVar(&strictTransitions, "strict", false, "Fail instead of doing nothing when the command does not apply to the current state")
	}
}

func runSessionCommand(ctx context.Context, w io.Writer, op session.Op) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	var opts []session.Option
	if strictTransitions {
		opts = append(opts, session.WithStrictTransitions())
	}
	controller, err := a.controller(ctx, opts...)
	if err != nil {
		return err
	}
	return applySessionOp(ctx, w, a, controller, op)
}

func applySessionOp(ctx context.Context, w io.Writer, a *app, controller *session.Controller, op session.Op) error {
	var (
		result session.Result
		err    error
	)
	switch op {
	case session.OpStartWork:
		result, err = controller.StartWork(ctx)
	case session.OpStopWork:
		result, err = controller.StopWork(ctx)
	case session.OpToggleBreak:
		result, err = controller.ToggleBreak(ctx)
	default:
		return fmt.Errorf("unknown session command: %s", op)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(w, describeResult(result, a.now().In(a.loc)))
	if result.Applied && result.After == session.Idle {
		printStatus(w, a, controller)
	}
	return nil
}

func describeResult(result session.Result, now time.Time) string {
	if !result.Applied {
		return fmt.Sprintf("Nothing to do: session is %s.", result.Before)
	}
	clock := now.Format("15:04")
	switch result.After {
	case session.Working:
		if result.Before == session.OnBreak {
			return fmt.Sprintf("Back to work at %s.", clock)
		}
		return fmt.Sprintf("Started work at %s.", clock)
	case session.OnBreak:
		return fmt.Sprintf("On break since %s.", clock)
	default:
		return fmt.Sprintf("Stopped at %s.", clock)
	}
}

func printStatus(w io.Writer, a *app, controller *session.Controller) {
	now := a.now().In(a.loc)
	fmt.Fprintf(w, "Day:     %s\n", controller.Day())
	fmt.Fprintf(w, "State:   %s\n", controller.State())

	worked := controller.TotalWorkTime()
	breaks := controller.TotalBreakTime()
	if active, ok := controller.ActiveEntry(); ok {
		elapsed := active.Elapsed(now)
		fmt.Fprintf(w, "Running: %s since %s (%s)\n", active.Kind, active.Start.In(a.loc).Format("15:04"), timeutil.FormatElapsed(elapsed))
		if timeutil.DayKey(active.Start.In(a.loc)) >= controller.Day() {
			if active.Kind == timeentry.KindBreak {
				breaks += elapsed
			} else {
				worked += elapsed
			}
		}
	}
	fmt.Fprintf(w, "Worked:  %s\n", timeutil.FormatMinutes(int(worked/time.Minute)))
	fmt.Fprintf(w, "Breaks:  %s\n", timeutil.FormatMinutes(int(breaks/time.Minute)))

	daily := duration.ComputeDaily(controller.Entries(), a.profile, now)
	printDailyResult(w, daily)
}

func printDailyResult(w io.Writer, daily duration.DailyResult) {
	fmt.Fprintf(w, "Gross:   %s\n", timeutil.FormatMinutes(daily.Gross))
	fmt.Fprintf(w, "Taken:   %s (logged %s, gaps %s)\n",
		timeutil.FormatMinutes(daily.TakenBreak),
		timeutil.FormatMinutes(daily.ExplicitBreak),
		timeutil.FormatMinutes(daily.Gaps),
	)
	if daily.RequiredBreak > 0 {
		fmt.Fprintf(w, "Required break: %s\n", timeutil.FormatMinutes(daily.RequiredBreak))
	}
	if daily.DeductedBreak > 0 {
		fmt.Fprintf(w, "Deducted: %s\n", timeutil.FormatMinutes(daily.DeductedBreak))
	}
	fmt.Fprintf(w, "Net:     %s\n", timeutil.FormatMinutes(daily.Net))
	compliant := "yes"
	if !daily.IsCompliant {
		compliant = "no"
	}
	fmt.Fprintf(w, "Compliant: %s (severity %s)\n", compliant, daily.Severity)
}
