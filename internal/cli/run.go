package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/playtest/internal/harness"
	"github.com/roach88/playtest/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// Harness options appended to the defaults (for testing).
	HarnessOptions []harness.Option
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and print its trace",
		Long: `Run a single scenario on a fresh virtual clock.

Prints every scheduled and settled step with its virtual time, the final
status of each step and any failed assertions. With --db the run is also
recorded in the run history.

Exit codes:
  0 - All assertions held
  1 - One or more assertions failed
  2 - Command error (unreadable scenario, database error, etc.)

Examples:
  playtest run testdata/scenarios/init_then_segment.yaml
  playtest run scenario.yaml --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

func runScenarioFile(ctx context.Context, opts *RunOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.Logger()

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = out.Error(ErrCodeLoad, "failed to load scenario", err.Error())
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	harnessOpts := append([]harness.Option{
		harness.WithLogger(logger),
		harness.WithContext(ctx),
	}, opts.HarnessOptions...)

	result, err := harness.Run(scenario, harnessOpts...)
	if err != nil {
		_ = out.Error(ErrCodeRun, "scenario did not complete", err.Error())
		return WrapExitError(ExitCommandError, "scenario did not complete", err)
	}
	logger.Info("scenario finished", "scenario", scenario.Name, "run_id", result.RunID, "pass", result.Pass)

	if opts.Database != "" {
		if err := recordRun(ctx, opts.Database, result); err != nil {
			_ = out.Error(ErrCodeStore, "failed to record run", err.Error())
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		out.VerboseLog("recorded run %s in %s", result.RunID, opts.Database)
	}

	if out.IsJSON() {
		if result.Pass {
			return out.encode(CLIResponse{Status: "ok", Data: result, RunID: result.RunID})
		}
		if err := out.encode(CLIResponse{
			Status: "error",
			Data:   result,
			RunID:  result.RunID,
			Error: &CLIError{
				Code:    ErrCodeFailed,
				Message: fmt.Sprintf("%d assertion(s) failed", len(result.Errors)),
			},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d assertion(s) failed", len(result.Errors)))
	}

	writeResultText(cmd.OutOrStdout(), result)
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d assertion(s) failed", len(result.Errors)))
	}
	return nil
}

// recordRun appends result to the run history at path.
func recordRun(ctx context.Context, path string, result *harness.Result) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.WriteRun(ctx, result)
}

// writeResultText prints a run as a human-readable timeline.
func writeResultText(w io.Writer, result *harness.Result) {
	fmt.Fprintf(w, "Scenario: %s\n", result.Scenario)
	fmt.Fprintf(w, "Run: %s\n", result.RunID)
	fmt.Fprintln(w)
	writeTimeline(w, result.Trace)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Statuses:")
	for _, label := range sortedKeys(result.Statuses) {
		fmt.Fprintf(w, "  %-16s %s\n", label, result.Statuses[label])
	}

	if len(result.Report.Carryovers) > 0 {
		fmt.Fprintf(w, "\nCarryover ticks: %v\n", result.Report.Carryovers)
	}

	fmt.Fprintln(w)
	if result.Pass {
		fmt.Fprintln(w, "✓ All assertions passed")
		return
	}
	fmt.Fprintf(w, "✗ %d assertion(s) failed\n", len(result.Errors))
	for _, e := range result.Errors {
		for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// writeTimeline prints one line per trace event.
func writeTimeline(w io.Writer, trace []harness.TraceEvent) {
	if len(trace) == 0 {
		fmt.Fprintln(w, "(no events)")
		return
	}
	for _, e := range trace {
		fmt.Fprintf(w, "[%d] %6s  %-9s %s", e.Seq, e.At, e.Type, e.Label)
		switch {
		case e.Tick != nil:
			fmt.Fprintf(w, " (tick %d)", *e.Tick)
		case e.After != "":
			fmt.Fprintf(w, " (after %s)", e.After)
		}
		switch {
		case e.Error != "":
			fmt.Fprintf(w, ": %s", e.Error)
		case e.Value != "":
			fmt.Fprintf(w, " = %s", e.Value)
		}
		fmt.Fprintln(w)
	}
}
