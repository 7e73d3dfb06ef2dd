package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/playtest/internal/harness"
	"github.com/roach88/playtest/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - show one run instead of listing
	Against  string // optional - diff RunID against this run
	Failed   bool   // list failed runs only
}

// TraceResult is the payload for a single stored run.
type TraceResult struct {
	Run     *harness.Result `json:"run"`
	Pending []string        `json:"pending"`
}

// TraceDiff is the payload for a comparison of two stored runs.
type TraceDiff struct {
	Base      string `json:"base"`
	Other     string `json:"other"`
	Identical bool   `json:"identical"`
	Diff      string `json:"diff,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `Inspect the run history written by run --db and test --db.

Without --run, lists the recorded runs in insertion order. With --run,
prints that run's timeline and the steps still pending when it ended.
With --against, diffs two runs' traces and statuses: runs of the same
scenario must be identical apart from their IDs.

Exit codes:
  0 - Success (or the compared runs are identical)
  1 - The compared runs diverge
  2 - Command error (unreadable database, unknown run, etc.)

Examples:
  playtest trace --db ./runs.db
  playtest trace --db ./runs.db --failed
  playtest trace --db ./runs.db --run run-0001
  playtest trace --db ./runs.db --run run-0001 --against run-0004`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().StringVar(&opts.Against, "against", "", "run ID to diff --run against")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "list failed runs only")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Against != "" && opts.RunID == "" {
		return NewExitError(ExitCommandError, "--against requires --run")
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = out.Error(ErrCodeStore, "failed to open database", err.Error())
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case opts.Against != "":
		return traceCompare(ctx, st, out, opts.RunID, opts.Against)
	case opts.RunID != "":
		return traceRun(ctx, st, out, opts.RunID)
	default:
		return traceList(ctx, st, out, opts.Failed)
	}
}

func traceList(ctx context.Context, st *store.Store, out *OutputFormatter, failedOnly bool) error {
	var (
		runs []store.RunSummary
		err  error
	)
	if failedOnly {
		runs, err = st.FailedRuns(ctx)
	} else {
		runs, err = st.ListRuns(ctx)
	}
	if err != nil {
		_ = out.Error(ErrCodeStore, "failed to list runs", err.Error())
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if out.IsJSON() {
		return out.Success(runs)
	}

	w := out.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, run := range runs {
		mark := "✓"
		if !run.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %-16s %-24s %d events", mark, truncateID(run.ID), run.Scenario, run.Events)
		if run.Failures > 0 {
			fmt.Fprintf(w, ", %d failure(s)", run.Failures)
		}
		if run.Carryovers > 0 {
			fmt.Fprintf(w, ", %d carryover tick(s)", run.Carryovers)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func traceRun(ctx context.Context, st *store.Store, out *OutputFormatter, runID string) error {
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return runLookupError(out, err)
	}
	pending, err := st.PendingSteps(ctx, runID)
	if err != nil {
		return runLookupError(out, err)
	}

	if out.IsJSON() {
		return out.encode(CLIResponse{
			Status: "ok",
			Data:   TraceResult{Run: run, Pending: pending},
			RunID:  run.RunID,
		})
	}

	writeResultText(out.Writer, run)
	if len(pending) > 0 {
		fmt.Fprintf(out.Writer, "\nPending at end of run: %v\n", pending)
	}
	return nil
}

func traceCompare(ctx context.Context, st *store.Store, out *OutputFormatter, baseID, otherID string) error {
	diff, err := st.CompareRuns(ctx, baseID, otherID)
	if err != nil {
		return runLookupError(out, err)
	}

	result := TraceDiff{Base: baseID, Other: otherID, Identical: diff == "", Diff: diff}
	if result.Identical {
		if out.IsJSON() {
			return out.Success(result)
		}
		fmt.Fprintf(out.Writer, "✓ %s and %s are identical\n", baseID, otherID)
		return nil
	}

	message := fmt.Sprintf("runs %s and %s diverge", baseID, otherID)
	if out.IsJSON() {
		if err := out.Failure(ErrCodeDiverged, message, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}
	fmt.Fprintf(out.Writer, "✗ %s (-%s +%s):\n%s", message, baseID, otherID, diff)
	return NewExitError(ExitFailure, message)
}

func runLookupError(out *OutputFormatter, err error) error {
	if errors.Is(err, store.ErrRunNotFound) {
		_ = out.Error(ErrCodeStore, "run not found", err.Error())
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	_ = out.Error(ErrCodeStore, "failed to read run", err.Error())
	return WrapExitError(ExitCommandError, "failed to read run", err)
}

// sortedKeys returns the keys of m in sorted order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
