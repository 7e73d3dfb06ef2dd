package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/playtest/internal/harness"
)

// FailedRuns returns the runs whose assertions failed, in insertion order.
func (s *Store) FailedRuns(ctx context.Context) ([]RunSummary, error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	failed := []RunSummary{}
	for _, run := range runs {
		if !run.Pass {
			failed = append(failed, run)
		}
	}
	return failed, nil
}

// PendingSteps returns the labels of steps still pending when the run
// ended, sorted. These are the steps whose work outlived the duration.
func (s *Store) PendingSteps(ctx context.Context, runID string) ([]string, error) {
	result, err := s.ReadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	pending := []string{}
	for label, status := range result.Statuses {
		if status == "pending" {
			pending = append(pending, label)
		}
	}
	sort.Strings(pending)
	return pending, nil
}

// CompareRuns diffs the traces and statuses of two stored runs. An empty
// string means the runs are identical apart from their IDs, which is what
// repeated runs of one scenario must produce.
func (s *Store) CompareRuns(ctx context.Context, baseID, otherID string) (string, error) {
	base, err := s.ReadRun(ctx, baseID)
	if err != nil {
		return "", fmt.Errorf("compare runs: %w", err)
	}
	other, err := s.ReadRun(ctx, otherID)
	if err != nil {
		return "", fmt.Errorf("compare runs: %w", err)
	}
	return cmp.Diff(base, other, cmpopts.IgnoreFields(harness.Result{}, "RunID")), nil
}
