package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/playtest/internal/harness"
)

// ErrRunNotFound is returned by ReadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID       string `json:"id"`
	Seq      int64  `json:"seq"`
	Scenario string `json:"scenario"`
	Pass     bool   `json:"pass"`
	Events   int    `json:"events"`
	Failures int    `json:"failures"`

	// Carryovers counts the ticks whose due work outlived the settle rounds.
	Carryovers int `json:"carryovers"`
}

// ReadRun retrieves a run with its full trace, ordered by seq.
// Returns an error wrapping ErrRunNotFound if the run does not exist.
func (s *Store) ReadRun(ctx context.Context, runID string) (*harness.Result, error) {
	var (
		scenario     string
		pass         int
		statusesJSON string
		reportJSON   string
		errorsJSON   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT scenario, pass, statuses, report, errors
		FROM runs
		WHERE id = ?
	`, runID).Scan(&scenario, &pass, &statusesJSON, &reportJSON, &errorsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", runID, err)
	}

	result := harness.NewResult(scenario, runID)
	result.Pass = pass == 1

	if result.Statuses, err = unmarshalStatuses(statusesJSON); err != nil {
		return nil, fmt.Errorf("read run %s: %w", runID, err)
	}
	if result.Report, err = unmarshalReport(reportJSON); err != nil {
		return nil, fmt.Errorf("read run %s: %w", runID, err)
	}
	if result.Errors, err = unmarshalErrors(errorsJSON); err != nil {
		return nil, fmt.Errorf("read run %s: %w", runID, err)
	}

	if result.Trace, err = s.readEvents(ctx, runID); err != nil {
		return nil, fmt.Errorf("read run %s: %w", runID, err)
	}
	return result, nil
}

// readEvents returns a run's trace with deterministic ordering.
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) readEvents(ctx context.Context, runID string) ([]harness.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, type, label, tick, after_label, at, value, error
		FROM run_events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []harness.TraceEvent{}
	for rows.Next() {
		var (
			event harness.TraceEvent
			tick  sql.NullInt64
		)
		if err := rows.Scan(&event.Seq, &event.Type, &event.Label, &tick, &event.After, &event.At, &event.Value, &event.Error); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if tick.Valid {
			t := int(tick.Int64)
			event.Tick = &t
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ListRuns returns all runs in insertion order.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	return s.listRuns(ctx, "")
}

// ListScenarioRuns returns the runs of one scenario in insertion order.
func (s *Store) ListScenarioRuns(ctx context.Context, scenario string) ([]RunSummary, error) {
	return s.listRuns(ctx, scenario)
}

func (s *Store) listRuns(ctx context.Context, scenario string) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.seq, r.scenario, r.pass, r.errors, r.carryovers,
			(SELECT COUNT(*) FROM run_events e WHERE e.run_id = r.id)
		FROM runs r
		WHERE ? = '' OR r.scenario = ?
		ORDER BY r.seq ASC, r.id COLLATE BINARY ASC
	`, scenario, scenario)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			run        RunSummary
			pass       int
			errorsJSON string
		)
		if err := rows.Scan(&run.ID, &run.Seq, &run.Scenario, &pass, &errorsJSON, &run.Carryovers, &run.Events); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Pass = pass == 1

		failures, err := unmarshalErrors(errorsJSON)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		run.Failures = len(failures)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
