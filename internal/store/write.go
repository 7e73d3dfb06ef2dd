package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/playtest/internal/harness"
)

// WriteRun inserts a run and its trace in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency - writing a run ID that
// already exists leaves the stored run untouched.
//
// Statuses, report and errors are serialized to canonical JSON so the same
// result always produces the same row.
func (s *Store) WriteRun(ctx context.Context, result *harness.Result) error {
	if result == nil {
		return fmt.Errorf("write run: nil result")
	}
	if result.RunID == "" {
		return fmt.Errorf("write run: run ID is required")
	}

	statusesJSON, err := marshalStatuses(result.Statuses)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	reportJSON, err := marshalReport(result.Report)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	errorsJSON, err := marshalErrors(result.Errors)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, scenario, pass, statuses, report, errors, carryovers)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		result.RunID,
		result.Scenario,
		boolToInt(result.Pass),
		statusesJSON,
		reportJSON,
		errorsJSON,
		len(result.Report.Carryovers),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if inserted == 0 {
		return nil
	}

	for _, event := range result.Trace {
		if err := writeEvent(ctx, tx, result.RunID, event); err != nil {
			return fmt.Errorf("write run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

func writeEvent(ctx context.Context, tx *sql.Tx, runID string, event harness.TraceEvent) error {
	var tick sql.NullInt64
	if event.Tick != nil {
		tick = sql.NullInt64{Int64: int64(*event.Tick), Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO run_events (run_id, seq, type, label, tick, after_label, at, value, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		runID,
		event.Seq,
		event.Type,
		event.Label,
		tick,
		event.After,
		event.At,
		event.Value,
		event.Error,
	)
	if err != nil {
		return fmt.Errorf("event %d: %w", event.Seq, err)
	}
	return nil
}

// DeleteRun removes a run and its events. Deleting an unknown run is not an
// error.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
