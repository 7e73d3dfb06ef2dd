package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/playtest/internal/canon"
	"github.com/roach88/playtest/internal/timeline"
)

// marshalStatuses converts final step statuses to canonical JSON TEXT.
func marshalStatuses(statuses map[string]string) (string, error) {
	if statuses == nil {
		statuses = map[string]string{}
	}
	data, err := canon.Marshal(statuses)
	if err != nil {
		return "", fmt.Errorf("marshal statuses: %w", err)
	}
	return string(data), nil
}

// marshalReport converts the driver report to canonical JSON TEXT.
func marshalReport(report timeline.Report) (string, error) {
	data, err := canon.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return string(data), nil
}

// marshalErrors converts assertion failures to canonical JSON TEXT.
// A nil slice is stored as [].
func marshalErrors(errs []string) (string, error) {
	if errs == nil {
		errs = []string{}
	}
	data, err := canon.Marshal(errs)
	if err != nil {
		return "", fmt.Errorf("marshal errors: %w", err)
	}
	return string(data), nil
}

func unmarshalStatuses(data string) (map[string]string, error) {
	statuses := map[string]string{}
	if err := json.Unmarshal([]byte(data), &statuses); err != nil {
		return nil, fmt.Errorf("unmarshal statuses: %w", err)
	}
	return statuses, nil
}

func unmarshalReport(data string) (timeline.Report, error) {
	var report timeline.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return timeline.Report{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return report, nil
}

// unmarshalErrors parses stored assertion failures. An empty list comes
// back as nil, matching a passing harness.Result.
func unmarshalErrors(data string) ([]string, error) {
	var errs []string
	if err := json.Unmarshal([]byte(data), &errs); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return errs, nil
}
