package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/playtest/internal/harness"
)

// FileValidation is the validation outcome for one scenario file.
type FileValidation struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate scenarios without running them",
		Long: `Check scenario files against the scenario schema and its semantic rules.

Each path may be a scenario file or a directory, which is searched for
.yaml and .yml files. Nothing is executed.

Exit codes:
  0 - All scenarios are valid
  1 - One or more scenarios are invalid
  2 - Command error (missing path, etc.)

Examples:
  playtest validate ./testdata/scenarios
  playtest validate one.yaml two.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var files []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			_ = out.Error(ErrCodeLoad, fmt.Sprintf("path not found: %s", path), nil)
			return WrapExitError(ExitCommandError, "path not found", err)
		}
		found, err := harness.FindScenarios(path)
		if err != nil {
			_ = out.Error(ErrCodeLoad, "failed to find scenarios", err.Error())
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
		out.VerboseLog("Found %d scenario file(s) in %s", len(found), path)
		files = append(files, found...)
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(files))}
	for _, file := range files {
		v := validateFile(file)
		if !v.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, v)
	}

	if out.IsJSON() {
		if result.Valid {
			return out.Success(result)
		}
		message := fmt.Sprintf("%d invalid scenario(s)", countInvalid(result))
		if err := out.Failure(ErrCodeLoad, message, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}

	w := cmd.OutOrStdout()
	if len(result.Files) == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}
	for _, v := range result.Files {
		if v.Valid {
			fmt.Fprintf(w, "✓ %s (%s)\n", v.Path, v.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", v.Path)
		for _, e := range v.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid scenario(s)", countInvalid(result)))
	}
	return nil
}

// validateFile loads one scenario and reports every schema issue, or the
// single semantic error, it carries.
func validateFile(path string) FileValidation {
	scenario, err := harness.LoadScenario(path)
	if err == nil {
		return FileValidation{Path: path, Name: scenario.Name, Valid: true}
	}

	var schemaErr *harness.SchemaError
	if errors.As(err, &schemaErr) {
		return FileValidation{Path: path, Errors: schemaErr.Issues}
	}
	return FileValidation{Path: path, Errors: []string{err.Error()}}
}

func countInvalid(result ValidationResult) int {
	n := 0
	for _, v := range result.Files {
		if !v.Valid {
			n++
		}
	}
	return n
}
