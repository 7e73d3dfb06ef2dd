package harness

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource []byte

// SchemaError reports a scenario file that does not satisfy the scenario
// schema. Issues holds one line per violation, with file positions.
type SchemaError struct {
	File   string
	Issues []string
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: schema violation: %s", e.File, e.Issues[0])
	}
	return fmt.Sprintf("%s: %d schema violations, first: %s", e.File, len(e.Issues), e.Issues[0])
}

// ValidateSchema checks scenario YAML against the embedded CUE schema.
// Types, allowed keys and value ranges are checked here; cross-field rules
// are left to validateScenario.
func ValidateSchema(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		issues := make([]string, 0, 1)
		for _, e := range errors.Errors(err) {
			issues = append(issues, strings.TrimSpace(errors.Details(e, nil)))
		}
		if len(issues) == 0 {
			issues = append(issues, err.Error())
		}
		return &SchemaError{File: filename, Issues: issues}
	}
	return nil
}
