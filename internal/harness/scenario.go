package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/qimcis/raq/internal/qerr"
)

// Scenario defines a query test scenario: a set of relations and the
// queries to run against them with their expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definitions holds inline relation definitions in the text format.
	Definitions string `yaml:"definitions,omitempty"`

	// Files lists definition files (any format the loader reads).
	// Relative paths are resolved against the scenario file's directory.
	// Inline definitions are applied after the files.
	Files []string `yaml:"files,omitempty"`

	// QueryID is an optional fixed query ID for deterministic snapshots.
	// If empty, defaults to "test-query-default".
	QueryID string `yaml:"query_id,omitempty"`

	// SQL also runs every successful case through the SQLite backend and
	// fails the case when the two results differ.
	SQL bool `yaml:"sql,omitempty"`

	// Cases are the queries to run, in order.
	Cases []Case `yaml:"cases"`
}

// Case is one query with its expected outcome: either Expect or Error.
type Case struct {
	// Query is the relational-algebra expression to evaluate.
	Query string `yaml:"query"`

	// Expect validates a successful result.
	Expect *Expectation `yaml:"expect,omitempty"`

	// Error is the expected error kind, e.g. "UNKNOWN_ATTRIBUTE".
	Error string `yaml:"error,omitempty"`
}

// Expectation validates a result relation. Every field is optional.
type Expectation struct {
	// Header is the exact expected header, in order.
	Header []string `yaml:"header,omitempty"`

	// Rows is the exact expected row set, in header order. Row order is
	// ignored.
	Rows [][]any `yaml:"rows,omitempty"`

	// Contains lists rows that must be present (subset match).
	Contains [][]any `yaml:"contains,omitempty"`

	// Count is the expected number of rows.
	Count *int `yaml:"count,omitempty"`

	// Empty requires a result without rows.
	Empty bool `yaml:"empty,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Definition file paths are resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, f := range scenario.Files {
		if !filepath.IsAbs(f) {
			scenario.Files[i] = filepath.Join(base, f)
		}
	}
	for _, f := range scenario.Files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: definitions file not found: %s", f)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML. File paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "case:" vs "cases:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// knownKinds are the error kinds a case may expect.
var knownKinds = map[qerr.Kind]bool{
	qerr.KindTokenize:            true,
	qerr.KindParse:               true,
	qerr.KindUnknownRelation:     true,
	qerr.KindUnknownAttribute:    true,
	qerr.KindAttributeNotFound:   true,
	qerr.KindSchemaMismatch:      true,
	qerr.KindUnorderedComparison: true,
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Definitions == "" && len(s.Files) == 0 {
		return fmt.Errorf("definitions or files is required")
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i, c := range s.Cases {
		if err := validateCase(i, &c); err != nil {
			return err
		}
	}

	return nil
}

func validateCase(index int, c *Case) error {
	if c.Query == "" {
		return fmt.Errorf("cases[%d]: query is required", index)
	}
	if c.Expect != nil && c.Error != "" {
		return fmt.Errorf("cases[%d]: expect and error are mutually exclusive", index)
	}
	if c.Error != "" && !knownKinds[qerr.Kind(c.Error)] {
		return fmt.Errorf("cases[%d]: unknown error kind %q", index, c.Error)
	}
	if e := c.Expect; e != nil {
		if e.Count != nil && *e.Count < 0 {
			return fmt.Errorf("cases[%d]: count must be non-negative", index)
		}
		if e.Empty && (len(e.Rows) > 0 || len(e.Contains) > 0) {
			return fmt.Errorf("cases[%d]: empty contradicts rows/contains", index)
		}
	}
	return nil
}
