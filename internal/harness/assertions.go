package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/value"
)

// AssertionError describes one unmet expectation.
type AssertionError struct {
	Type     string // Expectation field that failed: header, rows, contains, count, empty
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// CheckExpectation validates rel against e and returns one message per
// failed check. Expected rows are given in rel's header order.
func CheckExpectation(rel *relation.Relation, e *Expectation) []string {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if e.Header != nil {
		add(assertHeader(rel, e.Header))
	}
	if e.Rows != nil {
		add(assertRows(rel, e.Rows))
	}
	if e.Contains != nil {
		add(assertContains(rel, e.Contains))
	}
	if e.Count != nil && rel.Len() != *e.Count {
		add(&AssertionError{Type: "count", Expected: fmt.Sprint(*e.Count), Actual: fmt.Sprint(rel.Len())})
	}
	if e.Empty && rel.Len() != 0 {
		add(&AssertionError{Type: "empty", Expected: "no rows", Actual: fmt.Sprintf("%d rows", rel.Len())})
	}
	return errs
}

func assertHeader(rel *relation.Relation, want []string) error {
	if slices.Equal(rel.Header, want) {
		return nil
	}
	return &AssertionError{
		Type:     "header",
		Expected: "[" + strings.Join(want, ", ") + "]",
		Actual:   "[" + strings.Join(rel.Header, ", ") + "]",
	}
}

func assertRows(rel *relation.Relation, want [][]any) error {
	expected, err := expectedRelation(rel, want)
	if err != nil {
		return err
	}
	if relation.EqualRows(rel, expected) {
		return nil
	}
	return &AssertionError{
		Type:     "rows",
		Expected: strings.Join(renderRows(expected), " "),
		Actual:   strings.Join(renderRows(rel), " "),
	}
}

func assertContains(rel *relation.Relation, want [][]any) error {
	expected, err := expectedRelation(rel, want)
	if err != nil {
		return err
	}
	have := relation.NewRowSet(rel.Len())
	for _, row := range rel.Rows {
		have.Add(row)
	}
	var missing []string
	for _, row := range expected.Rows {
		if !have.Contains(row) {
			missing = append(missing, renderRow(row))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     "contains",
		Expected: strings.Join(missing, " "),
		Actual:   "missing from " + strings.Join(renderRows(rel), " "),
	}
}

// expectedRelation converts YAML rows into a deduplicated relation with
// rel's header.
func expectedRelation(rel *relation.Relation, rows [][]any) (*relation.Relation, error) {
	body := make([]relation.Row, len(rows))
	for i, raw := range rows {
		if len(raw) != len(rel.Header) {
			return nil, fmt.Errorf("expected row %d has %d values, header has %d", i, len(raw), len(rel.Header))
		}
		row := make(relation.Row, len(raw))
		for j, r := range raw {
			v, err := value.FromAny(r)
			if err != nil {
				return nil, fmt.Errorf("expected row %d: %w", i, err)
			}
			row[j] = v
		}
		body[i] = row
	}
	expected, err := relation.New(rel.Name, rel.Header, body)
	if err != nil {
		return nil, err
	}
	expected.Dedup()
	return expected, nil
}
