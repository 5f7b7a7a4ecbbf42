// Package relation provides the runtime relation value: a diagnostic name,
// an ordered header of unique attribute names and a body of rows with set
// semantics.
package relation

import (
	"slices"
	"sort"

	"github.com/qimcis/raq/internal/qerr"
	"github.com/qimcis/raq/internal/value"
)

// Row is one tuple, aligned with its relation's Header.
type Row []value.Value

// Relation is a named set of rows sharing one header.
//
// Every row has exactly len(Header) values. After any operator completes
// there are no duplicate rows. Name is for diagnostics only.
type Relation struct {
	Name   string
	Header []string
	Rows   []Row
}

// New builds a relation, rejecting duplicate attribute names and rows whose
// arity does not match the header. Rows are used as given; call Dedup to
// enforce set semantics.
func New(name string, header []string, rows []Row) (*Relation, error) {
	seen := make(map[string]bool, len(header))
	for _, a := range header {
		if a == "" {
			return nil, qerr.New(qerr.KindDefinition, "relation %s has an empty attribute name", name)
		}
		if seen[a] {
			return nil, qerr.New(qerr.KindDefinition, "relation %s has duplicate attribute %s", name, a)
		}
		seen[a] = true
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, qerr.New(qerr.KindDefinition,
				"relation %s row %d has %d values, header has %d", name, i+1, len(row), len(header))
		}
	}
	return &Relation{Name: name, Header: header, Rows: rows}, nil
}

// Len returns the number of rows.
func (r *Relation) Len() int {
	return len(r.Rows)
}

// Index returns the position of attr in the header, or -1.
func (r *Relation) Index(attr string) int {
	return slices.Index(r.Header, attr)
}

// Has reports whether attr is in the header.
func (r *Relation) Has(attr string) bool {
	return r.Index(attr) >= 0
}

// Tuple returns row as an attribute-name-to-value map.
func (r *Relation) Tuple(row Row) map[string]value.Value {
	t := make(map[string]value.Value, len(r.Header))
	for i, a := range r.Header {
		t[a] = row[i]
	}
	return t
}

// Clone returns a deep copy of r. Values are immutable, so copying the row
// slices is enough.
func (r *Relation) Clone() *Relation {
	rows := make([]Row, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = slices.Clone(row)
	}
	return &Relation{Name: r.Name, Header: slices.Clone(r.Header), Rows: rows}
}

// Dedup removes duplicate rows in place, keeping the first occurrence of
// each and the original order.
func (r *Relation) Dedup() {
	set := NewRowSet(len(r.Rows))
	kept := r.Rows[:0]
	for _, row := range r.Rows {
		if set.Add(row) {
			kept = append(kept, row)
		}
	}
	clear(r.Rows[len(kept):])
	r.Rows = kept
}

// SameSchema reports whether r and other are union-compatible: their
// headers hold the same attribute names in any order.
func (r *Relation) SameSchema(other *Relation) bool {
	if len(r.Header) != len(other.Header) {
		return false
	}
	for _, a := range r.Header {
		if !other.Has(a) {
			return false
		}
	}
	return true
}

// ReorderLike returns a copy of r whose columns follow header. header must
// be a permutation of r.Header.
func (r *Relation) ReorderLike(header []string) (*Relation, error) {
	positions := make([]int, len(header))
	for i, a := range header {
		positions[i] = r.Index(a)
		if positions[i] < 0 {
			return nil, qerr.New(qerr.KindSchemaMismatch,
				"cannot reorder %v like %v", r.Header, header)
		}
	}
	if len(header) != len(r.Header) {
		return nil, qerr.New(qerr.KindSchemaMismatch, "cannot reorder %v like %v", r.Header, header)
	}

	rows := make([]Row, len(r.Rows))
	for i, row := range r.Rows {
		out := make(Row, len(positions))
		for j, p := range positions {
			out[j] = row[p]
		}
		rows[i] = out
	}
	return &Relation{Name: r.Name, Header: slices.Clone(header), Rows: rows}, nil
}

// EqualRows reports whether a and b have the same schema and the same set
// of rows, ignoring column and row order. Names are not compared.
func EqualRows(a, b *Relation) bool {
	if !a.SameSchema(b) {
		return false
	}
	b, err := b.ReorderLike(a.Header)
	if err != nil {
		return false
	}
	left, right := NewRowSet(len(a.Rows)), NewRowSet(len(b.Rows))
	for _, row := range a.Rows {
		left.Add(row)
	}
	for _, row := range b.Rows {
		right.Add(row)
	}
	if left.Len() != right.Len() {
		return false
	}
	for _, row := range a.Rows {
		if !right.Contains(row) {
			return false
		}
	}
	return true
}

// Environment maps relation names to relations. The evaluator treats it as
// read-only.
type Environment map[string]*Relation

// Names returns the relation names in sorted order.
func (e Environment) Names() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
