// Package testutil provides fixtures shared by package tests: sample
// relations and environments, and deterministic query IDs.
package testutil

import (
	"fmt"

	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/value"
)

// Row builds a relation row from Go values (nil, bool, ints, floats,
// strings). Panics on an unsupported type.
func Row(vals ...any) relation.Row {
	row := make(relation.Row, len(vals))
	for i, v := range vals {
		val, err := value.FromAny(v)
		if err != nil {
			panic(fmt.Sprintf("testutil.Row: %v", err))
		}
		row[i] = val
	}
	return row
}

// Relation builds a relation from a header and rows of Go values. Panics on
// an invalid header or row arity.
func Relation(name string, header []string, rows ...[]any) *relation.Relation {
	body := make([]relation.Row, len(rows))
	for i, r := range rows {
		body[i] = Row(r...)
	}
	rel, err := relation.New(name, header, body)
	if err != nil {
		panic(fmt.Sprintf("testutil.Relation: %v", err))
	}
	return rel
}

// Employees returns Employees(Name, Age) = {("A", 30), ("B", 25)}.
func Employees() *relation.Relation {
	return Relation("Employees", []string{"Name", "Age"},
		[]any{"A", 30},
		[]any{"B", 25},
	)
}

// Departments returns Departments(Name, DeptId) = {("A", 1), ("B", 2)}.
func Departments() *relation.Relation {
	return Relation("Departments", []string{"Name", "DeptId"},
		[]any{"A", 1},
		[]any{"B", 2},
	)
}

// Environment returns an environment holding rels under their names.
func Environment(rels ...*relation.Relation) relation.Environment {
	env := make(relation.Environment, len(rels))
	for _, r := range rels {
		env[r.Name] = r
	}
	return env
}

// CompanyEnvironment returns Employees and Departments.
func CompanyEnvironment() relation.Environment {
	return Environment(Employees(), Departments())
}
