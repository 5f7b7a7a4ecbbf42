package loader

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/qimcis/raq/internal/qerr"
	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/value"
)

// ParseCUE reads a CUE definitions source:
//
//	relations: Employees: {
//		header: ["Name", "Age"]
//		rows: [["A", 30], ["B", 25]]
//	}
//	queries: ["σ Age > 26 (Employees)"]
//
// Cells must be concrete null, bool, int, float or string values.
func ParseCUE(filename string, src []byte) (*Source, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(src, cue.Filename(filename))
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	out := &Source{Relations: make(relation.Environment)}

	rels := root.LookupPath(cue.ParsePath("relations"))
	if rels.Exists() {
		iter, err := rels.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			rel, err := cueRelation(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			out.Relations[rel.Name] = rel
		}
	}

	queries := root.LookupPath(cue.ParsePath("queries"))
	if queries.Exists() {
		list, err := queries.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for list.Next() {
			q, err := list.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			out.Queries = append(out.Queries, q)
		}
	}

	return out, nil
}

func cueRelation(name string, v cue.Value) (*relation.Relation, error) {
	headerVal := v.LookupPath(cue.ParsePath("header"))
	if !headerVal.Exists() {
		return nil, &LoadError{Pos: v.Pos(), Err: qerr.New(qerr.KindDefinition, "relation %s has no header", name)}
	}
	var header []string
	if err := headerVal.Decode(&header); err != nil {
		return nil, formatCUEError(err)
	}

	var rows []relation.Row
	rowsVal := v.LookupPath(cue.ParsePath("rows"))
	if rowsVal.Exists() {
		rowIter, err := rowsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for rowIter.Next() {
			rowVal := rowIter.Value()
			cells, err := rowVal.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			var row relation.Row
			for cells.Next() {
				cell, err := cueCell(cells.Value())
				if err != nil {
					return nil, err
				}
				row = append(row, cell)
			}
			if len(row) != len(header) {
				return nil, &LoadError{Pos: rowVal.Pos(), Err: qerr.New(qerr.KindDefinition,
					"Row arity mismatch for relation %s: expected %d values, got %d",
					name, len(header), len(row))}
			}
			rows = append(rows, row)
		}
	}

	rel, err := relation.New(name, header, rows)
	if err != nil {
		return nil, &LoadError{Pos: v.Pos(), Err: err}
	}
	rel.Dedup()
	return rel, nil
}

func cueCell(v cue.Value) (value.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return value.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Int(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return value.Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return text(s), nil
	default:
		return nil, &LoadError{Pos: v.Pos(), Err: qerr.New(qerr.KindDefinition,
			"unsupported cell %v: want a concrete null, bool, number or string", v)}
	}
}
