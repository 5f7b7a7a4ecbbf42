package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/qimcis/raq/internal/algebra"
	"github.com/qimcis/raq/internal/predicate"
	"github.com/qimcis/raq/internal/qerr"
	"github.com/qimcis/raq/internal/relation"
	"github.com/qimcis/raq/internal/value"
)

// evaluator walks one expression tree. Every branch returns a freshly built
// relation and leaves its operands untouched.
type evaluator struct {
	env    relation.Environment
	logger *slog.Logger
}

func (ev *evaluator) eval(e algebra.Expr) (*relation.Relation, error) {
	var (
		res *relation.Relation
		err error
	)
	switch expr := e.(type) {
	case algebra.Ref:
		res, err = ev.evalRef(expr)
	case algebra.Select:
		res, err = ev.evalSelect(expr)
	case algebra.Project:
		res, err = ev.evalProject(expr)
	case algebra.Join:
		res, err = ev.evalJoin(expr)
	case algebra.SetOp:
		res, err = ev.evalSetOp(expr)
	default:
		return nil, fmt.Errorf("unsupported expression type %T", e)
	}
	if err != nil {
		return nil, err
	}

	ev.logger.Debug("operator evaluated",
		"relation", res.Name,
		"attrs", len(res.Header),
		"rows", res.Len())
	return res, nil
}

func (ev *evaluator) evalRef(expr algebra.Ref) (*relation.Relation, error) {
	rel, ok := ev.env[expr.Name]
	if !ok || rel == nil {
		return nil, qerr.New(qerr.KindUnknownRelation, "Unknown relation: %s", expr.Name)
	}
	out := rel.Clone()
	out.Name = expr.Name
	return out, nil
}

func (ev *evaluator) evalSelect(expr algebra.Select) (*relation.Relation, error) {
	child, err := ev.eval(expr.Child)
	if err != nil {
		return nil, err
	}

	out := &relation.Relation{
		Name:   "Select(" + child.Name + ")",
		Header: slices.Clone(child.Header),
	}
	for _, row := range child.Rows {
		keep, err := predicate.Eval(expr.Predicate, child.Tuple(row))
		if err != nil {
			return nil, err
		}
		if keep {
			out.Rows = append(out.Rows, row)
		}
	}
	out.Dedup()
	return out, nil
}

func (ev *evaluator) evalProject(expr algebra.Project) (*relation.Relation, error) {
	child, err := ev.eval(expr.Child)
	if err != nil {
		return nil, err
	}

	// A repeated attribute is kept once, at its first position.
	var header []string
	var positions []int
	for _, a := range expr.Attrs {
		p := child.Index(a)
		if p < 0 {
			return nil, qerr.New(qerr.KindUnknownAttribute,
				"Projection attribute '%s' not in schema %v", a, child.Header)
		}
		if slices.Contains(header, a) {
			continue
		}
		header = append(header, a)
		positions = append(positions, p)
	}

	out := &relation.Relation{
		Name:   "Project(" + child.Name + ")",
		Header: header,
		Rows:   make([]relation.Row, 0, len(child.Rows)),
	}
	for _, row := range child.Rows {
		projected := make(relation.Row, len(positions))
		for i, p := range positions {
			projected[i] = row[p]
		}
		out.Rows = append(out.Rows, projected)
	}
	out.Dedup()
	return out, nil
}

func (ev *evaluator) evalJoin(expr algebra.Join) (*relation.Relation, error) {
	left, err := ev.eval(expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(expr.Right)
	if err != nil {
		return nil, err
	}

	var out *relation.Relation
	if expr.Predicate == nil {
		out = naturalJoin(left, right)
	} else if out, err = thetaJoin(left, right, expr.Predicate); err != nil {
		return nil, err
	}
	out.Dedup()
	return out, nil
}

// naturalJoin equates every attribute the two headers share. The result
// header is left's followed by right's unshared attributes. Without shared
// attributes every pair matches.
func naturalJoin(left, right *relation.Relation) *relation.Relation {
	type pair struct{ l, r int }
	var common []pair
	var extra []int
	for ri, a := range right.Header {
		if li := left.Index(a); li >= 0 {
			common = append(common, pair{li, ri})
		} else {
			extra = append(extra, ri)
		}
	}

	header := slices.Clone(left.Header)
	for _, ri := range extra {
		header = append(header, right.Header[ri])
	}

	out := &relation.Relation{Name: joinName(left, right), Header: header}
	for _, lrow := range left.Rows {
	next:
		for _, rrow := range right.Rows {
			for _, c := range common {
				if !value.Equal(lrow[c.l], rrow[c.r]) {
					continue next
				}
			}
			merged := make(relation.Row, 0, len(header))
			merged = append(merged, lrow...)
			for _, ri := range extra {
				merged = append(merged, rrow[ri])
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}

// thetaJoin keeps the row pairs for which pred is truthy. Right attributes
// that collide with a left attribute get a "_right" suffix (repeated until
// the name is unique).
//
// The predicate context binds, for each left attribute a: a, left.a and
// <leftName>.a; for each right attribute a: right.a and <rightName>.a, plus
// a itself when no left attribute already bound it.
func thetaJoin(left, right *relation.Relation, pred predicate.Node) (*relation.Relation, error) {
	header := slices.Clone(left.Header)
	for _, a := range right.Header {
		name := a
		for slices.Contains(header, name) {
			name += "_right"
		}
		header = append(header, name)
	}

	out := &relation.Relation{Name: joinName(left, right), Header: header}
	size := 3 * len(header)
	for _, lrow := range left.Rows {
		for _, rrow := range right.Rows {
			ctx := make(predicate.Context, size)
			for i, a := range left.Header {
				ctx[a] = lrow[i]
				ctx["left."+a] = lrow[i]
				ctx[left.Name+"."+a] = lrow[i]
			}
			for i, a := range right.Header {
				if _, bound := ctx[a]; !bound {
					ctx[a] = rrow[i]
				}
				ctx["right."+a] = rrow[i]
				ctx[right.Name+"."+a] = rrow[i]
			}

			keep, err := predicate.Eval(pred, ctx)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
			merged := make(relation.Row, 0, len(header))
			merged = append(merged, lrow...)
			merged = append(merged, rrow...)
			out.Rows = append(out.Rows, merged)
		}
	}
	return out, nil
}

func joinName(left, right *relation.Relation) string {
	return "Join(" + left.Name + "," + right.Name + ")"
}

var setOpNames = map[algebra.SetKind]string{
	algebra.Union:     "Union",
	algebra.Intersect: "Intersect",
	algebra.Minus:     "Minus",
}

func (ev *evaluator) evalSetOp(expr algebra.SetOp) (*relation.Relation, error) {
	left, err := ev.eval(expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(expr.Right)
	if err != nil {
		return nil, err
	}

	title, ok := setOpNames[expr.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown set operation %q", expr.Kind)
	}
	if !left.SameSchema(right) {
		return nil, qerr.New(qerr.KindSchemaMismatch,
			"Set operation requires union-compatible schemas, got %v vs %v", left.Header, right.Header)
	}
	if !slices.Equal(left.Header, right.Header) {
		if right, err = right.ReorderLike(left.Header); err != nil {
			return nil, err
		}
	}

	out := &relation.Relation{
		Name:   title + "(" + left.Name + "," + right.Name + ")",
		Header: slices.Clone(left.Header),
	}

	switch expr.Kind {
	case algebra.Union:
		out.Rows = make([]relation.Row, 0, len(left.Rows)+len(right.Rows))
		out.Rows = append(out.Rows, left.Rows...)
		out.Rows = append(out.Rows, right.Rows...)
	case algebra.Intersect, algebra.Minus:
		inRight := relation.NewRowSet(len(right.Rows))
		for _, row := range right.Rows {
			inRight.Add(row)
		}
		want := expr.Kind == algebra.Intersect
		for _, row := range left.Rows {
			if inRight.Contains(row) == want {
				out.Rows = append(out.Rows, row)
			}
		}
	}
	out.Dedup()
	return out, nil
}
