// Package algebra defines the relational-algebra expression tree produced
// by the parser and consumed by the evaluator and the SQL compiler.
package algebra

import "github.com/qimcis/raq/internal/predicate"

// Expr represents a relational-algebra expression.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the evaluator and backend compilers.
//
// Expression types:
//   - Ref: a named relation from the environment
//   - Select: keep rows satisfying a predicate
//   - Project: keep a list of attributes
//   - Join: natural join, or theta join when a predicate is present
//   - SetOp: union, intersect or minus of two union-compatible relations
//
// Every expression evaluates to a relation with set semantics. Trees are
// immutable once built and each node owns its children.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Ref references a relation in the environment by name.
//
// Symbolic and functional syntax are the same: a bare identifier.
//
//	Employees
type Ref struct {
	Name string
}

func (Ref) exprNode() {}

// Select keeps the rows of Child for which Predicate is truthy.
//
//	σ Age > 26 (Employees)
//	select Age > 26 (Employees)
//
// The predicate context for a row is the row itself: each attribute name
// bound to its value.
type Select struct {
	Predicate predicate.Node
	Child     Expr
}

func (Select) exprNode() {}

// Project keeps the listed attributes of Child, in the listed order, and
// collapses duplicate rows.
//
//	π Name, Age (Employees)
//	project Name (Employees)
type Project struct {
	Attrs []string
	Child Expr
}

func (Project) exprNode() {}

// Join combines Left and Right.
//
// With a nil Predicate it is a natural join on the attributes the two
// headers share (a cross product when they share none):
//
//	Employees ⋈ Departments
//	join(Employees, Departments)
//
// With a Predicate it is a theta join. Right attributes that collide with a
// left attribute are renamed "<name>_right" in the result:
//
//	Employees ⋈[Age > DeptId] Departments
//	join[Employees.Age > Departments.DeptId](Employees, Departments)
//	join(Employees, Departments, right.DeptId == 1)
type Join struct {
	Left      Expr
	Right     Expr
	Predicate predicate.Node // nil = natural join
}

func (Join) exprNode() {}

// SetKind identifies a set operation.
type SetKind string

const (
	Union     SetKind = "union"
	Intersect SetKind = "intersect"
	Minus     SetKind = "minus"
)

// SetOp is a set operation over two union-compatible relations: their
// headers hold the same attribute names, in any order.
//
//	A ∪ B    union(A, B)
//	A ∩ B    intersect(A, B)
//	A − B    minus(A, B)
type SetOp struct {
	Kind  SetKind
	Left  Expr
	Right Expr
}

func (SetOp) exprNode() {}
