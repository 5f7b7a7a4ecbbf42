// Package engine implements the relational-algebra evaluator.
//
// The evaluator is a recursive walk over an algebra.Expr. Each operator
// evaluates its operands, builds a brand-new relation and deduplicates it,
// so every intermediate and final result has set semantics.
//
// OPERATORS:
//
//	Ref      deep copy of the named environment relation
//	Select   rows whose predicate is truthy; context = the row
//	Project  requested attributes in requested order
//	Join     natural (shared attributes equal) or theta (predicate)
//	SetOp    union / intersect / minus over union-compatible relations
//
// Result names ("Select(Employees)", "Join(A,B)") are diagnostic only and
// equal algebra.DisplayName of the evaluated expression.
//
// CRITICAL PATTERNS:
//
// Read-only environment:
// The evaluator never mutates the environment or an operand relation. The
// engine's environment may be swapped with SetEnvironment between queries,
// never during one.
//
// One equality law:
// Deduplication, natural-join matching, intersect/minus membership and the
// predicate == operator all use value.Equal.
//
// Errors:
// Every failure is a *qerr.Error (UNKNOWN_RELATION, UNKNOWN_ATTRIBUTE,
// ATTRIBUTE_NOT_FOUND, SCHEMA_MISMATCH, UNORDERED_COMPARISON) and ends the
// evaluation; there are no partial results.
package engine
