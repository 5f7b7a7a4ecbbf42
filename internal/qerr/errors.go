// Package qerr defines the structured error returned by every stage of the
// query pipeline: tokenizing, parsing, evaluation and definition loading.
//
// Each failure is terminal for the call that raised it and carries a Kind so
// callers (the CLI, the REPL, the harness) can report it and move on to the
// next independent query.
package qerr

import (
	"errors"
	"fmt"
)

// Kind categorizes query errors.
type Kind string

const (
	// KindTokenize indicates an unrecognized character in the query text.
	KindTokenize Kind = "TOKENIZE_ERROR"

	// KindParse indicates an unexpected or missing token, unbalanced
	// parentheses or brackets, a conflicting join predicate, an empty
	// attribute list or trailing input.
	KindParse Kind = "PARSE_ERROR"

	// KindUnknownRelation indicates a reference to a relation that is not
	// in the environment.
	KindUnknownRelation Kind = "UNKNOWN_RELATION"

	// KindUnknownAttribute indicates a projection onto an attribute that is
	// not in the child header.
	KindUnknownAttribute Kind = "UNKNOWN_ATTRIBUTE"

	// KindAttributeNotFound indicates a predicate referencing a name that is
	// not bound in the evaluation context.
	KindAttributeNotFound Kind = "ATTRIBUTE_NOT_FOUND"

	// KindSchemaMismatch indicates a set operation over relations that are
	// not union-compatible.
	KindSchemaMismatch Kind = "SCHEMA_MISMATCH"

	// KindUnorderedComparison indicates an ordering operator applied to
	// values of incomparable kinds.
	KindUnorderedComparison Kind = "UNORDERED_COMPARISON"

	// KindDefinition indicates a malformed relation definition source.
	KindDefinition Kind = "DEFINITION_ERROR"

	// KindUnsupported indicates a construct a backend cannot express.
	KindUnsupported Kind = "UNSUPPORTED"
)

// Error is a query failure with its kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err (or anything it wraps) is an Error of the given kind.
func Is(err error, kind Kind) bool {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" if err is not an Error.
func KindOf(err error) Kind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return ""
}
