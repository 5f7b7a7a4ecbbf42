package loader

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/qimcis/raq/internal/qerr"
)

// LoadError locates a failure inside a definitions source. Err is usually a
// *qerr.Error of kind DEFINITION_ERROR.
type LoadError struct {
	File string
	Line int
	Pos  token.Pos // CUE position if available
	Err  error
}

func (e *LoadError) Error() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %v", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Err)
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	case e.File != "":
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// withFile sets the file name on a LoadError, or wraps err in one.
func withFile(err error, file string) error {
	if le, ok := err.(*LoadError); ok {
		if le.File == "" {
			le.File = file
		}
		return le
	}
	return &LoadError{File: file, Err: err}
}

// formatCUEError converts a CUE error to a DEFINITION_ERROR, keeping the
// position of the first error when CUE reports one.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return qerr.New(qerr.KindDefinition, "%v", err)
	}

	firstErr := errs[0]
	defErr := qerr.New(qerr.KindDefinition, "%v", firstErr)
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		return &LoadError{Pos: positions[0], Err: defErr}
	}
	return defErr
}
