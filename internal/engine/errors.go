package engine

import (
	"errors"
	"fmt"
)

// QueryError represents a statement the engine could not run: malformed SQL,
// a parameter/placeholder count mismatch, or a constraint violation.
//
// Query errors are client-visible request failures, as opposed to
// persistence errors which the store manager absorbs.
type QueryError struct {
	// Stmt is the offending SQL text.
	Stmt string

	// Err is the underlying driver error.
	Err error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v (stmt=%q)", e.Err, e.Stmt)
}

// Unwrap exposes the driver error for errors.Is/As.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError returns true if the error is a statement-level failure.
// Uses errors.As to handle wrapped errors.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}
