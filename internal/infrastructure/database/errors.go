package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

const uniqueViolation = "23505"

// QueryError is returned for every failed statement.
type QueryError struct {
	Op        string
	Statement string
	// Code is the SQLSTATE reported by the server, if any.
	Code string
	Err  error
}

func (e *QueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (sqlstate %s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is makes unique-key violations match ErrConflict.
func (e *QueryError) Is(target error) bool {
	return target == ErrConflict && e.Code == uniqueViolation
}

func wrap(op, statement string, err error) error {
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}

	out := &QueryError{Op: op, Statement: strings.TrimSpace(statement), Err: err}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		out.Code = string(pqErr.Code)
	}
	return out
}
