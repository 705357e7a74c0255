// Package errors provides PSQL storage error types.

package errors

import "fmt"

type StatementPSQLError struct {
	Err error
}

func (e *StatementPSQLError) Error() string {
	return fmt.Sprintf("could not compile statement: %s", e.Err)
}

type ExecutionPSQLError struct {
	Err error
}

func (e *ExecutionPSQLError) Error() string {
	return fmt.Sprintf("could not execute statement: %s", e.Err)
}

type ScanningPSQLError struct {
	Err error
}

func (e *ScanningPSQLError) Error() string {
	return fmt.Sprintf("could not scan rows: %s", e.Err)
}

type AlreadyExistsError struct {
	Err error
	ID  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("entry already exists for %s", e.ID)
}

type NotFoundError struct {
	Err error
	ID  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry was not found for %s", e.ID)
}

type ContextTimeoutExceededError struct {
	Err error
}

func (e *ContextTimeoutExceededError) Error() string {
	return fmt.Sprintf("context timeout exceeded: %s", e.Err)
}
