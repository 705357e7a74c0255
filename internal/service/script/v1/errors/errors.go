// Package errors provides script interpreter error types.

package errors

import "fmt"

type ScriptFoundNilArgument struct {
	Msg string
}

func (e *ScriptFoundNilArgument) Error() string {
	return fmt.Sprintf("nil argument was found: %s", e.Msg)
}

type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type AlreadyRunningError struct{}

func (e *AlreadyRunningError) Error() string {
	return "a script is already running"
}

type ExecutionError struct {
	Line int
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("line %d: command failed: %s", e.Line, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
