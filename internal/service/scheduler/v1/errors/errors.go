// Package errors provides scheduler error types.

package errors

import "fmt"

type SchedulerFoundNilArgument struct {
	Msg string
}

func (e *SchedulerFoundNilArgument) Error() string {
	return fmt.Sprintf("nil argument was found: %s", e.Msg)
}

type InvalidCronError struct {
	Expression string
	Err        error
}

func (e *InvalidCronError) Error() string {
	return fmt.Sprintf("invalid cron expression %q: %s", e.Expression, e.Err)
}

type InvalidJobError struct {
	Msg string
}

func (e *InvalidJobError) Error() string {
	return fmt.Sprintf("invalid job: %s", e.Msg)
}
