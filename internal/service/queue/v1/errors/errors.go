// Package errors provides custom error types for the queue manager.

package errors

import (
	"fmt"
)

type (
	QueueFoundNilArgument struct {
		Msg string
	}
	EmptyUserIDError struct {
	}
	DuplicateUserError struct {
		UserID string
	}
	NotInQueueError struct {
		UserID string
	}
	NotActiveError struct {
		UserID string
	}
	InvalidConfigError struct {
		SlotDurationSeconds int
	}
)

func (e *QueueFoundNilArgument) Error() string {
	return e.Msg
}

func (e *EmptyUserIDError) Error() string {
	return "empty user identifier is not allowed"
}

func (e *DuplicateUserError) Error() string {
	return fmt.Sprintf("%s: already in queue", e.UserID)
}

func (e *NotInQueueError) Error() string {
	return fmt.Sprintf("%s: not in queue", e.UserID)
}

func (e *NotActiveError) Error() string {
	return fmt.Sprintf("%s: does not have control", e.UserID)
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%d: slot duration out of allowed bounds [10, 3600]", e.SlotDurationSeconds)
}
