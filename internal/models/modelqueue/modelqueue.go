// Package modelqueue provides types for queue entries and queue state transitions.

package modelqueue

import "time"

// Entry is one user's waiting-or-active reservation for train control.
type Entry struct {
	UserID      string
	Username    string
	JoinedAt    time.Time
	ActivatedAt *time.Time
}

type EventKind int

const (
	EventJoined EventKind = iota
	EventLeft
	EventPromoted
	EventExpired
	EventConfigUpdated
)

// Event describes a single queue state transition for observers.
type Event struct {
	Kind      EventKind
	UserID    string
	Username  string
	JoinedAt  time.Time
	WasActive bool
}
