// Package queue declares the turn queue manager interface.
package queue

import (
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
)

type Manager interface {
	Join(userID, username string) (int, error)
	Leave(userID string) error
	Status(asOf time.Time) modeldto.QueueStatus
	Tick(asOf time.Time)
	HasControl(userID string) bool
	InQueue(userID string) bool
	UpdateConfig(slotDurationSeconds int, allowInfiniteWhenAlone bool) error
	Config() modeldto.RuntimeConfig
}
