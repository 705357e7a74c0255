// Package analytics defines usage analytics functionality.

package analytics

import (
	"context"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
)

// Control command names as recorded per session.
const (
	ControlSpeed     = "speed"
	ControlDirection = "direction"
	ControlHorn      = "horn"
	ControlBell      = "bell"
	ControlLights    = "lights"
	ControlEmergency = "emergency_stop"
)

// Recorder defines a set of methods for tracking control sessions and
// computing usage statistics.
type Recorder interface {
	StartSession(userID, username string, joinedAt, startedAt time.Time)
	EndSession(ctx context.Context, userID string, endedAt time.Time)
	TrackControl(userID, control string)
	Stats(ctx context.Context, days int) (modeldto.Stats, error)
	Purge(ctx context.Context) error
}
