// Package device defines the train control adapter functionality.

package device

import (
	"context"

	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
)

const (
	DirectionForward = "forward"
	DirectionReverse = "reverse"
	DirectionToggle  = "toggle"
)

// Controller defines a set of methods for operating the physical train.
type Controller interface {
	Connect(ctx context.Context, address string) error
	Disconnect(ctx context.Context) error
	SetSpeed(ctx context.Context, speed int) error
	SetDirection(ctx context.Context, direction string) (string, error)
	Horn(ctx context.Context) error
	Bell(ctx context.Context, state bool) error
	Lights(ctx context.Context, state bool) error
	EmergencyStop(ctx context.Context) error
	Scan(ctx context.Context, durationSeconds int) (modeldto.ScanResult, error)
	Status() modeldto.DeviceStatus
}
