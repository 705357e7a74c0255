// Package device implements the train control adapter. Without a configured
// train address the adapter runs in mock mode and only tracks the commanded
// state, which is sufficient for local development and tests.

package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	v1 "github.com/danilovkiri/dk-go-trainqueue/internal/service/device/v1"
	deviceErrors "github.com/danilovkiri/dk-go-trainqueue/internal/service/device/v1/errors"
	"github.com/rs/zerolog"
)

const (
	maxSpeed = 31

	minScanDurationSeconds = 5
	maxScanDurationSeconds = 30
)

// Controller defines attributes of a struct available to its methods.
type Controller struct {
	mu        sync.Mutex
	connected bool
	mockMode  bool
	address   string
	speed     int
	direction string
	bell      bool
	lights    bool
	log       *zerolog.Logger
}

// InitController initializes a train control adapter. An empty train address
// in the configuration enables mock mode.
func InitController(cfg *config.DeviceConfig, log *zerolog.Logger) (*Controller, error) {
	if cfg == nil {
		return nil, &deviceErrors.DeviceFoundNilArgument{Msg: "nil configuration was passed to device initializer"}
	}
	if log == nil {
		return nil, &deviceErrors.DeviceFoundNilArgument{Msg: "nil logger was passed to device initializer"}
	}
	ctrl := &Controller{
		mockMode:  cfg.TrainAddress == "",
		address:   cfg.TrainAddress,
		direction: v1.DirectionForward,
		log:       log,
	}
	if ctrl.mockMode {
		ctrl.connected = true
		log.Warn().Msg("no train address configured, device adapter runs in mock mode")
	}
	return ctrl, nil
}

// Connect establishes a link to the train at the given address. In mock mode
// the call only records the address.
func (ctrl *Controller) Connect(_ context.Context, address string) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	ctrl.address = address
	ctrl.connected = true
	ctrl.log.Info().Msg(fmt.Sprintf("connected to train at %s", address))
	return nil
}

// Disconnect drops the link to the train.
func (ctrl *Controller) Disconnect(_ context.Context) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if !ctrl.mockMode {
		ctrl.connected = false
	}
	ctrl.speed = 0
	ctrl.log.Info().Msg("disconnected from train")
	return nil
}

// SetSpeed commands the train throttle.
func (ctrl *Controller) SetSpeed(_ context.Context, speed int) error {
	if speed < 0 || speed > maxSpeed {
		return &deviceErrors.InvalidSpeedError{Speed: speed}
	}
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if !ctrl.connected {
		return &deviceErrors.NotConnectedError{Msg: "cannot set speed"}
	}
	ctrl.speed = speed
	ctrl.log.Debug().Msg(fmt.Sprintf("speed set to %d", speed))
	return nil
}

// SetDirection commands the train direction and returns the resulting one.
func (ctrl *Controller) SetDirection(_ context.Context, direction string) (string, error) {
	if direction != v1.DirectionForward && direction != v1.DirectionReverse && direction != v1.DirectionToggle {
		return "", &deviceErrors.InvalidDirectionError{Direction: direction}
	}
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if !ctrl.connected {
		return "", &deviceErrors.NotConnectedError{Msg: "cannot set direction"}
	}
	switch direction {
	case v1.DirectionToggle:
		if ctrl.direction == v1.DirectionForward {
			ctrl.direction = v1.DirectionReverse
		} else {
			ctrl.direction = v1.DirectionForward
		}
	default:
		ctrl.direction = direction
	}
	ctrl.log.Debug().Msg(fmt.Sprintf("direction set to %s", ctrl.direction))
	return ctrl.direction, nil
}

// Horn sounds the horn once.
func (ctrl *Controller) Horn(_ context.Context) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if !ctrl.connected {
		return &deviceErrors.NotConnectedError{Msg: "cannot sound horn"}
	}
	ctrl.log.Debug().Msg("horn sounded")
	return nil
}

// Bell switches the bell on or off.
func (ctrl *Controller) Bell(_ context.Context, state bool) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if !ctrl.connected {
		return &deviceErrors.NotConnectedError{Msg: "cannot switch bell"}
	}
	ctrl.bell = state
	ctrl.log.Debug().Msg(fmt.Sprintf("bell switched to %v", state))
	return nil
}

// Lights switches the lights on or off.
func (ctrl *Controller) Lights(_ context.Context, state bool) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if !ctrl.connected {
		return &deviceErrors.NotConnectedError{Msg: "cannot switch lights"}
	}
	ctrl.lights = state
	ctrl.log.Debug().Msg(fmt.Sprintf("lights switched to %v", state))
	return nil
}

// EmergencyStop zeroes the throttle immediately.
func (ctrl *Controller) EmergencyStop(_ context.Context) error {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	ctrl.speed = 0
	ctrl.log.Warn().Msg("emergency stop commanded")
	return nil
}

// Scan looks for nearby trains for the given duration. In mock mode it
// reports a single fake train after a short delay.
func (ctrl *Controller) Scan(ctx context.Context, durationSeconds int) (modeldto.ScanResult, error) {
	if durationSeconds < minScanDurationSeconds || durationSeconds > maxScanDurationSeconds {
		return modeldto.ScanResult{}, &deviceErrors.InvalidScanDurationError{DurationSeconds: durationSeconds}
	}
	select {
	case <-ctx.Done():
		return modeldto.ScanResult{}, ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}
	trains := []modeldto.DiscoveredTrain{{Name: "MockTrain", Address: "00:11:22:33:44:55"}}
	return modeldto.ScanResult{Trains: trains, Count: len(trains)}, nil
}

// Status returns the last commanded state of the train.
func (ctrl *Controller) Status() modeldto.DeviceStatus {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	return modeldto.DeviceStatus{
		Connected: ctrl.connected,
		Speed:     ctrl.speed,
		Direction: ctrl.direction,
		Bell:      ctrl.bell,
		Lights:    ctrl.lights,
		MockMode:  ctrl.mockMode,
		Address:   ctrl.address,
	}
}
