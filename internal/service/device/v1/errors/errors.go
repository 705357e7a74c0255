// Package errors provides device adapter error types.

package errors

import "fmt"

type DeviceFoundNilArgument struct {
	Msg string
}

func (e *DeviceFoundNilArgument) Error() string {
	return fmt.Sprintf("nil argument was found: %s", e.Msg)
}

type NotConnectedError struct {
	Msg string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("device is not connected: %s", e.Msg)
}

type InvalidSpeedError struct {
	Speed int
}

func (e *InvalidSpeedError) Error() string {
	return fmt.Sprintf("speed %d is outside the supported range", e.Speed)
}

type InvalidDirectionError struct {
	Direction string
}

func (e *InvalidDirectionError) Error() string {
	return fmt.Sprintf("direction %s is not supported", e.Direction)
}

type InvalidScanDurationError struct {
	DurationSeconds int
}

func (e *InvalidScanDurationError) Error() string {
	return fmt.Sprintf("scan duration %d seconds is outside the supported range", e.DurationSeconds)
}
