package device

import (
	"context"
	"testing"

	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/danilovkiri/dk-go-trainqueue/internal/logger"
	v1 "github.com/danilovkiri/dk-go-trainqueue/internal/service/device/v1"
	deviceErrors "github.com/danilovkiri/dk-go-trainqueue/internal/service/device/v1/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockController(t *testing.T) *Controller {
	t.Helper()
	log := logger.InitLog("device-test")
	ctrl, err := InitController(&config.DeviceConfig{}, log)
	require.NoError(t, err)
	return ctrl
}

func TestMockModeConnectsImmediately(t *testing.T) {
	ctrl := setupMockController(t)
	status := ctrl.Status()
	assert.True(t, status.Connected)
	assert.True(t, status.MockMode)
	assert.Equal(t, v1.DirectionForward, status.Direction)
}

func TestSetSpeedBounds(t *testing.T) {
	ctrl := setupMockController(t)
	var invalidSpeedError *deviceErrors.InvalidSpeedError
	assert.ErrorAs(t, ctrl.SetSpeed(context.Background(), -1), &invalidSpeedError)
	assert.ErrorAs(t, ctrl.SetSpeed(context.Background(), 32), &invalidSpeedError)
	require.NoError(t, ctrl.SetSpeed(context.Background(), 15))
	assert.Equal(t, 15, ctrl.Status().Speed)
}

func TestSetDirectionToggle(t *testing.T) {
	ctrl := setupMockController(t)
	direction, err := ctrl.SetDirection(context.Background(), v1.DirectionToggle)
	require.NoError(t, err)
	assert.Equal(t, v1.DirectionReverse, direction)
	direction, err = ctrl.SetDirection(context.Background(), v1.DirectionToggle)
	require.NoError(t, err)
	assert.Equal(t, v1.DirectionForward, direction)

	var invalidDirectionError *deviceErrors.InvalidDirectionError
	_, err = ctrl.SetDirection(context.Background(), "sideways")
	assert.ErrorAs(t, err, &invalidDirectionError)
}

func TestEmergencyStopZeroesSpeed(t *testing.T) {
	ctrl := setupMockController(t)
	require.NoError(t, ctrl.SetSpeed(context.Background(), 20))
	require.NoError(t, ctrl.EmergencyStop(context.Background()))
	assert.Equal(t, 0, ctrl.Status().Speed)
}

func TestBellAndLights(t *testing.T) {
	ctrl := setupMockController(t)
	require.NoError(t, ctrl.Bell(context.Background(), true))
	require.NoError(t, ctrl.Lights(context.Background(), true))
	status := ctrl.Status()
	assert.True(t, status.Bell)
	assert.True(t, status.Lights)
}

func TestScanDurationBounds(t *testing.T) {
	ctrl := setupMockController(t)
	var invalidScanDurationError *deviceErrors.InvalidScanDurationError
	_, err := ctrl.Scan(context.Background(), 3)
	assert.ErrorAs(t, err, &invalidScanDurationError)
	_, err = ctrl.Scan(context.Background(), 31)
	assert.ErrorAs(t, err, &invalidScanDurationError)

	result, err := ctrl.Scan(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
}
