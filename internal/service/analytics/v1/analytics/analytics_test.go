package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/logger"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelstorage"
	v1 "github.com/danilovkiri/dk-go-trainqueue/internal/service/analytics/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyticsStorage struct {
	saved []modelstorage.SessionStorageEntry
}

func (f *fakeAnalyticsStorage) SaveSession(_ context.Context, session modelstorage.SessionStorageEntry) error {
	f.saved = append(f.saved, session)
	return nil
}

func (f *fakeAnalyticsStorage) GetSessions(_ context.Context, _ string) ([]modelstorage.SessionStorageEntry, error) {
	return f.saved, nil
}

func (f *fakeAnalyticsStorage) PurgeSessions(_ context.Context) error {
	f.saved = nil
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	log := logger.InitLog("analytics-test")
	st := &fakeAnalyticsStorage{}
	recorder := InitRecorder(st, log)

	joinedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	startedAt := joinedAt.Add(30 * time.Second)
	endedAt := startedAt.Add(120 * time.Second)

	recorder.StartSession("user1", "Alice", joinedAt, startedAt)
	recorder.TrackControl("user1", v1.ControlSpeed)
	recorder.TrackControl("user1", v1.ControlSpeed)
	recorder.TrackControl("user1", v1.ControlHorn)
	// tracking for a user without a session is a no-op
	recorder.TrackControl("ghost", v1.ControlBell)
	recorder.EndSession(context.Background(), "user1", endedAt)

	require.Len(t, st.saved, 1)
	entry := st.saved[0]
	assert.Equal(t, "user1", entry.UserID)
	assert.Equal(t, float64(30), entry.WaitSeconds)
	assert.Equal(t, float64(120), entry.DurationSeconds)
	assert.Equal(t, int64(2), entry.SpeedCount)
	assert.Equal(t, int64(1), entry.HornCount)
	assert.Equal(t, int64(0), entry.BellCount)
}

func TestEndSessionForUnknownUser(t *testing.T) {
	log := logger.InitLog("analytics-test")
	st := &fakeAnalyticsStorage{}
	recorder := InitRecorder(st, log)
	recorder.EndSession(context.Background(), "ghost", time.Now())
	assert.Empty(t, st.saved)
}

func TestStatsAggregation(t *testing.T) {
	log := logger.InitLog("analytics-test")
	st := &fakeAnalyticsStorage{}
	recorder := InitRecorder(st, log)

	base := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	for i, user := range []string{"Alice", "Bob", "Alice"} {
		joinedAt := base.Add(time.Duration(i) * time.Hour)
		startedAt := joinedAt.Add(10 * time.Second)
		recorder.StartSession(user, user, joinedAt, startedAt)
		recorder.TrackControl(user, v1.ControlSpeed)
		recorder.EndSession(context.Background(), user, startedAt.Add(60*time.Second))
	}

	stats, err := recorder.Stats(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, float64(10), stats.AvgWaitSeconds)
	assert.Equal(t, float64(60), stats.AvgSessionSeconds)
	assert.Equal(t, int64(3), stats.ControlUsage[v1.ControlSpeed])
	assert.Equal(t, 2, stats.TopUsers["Alice"])
	assert.Equal(t, "2024-05-01", stats.BusiestDay)
}

func TestStatsEmpty(t *testing.T) {
	log := logger.InitLog("analytics-test")
	recorder := InitRecorder(&fakeAnalyticsStorage{}, log)
	stats, err := recorder.Stats(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSessions)
	assert.NotNil(t, stats.ControlUsage)
}
