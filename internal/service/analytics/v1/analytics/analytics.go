// Package analytics implements control session tracking backed by PSQL
// storage. Active sessions live in memory and are persisted once they end.

package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelstorage"
	v1 "github.com/danilovkiri/dk-go-trainqueue/internal/service/analytics/v1"
	"github.com/danilovkiri/dk-go-trainqueue/internal/storage/v1"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type activeSession struct {
	sessionID string
	username  string
	joinedAt  time.Time
	startedAt time.Time
	controls  map[string]int64
}

// Recorder defines attributes of a struct available to its methods.
type Recorder struct {
	mu       sync.Mutex
	sessions map[string]*activeSession
	storage  storage.Analytics
	log      *zerolog.Logger
}

// InitRecorder initializes an analytics recorder.
func InitRecorder(st storage.Analytics, log *zerolog.Logger) *Recorder {
	return &Recorder{
		sessions: make(map[string]*activeSession),
		storage:  st,
		log:      log,
	}
}

// StartSession begins tracking a control session upon promotion.
func (r *Recorder) StartSession(userID, username string, joinedAt, startedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = &activeSession{
		sessionID: uuid.New().String(),
		username:  username,
		joinedAt:  joinedAt,
		startedAt: startedAt,
		controls:  make(map[string]int64),
	}
	r.log.Info().Msg(fmt.Sprintf("started analytics session for %s after %.1fs wait", username, startedAt.Sub(joinedAt).Seconds()))
}

// EndSession persists a finished control session. Unknown users are ignored.
func (r *Recorder) EndSession(ctx context.Context, userID string, endedAt time.Time) {
	r.mu.Lock()
	session, ok := r.sessions[userID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, userID)
	r.mu.Unlock()
	entry := modelstorage.SessionStorageEntry{
		SessionID:       session.sessionID,
		UserID:          userID,
		Username:        session.username,
		JoinedAt:        session.joinedAt.Format(time.RFC3339),
		StartedAt:       session.startedAt.Format(time.RFC3339),
		EndedAt:         endedAt.Format(time.RFC3339),
		WaitSeconds:     session.startedAt.Sub(session.joinedAt).Seconds(),
		DurationSeconds: endedAt.Sub(session.startedAt).Seconds(),
		SpeedCount:      session.controls[v1.ControlSpeed],
		DirectionCount:  session.controls[v1.ControlDirection],
		HornCount:       session.controls[v1.ControlHorn],
		BellCount:       session.controls[v1.ControlBell],
		LightsCount:     session.controls[v1.ControlLights],
		EmergencyCount:  session.controls[v1.ControlEmergency],
	}
	err := r.storage.SaveSession(ctx, entry)
	if err != nil {
		r.log.Error().Err(err).Msg(fmt.Sprintf("could not persist analytics session for %s", userID))
		return
	}
	r.log.Info().Msg(fmt.Sprintf("ended analytics session for %s after %.1fs", session.username, entry.DurationSeconds))
}

// TrackControl counts one use of a control by the given user. No-op when the
// user has no active session.
func (r *Recorder) TrackControl(userID, control string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[userID]; ok {
		session.controls[control]++
	}
}

// Stats aggregates statistics over stored sessions, optionally limited to the
// last N days.
func (r *Recorder) Stats(ctx context.Context, days int) (modeldto.Stats, error) {
	since := ""
	if days > 0 {
		since = time.Now().AddDate(0, 0, -days).Format(time.RFC3339)
	}
	sessions, err := r.storage.GetSessions(ctx, since)
	if err != nil {
		return modeldto.Stats{}, err
	}
	stats := modeldto.Stats{
		ControlUsage: make(map[string]int64),
		PeakHours:    make(map[int]int),
		TopUsers:     make(map[string]int),
	}
	if len(sessions) == 0 {
		return stats, nil
	}
	var totalWait, totalDuration float64
	hourCounts := make(map[int]int)
	dayCounts := make(map[string]int)
	userCounts := make(map[string]int)
	for _, session := range sessions {
		totalWait += session.WaitSeconds
		totalDuration += session.DurationSeconds
		stats.ControlUsage[v1.ControlSpeed] += session.SpeedCount
		stats.ControlUsage[v1.ControlDirection] += session.DirectionCount
		stats.ControlUsage[v1.ControlHorn] += session.HornCount
		stats.ControlUsage[v1.ControlBell] += session.BellCount
		stats.ControlUsage[v1.ControlLights] += session.LightsCount
		stats.ControlUsage[v1.ControlEmergency] += session.EmergencyCount
		startedAt, err := time.Parse(time.RFC3339, session.StartedAt)
		if err == nil {
			hourCounts[startedAt.Hour()]++
			dayCounts[startedAt.Format("2006-01-02")]++
		}
		userCounts[session.Username]++
	}
	stats.TotalSessions = len(sessions)
	stats.TotalUsers = len(userCounts)
	stats.AvgWaitSeconds = totalWait / float64(len(sessions))
	stats.AvgSessionSeconds = totalDuration / float64(len(sessions))
	stats.PeakHours = topHours(hourCounts, 5)
	stats.TopUsers = topUsers(userCounts, 10)
	for day, count := range dayCounts {
		if count > dayCounts[stats.BusiestDay] {
			stats.BusiestDay = day
		}
	}
	return stats, nil
}

// Purge removes all stored sessions.
func (r *Recorder) Purge(ctx context.Context) error {
	return r.storage.PurgeSessions(ctx)
}

func topHours(counts map[int]int, limit int) map[int]int {
	hours := make([]int, 0, len(counts))
	for hour := range counts {
		hours = append(hours, hour)
	}
	sort.Slice(hours, func(i, j int) bool { return counts[hours[i]] > counts[hours[j]] })
	if len(hours) > limit {
		hours = hours[:limit]
	}
	top := make(map[int]int, len(hours))
	for _, hour := range hours {
		top[hour] = counts[hour]
	}
	return top
}

func topUsers(counts map[string]int, limit int) map[string]int {
	users := make([]string, 0, len(counts))
	for user := range counts {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return counts[users[i]] > counts[users[j]] })
	if len(users) > limit {
		users = users[:limit]
	}
	top := make(map[string]int, len(users))
	for _, user := range users {
		top[user] = counts[user]
	}
	return top
}
