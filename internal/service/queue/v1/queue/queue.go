// Package queue implements the in-memory turn queue manager which arbitrates
// train control between clients.

package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modelqueue"
	queueErrors "github.com/danilovkiri/dk-go-trainqueue/internal/service/queue/v1/errors"
	"github.com/rs/zerolog"
)

// UnlimitedTimeRemaining is the sentinel reported while the sole queued user
// holds control with the infinite mode enabled.
const UnlimitedTimeRemaining float64 = -1

const (
	minSlotDurationSeconds = 10
	maxSlotDurationSeconds = 3600
)

// Queue defines attributes of a struct available to its methods.
type Queue struct {
	mu                     sync.Mutex
	entries                []*modelqueue.Entry
	active                 *modelqueue.Entry
	slotDurationSeconds    int
	allowInfiniteWhenAlone bool
	events                 chan<- modelqueue.Event
	log                    *zerolog.Logger
	now                    func() time.Time
}

// InitQueue initializes a turn queue manager. The events channel may be nil
// when no observer is attached.
func InitQueue(cfg *config.QueueConfig, log *zerolog.Logger, events chan<- modelqueue.Event) (*Queue, error) {
	if cfg == nil {
		return nil, &queueErrors.QueueFoundNilArgument{Msg: "nil configuration was passed to queue initializer"}
	}
	if log == nil {
		return nil, &queueErrors.QueueFoundNilArgument{Msg: "nil logger was passed to queue initializer"}
	}
	if cfg.SlotDurationSeconds < minSlotDurationSeconds || cfg.SlotDurationSeconds > maxSlotDurationSeconds {
		return nil, &queueErrors.InvalidConfigError{SlotDurationSeconds: cfg.SlotDurationSeconds}
	}
	q := &Queue{
		slotDurationSeconds:    cfg.SlotDurationSeconds,
		allowInfiniteWhenAlone: cfg.AllowInfiniteWhenAlone,
		events:                 events,
		log:                    log,
		now:                    time.Now,
	}
	return q, nil
}

// Join appends a new entry to the queue and promotes it when nobody holds
// control. Returns the 1-based position of the new entry.
func (q *Queue) Join(userID, username string) (int, error) {
	if userID == "" {
		return 0, &queueErrors.EmptyUserIDError{}
	}
	q.mu.Lock()
	for _, entry := range q.entries {
		if entry.UserID == userID {
			q.mu.Unlock()
			return 0, &queueErrors.DuplicateUserError{UserID: userID}
		}
	}
	entry := &modelqueue.Entry{
		UserID:   userID,
		Username: username,
		JoinedAt: q.now(),
	}
	q.entries = append(q.entries, entry)
	position := len(q.entries)
	events := []modelqueue.Event{{Kind: modelqueue.EventJoined, UserID: userID, Username: username, JoinedAt: entry.JoinedAt}}
	if q.active == nil {
		events = append(events, q.promote(q.now()))
	}
	q.mu.Unlock()
	q.log.Info().Msg(fmt.Sprintf("user %s joined the queue at position %d", userID, position))
	q.emit(events)
	return position, nil
}

// Leave removes an entry from the queue. When the leaving entry held control,
// the new head is promoted with a fresh activation time.
func (q *Queue) Leave(userID string) error {
	q.mu.Lock()
	idx := -1
	for i, entry := range q.entries {
		if entry.UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		q.mu.Unlock()
		return &queueErrors.NotInQueueError{UserID: userID}
	}
	entry := q.entries[idx]
	wasActive := q.active == entry
	q.entries = append(q.entries[:idx], q.entries[idx+1:]...)
	events := []modelqueue.Event{{Kind: modelqueue.EventLeft, UserID: entry.UserID, Username: entry.Username, JoinedAt: entry.JoinedAt, WasActive: wasActive}}
	if wasActive {
		q.active = nil
		if len(q.entries) > 0 {
			events = append(events, q.promote(q.now()))
		}
	}
	q.mu.Unlock()
	q.log.Info().Msg(fmt.Sprintf("user %s left the queue", userID))
	q.emit(events)
	return nil
}

// Status computes a full snapshot of the queue as of the supplied instant.
func (q *Queue) Status(asOf time.Time) modeldto.QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	status := modeldto.QueueStatus{
		Queue:               make([]modeldto.QueueEntry, 0, len(q.entries)),
		QueueLength:         len(q.entries),
		SlotDurationSeconds: q.slotDurationSeconds,
	}
	for i, entry := range q.entries {
		isActive := q.active == entry
		var timeRemaining *float64
		if isActive && entry.ActivatedAt != nil {
			if len(q.entries) == 1 && q.allowInfiniteWhenAlone {
				unlimited := UnlimitedTimeRemaining
				timeRemaining = &unlimited
			} else {
				remaining := float64(q.slotDurationSeconds) - asOf.Sub(*entry.ActivatedAt).Seconds()
				if remaining < 0 {
					remaining = 0
				}
				timeRemaining = &remaining
			}
			status.CurrentController = entry.UserID
		}
		status.Queue = append(status.Queue, modeldto.QueueEntry{
			UserID:        entry.UserID,
			Username:      entry.Username,
			Position:      i + 1,
			IsActive:      isActive,
			TimeRemaining: timeRemaining,
			JoinedAt:      entry.JoinedAt.Format(time.RFC3339),
		})
	}
	return status
}

// Tick expires the active entry once its slot has elapsed and promotes the
// next head. Repeated invocations without elapsed time are no-ops.
func (q *Queue) Tick(asOf time.Time) {
	q.mu.Lock()
	var events []modelqueue.Event
	if q.active != nil && q.active.ActivatedAt != nil {
		unlimited := len(q.entries) == 1 && q.allowInfiniteWhenAlone
		if !unlimited && asOf.Sub(*q.active.ActivatedAt).Seconds() >= float64(q.slotDurationSeconds) {
			expired := q.active
			for i, entry := range q.entries {
				if entry == expired {
					q.entries = append(q.entries[:i], q.entries[i+1:]...)
					break
				}
			}
			q.active = nil
			events = append(events, modelqueue.Event{Kind: modelqueue.EventExpired, UserID: expired.UserID, Username: expired.Username, JoinedAt: expired.JoinedAt, WasActive: true})
		}
	}
	if q.active == nil && len(q.entries) > 0 {
		events = append(events, q.promote(asOf))
	}
	q.mu.Unlock()
	q.emit(events)
}

// HasControl reports whether the given user holds the active slot.
func (q *Queue) HasControl(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active != nil && q.active.UserID == userID
}

// InQueue reports whether the given user is present in the queue.
func (q *Queue) InQueue(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, entry := range q.entries {
		if entry.UserID == userID {
			return true
		}
	}
	return false
}

// UpdateConfig applies a new slot duration and infinite-mode flag. The active
// entry keeps its activation time, so a shortened duration may expire it on
// the next tick.
func (q *Queue) UpdateConfig(slotDurationSeconds int, allowInfiniteWhenAlone bool) error {
	if slotDurationSeconds < minSlotDurationSeconds || slotDurationSeconds > maxSlotDurationSeconds {
		return &queueErrors.InvalidConfigError{SlotDurationSeconds: slotDurationSeconds}
	}
	q.mu.Lock()
	q.slotDurationSeconds = slotDurationSeconds
	q.allowInfiniteWhenAlone = allowInfiniteWhenAlone
	q.mu.Unlock()
	q.log.Info().Msg(fmt.Sprintf("queue configuration updated to %d seconds, infinite mode %v", slotDurationSeconds, allowInfiniteWhenAlone))
	q.emit([]modelqueue.Event{{Kind: modelqueue.EventConfigUpdated}})
	return nil
}

// Config returns the current queue configuration.
func (q *Queue) Config() modeldto.RuntimeConfig {
	q.mu.Lock()
	defer q.mu.Unlock()
	return modeldto.RuntimeConfig{
		SlotDurationSeconds:    q.slotDurationSeconds,
		AllowInfiniteWhenAlone: q.allowInfiniteWhenAlone,
	}
}

// promote grants control to the current head. Must be called under the lock
// with no entry active and a non-empty queue.
func (q *Queue) promote(at time.Time) modelqueue.Event {
	head := q.entries[0]
	activatedAt := at
	head.ActivatedAt = &activatedAt
	q.active = head
	return modelqueue.Event{Kind: modelqueue.EventPromoted, UserID: head.UserID, Username: head.Username, JoinedAt: head.JoinedAt}
}

// emit forwards events to the observer channel outside the lock.
func (q *Queue) emit(events []modelqueue.Event) {
	if q.events == nil {
		return
	}
	for _, event := range events {
		q.events <- event
	}
}
