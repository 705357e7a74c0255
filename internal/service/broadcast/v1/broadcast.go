// Package broadcast implements a fan-out broker which distributes queue
// status snapshots to push subscribers (SSE and WebSocket connections).

package broadcast

import (
	"context"
	"sync"

	"github.com/danilovkiri/dk-go-trainqueue/internal/models/modeldto"
	"github.com/rs/zerolog"
)

const subscriberBufferSize = 8

// Broker defines attributes of a struct available to its methods.
type Broker struct {
	mu          sync.Mutex
	subscribers map[chan modeldto.PushMessage]struct{}
	ctx         context.Context
	log         *zerolog.Logger
	wg          *sync.WaitGroup
}

// InitBroker initializes a push broker. Subscribers are closed and dropped
// when the context is cancelled.
func InitBroker(ctx context.Context, log *zerolog.Logger, wg *sync.WaitGroup) *Broker {
	broker := &Broker{
		subscribers: make(map[chan modeldto.PushMessage]struct{}),
		ctx:         ctx,
		log:         log,
		wg:          wg,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		broker.mu.Lock()
		for sub := range broker.subscribers {
			close(sub)
			delete(broker.subscribers, sub)
		}
		broker.mu.Unlock()
		log.Info().Msg("closed all push subscriber channels")
	}()
	return broker
}

// Subscribe registers a new subscriber channel.
func (b *Broker) Subscribe() chan modeldto.PushMessage {
	sub := make(chan modeldto.PushMessage, subscriberBufferSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[sub] = struct{}{}
	return sub
}

// Unsubscribe removes and closes a subscriber channel. Safe to call after
// broker shutdown.
func (b *Broker) Unsubscribe(sub chan modeldto.PushMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish delivers a message to all subscribers. Sends are non-blocking, a
// subscriber with a full buffer misses the message instead of stalling the
// publisher.
func (b *Broker) Publish(msg modeldto.PushMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subscribers {
		select {
		case sub <- msg:
		default:
			b.log.Debug().Msg("dropped push message for a slow subscriber")
		}
	}
}

// SubscriberCount returns the number of attached subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
