package realtime

import (
	"context"
	"sync"

	"github.com/Rrens/collab-gateway/internal/domain"
)

// LocalBroker is an in-process domain.Broker. Publishing never blocks: a
// subscriber whose buffer is full misses the envelope.
type LocalBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]chan domain.Envelope
	nextID      int64
	bufferSize  int
}

// NewLocalBroker creates an empty in-process broker
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{
		subscribers: make(map[string]map[int64]chan domain.Envelope),
		bufferSize:  256,
	}
}

// Publish delivers an envelope to the current subscribers of its room
func (b *LocalBroker) Publish(_ context.Context, env domain.Envelope) error {
	if env.Room == "" || env.Event == "" {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, stream := range b.subscribers[env.Room] {
		select {
		case stream <- env:
		default:
		}
	}
	return nil
}

// Subscribe opens a stream for a room; cancel closes it and is safe to call twice
func (b *LocalBroker) Subscribe(_ context.Context, room string) (<-chan domain.Envelope, func(), error) {
	stream := make(chan domain.Envelope, b.bufferSize)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if _, ok := b.subscribers[room]; !ok {
		b.subscribers[room] = make(map[int64]chan domain.Envelope)
	}
	b.subscribers[room][id] = stream
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subscribers := b.subscribers[room]
			delete(subscribers, id)
			if len(subscribers) == 0 {
				delete(b.subscribers, room)
			}
			close(stream)
		})
	}
	return stream, cancel, nil
}
