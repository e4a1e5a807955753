package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Rrens/collab-gateway/internal/domain"
	"github.com/rs/zerolog/log"
)

// Broker is the cross-process pub/sub backplane for realtime rooms. Each room
// maps to one Redis channel.
type Broker struct {
	client     *Client
	prefix     string
	bufferSize int
}

// NewBroker creates a broker publishing on channels named prefix+room
func NewBroker(client *Client, prefix string) *Broker {
	return &Broker{
		client:     client,
		prefix:     prefix,
		bufferSize: 256,
	}
}

// Publish sends an envelope to every process subscribed to its room
func (b *Broker) Publish(ctx context.Context, env domain.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := b.client.rdb.Publish(ctx, b.prefix+env.Room, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to room %s: %w", env.Room, err)
	}
	return nil
}

// Subscribe listens on the room's channel. The subscription is confirmed before
// returning, so envelopes published afterwards are not missed.
func (b *Broker) Subscribe(ctx context.Context, room string) (<-chan domain.Envelope, func(), error) {
	pubsub := b.client.rdb.Subscribe(ctx, b.prefix+room)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to room %s: %w", room, err)
	}

	out := make(chan domain.Envelope, b.bufferSize)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var env domain.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed envelope")
				continue
			}
			select {
			case out <- env:
			default:
				log.Warn().Str("room", room).Str("event", env.Event).Msg("room subscriber is full, dropping envelope")
			}
		}
	}()

	cancel := func() {
		pubsub.Close()
	}
	return out, cancel, nil
}
