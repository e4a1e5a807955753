package domain

import (
	"context"
	"encoding/json"
)

// Envelope is one event published to a room. Exclude names a session that must
// not receive it (the originator of a relay).
type Envelope struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	Exclude string          `json:"exclude,omitempty"`
}

// Broker fans room events out to every subscriber, possibly across processes.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe delivers every envelope published to room until the returned
	// cancel func is called.
	Subscribe(ctx context.Context, room string) (<-chan Envelope, func(), error)
}
