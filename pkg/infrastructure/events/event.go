package events

import (
	"context"
	"time"
)

// Event is one entry of the ledger journal. Payload values are plain strings so the
// journal can be replayed without the domain types.
type Event struct {
	Type      string            `msgpack:"type" json:"type"`
	StreamID  string            `msgpack:"stream" json:"stream"`
	Version   int               `msgpack:"version" json:"version"`
	Timestamp time.Time         `msgpack:"ts" json:"ts"`
	Payload   map[string]string `msgpack:"payload" json:"payload"`
}

type EventHandler interface {
	Handle(ctx context.Context, event Event) error
	CanHandle(eventType string) bool
}

// HandlerFunc adapts a function to EventHandler for every event type it is subscribed to.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }
func (f HandlerFunc) CanHandle(string) bool                         { return true }

type EventStore interface {
	AppendEvent(ctx context.Context, event Event) (Event, error)
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
}

func NewEvent(eventType, streamID string, at time.Time, payload map[string]string) Event {
	return Event{
		Type:      eventType,
		StreamID:  streamID,
		Timestamp: at,
		Payload:   payload,
	}
}
