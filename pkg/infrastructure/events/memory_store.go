package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// InMemoryEventStore keeps the journal in process. Subscribers are notified synchronously
// after the append, outside the store lock.
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	allEvents   []Event
	logger      *zap.Logger
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		logger:      logger,
	}
}

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, event Event) (Event, error) {
	s.mutex.Lock()
	event.Version = len(s.streams[event.StreamID]) + 1
	s.streams[event.StreamID] = append(s.streams[event.StreamID], event)
	s.allEvents = append(s.allEvents, event)
	handlers := append([]EventHandler(nil), s.subscribers[event.Type]...)
	s.mutex.Unlock()

	for _, h := range handlers {
		if !h.CanHandle(event.Type) {
			continue
		}
		if err := h.Handle(ctx, event); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("type", event.Type),
				zap.String("stream", event.StreamID),
				zap.Error(err))
		}
	}
	return event, nil
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events := s.streams[streamID]
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(events) {
		return []Event{}, nil
	}
	return append([]Event(nil), events[fromVersion-1:]...), nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}
	return append([]Event(nil), s.allEvents[fromPosition:]...), nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}
