package ledger

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/kitchenledger/pkg/infrastructure/clock"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/events"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/locking"
	"github.com/vsinha/kitchenledger/pkg/infrastructure/metrics"
)

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocker shares the critical section with other services and processes.
func WithLocker(locker locking.Locker) Option {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

func WithEventStore(store events.EventStore) Option {
	return func(s *Service) { s.events = store }
}

func WithMetrics(m *metrics.Ledger) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.newID = next
		}
	}
}

func defaultIDGenerator() string { return uuid.NewString() }
