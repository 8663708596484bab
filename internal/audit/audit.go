// Package audit provides the event sink that document mutations report to.
// Recording is fire-and-forget: emission never blocks or fails a request.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docvault/docvault/pkg/lifecycle"
)

// Event describes one durably committed document mutation.
type Event struct {
	Action   string    `json:"action"`
	OwnerID  string    `json:"owner_id"`
	SlotType string    `json:"slot_type"`
	OldKey   string    `json:"old_key,omitempty"`
	NewKey   string    `json:"new_key,omitempty"`
	At       time.Time `json:"at"`
}

// Recorder accepts audit events asynchronously.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// System is a buffered, slog-backed Recorder with lifecycle-coordinated
// draining. Events that arrive while the buffer is full are dropped with
// a warning rather than blocking the mutating request.
type System struct {
	mu     sync.RWMutex
	closed bool
	events chan Event
	logger *slog.Logger
	group  errgroup.Group
}

// New creates an audit system with the given buffer capacity.
func New(buffer int, logger *slog.Logger) *System {
	if buffer <= 0 {
		buffer = 256
	}
	return &System{
		events: make(chan Event, buffer),
		logger: logger.With("system", "audit"),
	}
}

// Start launches the consumer and registers a shutdown hook that drains
// buffered events before the process exits.
func (s *System) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting audit system")

	s.group.Go(func() error {
		for e := range s.events {
			s.emit(e)
		}
		return nil
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		// closing under the write lock means no Record can be between
		// its closed check and the send when the channel closes
		s.mu.Lock()
		s.closed = true
		close(s.events)
		s.mu.Unlock()
		s.group.Wait()
		s.logger.Info("audit events drained")
	})

	return nil
}

// Record enqueues an event. It never blocks the caller. Events arriving
// after shutdown has closed the sink are dropped with a warning.
func (s *System) Record(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.logger.Warn("audit sink closed, event dropped", "action", e.Action, "owner", e.OwnerID)
		return
	}

	select {
	case s.events <- e:
	default:
		s.logger.Warn("audit buffer full, event dropped", "action", e.Action, "owner", e.OwnerID)
	}
}

func (s *System) emit(e Event) {
	s.logger.Info(
		"audit",
		"action", e.Action,
		"owner", e.OwnerID,
		"slot", e.SlotType,
		"old_key", e.OldKey,
		"new_key", e.NewKey,
		"at", e.At,
	)
}
