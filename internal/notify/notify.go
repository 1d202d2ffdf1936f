// Package notify delivers engine events to interested parties.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// EventType names a state transition.
type EventType string

const (
	GroupCreated          EventType = "GROUP_CREATED"
	MemberInvited         EventType = "MEMBER_INVITED"
	MemberJoined          EventType = "MEMBER_JOINED"
	MemberRejected        EventType = "MEMBER_REJECTED"
	GroupStatusChanged    EventType = "GROUP_STATUS_CHANGED"
	OrderAssigned         EventType = "ORDER_ASSIGNED"
	RoundOpened           EventType = "ROUND_OPENED"
	PaymentRecorded       EventType = "PAYMENT_RECORDED"
	PaymentRefunded       EventType = "PAYMENT_REFUNDED"
	PenaltyRaised         EventType = "PENALTY_RAISED"
	PenaltySettled        EventType = "PENALTY_SETTLED"
	DistributionCompleted EventType = "DISTRIBUTION_COMPLETED"
)

// Event describes one committed state change.
type Event struct {
	Type     EventType
	GroupID  string
	MemberID string
	Amount   int64
	Sequence int
	Detail   string
	At       time.Time
}

// Notifier receives events after the change they describe has committed.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// LogNotifier writes events to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs e at info level.
func (n LogNotifier) Notify(ctx context.Context, e Event) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Event",
		"type", e.Type,
		"group_id", e.GroupID,
		"member_id", e.MemberID,
		"amount", e.Amount,
		"sequence", e.Sequence,
		"detail", e.Detail,
	)
	return nil
}

// Multi fans an event out to several notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Hub is an in-process publish/subscribe notifier. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int]*subscription
	nextID  int
	dropped atomic.Uint64
}

type subscription struct {
	groupID string
	ch      chan Event
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscription)}
}

// Subscribe registers for events of groupID, or of every group when groupID
// is empty. The returned cancel func closes the channel.
func (h *Hub) Subscribe(groupID string, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscription{groupID: groupID, ch: make(chan Event, buffer)}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Notify delivers e to every matching subscriber.
func (h *Hub) Notify(_ context.Context, e Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.groupID != "" && sub.groupID != e.GroupID {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Dropped reports how many deliveries were skipped because a subscriber was
// full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
