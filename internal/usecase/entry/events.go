package entry

import (
	"context"
	"time"

	domain "ledger-service/internal/domain/entry"
)

// EventType names a change notification emitted after a successful write.
type EventType string

const (
	EventCreated       EventType = "entry.created"
	EventUpdated       EventType = "entry.updated"
	EventStatusChanged EventType = "entry.status_changed"
	EventDeleted       EventType = "entry.deleted"
)

// Event describes a ledger entry change that has already been persisted.
type Event struct {
	Type       EventType     `json:"type"`
	EntryID    int64         `json:"entry_id"`
	UserID     int64         `json:"user_id"`
	Status     domain.Status `json:"status,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Publisher delivers change notifications to interested parties.
// Delivery failures never undo the write that produced the event.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

func newEvent(t EventType, e *domain.Entry) Event {
	return Event{
		Type:       t,
		EntryID:    e.ID,
		UserID:     e.UserID(),
		Status:     e.Status,
		OccurredAt: time.Now().UTC(),
	}
}
