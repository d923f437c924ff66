package catalog

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies category events on the wire.
type EventType string

const (
	// EventTypeCategoryCreated is published when a category is created.
	EventTypeCategoryCreated EventType = "CREATED"
	// EventTypeCategoryStatusChanged is published when a category status flips.
	EventTypeCategoryStatusChanged EventType = "STATUS_CHANGED"
)

// Routing keys for category events. Both bind to the same durable
// subscription through the catalog.category.> wildcard.
const (
	RoutingKeyCategoryCreated       = "category.created"
	RoutingKeyCategoryStatusChanged = "category.status.changed"
)

// CategoryEvent is the payload published on category transitions. The queue
// may hold in-flight messages across a deployment, so evolution is additive:
// new fields must be optional.
type CategoryEvent struct {
	MessageID    string    `json:"message_id"`
	CategoryID   uint      `json:"category_id"`
	CategoryName string    `json:"category_name"`
	EventType    EventType `json:"event_type"`
	OldStatus    Status    `json:"old_status,omitempty"`
	NewStatus    Status    `json:"new_status"`
	EventTime    time.Time `json:"event_time"`
}

// NewCategoryCreatedEvent builds a CREATED event for c.
func NewCategoryCreatedEvent(c *Category) CategoryEvent {
	return CategoryEvent{
		MessageID:    uuid.New().String(),
		CategoryID:   c.ID,
		CategoryName: c.Name,
		EventType:    EventTypeCategoryCreated,
		NewStatus:    c.Status,
		EventTime:    time.Now(),
	}
}

// NewCategoryStatusChangedEvent builds a STATUS_CHANGED event for c.
func NewCategoryStatusChangedEvent(c *Category, oldStatus Status) CategoryEvent {
	return CategoryEvent{
		MessageID:    uuid.New().String(),
		CategoryID:   c.ID,
		CategoryName: c.Name,
		EventType:    EventTypeCategoryStatusChanged,
		OldStatus:    oldStatus,
		NewStatus:    c.Status,
		EventTime:    time.Now(),
	}
}

// RoutingKey returns the routing key for the event type.
func (e CategoryEvent) RoutingKey() string {
	if e.EventType == EventTypeCategoryCreated {
		return RoutingKeyCategoryCreated
	}
	return RoutingKeyCategoryStatusChanged
}
