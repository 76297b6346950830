package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCustomerCreated   EventType = "customer_created"
	EventCustomerUpdated   EventType = "customer_updated"
	EventCustomerDeleted   EventType = "customer_deleted"
	EventCustomersImported EventType = "customers_imported"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	CustomerID int64       `json:"customer_id,omitempty"`
	Actor      string      `json:"actor,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload,omitempty"`
}

// NewEvent stamps a new event with an id and the current time.
func NewEvent(eventType EventType, customerID int64, actor string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		CustomerID: customerID,
		Actor:      actor,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// CustomersImportedPayload payload.
type CustomersImportedPayload struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}
