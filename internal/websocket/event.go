package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventTypeStateChanged  EventType = "state_changed"
	EventTypeCommitted     EventType = "committed"
	EventTypeRecategorized EventType = "recategorized"
	EventTypeDeleted       EventType = "deleted"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeImportJob   EntityType = "import_job"
	EntityTypeTransaction EntityType = "transaction"
	EntityTypeLedger      EntityType = "ledger"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "import_job.state_changed"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "import_job"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ImportJobStateChanged creates an import_job.state_changed event
func ImportJobStateChanged(payload interface{}) Event {
	return NewEvent(EventTypeStateChanged, EntityTypeImportJob, payload)
}

// LedgerCommitted creates a ledger.committed event
func LedgerCommitted(payload interface{}) Event {
	return NewEvent(EventTypeCommitted, EntityTypeLedger, payload)
}

// TransactionRecategorized creates a transaction.recategorized event
func TransactionRecategorized(payload interface{}) Event {
	return NewEvent(EventTypeRecategorized, EntityTypeTransaction, payload)
}

// TransactionDeleted creates a transaction.deleted event
func TransactionDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeTransaction, payload)
}

// LedgerCleared creates a ledger.deleted event for a full ledger wipe
func LedgerCleared(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeLedger, payload)
}
