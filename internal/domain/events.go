package domain

import "time"

// Event types
const (
	EventTypeItemRegistered  = "stock.item_registered"
	EventTypeMovementApplied = "stock.movement_applied"
	EventTypeBelowMinimum    = "stock.below_minimum"
)

// Aggregate types
const (
	AggregateTypeItem = "stock_item"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
