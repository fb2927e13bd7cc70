package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the sign of a financial posting.
type Direction string

const (
	DirectionInflow  Direction = "inflow"
	DirectionOutflow Direction = "outflow"
)

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == DirectionInflow || d == DirectionOutflow
}

// Posting categories.
const (
	CategoryFuel          = "Fuel"
	CategoryToolsPurchase = "Tools Purchase"
	CategoryPartsPurchase = "Parts Purchase"
	CategoryRentals       = "Rentals"
)

// PostingEntry is an immutable financial mirror of one domain event.
// There is at most one entry per (SourceKind, SourceID).
type PostingEntry struct {
	OccurredAt time.Time
	CreatedAt  time.Time
	ID         string
	Direction  Direction
	Category   string
	SourceKind string
	SourceID   string
	Narrative  string
	ActorID    string
	Amount     decimal.Decimal
}

// SourceKey returns the idempotency key of the entry.
func (p *PostingEntry) SourceKey() string {
	return SourceKey(p.SourceKind, p.SourceID)
}

// Validate checks the invariants of a posting before it is appended.
func (p *PostingEntry) Validate() error {
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, p.Amount)
	}
	if !p.Direction.IsValid() {
		return fmt.Errorf("%w: direction %q", ErrDerivation, p.Direction)
	}
	if p.SourceKind == "" || p.SourceID == "" {
		return fmt.Errorf("%w: missing source", ErrDerivation)
	}
	return nil
}

// SourceKey joins a source kind and id into a single idempotency key.
func SourceKey(kind, id string) string {
	return kind + ":" + id
}

// PostingFilter narrows a financial ledger query. Zero values match everything.
type PostingFilter struct {
	From      *time.Time
	To        *time.Time
	Category  string
	Direction Direction
}

// Matches reports whether p satisfies the filter. To is exclusive.
func (f PostingFilter) Matches(p *PostingEntry) bool {
	if f.From != nil && p.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !p.OccurredAt.Before(*f.To) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Direction != "" && p.Direction != f.Direction {
		return false
	}
	return true
}

// PostingCursor marks a position in the newest-first posting order.
type PostingCursor struct {
	OccurredAt time.Time
	ID         string
}

// CursorOf returns the cursor positioned at p.
func CursorOf(p *PostingEntry) *PostingCursor {
	return &PostingCursor{OccurredAt: p.OccurredAt, ID: p.ID}
}

// Admits reports whether p sorts strictly after the cursor in newest-first order.
// A nil cursor admits every entry.
func (c *PostingCursor) Admits(p *PostingEntry) bool {
	if c == nil {
		return true
	}
	if p.OccurredAt.Equal(c.OccurredAt) {
		return p.ID < c.ID
	}
	return p.OccurredAt.Before(c.OccurredAt)
}
