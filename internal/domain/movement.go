package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MovementKind classifies a stock movement.
type MovementKind string

const (
	MovementInbound    MovementKind = "inbound"
	MovementOutbound   MovementKind = "outbound"
	MovementAdjustment MovementKind = "adjustment"
	MovementTransfer   MovementKind = "transfer"
)

// Reason codes recorded by the ledger itself.
const (
	ReasonInitialStock = "initial_stock"
	ReasonPurchase     = "purchase"
	ReasonConsumption  = "consumption"
	ReasonCorrection   = "correction"
)

// kindAliases maps the names used by collaborating modules onto movement kinds.
var kindAliases = map[string]MovementKind{
	"inbound":       MovementInbound,
	"in":            MovementInbound,
	"entrada":       MovementInbound,
	"outbound":      MovementOutbound,
	"out":           MovementOutbound,
	"saida":         MovementOutbound,
	"saída":         MovementOutbound,
	"adjustment":    MovementAdjustment,
	"adjust":        MovementAdjustment,
	"ajuste":        MovementAdjustment,
	"transfer":      MovementTransfer,
	"transferencia": MovementTransfer,
	"transferência": MovementTransfer,
}

// ParseMovementKind resolves a movement kind from its canonical name or a collaborator alias.
func ParseMovementKind(s string) (MovementKind, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMovementKind, s)
	}
	return kind, nil
}

// IsValid reports whether k is one of the known kinds.
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementInbound, MovementOutbound, MovementAdjustment, MovementTransfer:
		return true
	}
	return false
}

// Movement is an immutable record of a stock quantity change.
//
// QuantityDelta is the effective signed change, which differs from
// RequestedQuantity when an outbound movement is clamped at zero or when
// the movement is an adjustment to an absolute target.
type Movement struct {
	OccurredAt        time.Time
	CreatedAt         time.Time
	ID                string
	ItemID            string
	Kind              MovementKind
	ReasonCode        string
	Reason            string
	ReferenceID       string
	ActorID           string
	Sequence          int64
	RequestedQuantity int64
	QuantityDelta     int64
	PreviousBalance   int64
	ResultingBalance  int64
}

// Clamped reports whether the effective delta is smaller than requested.
func (m *Movement) Clamped() bool {
	switch m.Kind {
	case MovementOutbound, MovementTransfer:
		return -m.QuantityDelta < m.RequestedQuantity
	}
	return false
}

// ApplyMovement computes the effective delta and resulting balance of applying
// a movement of the given kind to previous.
//
// Outbound and transfer movements are clamped at zero. For adjustments,
// quantity is the new absolute balance.
func ApplyMovement(previous int64, kind MovementKind, quantity int64) (delta, resulting int64, err error) {
	switch kind {
	case MovementInbound:
		if quantity <= 0 {
			return 0, 0, ErrInvalidQuantity
		}
		if quantity > math.MaxInt64-previous {
			return 0, 0, fmt.Errorf("%w: balance %d cannot absorb %d more", ErrInvalidQuantity, previous, quantity)
		}
		resulting = previous + quantity
	case MovementOutbound, MovementTransfer:
		if quantity <= 0 {
			return 0, 0, ErrInvalidQuantity
		}
		resulting = max(0, previous-quantity)
	case MovementAdjustment:
		if quantity < 0 {
			return 0, 0, ErrNegativeResultingBalance
		}
		resulting = quantity
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMovementKind, kind)
	}

	return resulting - previous, resulting, nil
}

// FoldMovements replays movements in order and returns the resulting balance.
// It returns the index of the first movement whose previous balance does not
// chain from its predecessor, or -1 when the chain is intact.
func FoldMovements(movements []*Movement) (balance int64, brokenAt int) {
	brokenAt = -1
	for i, m := range movements {
		if m.PreviousBalance != balance && brokenAt < 0 {
			brokenAt = i
		}
		balance += m.QuantityDelta
	}
	return balance, brokenAt
}
