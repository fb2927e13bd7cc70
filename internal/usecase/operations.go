package usecase

import (
	"context"

	"github.com/iho/stockledger/internal/domain"
)

// Operations are the business operations that combine a primary write with
// its financial posting.
type Operations struct {
	stock       *StockUseCase
	coordinator *Coordinator
}

// NewOperations creates a new Operations.
func NewOperations(stock *StockUseCase, coordinator *Coordinator) *Operations {
	return &Operations{
		stock:       stock,
		coordinator: coordinator,
	}
}

// RegisterPartInput registers a part with optional priced initial stock.
type RegisterPartInput struct {
	RegisterItemInput
	UnitPrice *float64
}

// RegisterPart registers the item and posts its initial stock as a parts purchase.
func (o *Operations) RegisterPart(ctx context.Context, input RegisterPartInput) (Result[*StockRegistration], error) {
	return Execute(ctx, o.coordinator, input.ActorID,
		func(ctx context.Context) (*StockRegistration, error) {
			return o.stock.RegisterItem(ctx, input.RegisterItemInput)
		},
		func(reg *StockRegistration) (domain.DomainEvent, bool) {
			if reg.InitialMovement == nil {
				return nil, false
			}
			return stockEntered(reg.Item, reg.InitialMovement, input.UnitPrice), true
		},
	)
}

// RecordMovementInput applies a movement; inbound movements may carry a unit price.
type RecordMovementInput struct {
	ApplyMovementInput
	UnitPrice *float64
}

// RecordStockMovement applies the movement and posts priced inbound stock.
func (o *Operations) RecordStockMovement(ctx context.Context, input RecordMovementInput) (Result[*domain.Movement], error) {
	return Execute(ctx, o.coordinator, input.ActorID,
		func(ctx context.Context) (*domain.Movement, error) {
			return o.stock.ApplyMovement(ctx, input.ApplyMovementInput)
		},
		func(m *domain.Movement) (domain.DomainEvent, bool) {
			if m.Kind != domain.MovementInbound || input.UnitPrice == nil {
				return nil, false
			}
			item, err := o.stock.GetItem(ctx, m.ItemID)
			if err != nil {
				item = &domain.StockItem{ID: m.ItemID}
			}
			return stockEntered(item, m, input.UnitPrice), true
		},
	)
}

// RecordFuelPurchase posts a fuel purchase whose record was already created.
// Calling it again with the same event is safe.
func (o *Operations) RecordFuelPurchase(ctx context.Context, event domain.FuelPurchased, actorID string) (*PostingOutcome, error) {
	return o.replay(ctx, event, actorID)
}

// RecordToolPurchase posts a tool purchase whose record was already created.
func (o *Operations) RecordToolPurchase(ctx context.Context, event domain.ToolPurchased, actorID string) (*PostingOutcome, error) {
	return o.replay(ctx, event, actorID)
}

// RecordRental posts the revenue of a rental whose record was already created.
func (o *Operations) RecordRental(ctx context.Context, event domain.RentalCreated, actorID string) (*PostingOutcome, error) {
	return o.replay(ctx, event, actorID)
}

func (o *Operations) replay(ctx context.Context, event domain.DomainEvent, actorID string) (*PostingOutcome, error) {
	result, err := Execute(ctx, o.coordinator, actorID,
		func(context.Context) (domain.DomainEvent, error) { return event, nil },
		func(ev domain.DomainEvent) (domain.DomainEvent, bool) { return ev, true },
	)
	if err != nil {
		return nil, err
	}
	return result.Posting, nil
}

func stockEntered(item *domain.StockItem, m *domain.Movement, unitPrice *float64) domain.StockEntered {
	reason := m.Reason
	if reason == "" {
		reason = m.ReasonCode
	}

	return domain.StockEntered{
		MovementID: m.ID,
		ItemID:     item.ID,
		ItemName:   item.Name,
		Quantity:   m.QuantityDelta,
		UnitPrice:  unitPrice,
		Reason:     reason,
		OccurredAt: m.OccurredAt,
	}
}
