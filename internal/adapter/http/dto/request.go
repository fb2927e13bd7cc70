package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// ErrMissingField is returned when a required request field is empty.
var ErrMissingField = errors.New("missing required field")

// RegisterItemRequest represents a request to register a part.
type RegisterItemRequest struct {
	OccurredAt       *time.Time `json:"occurred_at,omitempty"`
	MaximumThreshold *int64     `json:"maximum_threshold,omitempty"`
	UnitPrice        *float64   `json:"unit_price,omitempty"`
	SKU              string     `json:"sku"`
	Name             string     `json:"name"`
	Unit             string     `json:"unit"`
	MinimumThreshold int64      `json:"minimum_threshold"`
	InitialStock     int64      `json:"initial_stock"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterItemRequest) ToUseCaseInput(actorID string) usecase.RegisterPartInput {
	return usecase.RegisterPartInput{
		RegisterItemInput: usecase.RegisterItemInput{
			OccurredAt:       r.OccurredAt,
			MaximumThreshold: r.MaximumThreshold,
			SKU:              r.SKU,
			Name:             r.Name,
			Unit:             r.Unit,
			ActorID:          actorID,
			MinimumThreshold: r.MinimumThreshold,
			InitialStock:     r.InitialStock,
		},
		UnitPrice: r.UnitPrice,
	}
}

// MovementRequest represents a request to apply a stock movement.
// Kind accepts the canonical names and the collaborator aliases.
type MovementRequest struct {
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
	UnitPrice   *float64   `json:"unit_price,omitempty"`
	Kind        string     `json:"kind"`
	ReasonCode  string     `json:"reason_code,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	ReferenceID string     `json:"reference_id,omitempty"`
	Quantity    int64      `json:"quantity"`
}

// ToUseCaseInput converts to use case input.
func (r *MovementRequest) ToUseCaseInput(itemID, actorID string) (usecase.RecordMovementInput, error) {
	kind, err := domain.ParseMovementKind(r.Kind)
	if err != nil {
		return usecase.RecordMovementInput{}, err
	}

	return usecase.RecordMovementInput{
		ApplyMovementInput: usecase.ApplyMovementInput{
			OccurredAt:  r.OccurredAt,
			ItemID:      itemID,
			Kind:        kind,
			ReasonCode:  r.ReasonCode,
			Reason:      r.Reason,
			ReferenceID: r.ReferenceID,
			ActorID:     actorID,
			Quantity:    r.Quantity,
		},
		UnitPrice: r.UnitPrice,
	}, nil
}

// AssetRefRequest points at a vehicle or a machine.
type AssetRefRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func (a AssetRefRequest) toDomain() domain.AssetRef {
	return domain.AssetRef{Kind: domain.AssetKind(a.Kind), ID: a.ID}
}

// FuelPurchaseRequest reports a fuel record created by the fuel module.
type FuelPurchaseRequest struct {
	OccurredAt   time.Time       `json:"occurred_at"`
	Asset        AssetRefRequest `json:"asset"`
	FuelRecordID string          `json:"fuel_record_id"`
	Quantity     LenientFloat    `json:"quantity"`
	UnitPrice    LenientFloat    `json:"unit_price"`
}

// LenientFloat decodes a JSON number or numeric string. Anything else decodes
// as NaN, so the record is accepted and fails cost derivation instead of
// being rejected as a malformed request.
type LenientFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *LenientFloat) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		if v, err := n.Float64(); err == nil {
			*f = LenientFloat(v)
			return nil
		}
	}
	*f = LenientFloat(math.NaN())
	return nil
}

// ToDomainEvent converts to the domain event.
func (r *FuelPurchaseRequest) ToDomainEvent() (domain.FuelPurchased, error) {
	if r.FuelRecordID == "" {
		return domain.FuelPurchased{}, fmt.Errorf("%w: fuel_record_id", ErrMissingField)
	}

	return domain.FuelPurchased{
		OccurredAt:   occurredOrNow(r.OccurredAt),
		Item:         r.Asset.toDomain(),
		FuelRecordID: r.FuelRecordID,
		Quantity:     float64(r.Quantity),
		UnitPrice:    float64(r.UnitPrice),
	}, nil
}

// ToolPurchaseRequest reports a tool registered by the tools module.
type ToolPurchaseRequest struct {
	OccurredAt time.Time `json:"occurred_at"`
	Price      *float64  `json:"price,omitempty"`
	ToolID     string    `json:"tool_id"`
	Name       string    `json:"name"`
}

// ToDomainEvent converts to the domain event.
func (r *ToolPurchaseRequest) ToDomainEvent() (domain.ToolPurchased, error) {
	if r.ToolID == "" {
		return domain.ToolPurchased{}, fmt.Errorf("%w: tool_id", ErrMissingField)
	}

	return domain.ToolPurchased{
		OccurredAt: occurredOrNow(r.OccurredAt),
		Price:      r.Price,
		ToolID:     r.ToolID,
		Name:       r.Name,
	}, nil
}

// RentalRequest reports a rental created by the rentals module.
type RentalRequest struct {
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	OccurredAt    time.Time       `json:"occurred_at"`
	TransportCost *float64        `json:"transport_cost,omitempty"`
	Equipment     AssetRefRequest `json:"equipment"`
	RentalID      string          `json:"rental_id"`
	Customer      string          `json:"customer"`
	DailyRate     float64         `json:"daily_rate"`
}

// ToDomainEvent converts to the domain event.
func (r *RentalRequest) ToDomainEvent() (domain.RentalCreated, error) {
	if r.RentalID == "" {
		return domain.RentalCreated{}, fmt.Errorf("%w: rental_id", ErrMissingField)
	}

	return domain.RentalCreated{
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		OccurredAt:    occurredOrNow(r.OccurredAt),
		TransportCost: r.TransportCost,
		Equipment:     r.Equipment.toDomain(),
		RentalID:      r.RentalID,
		Customer:      r.Customer,
		DailyRate:     r.DailyRate,
	}, nil
}

func occurredOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
