package domain

import "time"

// Source kinds identify which collaborator produced a posting.
const (
	SourceFuelRecord = "fuel_record"
	SourceTool       = "tool"
	SourceStockEntry = "stock_entry"
	SourceRental     = "rental"
)

// AssetKind distinguishes the assets fuel and rentals refer to.
type AssetKind string

const (
	AssetVehicle   AssetKind = "vehicle"
	AssetMachinery AssetKind = "machinery"
)

// AssetRef points at a vehicle or machine owned by another module.
type AssetRef struct {
	Kind AssetKind
	ID   string
}

// DomainEvent is a completed business action eligible for financial posting.
// The set of implementations is closed: FuelPurchased, ToolPurchased,
// StockEntered and RentalCreated.
type DomainEvent interface {
	SourceKind() string
	SourceID() string
	OccurredOn() time.Time
	domainEvent()
}

// FuelPurchased is emitted when a fuel purchase record is created.
type FuelPurchased struct {
	OccurredAt   time.Time
	Item         AssetRef
	FuelRecordID string
	Quantity     float64
	UnitPrice    float64
}

func (e FuelPurchased) SourceKind() string    { return SourceFuelRecord }
func (e FuelPurchased) SourceID() string      { return e.FuelRecordID }
func (e FuelPurchased) OccurredOn() time.Time { return e.OccurredAt }
func (FuelPurchased) domainEvent()            {}

// ToolPurchased is emitted when a tool is registered with a purchase price.
type ToolPurchased struct {
	OccurredAt time.Time
	Price      *float64
	ToolID     string
	Name       string
}

func (e ToolPurchased) SourceKind() string    { return SourceTool }
func (e ToolPurchased) SourceID() string      { return e.ToolID }
func (e ToolPurchased) OccurredOn() time.Time { return e.OccurredAt }
func (ToolPurchased) domainEvent()            {}

// StockEntered is emitted for initial part stock and for priced inbound movements.
type StockEntered struct {
	OccurredAt time.Time
	UnitPrice  *float64
	MovementID string
	ItemID     string
	ItemName   string
	Reason     string
	Quantity   int64
}

func (e StockEntered) SourceKind() string    { return SourceStockEntry }
func (e StockEntered) SourceID() string      { return e.MovementID }
func (e StockEntered) OccurredOn() time.Time { return e.OccurredAt }
func (StockEntered) domainEvent()            {}

// RentalCreated is emitted when an equipment rental is created.
type RentalCreated struct {
	StartDate     time.Time
	EndDate       time.Time
	OccurredAt    time.Time
	TransportCost *float64
	Equipment     AssetRef
	RentalID      string
	Customer      string
	DailyRate     float64
}

func (e RentalCreated) SourceKind() string    { return SourceRental }
func (e RentalCreated) SourceID() string      { return e.RentalID }
func (e RentalCreated) OccurredOn() time.Time { return e.OccurredAt }
func (RentalCreated) domainEvent()            {}
