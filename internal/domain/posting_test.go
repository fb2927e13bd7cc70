package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPostingEntry_Validate(t *testing.T) {
	valid := func() *PostingEntry {
		return &PostingEntry{
			Direction:  DirectionOutflow,
			Category:   CategoryFuel,
			Amount:     decimal.NewFromInt(45),
			SourceKind: SourceFuelRecord,
			SourceID:   "f-1",
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zero := valid()
	zero.Amount = decimal.Zero
	if err := zero.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	noSource := valid()
	noSource.SourceID = ""
	if err := noSource.Validate(); !errors.Is(err, ErrDerivation) {
		t.Errorf("expected ErrDerivation, got %v", err)
	}

	badDirection := valid()
	badDirection.Direction = "sideways"
	if err := badDirection.Validate(); !errors.Is(err, ErrDerivation) {
		t.Errorf("expected ErrDerivation, got %v", err)
	}
}

func TestPostingFilter_Matches(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	entry := &PostingEntry{
		Category:   CategoryFuel,
		Direction:  DirectionOutflow,
		OccurredAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name   string
		filter PostingFilter
		want   bool
	}{
		{name: "empty filter", filter: PostingFilter{}, want: true},
		{name: "within range", filter: PostingFilter{From: &from, To: &to}, want: true},
		{name: "upper bound exclusive", filter: PostingFilter{To: &entry.OccurredAt}, want: false},
		{name: "category match", filter: PostingFilter{Category: CategoryFuel}, want: true},
		{name: "category mismatch", filter: PostingFilter{Category: CategoryRentals}, want: false},
		{name: "direction mismatch", filter: PostingFilter{Direction: DirectionInflow}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(entry); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEvent_SourceKeys(t *testing.T) {
	events := []struct {
		event DomainEvent
		kind  string
		id    string
	}{
		{FuelPurchased{FuelRecordID: "f-1"}, SourceFuelRecord, "f-1"},
		{ToolPurchased{ToolID: "t-1"}, SourceTool, "t-1"},
		{StockEntered{MovementID: "m-1"}, SourceStockEntry, "m-1"},
		{RentalCreated{RentalID: "r-1"}, SourceRental, "r-1"},
	}

	for _, e := range events {
		if e.event.SourceKind() != e.kind || e.event.SourceID() != e.id {
			t.Errorf("%T: expected %s/%s, got %s/%s", e.event, e.kind, e.id, e.event.SourceKind(), e.event.SourceID())
		}
	}

	if got := SourceKey(SourceRental, "r-1"); got != "rental:r-1" {
		t.Errorf("unexpected source key %q", got)
	}
}
