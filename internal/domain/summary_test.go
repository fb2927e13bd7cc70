package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func posting(category string, dir Direction, amount string, at time.Time) *PostingEntry {
	return &PostingEntry{
		Category:   category,
		Direction:  dir,
		Amount:     decimal.RequireFromString(amount),
		OccurredAt: at,
	}
}

func TestSumByCategory(t *testing.T) {
	at := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	entries := []*PostingEntry{
		posting(CategoryFuel, DirectionOutflow, "45", at),
		posting(CategoryFuel, DirectionOutflow, "10.50", at),
		posting(CategoryRentals, DirectionInflow, "350", at),
		posting(CategoryToolsPurchase, DirectionOutflow, "99.99", at),
	}

	got := SumByCategory(entries)
	if len(got) != 3 {
		t.Fatalf("expected 3 totals, got %d", len(got))
	}

	if got[0].Category != CategoryFuel || !got[0].Total.Equal(decimal.RequireFromString("55.5")) || got[0].Count != 2 {
		t.Errorf("unexpected fuel total: %+v", got[0])
	}
	if got[1].Category != CategoryRentals || got[1].Direction != DirectionInflow {
		t.Errorf("unexpected second total: %+v", got[1])
	}
	if got[2].Category != CategoryToolsPurchase {
		t.Errorf("unexpected third total: %+v", got[2])
	}
}

func TestSumByPeriod(t *testing.T) {
	entries := []*PostingEntry{
		posting(CategoryRentals, DirectionInflow, "350", time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)),
		posting(CategoryFuel, DirectionOutflow, "45", time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC)),
		posting(CategoryFuel, DirectionOutflow, "50", time.Date(2024, 2, 14, 8, 0, 0, 0, time.UTC)),
	}

	monthly := SumByPeriod(entries, PeriodMonth)
	if len(monthly) != 2 {
		t.Fatalf("expected 2 months, got %d", len(monthly))
	}
	if !monthly[0].Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected January first, got %s", monthly[0].Start)
	}
	feb := monthly[1]
	if !feb.Inflow.Equal(decimal.NewFromInt(350)) || !feb.Outflow.Equal(decimal.NewFromInt(50)) || !feb.Net.Equal(decimal.NewFromInt(300)) {
		t.Errorf("unexpected February totals: %+v", feb)
	}

	daily := SumByPeriod(entries, PeriodDay)
	if len(daily) != 3 {
		t.Errorf("expected 3 days, got %d", len(daily))
	}
}

func TestParsePeriod(t *testing.T) {
	if p, err := ParsePeriod(""); err != nil || p != PeriodMonth {
		t.Errorf("expected default month, got %q %v", p, err)
	}
	if p, err := ParsePeriod("day"); err != nil || p != PeriodDay {
		t.Errorf("expected day, got %q %v", p, err)
	}
	if _, err := ParsePeriod("fortnight"); err == nil {
		t.Error("expected error for unknown period")
	}
}
