package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Period is the bucket size of a period summary.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name, defaulting to month.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodDay:
		return PeriodDay, nil
	}
	return "", fmt.Errorf("invalid period %q", s)
}

// Bucket returns the start of the period containing t, in UTC.
func (p Period) Bucket(t time.Time) time.Time {
	t = t.UTC()
	if p == PeriodDay {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// CategoryTotal aggregates postings of one category and direction.
type CategoryTotal struct {
	Category  string
	Direction Direction
	Total     decimal.Decimal
	Count     int
}

// PeriodTotal aggregates postings falling into one period.
type PeriodTotal struct {
	Start   time.Time
	Inflow  decimal.Decimal
	Outflow decimal.Decimal
	Net     decimal.Decimal
	Count   int
}

// SumByCategory folds postings into per-category totals sorted by category name.
func SumByCategory(entries []*PostingEntry) []CategoryTotal {
	type key struct {
		category  string
		direction Direction
	}
	totals := make(map[key]*CategoryTotal)
	for _, e := range entries {
		k := key{e.Category, e.Direction}
		t, ok := totals[k]
		if !ok {
			t = &CategoryTotal{Category: e.Category, Direction: e.Direction, Total: decimal.Zero}
			totals[k] = t
		}
		t.Total = t.Total.Add(e.Amount)
		t.Count++
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Direction < out[j].Direction
	})
	return out
}

// SumByPeriod folds postings into per-period inflow/outflow totals, oldest period first.
func SumByPeriod(entries []*PostingEntry, period Period) []PeriodTotal {
	totals := make(map[time.Time]*PeriodTotal)
	for _, e := range entries {
		start := period.Bucket(e.OccurredAt)
		t, ok := totals[start]
		if !ok {
			t = &PeriodTotal{Start: start, Inflow: decimal.Zero, Outflow: decimal.Zero}
			totals[start] = t
		}
		if e.Direction == DirectionInflow {
			t.Inflow = t.Inflow.Add(e.Amount)
		} else {
			t.Outflow = t.Outflow.Add(e.Amount)
		}
		t.Count++
	}

	out := make([]PeriodTotal, 0, len(totals))
	for _, t := range totals {
		t.Net = t.Inflow.Sub(t.Outflow)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
