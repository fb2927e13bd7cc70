package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const amountPlaces = 2

// FuelCost returns quantity × unitPrice.
func FuelCost(quantity, unitPrice float64) (decimal.Decimal, error) {
	if !positiveFinite(quantity) {
		return decimal.Zero, fmt.Errorf("%w: fuel quantity %v", ErrInvalidAmount, quantity)
	}
	if !positiveFinite(unitPrice) {
		return decimal.Zero, fmt.Errorf("%w: fuel unit price %v", ErrInvalidAmount, unitPrice)
	}

	return decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(unitPrice)).Round(amountPlaces), nil
}

// ToolCost returns the purchase price. A tool with an unknown or
// non-positive price is not financially recorded.
func ToolCost(price *float64) (decimal.Decimal, error) {
	if price == nil {
		return decimal.Zero, ErrNoPriceAvailable
	}
	if math.IsNaN(*price) || math.IsInf(*price, 0) {
		return decimal.Zero, fmt.Errorf("%w: tool price %v", ErrInvalidAmount, *price)
	}
	if *price <= 0 {
		return decimal.Zero, ErrNoPriceAvailable
	}

	return decimal.NewFromFloat(*price).Round(amountPlaces), nil
}

// StockEntryCost returns quantity × unitPrice for incoming part stock.
func StockEntryCost(quantity int64, unitPrice *float64) (decimal.Decimal, error) {
	if unitPrice == nil {
		return decimal.Zero, ErrNoPriceAvailable
	}
	if math.IsNaN(*unitPrice) || math.IsInf(*unitPrice, 0) {
		return decimal.Zero, fmt.Errorf("%w: unit price %v", ErrInvalidAmount, *unitPrice)
	}
	if *unitPrice <= 0 {
		return decimal.Zero, ErrNoPriceAvailable
	}
	if quantity <= 0 {
		return decimal.Zero, fmt.Errorf("%w: stock quantity %d", ErrInvalidAmount, quantity)
	}

	return decimal.NewFromInt(quantity).Mul(decimal.NewFromFloat(*unitPrice)).Round(amountPlaces), nil
}

// RentalDays counts the billed days of a rental, inclusive of both the start
// and the end day: the duration rounded up to whole days, plus one.
func RentalDays(start, end time.Time) (int64, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("%w: rental ends before it starts", ErrInvalidAmount)
	}

	d := end.Sub(start)
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}

	return days + 1, nil
}

// RentalCost returns RentalDays × dailyRate + transportCost.
// A missing transport cost counts as zero.
func RentalCost(start, end time.Time, dailyRate float64, transportCost *float64) (decimal.Decimal, error) {
	days, err := RentalDays(start, end)
	if err != nil {
		return decimal.Zero, err
	}
	if !nonNegativeFinite(dailyRate) {
		return decimal.Zero, fmt.Errorf("%w: daily rate %v", ErrInvalidAmount, dailyRate)
	}

	transport := decimal.Zero
	if transportCost != nil {
		if !nonNegativeFinite(*transportCost) {
			return decimal.Zero, fmt.Errorf("%w: transport cost %v", ErrInvalidAmount, *transportCost)
		}
		transport = decimal.NewFromFloat(*transportCost)
	}

	amount := decimal.NewFromInt(days).Mul(decimal.NewFromFloat(dailyRate)).Add(transport).Round(amountPlaces)
	if !amount.IsPositive() {
		return decimal.Zero, ErrNoPriceAvailable
	}

	return amount, nil
}

// DeriveCost computes the monetary amount of an event.
// It returns ErrNoPriceAvailable when the event does not warrant a posting.
func DeriveCost(event DomainEvent) (decimal.Decimal, error) {
	switch e := event.(type) {
	case FuelPurchased:
		return FuelCost(e.Quantity, e.UnitPrice)
	case ToolPurchased:
		return ToolCost(e.Price)
	case StockEntered:
		return StockEntryCost(e.Quantity, e.UnitPrice)
	case RentalCreated:
		return RentalCost(e.StartDate, e.EndDate, e.DailyRate, e.TransportCost)
	default:
		return decimal.Zero, fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}
}

func positiveFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f > 0
}

func nonNegativeFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}
