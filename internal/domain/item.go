package domain

import (
	"fmt"
	"time"
)

// StockItem is a tracked item whose quantity-on-hand is owned by the stock ledger.
// Balance is only changed by applying movements.
type StockItem struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	MaximumThreshold *int64
	ID               string
	SKU              string
	Name             string
	Unit             string
	Balance          int64
	MinimumThreshold int64
	Version          int64
}

// Validate checks the registration fields of an item.
func (i *StockItem) Validate() error {
	if err := ValidateItemName(i.Name); err != nil {
		return err
	}

	if err := ValidateSKU(i.SKU); err != nil {
		return err
	}

	if i.MinimumThreshold < 0 {
		return fmt.Errorf("%w: minimum threshold cannot be negative", ErrInvalidItem)
	}

	if i.MaximumThreshold != nil {
		if *i.MaximumThreshold < 0 {
			return fmt.Errorf("%w: maximum threshold cannot be negative", ErrInvalidItem)
		}
		if *i.MaximumThreshold < i.MinimumThreshold {
			return fmt.Errorf("%w: maximum threshold below minimum", ErrInvalidItem)
		}
	}

	return nil
}

// BelowMinimum reports whether the balance is under the minimum threshold.
func (i *StockItem) BelowMinimum() bool {
	return i.Balance < i.MinimumThreshold
}

// AboveMaximum reports whether the balance exceeds the maximum threshold, if one is set.
func (i *StockItem) AboveMaximum() bool {
	return i.MaximumThreshold != nil && i.Balance > *i.MaximumThreshold
}
