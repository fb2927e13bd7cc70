package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validation constants
const (
	MaxItemNameLength = 255
	MaxSKULength      = 64
	MaxReasonLength   = 500
	MaxPageSize       = 1000
	DefaultPageSize   = 50
)

// ValidateItemName validates a stock item name.
func ValidateItemName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidItem)
	}

	if utf8.RuneCountInString(name) > MaxItemNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidItem, MaxItemNameLength)
	}

	return nil
}

// ValidateSKU validates an optional stock keeping unit code.
func ValidateSKU(sku string) error {
	if utf8.RuneCountInString(sku) > MaxSKULength {
		return fmt.Errorf("%w: sku exceeds %d characters", ErrInvalidItem, MaxSKULength)
	}
	if strings.ContainsAny(sku, " \t\n") {
		return fmt.Errorf("%w: sku cannot contain whitespace", ErrInvalidItem)
	}
	return nil
}

// ValidateReason limits the free-text reason of a movement.
func ValidateReason(reason string) error {
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidMovement, MaxReasonLength)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
