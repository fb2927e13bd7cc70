package domain

import "errors"

var (
	// Stock errors
	ErrItemNotFound             = errors.New("stock item not found")
	ErrInvalidItem              = errors.New("invalid stock item")
	ErrInvalidQuantity          = errors.New("quantity must be a positive integer")
	ErrInvalidMovementKind      = errors.New("invalid movement kind")
	ErrInvalidMovement          = errors.New("invalid movement")
	ErrNegativeResultingBalance = errors.New("resulting balance cannot be negative")

	// Posting errors
	ErrDuplicatePosting = errors.New("posting already exists for source")
	ErrPostingNotFound  = errors.New("posting not found")
	ErrNoPriceAvailable = errors.New("no price available for posting")
	ErrInvalidAmount    = errors.New("amount must be a finite positive number")
	ErrDerivation       = errors.New("cannot derive posting amount")
	ErrUnknownEvent     = errors.New("unknown domain event")
)
