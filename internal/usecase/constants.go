package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultPostingTimeout bounds the secondary financial posting of an operation.
	DefaultPostingTimeout = 5 * time.Second

	// DefaultBalanceCacheTTL is how long a current balance stays cached
	DefaultBalanceCacheTTL = 30 * time.Second

	// historyPageSize is the number of rows fetched per page by lazy sequences.
	historyPageSize = 200

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
