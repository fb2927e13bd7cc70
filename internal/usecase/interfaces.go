package usecase

import (
	"context"
	"time"

	"github.com/iho/stockledger/internal/domain"
)

// StockItemRepository defines data access for stock items.
type StockItemRepository interface {
	Create(ctx context.Context, tx Transaction, item *domain.StockItem) error
	GetByID(ctx context.Context, id string) (*domain.StockItem, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.StockItem, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance, version int64, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.StockItem, error)
	ListBelowMinimum(ctx context.Context, limit, offset int) ([]*domain.StockItem, error)
}

// MovementRepository defines data access for stock movements.
type MovementRepository interface {
	Create(ctx context.Context, tx Transaction, movement *domain.Movement) error
	// ListByItem returns movements with Sequence > afterSequence, oldest first.
	ListByItem(ctx context.Context, itemID string, since *time.Time, afterSequence int64, limit int) ([]*domain.Movement, error)
	// GetLatest returns the movement with the highest sequence, or nil when the item has none.
	GetLatest(ctx context.Context, itemID string) (*domain.Movement, error)
	GetBalanceAtTime(ctx context.Context, itemID string, at time.Time) (int64, error)
}

// PostingRepository defines data access for the financial ledger.
type PostingRepository interface {
	// Append returns domain.ErrDuplicatePosting when the source already has an entry.
	Append(ctx context.Context, entry *domain.PostingEntry) error
	FindBySource(ctx context.Context, sourceKind, sourceID string) (*domain.PostingEntry, error)
	// Query returns entries ordered by OccurredAt then ID, newest first, strictly after the cursor.
	Query(ctx context.Context, filter domain.PostingFilter, after *domain.PostingCursor, limit int) ([]*domain.PostingEntry, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// EventPoster posts a domain event to the financial ledger.
type EventPoster interface {
	Post(ctx context.Context, event domain.DomainEvent, actorID string) (*domain.PostingEntry, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// KeyLocker serialises work on a key across goroutines or processes.
type KeyLocker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations. Entries carry the version they were
// computed from so a slow writer cannot replace a newer value.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// SetIfNewer stores value unless key already holds a value written with a
	// version at or above version. It reports whether value was stored.
	SetIfNewer(ctx context.Context, key string, version int64, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key so the request can be retried.
	Delete(ctx context.Context, key string) error
}
