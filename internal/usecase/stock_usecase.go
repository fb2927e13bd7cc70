package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
)

// StockUseCase owns stock items and their movement history.
type StockUseCase struct {
	txManager    TransactionManager
	itemRepo     StockItemRepository
	movementRepo MovementRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	retrier      Retrier
	cache        Cache
	cacheTTL     time.Duration
	metrics      *metrics.Metrics
}

// NewStockUseCase creates a new StockUseCase.
// retrier, cache and metrics may be nil.
func NewStockUseCase(
	txManager TransactionManager,
	itemRepo StockItemRepository,
	movementRepo MovementRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	cache Cache,
	metrics *metrics.Metrics,
) *StockUseCase {
	return &StockUseCase{
		txManager:    txManager,
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		retrier:      retrier,
		cache:        cache,
		cacheTTL:     DefaultBalanceCacheTTL,
		metrics:      metrics,
	}
}

// SetCacheTTL overrides how long balances stay cached.
func (uc *StockUseCase) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		uc.cacheTTL = ttl
	}
}

// RegisterItemInput represents input for registering a stock item.
type RegisterItemInput struct {
	OccurredAt       *time.Time
	MaximumThreshold *int64
	SKU              string
	Name             string
	Unit             string
	ActorID          string
	MinimumThreshold int64
	InitialStock     int64
}

// StockRegistration is the result of registering an item.
// InitialMovement is nil when the item was registered without stock.
type StockRegistration struct {
	Item            *domain.StockItem
	InitialMovement *domain.Movement
}

// RegisterItem creates an item and, if requested, its initial stock movement in one transaction.
func (uc *StockUseCase) RegisterItem(ctx context.Context, input RegisterItemInput) (*StockRegistration, error) {
	if input.InitialStock < 0 {
		return nil, fmt.Errorf("%w: initial stock %d", domain.ErrInvalidQuantity, input.InitialStock)
	}

	now := time.Now().UTC()
	item := &domain.StockItem{
		ID:               uc.idGen.Generate(),
		SKU:              input.SKU,
		Name:             input.Name,
		Unit:             input.Unit,
		MinimumThreshold: input.MinimumThreshold,
		MaximumThreshold: input.MaximumThreshold,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if item.Unit == "" {
		item.Unit = "unit"
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	var result *StockRegistration
	err := uc.retry(ctx, func() error {
		r, err := uc.registerItemTx(ctx, item, input, now)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ItemsRegistered.Inc()
		if result.InitialMovement != nil {
			uc.metrics.MovementsApplied.WithLabelValues(string(domain.MovementInbound)).Inc()
		}
	}

	return result, nil
}

func (uc *StockUseCase) registerItemTx(ctx context.Context, template *domain.StockItem, input RegisterItemInput, now time.Time) (*StockRegistration, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	item := *template
	if err := uc.itemRepo.Create(txCtx, tx, &item); err != nil {
		return nil, err
	}

	if err := uc.emit(txCtx, tx, item.ID, domain.AggregateTypeItem, domain.EventTypeItemRegistered, map[string]any{
		"item_id": item.ID,
		"sku":     item.SKU,
		"name":    item.Name,
	}, now); err != nil {
		return nil, err
	}

	result := &StockRegistration{Item: &item}

	if input.InitialStock > 0 {
		occurredAt := now
		if input.OccurredAt != nil {
			occurredAt = input.OccurredAt.UTC()
		}

		movement, err := uc.appendMovement(txCtx, tx, &item, ApplyMovementInput{
			ItemID:     item.ID,
			Kind:       domain.MovementInbound,
			Quantity:   input.InitialStock,
			ReasonCode: domain.ReasonInitialStock,
			Reason:     "initial stock",
			ActorID:    input.ActorID,
			OccurredAt: &occurredAt,
		}, now)
		if err != nil {
			return nil, err
		}
		result.InitialMovement = movement
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return result, nil
}

// ApplyMovementInput represents input for applying a stock movement.
type ApplyMovementInput struct {
	OccurredAt  *time.Time
	ItemID      string
	Kind        domain.MovementKind
	ReasonCode  string
	Reason      string
	ReferenceID string
	ActorID     string
	Quantity    int64
}

// ApplyMovement records a movement and updates the item balance atomically.
// On error nothing is recorded.
func (uc *StockUseCase) ApplyMovement(ctx context.Context, input ApplyMovementInput) (*domain.Movement, error) {
	start := time.Now()

	if !input.Kind.IsValid() {
		return nil, uc.movementError(fmt.Errorf("%w: %q", domain.ErrInvalidMovementKind, input.Kind))
	}
	if err := domain.ValidateReason(input.Reason); err != nil {
		return nil, uc.movementError(err)
	}

	var movement *domain.Movement
	err := uc.retry(ctx, func() error {
		m, err := uc.applyMovementTx(ctx, input)
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, uc.movementError(err)
	}

	uc.publishBalance(ctx, movement.ItemID, movement.Sequence, movement.ResultingBalance)

	if uc.metrics != nil {
		uc.metrics.MovementsApplied.WithLabelValues(string(movement.Kind)).Inc()
		uc.metrics.MovementDuration.Observe(time.Since(start).Seconds())
		if movement.Clamped() {
			uc.metrics.MovementsClamped.Inc()
		}
	}

	return movement, nil
}

func (uc *StockUseCase) applyMovementTx(ctx context.Context, input ApplyMovementInput) (*domain.Movement, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	item, err := uc.itemRepo.GetByIDForUpdate(txCtx, tx, input.ItemID)
	if err != nil {
		return nil, err
	}

	movement, err := uc.appendMovement(txCtx, tx, item, input, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return movement, nil
}

// appendMovement applies input to a locked item inside tx and updates item in place.
func (uc *StockUseCase) appendMovement(ctx context.Context, tx Transaction, item *domain.StockItem, input ApplyMovementInput, now time.Time) (*domain.Movement, error) {
	delta, resulting, err := domain.ApplyMovement(item.Balance, input.Kind, input.Quantity)
	if err != nil {
		return nil, err
	}

	occurredAt := now
	if input.OccurredAt != nil {
		occurredAt = input.OccurredAt.UTC()
	}

	wasBelow := item.BelowMinimum()

	movement := &domain.Movement{
		ID:                uc.idGen.Generate(),
		ItemID:            item.ID,
		Sequence:          item.Version + 1,
		Kind:              input.Kind,
		RequestedQuantity: input.Quantity,
		QuantityDelta:     delta,
		ReasonCode:        input.ReasonCode,
		Reason:            input.Reason,
		ReferenceID:       input.ReferenceID,
		PreviousBalance:   item.Balance,
		ResultingBalance:  resulting,
		ActorID:           input.ActorID,
		OccurredAt:        occurredAt,
		CreatedAt:         now,
	}

	if err := uc.movementRepo.Create(ctx, tx, movement); err != nil {
		return nil, err
	}

	if err := uc.itemRepo.UpdateBalance(ctx, tx, item.ID, resulting, movement.Sequence, now); err != nil {
		return nil, err
	}

	item.Balance = resulting
	item.Version = movement.Sequence
	item.UpdatedAt = now

	if err := uc.emit(ctx, tx, item.ID, domain.AggregateTypeItem, domain.EventTypeMovementApplied, map[string]any{
		"movement_id":       movement.ID,
		"item_id":           item.ID,
		"kind":              string(movement.Kind),
		"sequence":          movement.Sequence,
		"quantity_delta":    movement.QuantityDelta,
		"resulting_balance": movement.ResultingBalance,
		"event_at":          occurredAt.Format(time.RFC3339),
	}, now); err != nil {
		return nil, err
	}

	if !wasBelow && item.BelowMinimum() {
		if err := uc.emit(ctx, tx, item.ID, domain.AggregateTypeItem, domain.EventTypeBelowMinimum, map[string]any{
			"item_id":           item.ID,
			"name":              item.Name,
			"balance":           item.Balance,
			"minimum_threshold": item.MinimumThreshold,
		}, now); err != nil {
			return nil, err
		}
		if uc.metrics != nil {
			uc.metrics.ItemsBelowMin.Inc()
		}
	}

	return movement, nil
}

func (uc *StockUseCase) emit(ctx context.Context, tx Transaction, aggregateID, aggregateType, eventType string, payload map[string]any, now time.Time) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	})
}

// CurrentBalance returns the resulting balance of the item's latest movement.
func (uc *StockUseCase) CurrentBalance(ctx context.Context, itemID string) (int64, error) {
	if balance, ok := uc.cachedBalance(ctx, itemID); ok {
		return balance, nil
	}

	latest, err := uc.movementRepo.GetLatest(ctx, itemID)
	if err != nil {
		return 0, err
	}

	var balance, sequence int64
	if latest != nil {
		balance, sequence = latest.ResultingBalance, latest.Sequence
	} else if _, err := uc.itemRepo.GetByID(ctx, itemID); err != nil {
		return 0, err
	}

	// A movement committed after GetLatest carries a higher sequence, so this
	// write loses against the value its writer published.
	if uc.cache != nil {
		_, _ = uc.cache.SetIfNewer(ctx, balanceCacheKey(itemID), sequence, []byte(strconv.FormatInt(balance, 10)), uc.cacheTTL)
	}

	return balance, nil
}

// BalanceAt returns the balance as recorded at the given instant.
func (uc *StockUseCase) BalanceAt(ctx context.Context, itemID string, at time.Time) (int64, error) {
	if _, err := uc.itemRepo.GetByID(ctx, itemID); err != nil {
		return 0, err
	}

	return uc.movementRepo.GetBalanceAtTime(ctx, itemID, at)
}

// History returns the item's movements oldest first, optionally only those
// that occurred at or after since. The sequence is read lazily in pages and
// can be ranged over more than once.
func (uc *StockUseCase) History(ctx context.Context, itemID string, since *time.Time) iter.Seq2[*domain.Movement, error] {
	return func(yield func(*domain.Movement, error) bool) {
		if _, err := uc.itemRepo.GetByID(ctx, itemID); err != nil {
			yield(nil, err)
			return
		}

		var after int64
		for {
			page, err := uc.movementRepo.ListByItem(ctx, itemID, since, after, historyPageSize)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, m := range page {
				if !yield(m, nil) {
					return
				}
				after = m.Sequence
			}

			if len(page) < historyPageSize {
				return
			}
		}
	}
}

// GetItem retrieves a stock item by ID.
func (uc *StockUseCase) GetItem(ctx context.Context, id string) (*domain.StockItem, error) {
	return uc.itemRepo.GetByID(ctx, id)
}

// ListItemsInput represents input for listing items.
type ListItemsInput struct {
	Limit  int
	Offset int
}

// ListItems lists items with pagination.
func (uc *StockUseCase) ListItems(ctx context.Context, input ListItemsInput) ([]*domain.StockItem, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.itemRepo.List(ctx, limit, offset)
}

// ListBelowMinimum lists items whose balance is under their minimum threshold.
func (uc *StockUseCase) ListBelowMinimum(ctx context.Context, input ListItemsInput) ([]*domain.StockItem, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.itemRepo.ListBelowMinimum(ctx, limit, offset)
}

func (uc *StockUseCase) retry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}
	return uc.retrier.Retry(ctx, op)
}

func (uc *StockUseCase) cachedBalance(ctx context.Context, itemID string) (int64, bool) {
	if uc.cache == nil {
		return 0, false
	}

	raw, err := uc.cache.Get(ctx, balanceCacheKey(itemID))
	if err != nil || raw == nil {
		if uc.metrics != nil {
			uc.metrics.BalanceCacheMisses.Inc()
		}
		return 0, false
	}

	balance, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false
	}

	if uc.metrics != nil {
		uc.metrics.BalanceCacheHits.Inc()
	}
	return balance, true
}

// publishBalance caches the balance produced by a committed movement. When the
// write fails the entry is dropped so readers fall back to the ledger.
func (uc *StockUseCase) publishBalance(ctx context.Context, itemID string, sequence, balance int64) {
	if uc.cache == nil {
		return
	}
	key := balanceCacheKey(itemID)
	if _, err := uc.cache.SetIfNewer(ctx, key, sequence, []byte(strconv.FormatInt(balance, 10)), uc.cacheTTL); err != nil {
		_ = uc.cache.Delete(ctx, key)
	}
}

func (uc *StockUseCase) movementError(err error) error {
	if uc.metrics != nil {
		uc.metrics.MovementErrors.WithLabelValues(errorType(err)).Inc()
	}
	return err
}

func balanceCacheKey(itemID string) string {
	return "stock:balance:" + itemID
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrNegativeResultingBalance):
		return "negative_balance"
	case errors.Is(err, domain.ErrInvalidMovementKind):
		return "invalid_kind"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}
