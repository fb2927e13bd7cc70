package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// ItemRepository implements usecase.StockItemRepository.
type ItemRepository struct {
	store *Store
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(store *Store) *ItemRepository {
	return &ItemRepository{store: store}
}

// Create registers an item when the transaction commits.
func (r *ItemRepository) Create(_ context.Context, tx usecase.Transaction, item *domain.StockItem) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	stored := cloneItem(item)
	return t.add(txOp{
		check: func(s *Store) error {
			if _, exists := s.items[stored.ID]; exists {
				return fmt.Errorf("%w: id %s already exists", domain.ErrInvalidItem, stored.ID)
			}
			if stored.SKU != "" {
				if _, exists := s.skus[stored.SKU]; exists {
					return fmt.Errorf("%w: sku %s already registered", domain.ErrInvalidItem, stored.SKU)
				}
			}
			return nil
		},
		apply: func(s *Store) func() {
			s.items[stored.ID] = stored
			if stored.SKU != "" {
				s.skus[stored.SKU] = stored.ID
			}
			return func() {
				delete(s.items, stored.ID)
				if stored.SKU != "" {
					delete(s.skus, stored.SKU)
				}
			}
		},
	})
}

// GetByID retrieves an item by ID.
func (r *ItemRepository) GetByID(_ context.Context, id string) (*domain.StockItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return cloneItem(item), nil
}

// GetByIDForUpdate locks the item for the rest of the transaction and returns it.
func (r *ItemRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.StockItem, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if err := t.lockItem(ctx, id); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// UpdateBalance sets the balance and version when the transaction commits.
func (r *ItemRepository) UpdateBalance(_ context.Context, tx usecase.Transaction, id string, balance, version int64, updatedAt time.Time) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	return t.add(txOp{
		check: func(s *Store) error {
			if _, ok := s.items[id]; !ok {
				return domain.ErrItemNotFound
			}
			return nil
		},
		apply: func(s *Store) func() {
			item := s.items[id]
			prevBalance, prevVersion, prevUpdatedAt := item.Balance, item.Version, item.UpdatedAt
			item.Balance = balance
			item.Version = version
			item.UpdatedAt = updatedAt
			return func() {
				item.Balance = prevBalance
				item.Version = prevVersion
				item.UpdatedAt = prevUpdatedAt
			}
		},
	})
}

// List lists items in registration order.
func (r *ItemRepository) List(_ context.Context, limit, offset int) ([]*domain.StockItem, error) {
	return r.list(limit, offset, func(*domain.StockItem) bool { return true }), nil
}

// ListBelowMinimum lists items whose balance is under their minimum threshold.
func (r *ItemRepository) ListBelowMinimum(_ context.Context, limit, offset int) ([]*domain.StockItem, error) {
	return r.list(limit, offset, (*domain.StockItem).BelowMinimum), nil
}

func (r *ItemRepository) list(limit, offset int, keep func(*domain.StockItem) bool) []*domain.StockItem {
	r.store.mu.RLock()
	matched := make([]*domain.StockItem, 0, len(r.store.items))
	for _, item := range r.store.items {
		if keep(item) {
			matched = append(matched, cloneItem(item))
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	return page(matched, limit, offset)
}

func page[T any](all []T, limit, offset int) []T {
	start := offset
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
