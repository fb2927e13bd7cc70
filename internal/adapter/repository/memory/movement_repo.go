package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// ErrSequenceConflict is returned when a movement does not extend its item's history.
var ErrSequenceConflict = errors.New("memory: movement sequence conflict")

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	store *Store
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(store *Store) *MovementRepository {
	return &MovementRepository{store: store}
}

// Create appends a movement when the transaction commits.
func (r *MovementRepository) Create(_ context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	stored := cloneMovement(movement)
	return t.add(txOp{
		check: func(s *Store) error {
			if want := int64(len(s.movements[stored.ItemID])) + 1; stored.Sequence != want {
				return fmt.Errorf("%w: item %s expected sequence %d, got %d", ErrSequenceConflict, stored.ItemID, want, stored.Sequence)
			}
			return nil
		},
		apply: func(s *Store) func() {
			prev := s.movements[stored.ItemID]
			s.movements[stored.ItemID] = append(prev, stored)
			return func() {
				if len(prev) == 0 {
					delete(s.movements, stored.ItemID)
					return
				}
				s.movements[stored.ItemID] = prev
			}
		},
	})
}

// ListByItem returns movements after the given sequence, oldest first.
func (r *MovementRepository) ListByItem(_ context.Context, itemID string, since *time.Time, afterSequence int64, limit int) ([]*domain.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*domain.Movement
	for _, m := range r.store.movements[itemID] {
		if m.Sequence <= afterSequence {
			continue
		}
		if since != nil && m.OccurredAt.Before(*since) {
			continue
		}
		out = append(out, cloneMovement(m))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// GetLatest returns the item's most recent movement, or nil when there is none.
func (r *MovementRepository) GetLatest(_ context.Context, itemID string) (*domain.Movement, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	history := r.store.movements[itemID]
	if len(history) == 0 {
		return nil, nil
	}
	return cloneMovement(history[len(history)-1]), nil
}

// GetBalanceAtTime returns the resulting balance of the last movement recorded at or before at.
func (r *MovementRepository) GetBalanceAtTime(_ context.Context, itemID string, at time.Time) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var balance int64
	for _, m := range r.store.movements[itemID] {
		if m.CreatedAt.After(at) {
			break
		}
		balance = m.ResultingBalance
	}
	return balance, nil
}
