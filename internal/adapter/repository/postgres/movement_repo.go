package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/postgres/generated"
	"github.com/iho/stockledger/internal/usecase"
)

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	queries *generated.Queries
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(db generated.DBTX) *MovementRepository {
	return &MovementRepository{queries: generated.New(db)}
}

// Create appends a movement within a transaction.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, m *domain.Movement) error {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return err
	}

	return r.queries.WithTx(pgxTx).CreateStockMovement(ctx, generated.CreateStockMovementParams{
		ID:                m.ID,
		ItemID:            m.ItemID,
		Sequence:          m.Sequence,
		Kind:              string(m.Kind),
		ReasonCode:        m.ReasonCode,
		Reason:            m.Reason,
		ReferenceID:       m.ReferenceID,
		ActorID:           m.ActorID,
		RequestedQuantity: m.RequestedQuantity,
		QuantityDelta:     m.QuantityDelta,
		PreviousBalance:   m.PreviousBalance,
		ResultingBalance:  m.ResultingBalance,
		OccurredAt:        timeToPgTimestamptz(m.OccurredAt),
		CreatedAt:         timeToPgTimestamptz(m.CreatedAt),
	})
}

// ListByItem returns movements after the given sequence, oldest first.
func (r *MovementRepository) ListByItem(ctx context.Context, itemID string, since *time.Time, afterSequence int64, limit int) ([]*domain.Movement, error) {
	rows, err := r.queries.ListStockMovementsByItem(ctx, generated.ListStockMovementsByItemParams{
		ItemID:        itemID,
		AfterSequence: afterSequence,
		Since:         optionalTimestamptz(since),
		Limit:         clampLimit(limit),
	})
	if err != nil {
		return nil, err
	}

	movements := make([]*domain.Movement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, rowToMovement(row))
	}

	return movements, nil
}

// GetLatest returns the item's most recent movement, or nil when there is none.
func (r *MovementRepository) GetLatest(ctx context.Context, itemID string) (*domain.Movement, error) {
	row, err := r.queries.GetLatestStockMovement(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return rowToMovement(row), nil
}

// GetBalanceAtTime returns the resulting balance of the last movement recorded at or before at.
func (r *MovementRepository) GetBalanceAtTime(ctx context.Context, itemID string, at time.Time) (int64, error) {
	return r.queries.GetStockBalanceAtTime(ctx, generated.GetStockBalanceAtTimeParams{
		ItemID:    itemID,
		CreatedAt: timeToPgTimestamptz(at),
	})
}

func rowToMovement(row generated.StockMovement) *domain.Movement {
	return &domain.Movement{
		ID:                row.ID,
		ItemID:            row.ItemID,
		Sequence:          row.Sequence,
		Kind:              domain.MovementKind(row.Kind),
		ReasonCode:        row.ReasonCode,
		Reason:            row.Reason,
		ReferenceID:       row.ReferenceID,
		ActorID:           row.ActorID,
		RequestedQuantity: row.RequestedQuantity,
		QuantityDelta:     row.QuantityDelta,
		PreviousBalance:   row.PreviousBalance,
		ResultingBalance:  row.ResultingBalance,
		OccurredAt:        row.OccurredAt.Time,
		CreatedAt:         row.CreatedAt.Time,
	}
}
