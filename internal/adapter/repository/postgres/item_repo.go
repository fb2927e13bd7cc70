package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/postgres/generated"
	"github.com/iho/stockledger/internal/usecase"
)

const stockItemsSKUKey = "uq_stock_items_sku"

// ItemRepository implements usecase.StockItemRepository.
type ItemRepository struct {
	queries *generated.Queries
}

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(db generated.DBTX) *ItemRepository {
	return &ItemRepository{queries: generated.New(db)}
}

// Create inserts a new item within a transaction.
func (r *ItemRepository) Create(ctx context.Context, tx usecase.Transaction, item *domain.StockItem) error {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return err
	}

	err = r.queries.WithTx(pgxTx).CreateStockItem(ctx, generated.CreateStockItemParams{
		ID:               item.ID,
		Sku:              optionalText(item.SKU),
		Name:             item.Name,
		Unit:             item.Unit,
		Balance:          item.Balance,
		MinimumThreshold: item.MinimumThreshold,
		MaximumThreshold: optionalInt8(item.MaximumThreshold),
		Version:          item.Version,
		CreatedAt:        timeToPgTimestamptz(item.CreatedAt),
		UpdatedAt:        timeToPgTimestamptz(item.UpdatedAt),
	})
	if isUniqueViolation(err, stockItemsSKUKey) {
		return fmt.Errorf("%w: sku %q already registered", domain.ErrInvalidItem, item.SKU)
	}

	return err
}

// GetByID retrieves an item by ID.
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*domain.StockItem, error) {
	row, err := r.queries.GetStockItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}

		return nil, err
	}

	return rowToItem(row), nil
}

// GetByIDForUpdate retrieves an item by ID with a FOR UPDATE lock.
func (r *ItemRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.StockItem, error) {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return nil, err
	}

	row, err := r.queries.WithTx(pgxTx).GetStockItemByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}

		return nil, err
	}

	return rowToItem(row), nil
}

// UpdateBalance stores the cached balance and version of an item.
func (r *ItemRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance, version int64, updatedAt time.Time) error {
	pgxTx, err := pgxTxOf(tx)
	if err != nil {
		return err
	}

	affected, err := r.queries.WithTx(pgxTx).UpdateStockItemBalance(ctx, generated.UpdateStockItemBalanceParams{
		ID:        id,
		Balance:   balance,
		Version:   version,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrItemNotFound
	}

	return nil
}

// List lists items with pagination, oldest registration first.
func (r *ItemRepository) List(ctx context.Context, limit, offset int) ([]*domain.StockItem, error) {
	rows, err := r.queries.ListStockItems(ctx, generated.ListStockItemsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToItems(rows), nil
}

// ListBelowMinimum lists items whose balance is under their minimum threshold.
func (r *ItemRepository) ListBelowMinimum(ctx context.Context, limit, offset int) ([]*domain.StockItem, error) {
	rows, err := r.queries.ListStockItemsBelowMinimum(ctx, generated.ListStockItemsBelowMinimumParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToItems(rows), nil
}

func rowsToItems(rows []generated.StockItem) []*domain.StockItem {
	items := make([]*domain.StockItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToItem(row))
	}
	return items
}

func rowToItem(row generated.StockItem) *domain.StockItem {
	return &domain.StockItem{
		ID:               row.ID,
		SKU:              row.Sku.String,
		Name:             row.Name,
		Unit:             row.Unit,
		Balance:          row.Balance,
		MinimumThreshold: row.MinimumThreshold,
		MaximumThreshold: int8Ptr(row.MaximumThreshold),
		Version:          row.Version,
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
}
