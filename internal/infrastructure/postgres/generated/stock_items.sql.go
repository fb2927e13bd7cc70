package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createStockItem = `-- name: CreateStockItem :exec
INSERT INTO stock_items (id, sku, name, unit, balance, minimum_threshold, maximum_threshold, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

type CreateStockItemParams struct {
	ID               string             `json:"id"`
	Sku              pgtype.Text        `json:"sku"`
	Name             string             `json:"name"`
	Unit             string             `json:"unit"`
	Balance          int64              `json:"balance"`
	MinimumThreshold int64              `json:"minimum_threshold"`
	MaximumThreshold pgtype.Int8        `json:"maximum_threshold"`
	Version          int64              `json:"version"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateStockItem(ctx context.Context, arg CreateStockItemParams) error {
	_, err := q.db.Exec(ctx, createStockItem,
		arg.ID,
		arg.Sku,
		arg.Name,
		arg.Unit,
		arg.Balance,
		arg.MinimumThreshold,
		arg.MaximumThreshold,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getStockItemByID = `-- name: GetStockItemByID :one
SELECT id, sku, name, unit, balance, minimum_threshold, maximum_threshold, version, created_at, updated_at
FROM stock_items
WHERE id = $1
`

func (q *Queries) GetStockItemByID(ctx context.Context, id string) (StockItem, error) {
	row := q.db.QueryRow(ctx, getStockItemByID, id)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.Sku,
		&i.Name,
		&i.Unit,
		&i.Balance,
		&i.MinimumThreshold,
		&i.MaximumThreshold,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getStockItemByIDForUpdate = `-- name: GetStockItemByIDForUpdate :one
SELECT id, sku, name, unit, balance, minimum_threshold, maximum_threshold, version, created_at, updated_at
FROM stock_items
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetStockItemByIDForUpdate(ctx context.Context, id string) (StockItem, error) {
	row := q.db.QueryRow(ctx, getStockItemByIDForUpdate, id)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.Sku,
		&i.Name,
		&i.Unit,
		&i.Balance,
		&i.MinimumThreshold,
		&i.MaximumThreshold,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listStockItems = `-- name: ListStockItems :many
SELECT id, sku, name, unit, balance, minimum_threshold, maximum_threshold, version, created_at, updated_at
FROM stock_items
ORDER BY created_at, id
LIMIT $1 OFFSET $2
`

type ListStockItemsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListStockItems(ctx context.Context, arg ListStockItemsParams) ([]StockItem, error) {
	rows, err := q.db.Query(ctx, listStockItems, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockItem
	for rows.Next() {
		var i StockItem
		if err := rows.Scan(
			&i.ID,
			&i.Sku,
			&i.Name,
			&i.Unit,
			&i.Balance,
			&i.MinimumThreshold,
			&i.MaximumThreshold,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listStockItemsBelowMinimum = `-- name: ListStockItemsBelowMinimum :many
SELECT id, sku, name, unit, balance, minimum_threshold, maximum_threshold, version, created_at, updated_at
FROM stock_items
WHERE balance < minimum_threshold
ORDER BY created_at, id
LIMIT $1 OFFSET $2
`

type ListStockItemsBelowMinimumParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListStockItemsBelowMinimum(ctx context.Context, arg ListStockItemsBelowMinimumParams) ([]StockItem, error) {
	rows, err := q.db.Query(ctx, listStockItemsBelowMinimum, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockItem
	for rows.Next() {
		var i StockItem
		if err := rows.Scan(
			&i.ID,
			&i.Sku,
			&i.Name,
			&i.Unit,
			&i.Balance,
			&i.MinimumThreshold,
			&i.MaximumThreshold,
			&i.Version,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateStockItemBalance = `-- name: UpdateStockItemBalance :execrows
UPDATE stock_items
SET balance = $2, version = $3, updated_at = $4
WHERE id = $1
`

type UpdateStockItemBalanceParams struct {
	ID        string             `json:"id"`
	Balance   int64              `json:"balance"`
	Version   int64              `json:"version"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateStockItemBalance(ctx context.Context, arg UpdateStockItemBalanceParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateStockItemBalance,
		arg.ID,
		arg.Balance,
		arg.Version,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
