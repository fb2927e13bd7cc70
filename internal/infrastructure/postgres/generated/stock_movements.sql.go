package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createStockMovement = `-- name: CreateStockMovement :exec
INSERT INTO stock_movements (
    id, item_id, sequence, kind, reason_code, reason, reference_id, actor_id,
    requested_quantity, quantity_delta, previous_balance, resulting_balance, occurred_at, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

type CreateStockMovementParams struct {
	ID                string             `json:"id"`
	ItemID            string             `json:"item_id"`
	Sequence          int64              `json:"sequence"`
	Kind              string             `json:"kind"`
	ReasonCode        string             `json:"reason_code"`
	Reason            string             `json:"reason"`
	ReferenceID       string             `json:"reference_id"`
	ActorID           string             `json:"actor_id"`
	RequestedQuantity int64              `json:"requested_quantity"`
	QuantityDelta     int64              `json:"quantity_delta"`
	PreviousBalance   int64              `json:"previous_balance"`
	ResultingBalance  int64              `json:"resulting_balance"`
	OccurredAt        pgtype.Timestamptz `json:"occurred_at"`
	CreatedAt         pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateStockMovement(ctx context.Context, arg CreateStockMovementParams) error {
	_, err := q.db.Exec(ctx, createStockMovement,
		arg.ID,
		arg.ItemID,
		arg.Sequence,
		arg.Kind,
		arg.ReasonCode,
		arg.Reason,
		arg.ReferenceID,
		arg.ActorID,
		arg.RequestedQuantity,
		arg.QuantityDelta,
		arg.PreviousBalance,
		arg.ResultingBalance,
		arg.OccurredAt,
		arg.CreatedAt,
	)
	return err
}

const getLatestStockMovement = `-- name: GetLatestStockMovement :one
SELECT id, item_id, sequence, kind, reason_code, reason, reference_id, actor_id,
       requested_quantity, quantity_delta, previous_balance, resulting_balance, occurred_at, created_at
FROM stock_movements
WHERE item_id = $1
ORDER BY sequence DESC
LIMIT 1
`

func (q *Queries) GetLatestStockMovement(ctx context.Context, itemID string) (StockMovement, error) {
	row := q.db.QueryRow(ctx, getLatestStockMovement, itemID)
	var i StockMovement
	err := row.Scan(
		&i.ID,
		&i.ItemID,
		&i.Sequence,
		&i.Kind,
		&i.ReasonCode,
		&i.Reason,
		&i.ReferenceID,
		&i.ActorID,
		&i.RequestedQuantity,
		&i.QuantityDelta,
		&i.PreviousBalance,
		&i.ResultingBalance,
		&i.OccurredAt,
		&i.CreatedAt,
	)
	return i, err
}

const getStockBalanceAtTime = `-- name: GetStockBalanceAtTime :one
SELECT COALESCE((
    SELECT m.resulting_balance
    FROM stock_movements m
    WHERE m.item_id = $1 AND m.created_at <= $2
    ORDER BY m.sequence DESC
    LIMIT 1
), 0)::bigint AS balance
`

type GetStockBalanceAtTimeParams struct {
	ItemID    string             `json:"item_id"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) GetStockBalanceAtTime(ctx context.Context, arg GetStockBalanceAtTimeParams) (int64, error) {
	row := q.db.QueryRow(ctx, getStockBalanceAtTime, arg.ItemID, arg.CreatedAt)
	var balance int64
	err := row.Scan(&balance)
	return balance, err
}

const listStockMovementsByItem = `-- name: ListStockMovementsByItem :many
SELECT id, item_id, sequence, kind, reason_code, reason, reference_id, actor_id,
       requested_quantity, quantity_delta, previous_balance, resulting_balance, occurred_at, created_at
FROM stock_movements
WHERE item_id = $1
  AND sequence > $2
  AND ($3::timestamptz IS NULL OR occurred_at >= $3)
ORDER BY sequence
LIMIT $4
`

type ListStockMovementsByItemParams struct {
	ItemID        string             `json:"item_id"`
	AfterSequence int64              `json:"after_sequence"`
	Since         pgtype.Timestamptz `json:"since"`
	Limit         int32              `json:"limit"`
}

func (q *Queries) ListStockMovementsByItem(ctx context.Context, arg ListStockMovementsByItemParams) ([]StockMovement, error) {
	rows, err := q.db.Query(ctx, listStockMovementsByItem,
		arg.ItemID,
		arg.AfterSequence,
		arg.Since,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockMovement
	for rows.Next() {
		var i StockMovement
		if err := rows.Scan(
			&i.ID,
			&i.ItemID,
			&i.Sequence,
			&i.Kind,
			&i.ReasonCode,
			&i.Reason,
			&i.ReferenceID,
			&i.ActorID,
			&i.RequestedQuantity,
			&i.QuantityDelta,
			&i.PreviousBalance,
			&i.ResultingBalance,
			&i.OccurredAt,
			&i.CreatedAt,
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
