package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const createPostingEntry = `-- name: CreatePostingEntry :exec
INSERT INTO posting_entries (id, direction, category, amount, source_kind, source_id, narrative, actor_id, occurred_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

type CreatePostingEntryParams struct {
	ID         string             `json:"id"`
	Direction  string             `json:"direction"`
	Category   string             `json:"category"`
	Amount     decimal.Decimal    `json:"amount"`
	SourceKind string             `json:"source_kind"`
	SourceID   string             `json:"source_id"`
	Narrative  string             `json:"narrative"`
	ActorID    string             `json:"actor_id"`
	OccurredAt pgtype.Timestamptz `json:"occurred_at"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreatePostingEntry(ctx context.Context, arg CreatePostingEntryParams) error {
	_, err := q.db.Exec(ctx, createPostingEntry,
		arg.ID,
		arg.Direction,
		arg.Category,
		arg.Amount,
		arg.SourceKind,
		arg.SourceID,
		arg.Narrative,
		arg.ActorID,
		arg.OccurredAt,
		arg.CreatedAt,
	)
	return err
}

const getPostingEntryBySource = `-- name: GetPostingEntryBySource :one
SELECT id, direction, category, amount, source_kind, source_id, narrative, actor_id, occurred_at, created_at
FROM posting_entries
WHERE source_kind = $1 AND source_id = $2
`

type GetPostingEntryBySourceParams struct {
	SourceKind string `json:"source_kind"`
	SourceID   string `json:"source_id"`
}

func (q *Queries) GetPostingEntryBySource(ctx context.Context, arg GetPostingEntryBySourceParams) (PostingEntry, error) {
	row := q.db.QueryRow(ctx, getPostingEntryBySource, arg.SourceKind, arg.SourceID)
	var i PostingEntry
	err := row.Scan(
		&i.ID,
		&i.Direction,
		&i.Category,
		&i.Amount,
		&i.SourceKind,
		&i.SourceID,
		&i.Narrative,
		&i.ActorID,
		&i.OccurredAt,
		&i.CreatedAt,
	)
	return i, err
}

const queryPostingEntries = `-- name: QueryPostingEntries :many
SELECT id, direction, category, amount, source_kind, source_id, narrative, actor_id, occurred_at, created_at
FROM posting_entries
WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR occurred_at < $2)
  AND ($3::text = '' OR category = $3)
  AND ($4::text = '' OR direction = $4)
  AND (
      $5::timestamptz IS NULL
      OR (occurred_at, id) < ($5, $6::text)
  )
ORDER BY occurred_at DESC, id DESC
LIMIT $7
`

type QueryPostingEntriesParams struct {
	FromTime        pgtype.Timestamptz `json:"from_time"`
	ToTime          pgtype.Timestamptz `json:"to_time"`
	Category        string             `json:"category"`
	Direction       string             `json:"direction"`
	AfterOccurredAt pgtype.Timestamptz `json:"after_occurred_at"`
	AfterID         string             `json:"after_id"`
	Limit           int32              `json:"limit"`
}

func (q *Queries) QueryPostingEntries(ctx context.Context, arg QueryPostingEntriesParams) ([]PostingEntry, error) {
	rows, err := q.db.Query(ctx, queryPostingEntries,
		arg.FromTime,
		arg.ToTime,
		arg.Category,
		arg.Direction,
		arg.AfterOccurredAt,
		arg.AfterID,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PostingEntry
	for rows.Next() {
		var i PostingEntry
		if err := rows.Scan(
			&i.ID,
			&i.Direction,
			&i.Category,
			&i.Amount,
			&i.SourceKind,
			&i.SourceID,
			&i.Narrative,
			&i.ActorID,
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
