package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/postgres/generated"
)

const postingSourceConstraint = "uq_posting_entries_source"

// PostingRepository implements usecase.PostingRepository.
// The unique (source_kind, source_id) constraint makes Append exactly-once
// across processes.
type PostingRepository struct {
	queries *generated.Queries
}

// NewPostingRepository creates a new PostingRepository.
func NewPostingRepository(db generated.DBTX) *PostingRepository {
	return &PostingRepository{queries: generated.New(db)}
}

// Append inserts an entry.
func (r *PostingRepository) Append(ctx context.Context, entry *domain.PostingEntry) error {
	err := r.queries.CreatePostingEntry(ctx, generated.CreatePostingEntryParams{
		ID:         entry.ID,
		Direction:  string(entry.Direction),
		Category:   entry.Category,
		Amount:     entry.Amount,
		SourceKind: entry.SourceKind,
		SourceID:   entry.SourceID,
		Narrative:  entry.Narrative,
		ActorID:    entry.ActorID,
		OccurredAt: timeToPgTimestamptz(entry.OccurredAt),
		CreatedAt:  timeToPgTimestamptz(entry.CreatedAt),
	})
	if isUniqueViolation(err, postingSourceConstraint) {
		return domain.ErrDuplicatePosting
	}

	return err
}

// FindBySource returns the entry posted for a source.
func (r *PostingRepository) FindBySource(ctx context.Context, sourceKind, sourceID string) (*domain.PostingEntry, error) {
	row, err := r.queries.GetPostingEntryBySource(ctx, generated.GetPostingEntryBySourceParams{
		SourceKind: sourceKind,
		SourceID:   sourceID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostingNotFound
		}

		return nil, err
	}

	return rowToPosting(row), nil
}

// Query returns up to limit matching entries after the cursor, newest first.
func (r *PostingRepository) Query(ctx context.Context, filter domain.PostingFilter, after *domain.PostingCursor, limit int) ([]*domain.PostingEntry, error) {
	params := generated.QueryPostingEntriesParams{
		FromTime:  optionalTimestamptz(filter.From),
		ToTime:    optionalTimestamptz(filter.To),
		Category:  filter.Category,
		Direction: string(filter.Direction),
		Limit:     clampLimit(limit),
	}
	if after != nil {
		params.AfterOccurredAt = pgtype.Timestamptz{Time: after.OccurredAt, Valid: true}
		params.AfterID = after.ID
	}

	rows, err := r.queries.QueryPostingEntries(ctx, params)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.PostingEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToPosting(row))
	}

	return entries, nil
}

func rowToPosting(row generated.PostingEntry) *domain.PostingEntry {
	return &domain.PostingEntry{
		ID:         row.ID,
		Direction:  domain.Direction(row.Direction),
		Category:   row.Category,
		Amount:     row.Amount,
		SourceKind: row.SourceKind,
		SourceID:   row.SourceID,
		Narrative:  row.Narrative,
		ActorID:    row.ActorID,
		OccurredAt: row.OccurredAt.Time,
		CreatedAt:  row.CreatedAt.Time,
	}
}
