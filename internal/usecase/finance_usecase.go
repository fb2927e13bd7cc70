package usecase

import (
	"context"
	"iter"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
)

// FinanceUseCase is the append-only financial ledger.
type FinanceUseCase struct {
	postingRepo PostingRepository
	metrics     *metrics.Metrics
}

// NewFinanceUseCase creates a new FinanceUseCase.
func NewFinanceUseCase(postingRepo PostingRepository, metrics *metrics.Metrics) *FinanceUseCase {
	return &FinanceUseCase{
		postingRepo: postingRepo,
		metrics:     metrics,
	}
}

// Append stores a new entry. It fails with domain.ErrDuplicatePosting when an
// entry already exists for the same source.
func (uc *FinanceUseCase) Append(ctx context.Context, entry *domain.PostingEntry) (*domain.PostingEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := uc.postingRepo.Append(ctx, entry); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PostingAmount.WithLabelValues(entry.Category).Observe(entry.Amount.InexactFloat64())
	}

	return entry, nil
}

// FindBySource returns the entry posted for a source, or domain.ErrPostingNotFound.
func (uc *FinanceUseCase) FindBySource(ctx context.Context, sourceKind, sourceID string) (*domain.PostingEntry, error) {
	return uc.postingRepo.FindBySource(ctx, sourceKind, sourceID)
}

// Query returns matching entries newest first. Entries are fetched lazily in
// pages; ranging over the sequence again re-runs the query.
func (uc *FinanceUseCase) Query(ctx context.Context, filter domain.PostingFilter) iter.Seq2[*domain.PostingEntry, error] {
	return func(yield func(*domain.PostingEntry, error) bool) {
		var cursor *domain.PostingCursor
		for {
			page, err := uc.postingRepo.Query(ctx, filter, cursor, historyPageSize)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, entry := range page {
				if !yield(entry, nil) {
					return
				}
				cursor = domain.CursorOf(entry)
			}

			if len(page) < historyPageSize {
				return
			}
		}
	}
}

// List collects up to limit entries of Query. A non-positive limit collects everything.
func (uc *FinanceUseCase) List(ctx context.Context, filter domain.PostingFilter, limit int) ([]*domain.PostingEntry, error) {
	var entries []*domain.PostingEntry
	for entry, err := range uc.Query(ctx, filter) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

// SummarizeByCategory totals matching entries per category and direction.
func (uc *FinanceUseCase) SummarizeByCategory(ctx context.Context, filter domain.PostingFilter) ([]domain.CategoryTotal, error) {
	entries, err := uc.List(ctx, filter, 0)
	if err != nil {
		return nil, err
	}
	return domain.SumByCategory(entries), nil
}

// SummarizeByPeriod totals matching entries per day or month.
func (uc *FinanceUseCase) SummarizeByPeriod(ctx context.Context, filter domain.PostingFilter, period domain.Period) ([]domain.PeriodTotal, error) {
	entries, err := uc.List(ctx, filter, 0)
	if err != nil {
		return nil, err
	}
	return domain.SumByPeriod(entries, period), nil
}
