package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/stockledger/internal/domain"
)

// ReconciliationUseCase checks that balances agree with their movement history
// and that business records have their financial mirror.
type ReconciliationUseCase struct {
	itemRepo StockItemRepository
	stock    *StockUseCase
	finance  *FinanceUseCase
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(itemRepo StockItemRepository, stock *StockUseCase, finance *FinanceUseCase) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		itemRepo: itemRepo,
		stock:    stock,
		finance:  finance,
	}
}

// ReconciliationResult represents the result of replaying one item's history
type ReconciliationResult struct {
	LastChecked time.Time
	// BrokenChainAt is the sequence of the first movement whose previous
	// balance does not match its predecessor's resulting balance.
	BrokenChainAt     *int64
	ItemID            string
	SequenceGaps      []int64
	RecordedBalance   int64
	CalculatedBalance int64
	LatestResulting   int64
	Difference        int64
	MovementCount     int64
	IsReconciled      bool
}

// ReconcileItem replays the full movement history of an item.
func (uc *ReconciliationUseCase) ReconcileItem(ctx context.Context, itemID string) (*ReconciliationResult, error) {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	result := &ReconciliationResult{
		ItemID:          itemID,
		RecordedBalance: item.Balance,
	}

	var lastSequence int64
	for m, err := range uc.stock.History(ctx, itemID, nil) {
		if err != nil {
			return nil, err
		}

		for missing := lastSequence + 1; missing < m.Sequence; missing++ {
			result.SequenceGaps = append(result.SequenceGaps, missing)
		}

		chained := m.PreviousBalance == result.CalculatedBalance &&
			m.ResultingBalance == m.PreviousBalance+m.QuantityDelta
		if !chained && result.BrokenChainAt == nil {
			seq := m.Sequence
			result.BrokenChainAt = &seq
		}

		result.CalculatedBalance += m.QuantityDelta
		result.LatestResulting = m.ResultingBalance
		result.MovementCount++
		lastSequence = m.Sequence
	}

	result.Difference = result.RecordedBalance - result.CalculatedBalance
	result.IsReconciled = result.Difference == 0 &&
		result.LatestResulting == result.CalculatedBalance &&
		len(result.SequenceGaps) == 0 &&
		result.BrokenChainAt == nil &&
		lastSequence == item.Version
	result.LastChecked = time.Now().UTC()

	return result, nil
}

// ReconcileAllItems reconciles every item in the system
func (uc *ReconciliationUseCase) ReconcileAllItems(ctx context.Context) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	offset := 0
	for {
		items, err := uc.itemRepo.List(ctx, domain.MaxPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			result, err := uc.ReconcileItem(ctx, item.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile item %s: %w", item.ID, err)
			}
			results = append(results, result)
		}

		if len(items) < domain.MaxPageSize {
			return results, nil
		}
		offset += len(items)
	}
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	CheckedAt       time.Time
	Discrepancies   []*ReconciliationResult
	TotalItems      int
	ReconciledItems int
}

// GenerateReport reconciles all items and collects the discrepancies
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllItems(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalItems:    len(results),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledItems++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}

// PostingCheck reports whether a business record has its financial mirror.
type PostingCheck struct {
	Entry      *domain.PostingEntry
	SourceKind string
	SourceID   string
	Posted     bool
}

// CheckPosting looks up the posting of a source. A missing entry is not an error.
func (uc *ReconciliationUseCase) CheckPosting(ctx context.Context, sourceKind, sourceID string) (*PostingCheck, error) {
	check := &PostingCheck{SourceKind: sourceKind, SourceID: sourceID}

	entry, err := uc.finance.FindBySource(ctx, sourceKind, sourceID)
	if errors.Is(err, domain.ErrPostingNotFound) {
		return check, nil
	}
	if err != nil {
		return nil, err
	}

	check.Entry = entry
	check.Posted = true
	return check, nil
}
