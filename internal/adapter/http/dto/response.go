package dto

import (
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// ItemResponse represents a stock item in API responses.
type ItemResponse struct {
	ID               string    `json:"id"`
	SKU              string    `json:"sku,omitempty"`
	Name             string    `json:"name"`
	Unit             string    `json:"unit,omitempty"`
	Balance          int64     `json:"balance"`
	MinimumThreshold int64     `json:"minimum_threshold"`
	MaximumThreshold *int64    `json:"maximum_threshold,omitempty"`
	BelowMinimum     bool      `json:"below_minimum"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ItemFromDomain converts a domain item to response.
func ItemFromDomain(i *domain.StockItem) *ItemResponse {
	return &ItemResponse{
		ID:               i.ID,
		SKU:              i.SKU,
		Name:             i.Name,
		Unit:             i.Unit,
		Balance:          i.Balance,
		MinimumThreshold: i.MinimumThreshold,
		MaximumThreshold: i.MaximumThreshold,
		BelowMinimum:     i.BelowMinimum(),
		Version:          i.Version,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}

// ItemsFromDomain converts domain items to responses.
func ItemsFromDomain(items []*domain.StockItem) []*ItemResponse {
	result := make([]*ItemResponse, len(items))
	for i, item := range items {
		result[i] = ItemFromDomain(item)
	}
	return result
}

// ListItemsResponse represents a page of items. Count is the number of items
// on this page; use limit and offset to walk further pages.
type ListItemsResponse struct {
	Items  []*ItemResponse `json:"items"`
	Count  int             `json:"count"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// MovementResponse represents a stock movement in API responses.
type MovementResponse struct {
	ID                string    `json:"id"`
	ItemID            string    `json:"item_id"`
	Sequence          int64     `json:"sequence"`
	Kind              string    `json:"kind"`
	RequestedQuantity int64     `json:"requested_quantity"`
	QuantityDelta     int64     `json:"quantity_delta"`
	PreviousBalance   int64     `json:"previous_balance"`
	ResultingBalance  int64     `json:"resulting_balance"`
	ReasonCode        string    `json:"reason_code,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	ReferenceID       string    `json:"reference_id,omitempty"`
	ActorID           string    `json:"actor_id,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
	CreatedAt         time.Time `json:"created_at"`
}

// MovementFromDomain converts a domain movement to response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	return &MovementResponse{
		ID:                m.ID,
		ItemID:            m.ItemID,
		Sequence:          m.Sequence,
		Kind:              string(m.Kind),
		RequestedQuantity: m.RequestedQuantity,
		QuantityDelta:     m.QuantityDelta,
		PreviousBalance:   m.PreviousBalance,
		ResultingBalance:  m.ResultingBalance,
		ReasonCode:        m.ReasonCode,
		Reason:            m.Reason,
		ReferenceID:       m.ReferenceID,
		ActorID:           m.ActorID,
		OccurredAt:        m.OccurredAt,
		CreatedAt:         m.CreatedAt,
	}
}

// MovementsFromDomain converts domain movements to responses.
func MovementsFromDomain(movements []*domain.Movement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// BalanceResponse represents an item balance, current or at a point in time.
type BalanceResponse struct {
	At      *time.Time `json:"at,omitempty"`
	ItemID  string     `json:"item_id"`
	Balance int64      `json:"balance"`
}

// RegistrationResponse is the primary result of registering a part.
type RegistrationResponse struct {
	Item            *ItemResponse     `json:"item"`
	InitialMovement *MovementResponse `json:"initial_movement,omitempty"`
}

// RegistrationFromUseCase converts a registration to response.
func RegistrationFromUseCase(r *usecase.StockRegistration) *RegistrationResponse {
	resp := &RegistrationResponse{Item: ItemFromDomain(r.Item)}
	if r.InitialMovement != nil {
		resp.InitialMovement = MovementFromDomain(r.InitialMovement)
	}
	return resp
}

// PostingEntryResponse represents a financial ledger entry.
// Amount is rendered as a decimal string to keep cents exact.
type PostingEntryResponse struct {
	ID         string    `json:"id"`
	Direction  string    `json:"direction"`
	Category   string    `json:"category"`
	Amount     string    `json:"amount"`
	SourceKind string    `json:"source_kind"`
	SourceID   string    `json:"source_id"`
	Narrative  string    `json:"narrative"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// PostingEntryFromDomain converts a domain posting to response.
func PostingEntryFromDomain(p *domain.PostingEntry) *PostingEntryResponse {
	return &PostingEntryResponse{
		ID:         p.ID,
		Direction:  string(p.Direction),
		Category:   p.Category,
		Amount:     p.Amount.StringFixed(2),
		SourceKind: p.SourceKind,
		SourceID:   p.SourceID,
		Narrative:  p.Narrative,
		ActorID:    p.ActorID,
		OccurredAt: p.OccurredAt,
		CreatedAt:  p.CreatedAt,
	}
}

// PostingEntriesFromDomain converts domain postings to responses.
func PostingEntriesFromDomain(entries []*domain.PostingEntry) []*PostingEntryResponse {
	result := make([]*PostingEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = PostingEntryFromDomain(e)
	}
	return result
}

// PostingOutcomeResponse describes the financial side of an operation.
type PostingOutcomeResponse struct {
	Status     string                `json:"status"`
	SourceKind string                `json:"source_kind"`
	SourceID   string                `json:"source_id"`
	Reason     string                `json:"reason,omitempty"`
	Replayed   bool                  `json:"replayed,omitempty"`
	Entry      *PostingEntryResponse `json:"entry,omitempty"`
}

// PostingOutcomeFromUseCase converts a posting outcome to response. A nil outcome stays nil.
func PostingOutcomeFromUseCase(o *usecase.PostingOutcome) *PostingOutcomeResponse {
	if o == nil {
		return nil
	}

	resp := &PostingOutcomeResponse{
		Status:     string(o.Status),
		SourceKind: o.SourceKind,
		SourceID:   o.SourceID,
		Reason:     o.Reason,
		Replayed:   o.Replayed,
	}
	if o.Entry != nil {
		resp.Entry = PostingEntryFromDomain(o.Entry)
	}
	return resp
}

// OperationResponse pairs a committed primary result with its posting outcome.
type OperationResponse struct {
	Result  any                     `json:"result"`
	Posting *PostingOutcomeResponse `json:"posting,omitempty"`
}

// CategoryTotalResponse is one row of a category summary.
type CategoryTotalResponse struct {
	Category  string `json:"category"`
	Direction string `json:"direction"`
	Total     string `json:"total"`
	Count     int    `json:"count"`
}

// CategoryTotalsFromDomain converts category totals to responses.
func CategoryTotalsFromDomain(totals []domain.CategoryTotal) []CategoryTotalResponse {
	result := make([]CategoryTotalResponse, len(totals))
	for i, t := range totals {
		result[i] = CategoryTotalResponse{
			Category:  t.Category,
			Direction: string(t.Direction),
			Total:     t.Total.StringFixed(2),
			Count:     t.Count,
		}
	}
	return result
}

// PeriodTotalResponse is one row of a period summary.
type PeriodTotalResponse struct {
	Start   time.Time `json:"start"`
	Inflow  string    `json:"inflow"`
	Outflow string    `json:"outflow"`
	Net     string    `json:"net"`
	Count   int       `json:"count"`
}

// PeriodTotalsFromDomain converts period totals to responses.
func PeriodTotalsFromDomain(totals []domain.PeriodTotal) []PeriodTotalResponse {
	result := make([]PeriodTotalResponse, len(totals))
	for i, t := range totals {
		result[i] = PeriodTotalResponse{
			Start:   t.Start,
			Inflow:  t.Inflow.StringFixed(2),
			Outflow: t.Outflow.StringFixed(2),
			Net:     t.Net.StringFixed(2),
			Count:   t.Count,
		}
	}
	return result
}

// PostingCheckResponse reports whether a source has been posted.
type PostingCheckResponse struct {
	SourceKind string                `json:"source_kind"`
	SourceID   string                `json:"source_id"`
	Posted     bool                  `json:"posted"`
	Entry      *PostingEntryResponse `json:"entry,omitempty"`
}

// PostingCheckFromUseCase converts a posting check to response.
func PostingCheckFromUseCase(c *usecase.PostingCheck) *PostingCheckResponse {
	resp := &PostingCheckResponse{
		SourceKind: c.SourceKind,
		SourceID:   c.SourceID,
		Posted:     c.Posted,
	}
	if c.Entry != nil {
		resp.Entry = PostingEntryFromDomain(c.Entry)
	}
	return resp
}

// ReconciliationResponse reports the replay of one item's history.
type ReconciliationResponse struct {
	ItemID            string    `json:"item_id"`
	RecordedBalance   int64     `json:"recorded_balance"`
	CalculatedBalance int64     `json:"calculated_balance"`
	Difference        int64     `json:"difference"`
	MovementCount     int64     `json:"movement_count"`
	SequenceGaps      []int64   `json:"sequence_gaps,omitempty"`
	BrokenChainAt     *int64    `json:"broken_chain_at,omitempty"`
	IsReconciled      bool      `json:"is_reconciled"`
	LastChecked       time.Time `json:"last_checked"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		ItemID:            r.ItemID,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		MovementCount:     r.MovementCount,
		SequenceGaps:      r.SequenceGaps,
		BrokenChainAt:     r.BrokenChainAt,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReportResponse summarises a reconciliation run over all items.
type ReportResponse struct {
	CheckedAt       time.Time                 `json:"checked_at"`
	TotalItems      int                       `json:"total_items"`
	ReconciledItems int                       `json:"reconciled_items"`
	Discrepancies   []*ReconciliationResponse `json:"discrepancies"`
}

// ReportFromUseCase converts a reconciliation report to response.
func ReportFromUseCase(r *usecase.ReconciliationReport) *ReportResponse {
	resp := &ReportResponse{
		CheckedAt:       r.CheckedAt,
		TotalItems:      r.TotalItems,
		ReconciledItems: r.ReconciledItems,
		Discrepancies:   make([]*ReconciliationResponse, len(r.Discrepancies)),
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = ReconciliationFromUseCase(d)
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
