package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

const defaultPostingLimit = 100

// LedgerService defines the financial ledger reads needed by PostingHandler.
type LedgerService interface {
	List(ctx context.Context, filter domain.PostingFilter, limit int) ([]*domain.PostingEntry, error)
	FindBySource(ctx context.Context, sourceKind, sourceID string) (*domain.PostingEntry, error)
	SummarizeByCategory(ctx context.Context, filter domain.PostingFilter) ([]domain.CategoryTotal, error)
	SummarizeByPeriod(ctx context.Context, filter domain.PostingFilter, period domain.Period) ([]domain.PeriodTotal, error)
}

// PostingOperations posts records created by collaborating modules.
type PostingOperations interface {
	RecordFuelPurchase(ctx context.Context, event domain.FuelPurchased, actorID string) (*usecase.PostingOutcome, error)
	RecordToolPurchase(ctx context.Context, event domain.ToolPurchased, actorID string) (*usecase.PostingOutcome, error)
	RecordRental(ctx context.Context, event domain.RentalCreated, actorID string) (*usecase.PostingOutcome, error)
}

// PostingHandler handles financial ledger HTTP requests.
type PostingHandler struct {
	ledger LedgerService
	ops    PostingOperations
}

// NewPostingHandler creates a new PostingHandler.
func NewPostingHandler(ledger LedgerService, ops PostingOperations) *PostingHandler {
	return &PostingHandler{ledger: ledger, ops: ops}
}

// RecordFuel posts a fuel purchase. Replays of the same record are answered
// with the original entry.
func (h *PostingHandler) RecordFuel(w http.ResponseWriter, r *http.Request) {
	var req dto.FuelPurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	event, err := req.ToDomainEvent()
	if err != nil {
		writeDomainError(w, "invalid fuel purchase", err)
		return
	}

	outcome, err := h.ops.RecordFuelPurchase(r.Context(), event, actorID(r))
	h.writeOutcome(w, event.SourceID(), outcome, err)
}

// RecordTool posts a tool purchase.
func (h *PostingHandler) RecordTool(w http.ResponseWriter, r *http.Request) {
	var req dto.ToolPurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	event, err := req.ToDomainEvent()
	if err != nil {
		writeDomainError(w, "invalid tool purchase", err)
		return
	}

	outcome, err := h.ops.RecordToolPurchase(r.Context(), event, actorID(r))
	h.writeOutcome(w, event.SourceID(), outcome, err)
}

// RecordRental posts rental revenue.
func (h *PostingHandler) RecordRental(w http.ResponseWriter, r *http.Request) {
	var req dto.RentalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	event, err := req.ToDomainEvent()
	if err != nil {
		writeDomainError(w, "invalid rental", err)
		return
	}

	outcome, err := h.ops.RecordRental(r.Context(), event, actorID(r))
	h.writeOutcome(w, event.SourceID(), outcome, err)
}

// writeOutcome answers 201 whatever the posting status; a failed posting is
// reported in the body, not as a request failure.
func (h *PostingHandler) writeOutcome(w http.ResponseWriter, sourceID string, outcome *usecase.PostingOutcome, err error) {
	if err != nil {
		writeDomainError(w, "failed to record posting", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.OperationResponse{
		Result:  map[string]string{"source_id": sourceID},
		Posting: dto.PostingOutcomeFromUseCase(outcome),
	})
}

// List lists entries newest first.
func (h *PostingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := postingFilterFromQuery(r)
	if err != nil {
		writeDomainError(w, "invalid posting query", err)
		return
	}

	limit := parseIntQuery(r, "limit", defaultPostingLimit)
	if limit <= 0 || limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}

	entries, err := h.ledger.List(r.Context(), filter, limit)
	if err != nil {
		writeDomainError(w, "failed to list postings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PostingEntriesFromDomain(entries))
}

// GetBySource returns the entry posted for a source.
func (h *PostingHandler) GetBySource(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	id := chi.URLParam(r, "id")
	if kind == "" || id == "" {
		writeError(w, http.StatusBadRequest, "missing source", "")
		return
	}

	entry, err := h.ledger.FindBySource(r.Context(), kind, id)
	if err != nil {
		writeDomainError(w, "failed to get posting", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PostingEntryFromDomain(entry))
}

// SummaryByCategory totals entries per category and direction.
func (h *PostingHandler) SummaryByCategory(w http.ResponseWriter, r *http.Request) {
	filter, err := postingFilterFromQuery(r)
	if err != nil {
		writeDomainError(w, "invalid summary query", err)
		return
	}

	totals, err := h.ledger.SummarizeByCategory(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to summarize postings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CategoryTotalsFromDomain(totals))
}

// SummaryByPeriod totals entries per day or month (?period=day|month).
func (h *PostingHandler) SummaryByPeriod(w http.ResponseWriter, r *http.Request) {
	filter, err := postingFilterFromQuery(r)
	if err != nil {
		writeDomainError(w, "invalid summary query", err)
		return
	}

	period, err := domain.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid summary query", err.Error())
		return
	}

	totals, err := h.ledger.SummarizeByPeriod(r.Context(), filter, period)
	if err != nil {
		writeDomainError(w, "failed to summarize postings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PeriodTotalsFromDomain(totals))
}
