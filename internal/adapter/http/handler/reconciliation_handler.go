package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ReconcileItem(ctx context.Context, itemID string) (*usecase.ReconciliationResult, error)
	GenerateReport(ctx context.Context) (*usecase.ReconciliationReport, error)
	CheckPosting(ctx context.Context, sourceKind, sourceID string) (*usecase.PostingCheck, error)
}

// ReconciliationHandler handles reconciliation HTTP requests.
type ReconciliationHandler struct {
	reconciliation ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliation ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliation: reconciliation}
}

// ReconcileItem replays one item's history against its recorded balance.
func (h *ReconciliationHandler) ReconcileItem(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciliation.ReconcileItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reconcile item", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

// Report reconciles all items.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliation.GenerateReport(r.Context())
	if err != nil {
		writeDomainError(w, "failed to generate report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromUseCase(report))
}

// CheckPosting reports whether a source has its financial mirror.
func (h *ReconciliationHandler) CheckPosting(w http.ResponseWriter, r *http.Request) {
	check, err := h.reconciliation.CheckPosting(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to check posting", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PostingCheckFromUseCase(check))
}
