package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

type reconciliationStub struct {
	result *usecase.ReconciliationResult
	report *usecase.ReconciliationReport
	check  *usecase.PostingCheck
	err    error

	gotItem string
	gotKind string
	gotID   string
}

func (s *reconciliationStub) ReconcileItem(_ context.Context, itemID string) (*usecase.ReconciliationResult, error) {
	s.gotItem = itemID
	return s.result, s.err
}

func (s *reconciliationStub) GenerateReport(context.Context) (*usecase.ReconciliationReport, error) {
	return s.report, s.err
}

func (s *reconciliationStub) CheckPosting(_ context.Context, kind, id string) (*usecase.PostingCheck, error) {
	s.gotKind, s.gotID = kind, id
	return s.check, s.err
}

func TestReconciliationHandler_ReconcileItem(t *testing.T) {
	broken := int64(3)
	stub := &reconciliationStub{result: &usecase.ReconciliationResult{
		ItemID:            "item-1",
		RecordedBalance:   10,
		CalculatedBalance: 8,
		Difference:        2,
		MovementCount:     4,
		SequenceGaps:      []int64{2},
		BrokenChainAt:     &broken,
	}}
	h := NewReconciliationHandler(stub)

	req := setChiURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/items/item-1/reconcile", nil), "id", "item-1")
	rec := httptest.NewRecorder()
	h.ReconcileItem(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.gotItem != "item-1" {
		t.Fatalf("expected item-1, got %q", stub.gotItem)
	}

	var resp dto.ReconciliationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.IsReconciled || resp.Difference != 2 || resp.BrokenChainAt == nil || *resp.BrokenChainAt != 3 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestReconciliationHandler_ReconcileUnknownItem(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationStub{err: domain.ErrItemNotFound})

	req := setChiURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/items/nope/reconcile", nil), "id", "nope")
	rec := httptest.NewRecorder()
	h.ReconcileItem(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReconciliationHandler_Report(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationStub{report: &usecase.ReconciliationReport{
		CheckedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalItems:      3,
		ReconciledItems: 3,
	}})

	rec := httptest.NewRecorder()
	h.Report(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalItems != 3 || resp.ReconciledItems != 3 || len(resp.Discrepancies) != 0 {
		t.Fatalf("unexpected report %+v", resp)
	}
}

func TestReconciliationHandler_ReportFailure(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationStub{err: errors.New("db down")})

	rec := httptest.NewRecorder()
	h.Report(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestReconciliationHandler_CheckPosting(t *testing.T) {
	stub := &reconciliationStub{check: &usecase.PostingCheck{SourceKind: domain.SourceTool, SourceID: "t-1"}}
	h := NewReconciliationHandler(stub)

	req := setChiURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/postings/source/tool/t-1/check", nil),
		"kind", domain.SourceTool, "id", "t-1")
	rec := httptest.NewRecorder()
	h.CheckPosting(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.gotKind != domain.SourceTool || stub.gotID != "t-1" {
		t.Fatalf("unexpected lookup %s/%s", stub.gotKind, stub.gotID)
	}

	var resp dto.PostingCheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Posted || resp.Entry != nil {
		t.Fatalf("expected unposted check, got %+v", resp)
	}
}
