package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/items?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/items?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestParseTimeQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/balance?at=2026-01-05T10:00:00Z", nil)
	at, err := parseTimeQuery(req, "at")
	if err != nil || at == nil || at.Day() != 5 {
		t.Fatalf("expected parsed time, got %v, %v", at, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/balance?at=yesterday", nil)
	if _, err := parseTimeQuery(req, "at"); !errors.Is(err, errBadQuery) {
		t.Fatalf("expected errBadQuery, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/balance", nil)
	if at, err := parseTimeQuery(req, "at"); at != nil || err != nil {
		t.Fatalf("expected nil time for missing parameter, got %v, %v", at, err)
	}
}

func TestPostingFilterFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/postings?category=Fuel&direction=outflow&from=2026-01-01T00:00:00Z", nil)
	filter, err := postingFilterFromQuery(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Category != "Fuel" || filter.Direction != domain.DirectionOutflow || filter.From == nil || filter.To != nil {
		t.Fatalf("unexpected filter: %+v", filter)
	}

	req = httptest.NewRequest(http.MethodGet, "/postings?direction=sideways", nil)
	if _, err := postingFilterFromQuery(req); !errors.Is(err, errBadQuery) {
		t.Fatalf("expected errBadQuery for direction, got %v", err)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"item not found", domain.ErrItemNotFound, http.StatusNotFound},
		{"posting not found", domain.ErrPostingNotFound, http.StatusNotFound},
		{"duplicate posting", domain.ErrDuplicatePosting, http.StatusConflict},
		{"negative balance", domain.ErrNegativeResultingBalance, http.StatusUnprocessableEntity},
		{"invalid quantity", fmt.Errorf("%w: -1", domain.ErrInvalidQuantity), http.StatusBadRequest},
		{"invalid kind", domain.ErrInvalidMovementKind, http.StatusBadRequest},
		{"missing field", dto.ErrMissingField, http.StatusBadRequest},
		{"bad query", errBadQuery, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "bad request", "detail")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if resp.Error != "bad request" || resp.Message != "detail" {
		t.Fatalf("expected error message to propagate, got %+v", resp)
	}
}

func setChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
