package handler

import (
	"context"
	"iter"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

const (
	defaultMovementLimit = 100
	defaultItemLimit     = 20
)

// StockService defines the read side needed by ItemHandler.
type StockService interface {
	GetItem(ctx context.Context, id string) (*domain.StockItem, error)
	ListItems(ctx context.Context, input usecase.ListItemsInput) ([]*domain.StockItem, error)
	ListBelowMinimum(ctx context.Context, input usecase.ListItemsInput) ([]*domain.StockItem, error)
	CurrentBalance(ctx context.Context, itemID string) (int64, error)
	BalanceAt(ctx context.Context, itemID string, at time.Time) (int64, error)
	History(ctx context.Context, itemID string, since *time.Time) iter.Seq2[*domain.Movement, error]
}

// StockOperations defines the writes needed by ItemHandler.
type StockOperations interface {
	RegisterPart(ctx context.Context, input usecase.RegisterPartInput) (usecase.Result[*usecase.StockRegistration], error)
	RecordStockMovement(ctx context.Context, input usecase.RecordMovementInput) (usecase.Result[*domain.Movement], error)
}

// ItemHandler handles stock item HTTP requests.
type ItemHandler struct {
	stock StockService
	ops   StockOperations
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(stock StockService, ops StockOperations) *ItemHandler {
	return &ItemHandler{stock: stock, ops: ops}
}

// Register registers a part and posts its priced initial stock.
func (h *ItemHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.ops.RegisterPart(r.Context(), req.ToUseCaseInput(actorID(r)))
	if err != nil {
		writeDomainError(w, "failed to register item", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.OperationResponse{
		Result:  dto.RegistrationFromUseCase(result.Primary),
		Posting: dto.PostingOutcomeFromUseCase(result.Posting),
	})
}

// Get retrieves an item by ID.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing item ID", "")
		return
	}

	item, err := h.stock.GetItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get item", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ItemFromDomain(item))
}

// List lists items in registration order.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.stock.ListItems)
}

// ListLowStock lists items whose balance is below their minimum threshold.
func (h *ItemHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.stock.ListBelowMinimum)
}

func (h *ItemHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, usecase.ListItemsInput) ([]*domain.StockItem, error)) {
	limit, offset := domain.ValidatePagination(parseIntQuery(r, "limit", defaultItemLimit), parseIntQuery(r, "offset", 0))

	items, err := fetch(r.Context(), usecase.ListItemsInput{Limit: limit, Offset: offset})
	if err != nil {
		writeDomainError(w, "failed to list items", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListItemsResponse{
		Items:  dto.ItemsFromDomain(items),
		Count:  len(items),
		Limit:  limit,
		Offset: offset,
	})
}

// Balance returns the current balance, or the balance at ?at= when given.
func (h *ItemHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	at, err := parseTimeQuery(r, "at")
	if err != nil {
		writeDomainError(w, "invalid balance query", err)
		return
	}

	var balance int64
	if at != nil {
		balance, err = h.stock.BalanceAt(r.Context(), id, *at)
	} else {
		balance, err = h.stock.CurrentBalance(r.Context(), id)
	}
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{ItemID: id, Balance: balance, At: at})
}

// Movements lists the movement history of an item, oldest first.
func (h *ItemHandler) Movements(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	since, err := parseTimeQuery(r, "since")
	if err != nil {
		writeDomainError(w, "invalid history query", err)
		return
	}

	limit := parseIntQuery(r, "limit", defaultMovementLimit)
	if limit <= 0 || limit > domain.MaxPageSize {
		limit = domain.MaxPageSize
	}

	movements := make([]*domain.Movement, 0)
	for m, err := range h.stock.History(r.Context(), id, since) {
		if err != nil {
			writeDomainError(w, "failed to list movements", err)
			return
		}
		movements = append(movements, m)
		if len(movements) == limit {
			break
		}
	}

	writeJSON(w, http.StatusOK, dto.MovementsFromDomain(movements))
}

// ApplyMovement records a movement and posts priced inbound stock.
func (h *ItemHandler) ApplyMovement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.MovementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(id, actorID(r))
	if err != nil {
		writeDomainError(w, "invalid movement", err)
		return
	}

	result, err := h.ops.RecordStockMovement(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to apply movement", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.OperationResponse{
		Result:  dto.MovementFromDomain(result.Primary),
		Posting: dto.PostingOutcomeFromUseCase(result.Posting),
	})
}
