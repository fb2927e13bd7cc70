package usecase_test

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/stockledger/internal/adapter/repository/memory"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
	"github.com/iho/stockledger/internal/usecase"
)

type seqIDGenerator struct {
	n atomic.Int64
}

func (g *seqIDGenerator) Generate() string {
	return fmt.Sprintf("id-%08d", g.n.Add(1))
}

type harness struct {
	store          *memory.Store
	items          *memory.ItemRepository
	movements      *memory.MovementRepository
	postings       *memory.PostingRepository
	outbox         *memory.OutboxRepository
	metrics        *metrics.Metrics
	stock          *usecase.StockUseCase
	finance        *usecase.FinanceUseCase
	poster         *usecase.PostingUseCase
	coordinator    *usecase.Coordinator
	operations     *usecase.Operations
	reconciliation *usecase.ReconciliationUseCase
}

func newHarness() *harness {
	store := memory.New()
	h := &harness{
		store:     store,
		items:     memory.NewItemRepository(store),
		movements: memory.NewMovementRepository(store),
		postings:  memory.NewPostingRepository(store),
		outbox:    memory.NewOutboxRepository(store),
		metrics:   metrics.NewWithRegistry(prometheus.NewRegistry()),
	}

	idGen := &seqIDGenerator{}
	h.stock = usecase.NewStockUseCase(
		memory.NewTxManager(store), h.items, h.movements, h.outbox, idGen, nil, nil, h.metrics,
	)
	h.finance = usecase.NewFinanceUseCase(h.postings, h.metrics)
	h.poster = usecase.NewPostingUseCase(h.finance, memory.NewKeyLocker(), idGen, h.metrics)
	h.coordinator = usecase.NewCoordinator(h.poster, time.Second, zerolog.Nop(), h.metrics)
	h.operations = usecase.NewOperations(h.stock, h.coordinator)
	h.reconciliation = usecase.NewReconciliationUseCase(h.items, h.stock, h.finance)

	return h
}

func ptr[T any](v T) *T {
	return &v
}

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func memoryTxManager(h *harness) *memory.TxManager {
	return memory.NewTxManager(h.store)
}
