package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/stockledger/internal/adapter/repository/memory"
	"github.com/iho/stockledger/internal/adapter/repository/postgres"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
	infra "github.com/iho/stockledger/internal/infrastructure/postgres"
	"github.com/iho/stockledger/internal/usecase"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies migrations.
// The test is skipped when DATABASE_URL is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := infra.RunMigrations(dbURL, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infra.NewPool(ctx, dbURL, 20, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	return &TestDB{Pool: pool, t: t}
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE stock_movements CASCADE;
		TRUNCATE TABLE stock_items CASCADE;
		TRUNCATE TABLE posting_entries CASCADE;
		TRUNCATE TABLE outbox_events CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Stack is the use case layer wired to the test database.
type Stack struct {
	Stock          *usecase.StockUseCase
	Finance        *usecase.FinanceUseCase
	Operations     *usecase.Operations
	Reconciliation *usecase.ReconciliationUseCase
	Items          *postgres.ItemRepository
	Outbox         *postgres.OutboxRepository
}

// NewStack wires the use cases over db with an in-process locker.
func (db *TestDB) NewStack() *Stack {
	pool := db.Pool
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	idGen := postgres.NewULIDGenerator()

	items := postgres.NewItemRepository(pool)
	outbox := postgres.NewOutboxRepository(pool)

	stock := usecase.NewStockUseCase(
		postgres.NewTxManager(pool),
		items,
		postgres.NewMovementRepository(pool),
		outbox,
		idGen,
		postgres.NewRetrier(postgres.DefaultRetryPolicy(), zerolog.Nop()),
		nil,
		m,
	)
	finance := usecase.NewFinanceUseCase(postgres.NewPostingRepository(pool), m)
	poster := usecase.NewPostingUseCase(finance, memory.NewKeyLocker(), idGen, m)

	return &Stack{
		Stock:          stock,
		Finance:        finance,
		Operations:     usecase.NewOperations(stock, usecase.NewCoordinator(poster, 5*time.Second, zerolog.Nop(), m)),
		Reconciliation: usecase.NewReconciliationUseCase(items, stock, finance),
		Items:          items,
		Outbox:         outbox,
	}
}
