package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
	"github.com/iho/stockledger/tests/testutil"
)

func TestConcurrentOutboundMovements(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	stack := testDB.NewStack()

	t.Run("100 concurrent withdrawals keep a gapless chain", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		reg, err := stack.Stock.RegisterItem(ctx, usecase.RegisterItemInput{
			Name:             "Oil filter",
			Unit:             "un",
			MinimumThreshold: 5,
			InitialStock:     100,
		})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		itemID := reg.Item.ID

		numMovements := 100

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
			errorCount   atomic.Int32
		)

		wg.Add(numMovements)

		for range numMovements {
			go func() {
				defer wg.Done()

				_, err := stack.Stock.ApplyMovement(ctx, usecase.ApplyMovementInput{
					ItemID:   itemID,
					Kind:     domain.MovementOutbound,
					Quantity: 1,
				})
				if err != nil {
					errorCount.Add(1)
				} else {
					successCount.Add(1)
				}
			}()
		}

		wg.Wait()

		if successCount.Load() != int32(numMovements) {
			t.Errorf("expected %d successful movements, got %d (errors: %d)", numMovements, successCount.Load(), errorCount.Load())
		}

		balance, err := stack.Stock.CurrentBalance(ctx, itemID)
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if balance != 0 {
			t.Errorf("expected balance 0, got %d", balance)
		}

		result, err := stack.Reconciliation.ReconcileItem(ctx, itemID)
		if err != nil {
			t.Fatalf("reconcile: %v", err)
		}
		if !result.IsReconciled {
			t.Errorf("expected reconciled item, got %+v", result)
		}
		if result.MovementCount != int64(numMovements+1) {
			t.Errorf("expected %d movements, got %d", numMovements+1, result.MovementCount)
		}
	})

	t.Run("withdrawals past zero are clamped", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		reg, err := stack.Stock.RegisterItem(ctx, usecase.RegisterItemInput{Name: "Grease", InitialStock: 3})
		if err != nil {
			t.Fatalf("register: %v", err)
		}

		mv, err := stack.Stock.ApplyMovement(ctx, usecase.ApplyMovementInput{
			ItemID:   reg.Item.ID,
			Kind:     domain.MovementOutbound,
			Quantity: 10,
		})
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if mv.ResultingBalance != 0 || mv.QuantityDelta != -3 {
			t.Errorf("expected clamp to zero with delta -3, got balance %d delta %d", mv.ResultingBalance, mv.QuantityDelta)
		}
	})
}

func TestConcurrentPostingIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)
	stack := testDB.NewStack()

	event := domain.RentalCreated{
		RentalID:  "rental-1",
		Customer:  "ACME",
		Equipment: domain.AssetRef{Kind: domain.AssetMachinery, ID: "excavator-7"},
		StartDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
		DailyRate: 100,
	}

	const callers = 20

	var (
		wg       sync.WaitGroup
		posted   atomic.Int32
		replayed atomic.Int32
	)
	wg.Add(callers)

	for range callers {
		go func() {
			defer wg.Done()

			outcome, err := stack.Operations.RecordRental(ctx, event, "user-1")
			if err != nil || outcome.Status != usecase.PostingPosted {
				return
			}
			posted.Add(1)
			if outcome.Replayed {
				replayed.Add(1)
			}
		}()
	}

	wg.Wait()

	if posted.Load() != callers {
		t.Errorf("expected every caller to see the posting, got %d", posted.Load())
	}
	if replayed.Load() != callers-1 {
		t.Errorf("expected %d replays, got %d", callers-1, replayed.Load())
	}

	entries, err := stack.Finance.List(ctx, domain.PostingFilter{}, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(entries))
	}
	if entries[0].Category != domain.CategoryRentals || entries[0].Direction != domain.DirectionInflow {
		t.Errorf("unexpected entry %+v", entries[0])
	}

	check, err := stack.Reconciliation.CheckPosting(ctx, domain.SourceRental, "rental-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !check.Posted {
		t.Error("expected rental to be reported as posted")
	}
}

func TestOutboxCapturesStockEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)
	stack := testDB.NewStack()

	reg, err := stack.Stock.RegisterItem(ctx, usecase.RegisterItemInput{
		Name:             "Hydraulic hose",
		MinimumThreshold: 4,
		InitialStock:     5,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := stack.Stock.ApplyMovement(ctx, usecase.ApplyMovementInput{
		ItemID:   reg.Item.ID,
		Kind:     domain.MovementOutbound,
		Quantity: 2,
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	events, err := stack.Outbox.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("outbox: %v", err)
	}

	types := map[string]int{}
	for _, ev := range events {
		if ev.AggregateID != reg.Item.ID {
			t.Errorf("unexpected aggregate %s", ev.AggregateID)
		}
		types[ev.EventType]++
	}

	for _, want := range []string{domain.EventTypeItemRegistered, domain.EventTypeMovementApplied, domain.EventTypeBelowMinimum} {
		if types[want] == 0 {
			t.Errorf("expected a %s event, got %v", want, types)
		}
	}

	for _, ev := range events {
		if err := stack.Outbox.MarkPublished(ctx, ev.ID, time.Now()); err != nil {
			t.Fatalf("mark published: %v", err)
		}
	}

	remaining, err := stack.Outbox.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("outbox: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected no unpublished events, got %d", len(remaining))
	}
}
