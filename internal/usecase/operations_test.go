package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

func TestOperations_RegisterPartPostsInitialStock(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	result, err := h.operations.RegisterPart(ctx, usecase.RegisterPartInput{
		RegisterItemInput: usecase.RegisterItemInput{
			SKU:          "PAD-01",
			Name:         "Brake pad",
			InitialStock: 4,
			ActorID:      "user-1",
		},
		UnitPrice: ptr(12.5),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Posting)

	assert.Equal(t, usecase.PostingPosted, result.Posting.Status)
	assert.Equal(t, domain.SourceStockEntry, result.Posting.SourceKind)
	assert.Equal(t, result.Primary.InitialMovement.ID, result.Posting.SourceID)
	assert.True(t, result.Posting.Entry.Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, domain.CategoryPartsPurchase, result.Posting.Entry.Category)
	assert.Equal(t, "user-1", result.Posting.Entry.ActorID)
}

func TestOperations_RegisterPartWithoutPrice(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	result, err := h.operations.RegisterPart(ctx, usecase.RegisterPartInput{
		RegisterItemInput: usecase.RegisterItemInput{SKU: "PAD-02", Name: "Brake pad", InitialStock: 4},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Posting)
	assert.Equal(t, usecase.PostingSkipped, result.Posting.Status)

	balance, err := h.stock.CurrentBalance(ctx, result.Primary.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), balance, "stock is kept when nothing is posted")

	noStock, err := h.operations.RegisterPart(ctx, usecase.RegisterPartInput{
		RegisterItemInput: usecase.RegisterItemInput{SKU: "PAD-03", Name: "Spare"},
		UnitPrice:         ptr(3.0),
	})
	require.NoError(t, err)
	assert.Nil(t, noStock.Posting)
}

func TestOperations_RecordStockMovement(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	item := registerItem(t, h, "OIL", 10, 0)

	inbound, err := h.operations.RecordStockMovement(ctx, usecase.RecordMovementInput{
		ApplyMovementInput: usecase.ApplyMovementInput{
			ItemID:     item.ID,
			Kind:       domain.MovementInbound,
			Quantity:   6,
			ReasonCode: domain.ReasonPurchase,
		},
		UnitPrice: ptr(7.25),
	})
	require.NoError(t, err)
	require.NotNil(t, inbound.Posting)
	assert.Equal(t, usecase.PostingPosted, inbound.Posting.Status)
	assert.True(t, inbound.Posting.Entry.Amount.Equal(decimal.RequireFromString("43.5")))
	assert.Contains(t, inbound.Posting.Entry.Narrative, "Item OIL")

	outbound, err := h.operations.RecordStockMovement(ctx, usecase.RecordMovementInput{
		ApplyMovementInput: usecase.ApplyMovementInput{ItemID: item.ID, Kind: domain.MovementOutbound, Quantity: 2},
		UnitPrice:          ptr(7.25),
	})
	require.NoError(t, err)
	assert.Nil(t, outbound.Posting)
	assert.Equal(t, int64(14), outbound.Primary.ResultingBalance)

	_, err = h.operations.RecordStockMovement(ctx, usecase.RecordMovementInput{
		ApplyMovementInput: usecase.ApplyMovementInput{ItemID: item.ID, Kind: domain.MovementAdjustment, Quantity: -3},
		UnitPrice:          ptr(1.0),
	})
	assert.ErrorIs(t, err, domain.ErrNegativeResultingBalance)
}

func TestOperations_ReplayedEventsPostOnce(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	rental := domain.RentalCreated{
		RentalID:      "R-1",
		Customer:      "Acme",
		Equipment:     domain.AssetRef{Kind: domain.AssetMachinery, ID: "EX-1"},
		StartDate:     day(1),
		EndDate:       day(3),
		DailyRate:     100,
		TransportCost: ptr(50.0),
	}

	first, err := h.operations.RecordRental(ctx, rental, "")
	require.NoError(t, err)
	assert.Equal(t, usecase.PostingPosted, first.Status)
	assert.False(t, first.Replayed)
	assert.True(t, first.Entry.Amount.Equal(decimal.NewFromInt(350)))

	second, err := h.operations.RecordRental(ctx, rental, "")
	require.NoError(t, err)
	assert.Equal(t, usecase.PostingPosted, second.Status)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)

	fuel, err := h.operations.RecordFuelPurchase(ctx, domain.FuelPurchased{
		FuelRecordID: "F-1", Quantity: 10, UnitPrice: 4.5,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, usecase.PostingPosted, fuel.Status)

	tool, err := h.operations.RecordToolPurchase(ctx, domain.ToolPurchased{ToolID: "T-1", Name: "Donated"}, "")
	require.NoError(t, err)
	assert.Equal(t, usecase.PostingSkipped, tool.Status)

	entries, err := h.finance.List(ctx, domain.PostingFilter{}, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
