package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
	"github.com/iho/stockledger/internal/usecase/mocks"
)

func appendEntry(t *testing.T, h *harness, id string, dir domain.Direction, category string, amount int64, at time.Time) {
	t.Helper()

	_, err := h.finance.Append(context.Background(), &domain.PostingEntry{
		ID:         id,
		Direction:  dir,
		Category:   category,
		Amount:     decimal.NewFromInt(amount),
		SourceKind: "test",
		SourceID:   id,
		OccurredAt: at,
	})
	require.NoError(t, err)
}

func TestFinanceUseCase_AppendValidates(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.finance.Append(ctx, &domain.PostingEntry{
		ID: "p-1", Direction: domain.DirectionOutflow, Category: domain.CategoryFuel,
		Amount: decimal.Zero, SourceKind: "test", SourceID: "1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	appendEntry(t, h, "p-2", domain.DirectionOutflow, domain.CategoryFuel, 10, day(1))

	_, err = h.finance.Append(ctx, &domain.PostingEntry{
		ID: "p-3", Direction: domain.DirectionOutflow, Category: domain.CategoryFuel,
		Amount: decimal.NewFromInt(5), SourceKind: "test", SourceID: "p-2",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicatePosting)
}

func TestFinanceUseCase_QueryNewestFirstAcrossPages(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	const total = 450
	for i := 0; i < total; i++ {
		// pairs share a timestamp so the id tiebreak is exercised
		at := base.Add(time.Duration(i/2) * time.Hour)
		appendEntry(t, h, fmt.Sprintf("p-%04d", i), domain.DirectionOutflow, domain.CategoryFuel, 1, at)
	}

	var got []*domain.PostingEntry
	for entry, err := range h.finance.Query(ctx, domain.PostingFilter{}) {
		require.NoError(t, err)
		got = append(got, entry)
	}

	require.Len(t, got, total)
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		ordered := prev.OccurredAt.After(cur.OccurredAt) ||
			(prev.OccurredAt.Equal(cur.OccurredAt) && prev.ID > cur.ID)
		assert.True(t, ordered, "entries %s and %s out of order", prev.ID, cur.ID)
	}
	assert.Equal(t, "p-0449", got[0].ID)
	assert.Equal(t, "p-0000", got[total-1].ID)
}

func TestFinanceUseCase_QueryFilters(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	appendEntry(t, h, "fuel-1", domain.DirectionOutflow, domain.CategoryFuel, 45, day(1))
	appendEntry(t, h, "fuel-2", domain.DirectionOutflow, domain.CategoryFuel, 30, day(10))
	appendEntry(t, h, "rent-1", domain.DirectionInflow, domain.CategoryRentals, 350, day(5))

	tests := []struct {
		name   string
		filter domain.PostingFilter
		want   []string
	}{
		{"all", domain.PostingFilter{}, []string{"fuel-2", "rent-1", "fuel-1"}},
		{"category", domain.PostingFilter{Category: domain.CategoryFuel}, []string{"fuel-2", "fuel-1"}},
		{"direction", domain.PostingFilter{Direction: domain.DirectionInflow}, []string{"rent-1"}},
		{"range to exclusive", domain.PostingFilter{From: ptr(day(1)), To: ptr(day(10))}, []string{"rent-1", "fuel-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := h.finance.List(ctx, tt.filter, 0)
			require.NoError(t, err)

			ids := make([]string, 0, len(entries))
			for _, e := range entries {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	limited, err := h.finance.List(ctx, domain.PostingFilter{}, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestFinanceUseCase_Summaries(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	appendEntry(t, h, "fuel-1", domain.DirectionOutflow, domain.CategoryFuel, 45, day(1))
	appendEntry(t, h, "fuel-2", domain.DirectionOutflow, domain.CategoryFuel, 30, day(2))
	appendEntry(t, h, "rent-1", domain.DirectionInflow, domain.CategoryRentals, 350, day(2))

	byCategory, err := h.finance.SummarizeByCategory(ctx, domain.PostingFilter{})
	require.NoError(t, err)
	require.Len(t, byCategory, 2)
	assert.Equal(t, domain.CategoryFuel, byCategory[0].Category)
	assert.True(t, byCategory[0].Total.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, 2, byCategory[0].Count)

	byDay, err := h.finance.SummarizeByPeriod(ctx, domain.PostingFilter{}, domain.PeriodDay)
	require.NoError(t, err)
	require.Len(t, byDay, 2)
	assert.True(t, byDay[1].Inflow.Equal(decimal.NewFromInt(350)))
	assert.True(t, byDay[1].Outflow.Equal(decimal.NewFromInt(30)))
	assert.True(t, byDay[1].Net.Equal(decimal.NewFromInt(320)))
}

func TestFinanceUseCase_QueryPropagatesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockPostingRepository(ctrl)
	repoErr := errors.New("query failed")

	repo.EXPECT().Query(gomock.Any(), gomock.Any(), gomock.Nil(), gomock.Any()).Return(nil, repoErr)

	uc := usecase.NewFinanceUseCase(repo, nil)
	_, err := uc.List(context.Background(), domain.PostingFilter{}, 0)
	assert.ErrorIs(t, err, repoErr)
}
