package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
)

// PostingUseCase turns domain events into financial ledger entries.
type PostingUseCase struct {
	ledger  *FinanceUseCase
	locker  KeyLocker
	idGen   IDGenerator
	metrics *metrics.Metrics
}

// NewPostingUseCase creates a new PostingUseCase. locker and metrics may be nil.
func NewPostingUseCase(ledger *FinanceUseCase, locker KeyLocker, idGen IDGenerator, metrics *metrics.Metrics) *PostingUseCase {
	return &PostingUseCase{
		ledger:  ledger,
		locker:  locker,
		idGen:   idGen,
		metrics: metrics,
	}
}

type postingRule struct {
	direction domain.Direction
	category  string
	narrative string
}

// Post derives and appends the entry for event.
//
// It returns domain.ErrNoPriceAvailable when the event warrants no posting and
// wraps malformed event data in domain.ErrDerivation. When the source was
// already posted the existing entry is returned together with
// domain.ErrDuplicatePosting.
func (uc *PostingUseCase) Post(ctx context.Context, event domain.DomainEvent, actorID string) (*domain.PostingEntry, error) {
	amount, err := domain.DeriveCost(event)
	if err != nil {
		if errors.Is(err, domain.ErrNoPriceAvailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrDerivation, err)
	}

	rule, err := ruleFor(event)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDerivation, err)
	}

	occurredAt := event.OccurredOn()
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	entry := &domain.PostingEntry{
		ID:         uc.idGen.Generate(),
		Direction:  rule.direction,
		Category:   rule.category,
		Amount:     amount,
		OccurredAt: occurredAt.UTC(),
		SourceKind: event.SourceKind(),
		SourceID:   event.SourceID(),
		Narrative:  rule.narrative,
		ActorID:    actorID,
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDerivation, err)
	}

	var posted *domain.PostingEntry
	err = uc.withSourceLock(ctx, entry.SourceKey(), func(ctx context.Context) error {
		existing, err := uc.ledger.FindBySource(ctx, entry.SourceKind, entry.SourceID)
		if err == nil {
			posted = existing
			return domain.ErrDuplicatePosting
		}
		if !errors.Is(err, domain.ErrPostingNotFound) {
			return err
		}

		posted, err = uc.ledger.Append(ctx, entry)
		if errors.Is(err, domain.ErrDuplicatePosting) {
			existing, findErr := uc.ledger.FindBySource(ctx, entry.SourceKind, entry.SourceID)
			if findErr != nil {
				return findErr
			}
			posted = existing
		}
		return err
	})

	if errors.Is(err, domain.ErrDuplicatePosting) {
		if uc.metrics != nil {
			uc.metrics.PostingDuplicate.Inc()
		}
		return posted, err
	}
	if err != nil {
		return nil, err
	}

	return posted, nil
}

func (uc *PostingUseCase) withSourceLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if uc.locker == nil {
		return fn(ctx)
	}
	return uc.locker.WithLock(ctx, "posting:"+key, fn)
}

func ruleFor(event domain.DomainEvent) (postingRule, error) {
	switch e := event.(type) {
	case domain.FuelPurchased:
		return postingRule{
			direction: domain.DirectionOutflow,
			category:  domain.CategoryFuel,
			narrative: fmt.Sprintf("Fuel purchase: %s x %s for %s %s",
				formatFloat(e.Quantity), formatFloat(e.UnitPrice), e.Item.Kind, e.Item.ID),
		}, nil
	case domain.ToolPurchased:
		return postingRule{
			direction: domain.DirectionOutflow,
			category:  domain.CategoryToolsPurchase,
			narrative: "Tool purchase: " + e.Name,
		}, nil
	case domain.StockEntered:
		narrative := fmt.Sprintf("Stock entry: %d x %s of %s", e.Quantity, formatFloat(*e.UnitPrice), e.ItemName)
		if e.Reason != "" {
			narrative += " (" + e.Reason + ")"
		}
		return postingRule{
			direction: domain.DirectionOutflow,
			category:  domain.CategoryPartsPurchase,
			narrative: narrative,
		}, nil
	case domain.RentalCreated:
		days, _ := domain.RentalDays(e.StartDate, e.EndDate)
		return postingRule{
			direction: domain.DirectionInflow,
			category:  domain.CategoryRentals,
			narrative: fmt.Sprintf("Rental to %s: %s %s, %d days from %s to %s",
				e.Customer, e.Equipment.Kind, e.Equipment.ID, days,
				e.StartDate.Format(time.DateOnly), e.EndDate.Format(time.DateOnly)),
		}, nil
	default:
		return postingRule{}, fmt.Errorf("%w: %T", domain.ErrUnknownEvent, event)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
