package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
)

// PostingStatus is the outcome of the secondary financial posting.
type PostingStatus string

const (
	PostingPosted  PostingStatus = "posted"
	PostingSkipped PostingStatus = "skipped"
	PostingFailed  PostingStatus = "failed"
)

// ReasonTimeout is the failure reason recorded when the posting ran out of time.
const ReasonTimeout = "timeout"

// PostingOutcome describes what happened to the financial mirror of an operation.
type PostingOutcome struct {
	Err        error
	Entry      *domain.PostingEntry
	Status     PostingStatus
	Reason     string
	SourceKind string
	SourceID   string
	// Replayed is set when the source had already been posted.
	Replayed bool
}

// Result pairs the committed primary result with its posting outcome.
// Posting is nil when the primary operation has no financial mirror.
type Result[T any] struct {
	Primary T
	Posting *PostingOutcome
}

// Coordinator runs a primary write followed by a best-effort financial posting.
// A posting failure never undoes or fails the primary write.
type Coordinator struct {
	poster  EventPoster
	timeout time.Duration
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewCoordinator creates a new Coordinator. A non-positive timeout uses DefaultPostingTimeout.
func NewCoordinator(poster EventPoster, timeout time.Duration, logger zerolog.Logger, metrics *metrics.Metrics) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultPostingTimeout
	}

	return &Coordinator{
		poster:  poster,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Execute runs primary and, once it has succeeded, posts the event derived from
// its result. A done ctx aborts before primary runs. Errors from primary are
// returned as is; posting problems are reported only through Result.Posting.
func Execute[T any](
	ctx context.Context,
	c *Coordinator,
	actorID string,
	primary func(ctx context.Context) (T, error),
	event func(T) (domain.DomainEvent, bool),
) (Result[T], error) {
	var result Result[T]

	if err := ctx.Err(); err != nil {
		return result, err
	}

	value, err := primary(ctx)
	if err != nil {
		return result, err
	}
	result.Primary = value

	if ev, ok := event(value); ok {
		result.Posting = c.Post(ctx, ev, actorID)
	}

	return result, nil
}

// Post posts ev under the coordinator's timeout and classifies the result.
// Replaying an already posted event yields a Posted outcome with Replayed set.
func (c *Coordinator) Post(ctx context.Context, ev domain.DomainEvent, actorID string) *PostingOutcome {
	start := time.Now()

	postCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	outcome := &PostingOutcome{
		SourceKind: ev.SourceKind(),
		SourceID:   ev.SourceID(),
	}

	entry, err := c.poster.Post(postCtx, ev, actorID)
	switch {
	case err == nil:
		outcome.Status = PostingPosted
		outcome.Entry = entry
	case errors.Is(err, domain.ErrDuplicatePosting):
		outcome.Status = PostingPosted
		outcome.Entry = entry
		outcome.Replayed = true
	case errors.Is(err, domain.ErrNoPriceAvailable):
		outcome.Status = PostingSkipped
		outcome.Reason = err.Error()
	case postCtx.Err() != nil, errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		outcome.Status = PostingFailed
		outcome.Reason = ReasonTimeout
		outcome.Err = err
	default:
		outcome.Status = PostingFailed
		outcome.Reason = err.Error()
		outcome.Err = err
	}

	c.record(outcome, time.Since(start))

	return outcome
}

func (c *Coordinator) record(outcome *PostingOutcome, elapsed time.Duration) {
	if c.metrics != nil {
		c.metrics.PostingOutcomes.WithLabelValues(outcome.SourceKind, string(outcome.Status)).Inc()
		c.metrics.PostingDuration.Observe(elapsed.Seconds())
	}

	switch outcome.Status {
	case PostingFailed:
		c.logger.Warn().
			Err(outcome.Err).
			Str("source_kind", outcome.SourceKind).
			Str("source_id", outcome.SourceID).
			Str("reason", outcome.Reason).
			Msg("financial posting failed; primary record kept")
	case PostingSkipped:
		c.logger.Debug().
			Str("source_kind", outcome.SourceKind).
			Str("source_id", outcome.SourceID).
			Str("reason", outcome.Reason).
			Msg("financial posting skipped")
	default:
		c.logger.Debug().
			Str("source_kind", outcome.SourceKind).
			Str("source_id", outcome.SourceID).
			Bool("replayed", outcome.Replayed).
			Msg("financial posting recorded")
	}
}
