package memory

import (
	"context"
	"sort"

	"github.com/iho/stockledger/internal/domain"
)

// PostingRepository implements usecase.PostingRepository.
type PostingRepository struct {
	store *Store
}

// NewPostingRepository creates a new PostingRepository.
func NewPostingRepository(store *Store) *PostingRepository {
	return &PostingRepository{store: store}
}

// Append stores the entry unless its source was already posted.
func (r *PostingRepository) Append(_ context.Context, entry *domain.PostingEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := entry.SourceKey()
	if _, exists := r.store.postings[key]; exists {
		return domain.ErrDuplicatePosting
	}
	r.store.postings[key] = clonePosting(entry)
	return nil
}

// FindBySource returns the entry posted for a source.
func (r *PostingRepository) FindBySource(_ context.Context, sourceKind, sourceID string) (*domain.PostingEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entry, ok := r.store.postings[domain.SourceKey(sourceKind, sourceID)]
	if !ok {
		return nil, domain.ErrPostingNotFound
	}
	return clonePosting(entry), nil
}

// Query returns up to limit matching entries after the cursor, newest first.
func (r *PostingRepository) Query(_ context.Context, filter domain.PostingFilter, after *domain.PostingCursor, limit int) ([]*domain.PostingEntry, error) {
	r.store.mu.RLock()
	matched := make([]*domain.PostingEntry, 0)
	for _, entry := range r.store.postings {
		if filter.Matches(entry) && after.Admits(entry) {
			matched = append(matched, clonePosting(entry))
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].OccurredAt.Equal(matched[j].OccurredAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	return page(matched, limit, 0), nil
}
