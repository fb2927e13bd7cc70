// Package memory provides in-process implementations of the repository ports.
// Writes made through a transaction become visible on Commit; row locks taken
// with GetByIDForUpdate are held until Commit or Rollback.
package memory

import (
	"context"
	"sync"

	"github.com/iho/stockledger/internal/domain"
)

// Store holds all in-memory state shared by the repositories.
type Store struct {
	mu sync.RWMutex

	items     map[string]*domain.StockItem
	skus      map[string]string
	movements map[string][]*domain.Movement
	postings  map[string]*domain.PostingEntry
	outbox    []*domain.OutboxEvent

	lockMu    sync.Mutex
	itemLocks map[string]*itemLock
}

// itemLock is a row lock shared by every transaction waiting on the same item.
// It is dropped from the store once nobody holds or waits on it.
type itemLock struct {
	ch   chan struct{}
	refs int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		items:     make(map[string]*domain.StockItem),
		skus:      make(map[string]string),
		movements: make(map[string][]*domain.Movement),
		postings:  make(map[string]*domain.PostingEntry),
		itemLocks: make(map[string]*itemLock),
	}
}

// lockItem blocks until the row lock for id is free or ctx is done. The
// returned func releases the lock.
func (s *Store) lockItem(ctx context.Context, id string) (func(), error) {
	s.lockMu.Lock()
	l, ok := s.itemLocks[id]
	if !ok {
		l = &itemLock{ch: make(chan struct{}, 1)}
		s.itemLocks[id] = l
	}
	l.refs++
	s.lockMu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			s.dropItemLock(id, l)
		}, nil
	case <-ctx.Done():
		s.dropItemLock(id, l)
		return nil, ctx.Err()
	}
}

func (s *Store) dropItemLock(id string, l *itemLock) {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(s.itemLocks, id)
	}
}

func cloneItem(item *domain.StockItem) *domain.StockItem {
	c := *item
	if item.MaximumThreshold != nil {
		v := *item.MaximumThreshold
		c.MaximumThreshold = &v
	}
	return &c
}

func cloneMovement(m *domain.Movement) *domain.Movement {
	c := *m
	return &c
}

func clonePosting(p *domain.PostingEntry) *domain.PostingEntry {
	c := *p
	return &c
}

func cloneOutboxEvent(e *domain.OutboxEvent) *domain.OutboxEvent {
	c := *e
	if e.Payload != nil {
		c.Payload = make(map[string]any, len(e.Payload))
		for k, v := range e.Payload {
			c.Payload[k] = v
		}
	}
	if e.PublishedAt != nil {
		t := *e.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}
