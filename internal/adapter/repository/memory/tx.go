package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/stockledger/internal/usecase"
)

// ErrTxClosed is returned when a finished transaction is used again.
var ErrTxClosed = errors.New("memory: transaction already closed")

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: m.store, held: make(map[string]func())}, nil
}

// txOp is a buffered write. check runs against the store as left by the
// earlier ops of the same transaction; apply returns a func that reverts it.
type txOp struct {
	check func(s *Store) error
	apply func(s *Store) func()
}

// Tx buffers writes until Commit.
type Tx struct {
	store *Store
	mu    sync.Mutex
	ops   []txOp
	held  map[string]func()
	done  bool
}

func (t *Tx) add(op txOp) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxClosed
	}
	t.ops = append(t.ops, op)
	return nil
}

func (t *Tx) lockItem(ctx context.Context, id string) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return ErrTxClosed
	}
	if _, ok := t.held[id]; ok {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	unlock, err := t.store.lockItem(ctx, id)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.held[id] = unlock
	t.mu.Unlock()
	return nil
}

// Commit validates and applies the buffered writes in order. If any write
// fails its check, the writes already applied are reverted and nothing of the
// transaction stays visible.
func (t *Tx) Commit(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxClosed
	}
	defer t.finish()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	undo := make([]func(), 0, len(t.ops))
	for _, op := range t.ops {
		if op.check != nil {
			if err := op.check(t.store); err != nil {
				for i := len(undo) - 1; i >= 0; i-- {
					undo[i]()
				}
				return err
			}
		}
		undo = append(undo, op.apply(t.store))
	}

	return nil
}

// Rollback discards buffered writes. Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.finish()
	return nil
}

// finish releases held locks; t.mu must be held.
func (t *Tx) finish() {
	t.done = true
	t.ops = nil
	for id, unlock := range t.held {
		unlock()
		delete(t.held, id)
	}
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, errors.New("memory: foreign transaction")
	}
	return t, nil
}
