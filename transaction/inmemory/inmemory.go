// Package inmemory provides a map-backed transaction store for tests
// and local development.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/sweetpotato0/transagent/errors"
	"github.com/sweetpotato0/transagent/transaction"
)

// Store is an in-memory transaction.Store
type Store struct {
	mu     sync.RWMutex
	byID   map[int64]*transaction.Transaction
	order  []int64
	nextID int64
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		byID:   make(map[int64]*transaction.Transaction),
		nextID: 1,
	}
}

// Create implements transaction.Store interface
func (s *Store) Create(ctx context.Context, tx *transaction.Transaction) (*transaction.Transaction, error) {
	if tx == nil {
		return nil, errors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *tx
	clone.ID = s.nextID
	s.nextID++
	if clone.Date.IsZero() {
		clone.Date = time.Now()
	}
	s.byID[clone.ID] = &clone
	s.order = append(s.order, clone.ID)

	out := clone
	return &out, nil
}

// Get implements transaction.Store interface
func (s *Store) Get(ctx context.Context, id int64) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.byID[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	out := *tx
	return &out, nil
}

// UpdateStatus implements transaction.Store interface
func (s *Store) UpdateStatus(ctx context.Context, id int64, status transaction.Status) (*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.byID[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	tx.Status = status
	out := *tx
	return &out, nil
}

// Delete implements transaction.Store interface
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return errors.ErrNotFound
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List implements transaction.Store interface
func (s *Store) List(ctx context.Context) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*transaction.Transaction, 0, len(s.order))
	for _, id := range s.order {
		tx := *s.byID[id]
		out = append(out, &tx)
	}
	return out, nil
}

// FindByAccount implements transaction.Store interface
func (s *Store) FindByAccount(ctx context.Context, accountID int64) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*transaction.Transaction, 0)
	for _, id := range s.order {
		if s.byID[id].AccountID == accountID {
			tx := *s.byID[id]
			out = append(out, &tx)
		}
	}
	return out, nil
}

// FindByStatus implements transaction.Store interface
func (s *Store) FindByStatus(ctx context.Context, status transaction.Status) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*transaction.Transaction, 0)
	for _, id := range s.order {
		if s.byID[id].Status == status {
			tx := *s.byID[id]
			out = append(out, &tx)
		}
	}
	return out, nil
}

// Balance implements transaction.Store interface
func (s *Store) Balance(ctx context.Context, accountID int64) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance := 0.0
	for _, id := range s.order {
		tx := s.byID[id]
		if tx.AccountID != accountID {
			continue
		}
		switch tx.Type {
		case transaction.TypeCredit:
			balance += tx.Amount
		case transaction.TypeDebit:
			balance -= tx.Amount
		}
	}
	return balance, nil
}
