package memory

import (
	"context"
	"sync"

	"github.com/billforge/billforge/internal/domain/charge"
	ierr "github.com/billforge/billforge/internal/errors"
)

type ChargeStore struct {
	mu      sync.RWMutex
	charges map[string]*charge.Charge
}

func NewChargeStore() *ChargeStore {
	return &ChargeStore{
		charges: make(map[string]*charge.Charge),
	}
}

func (s *ChargeStore) Create(ctx context.Context, c *charge.Charge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.charges[c.ID]; exists {
		return ierr.NewError("charge already exists").
			WithHintf("A charge with id %s already exists", c.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.charges[c.ID] = c
	return nil
}

func (s *ChargeStore) Get(ctx context.Context, id string) (*charge.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, exists := s.charges[id]; exists {
		return c, nil
	}
	return nil, ierr.NewError("charge not found").
		WithHintf("No charge with id %s", id).
		Mark(ierr.ErrNotFound)
}

func (s *ChargeStore) ListByPlan(ctx context.Context, planID string) ([]*charge.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*charge.Charge
	for _, c := range s.charges {
		if c.PlanID == planID {
			result = append(result, c)
		}
	}
	return result, nil
}
