package memory

import (
	"context"
	"sync"

	"github.com/billforge/billforge/internal/domain/billingentity"
	ierr "github.com/billforge/billforge/internal/errors"
)

type BillingEntityStore struct {
	mu       sync.RWMutex
	entities map[string]*billingentity.BillingEntity
}

func NewBillingEntityStore() *BillingEntityStore {
	return &BillingEntityStore{
		entities: make(map[string]*billingentity.BillingEntity),
	}
}

func (s *BillingEntityStore) Create(ctx context.Context, entity *billingentity.BillingEntity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entities[entity.ID]; exists {
		return ierr.NewError("billing entity already exists").
			WithHintf("A billing entity with id %s already exists", entity.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.entities[entity.ID] = entity
	return nil
}

func (s *BillingEntityStore) Get(ctx context.Context, id string) (*billingentity.BillingEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entity, exists := s.entities[id]; exists {
		return entity, nil
	}
	return nil, ierr.NewError("billing entity not found").
		WithHintf("No billing entity with id %s", id).
		Mark(ierr.ErrNotFound)
}

func (s *BillingEntityStore) Update(ctx context.Context, entity *billingentity.BillingEntity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entities[entity.ID]; !exists {
		return ierr.NewError("billing entity not found").
			WithHintf("No billing entity with id %s", entity.ID).
			Mark(ierr.ErrNotFound)
	}
	s.entities[entity.ID] = entity
	return nil
}
