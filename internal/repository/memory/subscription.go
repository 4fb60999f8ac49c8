package memory

import (
	"context"
	"sync"

	"github.com/billforge/billforge/internal/domain/subscription"
	ierr "github.com/billforge/billforge/internal/errors"
)

type SubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]*subscription.Subscription
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		subs: make(map[string]*subscription.Subscription),
	}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subs[sub.ID]; exists {
		return ierr.NewError("subscription already exists").
			WithHintf("A subscription with id %s already exists", sub.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.subs[sub.ID] = sub
	return nil
}

func (s *SubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, exists := s.subs[id]; exists {
		return sub, nil
	}
	return nil, ierr.NewError("subscription not found").
		WithHintf("No subscription with id %s", id).
		Mark(ierr.ErrNotFound)
}

func (s *SubscriptionStore) ListByCustomer(ctx context.Context, customerID string) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*subscription.Subscription
	for _, sub := range s.subs {
		if sub.CustomerID == customerID {
			result = append(result, sub)
		}
	}
	return result, nil
}
