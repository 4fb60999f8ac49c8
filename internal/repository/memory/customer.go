package memory

import (
	"context"
	"sync"

	"github.com/billforge/billforge/internal/domain/customer"
	ierr "github.com/billforge/billforge/internal/errors"
)

type CustomerStore struct {
	mu        sync.RWMutex
	customers map[string]*customer.Customer

	// slotCounters tracks the highest numbering slot handed out per
	// billing entity
	slotCounters map[string]int
}

func NewCustomerStore() *CustomerStore {
	return &CustomerStore{
		customers:    make(map[string]*customer.Customer),
		slotCounters: make(map[string]int),
	}
}

func (s *CustomerStore) Create(ctx context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID]; exists {
		return ierr.NewError("customer already exists").
			WithHintf("A customer with id %s already exists", c.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.customers[c.ID] = c
	return nil
}

func (s *CustomerStore) Get(ctx context.Context, id string) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, exists := s.customers[id]; exists {
		return c, nil
	}
	return nil, ierr.NewError("customer not found").
		WithHintf("No customer with id %s", id).
		Mark(ierr.ErrNotFound)
}

func (s *CustomerStore) Update(ctx context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID]; !exists {
		return ierr.NewError("customer not found").
			WithHintf("No customer with id %s", c.ID).
			Mark(ierr.ErrNotFound)
	}
	s.customers[c.ID] = c
	return nil
}

// AssignNumberingSlot hands out per-customer numbering slots within a
// billing entity. The assignment happens at most once per customer;
// concurrent callers observe the same slot.
func (s *CustomerStore) AssignNumberingSlot(ctx context.Context, customerID, billingEntityID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.customers[customerID]
	if !exists {
		return 0, ierr.NewError("customer not found").
			WithHintf("No customer with id %s", customerID).
			Mark(ierr.ErrNotFound)
	}

	if c.NumberingSlot > 0 {
		return c.NumberingSlot, nil
	}

	s.slotCounters[billingEntityID]++
	c.NumberingSlot = s.slotCounters[billingEntityID]
	return c.NumberingSlot, nil
}
