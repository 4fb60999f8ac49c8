package memory

import (
	"context"
	"sync"

	"github.com/billforge/billforge/internal/domain/plan"
	ierr "github.com/billforge/billforge/internal/errors"
)

type PlanStore struct {
	mu     sync.RWMutex
	plans  map[string]*plan.Plan
	byCode map[string]string
}

func NewPlanStore() *PlanStore {
	return &PlanStore{
		plans:  make(map[string]*plan.Plan),
		byCode: make(map[string]string),
	}
}

func (s *PlanStore) Create(ctx context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID]; exists {
		return ierr.NewError("plan already exists").
			WithHintf("A plan with id %s already exists", p.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	if _, exists := s.byCode[p.Code]; exists {
		return ierr.NewError("plan code already taken").
			WithHintf("A plan with code %s already exists", p.Code).
			Mark(ierr.ErrAlreadyExists)
	}

	s.plans[p.ID] = p
	s.byCode[p.Code] = p.ID
	return nil
}

func (s *PlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, exists := s.plans[id]; exists {
		return p, nil
	}
	return nil, ierr.NewError("plan not found").
		WithHintf("No plan with id %s", id).
		Mark(ierr.ErrNotFound)
}

func (s *PlanStore) GetByCode(ctx context.Context, code string) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, exists := s.byCode[code]; exists {
		return s.plans[id], nil
	}
	return nil, ierr.NewError("plan not found").
		WithHintf("No plan with code %s", code).
		Mark(ierr.ErrNotFound)
}
