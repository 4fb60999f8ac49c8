package memory

import (
	"context"
	"sync"

	"github.com/billforge/billforge/internal/domain/billablemetric"
	ierr "github.com/billforge/billforge/internal/errors"
)

type BillableMetricStore struct {
	mu      sync.RWMutex
	metrics map[string]*billablemetric.BillableMetric
	byCode  map[string]string
}

func NewBillableMetricStore() *BillableMetricStore {
	return &BillableMetricStore{
		metrics: make(map[string]*billablemetric.BillableMetric),
		byCode:  make(map[string]string),
	}
}

func (s *BillableMetricStore) Create(ctx context.Context, metric *billablemetric.BillableMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.metrics[metric.ID]; exists {
		return ierr.NewError("billable metric already exists").
			WithHintf("A billable metric with id %s already exists", metric.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	if _, exists := s.byCode[metric.Code]; exists {
		return ierr.NewError("billable metric code already taken").
			WithHintf("A billable metric with code %s already exists", metric.Code).
			Mark(ierr.ErrAlreadyExists)
	}

	s.metrics[metric.ID] = metric
	s.byCode[metric.Code] = metric.ID
	return nil
}

func (s *BillableMetricStore) Get(ctx context.Context, id string) (*billablemetric.BillableMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, exists := s.metrics[id]; exists {
		return m, nil
	}
	return nil, ierr.NewError("billable metric not found").
		WithHintf("No billable metric with id %s", id).
		Mark(ierr.ErrNotFound)
}

func (s *BillableMetricStore) GetByCode(ctx context.Context, code string) (*billablemetric.BillableMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, exists := s.byCode[code]; exists {
		return s.metrics[id], nil
	}
	return nil, ierr.NewError("billable metric not found").
		WithHintf("No billable metric with code %s", code).
		Mark(ierr.ErrNotFound)
}

func (s *BillableMetricStore) List(ctx context.Context) ([]*billablemetric.BillableMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*billablemetric.BillableMetric, 0, len(s.metrics))
	for _, m := range s.metrics {
		result = append(result, m)
	}
	return result, nil
}
