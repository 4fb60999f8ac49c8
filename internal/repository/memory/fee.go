package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/billforge/billforge/internal/domain/fee"
	ierr "github.com/billforge/billforge/internal/errors"
)

type FeeStore struct {
	mu   sync.RWMutex
	fees map[string]*fee.Fee

	// byKey indexes non-true-up fees, enforcing their per-key
	// uniqueness on insert
	byKey map[string]string
}

func NewFeeStore() *FeeStore {
	return &FeeStore{
		fees:  make(map[string]*fee.Fee),
		byKey: make(map[string]string),
	}
}

func lookupKeyString(key fee.LookupKey) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d",
		key.SubscriptionID,
		key.ChargeID,
		key.ChargeFilterID,
		key.GroupKey,
		key.FeeType,
		key.PeriodStart.UTC().UnixNano(),
		key.PeriodEnd.UTC().UnixNano(),
	)
}

func (s *FeeStore) Create(ctx context.Context, f *fee.Fee) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fees[f.ID]; exists {
		return ierr.NewError("fee already exists").
			WithHintf("A fee with id %s already exists", f.ID).
			Mark(ierr.ErrAlreadyExists)
	}

	if !f.IsTrueUp() {
		keyStr := lookupKeyString(f.Key())
		if existingID, exists := s.byKey[keyStr]; exists {
			return ierr.NewError("fee already exists for key").
				WithHintf("Fee %s already covers this charge and period", existingID).
				WithReportableDetails(map[string]any{
					"existing_fee_id": existingID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		s.byKey[keyStr] = f.ID
	}

	s.fees[f.ID] = f
	return nil
}

func (s *FeeStore) Get(ctx context.Context, id string) (*fee.Fee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, exists := s.fees[id]; exists {
		return f, nil
	}
	return nil, ierr.NewError("fee not found").
		WithHintf("No fee with id %s", id).
		Mark(ierr.ErrNotFound)
}

func (s *FeeStore) Update(ctx context.Context, f *fee.Fee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.fees[f.ID]; !exists {
		return ierr.NewError("fee not found").
			WithHintf("No fee with id %s", f.ID).
			Mark(ierr.ErrNotFound)
	}
	s.fees[f.ID] = f
	return nil
}

func (s *FeeStore) FindByKey(ctx context.Context, key fee.LookupKey) (*fee.Fee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, exists := s.byKey[lookupKeyString(key)]; exists {
		return s.fees[id], nil
	}
	return nil, nil
}

func (s *FeeStore) ListByCharge(ctx context.Context, subscriptionID, chargeID string, periodStart, periodEnd time.Time) ([]*fee.Fee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*fee.Fee
	for _, f := range s.fees {
		if f.SubscriptionID == subscriptionID &&
			f.ChargeID == chargeID &&
			periodsOverlap(f.PeriodStart, f.PeriodEnd, periodStart, periodEnd) {
			result = append(result, f)
		}
	}
	return result, nil
}

// periodsOverlap treats periods as [start, end) intervals. Pay in
// advance delta fees start mid-period, so overlap rather than exact
// boundary equality decides membership.
func periodsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func (s *FeeStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*fee.Fee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*fee.Fee
	for _, f := range s.fees {
		if f.InvoiceID == invoiceID {
			result = append(result, f)
		}
	}
	return result, nil
}

func (s *FeeStore) ListPending(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) ([]*fee.Fee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*fee.Fee
	for _, f := range s.fees {
		if f.SubscriptionID == subscriptionID &&
			f.InvoiceID == "" &&
			periodsOverlap(f.PeriodStart, f.PeriodEnd, periodStart, periodEnd) {
			result = append(result, f)
		}
	}
	return result, nil
}

type AdjustedFeeStore struct {
	mu       sync.RWMutex
	adjusted map[string]*fee.AdjustedFee
}

func NewAdjustedFeeStore() *AdjustedFeeStore {
	return &AdjustedFeeStore{
		adjusted: make(map[string]*fee.AdjustedFee),
	}
}

func (s *AdjustedFeeStore) Create(ctx context.Context, adj *fee.AdjustedFee) error {
	if err := adj.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.adjusted[adj.ID]; exists {
		return ierr.NewError("adjusted fee already exists").
			WithHintf("An adjusted fee with id %s already exists", adj.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.adjusted[adj.ID] = adj
	return nil
}

func (s *AdjustedFeeStore) Update(ctx context.Context, adj *fee.AdjustedFee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.adjusted[adj.ID]; !exists {
		return ierr.NewError("adjusted fee not found").
			WithHintf("No adjusted fee with id %s", adj.ID).
			Mark(ierr.ErrNotFound)
	}
	s.adjusted[adj.ID] = adj
	return nil
}

func (s *AdjustedFeeStore) ListUnconsumedByInvoice(ctx context.Context, invoiceID string) ([]*fee.AdjustedFee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*fee.AdjustedFee
	for _, adj := range s.adjusted {
		if adj.InvoiceID == invoiceID && !adj.Consumed {
			result = append(result, adj)
		}
	}
	return result, nil
}
