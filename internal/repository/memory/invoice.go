package memory

import (
	"context"
	"sync"
	"time"

	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
)

type InvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]*invoice.Invoice

	// byIdempotencyKey dedupes invoice creation across retried jobs
	byIdempotencyKey map[string]string
}

func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{
		invoices:         make(map[string]*invoice.Invoice),
		byIdempotencyKey: make(map[string]string),
	}
}

func (s *InvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID]; exists {
		return ierr.NewError("invoice already exists").
			WithHintf("An invoice with id %s already exists", inv.ID).
			Mark(ierr.ErrAlreadyExists)
	}

	if inv.IdempotencyKey != "" {
		if existingID, exists := s.byIdempotencyKey[inv.IdempotencyKey]; exists {
			return ierr.NewError("invoice already exists for idempotency key").
				WithHintf("Invoice %s was already created for this key", existingID).
				WithReportableDetails(map[string]any{
					"existing_invoice_id": existingID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		s.byIdempotencyKey[inv.IdempotencyKey] = inv.ID
	}

	s.invoices[inv.ID] = inv
	return nil
}

func (s *InvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, exists := s.invoices[id]; exists {
		return inv, nil
	}
	return nil, ierr.NewError("invoice not found").
		WithHintf("No invoice with id %s", id).
		Mark(ierr.ErrNotFound)
}

func (s *InvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID]; !exists {
		return ierr.NewError("invoice not found").
			WithHintf("No invoice with id %s", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	s.invoices[inv.ID] = inv
	return nil
}

func (s *InvoiceStore) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, exists := s.byIdempotencyKey[key]; exists {
		return s.invoices[id], nil
	}
	return nil, nil
}

func (s *InvoiceStore) ExistsForPeriod(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invoices {
		if inv.SubscriptionID == subscriptionID &&
			inv.PeriodStart.Equal(periodStart) &&
			inv.PeriodEnd.Equal(periodEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (s *InvoiceStore) CountNumbered(ctx context.Context, billingEntityID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, inv := range s.invoices {
		if countsForEntitySequence(inv, billingEntityID) {
			count++
		}
	}
	return count, nil
}

func (s *InvoiceStore) LatestWithoutEntitySequence(ctx context.Context, billingEntityID string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *invoice.Invoice
	for _, inv := range s.invoices {
		if !countsForEntitySequence(inv, billingEntityID) {
			continue
		}
		if inv.BillingEntitySequentialID != nil {
			continue
		}
		if latest == nil || laterFinalized(inv, latest) {
			latest = inv
		}
	}
	return latest, nil
}

func countsForEntitySequence(inv *invoice.Invoice, billingEntityID string) bool {
	return inv.BillingEntityID == billingEntityID &&
		inv.Number != "" &&
		!inv.SelfBilled &&
		!inv.IsDraft()
}

func laterFinalized(a, b *invoice.Invoice) bool {
	if a.FinalizedAt == nil {
		return false
	}
	if b.FinalizedAt == nil {
		return true
	}
	return a.FinalizedAt.After(*b.FinalizedAt)
}
