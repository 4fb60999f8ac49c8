package memory

import (
	"context"
	"sync"

	"github.com/billforge/billforge/internal/domain/tax"
	ierr "github.com/billforge/billforge/internal/errors"
)

type TaxRateStore struct {
	mu    sync.RWMutex
	rates map[string]*tax.TaxRate
}

func NewTaxRateStore() *TaxRateStore {
	return &TaxRateStore{
		rates: make(map[string]*tax.TaxRate),
	}
}

func (s *TaxRateStore) Create(ctx context.Context, rate *tax.TaxRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rates[rate.Code]; exists {
		return ierr.NewError("tax rate already exists").
			WithHintf("A tax rate with code %s already exists", rate.Code).
			Mark(ierr.ErrAlreadyExists)
	}
	s.rates[rate.Code] = rate
	return nil
}

func (s *TaxRateStore) GetByCode(ctx context.Context, code string) (*tax.TaxRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rate, exists := s.rates[code]; exists {
		return rate, nil
	}
	return nil, ierr.NewError("tax rate not found").
		WithHintf("No tax rate with code %s", code).
		Mark(ierr.ErrNotFound)
}

func (s *TaxRateStore) GetByCodes(ctx context.Context, codes []string) ([]*tax.TaxRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*tax.TaxRate, 0, len(codes))
	for _, code := range codes {
		rate, exists := s.rates[code]
		if !exists {
			return nil, ierr.NewError("tax rate not found").
				WithHintf("No tax rate with code %s", code).
				Mark(ierr.ErrNotFound)
		}
		result = append(result, rate)
	}
	return result, nil
}

func (s *TaxRateStore) ListOrganizationDefaults(ctx context.Context) ([]*tax.TaxRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*tax.TaxRate
	for _, rate := range s.rates {
		if rate.AppliedToOrganization {
			result = append(result, rate)
		}
	}
	return result, nil
}

type AppliedTaxStore struct {
	mu      sync.RWMutex
	applied map[string]*tax.AppliedTax
}

func NewAppliedTaxStore() *AppliedTaxStore {
	return &AppliedTaxStore{
		applied: make(map[string]*tax.AppliedTax),
	}
}

func (s *AppliedTaxStore) Create(ctx context.Context, a *tax.AppliedTax) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.applied[a.ID]; exists {
		return ierr.NewError("applied tax already exists").
			WithHintf("An applied tax with id %s already exists", a.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.applied[a.ID] = a
	return nil
}

func (s *AppliedTaxStore) ListByFee(ctx context.Context, feeID string) ([]*tax.AppliedTax, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*tax.AppliedTax
	for _, a := range s.applied {
		if a.FeeID == feeID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *AppliedTaxStore) DeleteByFee(ctx context.Context, feeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range s.applied {
		if a.FeeID == feeID {
			delete(s.applied, id)
		}
	}
	return nil
}

func (s *AppliedTaxStore) ListByInvoice(ctx context.Context, invoiceID string) ([]*tax.AppliedTax, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*tax.AppliedTax
	for _, a := range s.applied {
		if a.InvoiceID == invoiceID {
			result = append(result, a)
		}
	}
	return result, nil
}
