package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/billforge/billforge/internal/domain/billingentity"
	"github.com/billforge/billforge/internal/domain/customer"
	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/testutil"
	"github.com/billforge/billforge/internal/types"
	"github.com/stretchr/testify/suite"
)

type SequenceAllocatorSuite struct {
	testutil.BaseServiceTestSuite
	service  SequenceAllocator
	testData struct {
		entity    *billingentity.BillingEntity
		customer1 *customer.Customer
		customer2 *customer.Customer
	}
}

func TestSequenceAllocator(t *testing.T) {
	suite.Run(t, new(SequenceAllocatorSuite))
}

func (s *SequenceAllocatorSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *SequenceAllocatorSuite) setupService() {
	s.service = NewSequenceAllocator(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		CustomerRepo:      s.GetStores().CustomerRepo,
		BillingEntityRepo: s.GetStores().BillingEntityRepo,
		InvoiceRepo:       s.GetStores().InvoiceRepo,
		SequenceRepo:      s.GetStores().SequenceRepo,
	})
}

func (s *SequenceAllocatorSuite) setupTestData() {
	ctx := s.GetContext()

	s.testData.entity = &billingentity.BillingEntity{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_ENTITY),
		Code:                 "acme",
		Name:                 "Acme Inc",
		DocumentNumberPrefix: "ACME",
		DocumentNumbering:    types.NumberingPerCustomer,
		BaseModel:            types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().BillingEntityRepo.Create(ctx, s.testData.entity))

	s.testData.customer1 = &customer.Customer{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		ExternalID: "cust-ext-1",
		Name:       "Customer One",
		Currency:   "usd",
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(ctx, s.testData.customer1))

	s.testData.customer2 = &customer.Customer{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		ExternalID: "cust-ext-2",
		Name:       "Customer Two",
		Currency:   "usd",
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().CustomerRepo.Create(ctx, s.testData.customer2))
}

func (s *SequenceAllocatorSuite) newDraftInvoice(customerID string) *invoice.Invoice {
	ctx := s.GetContext()

	inv := &invoice.Invoice{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		CustomerID:      customerID,
		BillingEntityID: s.testData.entity.ID,
		Currency:        "usd",
		PeriodStart:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		InvoiceStatus:   types.InvoiceStatusDraft,
		PaymentStatus:   types.PaymentStatusPending,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().InvoiceRepo.Create(ctx, inv))
	return inv
}

func (s *SequenceAllocatorSuite) TestPerCustomerNumbering() {
	inv1 := s.newDraftInvoice(s.testData.customer1.ID)

	alloc, err := s.service.AllocateNumber(s.GetContext(), inv1, s.testData.entity)
	s.NoError(err)
	s.Equal("ACME-001-001", alloc.Number)
	s.Equal(int64(1), alloc.SequentialID)
	s.Nil(alloc.BillingEntitySequentialID)

	// same customer increments its own sequence
	inv2 := s.newDraftInvoice(s.testData.customer1.ID)
	alloc, err = s.service.AllocateNumber(s.GetContext(), inv2, s.testData.entity)
	s.NoError(err)
	s.Equal("ACME-001-002", alloc.Number)

	// a new customer gets the next slot and a fresh sequence
	inv3 := s.newDraftInvoice(s.testData.customer2.ID)
	alloc, err = s.service.AllocateNumber(s.GetContext(), inv3, s.testData.entity)
	s.NoError(err)
	s.Equal("ACME-002-001", alloc.Number)
}

func (s *SequenceAllocatorSuite) TestPerOrganizationNumbering() {
	s.testData.entity.DocumentNumbering = types.NumberingPerOrganization

	month := invoice.MonthKey(time.Now().UTC())
	inv1 := s.newDraftInvoice(s.testData.customer1.ID)

	alloc, err := s.service.AllocateNumber(s.GetContext(), inv1, s.testData.entity)
	s.NoError(err)
	s.Equal(fmt.Sprintf("ACME-%s-001", month), alloc.Number)
	s.Equal(int64(1), alloc.SequentialID)

	// the monthly counter and the global sequential id advance together
	inv2 := s.newDraftInvoice(s.testData.customer2.ID)
	alloc, err = s.service.AllocateNumber(s.GetContext(), inv2, s.testData.entity)
	s.NoError(err)
	s.Equal(fmt.Sprintf("ACME-%s-002", month), alloc.Number)
	s.Equal(int64(2), alloc.SequentialID)
}

func (s *SequenceAllocatorSuite) TestPerOrganizationConcurrentAllocations() {
	s.testData.entity.DocumentNumbering = types.NumberingPerOrganization

	const n = 8
	invoices := make([]*invoice.Invoice, n)
	for i := 0; i < n; i++ {
		invoices[i] = s.newDraftInvoice(s.testData.customer1.ID)
	}

	allocs := make([]*Allocation, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			allocs[i], errs[i] = s.service.AllocateNumber(s.GetContext(), invoices[i], s.testData.entity)
		}(i)
	}
	wg.Wait()

	month := invoice.MonthKey(time.Now().UTC())
	var ids []int64
	var numbers []string
	var wantIDs []int64
	var wantNumbers []string
	for i := 0; i < n; i++ {
		s.NoError(errs[i])
		ids = append(ids, allocs[i].SequentialID)
		numbers = append(numbers, allocs[i].Number)
		wantIDs = append(wantIDs, int64(i+1))
		wantNumbers = append(wantNumbers, fmt.Sprintf("ACME-%s-%03d", month, i+1))
	}

	// each counter hands out a contiguous run with no gaps or repeats
	s.ElementsMatch(wantIDs, ids)
	s.ElementsMatch(wantNumbers, numbers)
}

func (s *SequenceAllocatorSuite) TestPerBillingEntityNumbering() {
	s.testData.entity.DocumentNumbering = types.NumberingPerBillingEntity

	inv1 := s.newDraftInvoice(s.testData.customer1.ID)
	alloc, err := s.service.AllocateNumber(s.GetContext(), inv1, s.testData.entity)
	s.NoError(err)
	s.Equal("ACME-001-001", alloc.Number)
	s.NotNil(alloc.BillingEntitySequentialID)
	s.Equal(int64(1), *alloc.BillingEntitySequentialID)

	inv2 := s.newDraftInvoice(s.testData.customer2.ID)
	alloc, err = s.service.AllocateNumber(s.GetContext(), inv2, s.testData.entity)
	s.NoError(err)
	s.Equal("ACME-002-002", alloc.Number)
	s.Equal(int64(2), *alloc.BillingEntitySequentialID)
}

func (s *SequenceAllocatorSuite) TestPerBillingEntityBackfillOnSchemeSwitch() {
	ctx := s.GetContext()

	// an invoice finalized under a previous scheme, numbered but
	// without a per-entity counter
	finalizedAt := time.Now().UTC()
	prior := s.newDraftInvoice(s.testData.customer1.ID)
	s.NoError(prior.MarkFinalized("ACME-001-001", 1, finalizedAt))
	s.NoError(s.GetStores().InvoiceRepo.Update(ctx, prior))

	s.testData.entity.DocumentNumbering = types.NumberingPerBillingEntity

	next := s.newDraftInvoice(s.testData.customer1.ID)
	alloc, err := s.service.AllocateNumber(ctx, next, s.testData.entity)
	s.NoError(err)

	// the prior invoice was backfilled with position 1
	refreshed, err := s.GetStores().InvoiceRepo.Get(ctx, prior.ID)
	s.NoError(err)
	s.NotNil(refreshed.BillingEntitySequentialID)
	s.Equal(int64(1), *refreshed.BillingEntitySequentialID)

	// the new allocation continues from there
	s.NotNil(alloc.BillingEntitySequentialID)
	s.Equal(int64(2), *alloc.BillingEntitySequentialID)
}

func (s *SequenceAllocatorSuite) TestUnknownSchemeFails() {
	s.testData.entity.DocumentNumbering = types.DocumentNumberingScheme("bogus")

	inv := s.newDraftInvoice(s.testData.customer1.ID)
	_, err := s.service.AllocateNumber(s.GetContext(), inv, s.testData.entity)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
