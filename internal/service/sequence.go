package service

import (
	"context"
	"fmt"
	"time"

	"github.com/billforge/billforge/internal/domain/billingentity"
	"github.com/billforge/billforge/internal/domain/invoice"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// Allocation is one generated document number with the counters that
// produced it.
type Allocation struct {
	Number       string
	SequentialID int64

	// BillingEntitySequentialID is set under the per_billing_entity
	// scheme only
	BillingEntitySequentialID *int64
}

// SequenceAllocator generates document numbers under the billing
// entity's active numbering scheme. Schemes are switchable at any time
// without renumbering history; allocation is strictly monotonic per
// scope key under concurrent finalization.
type SequenceAllocator interface {
	AllocateNumber(ctx context.Context, inv *invoice.Invoice, entity *billingentity.BillingEntity) (*Allocation, error)
}

type sequenceAllocator struct {
	ServiceParams
}

func NewSequenceAllocator(params ServiceParams) SequenceAllocator {
	return &sequenceAllocator{ServiceParams: params}
}

func (s *sequenceAllocator) AllocateNumber(ctx context.Context, inv *invoice.Invoice, entity *billingentity.BillingEntity) (*Allocation, error) {
	switch entity.DocumentNumbering {
	case types.NumberingPerCustomer:
		return s.allocatePerCustomer(ctx, inv, entity)
	case types.NumberingPerOrganization:
		return s.allocatePerOrganization(ctx, entity)
	case types.NumberingPerBillingEntity:
		return s.allocatePerBillingEntity(ctx, entity)
	default:
		return nil, ierr.NewError("unknown document numbering scheme").
			WithHintf("Billing entity %s uses unsupported scheme %s", entity.ID, entity.DocumentNumbering).
			Mark(ierr.ErrInvalidOperation)
	}
}

// allocatePerCustomer numbers within the customer's slot of the
// billing entity: {prefix}-{slot:03d}-{seq:03d}.
func (s *sequenceAllocator) allocatePerCustomer(ctx context.Context, inv *invoice.Invoice, entity *billingentity.BillingEntity) (*Allocation, error) {
	slot, err := s.CustomerRepo.AssignNumberingSlot(ctx, inv.CustomerID, entity.ID)
	if err != nil {
		return nil, err
	}

	seq, err := s.SequenceRepo.Next(ctx, invoice.CustomerScopeKey(entity.ID, slot))
	if err != nil {
		return nil, err
	}

	return &Allocation{
		Number:       fmt.Sprintf("%s-%03d-%03d", entity.DocumentNumberPrefix, slot, seq),
		SequentialID: seq,
	}, nil
}

// allocatePerOrganization numbers {prefix}-{YYYYMM}-{seq:03d}: the
// formatted counter resets each calendar month while the underlying
// sequential id keeps running globally.
func (s *sequenceAllocator) allocatePerOrganization(ctx context.Context, entity *billingentity.BillingEntity) (*Allocation, error) {
	scope := invoice.OrganizationScopeKey(types.GetTenantID(ctx))
	month := invoice.MonthKey(time.Now().UTC())

	sequentialID, err := s.SequenceRepo.Next(ctx, scope)
	if err != nil {
		return nil, err
	}

	monthly, err := s.SequenceRepo.NextInMonth(ctx, scope, month)
	if err != nil {
		return nil, err
	}

	return &Allocation{
		Number:       fmt.Sprintf("%s-%s-%03d", entity.DocumentNumberPrefix, month, monthly),
		SequentialID: sequentialID,
	}, nil
}

// allocatePerBillingEntity numbers {prefix}-{entity_seq:03d}-{seq:03d}.
// Switching into this scheme backfills the per-entity counter from the
// count of prior finalized, numbered, non self-billed invoices and
// assigns the backfilled value once, to the latest qualifying invoice
// lacking one.
func (s *sequenceAllocator) allocatePerBillingEntity(ctx context.Context, entity *billingentity.BillingEntity) (*Allocation, error) {
	scope := invoice.BillingEntityScopeKey(entity.ID)

	if err := s.backfillEntitySequence(ctx, entity, scope); err != nil {
		return nil, err
	}

	entitySeq, err := s.SequenceRepo.Next(ctx, scope)
	if err != nil {
		return nil, err
	}

	sequentialID, err := s.SequenceRepo.Next(ctx, invoice.OrganizationScopeKey(types.GetTenantID(ctx)))
	if err != nil {
		return nil, err
	}

	return &Allocation{
		Number:                    fmt.Sprintf("%s-%03d-%03d", entity.DocumentNumberPrefix, entitySeq, sequentialID),
		SequentialID:              sequentialID,
		BillingEntitySequentialID: &entitySeq,
	}, nil
}

func (s *sequenceAllocator) backfillEntitySequence(ctx context.Context, entity *billingentity.BillingEntity, scope string) error {
	latest, err := s.InvoiceRepo.LatestWithoutEntitySequence(ctx, entity.ID)
	if err != nil {
		return err
	}
	if latest == nil {
		return nil
	}

	count, err := s.InvoiceRepo.CountNumbered(ctx, entity.ID)
	if err != nil {
		return err
	}

	// The latest prior invoice takes position `count`; the counter
	// continues from there for new allocations
	if count > 0 {
		if err := s.SequenceRepo.EnsureAtLeast(ctx, scope, count-1); err != nil {
			return err
		}
		seq, err := s.SequenceRepo.Next(ctx, scope)
		if err != nil {
			return err
		}
		latest.BillingEntitySequentialID = &seq
		if err := s.InvoiceRepo.Update(ctx, latest); err != nil {
			return err
		}
	}

	return nil
}
