package types

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus represents the current state of an invoice in its lifecycle
type InvoiceStatus string

const (
	// InvoiceStatusDraft is the only mutable state: fees can be
	// refreshed and adjusted while draft
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	// InvoiceStatusFinalized is a one-way transition that stamps the
	// invoice number and freezes totals
	InvoiceStatusFinalized InvoiceStatus = "FINALIZED"
	// InvoiceStatusVoided is the only transition permitted after
	// finalization
	InvoiceStatusVoided InvoiceStatus = "VOIDED"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusFinalized,
		InvoiceStatusVoided,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentStatus tracks payment on fees and invoices
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusSucceeded,
		PaymentStatusFailed,
		PaymentStatusRefunded,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment status").
			WithHint("Please provide a valid payment status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CanTransitionTo reports whether a payment status transition is allowed.
// Succeeded can only move to refunded; refunded is terminal.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return target == PaymentStatusSucceeded || target == PaymentStatusFailed
	case PaymentStatusFailed:
		return target == PaymentStatusSucceeded || target == PaymentStatusPending
	case PaymentStatusSucceeded:
		return target == PaymentStatusRefunded
	default:
		return false
	}
}

// DocumentNumberingScheme selects the scope invoice numbers increment against
type DocumentNumberingScheme string

const (
	NumberingPerCustomer      DocumentNumberingScheme = "per_customer"
	NumberingPerOrganization  DocumentNumberingScheme = "per_organization"
	NumberingPerBillingEntity DocumentNumberingScheme = "per_billing_entity"
)

func (s DocumentNumberingScheme) String() string {
	return string(s)
}

func (s DocumentNumberingScheme) Validate() error {
	allowed := []DocumentNumberingScheme{
		NumberingPerCustomer,
		NumberingPerOrganization,
		NumberingPerBillingEntity,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid document numbering scheme").
			WithHint("Please provide a valid document numbering scheme").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
