package billingentity

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// BillingEntity is the issuing entity invoices are numbered against.
// The numbering scheme can be switched at any time without renumbering
// history.
type BillingEntity struct {
	// ID is the unique identifier for the billing entity
	ID string `db:"id" json:"id"`

	// Code identifies the entity within a tenant
	Code string `db:"code" json:"code"`

	// Name is the display name of the entity
	Name string `db:"name" json:"name"`

	// DocumentNumberPrefix is the leading segment of generated invoice
	// numbers ex "ACME"
	DocumentNumberPrefix string `db:"document_number_prefix" json:"document_number_prefix"`

	// DocumentNumbering selects the scope numbers increment against
	DocumentNumbering types.DocumentNumberingScheme `db:"document_numbering" json:"document_numbering"`

	// DefaultTaxCodes apply to fees when no charge, plan or customer
	// level source resolves
	DefaultTaxCodes []string `db:"default_tax_codes" json:"default_tax_codes"`

	// ZeroAmountFees records zero-unit or zero-amount fees instead of
	// skipping them, for auditability of no-change pay-in-advance runs
	ZeroAmountFees bool `db:"zero_amount_fees" json:"zero_amount_fees"`

	types.BaseModel
}

func (e *BillingEntity) Validate() error {
	if e.Code == "" {
		return ierr.NewError("billing entity code is required").
			WithHint("Please provide a billing entity code").
			Mark(ierr.ErrValidation)
	}
	if e.DocumentNumberPrefix == "" {
		return ierr.NewError("document number prefix is required").
			WithHint("Please provide a document number prefix").
			Mark(ierr.ErrValidation)
	}
	return e.DocumentNumbering.Validate()
}
