package tax

import (
	"time"

	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// TaxRate is a named percentage applied to taxable fee amounts.
type TaxRate struct {
	// ID is the unique identifier for the tax rate
	ID string `db:"id" json:"id"`

	// Code identifies the tax within a tenant ex "vat_fr"
	Code string `db:"code" json:"code"`

	// Name is the display name of the tax
	Name string `db:"name" json:"name"`

	// Rate is the percentage ex 20 for 20%
	Rate decimal.Decimal `db:"rate" json:"rate"`

	// AppliedToOrganization marks the tax as an organization wide
	// default, used when no more specific source resolves
	AppliedToOrganization bool `db:"applied_to_organization" json:"applied_to_organization"`

	types.BaseModel
}

func (t *TaxRate) Validate() error {
	if t.Code == "" {
		return ierr.NewError("tax code is required").
			WithHint("Please provide a tax code").
			Mark(ierr.ErrValidation)
	}
	if t.Rate.IsNegative() {
		return ierr.NewError("tax rate cannot be negative").
			WithHint("Please provide a non-negative rate").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// AppliedTax is the immutable snapshot of a tax at computation time,
// attached to a fee or an invoice. Once rows exist for a target,
// re-application is a no-op.
type AppliedTax struct {
	// ID is the unique identifier for the applied tax
	ID string `db:"id" json:"id"`

	// FeeID is set when the tax was applied to a fee
	FeeID string `db:"fee_id" json:"fee_id"`

	// InvoiceID is set when the tax was applied at invoice level
	InvoiceID string `db:"invoice_id" json:"invoice_id"`

	// TaxCode and Rate are snapshotted so later tax rate edits never
	// rewrite history
	TaxCode string          `db:"tax_code" json:"tax_code"`
	Rate    decimal.Decimal `db:"rate" json:"rate"`

	// Amount is the computed tax amount, rounded to currency precision
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// Currency 3 digit ISO currency code in lowercase
	Currency string `db:"currency" json:"currency"`

	AppliedAt time.Time `db:"applied_at" json:"applied_at"`

	types.BaseModel
}

func NewAppliedTax(feeID, invoiceID string, rate *TaxRate, amount decimal.Decimal, currency string) *AppliedTax {
	return &AppliedTax{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_APPLIED_TAX),
		FeeID:     feeID,
		InvoiceID: invoiceID,
		TaxCode:   rate.Code,
		Rate:      rate.Rate,
		Amount:    amount,
		Currency:  currency,
		AppliedAt: time.Now().UTC(),
	}
}
