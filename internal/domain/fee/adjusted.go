package fee

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// AdjustedFee is a manual override of a computed fee, capturing either
// adjusted units or an adjusted amount, never both, plus an optional
// display name override. It is consumed once to re-derive the fee it
// targets, and only while the owning invoice is draft.
type AdjustedFee struct {
	// ID is the unique identifier for the adjustment
	ID string `db:"id" json:"id"`

	// FeeID is the fee the adjustment targets
	FeeID string `db:"fee_id" json:"fee_id"`

	// InvoiceID is the draft invoice the target fee is attached to
	InvoiceID string `db:"invoice_id" json:"invoice_id"`

	// AdjustedUnits replaces the computed units; the charge model
	// re-prices the new quantity
	AdjustedUnits *decimal.Decimal `db:"adjusted_units" json:"adjusted_units"`

	// AdjustedAmount replaces the computed amount outright
	AdjustedAmount *decimal.Decimal `db:"adjusted_amount" json:"adjusted_amount"`

	// DisplayName optionally relabels the fee, independent of the
	// units/amount override
	DisplayName string `db:"display_name" json:"display_name"`

	// Consumed marks the adjustment as applied; it is never applied twice
	Consumed bool `db:"consumed" json:"consumed"`

	types.BaseModel
}

func (a *AdjustedFee) Validate() error {
	if a.FeeID == "" {
		return ierr.NewError("fee_id is required").
			WithHint("Please provide the fee to adjust").
			Mark(ierr.ErrValidation)
	}
	if a.AdjustedUnits != nil && a.AdjustedAmount != nil {
		return ierr.NewError("adjusted units and amount are mutually exclusive").
			WithHint("Provide either adjusted units or an adjusted amount, not both").
			Mark(ierr.ErrValidation)
	}
	if a.AdjustedUnits == nil && a.AdjustedAmount == nil && a.DisplayName == "" {
		return ierr.NewError("adjustment is empty").
			WithHint("Provide adjusted units, an adjusted amount, or a display name").
			Mark(ierr.ErrValidation)
	}
	if a.AdjustedUnits != nil && a.AdjustedUnits.IsNegative() {
		return ierr.NewError("adjusted units cannot be negative").
			WithHint("Please provide non-negative units").
			Mark(ierr.ErrValidation)
	}
	if a.AdjustedAmount != nil && a.AdjustedAmount.IsNegative() {
		return ierr.NewError("adjusted amount cannot be negative").
			WithHint("Please provide a non-negative amount").
			Mark(ierr.ErrValidation)
	}
	return nil
}
