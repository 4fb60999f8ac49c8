package plan

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// Plan carries the base subscription amount its charges hang off.
type Plan struct {
	// ID is the unique identifier for the plan
	ID string `db:"id" json:"id"`

	// Code identifies the plan within a tenant
	Code string `db:"code" json:"code"`

	// Name is the display name of the plan
	Name string `db:"name" json:"name"`

	// Amount is the base subscription fee per full billing period, in
	// main currency units
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// Currency 3 digit ISO currency code in lowercase ex usd, eur
	Currency string `db:"currency" json:"currency"`

	// PayInAdvance plans bill the base fee at period start
	PayInAdvance bool `db:"pay_in_advance" json:"pay_in_advance"`

	// TaxCodes applied to subscription fees of this plan, unless the
	// customer or an explicit override is more specific
	TaxCodes []string `db:"tax_codes" json:"tax_codes"`

	types.BaseModel
}

func (p *Plan) Validate() error {
	if p.Code == "" {
		return ierr.NewError("plan code is required").
			WithHint("Please provide a plan code").
			Mark(ierr.ErrValidation)
	}
	if p.Amount.IsNegative() {
		return ierr.NewError("plan amount cannot be negative").
			WithHint("Please provide a non-negative amount").
			Mark(ierr.ErrValidation)
	}
	if !types.IsValidCurrency(p.Currency) {
		return ierr.NewError("invalid currency").
			WithHintf("Currency %q is not supported", p.Currency).
			Mark(ierr.ErrValidation)
	}
	return nil
}
