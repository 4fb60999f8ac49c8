package customer

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// Customer is the billed party. Only the billing relevant attributes
// live here; profile CRUD is resolved upstream.
type Customer struct {
	// ID is the unique identifier for the customer
	ID string `db:"id" json:"id"`

	// ExternalID is the identifier of the customer in the caller's system
	ExternalID string `db:"external_id" json:"external_id"`

	// Name is the display name of the customer
	Name string `db:"name" json:"name"`

	// Timezone shifts which calendar day an instant belongs to for
	// proration, IANA name ex "America/New_York"
	Timezone string `db:"timezone" json:"timezone"`

	// Currency 3 digit ISO currency code in lowercase
	Currency string `db:"currency" json:"currency"`

	// TaxCodes applied to this customer's fees when no more specific
	// source resolves
	TaxCodes []string `db:"tax_codes" json:"tax_codes"`

	// NumberingSlot is the per-customer slot used by the per_customer
	// document numbering scheme; assigned on first finalized invoice
	NumberingSlot int `db:"numbering_slot" json:"numbering_slot"`

	types.BaseModel
}

func (c *Customer) Validate() error {
	if c.ExternalID == "" {
		return ierr.NewError("external_id is required").
			WithHint("Please provide an external customer identifier").
			Mark(ierr.ErrValidation)
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	return nil
}
