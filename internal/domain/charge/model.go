package charge

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// Charge binds a billable metric to a plan through a charge model.
type Charge struct {
	// ID is the unique identifier for the charge
	ID string `db:"id" json:"id"`

	// PlanID is the plan this charge belongs to
	PlanID string `db:"plan_id" json:"plan_id"`

	// MetricCode references the billable metric driving this charge
	MetricCode string `db:"metric_code" json:"metric_code"`

	// Model is the pricing strategy applied to aggregated usage
	Model types.ChargeModel `db:"charge_model" json:"charge_model"`

	// Properties is the strategy specific pricing schema
	Properties Properties `db:"properties" json:"properties"`

	// Prorated charges scale with the covered fraction of the period
	Prorated bool `db:"prorated" json:"prorated"`

	// PayInAdvance charges bill at period start using the delta of
	// declared units against what was already billed this period
	PayInAdvance bool `db:"pay_in_advance" json:"pay_in_advance"`

	// Invoiceable charges attach their fees to invoices; others are
	// recorded for auditability only
	Invoiceable bool `db:"invoiceable" json:"invoiceable"`

	// MinAmount is the optional contractual minimum for the period.
	// When the summed fees fall short, a true-up fee closes the gap.
	// Zero means no minimum.
	MinAmount decimal.Decimal `db:"min_amount" json:"min_amount"`

	// Filters narrow the charge to events matching specific dimension
	// values, each with its own property overrides. Order matters for
	// tie-breaking.
	Filters []Filter `db:"filters" json:"filters"`

	// GroupedBy repeats aggregation per distinct combination of these
	// event property keys
	GroupedBy []string `db:"grouped_by" json:"grouped_by"`

	// TaxCodes override the plan and customer level taxes for fees of
	// this charge
	TaxCodes []string `db:"tax_codes" json:"tax_codes"`

	types.BaseModel
}

func (c *Charge) Validate() error {
	if c.MetricCode == "" {
		return ierr.NewError("metric code is required").
			WithHint("Please provide a billable metric code").
			Mark(ierr.ErrValidation)
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if c.MinAmount.IsNegative() {
		return ierr.NewError("min amount cannot be negative").
			WithHint("Please provide a non-negative minimum amount").
			Mark(ierr.ErrValidation)
	}
	if err := c.Properties.ValidateFor(c.Model); err != nil {
		return err
	}
	for i := range c.Filters {
		if err := c.Filters[i].Validate(); err != nil {
			return err
		}
		if c.Filters[i].Properties != nil {
			if err := c.Filters[i].Properties.ValidateFor(c.Model); err != nil {
				return err
			}
		}
	}
	return nil
}

// HasMinAmount reports whether the charge carries a true-up floor
func (c *Charge) HasMinAmount() bool {
	return c.MinAmount.IsPositive()
}

// PropertiesForFilter returns the filter's property override when set,
// the charge's own properties otherwise.
func (c *Charge) PropertiesForFilter(filter *Filter) Properties {
	if filter != nil && filter.Properties != nil {
		return *filter.Properties
	}
	return c.Properties
}
