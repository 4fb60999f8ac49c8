package fee

import (
	"time"

	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// Fee is the computed unit of billing. At most one non-true-up fee
// exists per (charge, filter, group, subscription, period) tuple;
// the repository enforces the uniqueness on create.
type Fee struct {
	// ID is the unique identifier for the fee
	ID string `db:"id" json:"id"`

	// SubscriptionID is the subscription the fee bills
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// CustomerID is denormalized for invoice assembly
	CustomerID string `db:"customer_id" json:"customer_id"`

	// FeeType identifies the billable unit
	FeeType types.FeeType `db:"fee_type" json:"fee_type"`

	// ChargeID is set for FeeTypeCharge fees
	ChargeID string `db:"charge_id" json:"charge_id"`

	// ChargeFilterID is set when the fee was computed for a charge filter
	ChargeFilterID string `db:"charge_filter_id" json:"charge_filter_id"`

	// GroupKey is the serialized grouped_by combination the fee was
	// aggregated for; empty when the charge declares no grouping
	GroupKey string `db:"group_key" json:"group_key"`

	// InvoiceID is empty while the fee is pending attachment
	InvoiceID string `db:"invoice_id" json:"invoice_id"`

	// Period boundaries the fee covers
	PeriodStart time.Time `db:"period_start" json:"period_start"`
	PeriodEnd   time.Time `db:"period_end" json:"period_end"`

	// Units is the billed usage quantity
	Units decimal.Decimal `db:"units" json:"units"`

	// UnitAmount is the effective per-unit price; for graduated models
	// it is the blended amount/units
	UnitAmount decimal.Decimal `db:"unit_amount" json:"unit_amount"`

	// Amount is the fee amount before taxes, in main currency units,
	// rounded to currency precision
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// ProrationCoefficient is the period ratio the amount was scaled
	// by; 1 for full periods. Re-pricing after a units adjustment
	// applies the same coefficient
	ProrationCoefficient decimal.Decimal `db:"proration_coefficient" json:"proration_coefficient"`

	// TaxesAmount is the summed applied taxes, rounded
	TaxesAmount decimal.Decimal `db:"taxes_amount" json:"taxes_amount"`

	// CouponAmount is the discount already applied to the fee; it
	// reduces the taxable base
	CouponAmount decimal.Decimal `db:"coupon_amount" json:"coupon_amount"`

	// Currency 3 digit ISO currency code in lowercase
	Currency string `db:"currency" json:"currency"`

	// EventsCount is the number of events that matched the aggregation
	EventsCount int64 `db:"events_count" json:"events_count"`

	// PaymentStatus transitions pending -> succeeded|failed, succeeded
	// -> refunded
	PaymentStatus types.PaymentStatus `db:"payment_status" json:"payment_status"`

	// TrueUpParentFeeID links a synthetic true-up fee to the fee whose
	// charge carried the minimum; true-up fees are never trued up again
	TrueUpParentFeeID string `db:"true_up_parent_fee_id" json:"true_up_parent_fee_id"`

	// AdjustmentID records the adjusted fee that overrode this fee
	AdjustmentID string `db:"adjustment_id" json:"adjustment_id"`

	// DisplayName labels the fee on the invoice
	DisplayName string `db:"display_name" json:"display_name"`

	types.BaseModel
}

// LookupKey is the idempotency key of a non-true-up fee.
type LookupKey struct {
	SubscriptionID string
	ChargeID       string
	ChargeFilterID string
	GroupKey       string
	FeeType        types.FeeType
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// Key returns the fee's lookup key
func (f *Fee) Key() LookupKey {
	return LookupKey{
		SubscriptionID: f.SubscriptionID,
		ChargeID:       f.ChargeID,
		ChargeFilterID: f.ChargeFilterID,
		GroupKey:       f.GroupKey,
		FeeType:        f.FeeType,
		PeriodStart:    f.PeriodStart.UTC(),
		PeriodEnd:      f.PeriodEnd.UTC(),
	}
}

// IsTrueUp reports whether the fee is a synthetic minimum top-up
func (f *Fee) IsTrueUp() bool {
	return f.TrueUpParentFeeID != ""
}

// TotalAmount is the tax inclusive amount of the fee
func (f *Fee) TotalAmount() decimal.Decimal {
	return f.Amount.Add(f.TaxesAmount)
}

// TaxableAmount is the base taxes apply to: the fee amount net of
// discounts already applied
func (f *Fee) TaxableAmount() decimal.Decimal {
	base := f.Amount.Sub(f.CouponAmount)
	if base.IsNegative() {
		return decimal.Zero
	}
	return base
}

// TransitionPaymentStatus validates and applies a payment status change
func (f *Fee) TransitionPaymentStatus(target types.PaymentStatus) error {
	if err := target.Validate(); err != nil {
		return err
	}
	if !f.PaymentStatus.CanTransitionTo(target) {
		return ierr.NewError("invalid payment status transition").
			WithHintf("Cannot transition fee payment status from %s to %s", f.PaymentStatus, target).
			Mark(ierr.ErrInvalidOperation)
	}
	f.PaymentStatus = target
	return nil
}

func (f *Fee) Validate() error {
	if f.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Please provide a subscription identifier").
			Mark(ierr.ErrValidation)
	}
	if err := f.FeeType.Validate(); err != nil {
		return err
	}
	if f.FeeType == types.FeeTypeCharge && f.ChargeID == "" {
		return ierr.NewError("charge_id is required for charge fees").
			WithHint("Please provide a charge identifier").
			Mark(ierr.ErrValidation)
	}
	if f.Units.IsNegative() {
		return ierr.NewError("fee units cannot be negative").
			WithHint("Computed units must be non-negative").
			Mark(ierr.ErrValidation)
	}
	if f.Amount.IsNegative() {
		return ierr.NewError("fee amount cannot be negative").
			WithHint("Computed amount must be non-negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}
