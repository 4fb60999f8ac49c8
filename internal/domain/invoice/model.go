package invoice

import (
	"time"

	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice aggregates fees for a billing period. Only draft invoices
// are mutable; finalization is a one-way transition that stamps the
// number, and void is the only transition permitted afterwards.
type Invoice struct {
	// ID is the unique identifier for the invoice
	ID string `db:"id" json:"id"`

	// CustomerID is the billed customer
	CustomerID string `db:"customer_id" json:"customer_id"`

	// SubscriptionID is set for subscription invoices
	SubscriptionID string `db:"subscription_id" json:"subscription_id"`

	// BillingEntityID scopes numbering and entity defaults
	BillingEntityID string `db:"billing_entity_id" json:"billing_entity_id"`

	// Currency 3 digit ISO currency code in lowercase
	Currency string `db:"currency" json:"currency"`

	// Period boundaries the invoice covers
	PeriodStart time.Time `db:"period_start" json:"period_start"`
	PeriodEnd   time.Time `db:"period_end" json:"period_end"`

	InvoiceStatus types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	PaymentStatus types.PaymentStatus `db:"payment_status" json:"payment_status"`

	// Totals, in main currency units rounded to currency precision.
	// TotalAmount = FeesAmount + TaxesAmount - PrepaidCreditAmount.
	FeesAmount          decimal.Decimal `db:"fees_amount" json:"fees_amount"`
	TaxesAmount         decimal.Decimal `db:"taxes_amount" json:"taxes_amount"`
	PrepaidCreditAmount decimal.Decimal `db:"prepaid_credit_amount" json:"prepaid_credit_amount"`
	TotalAmount         decimal.Decimal `db:"total_amount" json:"total_amount"`

	// SequentialID is the monotonic counter value within the numbering
	// scope, assigned at finalization
	SequentialID int64 `db:"sequential_id" json:"sequential_id"`

	// BillingEntitySequentialID is the per-entity counter used by the
	// per_billing_entity scheme; assigned once, backfilled on scheme switch
	BillingEntitySequentialID *int64 `db:"billing_entity_sequential_id" json:"billing_entity_sequential_id"`

	// Number is the generated document number, empty while draft
	Number string `db:"number" json:"number"`

	// SelfBilled invoices are excluded from numbering backfill
	SelfBilled bool `db:"self_billed" json:"self_billed"`

	// IdempotencyKey dedupes invoice creation under retried jobs
	IdempotencyKey string `db:"idempotency_key" json:"idempotency_key"`

	// ErrorDetails records tax provider style integration failures for
	// operator visibility without blocking the batch
	ErrorDetails map[string]string `db:"error_details" json:"error_details"`

	FinalizedAt *time.Time `db:"finalized_at" json:"finalized_at"`
	VoidedAt    *time.Time `db:"voided_at" json:"voided_at"`

	types.BaseModel
}

func (i *Invoice) IsDraft() bool {
	return i.InvoiceStatus == types.InvoiceStatusDraft
}

func (i *Invoice) IsFinalized() bool {
	return i.InvoiceStatus == types.InvoiceStatusFinalized
}

// Subtotal is the rounded tax inclusive total before prepaid credits
func (i *Invoice) Subtotal() decimal.Decimal {
	return i.FeesAmount.Add(i.TaxesAmount)
}

// MarkFinalized applies the one-way draft -> finalized transition
func (i *Invoice) MarkFinalized(number string, sequentialID int64, at time.Time) error {
	if !i.IsDraft() {
		return ierr.NewError("invoice is not draft").
			WithHintf("Only draft invoices can be finalized, status is %s", i.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}
	i.InvoiceStatus = types.InvoiceStatusFinalized
	i.Number = number
	i.SequentialID = sequentialID
	i.FinalizedAt = &at
	return nil
}

// MarkVoided applies the finalized -> voided transition. Voiding only
// changes status; totals stay frozen.
func (i *Invoice) MarkVoided(at time.Time) error {
	if !i.IsFinalized() {
		return ierr.NewError("invoice is not finalized").
			WithHintf("Only finalized invoices can be voided, status is %s", i.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}
	i.InvoiceStatus = types.InvoiceStatusVoided
	i.VoidedAt = &at
	return nil
}

// RecordErrorDetail attaches a structured integration error to the invoice
func (i *Invoice) RecordErrorDetail(code, message string) {
	if i.ErrorDetails == nil {
		i.ErrorDetails = make(map[string]string)
	}
	i.ErrorDetails[code] = message
}

func (i *Invoice) Validate() error {
	if i.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Please provide a customer identifier").
			Mark(ierr.ErrValidation)
	}
	if !types.IsValidCurrency(i.Currency) {
		return ierr.NewError("invalid currency").
			WithHintf("Currency %q is not supported", i.Currency).
			Mark(ierr.ErrValidation)
	}
	if err := i.InvoiceStatus.Validate(); err != nil {
		return err
	}
	if i.TotalAmount.IsNegative() {
		return ierr.NewError("invoice total cannot be negative").
			WithHint("Prepaid credit application must be capped at the invoice subtotal").
			Mark(ierr.ErrValidation)
	}
	return nil
}
