package fee

import (
	"context"
	"time"
)

// Repository persists fees. Create must enforce the uniqueness of
// non-true-up fees per lookup key, returning an already-exists error
// on conflict so concurrent retries resolve to the stored fee.
type Repository interface {
	Create(ctx context.Context, fee *Fee) error
	Get(ctx context.Context, id string) (*Fee, error)
	Update(ctx context.Context, fee *Fee) error

	// FindByKey returns the non-true-up fee stored for the key, or nil
	// when none exists
	FindByKey(ctx context.Context, key LookupKey) (*Fee, error)

	// ListByCharge returns all fees for a charge within the period,
	// true-up fees included
	ListByCharge(ctx context.Context, subscriptionID, chargeID string, periodStart, periodEnd time.Time) ([]*Fee, error)

	// ListByInvoice returns all fees attached to an invoice
	ListByInvoice(ctx context.Context, invoiceID string) ([]*Fee, error)

	// ListPending returns unattached fees for a subscription period
	ListPending(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) ([]*Fee, error)
}

// AdjustedFeeRepository persists manual fee overrides.
type AdjustedFeeRepository interface {
	Create(ctx context.Context, adjusted *AdjustedFee) error
	Update(ctx context.Context, adjusted *AdjustedFee) error

	// ListUnconsumedByInvoice returns adjustments not yet applied to
	// fees of the given invoice
	ListUnconsumedByInvoice(ctx context.Context, invoiceID string) ([]*AdjustedFee, error)
}
