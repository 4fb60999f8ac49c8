package invoice

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, invoice *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	Update(ctx context.Context, invoice *Invoice) error

	// GetByIdempotencyKey returns the invoice stored for the key, or
	// nil when none exists
	GetByIdempotencyKey(ctx context.Context, key string) (*Invoice, error)

	// ExistsForPeriod reports whether a subscription invoice already
	// covers the period
	ExistsForPeriod(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) (bool, error)

	// CountNumbered returns the count of finalized, numbered, non
	// self-billed invoices of the billing entity; drives the
	// per_billing_entity backfill
	CountNumbered(ctx context.Context, billingEntityID string) (int64, error)

	// LatestWithoutEntitySequence returns the most recent finalized,
	// numbered, non self-billed invoice of the entity lacking a
	// billing entity sequential id, or nil when none qualifies
	LatestWithoutEntitySequence(ctx context.Context, billingEntityID string) (*Invoice, error)
}
