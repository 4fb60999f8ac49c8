package invoice

import (
	"context"
	"fmt"
	"time"
)

// Sequence scope keys. A scope key identifies one strictly serialized
// counter; the repository guarantees per-key monotonic increments with
// no gaps or duplicates under concurrent finalization.
func CustomerScopeKey(billingEntityID string, customerSlot int) string {
	return fmt.Sprintf("cust:%s:%03d", billingEntityID, customerSlot)
}

func OrganizationScopeKey(tenantID string) string {
	return fmt.Sprintf("org:%s", tenantID)
}

func BillingEntityScopeKey(billingEntityID string) string {
	return fmt.Sprintf("be:%s", billingEntityID)
}

// MonthKey formats the monthly reset segment of per_organization numbers
func MonthKey(t time.Time) string {
	return t.UTC().Format("200601")
}

// SequenceRepository allocates counter values. Both methods are atomic
// increments serialized per key.
type SequenceRepository interface {
	// Next increments and returns the counter for the scope key
	Next(ctx context.Context, scopeKey string) (int64, error)

	// NextInMonth increments and returns the monthly counter for the
	// scope key; counters reset per yearMonth while the scope's global
	// counter keeps running
	NextInMonth(ctx context.Context, scopeKey, yearMonth string) (int64, error)

	// EnsureAtLeast raises the counter to at least the given floor,
	// used to backfill the per-entity counter on scheme switch
	EnsureAtLeast(ctx context.Context, scopeKey string, floor int64) error
}
