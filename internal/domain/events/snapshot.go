package events

import (
	"time"

	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// UsageSnapshot is the persisted aggregation state of a recurring
// metric at a period boundary, so the next period never recomputes
// from raw event history.
//
// For UNIQUE_COUNT it carries the set of identifiers still active at
// the end of the period. For WEIGHTED_SUM it carries the value held at
// the boundary and the running total accumulated so far.
type UsageSnapshot struct {
	ID string `json:"id"`

	SubscriptionID string `json:"subscription_id"`
	MetricCode     string `json:"metric_code"`

	// GroupKey scopes the snapshot when the charge aggregates per group
	GroupKey string `json:"group_key"`

	// PeriodEnd is the boundary the snapshot was taken at
	PeriodEnd time.Time `json:"period_end"`

	// ActiveIdentifiers is the rolling set for UNIQUE_COUNT metrics
	ActiveIdentifiers []string `json:"active_identifiers,omitempty"`

	// CurrentValue is the property value held at the boundary for
	// WEIGHTED_SUM metrics
	CurrentValue decimal.Decimal `json:"current_value"`

	// RunningTotal is the accumulated time-weighted total for
	// WEIGHTED_SUM metrics
	RunningTotal decimal.Decimal `json:"running_total"`

	types.BaseModel
}

func NewUsageSnapshot(subscriptionID, metricCode, groupKey string, periodEnd time.Time) *UsageSnapshot {
	return &UsageSnapshot{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_SNAPSHOT),
		SubscriptionID: subscriptionID,
		MetricCode:     metricCode,
		GroupKey:       groupKey,
		PeriodEnd:      periodEnd,
		CurrentValue:   decimal.Zero,
		RunningTotal:   decimal.Zero,
	}
}
