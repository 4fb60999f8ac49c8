package events

import (
	"context"
	"time"
)

// Repository is the event store boundary. The core only reads events;
// ingestion and validation happen upstream.
type Repository interface {
	Insert(ctx context.Context, event *Event) error

	// ListBySubscription returns events for a subscription and metric
	// code within [from, to), ordered by timestamp ascending
	ListBySubscription(ctx context.Context, subscriptionID, code string, from, to time.Time) ([]*Event, error)
}

// SnapshotRepository persists recurring-metric aggregation state
// across periods.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *UsageSnapshot) error

	// GetLatest returns the most recent snapshot taken at or before the
	// given boundary, or nil when none exists
	GetLatest(ctx context.Context, subscriptionID, metricCode, groupKey string, before time.Time) (*UsageSnapshot, error)
}
