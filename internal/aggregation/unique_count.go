package aggregation

import (
	"context"
	"sort"

	"github.com/billforge/billforge/internal/domain/events"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/shopspring/decimal"
)

// OperationTypeProperty selects add/remove semantics on events of
// recurring unique-count metrics. Absent defaults to add.
const OperationTypeProperty = "operation_type"

const (
	OperationAdd    = "add"
	OperationRemove = "remove"
)

// uniqueCountAggregator counts distinct values of a named property.
//
// Non-recurring metrics recompute the distinct set from the window's
// events. Recurring metrics persist a rolling set of active
// identifiers across periods: paired add/remove events mutate the set
// carried in from the prior snapshot, and the period never replays raw
// history older than the snapshot.
type uniqueCountAggregator struct{}

func (a uniqueCountAggregator) Aggregate(ctx context.Context, in Input) (*Output, error) {
	if !in.Metric.Recurring {
		return a.aggregateWindow(ctx, in)
	}
	return a.aggregateRecurring(ctx, in)
}

func (uniqueCountAggregator) aggregateWindow(ctx context.Context, in Input) (*Output, error) {
	seen := make(map[string]struct{}, len(in.Events))
	for _, event := range in.Events {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		id, ok := event.StringProperty(in.Metric.FieldName)
		if !ok {
			return nil, missingIdentifier(event, in.Metric.FieldName)
		}
		seen[id] = struct{}{}
	}

	return &Output{
		Value: decimal.NewFromInt(int64(len(seen))),
		Count: int64(len(in.Events)),
	}, nil
}

func (uniqueCountAggregator) aggregateRecurring(ctx context.Context, in Input) (*Output, error) {
	active := make(map[string]struct{})
	if in.Snapshot != nil {
		for _, id := range in.Snapshot.ActiveIdentifiers {
			active[id] = struct{}{}
		}
	}

	for _, event := range in.Events {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		id, ok := event.StringProperty(in.Metric.FieldName)
		if !ok {
			return nil, missingIdentifier(event, in.Metric.FieldName)
		}

		operation, _ := event.StringProperty(OperationTypeProperty)
		if operation == OperationRemove {
			delete(active, id)
		} else {
			active[id] = struct{}{}
		}
	}

	identifiers := make([]string, 0, len(active))
	for id := range active {
		identifiers = append(identifiers, id)
	}
	sort.Strings(identifiers)

	// Scope fields (subscription, group) are filled by the caller
	// before the snapshot is persisted.
	_, to := in.Boundaries.UsageWindow()
	next := events.NewUsageSnapshot("", in.Metric.Code, "", to)
	next.ActiveIdentifiers = identifiers

	return &Output{
		Value:    decimal.NewFromInt(int64(len(active))),
		Count:    int64(len(in.Events)),
		Snapshot: next,
	}, nil
}

func missingIdentifier(event *events.Event, field string) error {
	return ierr.NewError("event identifier missing").
		WithHintf("Event %s has no property %q", event.ID, field).
		WithReportableDetails(map[string]any{
			"event_id": event.ID,
			"field":    field,
		}).
		Mark(ierr.ErrInvalidOperation)
}
