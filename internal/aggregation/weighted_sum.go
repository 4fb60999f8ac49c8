package aggregation

import (
	"context"

	"github.com/billforge/billforge/internal/domain/events"
	"github.com/shopspring/decimal"
)

// weightedSumAggregator produces the time-weighted average of a
// property's value held over sub-intervals within the period, e.g.
// concurrent seats held for part of a month. Each event sets the new
// current value from its timestamp onward.
//
// Recurring metrics carry the value held at the prior boundary and a
// cached running total in a snapshot, so computation never replays
// history older than one period.
type weightedSumAggregator struct{}

func (weightedSumAggregator) Aggregate(ctx context.Context, in Input) (*Output, error) {
	from, to := in.Boundaries.UsageWindow()
	totalSeconds := decimal.NewFromFloat(to.Sub(from).Seconds())
	if !totalSeconds.IsPositive() {
		return &Output{Value: decimal.Zero}, nil
	}

	current := decimal.Zero
	if in.Metric.Recurring && in.Snapshot != nil {
		current = in.Snapshot.CurrentValue
	}

	weighted := decimal.Zero
	cursor := from
	for _, event := range in.Events {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}

		value, err := event.DecimalProperty(in.Metric.FieldName)
		if err != nil {
			return nil, err
		}

		ts := event.Timestamp
		if ts.Before(from) {
			ts = from
		}
		if ts.After(to) {
			ts = to
		}

		held := decimal.NewFromFloat(ts.Sub(cursor).Seconds())
		weighted = weighted.Add(current.Mul(held))
		current = value
		cursor = ts
	}

	// Remainder of the period at the last value
	held := decimal.NewFromFloat(to.Sub(cursor).Seconds())
	weighted = weighted.Add(current.Mul(held))

	value := weighted.Div(totalSeconds)

	out := &Output{
		Value: value,
		Count: int64(len(in.Events)),
	}

	if in.Metric.Recurring {
		next := events.NewUsageSnapshot("", in.Metric.Code, "", to)
		next.CurrentValue = current
		if in.Snapshot != nil {
			next.RunningTotal = in.Snapshot.RunningTotal.Add(weighted)
		} else {
			next.RunningTotal = weighted
		}
		out.Snapshot = next
	}

	return out, nil
}
