package aggregation

import (
	"context"

	"github.com/billforge/billforge/internal/domain/billablemetric"
	"github.com/billforge/billforge/internal/domain/events"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// Input carries everything an aggregator reduces over. Events must be
// pre-filtered to the metric's code and the [from, to) usage window,
// ordered by timestamp ascending. Snapshot is the prior period's state
// for recurring metrics, nil when none exists.
type Input struct {
	Metric     *billablemetric.BillableMetric
	Events     []*events.Event
	Boundaries types.PeriodBoundaries
	Snapshot   *events.UsageSnapshot
}

// Output is one aggregated usage value. Snapshot is the state to
// persist at the period boundary for recurring metrics, nil otherwise.
type Output struct {
	Value    decimal.Decimal
	Count    int64
	Snapshot *events.UsageSnapshot
}

// Aggregator reduces events into a scalar usage value. Implementations
// are pure over their input; any failure is returned as a typed error
// carrying a machine readable code, never a silent zero.
type Aggregator interface {
	Aggregate(ctx context.Context, in Input) (*Output, error)
}

// New returns the aggregator for the given aggregation type.
func New(t types.AggregationType) (Aggregator, error) {
	switch t {
	case types.AggregationCount:
		return countAggregator{}, nil
	case types.AggregationSum:
		return sumAggregator{}, nil
	case types.AggregationMax:
		return maxAggregator{}, nil
	case types.AggregationUniqueCount:
		return uniqueCountAggregator{}, nil
	case types.AggregationWeightedSum:
		return weightedSumAggregator{}, nil
	case types.AggregationLatest:
		return latestAggregator{}, nil
	default:
		return nil, ierr.NewError("unknown aggregation type").
			WithHintf("No aggregator registered for type %s", t).
			Mark(ierr.ErrInvalidOperation)
	}
}

// checkContext surfaces a bounded aggregation pass that ran out of
// time as a typed failure instead of blocking indefinitely.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ierr.WithError(ctx.Err()).
			WithHint("Aggregation did not finish before the configured timeout").
			Mark(ierr.ErrTimeout)
	default:
		return nil
	}
}
