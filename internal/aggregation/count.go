package aggregation

import (
	"context"

	"github.com/shopspring/decimal"
)

// countAggregator counts matching events in the window.
type countAggregator struct{}

func (countAggregator) Aggregate(ctx context.Context, in Input) (*Output, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	count := int64(len(in.Events))
	return &Output{
		Value: decimal.NewFromInt(count),
		Count: count,
	}, nil
}

// sumAggregator sums a named numeric property across events. A missing
// or non-numeric property fails the aggregation.
type sumAggregator struct{}

func (sumAggregator) Aggregate(ctx context.Context, in Input) (*Output, error) {
	total := decimal.Zero
	for _, event := range in.Events {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		value, err := event.DecimalProperty(in.Metric.FieldName)
		if err != nil {
			return nil, err
		}
		total = total.Add(value)
	}

	return &Output{
		Value: total,
		Count: int64(len(in.Events)),
	}, nil
}

// maxAggregator takes the maximum of a named numeric property.
type maxAggregator struct{}

func (maxAggregator) Aggregate(ctx context.Context, in Input) (*Output, error) {
	max := decimal.Zero
	for i, event := range in.Events {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		value, err := event.DecimalProperty(in.Metric.FieldName)
		if err != nil {
			return nil, err
		}
		if i == 0 || value.GreaterThan(max) {
			max = value
		}
	}

	return &Output{
		Value: max,
		Count: int64(len(in.Events)),
	}, nil
}

// latestAggregator takes the property value of the last event in the
// window; events arrive ordered by timestamp ascending.
type latestAggregator struct{}

func (latestAggregator) Aggregate(ctx context.Context, in Input) (*Output, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	if len(in.Events) == 0 {
		return &Output{Value: decimal.Zero}, nil
	}

	last := in.Events[len(in.Events)-1]
	value, err := last.DecimalProperty(in.Metric.FieldName)
	if err != nil {
		return nil, err
	}

	return &Output{
		Value: value,
		Count: int64(len(in.Events)),
	}, nil
}
