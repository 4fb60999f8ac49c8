package service

import (
	"context"

	"github.com/billforge/billforge/internal/aggregation"
	"github.com/billforge/billforge/internal/domain/billablemetric"
	"github.com/billforge/billforge/internal/domain/charge"
	"github.com/billforge/billforge/internal/domain/events"
	"github.com/billforge/billforge/internal/domain/subscription"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// PreciseAmountProperty is the event property dynamic charges read
// their caller-supplied total from.
const PreciseAmountProperty = "precise_total_amount"

// UsageResult is one aggregated usage value, scoped to a charge filter
// and a grouped_by combination.
type UsageResult struct {
	ChargeFilterID string
	GroupKey       string
	Value          decimal.Decimal
	EventsCount    int64

	// PreciseTotal is the summed caller-supplied amount for dynamic
	// charges, zero otherwise
	PreciseTotal decimal.Decimal
}

// UsageService aggregates raw events into per-scope usage values.
type UsageService interface {
	// GetUsage loads the subscription's events for the charge's metric
	// within the boundaries' usage window, partitions them by charge
	// filter and grouped_by combination, and aggregates each partition
	GetUsage(ctx context.Context, sub *subscription.Subscription, ch *charge.Charge, boundaries types.PeriodBoundaries) ([]*UsageResult, error)
}

type usageService struct {
	ServiceParams
}

func NewUsageService(params ServiceParams) UsageService {
	return &usageService{ServiceParams: params}
}

func (s *usageService) GetUsage(ctx context.Context, sub *subscription.Subscription, ch *charge.Charge, boundaries types.PeriodBoundaries) ([]*UsageResult, error) {
	if err := boundaries.Validate(); err != nil {
		return nil, err
	}

	metric, err := s.BillableMetricRepo.GetByCode(ctx, ch.MetricCode)
	if err != nil {
		return nil, err
	}

	aggregator, err := aggregation.New(metric.AggregationType)
	if err != nil {
		return nil, err
	}

	// Bound the whole pass; an expired deadline surfaces as a typed
	// timeout from the aggregator
	ctx, cancel := context.WithTimeout(ctx, s.Config.Billing.AggregationTimeout)
	defer cancel()

	from, to := boundaries.UsageWindow()
	evts, err := s.EventRepo.ListBySubscription(ctx, sub.ID, metric.Code, from, to)
	if err != nil {
		return nil, err
	}

	var results []*UsageResult

	for filterID, filtered := range s.partitionByFilter(evts, ch) {
		for groupKey, grouped := range aggregation.PartitionByGroup(filtered, ch.GroupedBy) {
			result, err := s.aggregatePartition(ctx, aggregator, sub, metric, ch, boundaries, filterID, groupKey, grouped)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
	}

	return results, nil
}

// partitionByFilter splits events per charge filter. Charges without
// filters keep all events under the empty filter id; with filters,
// unmatched events are ignored.
func (s *usageService) partitionByFilter(evts []*events.Event, ch *charge.Charge) map[string][]*events.Event {
	if len(ch.Filters) == 0 {
		return map[string][]*events.Event{"": evts}
	}

	partitions := aggregation.PartitionByFilter(evts, ch.Filters)
	delete(partitions, "")
	return partitions
}

func (s *usageService) aggregatePartition(
	ctx context.Context,
	aggregator aggregation.Aggregator,
	sub *subscription.Subscription,
	metric *billablemetric.BillableMetric,
	ch *charge.Charge,
	boundaries types.PeriodBoundaries,
	filterID, groupKey string,
	evts []*events.Event,
) (*UsageResult, error) {
	scope := snapshotScope(filterID, groupKey)
	from, _ := boundaries.UsageWindow()

	var snapshot *events.UsageSnapshot
	if metric.Recurring {
		var err error
		snapshot, err = s.SnapshotRepo.GetLatest(ctx, sub.ID, metric.Code, scope, from)
		if err != nil {
			return nil, err
		}
	}

	out, err := aggregator.Aggregate(ctx, aggregation.Input{
		Metric:     metric,
		Events:     evts,
		Boundaries: boundaries,
		Snapshot:   snapshot,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Aggregation failed for metric %s", metric.Code).
			WithReportableDetails(map[string]any{
				"metric_code":      metric.Code,
				"subscription_id":  sub.ID,
				"charge_id":        ch.ID,
				"charge_filter_id": filterID,
				"group_key":        groupKey,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if out.Snapshot != nil {
		out.Snapshot.SubscriptionID = sub.ID
		out.Snapshot.GroupKey = scope
		if err := s.SnapshotRepo.Save(ctx, out.Snapshot); err != nil {
			return nil, err
		}
	}

	result := &UsageResult{
		ChargeFilterID: filterID,
		GroupKey:       groupKey,
		Value:          out.Value,
		EventsCount:    out.Count,
	}

	if ch.Model == types.ChargeModelDynamic {
		precise, err := sumPreciseAmounts(evts)
		if err != nil {
			return nil, err
		}
		result.PreciseTotal = precise
	}

	return result, nil
}

// snapshotScope keys recurring state so distinct filters and groups
// carry independent rolling values.
func snapshotScope(filterID, groupKey string) string {
	if filterID == "" {
		return groupKey
	}
	if groupKey == "" {
		return filterID
	}
	return filterID + "|" + groupKey
}

func sumPreciseAmounts(evts []*events.Event) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range evts {
		v, err := e.DecimalProperty(PreciseAmountProperty)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, nil
}
