package types

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/samber/lo"
)

// AggregationType defines how matching events are reduced into a usage value
type AggregationType string

const (
	AggregationCount       AggregationType = "COUNT"
	AggregationSum         AggregationType = "SUM"
	AggregationMax         AggregationType = "MAX"
	AggregationUniqueCount AggregationType = "UNIQUE_COUNT"
	AggregationWeightedSum AggregationType = "WEIGHTED_SUM"
	AggregationLatest      AggregationType = "LATEST"
)

func (t AggregationType) String() string {
	return string(t)
}

func (t AggregationType) Validate() error {
	allowed := []AggregationType{
		AggregationCount,
		AggregationSum,
		AggregationMax,
		AggregationUniqueCount,
		AggregationWeightedSum,
		AggregationLatest,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid aggregation type").
			WithHint("Please provide a valid aggregation type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RequiresField returns true if the aggregation type reduces over a
// named event property rather than the bare event count
func (t AggregationType) RequiresField() bool {
	switch t {
	case AggregationCount:
		return false
	default:
		return true
	}
}

// SupportsRecurring returns true if the aggregation type can carry
// state across billing periods for recurring metrics
func (t AggregationType) SupportsRecurring() bool {
	switch t {
	case AggregationUniqueCount, AggregationWeightedSum:
		return true
	default:
		return false
	}
}
