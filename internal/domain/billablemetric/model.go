package billablemetric

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// BillableMetric is a named, aggregatable usage dimension. It is
// immutable once events reference it and is identified by Code within
// a tenant.
type BillableMetric struct {
	// ID is the unique identifier for the metric
	ID string `db:"id" json:"id"`

	// Code is the identifier events carry to match this metric
	Code string `db:"code" json:"code"`

	// Name is the display name of the metric
	Name string `db:"name" json:"name"`

	// AggregationType defines how matching events reduce into usage
	AggregationType types.AggregationType `db:"aggregation_type" json:"aggregation_type"`

	// FieldName is the key in event properties the aggregation reduces
	// over; empty for COUNT
	FieldName string `db:"field_name" json:"field_name"`

	// Recurring metrics carry aggregation state across billing periods
	// instead of recomputing from raw history each pass
	Recurring bool `db:"recurring" json:"recurring"`

	// Dimensions are the filterable property keys charges can narrow on
	Dimensions []Dimension `db:"dimensions" json:"dimensions"`

	types.BaseModel
}

// Dimension is a filterable property key with its allowed values
type Dimension struct {
	// Key is the key for the dimension from event properties
	Key string `json:"key"`

	// Values are the possible values for the dimension
	Values []string `json:"values"`
}

func (m *BillableMetric) Validate() error {
	if m.Code == "" {
		return ierr.NewError("billable metric code is required").
			WithHint("Please provide a metric code").
			Mark(ierr.ErrValidation)
	}
	if err := m.AggregationType.Validate(); err != nil {
		return err
	}
	if m.AggregationType.RequiresField() && m.FieldName == "" {
		return ierr.NewError("field name is required").
			WithHintf("Aggregation type %s requires a field name", m.AggregationType).
			Mark(ierr.ErrValidation)
	}
	if m.Recurring && !m.AggregationType.SupportsRecurring() {
		return ierr.NewError("aggregation type does not support recurring").
			WithHintf("Aggregation type %s cannot be used for recurring metrics", m.AggregationType).
			Mark(ierr.ErrValidation)
	}
	return nil
}
