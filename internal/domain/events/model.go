package events

import (
	"fmt"
	"time"

	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// Event is an immutable usage fact. Events are consumed, never
// mutated, by aggregation.
type Event struct {
	// ID is the unique identifier for the event
	ID string `json:"id"`

	// TenantID is the tenant identifier
	TenantID string `json:"tenant_id"`

	// SubscriptionID is the subscription the usage was recorded against
	SubscriptionID string `json:"subscription_id"`

	// Code matches the billable metric the event counts towards
	Code string `json:"code"`

	// Timestamp is when the usage occurred, always UTC
	Timestamp time.Time `json:"timestamp"`

	// Properties carry the aggregatable fields and filter dimensions
	Properties map[string]interface{} `json:"properties"`
}

// NewEvent creates an event with a generated ID and normalized timestamp
func NewEvent(tenantID, subscriptionID, code string, timestamp time.Time, properties map[string]interface{}) *Event {
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	return &Event{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		TenantID:       tenantID,
		SubscriptionID: subscriptionID,
		Code:           code,
		Timestamp:      timestamp.UTC(),
		Properties:     properties,
	}
}

func (e *Event) Validate() error {
	if e.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Please provide a subscription identifier").
			Mark(ierr.ErrValidation)
	}
	if e.Code == "" {
		return ierr.NewError("code is required").
			WithHint("Please provide a billable metric code").
			Mark(ierr.ErrValidation)
	}
	if e.Timestamp.IsZero() {
		return ierr.NewError("timestamp is required").
			WithHint("Please provide an event timestamp").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// DecimalProperty extracts a named property as a decimal. A missing or
// non-numeric property is an error, never treated as zero.
func (e *Event) DecimalProperty(field string) (decimal.Decimal, error) {
	raw, ok := e.Properties[field]
	if !ok {
		return decimal.Zero, ierr.NewError("event property missing").
			WithHintf("Event %s has no property %q", e.ID, field).
			WithReportableDetails(map[string]any{
				"event_id": e.ID,
				"field":    field,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case string:
		d, err := decimal.NewFromString(v)
		if err == nil {
			return d, nil
		}
	case decimal.Decimal:
		return v, nil
	}

	return decimal.Zero, ierr.NewError("event property is not numeric").
		WithHintf("Event %s property %q cannot be aggregated", e.ID, field).
		WithReportableDetails(map[string]any{
			"event_id": e.ID,
			"field":    field,
			"value":    raw,
		}).
		Mark(ierr.ErrInvalidOperation)
}

// StringProperty extracts a named property as its string form, with ok
// reporting whether the property was present.
func (e *Event) StringProperty(field string) (string, bool) {
	raw, ok := e.Properties[field]
	if !ok || raw == nil {
		return "", false
	}
	if v, ok := raw.(string); ok {
		return v, true
	}
	return fmt.Sprintf("%v", raw), true
}
