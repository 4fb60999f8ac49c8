package types

import (
	"time"

	ierr "github.com/billforge/billforge/internal/errors"
)

// PeriodBoundaries are supplied per invoicing pass by the subscription
// period resolver. FromDatetime/ToDatetime bound the subscription fee
// period; ChargesFrom/ChargesTo bound the usage window events are
// aggregated over, [from, to).
type PeriodBoundaries struct {
	FromDatetime    time.Time `json:"from_datetime"`
	ToDatetime      time.Time `json:"to_datetime"`
	ChargesFrom     time.Time `json:"charges_from_datetime"`
	ChargesTo       time.Time `json:"charges_to_datetime"`
	Timestamp       time.Time `json:"timestamp"`
	ChargesDuration int       `json:"charges_duration"`
}

func (b PeriodBoundaries) Validate() error {
	if b.FromDatetime.IsZero() || b.ToDatetime.IsZero() {
		return ierr.NewError("invalid period boundaries").
			WithHint("Period start and end are required").
			Mark(ierr.ErrValidation)
	}
	if b.ToDatetime.Before(b.FromDatetime) {
		return ierr.NewError("invalid period boundaries").
			WithHint("Period end cannot be before period start").
			Mark(ierr.ErrValidation)
	}
	if !b.ChargesFrom.IsZero() && !b.ChargesTo.IsZero() && b.ChargesTo.Before(b.ChargesFrom) {
		return ierr.NewError("invalid period boundaries").
			WithHint("Charges period end cannot be before charges period start").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UsageWindow returns the event aggregation window, falling back to the
// subscription period when no dedicated charges window was resolved.
func (b PeriodBoundaries) UsageWindow() (time.Time, time.Time) {
	if b.ChargesFrom.IsZero() || b.ChargesTo.IsZero() {
		return b.FromDatetime, b.ToDatetime
	}
	return b.ChargesFrom, b.ChargesTo
}
