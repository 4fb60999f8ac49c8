package proration

import (
	"time"

	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/shopspring/decimal"
)

// Calculator computes the fraction of a billing period actually
// covered by a time range. Ratios are day based, not second based,
// resolved in the customer's timezone so the offset can shift which
// calendar day a UTC instant belongs to.
type Calculator interface {
	Coefficient(params Params) (decimal.Decimal, error)
}

// Params describe one proration computation. PeriodStart and PeriodEnd
// are the anchor boundaries of the full period; From and To bound the
// covered range. Days in the full period are always derived from the
// anchors, never a fixed constant, so leap months and variable length
// months come out right.
type Params struct {
	From        time.Time
	To          time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time

	// Timezone is the customer's IANA timezone name; empty means UTC
	Timezone string
}

func (p Params) Validate() error {
	if p.From.IsZero() || p.To.IsZero() {
		return ierr.NewError("covered range is required").
			WithHint("Both range start and end are required").
			Mark(ierr.ErrValidation)
	}
	if p.PeriodStart.IsZero() || p.PeriodEnd.IsZero() {
		return ierr.NewError("billing period is required").
			WithHint("Both period start and end are required").
			Mark(ierr.ErrValidation)
	}
	if p.To.Before(p.From) {
		return ierr.NewError("invalid covered range").
			WithHint("Range end cannot be before range start").
			Mark(ierr.ErrValidation)
	}
	if p.PeriodEnd.Before(p.PeriodStart) {
		return ierr.NewError("invalid billing period").
			WithHint("Period end cannot be before period start").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// NewCalculator returns the day based calculator.
func NewCalculator() Calculator {
	return &dayBasedCalculator{}
}

type dayBasedCalculator struct{}

// Coefficient returns days_covered / days_in_full_period clamped to
// [0, 1]. A zero day period yields a zero coefficient rather than an
// error so termination day fees resolve to zero amount fees.
func (c *dayBasedCalculator) Coefficient(params Params) (decimal.Decimal, error) {
	if err := params.Validate(); err != nil {
		return decimal.Zero, err
	}

	tz := params.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHintf("failed to load customer timezone %q", params.Timezone).
			Mark(ierr.ErrSystem)
	}

	totalDays := daysInDuration(params.PeriodStart.In(loc), params.PeriodEnd.In(loc), loc)
	if totalDays <= 0 {
		return decimal.Zero, nil
	}

	from := params.From
	if from.Before(params.PeriodStart) {
		from = params.PeriodStart
	}
	to := params.To
	if to.After(params.PeriodEnd) {
		to = params.PeriodEnd
	}

	coveredDays := daysInDuration(from.In(loc), to.In(loc), loc)
	if coveredDays <= 0 {
		return decimal.Zero, nil
	}
	if coveredDays >= totalDays {
		return decimal.NewFromInt(1), nil
	}

	return decimal.NewFromInt(int64(coveredDays)).
		Div(decimal.NewFromInt(int64(totalDays))), nil
}

// daysInDuration counts calendar days between two points, inclusive of
// the start day and exclusive of the end day, using the given location
// for day boundaries and stepping through midnights so DST transitions
// never produce off-by-one counts.
func daysInDuration(start, end time.Time, loc *time.Location) int {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)

	days := 0
	current := startDay
	for current.Before(endDay) {
		days++
		next := current.Add(24 * time.Hour)
		current = time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, loc)
	}

	return days
}
