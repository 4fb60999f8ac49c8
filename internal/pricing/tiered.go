package pricing

import (
	"github.com/billforge/billforge/internal/domain/charge"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// graduatedModel splits the unit count across ordered ranges: each
// range bills its own units at its per-unit amount plus its flat
// amount when any units fall in it. The returned unit amount is the
// effective blended price, amount / units.
type graduatedModel struct{}

func (graduatedModel) Apply(props charge.Properties, in Input) (Result, error) {
	if len(props.GraduatedRanges) == 0 {
		return Result{}, errMissingRanges("graduated")
	}

	amount := decimal.Zero
	remaining := in.Units
	for _, r := range props.GraduatedRanges {
		if !remaining.IsPositive() {
			break
		}

		unitsInRange := remaining
		if capacity := rangeCapacity(r.FromValue, r.ToValue); capacity.IsPositive() && remaining.GreaterThan(capacity) {
			unitsInRange = capacity
		}

		amount = amount.Add(unitsInRange.Mul(r.PerUnitAmount)).Add(r.FlatAmount)
		remaining = remaining.Sub(unitsInRange)
	}

	unitAmount := decimal.Zero
	if in.Units.IsPositive() {
		unitAmount = amount.Div(in.Units)
	}

	return Result{
		Units:      in.Units,
		UnitAmount: unitAmount,
		Amount:     amount,
	}, nil
}

// volumeModel bills the entire unit count at the rate of whichever
// single range the total falls into. Only that range's flat amount
// applies. This is the defining difference to graduated pricing.
type volumeModel struct{}

func (volumeModel) Apply(props charge.Properties, in Input) (Result, error) {
	if len(props.VolumeRanges) == 0 {
		return Result{}, errMissingRanges("volume")
	}

	selected := props.VolumeRanges[len(props.VolumeRanges)-1]
	for _, r := range props.VolumeRanges {
		if r.ToValue == nil || in.Units.LessThanOrEqual(decimal.NewFromUint64(*r.ToValue)) {
			selected = r
			break
		}
	}

	amount := in.Units.Mul(selected.PerUnitAmount).Add(selected.FlatAmount)

	return Result{
		Units:      in.Units,
		UnitAmount: selected.PerUnitAmount,
		Amount:     amount,
	}, nil
}

// percentageModel bills a rate over the aggregated amount plus an
// optional flat fee per matched event.
type percentageModel struct{}

func (percentageModel) Apply(props charge.Properties, in Input) (Result, error) {
	amount := in.Units.Mul(props.Rate).Div(hundred)
	if props.FixedAmount.IsPositive() && in.EventsCount > 0 {
		amount = amount.Add(props.FixedAmount.Mul(decimal.NewFromInt(in.EventsCount)))
	}

	unitAmount := decimal.Zero
	if in.Units.IsPositive() {
		unitAmount = amount.Div(in.Units)
	}

	return Result{
		Units:      in.Units,
		UnitAmount: unitAmount,
		Amount:     amount,
	}, nil
}

// graduatedPercentageModel selects ranges as the graduated model does
// but applies a percentage rate plus flat amount per range instead of
// a per-unit price.
type graduatedPercentageModel struct{}

func (graduatedPercentageModel) Apply(props charge.Properties, in Input) (Result, error) {
	if len(props.GraduatedPercentageRanges) == 0 {
		return Result{}, errMissingRanges("graduated_percentage")
	}

	amount := decimal.Zero
	remaining := in.Units
	for _, r := range props.GraduatedPercentageRanges {
		if !remaining.IsPositive() {
			break
		}

		unitsInRange := remaining
		if capacity := rangeCapacity(r.FromValue, r.ToValue); capacity.IsPositive() && remaining.GreaterThan(capacity) {
			unitsInRange = capacity
		}

		amount = amount.Add(unitsInRange.Mul(r.Rate).Div(hundred)).Add(r.FlatAmount)
		remaining = remaining.Sub(unitsInRange)
	}

	unitAmount := decimal.Zero
	if in.Units.IsPositive() {
		unitAmount = amount.Div(in.Units)
	}

	return Result{
		Units:      in.Units,
		UnitAmount: unitAmount,
		Amount:     amount,
	}, nil
}

func errMissingRanges(model string) error {
	return ierr.NewError("charge properties missing ranges").
		WithHintf("The %s charge model requires at least one range", model).
		Mark(ierr.ErrInvalidOperation)
}

func errMissingPreciseAmount() error {
	return ierr.NewError("precise amount is required").
		WithHint("The dynamic charge model requires a caller supplied precise amount").
		Mark(ierr.ErrInvalidOperation)
}
