package pricing

import (
	"github.com/billforge/billforge/internal/domain/charge"
	"github.com/shopspring/decimal"
)

// standardModel bills every unit at a single per-unit amount, with
// optional per-group overrides.
type standardModel struct{}

func (standardModel) Apply(props charge.Properties, in Input) (Result, error) {
	unitAmount := props.Amount
	if in.GroupKey != "" {
		if override, ok := props.GroupedAmounts[in.GroupKey]; ok {
			unitAmount = override
		}
	}

	return Result{
		Units:      in.Units,
		UnitAmount: unitAmount,
		Amount:     in.Units.Mul(unitAmount),
	}, nil
}

// packageModel bills bundles of units at a package price after
// deducting free units. Partial bundles round up to a full package.
type packageModel struct{}

func (packageModel) Apply(props charge.Properties, in Input) (Result, error) {
	billable := in.Units.Sub(props.FreeUnits)
	if billable.IsNegative() {
		billable = decimal.Zero
	}

	packages := billable.Div(decimal.NewFromInt(props.PackageSize)).Ceil()
	amount := packages.Mul(props.Amount)

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

// dynamicModel trusts the caller supplied precise total, used for
// event-time custom pricing, instead of recomputing.
type dynamicModel struct{}

func (dynamicModel) Apply(props charge.Properties, in Input) (Result, error) {
	if in.PreciseAmount == nil {
		return Result{}, errMissingPreciseAmount()
	}

	unitAmount := decimal.Zero
	if in.Units.IsPositive() {
		unitAmount = in.PreciseAmount.Div(in.Units)
	}

	return Result{
		Units:      in.Units,
		UnitAmount: unitAmount,
		Amount:     *in.PreciseAmount,
	}, nil
}
