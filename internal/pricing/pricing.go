package pricing

import (
	"github.com/billforge/billforge/internal/domain/charge"
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// Input is everything a charge model needs to price aggregated usage.
type Input struct {
	// Units is the aggregated usage quantity
	Units decimal.Decimal

	// EventsCount is the number of matched events, used by the
	// percentage model's per-event fixed fee
	EventsCount int64

	// GroupKey selects per-group unit amount overrides when set
	GroupKey string

	// PreciseAmount is the caller supplied total for the dynamic
	// model; ignored by every other model
	PreciseAmount *decimal.Decimal

	// Ratio scales the amount for partial periods; 1 for full periods
	// and the zero value is treated as unset, not as a zero-length
	// period. Callers pricing a genuinely empty covered range must
	// zero the result themselves. The unit amount is rescaled
	// symmetrically so units * unit_amount still reconciles with
	// amount.
	Ratio decimal.Decimal
}

// Result is the priced usage at full precision. Rounding to currency
// precision happens once, at the fee boundary.
type Result struct {
	Units      decimal.Decimal
	UnitAmount decimal.Decimal
	Amount     decimal.Decimal
}

// Strategy is one pricing model. Implementations are pure and
// deterministic: same input, same result, no I/O.
type Strategy interface {
	Apply(props charge.Properties, in Input) (Result, error)
}

var strategies = map[types.ChargeModel]Strategy{
	types.ChargeModelStandard:            standardModel{},
	types.ChargeModelPackage:             packageModel{},
	types.ChargeModelGraduated:           graduatedModel{},
	types.ChargeModelVolume:              volumeModel{},
	types.ChargeModelPercentage:          percentageModel{},
	types.ChargeModelGraduatedPercentage: graduatedPercentageModel{},
	types.ChargeModelDynamic:             dynamicModel{},
}

// Apply dispatches to the model's strategy and applies the period
// ratio. Zero units yield a zero result, not an error; whether a zero
// amount fee is recorded is the fee builder's policy call.
func Apply(model types.ChargeModel, props charge.Properties, in Input) (Result, error) {
	strategy, ok := strategies[model]
	if !ok {
		return Result{}, ierr.NewError("unknown charge model").
			WithHintf("No pricing strategy registered for charge model %s", model).
			Mark(ierr.ErrInvalidOperation)
	}

	if in.Ratio.IsZero() {
		in.Ratio = decimal.NewFromInt(1)
	}

	if in.Units.IsZero() && model != types.ChargeModelDynamic {
		return Result{Units: decimal.Zero, UnitAmount: decimal.Zero, Amount: decimal.Zero}, nil
	}

	result, err := strategy.Apply(props, in)
	if err != nil {
		return Result{}, err
	}

	return scaleByRatio(result, in.Ratio), nil
}

// scaleByRatio scales the amount for a partial period and rescales the
// unit amount so the result still reconciles.
func scaleByRatio(r Result, ratio decimal.Decimal) Result {
	one := decimal.NewFromInt(1)
	if ratio.GreaterThanOrEqual(one) {
		return r
	}

	r.Amount = r.Amount.Mul(ratio)
	if r.Units.IsPositive() {
		r.UnitAmount = r.Amount.Div(r.Units)
	} else {
		r.UnitAmount = decimal.Zero
	}
	return r
}

// rangeCapacity is the unit capacity of a closed range. The first
// range starts at 0 so its capacity equals its upper bound; later
// ranges are inclusive on both ends.
func rangeCapacity(fromValue uint64, toValue *uint64) decimal.Decimal {
	if toValue == nil {
		return decimal.Zero // unbounded, caller treats zero as no cap
	}
	if fromValue == 0 {
		return decimal.NewFromUint64(*toValue)
	}
	return decimal.NewFromUint64(*toValue - fromValue + 1)
}
