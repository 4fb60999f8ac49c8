package charge

import (
	"math"

	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
	"github.com/shopspring/decimal"
)

// Properties is the strategy specific pricing schema of a charge.
// Only the fields relevant to the charge model are read; ValidateFor
// enforces the per-model requirements.
type Properties struct {
	// Amount is the per-unit amount for STANDARD and the per-package
	// amount for PACKAGE
	Amount decimal.Decimal `json:"amount"`

	// GroupedAmounts overrides the STANDARD per-unit amount for
	// specific grouped_by key combinations
	GroupedAmounts map[string]decimal.Decimal `json:"grouped_amounts,omitempty"`

	// PackageSize is the bundle size for PACKAGE
	PackageSize int64 `json:"package_size,omitempty"`

	// FreeUnits are deducted before packaging for PACKAGE
	FreeUnits decimal.Decimal `json:"free_units"`

	// GraduatedRanges are the ordered ranges for GRADUATED
	GraduatedRanges []AmountRange `json:"graduated_ranges,omitempty"`

	// VolumeRanges are the ordered ranges for VOLUME
	VolumeRanges []AmountRange `json:"volume_ranges,omitempty"`

	// Rate is the percentage applied to the aggregated amount for
	// PERCENTAGE, expressed as e.g. 2.5 for 2.5%
	Rate decimal.Decimal `json:"rate"`

	// FixedAmount is the optional flat fee per matching event for
	// PERCENTAGE
	FixedAmount decimal.Decimal `json:"fixed_amount"`

	// GraduatedPercentageRanges are the ordered ranges for
	// GRADUATED_PERCENTAGE
	GraduatedPercentageRanges []PercentageRange `json:"graduated_percentage_ranges,omitempty"`
}

// AmountRange is a per-unit priced value range. ToValue is nil for the
// open-ended last range.
type AmountRange struct {
	FromValue uint64 `json:"from_value"`
	ToValue   *uint64 `json:"to_value"`

	// PerUnitAmount is the price of each unit falling in the range
	PerUnitAmount decimal.Decimal `json:"per_unit_amount"`

	// FlatAmount is added once when any units fall in the range
	FlatAmount decimal.Decimal `json:"flat_amount"`
}

// PercentageRange is a rate priced value range for GRADUATED_PERCENTAGE
type PercentageRange struct {
	FromValue uint64 `json:"from_value"`
	ToValue   *uint64 `json:"to_value"`

	// Rate is the percentage applied to units in the range
	Rate decimal.Decimal `json:"rate"`

	// FlatAmount is added once when any units fall in the range
	FlatAmount decimal.Decimal `json:"flat_amount"`
}

// UpperBound treats the open-ended range as MaxUint64 for ordering
func (r AmountRange) UpperBound() uint64 {
	if r.ToValue == nil {
		return math.MaxUint64
	}
	return *r.ToValue
}

func (r PercentageRange) UpperBound() uint64 {
	if r.ToValue == nil {
		return math.MaxUint64
	}
	return *r.ToValue
}

// ValidateFor enforces the schema requirements of the given model.
func (p Properties) ValidateFor(model types.ChargeModel) error {
	switch model {
	case types.ChargeModelStandard:
		if p.Amount.IsNegative() {
			return propertyError("amount cannot be negative")
		}
	case types.ChargeModelPackage:
		if p.PackageSize <= 0 {
			return propertyError("package_size must be positive")
		}
		if p.Amount.IsNegative() || p.FreeUnits.IsNegative() {
			return propertyError("amount and free_units cannot be negative")
		}
	case types.ChargeModelGraduated:
		return validateAmountRanges(p.GraduatedRanges)
	case types.ChargeModelVolume:
		return validateAmountRanges(p.VolumeRanges)
	case types.ChargeModelPercentage:
		if p.Rate.IsNegative() {
			return propertyError("rate cannot be negative")
		}
	case types.ChargeModelGraduatedPercentage:
		return validatePercentageRanges(p.GraduatedPercentageRanges)
	case types.ChargeModelDynamic:
		// pricing is supplied at build time
	}
	return nil
}

func validateAmountRanges(ranges []AmountRange) error {
	if len(ranges) == 0 {
		return propertyError("at least one range is required")
	}
	var prev *AmountRange
	for i := range ranges {
		r := ranges[i]
		if prev == nil {
			if r.FromValue != 0 {
				return propertyError("first range must start at 0")
			}
		} else {
			if prev.ToValue == nil {
				return propertyError("only the last range can be open-ended")
			}
			if r.FromValue != *prev.ToValue+1 {
				return propertyError("ranges must be contiguous and non-overlapping")
			}
		}
		if r.ToValue != nil && *r.ToValue < r.FromValue {
			return propertyError("range end cannot be below range start")
		}
		prev = &ranges[i]
	}
	if prev.ToValue != nil {
		return propertyError("last range must be open-ended")
	}
	return nil
}

func validatePercentageRanges(ranges []PercentageRange) error {
	converted := make([]AmountRange, len(ranges))
	for i, r := range ranges {
		converted[i] = AmountRange{FromValue: r.FromValue, ToValue: r.ToValue}
	}
	return validateAmountRanges(converted)
}

func propertyError(msg string) error {
	return ierr.NewError("invalid charge properties").
		WithHint(msg).
		Mark(ierr.ErrValidation)
}
