package types

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/samber/lo"
)

// ChargeModel is the pricing strategy applied to aggregated usage
type ChargeModel string

const (
	// ChargeModelStandard bills units at a single per-unit amount
	ChargeModelStandard ChargeModel = "STANDARD"
	// ChargeModelPackage bills bundles of units at a package price
	ChargeModelPackage ChargeModel = "PACKAGE"
	// ChargeModelGraduated splits units across ordered ranges, each
	// range billed at its own per-unit price
	ChargeModelGraduated ChargeModel = "GRADUATED"
	// ChargeModelVolume bills the entire unit count at the rate of the
	// single range the total falls into
	ChargeModelVolume ChargeModel = "VOLUME"
	// ChargeModelPercentage bills a rate over the aggregated amount
	// plus an optional fixed fee per event
	ChargeModelPercentage ChargeModel = "PERCENTAGE"
	// ChargeModelGraduatedPercentage is range selection as graduated
	// with percentage rates per range
	ChargeModelGraduatedPercentage ChargeModel = "GRADUATED_PERCENTAGE"
	// ChargeModelDynamic trusts a caller supplied precise amount
	ChargeModelDynamic ChargeModel = "DYNAMIC"
)

func (m ChargeModel) String() string {
	return string(m)
}

func (m ChargeModel) Validate() error {
	allowed := []ChargeModel{
		ChargeModelStandard,
		ChargeModelPackage,
		ChargeModelGraduated,
		ChargeModelVolume,
		ChargeModelPercentage,
		ChargeModelGraduatedPercentage,
		ChargeModelDynamic,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid charge model").
			WithHint("Please provide a valid charge model").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
