package types

import (
	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/samber/lo"
)

// FeeType identifies the billable unit a fee was computed for
type FeeType string

const (
	// FeeTypeCharge is a usage or fixed charge fee bound to a charge
	FeeTypeCharge FeeType = "CHARGE"
	// FeeTypeSubscription is the base subscription fee for a period
	FeeTypeSubscription FeeType = "SUBSCRIPTION"
	// FeeTypeAddOn is a one-off fee for an applied add-on
	FeeTypeAddOn FeeType = "ADD_ON"
	// FeeTypeCredit is a fee consuming prepaid wallet credits
	FeeTypeCredit FeeType = "CREDIT"
)

func (t FeeType) String() string {
	return string(t)
}

func (t FeeType) Validate() error {
	allowed := []FeeType{
		FeeTypeCharge,
		FeeTypeSubscription,
		FeeTypeAddOn,
		FeeTypeCredit,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid fee type").
			WithHint("Please provide a valid fee type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
