package charge

import (
	ierr "github.com/billforge/billforge/internal/errors"
)

// AllValues is the per-dimension wildcard: the filter matches any
// value of the dimension as long as the event carries it.
const AllValues = "__ALL_FILTER_VALUES__"

// Filter narrows a charge to events matching specific dimension value
// combinations, with its own optional property override.
type Filter struct {
	// ID is the unique identifier for the filter
	ID string `json:"id"`

	// DisplayName labels fees computed for this filter
	DisplayName string `json:"display_name"`

	// Values maps dimension keys to accepted values. A dimension whose
	// values contain AllValues matches any present value.
	Values map[string][]string `json:"values"`

	// Properties overrides the charge properties for matching events
	Properties *Properties `json:"properties,omitempty"`
}

func (f *Filter) Validate() error {
	if len(f.Values) == 0 {
		return ierr.NewError("charge filter requires at least one dimension").
			WithHint("Please provide filter dimension values").
			Mark(ierr.ErrValidation)
	}
	for key, values := range f.Values {
		if key == "" || len(values) == 0 {
			return ierr.NewError("invalid charge filter dimension").
				WithHintf("Dimension %q requires at least one value", key).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// Specificity counts the dimensions pinned to concrete values; used to
// rank candidate filters so the most specific match wins.
func (f *Filter) Specificity() int {
	score := 0
	for _, values := range f.Values {
		concrete := false
		for _, v := range values {
			if v != AllValues {
				concrete = true
				break
			}
		}
		if concrete {
			score += 2
		} else {
			score++
		}
	}
	return score
}
