package proration

import (
	"testing"
	"time"

	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoefficient(t *testing.T) {
	calc := NewCalculator()

	periodStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		params Params
		want   decimal.Decimal
	}{
		{
			name: "three days of a thirty day month",
			params: Params{
				From:        time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC),
				To:          periodEnd,
				PeriodStart: periodStart,
				PeriodEnd:   periodEnd,
			},
			want: decimal.RequireFromString("0.1"),
		},
		{
			name: "full period coverage",
			params: Params{
				From:        periodStart,
				To:          periodEnd,
				PeriodStart: periodStart,
				PeriodEnd:   periodEnd,
			},
			want: decimal.NewFromInt(1),
		},
		{
			name: "range outside the period is clamped",
			params: Params{
				From:        time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
				To:          time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
				PeriodStart: periodStart,
				PeriodEnd:   periodEnd,
			},
			want: decimal.NewFromInt(1),
		},
		{
			name: "zero day period yields zero",
			params: Params{
				From:        periodStart,
				To:          periodStart,
				PeriodStart: periodStart,
				PeriodEnd:   periodStart,
			},
			want: decimal.Zero,
		},
		{
			name: "range shorter than a day yields zero",
			params: Params{
				From:        time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
				To:          time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC),
				PeriodStart: periodStart,
				PeriodEnd:   periodEnd,
			},
			want: decimal.Zero,
		},
		{
			name: "mid february in a leap year",
			params: Params{
				From:        time.Date(2024, 2, 22, 0, 0, 0, 0, time.UTC),
				To:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				PeriodStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
				PeriodEnd:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			},
			// 8 covered days out of 29
			want: decimal.NewFromInt(8).Div(decimal.NewFromInt(29)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Coefficient(tt.params)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestCoefficientTimezoneShiftsDayBoundaries(t *testing.T) {
	calc := NewCalculator()

	params := Params{
		From:        time.Date(2025, 6, 27, 23, 0, 0, 0, time.UTC),
		To:          time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	// 23:00 UTC on June 27 is still June 27 in UTC, so four calendar
	// days are touched
	utcCoeff, err := calc.Coefficient(params)
	require.NoError(t, err)
	assert.True(t, utcCoeff.Equal(decimal.NewFromInt(4).Div(decimal.NewFromInt(30))), "got %s", utcCoeff)

	// The same instant is 19:00 on June 27 in New York and the period
	// end falls on June 30 local time, so only three days are covered
	params.Timezone = "America/New_York"
	nyCoeff, err := calc.Coefficient(params)
	require.NoError(t, err)
	assert.True(t, nyCoeff.Equal(decimal.RequireFromString("0.1")), "got %s", nyCoeff)
}

func TestCoefficientValidation(t *testing.T) {
	calc := NewCalculator()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		params Params
	}{
		{
			name:   "missing covered range",
			params: Params{PeriodStart: now, PeriodEnd: now.AddDate(0, 1, 0)},
		},
		{
			name:   "missing period",
			params: Params{From: now, To: now.AddDate(0, 0, 3)},
		},
		{
			name: "range end before range start",
			params: Params{
				From:        now.AddDate(0, 0, 3),
				To:          now,
				PeriodStart: now,
				PeriodEnd:   now.AddDate(0, 1, 0),
			},
		},
		{
			name: "period end before period start",
			params: Params{
				From:        now,
				To:          now.AddDate(0, 0, 3),
				PeriodStart: now.AddDate(0, 1, 0),
				PeriodEnd:   now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Coefficient(tt.params)
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
		})
	}
}

func TestCoefficientBadTimezone(t *testing.T) {
	calc := NewCalculator()

	_, err := calc.Coefficient(Params{
		From:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		PeriodStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Timezone:    "Not/AZone",
	})
	require.Error(t, err)
}
