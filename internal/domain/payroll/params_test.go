package payroll

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramsEffective(id string, validFrom time.Time) Parameters {
	p := testParameters()
	p.ID = id
	p.ValidFrom = validFrom
	return p
}

func TestSelectParameters_MostRecentApplicableWins(t *testing.T) {
	records := []Parameters{
		paramsEffective("p-2023", time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)),
		paramsEffective("p-2024", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
		paramsEffective("p-2024h2", time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)),
	}

	selected, err := SelectParameters(records, 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, "p-2024", selected.ID)

	selected, err = SelectParameters(records, 2024, time.July)
	require.NoError(t, err)
	assert.Equal(t, "p-2024h2", selected.ID)
}

func TestSelectParameters_NoneApplicable(t *testing.T) {
	records := []Parameters{
		paramsEffective("p-2024", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
	}

	_, err := SelectParameters(records, 2023, time.December)
	assert.ErrorIs(t, err, ErrNoParametersForPeriod)

	_, err = SelectParameters(nil, 2024, time.March)
	assert.ErrorIs(t, err, ErrNoParametersForPeriod)
}

func TestFamilyAllowanceAmount_TierLookup(t *testing.T) {
	p := testParameters()

	cases := []struct {
		name   string
		income int64
		want   int64
	}{
		{"lowest tier", 400000, 20328},
		{"exactly at first limit", 586227, 20328},
		{"second tier", 700000, 12475},
		{"third tier", 1000000, 3942},
		{"above every tier", 2000000, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.familyAllowanceAmount(decimal.NewFromInt(tc.income))
			assert.True(t, got.Equal(decimal.NewFromInt(tc.want)), "income %d: expected %d, got %s", tc.income, tc.want, got)
		})
	}
}

func TestTaxBracketFor_HighestThresholdAtOrBelow(t *testing.T) {
	p := testParameters()

	exempt := p.taxBracketFor(decimal.NewFromInt(500000))
	assert.True(t, exempt.Rate.IsZero(), "income in the exempt tranche pays no tax")

	low := p.taxBracketFor(decimal.NewFromInt(1000000))
	assert.True(t, low.Rate.Equal(decimal.RequireFromString("0.04")))

	// Exactly on a threshold belongs to the bracket it opens.
	onEdge := p.taxBracketFor(decimal.NewFromInt(900000))
	assert.True(t, onEdge.Rate.Equal(decimal.RequireFromString("0.04")))
}
