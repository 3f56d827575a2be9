package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestStockValue(t *testing.T) {
	assert.True(t, StockValue(dec("100"), decPtr("5.0")).Equal(dec("500")))
	assert.True(t, StockValue(dec("100"), nil).IsZero(), "missing cost counts as zero")
}

func TestTurnoverRate(t *testing.T) {
	assert.True(t, TurnoverRate(0, 90).IsZero())
	assert.True(t, TurnoverRate(10, 0).IsZero())
	assert.True(t, TurnoverRate(-5, 10).IsZero())
	assert.Equal(t, "2.222", TurnoverRate(200, 90).Round(3).String())
	assert.False(t, TurnoverRate(1, 1000).IsNegative())
}

func TestDaysOfStock(t *testing.T) {
	assert.Nil(t, DaysOfStock(50, decimal.Zero), "no sales means unbounded")

	days := DaysOfStock(50, TurnoverRate(200, 90))
	require.NotNil(t, days)
	assert.Equal(t, "22.5", days.Round(2).String())
}

func TestVariance(t *testing.T) {
	v := Variance(dec("95"), dec("100"))
	assert.Equal(t, "-5", v.String())
	assert.Equal(t, "-5", VariancePercent(v, dec("100")).String())
	assert.True(t, VariancePercent(v, decimal.Zero).IsZero())
}

func TestDiscountAmount(t *testing.T) {
	assert.Equal(t, "20", DiscountAmount(dec("100"), dec("90"), 2).String())
}

func TestDiscountBucket(t *testing.T) {
	tests := []struct {
		pct  string
		want string
	}{
		{"0", Bucket0to10},
		{"9.99", Bucket0to10},
		{"10", Bucket10to20},
		{"19.999", Bucket10to20},
		{"20", Bucket20to30},
		{"30", Bucket30to40},
		{"39.99", Bucket30to40},
		{"40", Bucket40Plus},
		{"85", Bucket40Plus},
		{"-3", Bucket0to10},
	}
	for _, tt := range tests {
		t.Run(tt.pct, func(t *testing.T) {
			assert.Equal(t, tt.want, DiscountBucket(dec(tt.pct)))
		})
	}
}

func TestParams_Key(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	panel := int64(7)

	a := Params{StartDate: &start, EndDate: &end, PanelID: &panel}
	b := Params{PanelID: &panel, EndDate: &end, StartDate: &start}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "end=2024-01-31&panel=7&start=2024-01-01", a.Key())
	assert.Empty(t, Params{}.Key())
	assert.NotEqual(t, a.Key(), Params{StartDate: &start, EndDate: &end}.Key())

	zero := 0
	assert.Equal(t, "days_threshold=0", Params{DaysThreshold: &zero}.Key(), "explicit zero differs from unset")

	next := end.AddDate(0, 0, 1)
	assert.Equal(t, "as_of=2024-01-31", Params{AsOf: &end}.Key())
	assert.NotEqual(t, Params{AsOf: &end}.Key(), Params{AsOf: &next}.Key())
}

func TestDependsOnClock(t *testing.T) {
	for _, name := range []string{NameInactivePanels, NameSlowMoving, NameFastMoving, NameSummary} {
		assert.True(t, DependsOnClock(name), name)
	}
	for _, name := range []string{NameDailySales, NamePanelSettlement, NamePlanStatus, "nope"} {
		assert.False(t, DependsOnClock(name), name)
	}
}

func TestSettings(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())

	c, l := s.RatesFor(1)
	assert.Equal(t, "0.1", c.String())
	assert.Equal(t, "0.05", l.String())

	s.PanelRates = map[int64]PanelRates{1: {CommissionRate: dec("0.2"), LogisticsRate: dec("0")}}
	c, l = s.RatesFor(1)
	assert.Equal(t, "0.2", c.String())
	assert.True(t, l.IsZero())

	s.PanelRates[2] = PanelRates{CommissionRate: dec("1.5")}
	assert.Error(t, s.Validate())
}
