package reports

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PanelRates overrides the settlement deduction rates for one panel.
type PanelRates struct {
	CommissionRate decimal.Decimal
	LogisticsRate  decimal.Decimal
}

// Settings holds the business constants the generators apply.
// Rates are fractions (0.10 = 10%).
type Settings struct {
	// Settlement
	CommissionRate decimal.Decimal
	LogisticsRate  decimal.Decimal
	PanelRates     map[int64]PanelRates

	// Yarn forecast. Units per day, used when a request carries no estimate.
	YarnDailyConsumption decimal.Decimal

	// Inventory velocity
	SlowTurnoverBelow decimal.Decimal
	SlowMinStock      int64
	FastTurnoverAbove decimal.Decimal
	ReorderBelowDays  decimal.Decimal
	ReplenishDays     decimal.Decimal
}

// DefaultSettings returns the constants the business has operated with so far.
func DefaultSettings() Settings {
	return Settings{
		CommissionRate:       decimal.RequireFromString("0.10"),
		LogisticsRate:        decimal.RequireFromString("0.05"),
		YarnDailyConsumption: decimal.NewFromInt(5),
		SlowTurnoverBelow:    decimal.RequireFromString("0.1"),
		SlowMinStock:         10,
		FastTurnoverAbove:    decimal.NewFromInt(1),
		ReorderBelowDays:     decimal.NewFromInt(30),
		ReplenishDays:        decimal.NewFromInt(60),
	}
}

// RatesFor returns the commission and logistics rates for a panel.
func (s Settings) RatesFor(panelID int64) (commission, logistics decimal.Decimal) {
	if r, ok := s.PanelRates[panelID]; ok {
		return r.CommissionRate, r.LogisticsRate
	}
	return s.CommissionRate, s.LogisticsRate
}

// Validate checks that rates and thresholds are usable.
func (s Settings) Validate() error {
	checkRate := func(name string, v decimal.Decimal) error {
		if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be within [0, 1], got %s", name, v)
		}
		return nil
	}
	if err := checkRate("commission rate", s.CommissionRate); err != nil {
		return err
	}
	if err := checkRate("logistics rate", s.LogisticsRate); err != nil {
		return err
	}
	for id, r := range s.PanelRates {
		if err := checkRate(fmt.Sprintf("panel %d commission rate", id), r.CommissionRate); err != nil {
			return err
		}
		if err := checkRate(fmt.Sprintf("panel %d logistics rate", id), r.LogisticsRate); err != nil {
			return err
		}
	}
	if s.YarnDailyConsumption.IsNegative() {
		return fmt.Errorf("yarn daily consumption must not be negative")
	}
	if !s.ReplenishDays.IsPositive() || !s.ReorderBelowDays.IsPositive() {
		return fmt.Errorf("reorder and replenish days must be positive")
	}
	return nil
}
