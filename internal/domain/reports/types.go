// Package reports implements the reporting and aggregation engine: every report
// is a read-only projection of the entity store computed on demand.
//
// Each report has a Service method that fetches entities through Store and a
// pure build function that aggregates them. Build functions never touch the
// store, so they are exercised directly with in-memory fixtures.
package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"anthrilo/internal/core/types"
)

// Report names accepted by Service.Generate.
const (
	NameFabricStockTotal    = "fabric-stock-total"
	NameFabricStockByType   = "fabric-stock-by-type"
	NameFabricStockByPeriod = "fabric-stock-by-period"
	NameFabricCostSheet     = "fabric-cost-sheet"
	NameDailySales          = "daily-sales"
	NameDailySalesSKU       = "daily-sales-sku"
	NamePanelWiseSales      = "panel-wise-sales"
	NameInactivePanels      = "inactive-panels"
	NameSlowMoving          = "slow-moving-inventory"
	NameFastMoving          = "fast-moving-inventory"
	NamePlanStatus          = "production-plan-status"
	NameProductionVariance  = "daily-production-variance"
	NameYarnForecast        = "yarn-purchase-forecast"
	NameBundleSKUSales      = "bundle-sku-sales"
	NameDiscountGeneral     = "discount-general"
	NameDiscountByPanel     = "discount-by-panel"
	NamePanelSettlement     = "panel-settlement"
	NameAdROI               = "ad-roi"
	NameSummary             = "summary"
)

// Names lists every report the engine can generate, in catalogue order.
var Names = []string{
	NameFabricStockTotal, NameFabricStockByType, NameFabricStockByPeriod, NameFabricCostSheet,
	NameDailySales, NameDailySalesSKU, NamePanelWiseSales, NameInactivePanels,
	NameSlowMoving, NameFastMoving,
	NamePlanStatus, NameProductionVariance,
	NameYarnForecast,
	NameBundleSKUSales, NameDiscountGeneral, NameDiscountByPanel, NamePanelSettlement,
	NameAdROI, NameSummary,
}

// Header is the envelope shared by every report payload.
type Header struct {
	ReportType  string    `json:"report_type"`
	GeneratedAt time.Time `json:"generated_at"`
	Period      *Period   `json:"period,omitempty"`
}

// Period is the date window a report covers. A nil bound means unbounded.
type Period struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

func newPeriod(start, end time.Time) *Period {
	return &Period{StartDate: types.FormatDatePtr(&start), EndDate: types.FormatDatePtr(&end)}
}

// Table is a flat rendering of a report's detail rows, used for exports.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]any
}

// Tabular is implemented by every report payload.
type Tabular interface {
	Table() Table
}

// Params carries the parameters of a report request. Each report reads only
// the fields it needs; the rest are ignored.
type Params struct {
	Date      *time.Time
	StartDate *time.Time
	EndDate   *time.Time

	FabricType string
	GarmentID  *int64
	PanelID    *int64

	// DaysPeriod is the trailing window of inventory velocity reports.
	// Nil selects DefaultDaysPeriod.
	DaysPeriod *int
	// DaysThreshold is the inactivity cutoff of the inactive-panel report.
	// Nil selects DefaultDaysThreshold; zero is a valid cutoff of today.
	DaysThreshold *int

	// Yarn forecast
	Threshold        *decimal.Decimal
	ForecastDays     int
	DailyConsumption *decimal.Decimal

	// AsOf is the engine's current date. Generators ignore it; it only
	// separates cache entries of reports that depend on the clock.
	AsOf *time.Time
}

// Defaults applied when a request leaves a parameter unset.
const (
	DefaultDaysPeriod    = 90
	DefaultDaysThreshold = 30
	DefaultForecastDays  = 30
	DefaultYarnThreshold = 20
)

// DependsOnClock reports whether the named report is computed relative to the
// current date rather than only from its parameters.
func DependsOnClock(name string) bool {
	switch name {
	case NameInactivePanels, NameSlowMoving, NameFastMoving, NameSummary:
		return true
	}
	return false
}

// Key returns a canonical string of the parameters that are set, suitable for
// cache keys. Identical parameters always produce identical keys.
func (p Params) Key() string {
	parts := make(map[string]string)
	date := func(name string, t *time.Time) {
		if t != nil {
			parts[name] = types.FormatDate(*t)
		}
	}
	id := func(name string, v *int64) {
		if v != nil {
			parts[name] = fmt.Sprintf("%d", *v)
		}
	}
	dec := func(name string, v *decimal.Decimal) {
		if v != nil {
			parts[name] = v.String()
		}
	}
	num := func(name string, v int) {
		if v != 0 {
			parts[name] = fmt.Sprintf("%d", v)
		}
	}
	count := func(name string, v *int) {
		if v != nil {
			parts[name] = fmt.Sprintf("%d", *v)
		}
	}

	date("date", p.Date)
	date("start", p.StartDate)
	date("end", p.EndDate)
	if p.FabricType != "" {
		parts["fabric_type"] = p.FabricType
	}
	id("garment", p.GarmentID)
	id("panel", p.PanelID)
	count("days_period", p.DaysPeriod)
	count("days_threshold", p.DaysThreshold)
	dec("threshold", p.Threshold)
	num("forecast_days", p.ForecastDays)
	dec("daily_consumption", p.DailyConsumption)
	date("as_of", p.AsOf)

	keys := make([]string, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(parts[k])
	}
	return b.String()
}
