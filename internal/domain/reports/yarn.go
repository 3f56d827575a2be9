package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/core/types"
	"anthrilo/internal/domain/catalog"
)

// Purchase priorities, most urgent first.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

var (
	highPriorityShare   = decimal.RequireFromString("0.3")
	mediumPriorityShare = decimal.RequireFromString("0.6")
)

func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// YarnForecastParams parameterises the purchase forecast. Nil or zero fields
// take their defaults; DailyConsumption defaults to the configured estimate.
type YarnForecastParams struct {
	Threshold        *decimal.Decimal
	ForecastDays     int
	DailyConsumption *decimal.Decimal
}

// YarnPurchaseLine is a purchase recommendation for one yarn.
type YarnPurchaseLine struct {
	YarnID                   int64    `json:"yarn_id"`
	YarnType                 string   `json:"yarn_type"`
	YarnCount                string   `json:"yarn_count"`
	Composition              string   `json:"composition"`
	Supplier                 *string  `json:"supplier"`
	Unit                     string   `json:"unit"`
	CurrentStock             float64  `json:"current_stock"`
	MinimumThreshold         float64  `json:"minimum_threshold"`
	AvgDailyConsumption      float64  `json:"avg_daily_consumption"`
	ForecastedDemand         float64  `json:"forecasted_demand"`
	Shortage                 float64  `json:"shortage"`
	DaysUntilStockout        *float64 `json:"days_until_stockout"`
	RecommendedOrderQuantity float64  `json:"recommended_order_quantity"`
	UnitPrice                float64  `json:"unit_price"`
	EstimatedOrderValue      float64  `json:"estimated_order_value"`
	Priority                 string   `json:"priority"`
}

// YarnForecastSummary totals the recommendations.
type YarnForecastSummary struct {
	YarnsEvaluated      int     `json:"yarns_evaluated"`
	YarnsToPurchase     int     `json:"yarns_to_purchase"`
	HighPriority        int     `json:"high_priority"`
	MediumPriority      int     `json:"medium_priority"`
	LowPriority         int     `json:"low_priority"`
	TotalOrderQuantity  float64 `json:"total_order_quantity"`
	TotalEstimatedValue float64 `json:"total_estimated_value"`
}

// YarnForecastReport recommends yarn purchases for a forecast horizon.
type YarnForecastReport struct {
	Header
	ForecastDays     int                 `json:"forecast_days"`
	MinimumThreshold float64             `json:"minimum_threshold"`
	DailyConsumption float64             `json:"daily_consumption"`
	Summary          YarnForecastSummary `json:"summary"`
	Recommendations  []YarnPurchaseLine  `json:"purchase_recommendations"`
}

// Table implements Tabular.
func (r *YarnForecastReport) Table() Table {
	t := Table{
		Title: r.ReportType,
		Columns: []string{"Yarn Type", "Count", "Composition", "Current Stock", "Min Threshold", "Forecast Demand",
			"Shortage", "Days to Stockout", "Order Qty", "Order Value", "Priority"},
	}
	for _, y := range r.Recommendations {
		var days any = ""
		if y.DaysUntilStockout != nil {
			days = *y.DaysUntilStockout
		}
		t.Rows = append(t.Rows, []any{y.YarnType, y.YarnCount, y.Composition, y.CurrentStock, y.MinimumThreshold,
			y.ForecastedDemand, y.Shortage, days, y.RecommendedOrderQuantity, y.EstimatedOrderValue, y.Priority})
	}
	return t
}

// YarnPurchaseForecast recommends yarn purchases so that stock stays above the
// threshold through the forecast horizon.
func (s *Service) YarnPurchaseForecast(ctx context.Context, p YarnForecastParams) (*YarnForecastReport, error) {
	threshold := decimal.NewFromInt(DefaultYarnThreshold)
	if p.Threshold != nil {
		threshold = *p.Threshold
	}
	consumption := s.settings.YarnDailyConsumption
	if p.DailyConsumption != nil {
		consumption = *p.DailyConsumption
	}
	if threshold.IsNegative() {
		return nil, apperror.NewValidation("threshold must not be negative")
	}
	if consumption.IsNegative() {
		return nil, apperror.NewValidation("daily_consumption must not be negative")
	}
	if p.ForecastDays < 0 {
		return nil, apperror.NewValidation("forecast_days must be positive")
	}
	days := orDefault(p.ForecastDays, DefaultForecastDays)

	return observe(ctx, s, NameYarnForecast, func(ctx context.Context) (*YarnForecastReport, error) {
		yarns, err := s.store.ListYarns(ctx)
		if err != nil {
			return nil, fmt.Errorf("list yarns: %w", err)
		}
		return buildYarnForecast(yarns, threshold, days, consumption, s.clock()), nil
	})
}

func buildYarnForecast(yarns []catalog.Yarn, threshold decimal.Decimal, days int, consumption decimal.Decimal, now time.Time) *YarnForecastReport {
	report := &YarnForecastReport{
		Header:           Header{ReportType: "Yarn Purchase Forecast", GeneratedAt: now},
		ForecastDays:     days,
		MinimumThreshold: types.Round2(threshold),
		DailyConsumption: types.Round2(consumption),
		Recommendations:  []YarnPurchaseLine{},
	}

	forecast := consumption.Mul(decimal.NewFromInt(int64(days)))
	highBelow := threshold.Mul(highPriorityShare)
	mediumBelow := threshold.Mul(mediumPriorityShare)

	type ranked struct {
		line     YarnPurchaseLine
		shortage decimal.Decimal
	}
	var rows []ranked
	totalQty, totalValue := decimal.Zero, decimal.Zero
	for _, y := range yarns {
		stock := y.StockQuantity
		shortage := decimal.Max(decimal.Zero, threshold.Add(forecast).Sub(stock))
		if !shortage.IsPositive() && !stock.LessThan(threshold) {
			continue
		}

		qty := decimal.Max(shortage, threshold.Sub(stock))
		value := qty.Mul(types.OrZero(y.UnitPrice))
		totalQty = totalQty.Add(qty)
		totalValue = totalValue.Add(value)

		priority := PriorityLow
		switch {
		case stock.LessThan(highBelow):
			priority = PriorityHigh
		case stock.LessThan(mediumBelow):
			priority = PriorityMedium
		}

		var stockout *float64
		if consumption.IsPositive() {
			v := types.Round2(stock.Div(consumption))
			stockout = &v
		}

		rows = append(rows, ranked{
			shortage: shortage,
			line: YarnPurchaseLine{
				YarnID:                   y.ID,
				YarnType:                 y.YarnType,
				YarnCount:                y.YarnCount,
				Composition:              y.Composition,
				Supplier:                 y.Supplier,
				Unit:                     y.Unit,
				CurrentStock:             types.Round2(stock),
				MinimumThreshold:         types.Round2(threshold),
				AvgDailyConsumption:      types.Round2(consumption),
				ForecastedDemand:         types.Round2(forecast),
				Shortage:                 types.Round2(shortage),
				DaysUntilStockout:        stockout,
				RecommendedOrderQuantity: types.Round2(qty),
				UnitPrice:                types.Round2(types.OrZero(y.UnitPrice)),
				EstimatedOrderValue:      types.Round2(value),
				Priority:                 priority,
			},
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := priorityRank(rows[i].line.Priority), priorityRank(rows[j].line.Priority)
		if ri != rj {
			return ri < rj
		}
		return rows[i].shortage.GreaterThan(rows[j].shortage)
	})

	summary := YarnForecastSummary{YarnsEvaluated: len(yarns)}
	for _, r := range rows {
		report.Recommendations = append(report.Recommendations, r.line)
		switch r.line.Priority {
		case PriorityHigh:
			summary.HighPriority++
		case PriorityMedium:
			summary.MediumPriority++
		default:
			summary.LowPriority++
		}
	}
	summary.YarnsToPurchase = len(report.Recommendations)
	summary.TotalOrderQuantity = types.Round2(totalQty)
	summary.TotalEstimatedValue = types.Round2(totalValue)
	report.Summary = summary
	return report
}
