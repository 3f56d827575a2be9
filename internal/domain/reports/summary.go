package reports

import (
	"context"
	"fmt"
)

// InventorySnapshot counts velocity outliers over the default window.
type InventorySnapshot struct {
	PeriodDays          int `json:"period_days"`
	SlowMovingItems     int `json:"slow_moving_items"`
	FastMovingItems     int `json:"fast_moving_items"`
	ItemsNeedingReorder int `json:"items_needing_reorder"`
}

// SummaryReport is the dashboard composite of the other reports' summaries.
type SummaryReport struct {
	Header
	FabricStock FabricStockSummary `json:"fabric_stock"`
	TodaySales  SalesSummary       `json:"today_sales"`
	Inventory   InventorySnapshot  `json:"inventory"`
	Production  PlanStatusSummary  `json:"production"`
}

// Table implements Tabular.
func (r *SummaryReport) Table() Table {
	return Table{
		Title:   r.ReportType,
		Columns: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Fabric lots", r.FabricStock.FabricCount},
			{"Fabric stock quantity", r.FabricStock.TotalStockQuantity},
			{"Fabric stock value", r.FabricStock.TotalStockValue},
			{"Today's transactions", r.TodaySales.TotalTransactions},
			{"Today's net units", r.TodaySales.NetUnits},
			{"Today's net sales value", r.TodaySales.NetSalesValue},
			{"Slow moving items", r.Inventory.SlowMovingItems},
			{"Fast moving items", r.Inventory.FastMovingItems},
			{"Items needing reorder", r.Inventory.ItemsNeedingReorder},
			{"Production plans", r.Production.TotalPlans},
			{"Plans in progress", r.Production.InProgress},
			{"Overall completion %", r.Production.OverallCompletion},
		},
	}
}

// Summary assembles the dashboard from independently generated reports.
func (s *Service) Summary(ctx context.Context) (*SummaryReport, error) {
	return observe(ctx, s, NameSummary, func(ctx context.Context) (*SummaryReport, error) {
		now := s.clock()

		fabric, err := s.FabricStockTotal(ctx)
		if err != nil {
			return nil, fmt.Errorf("fabric stock: %w", err)
		}
		sales, err := s.DailySales(ctx, now)
		if err != nil {
			return nil, fmt.Errorf("daily sales: %w", err)
		}
		slow, err := s.SlowMoving(ctx, DefaultDaysPeriod)
		if err != nil {
			return nil, fmt.Errorf("slow moving: %w", err)
		}
		fast, err := s.FastMoving(ctx, DefaultDaysPeriod)
		if err != nil {
			return nil, fmt.Errorf("fast moving: %w", err)
		}
		plans, err := s.ProductionPlanStatus(ctx, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("production plans: %w", err)
		}

		return &SummaryReport{
			Header:      Header{ReportType: "Comprehensive Summary", GeneratedAt: now},
			FabricStock: fabric.Summary,
			TodaySales:  sales.Summary,
			Inventory: InventorySnapshot{
				PeriodDays:          DefaultDaysPeriod,
				SlowMovingItems:     slow.Summary.SlowMovingCount,
				FastMovingItems:     fast.Summary.FastMovingCount,
				ItemsNeedingReorder: fast.Summary.ItemsNeedingReorder,
			},
			Production: plans.Summary,
		}, nil
	})
}
