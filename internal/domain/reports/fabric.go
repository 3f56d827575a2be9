package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/core/types"
	"anthrilo/internal/domain/catalog"
)

const fabricUnit = "kg"

// FabricLine is one fabric lot in a stock sheet.
type FabricLine struct {
	ID            int64    `json:"id"`
	FabricType    string   `json:"fabric_type"`
	Subtype       string   `json:"subtype"`
	GSM           int      `json:"gsm"`
	Composition   string   `json:"composition"`
	Color         *string  `json:"color"`
	Width         *float64 `json:"width"`
	StockQuantity float64  `json:"stock_quantity"`
	Unit          string   `json:"unit"`
	CostPerUnit   float64  `json:"cost_per_unit"`
	StockValue    float64  `json:"stock_value"`
	UpdatedAt     string   `json:"updated_at"`
}

// FabricStockSummary totals a stock sheet.
type FabricStockSummary struct {
	FabricCount        int     `json:"fabric_count"`
	TotalStockQuantity float64 `json:"total_stock_quantity"`
	TotalStockValue    float64 `json:"total_stock_value"`
	Unit               string  `json:"unit"`
}

// FabricStockReport is a fabric stock sheet: total, by type or by period.
type FabricStockReport struct {
	Header
	FabricType string             `json:"fabric_type,omitempty"`
	Summary    FabricStockSummary `json:"summary"`
	Fabrics    []FabricLine       `json:"fabrics"`
}

// Table implements Tabular.
func (r *FabricStockReport) Table() Table {
	t := Table{
		Title:   r.ReportType,
		Columns: []string{"ID", "Fabric Type", "Subtype", "GSM", "Composition", "Color", "Stock Qty", "Unit", "Cost/Unit", "Stock Value", "Updated"},
	}
	for _, f := range r.Fabrics {
		color := ""
		if f.Color != nil {
			color = *f.Color
		}
		t.Rows = append(t.Rows, []any{f.ID, f.FabricType, f.Subtype, f.GSM, f.Composition, color,
			f.StockQuantity, f.Unit, f.CostPerUnit, f.StockValue, f.UpdatedAt})
	}
	return t
}

// FabricTypeCost is one fabric type group of the cost sheet.
type FabricTypeCost struct {
	FabricType    string  `json:"fabric_type"`
	Count         int     `json:"count"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalValue    float64 `json:"total_value"`
}

// FabricCostLine is one fabric lot of the cost sheet.
type FabricCostLine struct {
	FabricType    string  `json:"fabric_type"`
	Subtype       string  `json:"subtype"`
	GSM           int     `json:"gsm"`
	StockQuantity float64 `json:"stock_quantity"`
	Unit          string  `json:"unit"`
	CostPerUnit   float64 `json:"cost_per_unit"`
	TotalValue    float64 `json:"total_value"`
}

// FabricCostSummary totals the cost sheet.
type FabricCostSummary struct {
	FabricCount        int     `json:"fabric_count"`
	TypeCount          int     `json:"type_count"`
	TotalStockQuantity float64 `json:"total_stock_quantity"`
	TotalStockValue    float64 `json:"total_stock_value"`
}

// FabricCostSheet groups fabric stock value by fabric type.
type FabricCostSheet struct {
	Header
	Summary       FabricCostSummary `json:"summary"`
	SummaryByType []FabricTypeCost  `json:"summary_by_type"`
	DetailedCosts []FabricCostLine  `json:"detailed_costs"`
}

// Table implements Tabular.
func (r *FabricCostSheet) Table() Table {
	t := Table{
		Title:   r.ReportType,
		Columns: []string{"Fabric Type", "Subtype", "GSM", "Stock Qty", "Unit", "Cost/Unit", "Total Value"},
	}
	for _, c := range r.DetailedCosts {
		t.Rows = append(t.Rows, []any{c.FabricType, c.Subtype, c.GSM, c.StockQuantity, c.Unit, c.CostPerUnit, c.TotalValue})
	}
	return t
}

// FabricStockTotal returns the stock sheet over every fabric.
func (s *Service) FabricStockTotal(ctx context.Context) (*FabricStockReport, error) {
	return observe(ctx, s, NameFabricStockTotal, func(ctx context.Context) (*FabricStockReport, error) {
		fabrics, err := s.store.ListFabrics(ctx, FabricFilter{})
		if err != nil {
			return nil, fmt.Errorf("list fabrics: %w", err)
		}
		return buildFabricStock("Fabric Stock Sheet - Total", fabrics, s.clock()), nil
	})
}

// FabricStockByType returns the stock sheet of one fabric type.
func (s *Service) FabricStockByType(ctx context.Context, fabricType string) (*FabricStockReport, error) {
	fabricType = strings.ToUpper(strings.TrimSpace(fabricType))
	if fabricType == "" {
		return nil, apperror.NewValidation("fabric type is required")
	}

	return observe(ctx, s, NameFabricStockByType, func(ctx context.Context) (*FabricStockReport, error) {
		fabrics, err := s.store.ListFabrics(ctx, FabricFilter{FabricType: &fabricType})
		if err != nil {
			return nil, fmt.Errorf("list fabrics: %w", err)
		}
		report := buildFabricStock("Fabric Stock Sheet - "+fabricType, fabrics, s.clock())
		report.FabricType = fabricType
		return report, nil
	})
}

// FabricStockByPeriod returns the stock sheet of fabrics updated within [start, end].
func (s *Service) FabricStockByPeriod(ctx context.Context, start, end time.Time) (*FabricStockReport, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	return observe(ctx, s, NameFabricStockByPeriod, func(ctx context.Context) (*FabricStockReport, error) {
		from, to := types.DateOf(start), types.EndOfDay(end)
		fabrics, err := s.store.ListFabrics(ctx, FabricFilter{UpdatedFrom: &from, UpdatedTo: &to})
		if err != nil {
			return nil, fmt.Errorf("list fabrics: %w", err)
		}
		report := buildFabricStock("Fabric Stock Sheet - Time Period", fabrics, s.clock())
		report.Period = newPeriod(start, end)
		return report, nil
	})
}

// FabricCostSheet returns fabric value grouped by type.
func (s *Service) FabricCostSheet(ctx context.Context) (*FabricCostSheet, error) {
	return observe(ctx, s, NameFabricCostSheet, func(ctx context.Context) (*FabricCostSheet, error) {
		fabrics, err := s.store.ListFabrics(ctx, FabricFilter{})
		if err != nil {
			return nil, fmt.Errorf("list fabrics: %w", err)
		}
		return buildFabricCostSheet(fabrics, s.clock()), nil
	})
}

func buildFabricStock(title string, fabrics []catalog.Fabric, now time.Time) *FabricStockReport {
	report := &FabricStockReport{
		Header:  Header{ReportType: title, GeneratedAt: now},
		Fabrics: make([]FabricLine, 0, len(fabrics)),
	}

	totalQty, totalValue := decimal.Zero, decimal.Zero
	for _, f := range fabrics {
		value := StockValue(f.StockQuantity, f.CostPerUnit)
		totalQty = totalQty.Add(f.StockQuantity)
		totalValue = totalValue.Add(value)

		report.Fabrics = append(report.Fabrics, FabricLine{
			ID:            f.ID,
			FabricType:    f.FabricType,
			Subtype:       f.Subtype,
			GSM:           f.GSM,
			Composition:   f.Composition,
			Color:         f.Color,
			Width:         types.RoundPtr(f.Width, types.MoneyPlaces),
			StockQuantity: types.Round2(f.StockQuantity),
			Unit:          f.Unit,
			CostPerUnit:   types.Round2(types.OrZero(f.CostPerUnit)),
			StockValue:    types.Round2(value),
			UpdatedAt:     f.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	report.Summary = FabricStockSummary{
		FabricCount:        len(fabrics),
		TotalStockQuantity: types.Round2(totalQty),
		TotalStockValue:    types.Round2(totalValue),
		Unit:               fabricUnit,
	}
	return report
}

func buildFabricCostSheet(fabrics []catalog.Fabric, now time.Time) *FabricCostSheet {
	type group struct {
		count int
		qty   decimal.Decimal
		value decimal.Decimal
	}

	report := &FabricCostSheet{
		Header:        Header{ReportType: "Fabric Cost Sheet", GeneratedAt: now},
		SummaryByType: []FabricTypeCost{},
		DetailedCosts: make([]FabricCostLine, 0, len(fabrics)),
	}

	groups := make(map[string]*group)
	totalQty, totalValue := decimal.Zero, decimal.Zero
	for _, f := range fabrics {
		value := StockValue(f.StockQuantity, f.CostPerUnit)

		g, ok := groups[f.FabricType]
		if !ok {
			g = &group{}
			groups[f.FabricType] = g
		}
		g.count++
		g.qty = g.qty.Add(f.StockQuantity)
		g.value = g.value.Add(value)

		totalQty = totalQty.Add(f.StockQuantity)
		totalValue = totalValue.Add(value)

		report.DetailedCosts = append(report.DetailedCosts, FabricCostLine{
			FabricType:    f.FabricType,
			Subtype:       f.Subtype,
			GSM:           f.GSM,
			StockQuantity: types.Round2(f.StockQuantity),
			Unit:          f.Unit,
			CostPerUnit:   types.Round2(types.OrZero(f.CostPerUnit)),
			TotalValue:    types.Round2(value),
		})
	}

	for fabricType, g := range groups {
		report.SummaryByType = append(report.SummaryByType, FabricTypeCost{
			FabricType:    fabricType,
			Count:         g.count,
			TotalQuantity: types.Round2(g.qty),
			TotalValue:    types.Round2(g.value),
		})
	}
	sort.Slice(report.SummaryByType, func(i, j int) bool {
		return report.SummaryByType[i].FabricType < report.SummaryByType[j].FabricType
	})

	report.Summary = FabricCostSummary{
		FabricCount:        len(fabrics),
		TypeCount:          len(groups),
		TotalStockQuantity: types.Round2(totalQty),
		TotalStockValue:    types.Round2(totalValue),
	}
	return report
}
