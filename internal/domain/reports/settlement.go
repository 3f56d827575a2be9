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

// SettlementLine is the amount owed to one panel.
type SettlementLine struct {
	PanelID         int64   `json:"panel_id"`
	PanelName       string  `json:"panel_name"`
	PanelType       string  `json:"panel_type"`
	TotalSales      int     `json:"total_sales"`
	TotalReturns    int     `json:"total_returns"`
	UnitsSold       int64   `json:"units_sold"`
	UnitsReturned   int64   `json:"units_returned"`
	GrossRevenue    float64 `json:"gross_revenue"`
	ReturnsValue    float64 `json:"returns_value"`
	NetSalesValue   float64 `json:"net_sales_value"`
	CommissionRate  float64 `json:"commission_rate"`
	Commission      float64 `json:"commission"`
	LogisticsRate   float64 `json:"logistics_rate"`
	LogisticsCost   float64 `json:"logistics_cost"`
	OtherDeductions float64 `json:"other_deductions"`
	NetPayable      float64 `json:"net_payable"`
}

// SettlementSummary totals every panel's settlement.
type SettlementSummary struct {
	PanelCount           int     `json:"panel_count"`
	TotalNetSalesValue   float64 `json:"total_net_sales_value"`
	TotalCommission      float64 `json:"total_commission"`
	TotalLogisticsCost   float64 `json:"total_logistics_cost"`
	TotalOtherDeductions float64 `json:"total_other_deductions"`
	TotalNetPayable      float64 `json:"total_net_payable"`
}

// SettlementReport computes what each panel is owed after deductions.
type SettlementReport struct {
	Header
	Summary SettlementSummary `json:"summary"`
	Panels  []SettlementLine  `json:"settlements"`
}

// Table implements Tabular.
func (r *SettlementReport) Table() Table {
	t := Table{
		Title: r.ReportType,
		Columns: []string{"Panel", "Type", "Sales", "Returns", "Gross Revenue", "Returns Value", "Net Sales",
			"Commission", "Logistics", "Other Deductions", "Net Payable"},
	}
	for _, p := range r.Panels {
		t.Rows = append(t.Rows, []any{p.PanelName, p.PanelType, p.TotalSales, p.TotalReturns, p.GrossRevenue,
			p.ReturnsValue, p.NetSalesValue, p.Commission, p.LogisticsCost, p.OtherDeductions, p.NetPayable})
	}
	return t
}

// PanelSettlement returns the settlement of every panel (or one panel) over
// [start, end], largest net sales first.
func (s *Service) PanelSettlement(ctx context.Context, start, end time.Time, panelID *int64) (*SettlementReport, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	return observe(ctx, s, NamePanelSettlement, func(ctx context.Context) (*SettlementReport, error) {
		panels, err := s.panelsFor(ctx, panelID)
		if err != nil {
			return nil, err
		}
		from, to := types.DateOf(start), types.DateOf(end)
		sales, err := s.store.ListSales(ctx, SaleFilter{From: &from, To: &to, PanelID: panelID})
		if err != nil {
			return nil, fmt.Errorf("list sales: %w", err)
		}
		return buildSettlement(from, to, panels, sales, s.settings, s.clock()), nil
	})
}

// panelsFor returns every panel, or only the requested one. A requested panel
// that does not exist is a not-found error.
func (s *Service) panelsFor(ctx context.Context, panelID *int64) ([]catalog.Panel, error) {
	panels, err := s.store.ListPanels(ctx, PanelFilter{ID: panelID})
	if err != nil {
		return nil, fmt.Errorf("list panels: %w", err)
	}
	if panelID != nil && len(panels) == 0 {
		return nil, apperror.NewNotFound("panel", *panelID)
	}
	return panels, nil
}

func buildSettlement(start, end time.Time, panels []catalog.Panel, sales []catalog.Sale, cfg Settings, now time.Time) *SettlementReport {
	report := &SettlementReport{
		Header: Header{ReportType: "Panel Settlement Report", GeneratedAt: now, Period: newPeriod(start, end)},
		Panels: make([]SettlementLine, 0, len(panels)),
	}

	byPanel := make(map[int64]*salesTally, len(panels))
	for _, p := range panels {
		byPanel[p.ID] = &salesTally{}
	}
	for _, sale := range sales {
		if t, ok := byPanel[sale.PanelID]; ok {
			t.add(sale)
		}
	}

	type ranked struct {
		line SettlementLine
		net  decimal.Decimal
	}
	rows := make([]ranked, 0, len(panels))
	totalNet, totalCommission, totalLogistics, totalOther, totalPayable :=
		decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, p := range panels {
		t := byPanel[p.ID]
		commissionRate, logisticsRate := cfg.RatesFor(p.ID)

		net := t.netValue()
		commission := net.Mul(commissionRate)
		logistics := net.Mul(logisticsRate)
		other := decimal.Zero
		payable := net.Sub(commission).Sub(logistics).Sub(other)

		totalNet = totalNet.Add(net)
		totalCommission = totalCommission.Add(commission)
		totalLogistics = totalLogistics.Add(logistics)
		totalOther = totalOther.Add(other)
		totalPayable = totalPayable.Add(payable)

		rows = append(rows, ranked{
			net: net,
			line: SettlementLine{
				PanelID:         p.ID,
				PanelName:       p.PanelName,
				PanelType:       p.PanelType,
				TotalSales:      t.sales,
				TotalReturns:    t.returns,
				UnitsSold:       t.unitsSold,
				UnitsReturned:   t.unitsReturned,
				GrossRevenue:    types.Round2(t.salesValue),
				ReturnsValue:    types.Round2(t.returnsValue),
				NetSalesValue:   types.Round2(net),
				CommissionRate:  types.Round(commissionRate, 4),
				Commission:      types.Round2(commission),
				LogisticsRate:   types.Round(logisticsRate, 4),
				LogisticsCost:   types.Round2(logistics),
				OtherDeductions: types.Round2(other),
				NetPayable:      types.Round2(payable),
			},
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].net.GreaterThan(rows[j].net)
	})
	for _, r := range rows {
		report.Panels = append(report.Panels, r.line)
	}

	report.Summary = SettlementSummary{
		PanelCount:           len(panels),
		TotalNetSalesValue:   types.Round2(totalNet),
		TotalCommission:      types.Round2(totalCommission),
		TotalLogisticsCost:   types.Round2(totalLogistics),
		TotalOtherDeductions: types.Round2(totalOther),
		TotalNetPayable:      types.Round2(totalPayable),
	}
	return report
}
