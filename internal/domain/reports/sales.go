package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/core/types"
	"anthrilo/internal/domain/catalog"
)

// --- Daily sales ---

// SaleLine is one transaction in a sales report.
type SaleLine struct {
	ID                 int64   `json:"id"`
	GarmentID          int64   `json:"garment_id"`
	PanelID            int64   `json:"panel_id"`
	Size               string  `json:"size"`
	Quantity           int64   `json:"quantity"`
	UnitPrice          float64 `json:"unit_price"`
	DiscountPercentage float64 `json:"discount_percentage"`
	TotalAmount        float64 `json:"total_amount"`
	IsReturn           bool    `json:"is_return"`
	InvoiceNumber      *string `json:"invoice_number"`
}

func newSaleLine(s catalog.Sale) SaleLine {
	return SaleLine{
		ID:                 s.ID,
		GarmentID:          s.GarmentID,
		PanelID:            s.PanelID,
		Size:               s.Size,
		Quantity:           s.Quantity,
		UnitPrice:          types.Round2(s.UnitPrice),
		DiscountPercentage: types.Round2(s.DiscountPercentage),
		TotalAmount:        types.Round2(s.TotalAmount),
		IsReturn:           s.IsReturn,
		InvoiceNumber:      s.InvoiceNumber,
	}
}

// SalesSummary nets sales against returns.
type SalesSummary struct {
	TotalTransactions      int     `json:"total_transactions"`
	TotalSalesTransactions int     `json:"total_sales_transactions"`
	TotalReturns           int     `json:"total_returns"`
	TotalUnitsSold         int64   `json:"total_units_sold"`
	TotalUnitsReturned     int64   `json:"total_units_returned"`
	NetUnits               int64   `json:"net_units"`
	TotalSalesValue        float64 `json:"total_sales_value"`
	TotalReturnsValue      float64 `json:"total_returns_value"`
	NetSalesValue          float64 `json:"net_sales_value"`
}

func (t salesTally) summary() SalesSummary {
	return SalesSummary{
		TotalTransactions:      t.transactions,
		TotalSalesTransactions: t.sales,
		TotalReturns:           t.returns,
		TotalUnitsSold:         t.unitsSold,
		TotalUnitsReturned:     t.unitsReturned,
		NetUnits:               t.netUnits(),
		TotalSalesValue:        types.Round2(t.salesValue),
		TotalReturnsValue:      types.Round2(t.returnsValue),
		NetSalesValue:          types.Round2(t.netValue()),
	}
}

// DailySalesReport covers every sale and return on one date.
type DailySalesReport struct {
	Header
	ReportDate  string       `json:"report_date"`
	Summary     SalesSummary `json:"summary"`
	ActualSales []SaleLine   `json:"actual_sales"`
	Returns     []SaleLine   `json:"returns"`
}

// Table implements Tabular.
func (r *DailySalesReport) Table() Table {
	t := Table{
		Title:   r.ReportType + " " + r.ReportDate,
		Columns: []string{"ID", "Garment", "Panel", "Size", "Qty", "Unit Price", "Discount %", "Total", "Return", "Invoice"},
	}
	for _, lines := range [][]SaleLine{r.ActualSales, r.Returns} {
		for _, l := range lines {
			invoice := ""
			if l.InvoiceNumber != nil {
				invoice = *l.InvoiceNumber
			}
			t.Rows = append(t.Rows, []any{l.ID, l.GarmentID, l.PanelID, l.Size, l.Quantity, l.UnitPrice,
				l.DiscountPercentage, l.TotalAmount, l.IsReturn, invoice})
		}
	}
	return t
}

// DailySales returns the sales report of one date.
func (s *Service) DailySales(ctx context.Context, date time.Time) (*DailySalesReport, error) {
	return observe(ctx, s, NameDailySales, func(ctx context.Context) (*DailySalesReport, error) {
		day := types.DateOf(date)
		sales, err := s.store.ListSales(ctx, SaleFilter{From: &day, To: &day})
		if err != nil {
			return nil, fmt.Errorf("list sales: %w", err)
		}
		return buildDailySales(day, sales, s.clock()), nil
	})
}

func buildDailySales(date time.Time, sales []catalog.Sale, now time.Time) *DailySalesReport {
	report := &DailySalesReport{
		Header:      Header{ReportType: "Daily Sales Report", GeneratedAt: now},
		ReportDate:  types.FormatDate(date),
		ActualSales: []SaleLine{},
		Returns:     []SaleLine{},
	}

	var tally salesTally
	for _, sale := range sales {
		tally.add(sale)
		if sale.IsReturn {
			report.Returns = append(report.Returns, newSaleLine(sale))
		} else {
			report.ActualSales = append(report.ActualSales, newSaleLine(sale))
		}
	}
	report.Summary = tally.summary()
	return report
}

// --- Single SKU daily sales ---

// GarmentRef identifies the garment a report is scoped to.
type GarmentRef struct {
	ID       int64  `json:"id"`
	StyleSKU string `json:"style_sku"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// SizeSales nets sales against returns for one size.
type SizeSales struct {
	Size             string  `json:"size"`
	QuantitySold     int64   `json:"quantity_sold"`
	QuantityReturned int64   `json:"quantity_returned"`
	NetQuantity      int64   `json:"net_quantity"`
	SalesValue       float64 `json:"sales_value"`
	ReturnsValue     float64 `json:"returns_value"`
	NetValue         float64 `json:"net_value"`
}

// SKUSalesSummary totals the size breakdown.
type SKUSalesSummary struct {
	TotalQuantitySold     int64   `json:"total_quantity_sold"`
	TotalQuantityReturned int64   `json:"total_quantity_returned"`
	NetQuantity           int64   `json:"net_quantity"`
	TotalSalesValue       float64 `json:"total_sales_value"`
	TotalReturnsValue     float64 `json:"total_returns_value"`
	NetSalesValue         float64 `json:"net_sales_value"`
}

// DailySKUSalesReport covers one garment's sales on one date.
// Garment is nil when the garment does not exist; the name fields then carry
// the "Unknown" placeholder.
type DailySKUSalesReport struct {
	Header
	ReportDate    string          `json:"report_date"`
	GarmentID     int64           `json:"garment_id"`
	Garment       *GarmentRef     `json:"garment"`
	GarmentName   string          `json:"garment_name"`
	StyleSKU      string          `json:"style_sku"`
	Summary       SKUSalesSummary `json:"summary"`
	SizeBreakdown []SizeSales     `json:"size_breakdown"`
}

// Table implements Tabular.
func (r *DailySKUSalesReport) Table() Table {
	t := Table{
		Title:   r.StyleSKU + " " + r.ReportDate,
		Columns: []string{"Size", "Qty Sold", "Qty Returned", "Net Qty", "Sales Value", "Returns Value", "Net Value"},
	}
	for _, s := range r.SizeBreakdown {
		t.Rows = append(t.Rows, []any{s.Size, s.QuantitySold, s.QuantityReturned, s.NetQuantity, s.SalesValue, s.ReturnsValue, s.NetValue})
	}
	return t
}

// DailySalesSKU returns one garment's sales of one date broken down by size.
func (s *Service) DailySalesSKU(ctx context.Context, date time.Time, garmentID int64) (*DailySKUSalesReport, error) {
	return observe(ctx, s, NameDailySalesSKU, func(ctx context.Context) (*DailySKUSalesReport, error) {
		day := types.DateOf(date)
		sales, err := s.store.ListSales(ctx, SaleFilter{From: &day, To: &day, GarmentID: &garmentID})
		if err != nil {
			return nil, fmt.Errorf("list sales: %w", err)
		}

		garment, err := s.store.GetGarment(ctx, garmentID)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, fmt.Errorf("get garment %d: %w", garmentID, err)
		}
		return buildDailySKUSales(day, garmentID, garment, sales, s.clock()), nil
	})
}

func buildDailySKUSales(date time.Time, garmentID int64, garment *catalog.Garment, sales []catalog.Sale, now time.Time) *DailySKUSalesReport {
	report := &DailySKUSalesReport{
		Header:        Header{ReportType: "Daily Sales Report - Single SKU", GeneratedAt: now},
		ReportDate:    types.FormatDate(date),
		GarmentID:     garmentID,
		GarmentName:   unknown,
		StyleSKU:      unknown,
		SizeBreakdown: []SizeSales{},
	}
	if garment != nil {
		report.Garment = &GarmentRef{ID: garment.ID, StyleSKU: garment.StyleSKU, Name: garment.Name, Category: garment.Category}
		report.GarmentName = garment.Name
		report.StyleSKU = garment.StyleSKU
	}

	bySize := make(map[string]*salesTally)
	var total salesTally
	for _, sale := range sales {
		t, ok := bySize[sale.Size]
		if !ok {
			t = &salesTally{}
			bySize[sale.Size] = t
		}
		t.add(sale)
		total.add(sale)
	}

	for size, t := range bySize {
		report.SizeBreakdown = append(report.SizeBreakdown, SizeSales{
			Size:             size,
			QuantitySold:     t.unitsSold,
			QuantityReturned: t.unitsReturned,
			NetQuantity:      t.netUnits(),
			SalesValue:       types.Round2(t.salesValue),
			ReturnsValue:     types.Round2(t.returnsValue),
			NetValue:         types.Round2(t.netValue()),
		})
	}
	sortSizes(report.SizeBreakdown, garment)

	report.Summary = SKUSalesSummary{
		TotalQuantitySold:     total.unitsSold,
		TotalQuantityReturned: total.unitsReturned,
		NetQuantity:           total.netUnits(),
		TotalSalesValue:       types.Round2(total.salesValue),
		TotalReturnsValue:     types.Round2(total.returnsValue),
		NetSalesValue:         types.Round2(total.netValue()),
	}
	return report
}

// sortSizes orders sizes as the garment lists them, unlisted sizes last alphabetically.
func sortSizes(rows []SizeSales, garment *catalog.Garment) {
	order := make(map[string]int)
	if garment != nil {
		for i, size := range garment.Sizes {
			order[size] = i
		}
	}
	rank := func(size string) int {
		if i, ok := order[size]; ok {
			return i
		}
		return len(order)
	}
	sort.Slice(rows, func(i, j int) bool {
		ri, rj := rank(rows[i].Size), rank(rows[j].Size)
		if ri != rj {
			return ri < rj
		}
		return rows[i].Size < rows[j].Size
	})
}

// --- Panel-wise sales ---

// PanelSales nets one panel's sales over a period.
type PanelSales struct {
	PanelID            int64   `json:"panel_id"`
	PanelName          string  `json:"panel_name"`
	PanelType          string  `json:"panel_type"`
	IsActive           bool    `json:"is_active"`
	TotalTransactions  int     `json:"total_transactions"`
	SalesTransactions  int     `json:"sales_transactions"`
	ReturnTransactions int     `json:"return_transactions"`
	TotalUnitsSold     int64   `json:"total_units_sold"`
	TotalUnitsReturned int64   `json:"total_units_returned"`
	NetUnits           int64   `json:"net_units"`
	GrossSalesValue    float64 `json:"gross_sales_value"`
	ReturnsValue       float64 `json:"returns_value"`
	NetSalesValue      float64 `json:"net_sales_value"`
}

// PanelWiseSummary is the grand total across panels.
type PanelWiseSummary struct {
	PanelCount int `json:"panel_count"`
	SalesSummary
}

// PanelWiseSalesReport compares panels over a period.
type PanelWiseSalesReport struct {
	Header
	Summary PanelWiseSummary `json:"summary"`
	Panels  []PanelSales     `json:"panels"`
}

// Table implements Tabular.
func (r *PanelWiseSalesReport) Table() Table {
	t := Table{
		Title:   r.ReportType,
		Columns: []string{"Panel", "Type", "Active", "Transactions", "Units Sold", "Units Returned", "Net Units", "Gross Sales", "Returns", "Net Sales"},
	}
	for _, p := range r.Panels {
		t.Rows = append(t.Rows, []any{p.PanelName, p.PanelType, p.IsActive, p.TotalTransactions, p.TotalUnitsSold,
			p.TotalUnitsReturned, p.NetUnits, p.GrossSalesValue, p.ReturnsValue, p.NetSalesValue})
	}
	return t
}

// PanelWiseSales returns per-panel sales for [start, end]. Every panel appears,
// including panels without sales.
func (s *Service) PanelWiseSales(ctx context.Context, start, end time.Time) (*PanelWiseSalesReport, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	return observe(ctx, s, NamePanelWiseSales, func(ctx context.Context) (*PanelWiseSalesReport, error) {
		from, to := types.DateOf(start), types.DateOf(end)
		sales, err := s.store.ListSales(ctx, SaleFilter{From: &from, To: &to})
		if err != nil {
			return nil, fmt.Errorf("list sales: %w", err)
		}
		panels, err := s.store.ListPanels(ctx, PanelFilter{})
		if err != nil {
			return nil, fmt.Errorf("list panels: %w", err)
		}
		return buildPanelWiseSales(from, to, panels, sales, s.clock()), nil
	})
}

func buildPanelWiseSales(start, end time.Time, panels []catalog.Panel, sales []catalog.Sale, now time.Time) *PanelWiseSalesReport {
	report := &PanelWiseSalesReport{
		Header: Header{ReportType: "Panel-Wise Sales Report", GeneratedAt: now, Period: newPeriod(start, end)},
		Panels: make([]PanelSales, 0, len(panels)),
	}

	byPanel := make(map[int64]*salesTally, len(panels))
	for _, p := range panels {
		byPanel[p.ID] = &salesTally{}
	}
	// Sales of panels missing from the panel read are left out of every total.
	for _, sale := range sales {
		if t, ok := byPanel[sale.PanelID]; ok {
			t.add(sale)
		}
	}

	var grand salesTally
	for _, p := range panels {
		t := byPanel[p.ID]
		grand.transactions += t.transactions
		grand.sales += t.sales
		grand.returns += t.returns
		grand.unitsSold += t.unitsSold
		grand.unitsReturned += t.unitsReturned
		grand.salesValue = grand.salesValue.Add(t.salesValue)
		grand.returnsValue = grand.returnsValue.Add(t.returnsValue)

		report.Panels = append(report.Panels, PanelSales{
			PanelID:            p.ID,
			PanelName:          p.PanelName,
			PanelType:          p.PanelType,
			IsActive:           p.IsActive,
			TotalTransactions:  t.transactions,
			SalesTransactions:  t.sales,
			ReturnTransactions: t.returns,
			TotalUnitsSold:     t.unitsSold,
			TotalUnitsReturned: t.unitsReturned,
			NetUnits:           t.netUnits(),
			GrossSalesValue:    types.Round2(t.salesValue),
			ReturnsValue:       types.Round2(t.returnsValue),
			NetSalesValue:      types.Round2(t.netValue()),
		})
	}

	report.Summary = PanelWiseSummary{PanelCount: len(panels), SalesSummary: grand.summary()}
	return report
}

// --- Inactive panels ---

// InactivePanel is a panel without recent sales.
type InactivePanel struct {
	ID                int64   `json:"id"`
	PanelName         string  `json:"panel_name"`
	PanelType         string  `json:"panel_type"`
	IsActive          bool    `json:"is_active"`
	LastSaleDate      *string `json:"last_sale_date"`
	DaysSinceLastSale *int    `json:"days_since_last_sale"`
}

// InactivePanelsSummary counts inactive panels.
type InactivePanelsSummary struct {
	TotalPanels         int `json:"total_panels"`
	InactivePanelsCount int `json:"inactive_panels_count"`
	NeverSoldCount      int `json:"never_sold_count"`
}

// InactivePanelsReport lists panels whose last sale predates the threshold.
type InactivePanelsReport struct {
	Header
	Criteria       string                `json:"criteria"`
	DaysThreshold  int                   `json:"days_threshold"`
	Summary        InactivePanelsSummary `json:"summary"`
	InactivePanels []InactivePanel       `json:"inactive_panels"`
}

// Table implements Tabular.
func (r *InactivePanelsReport) Table() Table {
	t := Table{
		Title:   r.ReportType,
		Columns: []string{"ID", "Panel", "Type", "Active", "Last Sale", "Days Since"},
	}
	for _, p := range r.InactivePanels {
		var last, days any = "", ""
		if p.LastSaleDate != nil {
			last = *p.LastSaleDate
		}
		if p.DaysSinceLastSale != nil {
			days = *p.DaysSinceLastSale
		}
		t.Rows = append(t.Rows, []any{p.ID, p.PanelName, p.PanelType, p.IsActive, last, days})
	}
	return t
}

// InactivePanels returns panels without a sale in the last daysThreshold days.
func (s *Service) InactivePanels(ctx context.Context, daysThreshold int) (*InactivePanelsReport, error) {
	if daysThreshold < 0 {
		return nil, apperror.NewValidation("days_threshold must not be negative")
	}

	return observe(ctx, s, NameInactivePanels, func(ctx context.Context) (*InactivePanelsReport, error) {
		panels, err := s.store.ListPanels(ctx, PanelFilter{})
		if err != nil {
			return nil, fmt.Errorf("list panels: %w", err)
		}
		lastSales, err := s.store.LastSaleDates(ctx)
		if err != nil {
			return nil, fmt.Errorf("last sale dates: %w", err)
		}
		return buildInactivePanels(daysThreshold, panels, lastSales, s.clock()), nil
	})
}

func buildInactivePanels(daysThreshold int, panels []catalog.Panel, lastSales map[int64]time.Time, now time.Time) *InactivePanelsReport {
	today := types.DateOf(now)
	cutoff := today.AddDate(0, 0, -daysThreshold)

	report := &InactivePanelsReport{
		Header:         Header{ReportType: "Inactive Panel Report", GeneratedAt: now},
		Criteria:       fmt.Sprintf("No sales in last %d days", daysThreshold),
		DaysThreshold:  daysThreshold,
		InactivePanels: []InactivePanel{},
	}

	neverSold := 0
	for _, p := range panels {
		last, sold := lastSales[p.ID]
		if sold && !types.DateOf(last).Before(cutoff) {
			continue
		}

		row := InactivePanel{ID: p.ID, PanelName: p.PanelName, PanelType: p.PanelType, IsActive: p.IsActive}
		if sold {
			day := types.DateOf(last)
			days := types.DaysBetween(day, today)
			row.LastSaleDate = types.FormatDatePtr(&day)
			row.DaysSinceLastSale = &days
		} else {
			neverSold++
		}
		report.InactivePanels = append(report.InactivePanels, row)
	}

	report.Summary = InactivePanelsSummary{
		TotalPanels:         len(panels),
		InactivePanelsCount: len(report.InactivePanels),
		NeverSoldCount:      neverSold,
	}
	return report
}
