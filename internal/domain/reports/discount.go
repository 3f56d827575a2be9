package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"anthrilo/internal/core/types"
	"anthrilo/internal/domain/catalog"
)

// --- Bundle SKU sales ---

// BundleLine is one bundle garment's sales over the period.
type BundleLine struct {
	GarmentID     int64            `json:"garment_id"`
	BundleSKU     string           `json:"bundle_sku"`
	BundleName    string           `json:"bundle_name"`
	Category      string           `json:"category"`
	ClassifiedBy  string           `json:"classified_by"`
	UnitsSold     int64            `json:"units_sold"`
	UnitsReturned int64            `json:"units_returned"`
	TotalQuantity int64            `json:"total_quantity"`
	GrossRevenue  float64          `json:"gross_revenue"`
	ReturnsValue  float64          `json:"returns_value"`
	TotalRevenue  float64          `json:"total_revenue"`
	SizeBreakdown map[string]int64 `json:"size_breakdown"`
}

// Bundle classification sources.
const (
	ClassifiedByFlag      = "flag"
	ClassifiedByHeuristic = "heuristic"
)

// BundleSummary totals bundle sales.
type BundleSummary struct {
	BundleGarments int     `json:"bundle_garments"`
	BundlesSold    int     `json:"bundles_sold"`
	TotalQuantity  int64   `json:"total_quantity"`
	TotalRevenue   float64 `json:"total_revenue"`
}

// BundleSalesReport covers sales of multi-item combo garments.
type BundleSalesReport struct {
	Header
	Summary BundleSummary `json:"summary"`
	Bundles []BundleLine  `json:"bundles"`
}

// Table implements Tabular.
func (r *BundleSalesReport) Table() Table {
	t := Table{
		Title:   r.ReportType,
		Columns: []string{"Bundle SKU", "Bundle Name", "Category", "Sold", "Returned", "Net Qty", "Gross Revenue", "Returns", "Net Revenue", "Sizes"},
	}
	for _, b := range r.Bundles {
		sizes := make([]string, 0, len(b.SizeBreakdown))
		for size := range b.SizeBreakdown {
			sizes = append(sizes, size)
		}
		sort.Strings(sizes)
		breakdown := ""
		for i, size := range sizes {
			if i > 0 {
				breakdown += ", "
			}
			breakdown += fmt.Sprintf("%s: %d", size, b.SizeBreakdown[size])
		}
		t.Rows = append(t.Rows, []any{b.BundleSKU, b.BundleName, b.Category, b.UnitsSold, b.UnitsReturned,
			b.TotalQuantity, b.GrossRevenue, b.ReturnsValue, b.TotalRevenue, breakdown})
	}
	return t
}

// BundleSKUSales returns net sales of bundle garments over [start, end],
// highest net revenue first.
func (s *Service) BundleSKUSales(ctx context.Context, start, end time.Time) (*BundleSalesReport, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	return observe(ctx, s, NameBundleSKUSales, func(ctx context.Context) (*BundleSalesReport, error) {
		from, to := types.DateOf(start), types.DateOf(end)
		garments, err := s.store.ListGarments(ctx, GarmentFilter{})
		if err != nil {
			return nil, fmt.Errorf("list garments: %w", err)
		}
		sales, err := s.store.ListSales(ctx, SaleFilter{From: &from, To: &to})
		if err != nil {
			return nil, fmt.Errorf("list sales: %w", err)
		}
		return buildBundleSales(from, to, garments, sales, s.clock()), nil
	})
}

func buildBundleSales(start, end time.Time, garments []catalog.Garment, sales []catalog.Sale, now time.Time) *BundleSalesReport {
	report := &BundleSalesReport{
		Header:  Header{ReportType: "Bundle SKU Sales Report", GeneratedAt: now, Period: newPeriod(start, end)},
		Bundles: []BundleLine{},
	}

	bundles := make(map[int64]*catalog.Garment)
	var order []int64
	for i := range garments {
		g := &garments[i]
		if g.Bundle() {
			bundles[g.ID] = g
			order = append(order, g.ID)
		}
	}

	type agg struct {
		tally salesTally
		sizes map[string]int64
	}
	byGarment := make(map[int64]*agg)
	for _, sale := range sales {
		if _, ok := bundles[sale.GarmentID]; !ok {
			continue
		}
		a, ok := byGarment[sale.GarmentID]
		if !ok {
			a = &agg{sizes: make(map[string]int64)}
			byGarment[sale.GarmentID] = a
		}
		a.tally.add(sale)
		if sale.IsReturn {
			a.sizes[sale.Size] -= sale.Quantity
		} else {
			a.sizes[sale.Size] += sale.Quantity
		}
	}

	type ranked struct {
		line BundleLine
		net  decimal.Decimal
	}
	var rows []ranked
	var totalQty int64
	totalRevenue := decimal.Zero
	for _, id := range order {
		a, ok := byGarment[id]
		if !ok {
			continue
		}
		g := bundles[id]
		classifiedBy := ClassifiedByHeuristic
		if g.IsBundle != nil {
			classifiedBy = ClassifiedByFlag
		}
		net := a.tally.netValue()
		totalQty += a.tally.netUnits()
		totalRevenue = totalRevenue.Add(net)

		rows = append(rows, ranked{
			net: net,
			line: BundleLine{
				GarmentID:     g.ID,
				BundleSKU:     g.StyleSKU,
				BundleName:    g.Name,
				Category:      g.Category,
				ClassifiedBy:  classifiedBy,
				UnitsSold:     a.tally.unitsSold,
				UnitsReturned: a.tally.unitsReturned,
				TotalQuantity: a.tally.netUnits(),
				GrossRevenue:  types.Round2(a.tally.salesValue),
				ReturnsValue:  types.Round2(a.tally.returnsValue),
				TotalRevenue:  types.Round2(net),
				SizeBreakdown: a.sizes,
			},
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].net.GreaterThan(rows[j].net)
	})
	for _, r := range rows {
		report.Bundles = append(report.Bundles, r.line)
	}

	report.Summary = BundleSummary{
		BundleGarments: len(bundles),
		BundlesSold:    len(report.Bundles),
		TotalQuantity:  totalQty,
		TotalRevenue:   types.Round2(totalRevenue),
	}
	return report
}

// --- Discount analysis ---

// discountedSale is a sale line priced against its garment's MRP.
type discountedSale struct {
	sale     catalog.Sale
	mrp      decimal.Decimal
	mrpValue decimal.Decimal
	selling  decimal.Decimal
	discount decimal.Decimal
	bucket   string
}

// priceSale values a sale at MRP. A sale of an unknown garment is valued at its
// own unit price, so it carries no discount amount.
func priceSale(sale catalog.Sale, garments garmentIndex) discountedSale {
	mrp := sale.UnitPrice
	if g, ok := garments[sale.GarmentID]; ok {
		mrp = g.MRP
	}
	return discountedSale{
		sale:     sale,
		mrp:      mrp,
		mrpValue: MRPValue(mrp, sale.Quantity),
		selling:  SellingValue(sale.UnitPrice, sale.Quantity),
		discount: DiscountAmount(mrp, sale.UnitPrice, sale.Quantity),
		bucket:   DiscountBucket(sale.DiscountPercentage),
	}
}

// DiscountLine is one discounted sale.
type DiscountLine struct {
	SaleID          int64   `json:"sale_id"`
	TransactionDate string  `json:"transaction_date"`
	GarmentID       int64   `json:"garment_id"`
	SKU             string  `json:"sku"`
	ProductName     string  `json:"product_name"`
	PanelID         int64   `json:"panel_id"`
	Size            string  `json:"size"`
	TotalSold       int64   `json:"total_sold"`
	MRP             float64 `json:"mrp"`
	SellingPrice    float64 `json:"selling_price"`
	MRPValue        float64 `json:"mrp_value"`
	SellingValue    float64 `json:"selling_value"`
	DiscountAmount  float64 `json:"discount_amount"`
	DiscountPercent float64 `json:"discount_percent"`
	DiscountBucket  string  `json:"discount_bucket"`
}

// BucketStat aggregates the sales of one discount band.
type BucketStat struct {
	Bucket         string  `json:"bucket"`
	Count          int     `json:"count"`
	Units          int64   `json:"units"`
	MRPValue       float64 `json:"mrp_value"`
	DiscountAmount float64 `json:"discount_amount"`
}

// CampaignLine is a discount campaign active during the period.
type CampaignLine struct {
	ID            int64   `json:"id"`
	DiscountName  string  `json:"discount_name"`
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
	ApplicableTo  string  `json:"applicable_to"`
	PanelID       *int64  `json:"panel_id"`
	GarmentID     *int64  `json:"garment_id"`
	Category      *string `json:"category"`
	ValidFrom     string  `json:"valid_from"`
	ValidTo       *string `json:"valid_to"`
}

// DiscountSummary totals the general discount report. Returns are counted in
// TotalTransactions and the buckets but excluded from the value totals.
type DiscountSummary struct {
	TotalTransactions         int     `json:"total_transactions"`
	SalesTransactions         int     `json:"sales_transactions"`
	ReturnTransactions        int     `json:"return_transactions"`
	TotalMRPValue             float64 `json:"total_mrp_value"`
	TotalSellingValue         float64 `json:"total_selling_value"`
	TotalDiscountAmount       float64 `json:"total_discount_amount"`
	AverageDiscountPercentage float64 `json:"average_discount_percentage"`
	ActiveCampaigns           int     `json:"active_campaigns"`
}

// DiscountReport distributes sales over discount bands.
type DiscountReport struct {
	Header
	Summary         DiscountSummary `json:"summary"`
	Buckets         []BucketStat    `json:"buckets"`
	ActiveCampaigns []CampaignLine  `json:"active_campaigns"`
	Details         []DiscountLine  `json:"details"`
}

// Table implements Tabular.
func (r *DiscountReport) Table() Table {
	t := Table{
		Title:   r.ReportType,
		Columns: []string{"Date", "SKU", "Product", "Size", "Units", "MRP", "Selling Price", "Discount Amount", "Discount %", "Bucket"},
	}
	for _, d := range r.Details {
		t.Rows = append(t.Rows, []any{d.TransactionDate, d.SKU, d.ProductName, d.Size, d.TotalSold, d.MRP,
			d.SellingPrice, d.DiscountAmount, d.DiscountPercent, d.DiscountBucket})
	}
	return t
}

// DiscountGeneral returns the discount distribution of sales over [start, end].
func (s *Service) DiscountGeneral(ctx context.Context, start, end time.Time) (*DiscountReport, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	return observe(ctx, s, NameDiscountGeneral, func(ctx context.Context) (*DiscountReport, error) {
		from, to := types.DateOf(start), types.DateOf(end)
		sales, err := s.store.ListSales(ctx, SaleFilter{From: &from, To: &to})
		if err != nil {
			return nil, fmt.Errorf("list sales: %w", err)
		}
		garments, err := s.garmentsOf(ctx, sales)
		if err != nil {
			return nil, err
		}
		campaigns, err := s.store.ListDiscounts(ctx, DiscountFilter{ActiveOnly: true})
		if err != nil {
			return nil, fmt.Errorf("list discounts: %w", err)
		}
		return buildDiscountGeneral(from, to, sales, garments, campaigns, s.clock()), nil
	})
}

// garmentsOf loads the garments referenced by sales.
func (s *Service) garmentsOf(ctx context.Context, sales []catalog.Sale) (garmentIndex, error) {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, sale := range sales {
		if _, ok := seen[sale.GarmentID]; !ok {
			seen[sale.GarmentID] = struct{}{}
			ids = append(ids, sale.GarmentID)
		}
	}
	if len(ids) == 0 {
		return garmentIndex{}, nil
	}
	garments, err := s.store.ListGarments(ctx, GarmentFilter{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("list garments: %w", err)
	}
	return indexGarments(garments), nil
}

func buildDiscountGeneral(
	start, end time.Time,
	sales []catalog.Sale,
	garments garmentIndex,
	campaigns []catalog.Discount,
	now time.Time,
) *DiscountReport {
	report := &DiscountReport{
		Header:          Header{ReportType: "Discount Report - General", GeneratedAt: now, Period: newPeriod(start, end)},
		Buckets:         make([]BucketStat, 0, len(DiscountBuckets)),
		ActiveCampaigns: []CampaignLine{},
		Details:         []DiscountLine{},
	}

	type bucketAgg struct {
		count    int
		units    int64
		mrpValue decimal.Decimal
		discount decimal.Decimal
	}
	buckets := make(map[string]*bucketAgg, len(DiscountBuckets))
	for _, b := range DiscountBuckets {
		buckets[b] = &bucketAgg{}
	}

	var returns int
	mrpTotal, sellingTotal, discountTotal := decimal.Zero, decimal.Zero, decimal.Zero
	for _, sale := range sales {
		priced := priceSale(sale, garments)

		b := buckets[priced.bucket]
		b.count++
		b.units += sale.Quantity
		b.mrpValue = b.mrpValue.Add(priced.mrpValue)
		b.discount = b.discount.Add(priced.discount)

		if sale.IsReturn {
			returns++
			continue
		}

		mrpTotal = mrpTotal.Add(priced.mrpValue)
		sellingTotal = sellingTotal.Add(priced.selling)
		discountTotal = discountTotal.Add(priced.discount)

		name, sku := garments.names(sale.GarmentID)
		report.Details = append(report.Details, DiscountLine{
			SaleID:          sale.ID,
			TransactionDate: types.FormatDate(sale.TransactionDate),
			GarmentID:       sale.GarmentID,
			SKU:             sku,
			ProductName:     name,
			PanelID:         sale.PanelID,
			Size:            sale.Size,
			TotalSold:       sale.Quantity,
			MRP:             types.Round2(priced.mrp),
			SellingPrice:    types.Round2(sale.UnitPrice),
			MRPValue:        types.Round2(priced.mrpValue),
			SellingValue:    types.Round2(priced.selling),
			DiscountAmount:  types.Round2(priced.discount),
			DiscountPercent: types.Round2(sale.DiscountPercentage),
			DiscountBucket:  priced.bucket,
		})
	}

	for _, name := range DiscountBuckets {
		b := buckets[name]
		report.Buckets = append(report.Buckets, BucketStat{
			Bucket:         name,
			Count:          b.count,
			Units:          b.units,
			MRPValue:       types.Round2(b.mrpValue),
			DiscountAmount: types.Round2(b.discount),
		})
	}

	for _, c := range campaigns {
		if !c.Overlaps(start, end) {
			continue
		}
		report.ActiveCampaigns = append(report.ActiveCampaigns, CampaignLine{
			ID:            c.ID,
			DiscountName:  c.DiscountName,
			DiscountType:  c.DiscountType,
			DiscountValue: types.Round2(c.DiscountValue),
			ApplicableTo:  c.ApplicableTo,
			PanelID:       c.PanelID,
			GarmentID:     c.GarmentID,
			Category:      c.Category,
			ValidFrom:     types.FormatDate(c.ValidFrom),
			ValidTo:       types.FormatDatePtr(c.ValidTo),
		})
	}

	report.Summary = DiscountSummary{
		TotalTransactions:         len(sales),
		SalesTransactions:         len(report.Details),
		ReturnTransactions:        returns,
		TotalMRPValue:             types.Round2(mrpTotal),
		TotalSellingValue:         types.Round2(sellingTotal),
		TotalDiscountAmount:       types.Round2(discountTotal),
		AverageDiscountPercentage: types.Round2(types.Percent(discountTotal, mrpTotal)),
		ActiveCampaigns:           len(report.ActiveCampaigns),
	}
	return report
}

// --- Discount by panel ---

// PanelDiscount is one panel's discounting over the period.
type PanelDiscount struct {
	PanelID             int64   `json:"panel_id"`
	PanelName           string  `json:"panel_name"`
	PanelType           string  `json:"panel_type"`
	TotalSales          int     `json:"total_sales"`
	UnitsSold           int64   `json:"units_sold"`
	TotalMRPValue       float64 `json:"total_mrp_value"`
	Revenue             float64 `json:"revenue"`
	TotalDiscountAmount float64 `json:"total_discount_amount"`
	AvgDiscount         float64 `json:"avg_discount"`
}

// PanelDiscountSummary totals the panels.
type PanelDiscountSummary struct {
	PanelCount          int     `json:"panel_count"`
	TotalSales          int     `json:"total_sales"`
	TotalMRPValue       float64 `json:"total_mrp_value"`
	TotalRevenue        float64 `json:"total_revenue"`
	TotalDiscountAmount float64 `json:"total_discount_amount"`
	AvgDiscount         float64 `json:"avg_discount"`
}

// PanelDiscountReport compares discounting across panels.
type PanelDiscountReport struct {
	Header
	Summary PanelDiscountSummary `json:"summary"`
	Panels  []PanelDiscount      `json:"panels"`
}

// Table implements Tabular.
func (r *PanelDiscountReport) Table() Table {
	t := Table{
		Title:   r.ReportType,
		Columns: []string{"Panel", "Type", "Sales", "Units", "MRP Value", "Revenue", "Discount Given", "Avg Discount %"},
	}
	for _, p := range r.Panels {
		t.Rows = append(t.Rows, []any{p.PanelName, p.PanelType, p.TotalSales, p.UnitsSold, p.TotalMRPValue,
			p.Revenue, p.TotalDiscountAmount, p.AvgDiscount})
	}
	return t
}

// DiscountByPanel returns discounting per panel over [start, end], most
// discount given first. Returns are excluded.
func (s *Service) DiscountByPanel(ctx context.Context, start, end time.Time, panelID *int64) (*PanelDiscountReport, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	return observe(ctx, s, NameDiscountByPanel, func(ctx context.Context) (*PanelDiscountReport, error) {
		panels, err := s.panelsFor(ctx, panelID)
		if err != nil {
			return nil, err
		}
		from, to := types.DateOf(start), types.DateOf(end)
		sales, err := s.store.ListSales(ctx, SaleFilter{From: &from, To: &to, PanelID: panelID, IsReturn: boolPtr(false)})
		if err != nil {
			return nil, fmt.Errorf("list sales: %w", err)
		}
		garments, err := s.garmentsOf(ctx, sales)
		if err != nil {
			return nil, err
		}
		return buildDiscountByPanel(from, to, panels, sales, garments, s.clock()), nil
	})
}

func buildDiscountByPanel(start, end time.Time, panels []catalog.Panel, sales []catalog.Sale, garments garmentIndex, now time.Time) *PanelDiscountReport {
	report := &PanelDiscountReport{
		Header: Header{ReportType: "Discount Report - By Panel", GeneratedAt: now, Period: newPeriod(start, end)},
		Panels: make([]PanelDiscount, 0, len(panels)),
	}

	type agg struct {
		count    int
		units    int64
		mrp      decimal.Decimal
		revenue  decimal.Decimal
		discount decimal.Decimal
	}
	byPanel := make(map[int64]*agg, len(panels))
	for _, p := range panels {
		byPanel[p.ID] = &agg{}
	}
	for _, sale := range sales {
		if sale.IsReturn {
			continue
		}
		a, ok := byPanel[sale.PanelID]
		if !ok {
			continue
		}
		priced := priceSale(sale, garments)
		a.count++
		a.units += sale.Quantity
		a.mrp = a.mrp.Add(priced.mrpValue)
		a.revenue = a.revenue.Add(sale.TotalAmount)
		a.discount = a.discount.Add(priced.discount)
	}

	type ranked struct {
		line     PanelDiscount
		discount decimal.Decimal
	}
	rows := make([]ranked, 0, len(panels))
	var total agg
	for _, p := range panels {
		a := byPanel[p.ID]
		total.count += a.count
		total.mrp = total.mrp.Add(a.mrp)
		total.revenue = total.revenue.Add(a.revenue)
		total.discount = total.discount.Add(a.discount)

		rows = append(rows, ranked{
			discount: a.discount,
			line: PanelDiscount{
				PanelID:             p.ID,
				PanelName:           p.PanelName,
				PanelType:           p.PanelType,
				TotalSales:          a.count,
				UnitsSold:           a.units,
				TotalMRPValue:       types.Round2(a.mrp),
				Revenue:             types.Round2(a.revenue),
				TotalDiscountAmount: types.Round2(a.discount),
				AvgDiscount:         types.Round2(types.Percent(a.discount, a.mrp)),
			},
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].discount.GreaterThan(rows[j].discount)
	})
	for _, r := range rows {
		report.Panels = append(report.Panels, r.line)
	}

	report.Summary = PanelDiscountSummary{
		PanelCount:          len(panels),
		TotalSales:          total.count,
		TotalMRPValue:       types.Round2(total.mrp),
		TotalRevenue:        types.Round2(total.revenue),
		TotalDiscountAmount: types.Round2(total.discount),
		AvgDiscount:         types.Round2(types.Percent(total.discount, total.mrp)),
	}
	return report
}
