package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/domain/catalog"
)

var testNow = time.Date(2024, 4, 1, 10, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func TestBuildFabricStock_TotalValue(t *testing.T) {
	fabrics := []catalog.Fabric{
		{ID: 1, FabricType: "JERSEY", Subtype: "A", StockQuantity: dec("100"), Unit: "kg", CostPerUnit: decPtr("5.0")},
	}

	report := buildFabricStock("Fabric Stock Sheet - Total", fabrics, testNow)
	assert.Equal(t, 500.0, report.Summary.TotalStockValue)
	assert.Equal(t, 100.0, report.Summary.TotalStockQuantity)
	assert.Equal(t, 1, report.Summary.FabricCount)
	require.Len(t, report.Fabrics, 1)
	assert.Equal(t, 500.0, report.Fabrics[0].StockValue)

	sheet := buildFabricCostSheet(fabrics, testNow)
	require.Len(t, sheet.SummaryByType, 1)
	assert.Equal(t, "JERSEY", sheet.SummaryByType[0].FabricType)
	assert.Equal(t, 500.0, sheet.SummaryByType[0].TotalValue)
}

func TestBuildFabricCostSheet_Groups(t *testing.T) {
	fabrics := []catalog.Fabric{
		{ID: 1, FabricType: "TERRY", StockQuantity: dec("10"), CostPerUnit: decPtr("2.5")},
		{ID: 2, FabricType: "JERSEY", StockQuantity: dec("20"), CostPerUnit: decPtr("1")},
		{ID: 3, FabricType: "TERRY", StockQuantity: dec("4"), CostPerUnit: nil},
	}

	sheet := buildFabricCostSheet(fabrics, testNow)
	require.Len(t, sheet.SummaryByType, 2, "no zero-filled groups")
	assert.Equal(t, FabricTypeCost{FabricType: "JERSEY", Count: 1, TotalQuantity: 20, TotalValue: 20}, sheet.SummaryByType[0])
	assert.Equal(t, FabricTypeCost{FabricType: "TERRY", Count: 2, TotalQuantity: 14, TotalValue: 25}, sheet.SummaryByType[1])
	assert.Equal(t, 45.0, sheet.Summary.TotalStockValue)
	assert.Len(t, sheet.DetailedCosts, 3)
}

func TestBuildFabricStock_Empty(t *testing.T) {
	report := buildFabricStock("Fabric Stock Sheet - Total", nil, testNow)
	assert.NotNil(t, report.Fabrics)
	assert.Empty(t, report.Fabrics)
	assert.Zero(t, report.Summary.TotalStockValue)
}

func TestBuildDailySales(t *testing.T) {
	date := day(2024, 1, 1)
	sales := []catalog.Sale{
		{ID: 1, TransactionDate: date, GarmentID: 1, PanelID: 1, Size: "M", Quantity: 10,
			UnitPrice: dec("100"), DiscountPercentage: dec("10"), TotalAmount: dec("900")},
		{ID: 2, TransactionDate: date, GarmentID: 1, PanelID: 1, Size: "M", Quantity: 2,
			UnitPrice: dec("100"), DiscountPercentage: dec("10"), TotalAmount: dec("180"), IsReturn: true},
	}

	report := buildDailySales(date, sales, testNow)
	s := report.Summary
	assert.Equal(t, int64(10), s.TotalUnitsSold)
	assert.Equal(t, int64(2), s.TotalUnitsReturned)
	assert.Equal(t, int64(8), s.NetUnits)
	assert.Equal(t, 900.0, s.TotalSalesValue)
	assert.Equal(t, 180.0, s.TotalReturnsValue)
	assert.Equal(t, 720.0, s.NetSalesValue)
	assert.Equal(t, s.TotalSalesValue-s.TotalReturnsValue, s.NetSalesValue)

	assert.Equal(t, s.TotalSalesTransactions, len(report.ActualSales))
	assert.Equal(t, s.TotalReturns, len(report.Returns))
	assert.Equal(t, s.TotalTransactions, len(report.ActualSales)+len(report.Returns))
	assert.Equal(t, "2024-01-01", report.ReportDate)
}

func TestBuildDailySKUSales(t *testing.T) {
	date := day(2024, 1, 1)
	garment := &catalog.Garment{ID: 1, StyleSKU: "TS-01", Name: "Tee", Category: "Tops", Sizes: []string{"S", "M", "L"}}
	sales := []catalog.Sale{
		{ID: 1, GarmentID: 1, Size: "L", Quantity: 3, TotalAmount: dec("300")},
		{ID: 2, GarmentID: 1, Size: "M", Quantity: 5, TotalAmount: dec("500")},
		{ID: 3, GarmentID: 1, Size: "M", Quantity: 1, TotalAmount: dec("100"), IsReturn: true},
		{ID: 4, GarmentID: 1, Size: "XXL", Quantity: 1, TotalAmount: dec("120")},
	}

	report := buildDailySKUSales(date, 1, garment, sales, testNow)
	require.NotNil(t, report.Garment)
	assert.Equal(t, "TS-01", report.StyleSKU)
	require.Len(t, report.SizeBreakdown, 3)
	assert.Equal(t, []string{"M", "L", "XXL"}, []string{
		report.SizeBreakdown[0].Size, report.SizeBreakdown[1].Size, report.SizeBreakdown[2].Size,
	})
	assert.Equal(t, SizeSales{Size: "M", QuantitySold: 5, QuantityReturned: 1, NetQuantity: 4,
		SalesValue: 500, ReturnsValue: 100, NetValue: 400}, report.SizeBreakdown[0])
	assert.Equal(t, int64(9), report.Summary.TotalQuantitySold)
	assert.Equal(t, 820.0, report.Summary.NetSalesValue)

	missing := buildDailySKUSales(date, 99, nil, nil, testNow)
	assert.Nil(t, missing.Garment)
	assert.Equal(t, "Unknown", missing.GarmentName)
	assert.Equal(t, "Unknown", missing.StyleSKU)
	assert.Empty(t, missing.SizeBreakdown)
}

func TestBuildPanelWiseSales(t *testing.T) {
	panels := []catalog.Panel{
		{ID: 1, PanelName: "Myntra", PanelType: "MARKETPLACE", IsActive: true},
		{ID: 2, PanelName: "Store", PanelType: "RETAIL", IsActive: true},
	}
	sales := []catalog.Sale{
		{ID: 1, PanelID: 1, Quantity: 3, TotalAmount: dec("300")},
		{ID: 2, PanelID: 1, Quantity: 1, TotalAmount: dec("100"), IsReturn: true},
		{ID: 3, PanelID: 9, Quantity: 1, TotalAmount: dec("999")},
	}

	report := buildPanelWiseSales(day(2024, 1, 1), day(2024, 1, 31), panels, sales, testNow)
	require.Len(t, report.Panels, 2)
	assert.Equal(t, 200.0, report.Panels[0].NetSalesValue)
	assert.Equal(t, PanelSales{PanelID: 2, PanelName: "Store", PanelType: "RETAIL", IsActive: true}, report.Panels[1],
		"panels without sales appear zero-filled")

	assert.Equal(t, 2, report.Summary.PanelCount)
	assert.Equal(t, 300.0, report.Summary.TotalSalesValue)
	assert.Equal(t, 200.0, report.Summary.NetSalesValue)
	require.NotNil(t, report.Period)
	assert.Equal(t, "2024-01-01", *report.Period.StartDate)
}

func TestBuildInactivePanels(t *testing.T) {
	panels := []catalog.Panel{
		{ID: 1, PanelName: "Recent"},
		{ID: 2, PanelName: "Stale"},
		{ID: 3, PanelName: "Never"},
		{ID: 4, PanelName: "Boundary"},
	}
	last := map[int64]time.Time{
		1: day(2024, 3, 25),
		2: day(2024, 2, 1),
		4: day(2024, 3, 2),
	}

	report := buildInactivePanels(30, panels, last, testNow)
	require.Len(t, report.InactivePanels, 2)

	stale := report.InactivePanels[0]
	assert.Equal(t, int64(2), stale.ID)
	require.NotNil(t, stale.DaysSinceLastSale)
	assert.Equal(t, 60, *stale.DaysSinceLastSale)
	assert.Equal(t, "2024-02-01", *stale.LastSaleDate)

	never := report.InactivePanels[1]
	assert.Equal(t, int64(3), never.ID)
	assert.Nil(t, never.LastSaleDate)
	assert.Nil(t, never.DaysSinceLastSale)

	assert.Equal(t, 2, report.Summary.InactivePanelsCount)
	assert.Equal(t, 1, report.Summary.NeverSoldCount)
	assert.Equal(t, "No sales in last 30 days", report.Criteria)
}

func TestBuildFastMoving(t *testing.T) {
	in := &velocityInput{
		inventory: []catalog.Inventory{
			{GarmentID: 1, Size: "M", GoodStock: 50},
			{GarmentID: 1, Size: "L", GoodStock: 500},
			{GarmentID: 2, Size: "S", GoodStock: 5},
			{GarmentID: 3, Size: "S", GoodStock: 5},
		},
		sold: map[catalog.SKUSize]int64{
			{GarmentID: 1, Size: "M"}: 200,
			{GarmentID: 1, Size: "L"}: 450,
			{GarmentID: 2, Size: "S"}: 90,
			{GarmentID: 3, Size: "S"}: 91,
		},
		garments: indexGarments([]catalog.Garment{{ID: 1, Name: "Tee", StyleSKU: "TS-01"}}),
	}

	report := buildFastMoving(90, DefaultSettings(), in, testNow)
	require.Len(t, report.Items, 3, "exactly 1.0 units/day is not fast")

	assert.Equal(t, "L", report.Items[0].Size)
	assert.Equal(t, 5.0, report.Items[0].TurnoverRate)
	assert.False(t, report.Items[0].NeedsReorder)
	assert.Zero(t, report.Items[0].RecommendedOrderQuantity)

	m := report.Items[1]
	assert.Equal(t, "M", m.Size)
	assert.Equal(t, 2.222, m.TurnoverRate)
	assert.Equal(t, 22.5, m.DaysOfStockRemaining)
	assert.True(t, m.NeedsReorder)
	assert.Equal(t, int64(133), m.RecommendedOrderQuantity)
	assert.Equal(t, "Tee", m.GarmentName)

	assert.Equal(t, "Unknown", report.Items[2].GarmentName)

	for i := 1; i < len(report.Items); i++ {
		assert.GreaterOrEqual(t, report.Items[i-1].TurnoverRate, report.Items[i].TurnoverRate)
	}
	assert.Equal(t, 3, report.Summary.FastMovingCount)
	assert.Equal(t, 2, report.Summary.ItemsNeedingReorder)
}

func TestBuildFastMoving_TiesKeepInputOrder(t *testing.T) {
	in := &velocityInput{
		inventory: []catalog.Inventory{
			{GarmentID: 3, Size: "S", GoodStock: 10},
			{GarmentID: 1, Size: "M", GoodStock: 10},
			{GarmentID: 2, Size: "L", GoodStock: 10},
			{GarmentID: 4, Size: "XL", GoodStock: 10},
		},
		sold: map[catalog.SKUSize]int64{
			{GarmentID: 3, Size: "S"}:  180,
			{GarmentID: 1, Size: "M"}:  180,
			{GarmentID: 2, Size: "L"}:  180,
			{GarmentID: 4, Size: "XL"}: 270,
		},
		garments: indexGarments(nil),
	}

	report := buildFastMoving(90, DefaultSettings(), in, testNow)
	ids := make([]int64, 0, len(report.Items))
	for _, it := range report.Items {
		ids = append(ids, it.GarmentID)
	}
	assert.Equal(t, []int64{4, 3, 1, 2}, ids, "equal turnover keeps inventory order")
}

func TestBuildSlowMoving(t *testing.T) {
	in := &velocityInput{
		inventory: []catalog.Inventory{
			{GarmentID: 1, Size: "M", GoodStock: 40},
			{GarmentID: 1, Size: "L", GoodStock: 40},
			{GarmentID: 1, Size: "S", GoodStock: 10},
			{GarmentID: 1, Size: "XL", GoodStock: 40},
		},
		sold: map[catalog.SKUSize]int64{
			{GarmentID: 1, Size: "L"}: 4,
			{GarmentID: 1, Size: "XL"}: 9,
		},
		garments: garmentIndex{},
	}

	report := buildSlowMoving(90, DefaultSettings(), in, testNow)
	require.Len(t, report.Items, 2)

	notSelling := report.Items[0]
	assert.Equal(t, "M", notSelling.Size)
	assert.Zero(t, notSelling.TurnoverRate)
	assert.Nil(t, notSelling.DaysOfStock, "unbounded days of stock is null")

	slow := report.Items[1]
	assert.Equal(t, "L", slow.Size)
	assert.Equal(t, 0.044, slow.TurnoverRate)
	require.NotNil(t, slow.DaysOfStock)
	assert.Equal(t, 900.0, *slow.DaysOfStock)

	assert.Equal(t, 1, report.Summary.NotSellingCount)
	assert.Equal(t, int64(80), report.Summary.TotalStuckStock)
	assert.Equal(t, report.Summary.SlowMovingCount, len(report.Items))
	assert.Equal(t, "2024-01-02", *report.Period.StartDate)
}

func TestBuildPlanStatus(t *testing.T) {
	plans := []catalog.ProductionPlan{
		{ID: 1, PlanName: "Tees", GarmentID: 1, PlannedQuantity: 1000, TargetDate: day(2024, 5, 1), Status: catalog.PlanInProgress},
		{ID: 2, PlanName: "Zero", GarmentID: 2, PlannedQuantity: 0, TargetDate: day(2024, 5, 1), Status: catalog.PlanPlanned},
	}
	activities := []catalog.ProductionActivity{
		{ID: 1, ProductionPlanID: 1, ActivityType: catalog.ActivityCutting, Quantity: 250},
		{ID: 2, ProductionPlanID: 1, ActivityType: catalog.ActivityStitching, Quantity: 100},
	}

	report, err := buildPlanStatus(nil, nil, plans, activities,
		indexGarments([]catalog.Garment{{ID: 1, StyleSKU: "TS-01", Name: "Tee"}}), testNow)
	require.NoError(t, err)

	require.Len(t, report.PlansByStatus.InProgress, 1)
	line := report.PlansByStatus.InProgress[0]
	assert.Equal(t, 25.0, line.CompletionPercentage)
	assert.Equal(t, int64(250), line.ActualQuantity)
	assert.Equal(t, 2, line.ActivitiesCount)
	assert.Equal(t, "TS-01", line.GarmentSKU)

	require.Len(t, report.PlansByStatus.Planned, 1)
	assert.Zero(t, report.PlansByStatus.Planned[0].CompletionPercentage)
	assert.Equal(t, "Unknown", report.PlansByStatus.Planned[0].GarmentName)
	assert.Empty(t, report.PlansByStatus.Completed)

	assert.Equal(t, 2, report.Summary.TotalPlans)
	assert.Equal(t, report.Summary.TotalPlans,
		report.Summary.Planned+report.Summary.InProgress+report.Summary.Completed)
	assert.Nil(t, report.Period.StartDate)
}

func TestBuildPlanStatus_UnknownStatus(t *testing.T) {
	plans := []catalog.ProductionPlan{{ID: 7, Status: catalog.PlanStatus("ON_HOLD")}}

	_, err := buildPlanStatus(nil, nil, plans, nil, garmentIndex{}, testNow)
	require.Error(t, err)
	assert.True(t, apperror.IsDataIntegrity(err))
}

func TestBuildVariance(t *testing.T) {
	activities := []catalog.ProductionActivity{
		{ID: 1, ProductionPlanID: 1, ActivityType: catalog.ActivityCutting, Quantity: 10,
			GrossWeightCalculated: decPtr("100"), GrossWeightActual: decPtr("95")},
		{ID: 2, ProductionPlanID: 1, ActivityType: catalog.ActivityCutting, GrossWeightCalculated: decPtr("50")},
		{ID: 3, ProductionPlanID: 2, ActivityType: catalog.ActivityFinishing,
			GrossWeightCalculated: decPtr("0"), GrossWeightActual: decPtr("1.5"), Notes: strPtr("tare missing")},
	}
	plans := []catalog.ProductionPlan{{ID: 1, PlanName: "Tees"}}

	report := buildVariance(day(2024, 3, 1), activities, plans, testNow)
	require.Len(t, report.VarianceDetails, 2)

	first := report.VarianceDetails[0]
	assert.Equal(t, -5.0, first.Variance)
	assert.Equal(t, -5.0, first.VariancePercentage)
	assert.Equal(t, "Tees", first.ProductionPlan)

	second := report.VarianceDetails[1]
	assert.Equal(t, 1.5, second.Variance)
	assert.Zero(t, second.VariancePercentage, "zero calculated weight guards the percentage")
	assert.Equal(t, "Unknown", second.ProductionPlan)

	assert.Equal(t, 3, report.Summary.TotalActivities)
	assert.Equal(t, 2, report.Summary.ActivitiesWithVarianceData)
	assert.Equal(t, 6.5, report.Summary.TotalAbsoluteVariance)
	assert.Equal(t, 3.25, report.Summary.AverageVariance)

	empty := buildVariance(day(2024, 3, 1), nil, nil, testNow)
	assert.Zero(t, empty.Summary.AverageVariance)
}

func TestBuildYarnForecast(t *testing.T) {
	yarns := []catalog.Yarn{
		{ID: 1, YarnType: "Cotton", StockQuantity: dec("5")},
		{ID: 2, YarnType: "Poly", StockQuantity: dec("10")},
		{ID: 3, YarnType: "Viscose", StockQuantity: dec("500")},
		{ID: 4, YarnType: "Modal", StockQuantity: dec("100"), UnitPrice: decPtr("2")},
		{ID: 5, YarnType: "Linen", StockQuantity: dec("2")},
	}

	report := buildYarnForecast(yarns, dec("20"), 30, dec("5"), testNow)
	require.Len(t, report.Recommendations, 4)

	ids := make([]int64, 0, 4)
	for _, r := range report.Recommendations {
		ids = append(ids, r.YarnID)
	}
	assert.Equal(t, []int64{5, 1, 2, 4}, ids, "priority first, then shortage descending")

	high := report.Recommendations[1]
	assert.Equal(t, PriorityHigh, high.Priority)
	assert.Equal(t, 150.0, high.ForecastedDemand)
	assert.Equal(t, 165.0, high.Shortage)
	assert.Equal(t, 165.0, high.RecommendedOrderQuantity)

	assert.Equal(t, PriorityMedium, report.Recommendations[2].Priority)

	low := report.Recommendations[3]
	assert.Equal(t, PriorityLow, low.Priority)
	assert.Equal(t, 70.0, low.Shortage)
	assert.Equal(t, 140.0, low.EstimatedOrderValue)
	require.NotNil(t, low.DaysUntilStockout)
	assert.Equal(t, 20.0, *low.DaysUntilStockout)

	assert.Equal(t, 5, report.Summary.YarnsEvaluated)
	assert.Equal(t, 2, report.Summary.HighPriority)
}

func TestBuildYarnForecast_TiesKeepInputOrder(t *testing.T) {
	yarns := []catalog.Yarn{
		{ID: 7, StockQuantity: dec("5")},
		{ID: 3, StockQuantity: dec("5")},
		{ID: 1, StockQuantity: dec("2")},
		{ID: 9, StockQuantity: dec("5")},
	}

	report := buildYarnForecast(yarns, dec("20"), 30, dec("1"), testNow)
	ids := make([]int64, 0, len(report.Recommendations))
	for _, r := range report.Recommendations {
		assert.Equal(t, PriorityHigh, r.Priority)
		ids = append(ids, r.YarnID)
	}
	assert.Equal(t, []int64{1, 7, 3, 9}, ids, "equal shortage within a tier keeps yarn order")
}

func TestBuildYarnForecast_NoConsumption(t *testing.T) {
	yarns := []catalog.Yarn{
		{ID: 1, StockQuantity: dec("5")},
		{ID: 2, StockQuantity: dec("100")},
	}

	report := buildYarnForecast(yarns, dec("20"), 30, dec("0"), testNow)
	require.Len(t, report.Recommendations, 1, "stock above threshold with no demand needs nothing")
	assert.Equal(t, 15.0, report.Recommendations[0].RecommendedOrderQuantity)
	assert.Nil(t, report.Recommendations[0].DaysUntilStockout)
}

func discountFixture() ([]catalog.Sale, garmentIndex) {
	garments := indexGarments([]catalog.Garment{{ID: 1, StyleSKU: "TS-01", Name: "Tee", MRP: dec("100")}})
	sales := []catalog.Sale{
		{ID: 1, PanelID: 1, GarmentID: 1, Quantity: 2, UnitPrice: dec("90"), DiscountPercentage: dec("10"), TotalAmount: dec("180")},
		{ID: 2, PanelID: 1, GarmentID: 1, Quantity: 1, UnitPrice: dec("50"), DiscountPercentage: dec("50"), TotalAmount: dec("50")},
		{ID: 3, PanelID: 1, GarmentID: 1, Quantity: 1, UnitPrice: dec("95"), DiscountPercentage: dec("5"), TotalAmount: dec("95"), IsReturn: true},
		{ID: 4, PanelID: 2, GarmentID: 1, Quantity: 1, UnitPrice: dec("65"), DiscountPercentage: dec("35"), TotalAmount: dec("65")},
	}
	return sales, garments
}

func TestBuildDiscountGeneral(t *testing.T) {
	sales, garments := discountFixture()
	to := day(2024, 1, 15)
	campaigns := []catalog.Discount{
		{ID: 1, DiscountName: "New Year", IsActive: true, ValidFrom: day(2023, 12, 25), ValidTo: &to},
		{ID: 2, DiscountName: "Old", IsActive: true, ValidFrom: day(2023, 1, 1), ValidTo: ptrTime(day(2023, 2, 1))},
	}

	report := buildDiscountGeneral(day(2024, 1, 1), day(2024, 1, 31), sales, garments, campaigns, testNow)

	var bucketTotal int
	for _, b := range report.Buckets {
		bucketTotal += b.Count
	}
	assert.Equal(t, report.Summary.TotalTransactions, bucketTotal, "returns are counted in buckets")
	assert.Equal(t, 4, report.Summary.TotalTransactions)
	assert.Equal(t, 3, report.Summary.SalesTransactions)
	assert.Len(t, report.Details, 3, "returns are excluded from details")
	assert.Equal(t, 1, report.Summary.ReturnTransactions)

	require.Len(t, report.Buckets, 5)
	assert.Equal(t, BucketStat{Bucket: Bucket0to10, Count: 1, Units: 1, MRPValue: 100, DiscountAmount: 5}, report.Buckets[0])
	assert.Equal(t, 1, report.Buckets[1].Count)
	assert.Equal(t, 0, report.Buckets[2].Count)

	assert.Equal(t, 400.0, report.Summary.TotalMRPValue)
	assert.Equal(t, 105.0, report.Summary.TotalDiscountAmount)
	assert.Equal(t, 26.25, report.Summary.AverageDiscountPercentage)

	require.Len(t, report.ActiveCampaigns, 1)
	assert.Equal(t, "New Year", report.ActiveCampaigns[0].DiscountName)
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestBuildDiscountByPanel(t *testing.T) {
	sales, garments := discountFixture()
	panels := []catalog.Panel{{ID: 2, PanelName: "Store"}, {ID: 1, PanelName: "Myntra"}, {ID: 3, PanelName: "Idle"}}

	report := buildDiscountByPanel(day(2024, 1, 1), day(2024, 1, 31), panels, sales, garments, testNow)
	require.Len(t, report.Panels, 3)

	first := report.Panels[0]
	assert.Equal(t, "Myntra", first.PanelName)
	assert.Equal(t, 2, first.TotalSales, "returns are excluded")
	assert.Equal(t, 70.0, first.TotalDiscountAmount)
	assert.Equal(t, 23.33, first.AvgDiscount)

	assert.Equal(t, "Store", report.Panels[1].PanelName)
	assert.Equal(t, 35.0, report.Panels[1].AvgDiscount)

	assert.Zero(t, report.Panels[2].AvgDiscount, "zero MRP total guards the average")
	assert.Equal(t, 105.0, report.Summary.TotalDiscountAmount)
}

func TestBuildDiscountByPanel_TiesKeepInputOrder(t *testing.T) {
	garments := indexGarments([]catalog.Garment{{ID: 1, StyleSKU: "TS-01", MRP: dec("100")}})
	panels := []catalog.Panel{{ID: 3, PanelName: "C"}, {ID: 1, PanelName: "A"}, {ID: 2, PanelName: "B"}, {ID: 4, PanelName: "D"}}
	var sales []catalog.Sale
	for _, p := range panels {
		qty, total := int64(1), dec("80")
		if p.ID == 4 {
			qty, total = 2, dec("160")
		}
		sales = append(sales, catalog.Sale{PanelID: p.ID, GarmentID: 1, Quantity: qty, UnitPrice: dec("80"),
			DiscountPercentage: dec("20"), TotalAmount: total})
	}

	report := buildDiscountByPanel(day(2024, 1, 1), day(2024, 1, 31), panels, sales, garments, testNow)
	names := make([]string, 0, len(report.Panels))
	for _, p := range report.Panels {
		names = append(names, p.PanelName)
	}
	assert.Equal(t, []string{"D", "C", "A", "B"}, names, "equal discount keeps panel order")
	assert.Equal(t, report.Panels[1].TotalDiscountAmount, report.Panels[3].TotalDiscountAmount)
}

func TestBuildSettlement(t *testing.T) {
	panels := []catalog.Panel{{ID: 1, PanelName: "Myntra"}, {ID: 2, PanelName: "Ajio"}, {ID: 3, PanelName: "Idle"}}
	sales := []catalog.Sale{
		{PanelID: 1, Quantity: 10, TotalAmount: dec("1000")},
		{PanelID: 1, Quantity: 2, TotalAmount: dec("200"), IsReturn: true},
		{PanelID: 2, Quantity: 20, TotalAmount: dec("2000")},
	}
	cfg := DefaultSettings()
	cfg.PanelRates = map[int64]PanelRates{2: {CommissionRate: dec("0.2"), LogisticsRate: dec("0")}}

	report := buildSettlement(day(2024, 1, 1), day(2024, 1, 31), panels, sales, cfg, testNow)
	require.Len(t, report.Panels, 3)

	ajio := report.Panels[0]
	assert.Equal(t, "Ajio", ajio.PanelName)
	assert.Equal(t, 400.0, ajio.Commission)
	assert.Zero(t, ajio.LogisticsCost)
	assert.Equal(t, 1600.0, ajio.NetPayable)

	myntra := report.Panels[1]
	assert.Equal(t, 800.0, myntra.NetSalesValue)
	assert.Equal(t, myntra.GrossRevenue-myntra.ReturnsValue, myntra.NetSalesValue)
	assert.Equal(t, 80.0, myntra.Commission)
	assert.Equal(t, 40.0, myntra.LogisticsCost)
	assert.Zero(t, myntra.OtherDeductions)
	assert.Equal(t, 680.0, myntra.NetPayable)
	assert.Equal(t, 0.1, myntra.CommissionRate)

	assert.Zero(t, report.Panels[2].NetPayable)
	assert.Equal(t, 2280.0, report.Summary.TotalNetPayable)
}

func TestBuildSettlement_TiesKeepInputOrder(t *testing.T) {
	panels := []catalog.Panel{{ID: 3, PanelName: "C"}, {ID: 1, PanelName: "A"}, {ID: 2, PanelName: "B"}, {ID: 4, PanelName: "D"}}
	sales := []catalog.Sale{
		{PanelID: 1, Quantity: 5, TotalAmount: dec("500")},
		{PanelID: 2, Quantity: 5, TotalAmount: dec("500")},
		{PanelID: 3, Quantity: 5, TotalAmount: dec("500")},
		{PanelID: 4, Quantity: 9, TotalAmount: dec("900")},
	}

	report := buildSettlement(day(2024, 1, 1), day(2024, 1, 31), panels, sales, DefaultSettings(), testNow)
	names := make([]string, 0, len(report.Panels))
	for _, p := range report.Panels {
		names = append(names, p.PanelName)
	}
	assert.Equal(t, []string{"D", "C", "A", "B"}, names, "equal net sales keep panel order")
}

func TestBuildBundleSales(t *testing.T) {
	yes, no := true, false
	garments := []catalog.Garment{
		{ID: 1, StyleSKU: "CMB-1", Name: "Summer Combo", Category: "Tops"},
		{ID: 2, StyleSKU: "BSC-2", Name: "Basic", Category: "Tops", IsBundle: &yes},
		{ID: 3, StyleSKU: "GFT-3", Name: "Gift Set", Category: "Tops", IsBundle: &no},
		{ID: 4, StyleSKU: "TEE-4", Name: "Tee", Category: "Tops"},
	}
	sales := []catalog.Sale{
		{GarmentID: 1, Size: "M", Quantity: 3, TotalAmount: dec("300")},
		{GarmentID: 1, Size: "L", Quantity: 1, TotalAmount: dec("100"), IsReturn: true},
		{GarmentID: 2, Size: "S", Quantity: 2, TotalAmount: dec("500")},
		{GarmentID: 3, Size: "S", Quantity: 9, TotalAmount: dec("900")},
		{GarmentID: 4, Size: "S", Quantity: 9, TotalAmount: dec("900")},
	}

	report := buildBundleSales(day(2024, 1, 1), day(2024, 1, 31), garments, sales, testNow)
	require.Len(t, report.Bundles, 2)

	assert.Equal(t, "BSC-2", report.Bundles[0].BundleSKU)
	assert.Equal(t, ClassifiedByFlag, report.Bundles[0].ClassifiedBy)
	assert.Equal(t, 500.0, report.Bundles[0].TotalRevenue)

	combo := report.Bundles[1]
	assert.Equal(t, ClassifiedByHeuristic, combo.ClassifiedBy)
	assert.Equal(t, int64(2), combo.TotalQuantity)
	assert.Equal(t, 200.0, combo.TotalRevenue)
	assert.Equal(t, map[string]int64{"M": 3, "L": -1}, combo.SizeBreakdown)

	assert.Equal(t, 2, report.Summary.BundleGarments)
	assert.Equal(t, 700.0, report.Summary.TotalRevenue)
}

func TestBuildAdROI(t *testing.T) {
	panels := []catalog.Panel{{ID: 1, PanelName: "Myntra"}}
	impressions, clicks := int64(1000), int64(50)
	ads := []catalog.PaidAd{
		{PanelID: 1, Platform: "META", CampaignName: "A", DailySpend: dec("50")},
		{PanelID: 1, Platform: "GOOGLE", CampaignName: "B", DailySpend: dec("100"), RevenueGenerated: decPtr("300"),
			Impressions: &impressions, Clicks: &clicks},
		{PanelID: 1, Platform: "GOOGLE", CampaignName: "B", DailySpend: dec("100"), RevenueGenerated: decPtr("200")},
		{PanelID: 4, Platform: "GOOGLE", CampaignName: "C", DailySpend: dec("0")},
	}

	report := buildAdROI(day(2024, 1, 1), day(2024, 1, 31), panels, ads, testNow)
	require.Len(t, report.Details, 3)

	google := report.Details[0]
	assert.Equal(t, "GOOGLE", google.Platform)
	assert.Equal(t, 1, google.Campaigns)
	assert.Equal(t, 150.0, google.ROIPercentage)
	assert.Equal(t, 5.0, google.ClickThroughRate)

	assert.Equal(t, -100.0, report.Details[1].ROIPercentage)
	assert.Zero(t, report.Details[2].ROIPercentage, "zero spend guards ROI")
	assert.Equal(t, "Unknown", report.Details[2].PanelName)

	assert.Equal(t, 250.0, report.Summary.TotalSpend)
	assert.Equal(t, 100.0, report.Summary.ROIPercentage)
}

func TestTables(t *testing.T) {
	sales, garments := discountFixture()
	reports := []Tabular{
		buildFabricStock("Fabric", []catalog.Fabric{{ID: 1}}, testNow),
		buildDailySales(day(2024, 1, 1), sales, testNow),
		buildDiscountGeneral(day(2024, 1, 1), day(2024, 1, 31), sales, garments, nil, testNow),
	}
	for _, r := range reports {
		table := r.Table()
		assert.NotEmpty(t, table.Title)
		for _, row := range table.Rows {
			assert.Len(t, row, len(table.Columns))
		}
	}
}
