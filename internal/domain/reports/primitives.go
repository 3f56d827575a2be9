package reports

import (
	"github.com/shopspring/decimal"

	"anthrilo/internal/core/types"
	"anthrilo/internal/domain/catalog"
)

// Placeholder used when a referenced entity is missing.
const unknown = "Unknown"

// Discount bands over the stored discount percentage. Lower bound inclusive.
const (
	Bucket0to10  = "0-10%"
	Bucket10to20 = "10-20%"
	Bucket20to30 = "20-30%"
	Bucket30to40 = "30-40%"
	Bucket40Plus = "40%+"
)

// DiscountBuckets lists the bands in ascending order.
var DiscountBuckets = []string{Bucket0to10, Bucket10to20, Bucket20to30, Bucket30to40, Bucket40Plus}

var (
	ten    = decimal.NewFromInt(10)
	twenty = decimal.NewFromInt(20)
	thirty = decimal.NewFromInt(30)
	forty  = decimal.NewFromInt(40)
)

// StockValue is quantity times unit cost. A missing cost counts as zero.
func StockValue(quantity decimal.Decimal, unitCost *decimal.Decimal) decimal.Decimal {
	return quantity.Mul(types.OrZero(unitCost))
}

// TurnoverRate is units sold per day over a window. Zero when nothing sold or
// the window is empty.
func TurnoverRate(unitsSold int64, windowDays int) decimal.Decimal {
	if unitsSold <= 0 || windowDays <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(unitsSold).Div(decimal.NewFromInt(int64(windowDays)))
}

// DaysOfStock is how long stock lasts at the given turnover rate.
// Nil means unbounded: the item does not sell.
func DaysOfStock(stock int64, rate decimal.Decimal) *decimal.Decimal {
	if !rate.IsPositive() {
		return nil
	}
	d := decimal.NewFromInt(stock).Div(rate)
	return &d
}

// Variance is actual minus calculated.
func Variance(actual, calculated decimal.Decimal) decimal.Decimal {
	return actual.Sub(calculated)
}

// VariancePercent is variance relative to calculated, zero when calculated is not positive.
func VariancePercent(variance, calculated decimal.Decimal) decimal.Decimal {
	return types.Percent(variance, calculated)
}

// MRPValue is the list-price value of a sale line.
func MRPValue(mrp decimal.Decimal, quantity int64) decimal.Decimal {
	return mrp.Mul(decimal.NewFromInt(quantity))
}

// SellingValue is the unit price value of a sale line.
func SellingValue(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity))
}

// DiscountAmount is MRP value minus selling value.
func DiscountAmount(mrp, unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return MRPValue(mrp, quantity).Sub(SellingValue(unitPrice, quantity))
}

// DiscountBucket classifies a stored discount percentage into its band.
// Negative percentages fall into the lowest band.
func DiscountBucket(pct decimal.Decimal) string {
	switch {
	case pct.LessThan(ten):
		return Bucket0to10
	case pct.LessThan(twenty):
		return Bucket10to20
	case pct.LessThan(thirty):
		return Bucket20to30
	case pct.LessThan(forty):
		return Bucket30to40
	default:
		return Bucket40Plus
	}
}

// salesTally partitions sale lines into sales and returns.
type salesTally struct {
	transactions  int
	sales         int
	returns       int
	unitsSold     int64
	unitsReturned int64
	salesValue    decimal.Decimal
	returnsValue  decimal.Decimal
}

func (t *salesTally) add(s catalog.Sale) {
	t.transactions++
	if s.IsReturn {
		t.returns++
		t.unitsReturned += s.Quantity
		t.returnsValue = t.returnsValue.Add(s.TotalAmount)
		return
	}
	t.sales++
	t.unitsSold += s.Quantity
	t.salesValue = t.salesValue.Add(s.TotalAmount)
}

func (t salesTally) netUnits() int64 {
	return t.unitsSold - t.unitsReturned
}

func (t salesTally) netValue() decimal.Decimal {
	return t.salesValue.Sub(t.returnsValue)
}

// garmentIndex maps garment IDs to garments.
type garmentIndex map[int64]*catalog.Garment

func indexGarments(garments []catalog.Garment) garmentIndex {
	idx := make(garmentIndex, len(garments))
	for i := range garments {
		idx[garments[i].ID] = &garments[i]
	}
	return idx
}

// names returns the garment's name and style SKU, or placeholders when absent.
func (idx garmentIndex) names(id int64) (name, sku string) {
	if g, ok := idx[id]; ok {
		return g.Name, g.StyleSKU
	}
	return unknown, unknown
}

func panelIndex(panels []catalog.Panel) map[int64]*catalog.Panel {
	idx := make(map[int64]*catalog.Panel, len(panels))
	for i := range panels {
		idx[panels[i].ID] = &panels[i]
	}
	return idx
}

func boolPtr(b bool) *bool { return &b }
