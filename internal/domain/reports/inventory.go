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

// velocityInput is what both velocity reports read from the store.
type velocityInput struct {
	inventory []catalog.Inventory
	sold      map[catalog.SKUSize]int64
	garments  garmentIndex
}

func (s *Service) loadVelocity(ctx context.Context, since time.Time) (*velocityInput, error) {
	inventory, err := s.store.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	sold, err := s.store.SumSoldQuantity(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("sum sold quantity: %w", err)
	}

	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for _, inv := range inventory {
		if _, ok := seen[inv.GarmentID]; !ok {
			seen[inv.GarmentID] = struct{}{}
			ids = append(ids, inv.GarmentID)
		}
	}
	var garments []catalog.Garment
	if len(ids) > 0 {
		garments, err = s.store.ListGarments(ctx, GarmentFilter{IDs: ids})
		if err != nil {
			return nil, fmt.Errorf("list garments: %w", err)
		}
	}

	return &velocityInput{inventory: inventory, sold: sold, garments: indexGarments(garments)}, nil
}

func velocityWindow(now time.Time, daysPeriod int) (start, end time.Time) {
	end = types.DateOf(now)
	return end.AddDate(0, 0, -daysPeriod), end
}

func validateDaysPeriod(daysPeriod int) error {
	if daysPeriod <= 0 {
		return apperror.NewValidation("days_period must be positive").
			WithDetail("days_period", daysPeriod)
	}
	return nil
}

// --- Slow moving ---

// SlowMovingItem is a (garment, size) that barely sells while holding stock.
type SlowMovingItem struct {
	GarmentID     int64   `json:"garment_id"`
	GarmentName   string  `json:"garment_name"`
	StyleSKU      string  `json:"style_sku"`
	Size          string  `json:"size"`
	GoodStock     int64   `json:"good_stock"`
	VirtualStock  int64   `json:"virtual_stock"`
	SalesInPeriod int64   `json:"sales_in_period"`
	TurnoverRate  float64 `json:"turnover_rate_per_day"`

	// DaysOfStock is null when the item did not sell at all.
	DaysOfStock *float64 `json:"days_of_stock"`
}

// SlowMovingSummary totals the slow movers.
type SlowMovingSummary struct {
	ItemsEvaluated  int   `json:"items_evaluated"`
	SlowMovingCount int   `json:"slow_moving_items_count"`
	NotSellingCount int   `json:"not_selling_count"`
	TotalStuckStock int64 `json:"total_stuck_stock"`
}

// SlowMovingReport lists inventory with low turnover and material stock.
type SlowMovingReport struct {
	Header
	PeriodDays int               `json:"period_days"`
	Criteria   string            `json:"criteria"`
	Summary    SlowMovingSummary `json:"summary"`
	Items      []SlowMovingItem  `json:"slow_moving_items"`
}

// Table implements Tabular.
func (r *SlowMovingReport) Table() Table {
	t := Table{
		Title:   r.ReportType,
		Columns: []string{"SKU", "Garment", "Size", "Good Stock", "Virtual Stock", "Sold", "Turnover/Day", "Days of Stock"},
	}
	for _, it := range r.Items {
		var days any = "unbounded"
		if it.DaysOfStock != nil {
			days = *it.DaysOfStock
		}
		t.Rows = append(t.Rows, []any{it.StyleSKU, it.GarmentName, it.Size, it.GoodStock, it.VirtualStock,
			it.SalesInPeriod, it.TurnoverRate, days})
	}
	return t
}

// SlowMoving returns inventory rows selling slower than the configured rate.
func (s *Service) SlowMoving(ctx context.Context, daysPeriod int) (*SlowMovingReport, error) {
	if err := validateDaysPeriod(daysPeriod); err != nil {
		return nil, err
	}

	return observe(ctx, s, NameSlowMoving, func(ctx context.Context) (*SlowMovingReport, error) {
		now := s.clock()
		start, _ := velocityWindow(now, daysPeriod)
		in, err := s.loadVelocity(ctx, start)
		if err != nil {
			return nil, err
		}
		return buildSlowMoving(daysPeriod, s.settings, in, now), nil
	})
}

func buildSlowMoving(daysPeriod int, cfg Settings, in *velocityInput, now time.Time) *SlowMovingReport {
	start, end := velocityWindow(now, daysPeriod)
	criteria := fmt.Sprintf("Turnover rate < %s units/day and stock > %d", cfg.SlowTurnoverBelow, cfg.SlowMinStock)
	report := &SlowMovingReport{
		Header:     Header{ReportType: "Slow Moving Inventory Report", GeneratedAt: now, Period: newPeriod(start, end)},
		PeriodDays: daysPeriod,
		Criteria:   criteria,
		Items:      []SlowMovingItem{},
	}

	var stuck int64
	notSelling := 0
	for _, inv := range in.inventory {
		sold := in.sold[inv.Key()]
		rate := TurnoverRate(sold, daysPeriod)
		if !rate.LessThan(cfg.SlowTurnoverBelow) || inv.GoodStock <= cfg.SlowMinStock {
			continue
		}

		name, sku := in.garments.names(inv.GarmentID)
		days := DaysOfStock(inv.GoodStock, rate)
		if days == nil {
			notSelling++
		}
		stuck += inv.GoodStock

		report.Items = append(report.Items, SlowMovingItem{
			GarmentID:     inv.GarmentID,
			GarmentName:   name,
			StyleSKU:      sku,
			Size:          inv.Size,
			GoodStock:     inv.GoodStock,
			VirtualStock:  inv.VirtualStock,
			SalesInPeriod: sold,
			TurnoverRate:  types.Round3(rate),
			DaysOfStock:   types.RoundPtr(days, types.MoneyPlaces),
		})
	}

	report.Summary = SlowMovingSummary{
		ItemsEvaluated:  len(in.inventory),
		SlowMovingCount: len(report.Items),
		NotSellingCount: notSelling,
		TotalStuckStock: stuck,
	}
	return report
}

// --- Fast moving ---

// FastMovingItem is a (garment, size) selling faster than the configured rate.
type FastMovingItem struct {
	GarmentID                int64   `json:"garment_id"`
	GarmentName              string  `json:"garment_name"`
	StyleSKU                 string  `json:"style_sku"`
	Size                     string  `json:"size"`
	GoodStock                int64   `json:"good_stock"`
	SalesInPeriod            int64   `json:"sales_in_period"`
	TurnoverRate             float64 `json:"turnover_rate_per_day"`
	DaysOfStockRemaining     float64 `json:"days_of_stock_remaining"`
	NeedsReorder             bool    `json:"needs_reorder"`
	RecommendedOrderQuantity int64   `json:"recommended_order_quantity"`
}

// FastMovingSummary totals the fast movers.
type FastMovingSummary struct {
	ItemsEvaluated           int   `json:"items_evaluated"`
	FastMovingCount          int   `json:"fast_moving_items_count"`
	ItemsNeedingReorder      int   `json:"items_needing_reorder"`
	TotalRecommendedQuantity int64 `json:"total_recommended_quantity"`
}

// FastMovingReport lists high-turnover inventory with reorder recommendations.
type FastMovingReport struct {
	Header
	PeriodDays int               `json:"period_days"`
	Criteria   string            `json:"criteria"`
	Summary    FastMovingSummary `json:"summary"`
	Items      []FastMovingItem  `json:"fast_moving_items"`
}

// Table implements Tabular.
func (r *FastMovingReport) Table() Table {
	t := Table{
		Title:   r.ReportType,
		Columns: []string{"SKU", "Garment", "Size", "Good Stock", "Sold", "Turnover/Day", "Days Remaining", "Reorder", "Recommended Qty"},
	}
	for _, it := range r.Items {
		t.Rows = append(t.Rows, []any{it.StyleSKU, it.GarmentName, it.Size, it.GoodStock, it.SalesInPeriod,
			it.TurnoverRate, it.DaysOfStockRemaining, it.NeedsReorder, it.RecommendedOrderQuantity})
	}
	return t
}

// FastMoving returns inventory rows selling faster than the configured rate,
// ordered by turnover, fastest first.
func (s *Service) FastMoving(ctx context.Context, daysPeriod int) (*FastMovingReport, error) {
	if err := validateDaysPeriod(daysPeriod); err != nil {
		return nil, err
	}

	return observe(ctx, s, NameFastMoving, func(ctx context.Context) (*FastMovingReport, error) {
		now := s.clock()
		start, _ := velocityWindow(now, daysPeriod)
		in, err := s.loadVelocity(ctx, start)
		if err != nil {
			return nil, err
		}
		return buildFastMoving(daysPeriod, s.settings, in, now), nil
	})
}

func buildFastMoving(daysPeriod int, cfg Settings, in *velocityInput, now time.Time) *FastMovingReport {
	start, end := velocityWindow(now, daysPeriod)
	report := &FastMovingReport{
		Header:     Header{ReportType: "Fast Moving Inventory Report", GeneratedAt: now, Period: newPeriod(start, end)},
		PeriodDays: daysPeriod,
		Criteria:   fmt.Sprintf("Turnover rate > %s units/day", cfg.FastTurnoverAbove),
		Items:      []FastMovingItem{},
	}

	type ranked struct {
		item FastMovingItem
		rate decimal.Decimal
	}
	var rows []ranked
	for _, inv := range in.inventory {
		sold := in.sold[inv.Key()]
		rate := TurnoverRate(sold, daysPeriod)
		if !rate.GreaterThan(cfg.FastTurnoverAbove) {
			continue
		}

		// rate is positive here, so days is never nil.
		days := *DaysOfStock(inv.GoodStock, rate)
		needsReorder := days.LessThan(cfg.ReorderBelowDays)
		var recommended int64
		if needsReorder {
			recommended = rate.Mul(cfg.ReplenishDays).Round(0).IntPart()
		}

		name, sku := in.garments.names(inv.GarmentID)
		rows = append(rows, ranked{
			rate: rate,
			item: FastMovingItem{
				GarmentID:                inv.GarmentID,
				GarmentName:              name,
				StyleSKU:                 sku,
				Size:                     inv.Size,
				GoodStock:                inv.GoodStock,
				SalesInPeriod:            sold,
				TurnoverRate:             types.Round3(rate),
				DaysOfStockRemaining:     types.Round2(days),
				NeedsReorder:             needsReorder,
				RecommendedOrderQuantity: recommended,
			},
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].rate.GreaterThan(rows[j].rate)
	})

	var reorder int
	var totalRecommended int64
	for _, r := range rows {
		report.Items = append(report.Items, r.item)
		if r.item.NeedsReorder {
			reorder++
			totalRecommended += r.item.RecommendedOrderQuantity
		}
	}

	report.Summary = FastMovingSummary{
		ItemsEvaluated:           len(in.inventory),
		FastMovingCount:          len(report.Items),
		ItemsNeedingReorder:      reorder,
		TotalRecommendedQuantity: totalRecommended,
	}
	return report
}
