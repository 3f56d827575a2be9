// Package memory provides an in-process implementation of reports.Store.
// It backs the demo mode of the server and the engine's tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/core/types"
	"anthrilo/internal/domain/catalog"
	"anthrilo/internal/domain/reports"
)

// Compile-time check that Store implements reports.Store.
var _ reports.Store = (*Store)(nil)

// Dataset is the full set of entities held by the store.
type Dataset struct {
	Fabrics    []catalog.Fabric             `json:"fabrics"`
	Yarns      []catalog.Yarn               `json:"yarns"`
	Garments   []catalog.Garment            `json:"garments"`
	Inventory  []catalog.Inventory          `json:"inventory"`
	Panels     []catalog.Panel              `json:"panels"`
	Sales      []catalog.Sale               `json:"sales"`
	Plans      []catalog.ProductionPlan     `json:"production_plans"`
	Activities []catalog.ProductionActivity `json:"production_activities"`
	Discounts  []catalog.Discount           `json:"discounts"`
	PaidAds    []catalog.PaidAd             `json:"paid_ads"`
}

// Store is a read-mostly entity store guarded by a RWMutex.
type Store struct {
	mu   sync.RWMutex
	data Dataset
}

// New creates a store holding data.
func New(data Dataset) *Store {
	return &Store{data: data}
}

// LoadFile reads a JSON dataset from path.
func LoadFile(path string) (*Store, error) {
	data, err := ReadDataset(path)
	if err != nil {
		return nil, err
	}
	return New(data), nil
}

// ReadDataset decodes and checks the JSON dataset at path.
func ReadDataset(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	var data Dataset
	if err := json.Unmarshal(raw, &data); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	for _, p := range data.Plans {
		if _, err := catalog.ParsePlanStatus(string(p.Status)); err != nil {
			return Dataset{}, fmt.Errorf("dataset plan %d: %w", p.ID, err)
		}
	}
	return data, nil
}

// Ping reports the store as always reachable.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func inDateRange(t time.Time, from, to *time.Time) bool {
	day := types.DateOf(t)
	if from != nil && day.Before(types.DateOf(*from)) {
		return false
	}
	if to != nil && day.After(types.DateOf(*to)) {
		return false
	}
	return true
}

// list copies the entities selected by pick that satisfy keep.
func list[T any](ctx context.Context, s *Store, pick func(*Dataset) []T, keep func(T) bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := pick(&s.data)
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

// ListFabrics implements reports.Store.
func (s *Store) ListFabrics(ctx context.Context, f reports.FabricFilter) ([]catalog.Fabric, error) {
	return list(ctx, s, func(d *Dataset) []catalog.Fabric { return d.Fabrics }, func(fab catalog.Fabric) bool {
		if f.FabricType != nil && fab.FabricType != *f.FabricType {
			return false
		}
		if f.UpdatedFrom != nil && fab.UpdatedAt.Before(*f.UpdatedFrom) {
			return false
		}
		if f.UpdatedTo != nil && fab.UpdatedAt.After(*f.UpdatedTo) {
			return false
		}
		return true
	})
}

// ListYarns implements reports.Store.
func (s *Store) ListYarns(ctx context.Context) ([]catalog.Yarn, error) {
	return list(ctx, s, func(d *Dataset) []catalog.Yarn { return d.Yarns }, func(catalog.Yarn) bool { return true })
}

// ListGarments implements reports.Store.
func (s *Store) ListGarments(ctx context.Context, f reports.GarmentFilter) ([]catalog.Garment, error) {
	return list(ctx, s, func(d *Dataset) []catalog.Garment { return d.Garments }, func(g catalog.Garment) bool {
		return len(f.IDs) == 0 || slices.Contains(f.IDs, g.ID)
	})
}

// GetGarment implements reports.Store.
func (s *Store) GetGarment(ctx context.Context, id int64) (*catalog.Garment, error) {
	found, err := s.ListGarments(ctx, reports.GarmentFilter{IDs: []int64{id}})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperror.NewNotFound("garment", id)
	}
	return &found[0], nil
}

// ListInventory implements reports.Store.
func (s *Store) ListInventory(ctx context.Context) ([]catalog.Inventory, error) {
	return list(ctx, s, func(d *Dataset) []catalog.Inventory { return d.Inventory }, func(catalog.Inventory) bool { return true })
}

// ListPanels implements reports.Store.
func (s *Store) ListPanels(ctx context.Context, f reports.PanelFilter) ([]catalog.Panel, error) {
	return list(ctx, s, func(d *Dataset) []catalog.Panel { return d.Panels }, func(p catalog.Panel) bool {
		return f.ID == nil || p.ID == *f.ID
	})
}

// ListSales implements reports.Store.
func (s *Store) ListSales(ctx context.Context, f reports.SaleFilter) ([]catalog.Sale, error) {
	return list(ctx, s, func(d *Dataset) []catalog.Sale { return d.Sales }, func(sale catalog.Sale) bool {
		if !inDateRange(sale.TransactionDate, f.From, f.To) {
			return false
		}
		if f.GarmentID != nil && sale.GarmentID != *f.GarmentID {
			return false
		}
		if f.PanelID != nil && sale.PanelID != *f.PanelID {
			return false
		}
		if f.IsReturn != nil && sale.IsReturn != *f.IsReturn {
			return false
		}
		return true
	})
}

// SumSoldQuantity implements reports.Store.
func (s *Store) SumSoldQuantity(ctx context.Context, since time.Time) (map[catalog.SKUSize]int64, error) {
	sales, err := s.ListSales(ctx, reports.SaleFilter{From: &since, IsReturn: new(bool)})
	if err != nil {
		return nil, err
	}
	out := make(map[catalog.SKUSize]int64)
	for _, sale := range sales {
		out[sale.Key()] += sale.Quantity
	}
	return out, nil
}

// LastSaleDates implements reports.Store.
func (s *Store) LastSaleDates(ctx context.Context) (map[int64]time.Time, error) {
	sales, err := s.ListSales(ctx, reports.SaleFilter{})
	if err != nil {
		return nil, err
	}
	out := make(map[int64]time.Time)
	for _, sale := range sales {
		if last, ok := out[sale.PanelID]; !ok || sale.TransactionDate.After(last) {
			out[sale.PanelID] = sale.TransactionDate
		}
	}
	return out, nil
}

// ListProductionPlans implements reports.Store.
func (s *Store) ListProductionPlans(ctx context.Context, f reports.PlanFilter) ([]catalog.ProductionPlan, error) {
	return list(ctx, s, func(d *Dataset) []catalog.ProductionPlan { return d.Plans }, func(p catalog.ProductionPlan) bool {
		if len(f.IDs) > 0 && !slices.Contains(f.IDs, p.ID) {
			return false
		}
		return inDateRange(p.TargetDate, f.TargetFrom, f.TargetTo)
	})
}

// ListProductionActivities implements reports.Store.
func (s *Store) ListProductionActivities(ctx context.Context, f reports.ActivityFilter) ([]catalog.ProductionActivity, error) {
	return list(ctx, s, func(d *Dataset) []catalog.ProductionActivity { return d.Activities }, func(a catalog.ProductionActivity) bool {
		if len(f.PlanIDs) > 0 && !slices.Contains(f.PlanIDs, a.ProductionPlanID) {
			return false
		}
		return inDateRange(a.ActivityDate, f.Date, f.Date)
	})
}

// ListDiscounts implements reports.Store.
func (s *Store) ListDiscounts(ctx context.Context, f reports.DiscountFilter) ([]catalog.Discount, error) {
	return list(ctx, s, func(d *Dataset) []catalog.Discount { return d.Discounts }, func(d catalog.Discount) bool {
		return !f.ActiveOnly || d.IsActive
	})
}

// ListPaidAds implements reports.Store.
func (s *Store) ListPaidAds(ctx context.Context, f reports.AdFilter) ([]catalog.PaidAd, error) {
	return list(ctx, s, func(d *Dataset) []catalog.PaidAd { return d.PaidAds }, func(ad catalog.PaidAd) bool {
		if f.PanelID != nil && ad.PanelID != *f.PanelID {
			return false
		}
		return inDateRange(ad.AdDate, f.From, f.To)
	})
}
