package reports

import (
	"context"
	"time"

	"anthrilo/internal/domain/catalog"
)

// Store is the read-only view of the entity store that report generators consume.
// Every filter is a conjunction of its non-nil fields. Dates are calendar dates
// and date ranges are inclusive on both ends.
type Store interface {
	// Raw materials
	ListFabrics(ctx context.Context, filter FabricFilter) ([]catalog.Fabric, error)
	ListYarns(ctx context.Context) ([]catalog.Yarn, error)

	// Garment master and stock
	ListGarments(ctx context.Context, filter GarmentFilter) ([]catalog.Garment, error)
	// GetGarment returns an apperror not-found error when the garment is absent.
	GetGarment(ctx context.Context, id int64) (*catalog.Garment, error)
	ListInventory(ctx context.Context) ([]catalog.Inventory, error)

	// Channels and sales
	ListPanels(ctx context.Context, filter PanelFilter) ([]catalog.Panel, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]catalog.Sale, error)
	// SumSoldQuantity sums non-return sale quantity per (garment, size) for
	// transactions dated on or after since.
	SumSoldQuantity(ctx context.Context, since time.Time) (map[catalog.SKUSize]int64, error)
	// LastSaleDates returns the most recent transaction date per panel.
	// Panels without any sale are absent from the map.
	LastSaleDates(ctx context.Context) (map[int64]time.Time, error)

	// Production
	ListProductionPlans(ctx context.Context, filter PlanFilter) ([]catalog.ProductionPlan, error)
	ListProductionActivities(ctx context.Context, filter ActivityFilter) ([]catalog.ProductionActivity, error)

	// Commercial
	ListDiscounts(ctx context.Context, filter DiscountFilter) ([]catalog.Discount, error)
	ListPaidAds(ctx context.Context, filter AdFilter) ([]catalog.PaidAd, error)
}

// FabricFilter selects fabrics.
type FabricFilter struct {
	FabricType *string

	// UpdatedFrom/UpdatedTo bound updated_at (inclusive instants).
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
}

// GarmentFilter selects garments. Empty IDs means all garments.
type GarmentFilter struct {
	IDs []int64
}

// PanelFilter selects panels.
type PanelFilter struct {
	ID *int64
}

// SaleFilter selects sales and returns by transaction date.
type SaleFilter struct {
	From      *time.Time
	To        *time.Time
	GarmentID *int64
	PanelID   *int64
	IsReturn  *bool
}

// PlanFilter selects production plans.
type PlanFilter struct {
	IDs        []int64
	TargetFrom *time.Time
	TargetTo   *time.Time
}

// ActivityFilter selects production activities.
type ActivityFilter struct {
	PlanIDs []int64
	Date    *time.Time
}

// DiscountFilter selects discount campaigns.
type DiscountFilter struct {
	ActiveOnly bool
}

// AdFilter selects paid-ad spend rows by ad date.
type AdFilter struct {
	From    *time.Time
	To      *time.Time
	PanelID *int64
}
