package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// bundleMarkers are matched case-insensitively against category, sub-category
// and name of garments that carry no explicit bundle classification.
var bundleMarkers = []string{"bundle", "combo", "set"}

// Garment is a style in the garment master (one SKU, many sizes).
type Garment struct {
	ID          int64           `db:"id" json:"id"`
	StyleSKU    string          `db:"style_sku" json:"style_sku"`
	Name        string          `db:"name" json:"name"`
	Category    string          `db:"category" json:"category"`
	SubCategory *string         `db:"sub_category" json:"sub_category,omitempty"`
	Sizes       []string        `db:"sizes" json:"sizes"`
	MRP         decimal.Decimal `db:"mrp" json:"mrp"`
	IsActive    bool            `db:"is_active" json:"is_active"`

	// IsBundle is the explicit multi-item classification. Nil means the
	// garment has not been classified yet.
	IsBundle *bool `db:"is_bundle" json:"is_bundle,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Bundle reports whether the garment is sold as a multi-item combo.
// The explicit flag wins; unclassified garments fall back to a substring match
// on their category and name.
func (g *Garment) Bundle() bool {
	if g.IsBundle != nil {
		return *g.IsBundle
	}
	return LooksLikeBundle(g)
}

// LooksLikeBundle is the legacy heuristic kept for garments created before the
// explicit flag existed. It matches "bundle", "combo" or "set" anywhere in the
// category, sub-category or name, so it also matches words like "sunset".
func LooksLikeBundle(g *Garment) bool {
	fields := []string{g.Category, g.Name}
	if g.SubCategory != nil {
		fields = append(fields, *g.SubCategory)
	}
	for _, f := range fields {
		lower := strings.ToLower(f)
		for _, marker := range bundleMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// Inventory is the stock of one garment in one size. Unique per (garment, size).
type Inventory struct {
	ID                int64     `db:"id" json:"id"`
	GarmentID         int64     `db:"garment_id" json:"garment_id"`
	Size              string    `db:"size" json:"size"`
	GoodStock         int64     `db:"good_stock" json:"good_stock"`
	VirtualStock      int64     `db:"virtual_stock" json:"virtual_stock"`
	WarehouseLocation *string   `db:"warehouse_location" json:"warehouse_location,omitempty"`
	LastUpdated       time.Time `db:"last_updated" json:"last_updated"`
}

// Key returns the (garment, size) identity of the row.
func (i Inventory) Key() SKUSize {
	return SKUSize{GarmentID: i.GarmentID, Size: i.Size}
}

// SKUSize identifies a sellable unit: one garment in one size.
type SKUSize struct {
	GarmentID int64
	Size      string
}
