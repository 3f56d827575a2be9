package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Panel is a sales channel: marketplace, retail partner or wholesale account.
type Panel struct {
	ID        int64  `db:"id" json:"id"`
	PanelName string `db:"panel_name" json:"panel_name"`
	PanelType string `db:"panel_type" json:"panel_type"`
	IsActive  bool   `db:"is_active" json:"is_active"`
}

// Sale is one sales or return transaction line.
type Sale struct {
	ID              int64     `db:"id" json:"id"`
	TransactionDate time.Time `db:"transaction_date" json:"transaction_date"`
	GarmentID       int64     `db:"garment_id" json:"garment_id"`
	PanelID         int64     `db:"panel_id" json:"panel_id"`
	Size            string    `db:"size" json:"size"`

	// Quantity is always positive; IsReturn carries the direction.
	Quantity  int64           `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`

	// DiscountPercentage is the percentage recorded at sale time. Reports
	// bucket on this stored value and never recompute it.
	DiscountPercentage decimal.Decimal `db:"discount_percentage" json:"discount_percentage"`
	TotalAmount        decimal.Decimal `db:"total_amount" json:"total_amount"`
	IsReturn           bool            `db:"is_return" json:"is_return"`
	InvoiceNumber      *string         `db:"invoice_number" json:"invoice_number,omitempty"`
}

// Key returns the (garment, size) the sale moved.
func (s Sale) Key() SKUSize {
	return SKUSize{GarmentID: s.GarmentID, Size: s.Size}
}

// Discount is a configured discount campaign.
type Discount struct {
	ID            int64           `db:"id" json:"id"`
	DiscountName  string          `db:"discount_name" json:"discount_name"`
	DiscountType  string          `db:"discount_type" json:"discount_type"`
	DiscountValue decimal.Decimal `db:"discount_value" json:"discount_value"`
	ApplicableTo  string          `db:"applicable_to" json:"applicable_to"`
	PanelID       *int64          `db:"panel_id" json:"panel_id,omitempty"`
	GarmentID     *int64          `db:"garment_id" json:"garment_id,omitempty"`
	Category      *string         `db:"category" json:"category,omitempty"`
	ValidFrom     time.Time       `db:"valid_from" json:"valid_from"`
	ValidTo       *time.Time      `db:"valid_to" json:"valid_to,omitempty"`
	IsActive      bool            `db:"is_active" json:"is_active"`
}

// Overlaps reports whether the discount is active at any point of [from, to].
func (d Discount) Overlaps(from, to time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.ValidFrom.After(to) {
		return false
	}
	return d.ValidTo == nil || !d.ValidTo.Before(from)
}

// PaidAd is one day of spend on one advertising campaign for a panel.
type PaidAd struct {
	ID               int64            `db:"id" json:"id"`
	AdDate           time.Time        `db:"ad_date" json:"ad_date"`
	PanelID          int64            `db:"panel_id" json:"panel_id"`
	Platform         string           `db:"platform" json:"platform"`
	CampaignName     string           `db:"campaign_name" json:"campaign_name"`
	DailySpend       decimal.Decimal  `db:"daily_spend" json:"daily_spend"`
	Impressions      *int64           `db:"impressions" json:"impressions,omitempty"`
	Clicks           *int64           `db:"clicks" json:"clicks,omitempty"`
	Conversions      *int64           `db:"conversions" json:"conversions,omitempty"`
	RevenueGenerated *decimal.Decimal `db:"revenue_generated" json:"revenue_generated,omitempty"`
}
