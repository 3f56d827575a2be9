// Package catalog holds the read models of the business entities the reporting
// engine consumes: raw materials, garments and their per-size stock, sales panels,
// sales, production, discounts and paid advertising.
//
// These types are owned by the entity store. Reports never mutate them.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fabric types known to the business. Stored values are free text; these are
// the ones the UI offers.
const (
	FabricJersey = "JERSEY"
	FabricTerry  = "TERRY"
	FabricFleece = "FLEECE"
)

// Fabric is a knitted/processed fabric lot held in stock.
type Fabric struct {
	ID          int64            `db:"id" json:"id"`
	FabricType  string           `db:"fabric_type" json:"fabric_type"`
	Subtype     string           `db:"subtype" json:"subtype"`
	GSM         int              `db:"gsm" json:"gsm"`
	Composition string           `db:"composition" json:"composition"`
	Width       *decimal.Decimal `db:"width" json:"width,omitempty"`
	Color       *string          `db:"color" json:"color,omitempty"`

	// StockQuantity is never negative.
	StockQuantity decimal.Decimal  `db:"stock_quantity" json:"stock_quantity"`
	Unit          string           `db:"unit" json:"unit"`
	CostPerUnit   *decimal.Decimal `db:"cost_per_unit" json:"cost_per_unit,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Yarn is a raw yarn lot.
type Yarn struct {
	ID            int64            `db:"id" json:"id"`
	YarnType      string           `db:"yarn_type" json:"yarn_type"`
	YarnCount     string           `db:"yarn_count" json:"yarn_count"`
	Composition   string           `db:"composition" json:"composition"`
	Supplier      *string          `db:"supplier" json:"supplier,omitempty"`
	UnitPrice     *decimal.Decimal `db:"unit_price" json:"unit_price,omitempty"`
	StockQuantity decimal.Decimal  `db:"stock_quantity" json:"stock_quantity"`
	Unit          string           `db:"unit" json:"unit"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
