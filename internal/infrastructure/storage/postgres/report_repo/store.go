// Package report_repo provides the PostgreSQL implementation of reports.Store.
// Every read runs in its own read-only transaction obtained from the TxManager.
package report_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/domain/catalog"
	"anthrilo/internal/domain/reports"
	"anthrilo/internal/infrastructure/storage/postgres"
)

// Compile-time check that Store implements reports.Store.
var _ reports.Store = (*Store)(nil)

const (
	tableFabrics    = "fabrics"
	tableYarns      = "yarns"
	tableGarments   = "garments"
	tableInventory  = "inventory"
	tablePanels     = "panels"
	tableSales      = "sales"
	tablePlans      = "production_plans"
	tableActivities = "production_activities"
	tableDiscounts  = "discounts"
	tablePaidAds    = "paid_ads"
)

// Store reads report inputs from PostgreSQL.
type Store struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType

	fabricCols   []string
	yarnCols     []string
	garmentCols  []string
	invCols      []string
	panelCols    []string
	saleCols     []string
	planCols     []string
	activityCols []string
	discountCols []string
	adCols       []string
}

// NewStore creates a PostgreSQL report store.
func NewStore(txm *postgres.TxManager) *Store {
	return &Store{
		txm:          txm,
		builder:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		fabricCols:   postgres.ExtractDBColumns[catalog.Fabric](),
		yarnCols:     postgres.ExtractDBColumns[catalog.Yarn](),
		garmentCols:  postgres.ExtractDBColumns[catalog.Garment](),
		invCols:      postgres.ExtractDBColumns[catalog.Inventory](),
		panelCols:    postgres.ExtractDBColumns[catalog.Panel](),
		saleCols:     postgres.ExtractDBColumns[catalog.Sale](),
		planCols:     postgres.ExtractDBColumns[catalog.ProductionPlan](),
		activityCols: postgres.ExtractDBColumns[catalog.ProductionActivity](),
		discountCols: postgres.ExtractDBColumns[catalog.Discount](),
		adCols:       postgres.ExtractDBColumns[catalog.PaidAd](),
	}
}

// Ping checks database reachability for the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.txm.Ping(ctx)
}

// selectAll runs q in a read-only transaction and scans every row into T.
func selectAll[T any](ctx context.Context, s *Store, op string, q squirrel.Sqlizer) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var out []T
	err = s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		return pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &out, sql, args...)
	})
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return out, nil
}

// wrapErr maps a driver error onto the AppError taxonomy. Errors that already
// carry an AppError (a stored value failing enum parsing) pass through.
func wrapErr(op string, err error) error {
	if apperror.IsAppError(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperror.NewTimeout(err)
	}
	return apperror.NewDatabase(op, err)
}

// dateRange adds inclusive calendar-date bounds on col.
func dateRange(q squirrel.SelectBuilder, col string, from, to *time.Time) squirrel.SelectBuilder {
	if from != nil {
		q = q.Where(squirrel.GtOrEq{col: from.Format(time.DateOnly)})
	}
	if to != nil {
		q = q.Where(squirrel.LtOrEq{col: to.Format(time.DateOnly)})
	}
	return q
}

func (s *Store) fabricsQuery(f reports.FabricFilter) squirrel.SelectBuilder {
	q := s.builder.Select(s.fabricCols...).From(tableFabrics).OrderBy("id")
	if f.FabricType != nil {
		q = q.Where(squirrel.Eq{"fabric_type": *f.FabricType})
	}
	if f.UpdatedFrom != nil {
		q = q.Where(squirrel.GtOrEq{"updated_at": *f.UpdatedFrom})
	}
	if f.UpdatedTo != nil {
		q = q.Where(squirrel.LtOrEq{"updated_at": *f.UpdatedTo})
	}
	return q
}

// ListFabrics implements reports.Store.
func (s *Store) ListFabrics(ctx context.Context, f reports.FabricFilter) ([]catalog.Fabric, error) {
	return selectAll[catalog.Fabric](ctx, s, "list fabrics", s.fabricsQuery(f))
}

// ListYarns implements reports.Store.
func (s *Store) ListYarns(ctx context.Context) ([]catalog.Yarn, error) {
	q := s.builder.Select(s.yarnCols...).From(tableYarns).OrderBy("id")
	return selectAll[catalog.Yarn](ctx, s, "list yarns", q)
}

func (s *Store) garmentsQuery(f reports.GarmentFilter) squirrel.SelectBuilder {
	q := s.builder.Select(s.garmentCols...).From(tableGarments).OrderBy("id")
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}
	return q
}

// ListGarments implements reports.Store.
func (s *Store) ListGarments(ctx context.Context, f reports.GarmentFilter) ([]catalog.Garment, error) {
	return selectAll[catalog.Garment](ctx, s, "list garments", s.garmentsQuery(f))
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
	q := s.builder.Select(s.invCols...).From(tableInventory).OrderBy("garment_id", "id")
	return selectAll[catalog.Inventory](ctx, s, "list inventory", q)
}

// ListPanels implements reports.Store.
func (s *Store) ListPanels(ctx context.Context, f reports.PanelFilter) ([]catalog.Panel, error) {
	q := s.builder.Select(s.panelCols...).From(tablePanels).OrderBy("id")
	if f.ID != nil {
		q = q.Where(squirrel.Eq{"id": *f.ID})
	}
	return selectAll[catalog.Panel](ctx, s, "list panels", q)
}

func (s *Store) salesQuery(f reports.SaleFilter) squirrel.SelectBuilder {
	q := s.builder.Select(s.saleCols...).From(tableSales).OrderBy("transaction_date", "id")
	q = dateRange(q, "transaction_date", f.From, f.To)
	if f.GarmentID != nil {
		q = q.Where(squirrel.Eq{"garment_id": *f.GarmentID})
	}
	if f.PanelID != nil {
		q = q.Where(squirrel.Eq{"panel_id": *f.PanelID})
	}
	if f.IsReturn != nil {
		q = q.Where(squirrel.Eq{"is_return": *f.IsReturn})
	}
	return q
}

// ListSales implements reports.Store.
func (s *Store) ListSales(ctx context.Context, f reports.SaleFilter) ([]catalog.Sale, error) {
	return selectAll[catalog.Sale](ctx, s, "list sales", s.salesQuery(f))
}

type soldRow struct {
	GarmentID int64  `db:"garment_id"`
	Size      string `db:"size"`
	Quantity  int64  `db:"quantity"`
}

func (s *Store) soldQuantityQuery(since time.Time) squirrel.SelectBuilder {
	return s.builder.
		Select("garment_id", "size", "SUM(quantity)::bigint AS quantity").
		From(tableSales).
		Where(squirrel.Eq{"is_return": false}).
		Where(squirrel.GtOrEq{"transaction_date": since.Format(time.DateOnly)}).
		GroupBy("garment_id", "size")
}

// SumSoldQuantity implements reports.Store.
func (s *Store) SumSoldQuantity(ctx context.Context, since time.Time) (map[catalog.SKUSize]int64, error) {
	rows, err := selectAll[soldRow](ctx, s, "sum sold quantity", s.soldQuantityQuery(since))
	if err != nil {
		return nil, err
	}
	out := make(map[catalog.SKUSize]int64, len(rows))
	for _, r := range rows {
		out[catalog.SKUSize{GarmentID: r.GarmentID, Size: r.Size}] = r.Quantity
	}
	return out, nil
}

type lastSaleRow struct {
	PanelID  int64     `db:"panel_id"`
	LastSale time.Time `db:"last_sale"`
}

func (s *Store) lastSaleQuery() squirrel.SelectBuilder {
	return s.builder.
		Select("panel_id", "MAX(transaction_date) AS last_sale").
		From(tableSales).
		GroupBy("panel_id")
}

// LastSaleDates implements reports.Store.
func (s *Store) LastSaleDates(ctx context.Context) (map[int64]time.Time, error) {
	rows, err := selectAll[lastSaleRow](ctx, s, "last sale dates", s.lastSaleQuery())
	if err != nil {
		return nil, err
	}
	out := make(map[int64]time.Time, len(rows))
	for _, r := range rows {
		out[r.PanelID] = r.LastSale
	}
	return out, nil
}

func (s *Store) plansQuery(f reports.PlanFilter) squirrel.SelectBuilder {
	q := s.builder.Select(s.planCols...).From(tablePlans).OrderBy("target_date", "id")
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}
	return dateRange(q, "target_date", f.TargetFrom, f.TargetTo)
}

// ListProductionPlans implements reports.Store.
func (s *Store) ListProductionPlans(ctx context.Context, f reports.PlanFilter) ([]catalog.ProductionPlan, error) {
	return selectAll[catalog.ProductionPlan](ctx, s, "list production plans", s.plansQuery(f))
}

func (s *Store) activitiesQuery(f reports.ActivityFilter) squirrel.SelectBuilder {
	q := s.builder.Select(s.activityCols...).From(tableActivities).OrderBy("id")
	if len(f.PlanIDs) > 0 {
		q = q.Where(squirrel.Eq{"production_plan_id": f.PlanIDs})
	}
	return dateRange(q, "activity_date", f.Date, f.Date)
}

// ListProductionActivities implements reports.Store.
func (s *Store) ListProductionActivities(ctx context.Context, f reports.ActivityFilter) ([]catalog.ProductionActivity, error) {
	return selectAll[catalog.ProductionActivity](ctx, s, "list production activities", s.activitiesQuery(f))
}

// ListDiscounts implements reports.Store.
func (s *Store) ListDiscounts(ctx context.Context, f reports.DiscountFilter) ([]catalog.Discount, error) {
	q := s.builder.Select(s.discountCols...).From(tableDiscounts).OrderBy("valid_from", "id")
	if f.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	return selectAll[catalog.Discount](ctx, s, "list discounts", q)
}

func (s *Store) paidAdsQuery(f reports.AdFilter) squirrel.SelectBuilder {
	q := s.builder.Select(s.adCols...).From(tablePaidAds).OrderBy("ad_date", "id")
	q = dateRange(q, "ad_date", f.From, f.To)
	if f.PanelID != nil {
		q = q.Where(squirrel.Eq{"panel_id": *f.PanelID})
	}
	return q
}

// ListPaidAds implements reports.Store.
func (s *Store) ListPaidAds(ctx context.Context, f reports.AdFilter) ([]catalog.PaidAd, error) {
	return selectAll[catalog.PaidAd](ctx, s, "list paid ads", s.paidAdsQuery(f))
}
