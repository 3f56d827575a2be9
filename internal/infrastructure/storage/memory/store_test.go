package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/domain/catalog"
	"anthrilo/internal/domain/reports"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func sampleStore() *Store {
	return New(Dataset{
		Garments: []catalog.Garment{{ID: 1, StyleSKU: "TS-01"}, {ID: 2, StyleSKU: "TS-02"}},
		Panels:   []catalog.Panel{{ID: 1, PanelName: "Myntra"}, {ID: 2, PanelName: "Store"}},
		Sales: []catalog.Sale{
			{ID: 1, TransactionDate: at(2024, 3, 1, 9), GarmentID: 1, PanelID: 1, Size: "M", Quantity: 4, TotalAmount: decimal.NewFromInt(400)},
			{ID: 2, TransactionDate: at(2024, 3, 5, 22), GarmentID: 1, PanelID: 1, Size: "M", Quantity: 1, IsReturn: true},
			{ID: 3, TransactionDate: at(2024, 3, 5, 23), GarmentID: 2, PanelID: 2, Size: "L", Quantity: 2},
			{ID: 4, TransactionDate: at(2024, 2, 1, 12), GarmentID: 1, PanelID: 2, Size: "M", Quantity: 7},
		},
	})
}

func TestStore_ListSales(t *testing.T) {
	s := sampleStore()
	ctx := context.Background()
	day := at(2024, 3, 5, 0)

	sales, err := s.ListSales(ctx, reports.SaleFilter{From: &day, To: &day})
	require.NoError(t, err)
	assert.Len(t, sales, 2, "date bounds compare whole days")

	panel := int64(1)
	sales, err = s.ListSales(ctx, reports.SaleFilter{PanelID: &panel, IsReturn: new(bool)})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, int64(1), sales[0].ID)
}

func TestStore_SumSoldQuantity(t *testing.T) {
	sold, err := sampleStore().SumSoldQuantity(context.Background(), at(2024, 3, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, map[catalog.SKUSize]int64{
		{GarmentID: 1, Size: "M"}: 4,
		{GarmentID: 2, Size: "L"}: 2,
	}, sold)
}

func TestStore_LastSaleDates(t *testing.T) {
	last, err := sampleStore().LastSaleDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, at(2024, 3, 5, 22), last[1])
	assert.Equal(t, at(2024, 3, 5, 23), last[2])
}

func TestStore_GetGarment(t *testing.T) {
	s := sampleStore()

	g, err := s.GetGarment(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "TS-02", g.StyleSKU)

	_, err = s.GetGarment(context.Background(), 9)
	assert.True(t, apperror.IsNotFound(err))
}

func TestStore_ReadsAreCopies(t *testing.T) {
	s := sampleStore()
	ctx := context.Background()

	first, err := s.ListSales(ctx, reports.SaleFilter{})
	require.NoError(t, err)
	first[0].Quantity = 999

	second, err := s.ListSales(ctx, reports.SaleFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), second[0].Quantity)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sampleStore().ListPanels(ctx, reports.PanelFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{
		"panels": [{"id": 1, "panel_name": "Myntra", "panel_type": "MARKETPLACE", "is_active": true}],
		"production_plans": [{"id": 1, "plan_name": "Q2", "status": "PLANNED", "target_date": "2024-05-01T00:00:00Z"}]
	}`), 0o600))

	s, err := LoadFile(good)
	require.NoError(t, err)
	panels, err := s.ListPanels(context.Background(), reports.PanelFilter{})
	require.NoError(t, err)
	assert.Len(t, panels, 1)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"production_plans": [{"id": 3, "status": "ON_HOLD"}]}`), 0o600))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.True(t, apperror.IsDataIntegrity(err))
}

func TestReadDataset_Demo(t *testing.T) {
	data, err := ReadDataset(filepath.Join("..", "..", "..", "..", "testdata", "demo_dataset.json"))
	require.NoError(t, err)
	assert.Len(t, data.Panels, 3)
	assert.Len(t, data.Sales, 5)
	require.Len(t, data.Garments, 3)
	assert.True(t, data.Garments[1].Bundle())
}
