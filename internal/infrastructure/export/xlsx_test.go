package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"anthrilo/internal/domain/reports"
)

func readBack(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	return rows
}

func TestWriteXLSX(t *testing.T) {
	red := "red"
	var noColor *string
	table := reports.Table{
		Title:   "Fabric Stock Report",
		Columns: []string{"ID", "Fabric Type", "Stock Qty", "Color", "Active"},
		Rows: [][]any{
			{int64(1), "JERSEY", 45.5, noColor, true},
			{int64(2), "TERRY", decimal.RequireFromString("12.25"), &red, false},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, table))

	rows := readBack(t, &buf)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Fabric Stock Report"}, rows[0])
	assert.Equal(t, table.Columns, rows[1])
	assert.Equal(t, []string{"1", "JERSEY", "45.5", "", "TRUE"}, rows[2])
	assert.Equal(t, []string{"2", "TERRY", "12.25", "red", "FALSE"}, rows[3])
}

func TestWriteXLSX_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, reports.Table{Title: "Inactive Panels Report"}))

	rows := readBack(t, &buf)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Inactive Panels Report"}, rows[0])
}

func TestCellValue(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	qty := 3.5
	var missing *float64

	assert.Nil(t, cellValue(nil))
	assert.Nil(t, cellValue(missing))
	assert.Equal(t, 3.5, cellValue(&qty))
	assert.Equal(t, "2024-03-01 08:30:00", cellValue(at))
	assert.Equal(t, 0.1, cellValue(decimal.RequireFromString("0.1")))
	assert.Equal(t, "M", cellValue("M"))
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 30, 5, 0, time.UTC)
	assert.Equal(t, "daily-sales_20240301_083005.xlsx", FileName("daily-sales", at))
	assert.Equal(t, "Fabric_Cost_Sheet_20240301_083005.xlsx", FileName("Fabric Cost Sheet", at))
}
