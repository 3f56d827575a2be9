// Package export renders report tables as downloadable spreadsheets.
package export

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"anthrilo/internal/domain/reports"
)

// ContentTypeXLSX is the MIME type of the workbooks produced here.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetName  = "Report"
	titleRow   = 1
	headerRow  = 2
	firstRow   = 3
	colWidth   = 16
	timeLayout = "2006-01-02 15:04:05"
)

// WriteXLSX writes t as a single-sheet workbook: title, bold header row, then
// one row per detail line.
func WriteXLSX(w io.Writer, t reports.Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	if err := f.SetCellValue(sheetName, "A1", t.Title); err != nil {
		return fmt.Errorf("write title: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := setRow(f, headerRow, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range t.Rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := setRow(f, firstRow+i, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(t.Columns) > 0 {
		if err := styleHeader(f, len(t.Columns)); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheetName, cell, &values)
}

func styleHeader(f *excelize.File, columns int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", bold); err != nil {
		return fmt.Errorf("style title: %w", err)
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", lastCol, headerRow), bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", lastCol, colWidth); err != nil {
		return fmt.Errorf("size columns: %w", err)
	}
	return nil
}

// cellValue unwraps optional values: nil pointers become empty cells.
func cellValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(timeLayout)
	case decimal.Decimal:
		f, _ := x.Float64()
		return f
	case fmt.Stringer:
		return x.String()
	}
	return v
}

// FileName returns the download name of a report workbook.
func FileName(report string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", strings.ReplaceAll(report, " ", "_"), at.UTC().Format("20060102_150405"))
}
