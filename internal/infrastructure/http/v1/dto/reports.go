package dto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/core/types"
	"anthrilo/internal/domain/reports"
)

// Response formats.
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// ReportQuery holds the query-string parameters shared by the report routes.
// Each report reads only the ones it needs.
type ReportQuery struct {
	StartDate        string `form:"start_date"`
	EndDate          string `form:"end_date"`
	PanelID          *int64 `form:"panel_id"`
	DaysPeriod       *int   `form:"days_period" binding:"omitempty,min=1"`
	DaysThreshold    *int   `form:"days_threshold" binding:"omitempty,min=0"`
	Threshold        string `form:"threshold"`
	ForecastDays     int    `form:"forecast_days" binding:"min=0"`
	DailyConsumption string `form:"daily_consumption"`
	Format           string `form:"format"`
}

// ToParams converts the query into report parameters.
func (q ReportQuery) ToParams() (reports.Params, error) {
	p := reports.Params{
		PanelID:       q.PanelID,
		DaysPeriod:    q.DaysPeriod,
		DaysThreshold: q.DaysThreshold,
		ForecastDays:  q.ForecastDays,
	}

	var err error
	if p.StartDate, err = optionalDate("start_date", q.StartDate); err != nil {
		return reports.Params{}, err
	}
	if p.EndDate, err = optionalDate("end_date", q.EndDate); err != nil {
		return reports.Params{}, err
	}
	if p.Threshold, err = optionalDecimal("threshold", q.Threshold); err != nil {
		return reports.Params{}, err
	}
	if p.DailyConsumption, err = optionalDecimal("daily_consumption", q.DailyConsumption); err != nil {
		return reports.Params{}, err
	}
	return p, nil
}

// ResponseFormat returns the normalized format, rejecting unknown ones.
func (q ReportQuery) ResponseFormat() (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(q.Format)); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", apperror.NewUnsupportedFormat(q.Format)
	}
}

func optionalDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := types.ParseDate(raw)
	if err != nil {
		return nil, apperror.NewValidation(err.Error()).WithDetail("field", field)
	}
	return &t, nil
}

func optionalDecimal(field, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperror.NewValidation("invalid number").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return &d, nil
}

// ReportInfo describes one available report.
type ReportInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ReportCatalogResponse lists the available reports.
type ReportCatalogResponse struct {
	Reports []ReportInfo `json:"reports"`
}
