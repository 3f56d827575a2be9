package reports

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"anthrilo/internal/core/apperror"
	appctx "anthrilo/internal/core/context"
	"anthrilo/internal/core/types"
	"anthrilo/pkg/logger"
)

var tracer = otel.Tracer("anthrilo/reports")

// Observer receives the outcome of every report generation.
type Observer interface {
	ObserveReport(name string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveReport(string, time.Duration, error) {}

// Service provides report generation operations.
type Service struct {
	store    Store
	settings Settings
	now      func() time.Time
	observer Observer
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for generated_at and trailing windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithObserver registers an observer for report outcomes.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// NewService creates a new reports service.
func NewService(store Store, settings Settings, opts ...Option) *Service {
	s := &Service{
		store:    store,
		settings: settings,
		now:      time.Now,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// Today returns the current date in UTC as seen by the service clock.
func (s *Service) Today() time.Time {
	return types.DateOf(s.clock())
}

// observe wraps one report generation in a span, a log line and an observer call.
func observe[T any](ctx context.Context, s *Service, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "report."+name,
		trace.WithAttributes(attribute.String("report.name", name)))
	defer span.End()

	ctx = appctx.WithReportName(ctx, name)
	start := time.Now()
	out, err := fn(ctx)
	elapsed := time.Since(start)
	s.observer.ObserveReport(name, elapsed, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn(ctx, "report generation failed", "error", err, "duration", elapsed)
		var zero T
		return zero, fmt.Errorf("generate %s report: %w", name, err)
	}

	logger.Debug(ctx, "report generated", "duration", elapsed)
	return out, nil
}

// Generate dispatches to the generator registered under name.
func (s *Service) Generate(ctx context.Context, name string, p Params) (Tabular, error) {
	switch name {
	case NameFabricStockTotal:
		return tabular(s.FabricStockTotal(ctx))
	case NameFabricStockByType:
		return tabular(s.FabricStockByType(ctx, p.FabricType))
	case NameFabricStockByPeriod:
		start, end, err := requireRange(p)
		if err != nil {
			return nil, err
		}
		return tabular(s.FabricStockByPeriod(ctx, start, end))
	case NameFabricCostSheet:
		return tabular(s.FabricCostSheet(ctx))
	case NameDailySales:
		date, err := requireDate(p)
		if err != nil {
			return nil, err
		}
		return tabular(s.DailySales(ctx, date))
	case NameDailySalesSKU:
		date, err := requireDate(p)
		if err != nil {
			return nil, err
		}
		if p.GarmentID == nil {
			return nil, apperror.NewValidation("garment id is required")
		}
		return tabular(s.DailySalesSKU(ctx, date, *p.GarmentID))
	case NamePanelWiseSales:
		start, end, err := requireRange(p)
		if err != nil {
			return nil, err
		}
		return tabular(s.PanelWiseSales(ctx, start, end))
	case NameInactivePanels:
		return tabular(s.InactivePanels(ctx, intOr(p.DaysThreshold, DefaultDaysThreshold)))
	case NameSlowMoving:
		return tabular(s.SlowMoving(ctx, intOr(p.DaysPeriod, DefaultDaysPeriod)))
	case NameFastMoving:
		return tabular(s.FastMoving(ctx, intOr(p.DaysPeriod, DefaultDaysPeriod)))
	case NamePlanStatus:
		return tabular(s.ProductionPlanStatus(ctx, p.StartDate, p.EndDate))
	case NameProductionVariance:
		date, err := requireDate(p)
		if err != nil {
			return nil, err
		}
		return tabular(s.DailyProductionVariance(ctx, date))
	case NameYarnForecast:
		return tabular(s.YarnPurchaseForecast(ctx, YarnForecastParams{
			Threshold:        p.Threshold,
			ForecastDays:     p.ForecastDays,
			DailyConsumption: p.DailyConsumption,
		}))
	case NameBundleSKUSales:
		start, end, err := requireRange(p)
		if err != nil {
			return nil, err
		}
		return tabular(s.BundleSKUSales(ctx, start, end))
	case NameDiscountGeneral:
		start, end, err := requireRange(p)
		if err != nil {
			return nil, err
		}
		return tabular(s.DiscountGeneral(ctx, start, end))
	case NameDiscountByPanel:
		start, end, err := requireRange(p)
		if err != nil {
			return nil, err
		}
		return tabular(s.DiscountByPanel(ctx, start, end, p.PanelID))
	case NamePanelSettlement:
		start, end, err := requireRange(p)
		if err != nil {
			return nil, err
		}
		return tabular(s.PanelSettlement(ctx, start, end, p.PanelID))
	case NameAdROI:
		start, end, err := requireRange(p)
		if err != nil {
			return nil, err
		}
		return tabular(s.AdROI(ctx, start, end, p.PanelID))
	case NameSummary:
		return tabular(s.Summary(ctx))
	default:
		return nil, apperror.NewUnknownReport(name)
	}
}

// tabular erases the concrete report type without leaking typed nils.
func tabular[T Tabular](report T, err error) (Tabular, error) {
	if err != nil {
		return nil, err
	}
	return report, nil
}

func requireDate(p Params) (time.Time, error) {
	if p.Date == nil {
		return time.Time{}, apperror.NewValidation("date is required")
	}
	return *p.Date, nil
}

func requireRange(p Params) (time.Time, time.Time, error) {
	if p.StartDate == nil || p.EndDate == nil {
		return time.Time{}, time.Time{}, apperror.NewValidation("start_date and end_date are required")
	}
	if err := validateRange(*p.StartDate, *p.EndDate); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return *p.StartDate, *p.EndDate, nil
}

func validateRange(start, end time.Time) error {
	if start.After(end) {
		return apperror.NewValidation("start_date must not be after end_date").
			WithDetail("start_date", start.Format(time.DateOnly)).
			WithDetail("end_date", end.Format(time.DateOnly))
	}
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
