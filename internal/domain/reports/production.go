package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"anthrilo/internal/core/apperror"
	"anthrilo/internal/core/types"
	"anthrilo/internal/domain/catalog"
)

// --- Plan status ---

// PlanLine is one production plan with its cutting progress.
type PlanLine struct {
	ID                   int64   `json:"id"`
	PlanName             string  `json:"plan_name"`
	GarmentID            int64   `json:"garment_id"`
	GarmentSKU           string  `json:"garment_sku"`
	GarmentName          string  `json:"garment_name"`
	Status               string  `json:"status"`
	PlannedQuantity      int64   `json:"planned_quantity"`
	ActualQuantity       int64   `json:"actual_quantity"`
	CompletionPercentage float64 `json:"completion_percentage"`
	TargetDate           string  `json:"target_date"`
	FabricRequirement    float64 `json:"fabric_requirement"`
	YarnRequirement      float64 `json:"yarn_requirement"`
	ActivitiesCount      int     `json:"activities_count"`
}

// PlansByStatus holds one bucket per plan status.
type PlansByStatus struct {
	Planned    []PlanLine `json:"PLANNED"`
	InProgress []PlanLine `json:"IN_PROGRESS"`
	Completed  []PlanLine `json:"COMPLETED"`
}

// PlanStatusSummary counts plans per bucket.
type PlanStatusSummary struct {
	TotalPlans           int     `json:"total_plans"`
	Planned              int     `json:"planned"`
	InProgress           int     `json:"in_progress"`
	Completed            int     `json:"completed"`
	TotalPlannedQuantity int64   `json:"total_planned_quantity"`
	TotalActualQuantity  int64   `json:"total_actual_quantity"`
	OverallCompletion    float64 `json:"overall_completion_percentage"`
}

// PlanStatusReport groups production plans by status.
type PlanStatusReport struct {
	Header
	Summary       PlanStatusSummary `json:"summary"`
	PlansByStatus PlansByStatus     `json:"plans_by_status"`
}

// Table implements Tabular.
func (r *PlanStatusReport) Table() Table {
	t := Table{
		Title:   r.ReportType,
		Columns: []string{"ID", "Plan", "Status", "SKU", "Garment", "Planned", "Actual", "Completion %", "Target Date", "Activities"},
	}
	for _, bucket := range [][]PlanLine{r.PlansByStatus.Planned, r.PlansByStatus.InProgress, r.PlansByStatus.Completed} {
		for _, p := range bucket {
			t.Rows = append(t.Rows, []any{p.ID, p.PlanName, p.Status, p.GarmentSKU, p.GarmentName, p.PlannedQuantity,
				p.ActualQuantity, p.CompletionPercentage, p.TargetDate, p.ActivitiesCount})
		}
	}
	return t
}

// ProductionPlanStatus returns production plans grouped by status, optionally
// restricted to target dates within [start, end]. The bounds are given
// together or not at all.
func (s *Service) ProductionPlanStatus(ctx context.Context, start, end *time.Time) (*PlanStatusReport, error) {
	if (start == nil) != (end == nil) {
		return nil, apperror.NewValidation("start_date and end_date must be given together")
	}
	if start != nil {
		if err := validateRange(*start, *end); err != nil {
			return nil, err
		}
	}

	return observe(ctx, s, NamePlanStatus, func(ctx context.Context) (*PlanStatusReport, error) {
		plans, err := s.store.ListProductionPlans(ctx, PlanFilter{TargetFrom: start, TargetTo: end})
		if err != nil {
			return nil, fmt.Errorf("list production plans: %w", err)
		}

		planIDs := make([]int64, 0, len(plans))
		garmentIDs := make([]int64, 0, len(plans))
		for _, p := range plans {
			planIDs = append(planIDs, p.ID)
			garmentIDs = append(garmentIDs, p.GarmentID)
		}

		var activities []catalog.ProductionActivity
		var garments []catalog.Garment
		if len(plans) > 0 {
			activities, err = s.store.ListProductionActivities(ctx, ActivityFilter{PlanIDs: planIDs})
			if err != nil {
				return nil, fmt.Errorf("list production activities: %w", err)
			}
			garments, err = s.store.ListGarments(ctx, GarmentFilter{IDs: garmentIDs})
			if err != nil {
				return nil, fmt.Errorf("list garments: %w", err)
			}
		}
		return buildPlanStatus(start, end, plans, activities, indexGarments(garments), s.clock())
	})
}

func buildPlanStatus(
	start, end *time.Time,
	plans []catalog.ProductionPlan,
	activities []catalog.ProductionActivity,
	garments garmentIndex,
	now time.Time,
) (*PlanStatusReport, error) {
	report := &PlanStatusReport{
		Header: Header{
			ReportType:  "Production Plan Report",
			GeneratedAt: now,
			Period:      &Period{StartDate: types.FormatDatePtr(start), EndDate: types.FormatDatePtr(end)},
		},
		PlansByStatus: PlansByStatus{Planned: []PlanLine{}, InProgress: []PlanLine{}, Completed: []PlanLine{}},
	}

	type progress struct {
		cut   int64
		count int
	}
	byPlan := make(map[int64]*progress, len(plans))
	for _, a := range activities {
		p, ok := byPlan[a.ProductionPlanID]
		if !ok {
			p = &progress{}
			byPlan[a.ProductionPlanID] = p
		}
		p.count++
		if a.ActivityType == catalog.ActivityCutting {
			p.cut += a.Quantity
		}
	}

	var totalPlanned, totalActual int64
	for _, plan := range plans {
		prog := byPlan[plan.ID]
		if prog == nil {
			prog = &progress{}
		}
		name, sku := garments.names(plan.GarmentID)
		line := PlanLine{
			ID:                   plan.ID,
			PlanName:             plan.PlanName,
			GarmentID:            plan.GarmentID,
			GarmentSKU:           sku,
			GarmentName:          name,
			Status:               plan.Status.String(),
			PlannedQuantity:      plan.PlannedQuantity,
			ActualQuantity:       prog.cut,
			CompletionPercentage: types.Round2(types.Percent(decimal.NewFromInt(prog.cut), decimal.NewFromInt(plan.PlannedQuantity))),
			TargetDate:           types.FormatDate(plan.TargetDate),
			FabricRequirement:    types.Round2(types.OrZero(plan.FabricRequirement)),
			YarnRequirement:      types.Round2(types.OrZero(plan.YarnRequirement)),
			ActivitiesCount:      prog.count,
		}

		switch plan.Status {
		case catalog.PlanPlanned:
			report.PlansByStatus.Planned = append(report.PlansByStatus.Planned, line)
		case catalog.PlanInProgress:
			report.PlansByStatus.InProgress = append(report.PlansByStatus.InProgress, line)
		case catalog.PlanCompleted:
			report.PlansByStatus.Completed = append(report.PlansByStatus.Completed, line)
		default:
			return nil, apperror.NewDataIntegrity("production_plan", "status", string(plan.Status)).
				WithDetail("plan_id", plan.ID)
		}

		totalPlanned += plan.PlannedQuantity
		totalActual += prog.cut
	}

	report.Summary = PlanStatusSummary{
		TotalPlans:           len(plans),
		Planned:              len(report.PlansByStatus.Planned),
		InProgress:           len(report.PlansByStatus.InProgress),
		Completed:            len(report.PlansByStatus.Completed),
		TotalPlannedQuantity: totalPlanned,
		TotalActualQuantity:  totalActual,
		OverallCompletion:    types.Round2(types.Percent(decimal.NewFromInt(totalActual), decimal.NewFromInt(totalPlanned))),
	}
	return report, nil
}

// --- Daily variance ---

// VarianceLine is the gross weight variance of one activity.
type VarianceLine struct {
	ActivityID            int64   `json:"activity_id"`
	ProductionPlanID      int64   `json:"production_plan_id"`
	ProductionPlan        string  `json:"production_plan"`
	ActivityType          string  `json:"activity_type"`
	Quantity              int64   `json:"quantity"`
	GrossWeightCalculated float64 `json:"gross_weight_calculated"`
	GrossWeightActual     float64 `json:"gross_weight_actual"`
	Variance              float64 `json:"variance"`
	VariancePercentage    float64 `json:"variance_percentage"`
	Notes                 *string `json:"notes"`
}

// VarianceSummary totals the day's variance.
type VarianceSummary struct {
	TotalActivities            int     `json:"total_activities"`
	ActivitiesWithVarianceData int     `json:"activities_with_variance_data"`
	TotalAbsoluteVariance      float64 `json:"total_absolute_variance"`
	AverageVariance            float64 `json:"average_variance"`
}

// VarianceReport compares calculated and actual gross weights of one day.
type VarianceReport struct {
	Header
	ReportDate      string          `json:"report_date"`
	Summary         VarianceSummary `json:"summary"`
	VarianceDetails []VarianceLine  `json:"variance_details"`
}

// Table implements Tabular.
func (r *VarianceReport) Table() Table {
	t := Table{
		Title:   r.ReportType + " " + r.ReportDate,
		Columns: []string{"Activity", "Plan", "Type", "Qty", "Calculated (kg)", "Actual (kg)", "Variance", "Variance %", "Notes"},
	}
	for _, v := range r.VarianceDetails {
		notes := ""
		if v.Notes != nil {
			notes = *v.Notes
		}
		t.Rows = append(t.Rows, []any{v.ActivityID, v.ProductionPlan, v.ActivityType, v.Quantity,
			v.GrossWeightCalculated, v.GrossWeightActual, v.Variance, v.VariancePercentage, notes})
	}
	return t
}

// DailyProductionVariance returns gross weight variance of the activities of one date.
func (s *Service) DailyProductionVariance(ctx context.Context, date time.Time) (*VarianceReport, error) {
	return observe(ctx, s, NameProductionVariance, func(ctx context.Context) (*VarianceReport, error) {
		day := types.DateOf(date)
		activities, err := s.store.ListProductionActivities(ctx, ActivityFilter{Date: &day})
		if err != nil {
			return nil, fmt.Errorf("list production activities: %w", err)
		}

		seen := make(map[int64]struct{})
		var planIDs []int64
		for _, a := range activities {
			if _, ok := seen[a.ProductionPlanID]; !ok && a.HasWeights() {
				seen[a.ProductionPlanID] = struct{}{}
				planIDs = append(planIDs, a.ProductionPlanID)
			}
		}
		var plans []catalog.ProductionPlan
		if len(planIDs) > 0 {
			plans, err = s.store.ListProductionPlans(ctx, PlanFilter{IDs: planIDs})
			if err != nil {
				return nil, fmt.Errorf("list production plans: %w", err)
			}
		}
		return buildVariance(day, activities, plans, s.clock()), nil
	})
}

func buildVariance(date time.Time, activities []catalog.ProductionActivity, plans []catalog.ProductionPlan, now time.Time) *VarianceReport {
	planNames := make(map[int64]string, len(plans))
	for _, p := range plans {
		planNames[p.ID] = p.PlanName
	}

	report := &VarianceReport{
		Header:          Header{ReportType: "Daily Production Variance Report", GeneratedAt: now},
		ReportDate:      types.FormatDate(date),
		VarianceDetails: []VarianceLine{},
	}

	totalAbs := decimal.Zero
	for _, a := range activities {
		if !a.HasWeights() {
			continue
		}
		calculated, actual := *a.GrossWeightCalculated, *a.GrossWeightActual
		variance := Variance(actual, calculated)
		totalAbs = totalAbs.Add(variance.Abs())

		planName, ok := planNames[a.ProductionPlanID]
		if !ok {
			planName = unknown
		}
		report.VarianceDetails = append(report.VarianceDetails, VarianceLine{
			ActivityID:            a.ID,
			ProductionPlanID:      a.ProductionPlanID,
			ProductionPlan:        planName,
			ActivityType:          a.ActivityType,
			Quantity:              a.Quantity,
			GrossWeightCalculated: types.Round(calculated, types.WeightVarPlace),
			GrossWeightActual:     types.Round(actual, types.WeightVarPlace),
			Variance:              types.Round(variance, types.WeightVarPlace),
			VariancePercentage:    types.Round(VariancePercent(variance, calculated), types.PercentPlaces),
			Notes:                 a.Notes,
		})
	}

	withData := len(report.VarianceDetails)
	average := decimal.Zero
	if withData > 0 {
		average = totalAbs.Div(decimal.NewFromInt(int64(withData)))
	}
	report.Summary = VarianceSummary{
		TotalActivities:            len(activities),
		ActivitiesWithVarianceData: withData,
		TotalAbsoluteVariance:      types.Round(totalAbs, types.WeightVarPlace),
		AverageVariance:            types.Round(average, types.WeightVarPlace),
	}
	return report
}
