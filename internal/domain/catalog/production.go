package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"anthrilo/internal/core/apperror"
)

// PlanStatus is the lifecycle state of a production plan.
type PlanStatus string

const (
	PlanPlanned    PlanStatus = "PLANNED"
	PlanInProgress PlanStatus = "IN_PROGRESS"
	PlanCompleted  PlanStatus = "COMPLETED"
)

// PlanStatuses lists every status in lifecycle order.
var PlanStatuses = []PlanStatus{PlanPlanned, PlanInProgress, PlanCompleted}

// ParsePlanStatus converts a stored status into the closed enum.
// Any value outside the set is a data-integrity error.
func ParsePlanStatus(s string) (PlanStatus, error) {
	switch PlanStatus(s) {
	case PlanPlanned, PlanInProgress, PlanCompleted:
		return PlanStatus(s), nil
	default:
		return "", apperror.NewDataIntegrity("production_plan", "status", s)
	}
}

// String implements fmt.Stringer.
func (s PlanStatus) String() string {
	return string(s)
}

// Scan implements sql.Scanner so that an out-of-set value fails at read time.
func (s *PlanStatus) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		raw = ""
	default:
		return fmt.Errorf("plan status: unsupported type %T", src)
	}
	parsed, err := ParsePlanStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Activity types recorded against a plan.
const (
	ActivityCutting   = "CUTTING"
	ActivityStitching = "STITCHING"
	ActivityFinishing = "FINISHING"
	ActivityPacking   = "PACKING"
)

// ProductionPlan is a planned garment production run.
type ProductionPlan struct {
	ID                int64            `db:"id" json:"id"`
	PlanName          string           `db:"plan_name" json:"plan_name"`
	GarmentID         int64            `db:"garment_id" json:"garment_id"`
	PlannedQuantity   int64            `db:"planned_quantity" json:"planned_quantity"`
	TargetDate        time.Time        `db:"target_date" json:"target_date"`
	Status            PlanStatus       `db:"status" json:"status"`
	FabricRequirement *decimal.Decimal `db:"fabric_requirement" json:"fabric_requirement,omitempty"`
	YarnRequirement   *decimal.Decimal `db:"yarn_requirement" json:"yarn_requirement,omitempty"`
}

// ProductionActivity is one shop-floor activity logged against a plan.
type ProductionActivity struct {
	ID               int64     `db:"id" json:"id"`
	ProductionPlanID int64     `db:"production_plan_id" json:"production_plan_id"`
	ActivityType     string    `db:"activity_type" json:"activity_type"`
	ActivityDate     time.Time `db:"activity_date" json:"activity_date"`
	Quantity         int64     `db:"quantity" json:"quantity"`

	// Gross weights in kg. Variance is only defined when both are present.
	GrossWeightCalculated *decimal.Decimal `db:"gross_weight_calculated" json:"gross_weight_calculated,omitempty"`
	GrossWeightActual     *decimal.Decimal `db:"gross_weight_actual" json:"gross_weight_actual,omitempty"`

	Notes *string `db:"notes" json:"notes,omitempty"`
}

// HasWeights reports whether both gross weights were recorded.
func (a ProductionActivity) HasWeights() bool {
	return a.GrossWeightCalculated != nil && a.GrossWeightActual != nil
}
