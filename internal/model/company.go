// Package model holds the domain types shared by the scoring engine, the
// stores and the HTTP surface.
package model

import (
	"errors"
	"time"
)

// ErrNotFound is returned (wrapped) by stores and services when a referenced
// company, score, action plan or benchmark does not exist.
var ErrNotFound = errors.New("not found")

// Company is a company record. Every indicator is optional: a nil pointer
// means "no data", never zero.
type Company struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Sector        string     `json:"sector"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	EmployeeCount *int       `json:"employee_count,omitempty"`
	Indicators    Indicators `json:"indicators"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Indicators are the structured company-level numeric attributes consumed by
// the heuristic enhancers.
type Indicators struct {
	// Economic.
	WasteValorizationPct     *float64 `json:"waste_valorization_pct,omitempty" validate:"omitempty,min=0,max=100"`     // pourcentageValorisation
	LocalPurchasingPct       *float64 `json:"local_purchasing_pct,omitempty" validate:"omitempty,min=0,max=100"`       // partAchatsLocaux
	ResponsiblePurchasingPct *float64 `json:"responsible_purchasing_pct,omitempty" validate:"omitempty,min=0,max=100"` // achatsResponsablesPct
	PotentialSavingsMAD      *float64 `json:"potential_savings_mad,omitempty" validate:"omitempty,min=0"`              // economiePotentielleMad
	EquipmentUtilizationPct  *float64 `json:"equipment_utilization_pct,omitempty" validate:"omitempty,min=0,max=100"`  // tauxUtilisationEqPct
	RecycledMaterialsMAD     *float64 `json:"recycled_materials_mad,omitempty" validate:"omitempty,min=0"`             // matieresRecycleesMad

	// Social. The Legacy fields predate the per-employee / percentage
	// variants and are still accepted from older records.
	LocalJobsShareLegacy     *float64 `json:"local_jobs_share,omitempty" validate:"omitempty,min=0"`            // partEmploisLocaux
	LocalJobsPct             *float64 `json:"local_jobs_pct,omitempty" validate:"omitempty,min=0,max=100"`      // partEmploisLocauxPct
	TrainingHoursLegacy      *float64 `json:"training_hours,omitempty" validate:"omitempty,min=0"`              // heuresFormation
	TrainingHoursPerEmployee *float64 `json:"training_hours_per_employee,omitempty" validate:"omitempty,min=0"` // heuresFormationSalarieAn
	HiresPerYear             *float64 `json:"hires_per_year,omitempty" validate:"omitempty,min=0"`              // recrutementAn
	WomenPct                 *float64 `json:"women_pct,omitempty" validate:"omitempty,min=0,max=100"`           // partFemmesPct

	// Environmental.
	EmissionsScope12 *float64 `json:"emissions_scope12,omitempty" validate:"omitempty,min=0"` // tCO2e
	HazardousWaste   *float64 `json:"hazardous_waste,omitempty" validate:"omitempty,min=0"`   // dechetsDangereux
	TotalWaste       *float64 `json:"total_waste,omitempty" validate:"omitempty,min=0"`       // dechetsTotaux

	// Resource consumption. Stored for reporting, not scored.
	ElectricityKWh *float64 `json:"electricity_kwh,omitempty" validate:"omitempty,min=0"`
	GasKWh         *float64 `json:"gas_kwh,omitempty" validate:"omitempty,min=0"`
	WaterM3        *float64 `json:"water_m3,omitempty" validate:"omitempty,min=0"`
	FuelLitres     *float64 `json:"fuel_litres,omitempty" validate:"omitempty,min=0"`
}

// Employees returns the employee count, or 0 when unknown.
func (c *Company) Employees() int {
	if c == nil || c.EmployeeCount == nil {
		return 0
	}
	return *c.EmployeeCount
}

// CompanyFilter specifies criteria for listing companies.
type CompanyFilter struct {
	Sector string `json:"sector,omitempty"`
	Query  string `json:"query,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
