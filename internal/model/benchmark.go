package model

import "time"

// SectorBenchmark is a sector / size-bracket average for one indicator,
// unique on (Sector, EmployeeRange, Indicator).
type SectorBenchmark struct {
	ID            string    `json:"id"`
	Sector        string    `json:"sector"`
	EmployeeRange string    `json:"employee_range"`
	Indicator     string    `json:"indicator"`
	Category      string    `json:"category"`
	AverageValue  float64   `json:"average_value"`
	Unit          string    `json:"unit,omitempty"`
	Source        string    `json:"source,omitempty"`
	Year          int       `json:"year"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BenchmarkFilter specifies criteria for listing benchmarks.
type BenchmarkFilter struct {
	Sector   string `json:"sector,omitempty"`
	Category string `json:"category,omitempty"`
}

// Employee range buckets used to select the benchmark cohort.
const (
	EmployeeRange1to10    = "1-10"
	EmployeeRange11to50   = "11-50"
	EmployeeRange51to200  = "51-200"
	EmployeeRange201to500 = "201-500"
	EmployeeRange500Plus  = "500+"
)

// EmployeeRange buckets an employee count. Unknown or non-positive counts
// fall into the smallest bucket.
func EmployeeRange(count int) string {
	switch {
	case count <= 10:
		return EmployeeRange1to10
	case count <= 50:
		return EmployeeRange11to50
	case count <= 200:
		return EmployeeRange51to200
	case count <= 500:
		return EmployeeRange201to500
	default:
		return EmployeeRange500Plus
	}
}
