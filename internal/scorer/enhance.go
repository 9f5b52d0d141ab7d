package scorer

import (
	"math"

	"github.com/sells-group/circularity-cli/internal/config"
	"github.com/sells-group/circularity-cli/internal/model"
)

// Sector-default fallback used when the waste valorization rate is unknown.
const (
	defaultValorizationPct  = 50
	valorizationUncertainty = 2
)

// Enhancer applies indicator-driven bonuses to raw dimension scores. Each
// bonus is applied in order and clamped at 100; absent indicators skip their
// bonus. Governance is never enhanced.
type Enhancer struct {
	// LegacyFields selects how legacy/current indicator pairs combine.
	LegacyFields string
}

// bonuses accumulates clamped additions onto a score.
type bonuses float64

func (b *bonuses) add(v float64) {
	*b = bonuses(clamp100(float64(*b) + v))
}

// Economic adjusts the economic dimension.
func (e Enhancer) Economic(raw AbsoluteScore, c *model.Company) AbsoluteScore {
	s := bonuses(raw)
	ind := indicators(c)

	// Waste valorization. Missing data earns the sector-default bonus minus
	// an uncertainty penalty.
	if v := ind.WasteValorizationPct; v != nil {
		s.add(*v / 100 * 12)
	} else {
		s.add(defaultValorizationPct/100.0*12 - valorizationUncertainty)
	}

	if v := ind.LocalPurchasingPct; v != nil {
		s.add(*v / 100 * 8)
	}
	if v := ind.ResponsiblePurchasingPct; v != nil {
		s.add(*v / 100 * 10)
	}
	if positive(ind.PotentialSavingsMAD) {
		s.add(5)
	}
	if v := ind.EquipmentUtilizationPct; v != nil {
		switch {
		case *v >= 80:
			s.add(8)
		case *v >= 60:
			s.add(5)
		}
	}
	if positive(ind.RecycledMaterialsMAD) {
		s.add(7)
	}

	return AbsoluteScore(s)
}

// Social adjusts the social dimension.
func (e Enhancer) Social(raw AbsoluteScore, c *model.Company) AbsoluteScore {
	s := bonuses(raw)
	ind := indicators(c)
	additive := e.LegacyFields == config.LegacyFieldsAdditive

	// Local employment.
	if v := ind.LocalJobsShareLegacy; v != nil && (additive || ind.LocalJobsPct == nil) {
		s.add(*v / 100 * 12)
	}
	if v := ind.LocalJobsPct; v != nil {
		s.add(*v / 100 * 12)
	}

	// Training hours.
	if v := ind.TrainingHoursLegacy; v != nil && (additive || ind.TrainingHoursPerEmployee == nil) {
		s.add(math.Min(20, *v) / 20 * 8)
	}
	if v := ind.TrainingHoursPerEmployee; v != nil {
		switch {
		case *v >= 40:
			s.add(10)
		case *v >= 30:
			s.add(7)
		case *v >= 20:
			s.add(5)
		}
	}

	if positive(ind.HiresPerYear) {
		s.add(5)
	}

	// Gender parity.
	if v := ind.WomenPct; v != nil {
		switch {
		case *v >= 40 && *v <= 60:
			s.add(10)
		case *v >= 30:
			s.add(5)
		}
	}

	return AbsoluteScore(s)
}

// Environmental adjusts the environmental dimension.
func (e Enhancer) Environmental(raw AbsoluteScore, c *model.Company) AbsoluteScore {
	s := bonuses(raw)
	ind := indicators(c)

	// Scope 1+2 emissions per employee.
	if v := ind.EmissionsScope12; v != nil && c.Employees() > 0 {
		perEmployee := *v / float64(c.Employees())
		switch {
		case perEmployee < 5:
			s.add(15)
		case perEmployee < 10:
			s.add(10)
		case perEmployee < 15:
			s.add(5)
		}
	}

	// Hazardous share of total waste.
	if ind.HazardousWaste != nil && positive(ind.TotalWaste) {
		if *ind.HazardousWaste / *ind.TotalWaste * 100 < 5 {
			s.add(10)
		}
	}

	return AbsoluteScore(s)
}

func indicators(c *model.Company) model.Indicators {
	if c == nil {
		return model.Indicators{}
	}
	return c.Indicators
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}
