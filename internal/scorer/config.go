// Package scorer implements the circularity scoring engine: dimension
// aggregation, heuristic enhancement from company indicators, weighted
// composition and the sector-comparative variant.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/circularity-cli/internal/config"
)

// Weights are the composition coefficients. Governance and GeneralGovernance
// split the governance share between sector-specific and cross-sector
// questions.
type Weights struct {
	Environmental     float64 `json:"environmental"`
	Economic          float64 `json:"economic"`
	Social            float64 `json:"social"`
	Governance        float64 `json:"governance"`
	GeneralGovernance float64 `json:"general_governance"`
}

// DefaultWeights are the ISO 59000-inspired weights (sum = 1.0).
var DefaultWeights = Weights{
	Environmental:     0.35,
	Economic:          0.30,
	Social:            0.20,
	Governance:        0.10,
	GeneralGovernance: 0.05,
}

// GovernanceShare is the combined governance coefficient.
func (w Weights) GovernanceShare() float64 {
	return w.Governance + w.GeneralGovernance
}

// Sum returns the sum of all coefficients.
func (w Weights) Sum() float64 {
	return w.Environmental + w.Economic + w.Social + w.GovernanceShare()
}

// ValidateWeights checks that weights are non-negative and sum to 1.
func ValidateWeights(w Weights) error {
	var errs []string

	weights := map[string]float64{
		"environmental":      w.Environmental,
		"economic":           w.Economic,
		"social":             w.Social,
		"governance":         w.Governance,
		"general_governance": w.GeneralGovernance,
	}
	for name, v := range weights {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if sum := w.Sum(); math.Abs(sum-1) > 1e-9 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1, got %.4f", sum))
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: weights validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DefaultScoringConfig returns the scoring policy used when none is given.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		InvalidValues:        config.InvalidValuesReject,
		LegacyFields:         config.LegacyFieldsPreferCurrent,
		MaxConcurrentLookups: 8,
	}
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// clamp100 bounds v to [0, 100].
func clamp100(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
