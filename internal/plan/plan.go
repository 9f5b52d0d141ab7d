// Package plan derives action plans from persisted scores.
package plan

import (
	"github.com/sells-group/circularity-cli/internal/model"
)

// Dimensions scoring below this threshold receive a recommendation.
const RecommendationThreshold = 60

// Priority tiers.
const (
	PriorityCritical = "Critique"
	PriorityHigh     = "Haute"
	PriorityMedium   = "Moyenne"
	PriorityLow      = "Faible"
)

// Options controls plan generation.
type Options struct {
	// IncludeEnvironmental adds the environmental template. When false,
	// environmental weaknesses produce no recommendation.
	IncludeEnvironmental bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{IncludeEnvironmental: true}
}

type template struct {
	dimension model.Dimension
	rec       model.Recommendation
}

// templates are evaluated in this order.
var templates = []template{
	{model.DimensionGovernance, model.Recommendation{
		Category:     "Gouvernance",
		Title:        "Mettre en place une politique formelle d'économie circulaire",
		Description:  "Définir une stratégie claire avec objectifs mesurables conformes à ISO 59004",
		Priority:     PriorityHigh,
		ISOReference: "ISO 59004:2024",
	}},
	{model.DimensionEconomic, model.Recommendation{
		Category:     "Économique",
		Title:        "Optimiser les flux de matières et réduire les déchets",
		Description:  "Identifier les opportunités de valorisation selon ISO 59020",
		Priority:     PriorityHigh,
		ISOReference: "ISO 59020:2024",
	}},
	{model.DimensionSocial, model.Recommendation{
		Category:     "Social",
		Title:        "Former les équipes aux principes de l'économie circulaire",
		Description:  "Sensibiliser et impliquer le personnel dans la démarche",
		Priority:     PriorityMedium,
		ISOReference: "ISO 59004:2024",
	}},
	{model.DimensionEnvironmental, model.Recommendation{
		Category:     "Environnemental",
		Title:        "Mesurer et réduire l'empreinte environnementale des opérations",
		Description:  "Établir un bilan des flux de ressources, des émissions et des déchets dangereux selon ISO 59020",
		Priority:     PriorityHigh,
		ISOReference: "ISO 59020:2024",
	}},
}

// Generate derives an action plan from a score. It is deterministic and does
// not assign an ID or timestamp.
func Generate(score *model.Score, opts Options) *model.ActionPlan {
	recs := make([]model.Recommendation, 0, len(templates))
	for _, t := range templates {
		if t.dimension == model.DimensionEnvironmental && !opts.IncludeEnvironmental {
			continue
		}
		if score.DimensionScore(t.dimension) < RecommendationThreshold {
			recs = append(recs, t.rec)
		}
	}

	return &model.ActionPlan{
		ScoreID:         score.ID,
		Recommendations: recs,
		Priority:        Priority(score.OverallScore),
		Timeline:        Timeline(score.OverallScore),
	}
}

// Priority maps a global score to a priority tier.
func Priority(overall float64) string {
	switch {
	case overall < 40:
		return PriorityCritical
	case overall < 60:
		return PriorityHigh
	case overall < 80:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Timeline maps a global score to an implementation horizon.
func Timeline(overall float64) string {
	switch {
	case overall < 40:
		return "6 mois"
	case overall < 60:
		return "12 mois"
	case overall < 80:
		return "18 mois"
	default:
		return "24 mois"
	}
}
