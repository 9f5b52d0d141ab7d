package scorer

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/circularity-cli/internal/config"
	"github.com/sells-group/circularity-cli/internal/model"
)

// Maturity levels derived from the global score.
const (
	MaturityAdvanced     = "Avancé"
	MaturityIntermediate = "Intermédiaire"
	MaturityEmerging     = "Émergent"
	MaturityInitial      = "Initial"
)

// Result is the outcome of one scoring computation. Scores are rounded to
// two decimals.
type Result struct {
	OverallScore           AbsoluteScore `json:"overall_score"`
	GovernanceScore        AbsoluteScore `json:"governance_score"`
	GeneralGovernanceScore AbsoluteScore `json:"general_governance_score"`
	EconomicScore          AbsoluteScore `json:"economic_score"`
	SocialScore            AbsoluteScore `json:"social_score"`
	EnvironmentalScore     AbsoluteScore `json:"environmental_score"`
	MaturityLevel          string        `json:"maturity_level"`
}

// GeneralQuestionFunc reports whether a governance question belongs to the
// cross-sector questionnaire.
type GeneralQuestionFunc func(id string) bool

// Engine computes scores. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	cfg       config.ScoringConfig
	weights   Weights
	enhancer  Enhancer
	isGeneral GeneralQuestionFunc
}

// NewEngine creates an Engine. A nil isGeneral treats ids prefixed with
// "gen_" as cross-sector questions.
func NewEngine(cfg config.ScoringConfig, isGeneral GeneralQuestionFunc) *Engine {
	if isGeneral == nil {
		isGeneral = func(id string) bool { return strings.HasPrefix(id, "gen_") }
	}
	return &Engine{
		cfg:       cfg,
		weights:   DefaultWeights,
		enhancer:  Enhancer{LegacyFields: cfg.LegacyFields},
		isGeneral: isGeneral,
	}
}

// ComputeScore scores responses for a company with the default policy.
func ComputeScore(company *model.Company, responses model.DimensionResponses) (*Result, error) {
	return NewEngine(DefaultScoringConfig(), nil).Compute(company, responses)
}

// Compute aggregates, enhances and composes the four dimension scores.
func (e *Engine) Compute(company *model.Company, responses model.DimensionResponses) (*Result, error) {
	var general, sector []model.QuestionResponse
	for _, r := range responses.Governance {
		if e.isGeneral(r.ID) {
			general = append(general, r)
		} else {
			sector = append(sector, r)
		}
	}

	generalScore, err := DimensionScore(general, e.cfg.InvalidValues)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: general governance")
	}
	governanceScore, err := DimensionScore(sector, e.cfg.InvalidValues)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: governance")
	}
	economicRaw, err := DimensionScore(responses.Economic, e.cfg.InvalidValues)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: economic")
	}
	socialRaw, err := DimensionScore(responses.Social, e.cfg.InvalidValues)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: social")
	}
	environmentalRaw, err := DimensionScore(responses.Environmental, e.cfg.InvalidValues)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: environmental")
	}

	scores := DimensionScores{
		Governance:        governanceScore,
		GeneralGovernance: generalScore,
		Economic:          e.enhancer.Economic(economicRaw, company),
		Social:            e.enhancer.Social(socialRaw, company),
		Environmental:     e.enhancer.Environmental(environmentalRaw, company),
	}
	overall := Compose(scores, e.weights)

	zap.L().Debug("scorer: computed scores",
		zap.Float64("governance", float64(scores.Governance)),
		zap.Float64("general_governance", float64(scores.GeneralGovernance)),
		zap.Float64("economic", float64(scores.Economic)),
		zap.Float64("social", float64(scores.Social)),
		zap.Float64("environmental", float64(scores.Environmental)),
		zap.Float64("overall", float64(overall)),
	)

	return &Result{
		OverallScore:           overall,
		GovernanceScore:        AbsoluteScore(round2(float64(scores.Governance))),
		GeneralGovernanceScore: AbsoluteScore(round2(float64(scores.GeneralGovernance))),
		EconomicScore:          AbsoluteScore(round2(float64(scores.Economic))),
		SocialScore:            AbsoluteScore(round2(float64(scores.Social))),
		EnvironmentalScore:     AbsoluteScore(round2(float64(scores.Environmental))),
		MaturityLevel:          MaturityLevel(overall),
	}, nil
}

// MaturityLevel classifies a global score.
func MaturityLevel(overall AbsoluteScore) string {
	switch {
	case overall >= 80:
		return MaturityAdvanced
	case overall >= 60:
		return MaturityIntermediate
	case overall >= 40:
		return MaturityEmerging
	default:
		return MaturityInitial
	}
}
