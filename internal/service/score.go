package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/circularity-cli/internal/model"
	"github.com/sells-group/circularity-cli/internal/plan"
	"github.com/sells-group/circularity-cli/internal/scorer"
	"github.com/sells-group/circularity-cli/internal/store"
)

// CalculateScore scores a company's questionnaire answers and persists the
// result. responses is either keyed by dimension, each dimension holding a
// [{id, value}] list or a {questionID: answer} map, or a flat
// {questionID: answer} map routed to dimensions through the catalog. Map
// answers are normalized through the catalog; list values must already be
// on the 0-5 scale. Nothing is persisted when scoring fails.
func (s *Service) CalculateScore(ctx context.Context, companyID string, responses json.RawMessage) (*model.Score, error) {
	score, err := s.EvaluateScore(ctx, companyID, responses)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateScore(ctx, score); err != nil {
		return nil, err
	}

	zap.L().Info("service: score calculated",
		zap.String("company_id", score.CompanyID),
		zap.String("score_id", score.ID),
		zap.Float64("overall", score.OverallScore),
		zap.String("maturity", score.MaturityLevel),
	)
	return score, nil
}

// EvaluateScore computes a score like CalculateScore without storing it.
// The returned score has no ID.
func (s *Service) EvaluateScore(ctx context.Context, companyID string, responses json.RawMessage) (*model.Score, error) {
	company, err := s.store.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	dims, err := s.ParseResponses(responses)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Compute(company, dims)
	if err != nil {
		return nil, eris.Wrapf(err, "service: compute score for company %s", companyID)
	}

	blob, err := compactJSON(responses)
	if err != nil {
		return nil, err
	}

	return &model.Score{
		CompanyID:              company.ID,
		OverallScore:           float64(result.OverallScore),
		GovernanceScore:        float64(result.GovernanceScore),
		GeneralGovernanceScore: float64(result.GeneralGovernanceScore),
		EconomicScore:          float64(result.EconomicScore),
		SocialScore:            float64(result.SocialScore),
		EnvironmentalScore:     float64(result.EnvironmentalScore),
		MaturityLevel:          result.MaturityLevel,
		Responses:              blob,
	}, nil
}

// ParseResponses converts a responses payload into per-dimension 0-5
// responses. Malformed payloads wrap scorer.ErrInvalidInput.
func (s *Service) ParseResponses(raw json.RawMessage) (model.DimensionResponses, error) {
	var out model.DimensionResponses

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return out, eris.Wrap(scorer.ErrInvalidInput, "service: responses must be a JSON object")
	}

	if !dimensionKeyed(top) {
		answers, err := decodeAnswers(raw)
		if err != nil {
			return out, err
		}
		for _, r := range s.catalog.NormalizeAnswers(answers) {
			q, ok := s.catalog.Question(r.ID)
			if !ok {
				zap.L().Warn("service: answer to unknown question ignored", zap.String("question_id", r.ID))
				continue
			}
			if d, ok := q.Category.Dimension(); ok {
				appendResponse(&out, d, r)
			}
		}
		return out, nil
	}

	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		d := model.Dimension(key)
		if !d.Valid() {
			continue
		}
		rs, err := s.parseDimension(d, top[key])
		if err != nil {
			return out, err
		}
		for _, r := range rs {
			appendResponse(&out, d, r)
		}
	}
	return out, nil
}

func (s *Service) parseDimension(d model.Dimension, raw json.RawMessage) ([]model.QuestionResponse, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var list []model.QuestionResponse
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, eris.Wrapf(scorer.ErrInvalidInput, "service: %s responses: %v", d, err)
		}
		return list, nil
	case '{':
		answers, err := decodeAnswers(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "service: %s responses", d)
		}
		return s.catalog.NormalizeAnswers(answers), nil
	default:
		return nil, eris.Wrapf(scorer.ErrInvalidInput, "service: %s responses must be a list or an object", d)
	}
}

// dimensionKeyed reports whether the payload is grouped by dimension rather
// than a flat answer map.
func dimensionKeyed(top map[string]json.RawMessage) bool {
	for k := range top {
		if model.Dimension(k).Valid() || model.Category(k) == model.CategoryLogistics {
			return true
		}
	}
	return false
}

func decodeAnswers(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var answers map[string]any
	if err := dec.Decode(&answers); err != nil {
		return nil, eris.Wrapf(scorer.ErrInvalidInput, "service: decode answers: %v", err)
	}
	return answers, nil
}

func appendResponse(out *model.DimensionResponses, d model.Dimension, r model.QuestionResponse) {
	switch d {
	case model.DimensionGovernance:
		out.Governance = append(out.Governance, r)
	case model.DimensionEconomic:
		out.Economic = append(out.Economic, r)
	case model.DimensionSocial:
		out.Social = append(out.Social, r)
	case model.DimensionEnvironmental:
		out.Environmental = append(out.Environmental, r)
	}
}

func compactJSON(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return json.RawMessage("{}"), nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, eris.Wrap(scorer.ErrInvalidInput, "service: responses are not valid JSON")
	}
	return buf.Bytes(), nil
}

// GetScore returns a score with its action plan, if one was generated.
func (s *Service) GetScore(ctx context.Context, id string) (*model.Score, error) {
	return s.store.GetScore(ctx, id)
}

// CompanyScores lists a company's scores, newest first.
func (s *Service) CompanyScores(ctx context.Context, companyID string) ([]model.Score, error) {
	if _, err := s.store.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	scores, err := s.store.ListScores(ctx, store.ScoreFilter{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	if scores == nil {
		scores = []model.Score{}
	}
	return scores, nil
}

// GenerateActionPlan derives and stores the action plan for a score. A score
// has at most one plan: when it already has one, that plan is returned.
func (s *Service) GenerateActionPlan(ctx context.Context, scoreID string) (*model.ActionPlan, error) {
	score, err := s.store.GetScore(ctx, scoreID)
	if err != nil {
		return nil, err
	}
	if score.ActionPlan != nil {
		return score.ActionPlan, nil
	}

	p := plan.Generate(score, s.opts.Plan)
	if err := s.store.CreateActionPlan(ctx, p); err != nil {
		// A concurrent request may have created the plan first.
		if existing, getErr := s.store.GetActionPlanByScore(ctx, scoreID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	zap.L().Info("service: action plan generated",
		zap.String("score_id", scoreID),
		zap.String("plan_id", p.ID),
		zap.Int("recommendations", len(p.Recommendations)),
		zap.String("priority", p.Priority),
	)
	return p, nil
}

// ComparativeRequest asks for a comparison of indicator values against the
// sector averages of the company's cohort.
type ComparativeRequest struct {
	CompanyID string                       `json:"company_id" validate:"required"`
	Category  string                       `json:"category,omitempty"`
	Responses []scorer.ComparativeResponse `json:"responses" validate:"dive"`
}

// ComparativeScore compares indicator values with sector benchmarks.
func (s *Service) ComparativeScore(ctx context.Context, req ComparativeRequest) (*scorer.ComparativeResult, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, validationError(err)
	}

	company, err := s.store.GetCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	res, err := scorer.ComputeComparativeScore(ctx, company, req.Responses, s.BenchmarkLookup(), s.opts.Scoring.MaxConcurrentLookups)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, eris.Wrapf(err, "service: comparative score for company %s", req.CompanyID)
	}

	zap.L().Info("service: comparative score computed",
		zap.String("company_id", company.ID),
		zap.String("category", req.Category),
		zap.Float64("score", float64(res.Score)),
		zap.Int("compared", len(res.Details)),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}
