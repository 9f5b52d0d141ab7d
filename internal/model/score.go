package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Dimension is one of the four assessment axes.
type Dimension string

const (
	DimensionGovernance    Dimension = "governance"
	DimensionEconomic      Dimension = "economic"
	DimensionSocial        Dimension = "social"
	DimensionEnvironmental Dimension = "environmental"
)

// Dimensions lists the four dimensions in reporting order.
var Dimensions = []Dimension{
	DimensionGovernance,
	DimensionEconomic,
	DimensionSocial,
	DimensionEnvironmental,
}

// Valid reports whether d is one of the four dimensions.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionGovernance, DimensionEconomic, DimensionSocial, DimensionEnvironmental:
		return true
	}
	return false
}

// QuestionResponse is one normalized answer on the 0-5 scale. Invalid is set
// when the submitted value could not be read as a number (missing, null,
// non-numeric text); the aggregator's policy decides what happens to it.
type QuestionResponse struct {
	ID      string  `json:"id"`
	Value   float64 `json:"value"`
	Invalid bool    `json:"-"`
}

// UnmarshalJSON accepts numbers, numeric strings and booleans (1/0) for
// value. Anything else marks the response Invalid instead of failing the
// whole payload.
func (r *QuestionResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    string          `json:"id"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID = raw.ID
	r.Value, r.Invalid = 0, false
	v, ok := ParseNumber(raw.Value)
	if !ok {
		r.Invalid = true
		return nil
	}
	r.Value = v
	return nil
}

// ParseNumber reads a JSON scalar as a float64.
func ParseNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// DimensionResponses groups responses by dimension.
type DimensionResponses struct {
	Governance    []QuestionResponse `json:"governance"`
	Economic      []QuestionResponse `json:"economic"`
	Social        []QuestionResponse `json:"social"`
	Environmental []QuestionResponse `json:"environmental"`
}

// For returns the responses for a dimension.
func (r DimensionResponses) For(d Dimension) []QuestionResponse {
	switch d {
	case DimensionGovernance:
		return r.Governance
	case DimensionEconomic:
		return r.Economic
	case DimensionSocial:
		return r.Social
	case DimensionEnvironmental:
		return r.Environmental
	}
	return nil
}

// Score is a persisted scoring result. Scores are immutable once created.
type Score struct {
	ID                     string          `json:"id"`
	CompanyID              string          `json:"company_id"`
	OverallScore           float64         `json:"overall_score"`
	GovernanceScore        float64         `json:"governance_score"`
	GeneralGovernanceScore float64         `json:"general_governance_score"`
	EconomicScore          float64         `json:"economic_score"`
	SocialScore            float64         `json:"social_score"`
	EnvironmentalScore     float64         `json:"environmental_score"`
	MaturityLevel          string          `json:"maturity_level"`
	Responses              json.RawMessage `json:"responses"`
	CreatedAt              time.Time       `json:"created_at"`

	// ActionPlan is populated by read paths that join the plan.
	ActionPlan *ActionPlan `json:"action_plan,omitempty"`
}

// DimensionScore returns the stored score for a dimension.
func (s *Score) DimensionScore(d Dimension) float64 {
	switch d {
	case DimensionGovernance:
		return s.GovernanceScore
	case DimensionEconomic:
		return s.EconomicScore
	case DimensionSocial:
		return s.SocialScore
	case DimensionEnvironmental:
		return s.EnvironmentalScore
	}
	return 0
}
