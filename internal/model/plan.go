package model

import "time"

// Recommendation is one action-plan entry.
type Recommendation struct {
	Category     string `json:"category"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Priority     string `json:"priority"`
	ISOReference string `json:"iso_reference"`
}

// ActionPlan is derived from exactly one Score and never mutated.
type ActionPlan struct {
	ID              string           `json:"id"`
	ScoreID         string           `json:"score_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Priority        string           `json:"priority"`
	Timeline        string           `json:"timeline"`
	CreatedAt       time.Time        `json:"created_at"`
}
