package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/circularity-cli/internal/model"
)

func TestGenerate_AllStrong(t *testing.T) {
	s := &model.Score{
		ID:                 "s1",
		OverallScore:       85,
		GovernanceScore:    60,
		EconomicScore:      90,
		SocialScore:        75,
		EnvironmentalScore: 88,
	}

	p := Generate(s, DefaultOptions())
	require.NotNil(t, p)
	assert.Equal(t, "s1", p.ScoreID)
	assert.Empty(t, p.Recommendations)
	assert.NotNil(t, p.Recommendations)
	assert.Equal(t, PriorityLow, p.Priority)
	assert.Equal(t, "24 mois", p.Timeline)
}

func TestGenerate_AllWeak(t *testing.T) {
	s := &model.Score{ID: "s2", OverallScore: 35}

	p := Generate(s, DefaultOptions())
	require.Len(t, p.Recommendations, 4)
	assert.Equal(t, "Gouvernance", p.Recommendations[0].Category)
	assert.Equal(t, "Économique", p.Recommendations[1].Category)
	assert.Equal(t, "Social", p.Recommendations[2].Category)
	assert.Equal(t, "Environnemental", p.Recommendations[3].Category)
	assert.Equal(t, PriorityMedium, p.Recommendations[2].Priority)
	assert.Equal(t, "ISO 59020:2024", p.Recommendations[1].ISOReference)
	assert.Equal(t, PriorityCritical, p.Priority)
	assert.Equal(t, "6 mois", p.Timeline)
}

func TestGenerate_WithoutEnvironmentalTemplate(t *testing.T) {
	s := &model.Score{OverallScore: 50, GovernanceScore: 70, EconomicScore: 70, SocialScore: 70, EnvironmentalScore: 10}

	p := Generate(s, Options{IncludeEnvironmental: false})
	assert.Empty(t, p.Recommendations)

	p = Generate(s, Options{IncludeEnvironmental: true})
	require.Len(t, p.Recommendations, 1)
	assert.Equal(t, "Environnemental", p.Recommendations[0].Category)
}

func TestGenerate_Deterministic(t *testing.T) {
	s := &model.Score{ID: "s3", OverallScore: 62, GovernanceScore: 40, EconomicScore: 59.99, SocialScore: 61}
	assert.Equal(t, Generate(s, DefaultOptions()), Generate(s, DefaultOptions()))
}

func TestPriorityAndTimeline(t *testing.T) {
	tests := []struct {
		overall  float64
		priority string
		timeline string
	}{
		{0, PriorityCritical, "6 mois"},
		{39.99, PriorityCritical, "6 mois"},
		{40, PriorityHigh, "12 mois"},
		{59.99, PriorityHigh, "12 mois"},
		{60, PriorityMedium, "18 mois"},
		{79.99, PriorityMedium, "18 mois"},
		{80, PriorityLow, "24 mois"},
		{100, PriorityLow, "24 mois"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.priority, Priority(tt.overall), "priority for %v", tt.overall)
		assert.Equal(t, tt.timeline, Timeline(tt.overall), "timeline for %v", tt.overall)
	}
}
