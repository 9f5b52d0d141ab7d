package scorer

// DimensionScores are the enhanced per-dimension scores fed to the composer.
type DimensionScores struct {
	Governance        AbsoluteScore `json:"governance"`
	GeneralGovernance AbsoluteScore `json:"general_governance"`
	Economic          AbsoluteScore `json:"economic"`
	Social            AbsoluteScore `json:"social"`
	Environmental     AbsoluteScore `json:"environmental"`
}

// Compose combines the dimension scores into the global score, splitting the
// governance share between sector-specific and cross-sector governance.
// Inputs are expected in [0, 100]; the result is rounded to two decimals.
func Compose(s DimensionScores, w Weights) AbsoluteScore {
	total := float64(s.Environmental)*w.Environmental +
		float64(s.Economic)*w.Economic +
		float64(s.Social)*w.Social +
		float64(s.Governance)*w.Governance +
		float64(s.GeneralGovernance)*w.GeneralGovernance
	return AbsoluteScore(clamp100(round2(total)))
}

// WeightedAverage is the simpler composition without the governance split:
// the whole governance share applies to a single governance score.
func WeightedAverage(environmental, economic, social, governance AbsoluteScore, w Weights) AbsoluteScore {
	total := float64(environmental)*w.Environmental +
		float64(economic)*w.Economic +
		float64(social)*w.Social +
		float64(governance)*w.GovernanceShare()
	return AbsoluteScore(clamp100(round2(total)))
}
