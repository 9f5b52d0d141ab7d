package store

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/circularity-cli/internal/model"
)

const (
	companyColumns   = `id, name, sector, email, phone, employee_count, indicators, created_at`
	scoreColumns     = `id, company_id, overall_score, governance_score, general_governance_score, economic_score, social_score, environmental_score, maturity_level, responses, created_at`
	planColumns      = `id, score_id, recommendations, priority, timeline, created_at`
	benchmarkColumns = `id, sector, employee_range, indicator, category, average_value, unit, source, year, updated_at`
)

// scannable is satisfied by *sql.Row, *sql.Rows, pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// Scan errors are returned unwrapped so callers can map their driver's
// no-rows error to model.ErrNotFound.

func scanCompany(row scannable) (*model.Company, error) {
	var c model.Company
	var indicators []byte
	if err := row.Scan(&c.ID, &c.Name, &c.Sector, &c.Email, &c.Phone, &c.EmployeeCount, &indicators, &c.CreatedAt); err != nil {
		return nil, err
	}
	if len(indicators) > 0 {
		if err := json.Unmarshal(indicators, &c.Indicators); err != nil {
			return nil, eris.Wrapf(err, "store: unmarshal indicators for company %s", c.ID)
		}
	}
	return &c, nil
}

func scanScore(row scannable) (*model.Score, error) {
	var s model.Score
	var responses []byte
	err := row.Scan(&s.ID, &s.CompanyID, &s.OverallScore, &s.GovernanceScore, &s.GeneralGovernanceScore,
		&s.EconomicScore, &s.SocialScore, &s.EnvironmentalScore, &s.MaturityLevel, &responses, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Responses = json.RawMessage(responses)
	return &s, nil
}

func scanPlan(row scannable) (*model.ActionPlan, error) {
	var p model.ActionPlan
	var recs []byte
	if err := row.Scan(&p.ID, &p.ScoreID, &recs, &p.Priority, &p.Timeline, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(recs, &p.Recommendations); err != nil {
		return nil, eris.Wrapf(err, "store: unmarshal recommendations for plan %s", p.ID)
	}
	if p.Recommendations == nil {
		p.Recommendations = []model.Recommendation{}
	}
	return &p, nil
}

func scanBenchmark(row scannable) (*model.SectorBenchmark, error) {
	var b model.SectorBenchmark
	err := row.Scan(&b.ID, &b.Sector, &b.EmployeeRange, &b.Indicator, &b.Category, &b.AverageValue,
		&b.Unit, &b.Source, &b.Year, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// encodeResponses returns the stored responses blob, defaulting to an empty
// object.
func encodeResponses(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}

func encodeRecommendations(recs []model.Recommendation) ([]byte, error) {
	if recs == nil {
		recs = []model.Recommendation{}
	}
	b, err := json.Marshal(recs)
	return b, eris.Wrap(err, "store: marshal recommendations")
}
