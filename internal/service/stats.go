package service

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/circularity-cli/internal/model"
	"github.com/sells-group/circularity-cli/internal/store"
)

const (
	recentCompaniesLimit = 10
	topPerformersLimit   = 10
	trendMonths          = 6
)

// StatsOptions configures a dashboard statistics request.
type StatsOptions struct {
	// UseDemoData returns the fixed demonstration data set instead of
	// reading the store.
	UseDemoData bool `json:"use_demo_data"`
}

// DashboardStats is the administration dashboard summary.
type DashboardStats struct {
	TotalCompanies     int             `json:"total_companies"`
	TotalScores        int             `json:"total_scores"`
	TotalQuestions     int             `json:"total_questions"`
	RecentCompanies    []RecentCompany `json:"recent_companies"`
	ScoresByMonth      []MonthlyScores `json:"scores_by_month"`
	SectorDistribution []SectorStats   `json:"sector_distribution"`
	AverageScores      AverageScores   `json:"average_scores"`
	PerformanceTrends  []MonthlyTrend  `json:"performance_trends"`
	TopPerformers      []TopPerformer  `json:"top_performers"`
	Demo               bool            `json:"demo"`
}

// RecentCompany is a recently registered company with its latest score.
type RecentCompany struct {
	model.Company
	LatestScore *model.Score `json:"latest_score,omitempty"`
}

// MonthlyScores counts and averages the scores created in a month
// ("2006-01").
type MonthlyScores struct {
	Month        string  `json:"month"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

// SectorStats summarizes a sector from each company's latest score.
type SectorStats struct {
	Sector       string  `json:"sector"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

// AverageScores are the mean scores over every stored score.
type AverageScores struct {
	Global        float64 `json:"global"`
	Governance    float64 `json:"governance"`
	Economic      float64 `json:"economic"`
	Social        float64 `json:"social"`
	Environmental float64 `json:"environmental"`
}

// MonthlyTrend is the mean of each dimension over one month.
type MonthlyTrend struct {
	Month         string  `json:"month"`
	Governance    float64 `json:"governance"`
	Economic      float64 `json:"economic"`
	Social        float64 `json:"social"`
	Environmental float64 `json:"environmental"`
}

// TopPerformer ranks a company by its latest global score.
type TopPerformer struct {
	Rank         int     `json:"rank"`
	CompanyID    string  `json:"company_id,omitempty"`
	CompanyName  string  `json:"company_name"`
	Sector       string  `json:"sector"`
	OverallScore float64 `json:"overall_score"`
}

// DashboardStats computes the dashboard summary.
func (s *Service) DashboardStats(ctx context.Context, opts StatsOptions) (*DashboardStats, error) {
	if opts.UseDemoData {
		return DemoStats(s.now()), nil
	}

	companies, err := s.store.ListCompanies(ctx, model.CompanyFilter{})
	if err != nil {
		return nil, err
	}
	scores, err := s.store.ListScores(ctx, store.ScoreFilter{})
	if err != nil {
		return nil, err
	}

	return buildStats(companies, scores, s.catalog.Count()), nil
}

// buildStats aggregates companies (newest first) and scores (newest first).
func buildStats(companies []model.Company, scores []model.Score, questions int) *DashboardStats {
	latest := make(map[string]*model.Score, len(companies))
	for i := range scores {
		sc := &scores[i]
		if _, ok := latest[sc.CompanyID]; !ok {
			latest[sc.CompanyID] = sc
		}
	}

	out := &DashboardStats{
		TotalCompanies:     len(companies),
		TotalScores:        len(scores),
		TotalQuestions:     questions,
		RecentCompanies:    []RecentCompany{},
		SectorDistribution: []SectorStats{},
		TopPerformers:      []TopPerformer{},
	}

	for i := 0; i < len(companies) && i < recentCompaniesLimit; i++ {
		out.RecentCompanies = append(out.RecentCompanies, RecentCompany{
			Company:     companies[i],
			LatestScore: latest[companies[i].ID],
		})
	}

	out.ScoresByMonth, out.PerformanceTrends, out.AverageScores = monthly(scores)

	type sectorAcc struct {
		count, scored int
		total         float64
	}
	sectors := map[string]*sectorAcc{}
	var order []string
	for _, c := range companies {
		acc, ok := sectors[c.Sector]
		if !ok {
			acc = &sectorAcc{}
			sectors[c.Sector] = acc
			order = append(order, c.Sector)
		}
		acc.count++
		if sc, ok := latest[c.ID]; ok {
			acc.total += sc.OverallScore
			acc.scored++
		}
	}
	sort.Strings(order)
	for _, name := range order {
		acc := sectors[name]
		st := SectorStats{Sector: name, Count: acc.count}
		if acc.scored > 0 {
			st.AverageScore = round2(acc.total / float64(acc.scored))
		}
		out.SectorDistribution = append(out.SectorDistribution, st)
	}

	for _, c := range companies {
		if sc, ok := latest[c.ID]; ok {
			out.TopPerformers = append(out.TopPerformers, TopPerformer{
				CompanyID:    c.ID,
				CompanyName:  c.Name,
				Sector:       c.Sector,
				OverallScore: sc.OverallScore,
			})
		}
	}
	sort.SliceStable(out.TopPerformers, func(i, j int) bool {
		return out.TopPerformers[i].OverallScore > out.TopPerformers[j].OverallScore
	})
	if len(out.TopPerformers) > topPerformersLimit {
		out.TopPerformers = out.TopPerformers[:topPerformersLimit]
	}
	for i := range out.TopPerformers {
		out.TopPerformers[i].Rank = i + 1
	}

	return out
}

// monthly buckets scores by creation month, oldest month first. Trends keep
// the last six months that have scores.
func monthly(scores []model.Score) ([]MonthlyScores, []MonthlyTrend, AverageScores) {
	type monthAcc struct {
		count                       int
		overall, gov, eco, soc, env float64
	}
	months := map[string]*monthAcc{}
	var total monthAcc
	for _, sc := range scores {
		key := sc.CreatedAt.UTC().Format("2006-01")
		acc, ok := months[key]
		if !ok {
			acc = &monthAcc{}
			months[key] = acc
		}
		for _, a := range []*monthAcc{acc, &total} {
			a.count++
			a.overall += sc.OverallScore
			a.gov += sc.GovernanceScore
			a.eco += sc.EconomicScore
			a.soc += sc.SocialScore
			a.env += sc.EnvironmentalScore
		}
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byMonth := make([]MonthlyScores, 0, len(keys))
	trends := make([]MonthlyTrend, 0, len(keys))
	for _, k := range keys {
		acc := months[k]
		n := float64(acc.count)
		byMonth = append(byMonth, MonthlyScores{Month: k, Count: acc.count, AverageScore: round2(acc.overall / n)})
		trends = append(trends, MonthlyTrend{
			Month:         k,
			Governance:    round2(acc.gov / n),
			Economic:      round2(acc.eco / n),
			Social:        round2(acc.soc / n),
			Environmental: round2(acc.env / n),
		})
	}
	if len(trends) > trendMonths {
		trends = trends[len(trends)-trendMonths:]
	}

	var avg AverageScores
	if total.count > 0 {
		n := float64(total.count)
		avg = AverageScores{
			Global:        round2(total.overall / n),
			Governance:    round2(total.gov / n),
			Economic:      round2(total.eco / n),
			Social:        round2(total.soc / n),
			Environmental: round2(total.env / n),
		}
	}
	return byMonth, trends, avg
}

var demoCompanies = []struct {
	name      string
	sector    string
	employees int
}{
	{"EcoTextile Maroc", "Industrie manufacturière", 45},
	{"GreenBuild Construction", "Construction / BTP", 78},
	{"AgriCircular", "Agriculture, sylviculture et pêche", 32},
	{"TechRecycle Solutions", "Informatique et télécommunications", 28},
	{"Hôtel Durable Casablanca", "Hôtellerie, restauration et tourisme", 65},
	{"Transport Vert", "Transport et logistique", 52},
	{"Énergie Renouvelable Maroc", "Énergie et environnement", 41},
	{"Commerce Équitable Rabat", "Commerce et distribution", 23},
	{"Artisans Circulaires", "Artisanat et métiers de proximité", 15},
	{"Services Verts PME", "Services aux entreprises", 19},
}

var demoSectors = []string{
	"Agriculture, sylviculture et pêche",
	"Industrie manufacturière",
	"Construction / BTP",
	"Commerce et distribution",
	"Transport et logistique",
	"Énergie et environnement",
	"Santé et action sociale",
	"Informatique et télécommunications",
	"Hôtellerie, restauration et tourisme",
	"Artisanat et métiers de proximité",
	"Services aux entreprises",
	"Services aux particuliers",
	"Associations et ONG",
	"Autres secteurs émergents",
}

var demoPerformers = []TopPerformer{
	{CompanyName: "EcoLeader Industries", Sector: "Industrie manufacturière", OverallScore: 92.5},
	{CompanyName: "GreenTech Innovations", Sector: "Informatique et télécommunications", OverallScore: 89.3},
	{CompanyName: "Énergie Solaire Plus", Sector: "Énergie et environnement", OverallScore: 87.8},
	{CompanyName: "BioAgri Maroc", Sector: "Agriculture, sylviculture et pêche", OverallScore: 86.2},
	{CompanyName: "Construction Durable SA", Sector: "Construction / BTP", OverallScore: 84.7},
	{CompanyName: "Transport Écologique", Sector: "Transport et logistique", OverallScore: 83.5},
	{CompanyName: "Hôtel Vert Marrakech", Sector: "Hôtellerie, restauration et tourisme", OverallScore: 82.1},
	{CompanyName: "Commerce Responsable", Sector: "Commerce et distribution", OverallScore: 80.9},
	{CompanyName: "Artisanat Circulaire", Sector: "Artisanat et métiers de proximité", OverallScore: 79.4},
	{CompanyName: "Services Verts Pro", Sector: "Services aux entreprises", OverallScore: 78.2},
}

// DemoStats returns the demonstration data set. Values depend only on the
// month of now.
func DemoStats(now time.Time) *DashboardStats {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := &DashboardStats{
		TotalCompanies: 156,
		TotalScores:    423,
		TotalQuestions: 364,
		AverageScores: AverageScores{
			Global:        68.5,
			Governance:    65.2,
			Economic:      71.3,
			Social:        66.8,
			Environmental: 70.7,
		},
		Demo: true,
	}

	for i, c := range demoCompanies {
		employees := c.employees
		created := day.AddDate(0, 0, -3*i)
		out.RecentCompanies = append(out.RecentCompanies, RecentCompany{
			Company: model.Company{
				ID:            "demo-company-" + strconv.Itoa(i),
				Name:          c.name,
				Sector:        c.sector,
				Email:         "contact@" + demoSlug(c.name) + ".ma",
				EmployeeCount: &employees,
				CreatedAt:     created,
			},
			LatestScore: &model.Score{
				ID:                 "demo-score-" + strconv.Itoa(i),
				CompanyID:          "demo-company-" + strconv.Itoa(i),
				OverallScore:       float64(55 + (i*13)%35),
				GovernanceScore:    float64(50 + (i*17)%40),
				EconomicScore:      float64(50 + (i*11)%40),
				SocialScore:        float64(50 + (i*7)%40),
				EnvironmentalScore: float64(50 + (i*19)%40),
				CreatedAt:          created,
			},
		})
	}

	for i := 11; i >= 0; i-- {
		out.ScoresByMonth = append(out.ScoresByMonth, MonthlyScores{
			Month:        month.AddDate(0, -i, 0).Format("2006-01"),
			Count:        15 + (i*7)%20,
			AverageScore: float64(60 + (i*5)%20),
		})
	}

	for i, sector := range demoSectors {
		out.SectorDistribution = append(out.SectorDistribution, SectorStats{
			Sector:       sector,
			Count:        5 + (i*9)%20,
			AverageScore: float64(55 + (i*11)%30),
		})
	}

	for i := trendMonths - 1; i >= 0; i-- {
		step := float64(trendMonths - 1 - i)
		out.PerformanceTrends = append(out.PerformanceTrends, MonthlyTrend{
			Month:         month.AddDate(0, -i, 0).Format("2006-01"),
			Governance:    round2(60 + step*2),
			Economic:      round2(65 + step*2),
			Social:        round2(62 + step*1.5),
			Environmental: round2(68 + step*1.8),
		})
	}

	for i, p := range demoPerformers {
		p.Rank = i + 1
		out.TopPerformers = append(out.TopPerformers, p)
	}
	return out
}

// demoSlug lowercases, strips accents and keeps [a-z0-9].
func demoSlug(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		stripped = strings.ToLower(name)
	}
	var b strings.Builder
	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
