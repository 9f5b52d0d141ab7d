package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/circularity-cli/internal/benchmark"
	"github.com/sells-group/circularity-cli/internal/catalog"
	"github.com/sells-group/circularity-cli/internal/model"
	"github.com/sells-group/circularity-cli/internal/scorer"
	"github.com/sells-group/circularity-cli/internal/service"
)

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// formatScore writes a score breakdown to out.
func formatScore(out io.Writer, s *model.Score) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if s.ID != "" {
		_, _ = fmt.Fprintf(w, "Score:\t%s\n", s.ID)
	}
	_, _ = fmt.Fprintf(w, "Company:\t%s\n", s.CompanyID)
	_, _ = fmt.Fprintf(w, "Overall:\t%.2f / 100\n", s.OverallScore)
	_, _ = fmt.Fprintf(w, "Maturity:\t%s\n", s.MaturityLevel)
	_, _ = fmt.Fprintf(w, "  Governance:\t%.2f\n", s.GovernanceScore)
	_, _ = fmt.Fprintf(w, "  General governance:\t%.2f\n", s.GeneralGovernanceScore)
	_, _ = fmt.Fprintf(w, "  Economic:\t%.2f\n", s.EconomicScore)
	_, _ = fmt.Fprintf(w, "  Social:\t%.2f\n", s.SocialScore)
	_, _ = fmt.Fprintf(w, "  Environmental:\t%.2f\n", s.EnvironmentalScore)
	_ = w.Flush()
}

// formatPlan writes an action plan to out.
func formatPlan(out io.Writer, p *model.ActionPlan) {
	_, _ = fmt.Fprintf(out, "Action plan %s (priority %s, %s)\n", shortID(p.ID), p.Priority, p.Timeline)
	if len(p.Recommendations) == 0 {
		_, _ = fmt.Fprintln(out, "No recommendations: every dimension is above the threshold.")
		return
	}
	for i, r := range p.Recommendations {
		_, _ = fmt.Fprintf(out, "\n%d. [%s] %s (%s)\n", i+1, r.Category, r.Title, r.Priority)
		_, _ = fmt.Fprintf(out, "   %s\n", r.Description)
		_, _ = fmt.Fprintf(out, "   Ref: %s\n", r.ISOReference)
	}
}

// formatComparative writes a comparative result to out.
func formatComparative(out io.Writer, res *scorer.ComparativeResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "INDICATOR\tVALUE\tSECTOR AVG\tGAP %\tCOEF\tINVERTED\tWEIGHTED")
	_, _ = fmt.Fprintln(w, "---------\t-----\t----------\t-----\t----\t--------\t--------")
	for _, d := range res.Details {
		_, _ = fmt.Fprintf(w, "%s\t%g\t%g\t%.2f\t%d\t%v\t%.2f\n",
			d.Indicator, d.CompanyValue, d.SectorAverage, d.Gap, d.Coefficient, d.IsInverted, float64(d.WeightedScore))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nEmployee range: %s\n", res.EmployeeRange)
	_, _ = fmt.Fprintf(out, "Comparative score: %.2f\n", float64(res.Score))
	if len(res.Skipped) > 0 {
		_, _ = fmt.Fprintf(out, "No benchmark: %s\n", strings.Join(res.Skipped, ", "))
	}
}

// formatBenchmarks writes a tabular list of benchmarks to out.
func formatBenchmarks(out io.Writer, rows []model.SectorBenchmark) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSECTOR\tRANGE\tINDICATOR\tCATEGORY\tAVERAGE\tUNIT\tYEAR")
	_, _ = fmt.Fprintln(w, "--\t------\t-----\t---------\t--------\t-------\t----\t----")
	for _, b := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%g\t%s\t%d\n",
			shortID(b.ID), truncate(b.Sector, 30), b.EmployeeRange, b.Indicator, b.Category, b.AverageValue, b.Unit, b.Year)
	}
	_ = w.Flush()
}

// formatImport writes an import summary to out.
func formatImport(out io.Writer, res *benchmark.Result) {
	_, _ = fmt.Fprintf(out, "Rows: %d, imported: %d, skipped: %d\n", res.Rows, res.Imported, len(res.Errors))
	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(out, "  %s\n", e.Error())
	}
}

// formatCompanies writes a tabular list of companies to out.
func formatCompanies(out io.Writer, companies []model.Company) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSECTOR\tEMPLOYEES\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t---------\t-------")
	for _, c := range companies {
		employees := "-"
		if c.EmployeeCount != nil {
			employees = fmt.Sprint(*c.EmployeeCount)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.ID, truncate(c.Name, 30), truncate(c.Sector, 30), employees, c.CreatedAt.Format("2006-01-02"))
	}
	_ = w.Flush()
}

// formatStats writes the dashboard summary to out.
func formatStats(out io.Writer, s *service.DashboardStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if s.Demo {
		_, _ = fmt.Fprintln(w, "(demo data)")
	}
	_, _ = fmt.Fprintf(w, "Companies:\t%d\n", s.TotalCompanies)
	_, _ = fmt.Fprintf(w, "Scores:\t%d\n", s.TotalScores)
	_, _ = fmt.Fprintf(w, "Questions:\t%d\n", s.TotalQuestions)
	_, _ = fmt.Fprintf(w, "Average global:\t%.2f\n", s.AverageScores.Global)
	_, _ = fmt.Fprintf(w, "  Governance:\t%.2f\n", s.AverageScores.Governance)
	_, _ = fmt.Fprintf(w, "  Economic:\t%.2f\n", s.AverageScores.Economic)
	_, _ = fmt.Fprintf(w, "  Social:\t%.2f\n", s.AverageScores.Social)
	_, _ = fmt.Fprintf(w, "  Environmental:\t%.2f\n", s.AverageScores.Environmental)
	_ = w.Flush()

	if len(s.SectorDistribution) > 0 {
		_, _ = fmt.Fprintln(out, "\nSectors:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, st := range s.SectorDistribution {
			_, _ = fmt.Fprintf(w, "  %s\t%d\t%.2f\n", st.Sector, st.Count, st.AverageScore)
		}
		_ = w.Flush()
	}

	if len(s.TopPerformers) > 0 {
		_, _ = fmt.Fprintln(out, "\nTop performers:")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, p := range s.TopPerformers {
			_, _ = fmt.Fprintf(w, "  %d.\t%s\t%s\t%.2f\n", p.Rank, p.CompanyName, p.Sector, p.OverallScore)
		}
		_ = w.Flush()
	}
}

// formatCatalog lists the catalog's sectors.
func formatCatalog(out io.Writer, c *catalog.Catalog) {
	_, _ = fmt.Fprintf(out, "Catalog %s: %d questions, %d general\n", c.Version(), c.Count(), len(c.General()))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tSECTOR\tSUB-SECTORS")
	for _, s := range c.Sectors() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", s.Key, s.Name, len(s.SubSectors))
	}
	_ = w.Flush()
}

// formatQuestionnaire lists a sector's questions.
func formatQuestionnaire(out io.Writer, q *catalog.Questionnaire) {
	_, _ = fmt.Fprintf(out, "%s (%d questions)\n", q.Sector, len(q.Questions))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCATEGORY\tTYPE\tQUESTION")
	for _, qq := range q.Questions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", qq.ID, qq.Category, qq.Type, truncate(qq.Text, 70))
	}
	_ = w.Flush()
}
