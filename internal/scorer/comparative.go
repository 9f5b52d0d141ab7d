package scorer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/circularity-cli/internal/model"
)

// ComparativeResponse is one indicator value to compare against the sector
// average. Coefficient weights the gap (1-3); IsInverted marks indicators
// where lower is better.
type ComparativeResponse struct {
	ID          string  `json:"id" validate:"required"`
	Value       float64 `json:"value"`
	Coefficient int     `json:"coefficient" validate:"omitempty,min=1,max=3"`
	IsInverted  bool    `json:"is_inverted"`
}

// ComparativeDetail is the per-indicator breakdown.
type ComparativeDetail struct {
	Indicator     string        `json:"indicator"`
	CompanyValue  float64       `json:"company_value"`
	SectorAverage float64       `json:"sector_average"`
	Gap           float64       `json:"gap"`
	Coefficient   int           `json:"coefficient"`
	IsInverted    bool          `json:"is_inverted"`
	WeightedScore RelativeScore `json:"weighted_score"`
}

// ComparativeResult is the aggregate of a comparative computation. Skipped
// lists indicators that had no usable benchmark.
type ComparativeResult struct {
	Score         RelativeScore       `json:"score"`
	EmployeeRange string              `json:"employee_range"`
	Details       []ComparativeDetail `json:"details"`
	Skipped       []string            `json:"skipped,omitempty"`
}

// BenchmarkLookup resolves the sector average for an indicator. ok is false
// when no benchmark exists.
type BenchmarkLookup interface {
	Average(ctx context.Context, sector, employeeRange, indicator string) (avg float64, ok bool, err error)
}

// BenchmarkLookupFunc adapts a function to BenchmarkLookup.
type BenchmarkLookupFunc func(ctx context.Context, sector, employeeRange, indicator string) (float64, bool, error)

// Average implements BenchmarkLookup.
func (f BenchmarkLookupFunc) Average(ctx context.Context, sector, employeeRange, indicator string) (float64, bool, error) {
	return f(ctx, sector, employeeRange, indicator)
}

type lookupResult struct {
	avg float64
	ok  bool
}

// ComputeComparativeScore compares each response against the benchmark for
// the company's sector and size bracket. Lookups run concurrently (bounded by
// maxConcurrent); the fold over results happens afterwards in input order so
// the aggregate is deterministic. Values are not rounded. Indicators without a benchmark, or with a
// zero average, are skipped and do not count in the denominator. The
// aggregate is 0 when nothing was counted.
func ComputeComparativeScore(ctx context.Context, company *model.Company, responses []ComparativeResponse, lookup BenchmarkLookup, maxConcurrent int) (*ComparativeResult, error) {
	if company == nil {
		return nil, eris.Wrap(model.ErrNotFound, "scorer: comparative score requires a company")
	}
	if lookup == nil {
		return nil, eris.New("scorer: comparative score requires a benchmark lookup")
	}

	employeeRange := model.EmployeeRange(company.Employees())
	results := make([]lookupResult, len(responses))

	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrent > 0 {
		g.SetLimit(maxConcurrent)
	}
	for i, r := range responses {
		g.Go(func() error {
			avg, ok, err := lookup.Average(gctx, company.Sector, employeeRange, r.ID)
			if err != nil {
				return eris.Wrapf(err, "scorer: benchmark lookup for %q", r.ID)
			}
			results[i] = lookupResult{avg: avg, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &ComparativeResult{
		EmployeeRange: employeeRange,
		Details:       make([]ComparativeDetail, 0, len(responses)),
	}
	var total RelativeScore
	for i, r := range responses {
		res := results[i]
		if !res.ok || res.avg == 0 {
			zap.L().Warn("scorer: no sector benchmark, skipping indicator",
				zap.String("sector", company.Sector),
				zap.String("employee_range", employeeRange),
				zap.String("indicator", r.ID),
			)
			out.Skipped = append(out.Skipped, r.ID)
			continue
		}

		detail := CompareIndicator(r, res.avg)
		total += detail.WeightedScore
		out.Details = append(out.Details, detail)
	}

	if len(out.Details) > 0 {
		out.Score = total / RelativeScore(len(out.Details))
	}
	return out, nil
}

// CompareIndicator computes the gap and weighted score for one indicator
// against a non-zero sector average. A zero coefficient counts as 1.
func CompareIndicator(r ComparativeResponse, sectorAverage float64) ComparativeDetail {
	coefficient := r.Coefficient
	if coefficient == 0 {
		coefficient = 1
	}

	gap := (r.Value - sectorAverage) / sectorAverage * 100
	weighted := gap * float64(coefficient)
	if r.IsInverted {
		weighted = -weighted
	}

	return ComparativeDetail{
		Indicator:     r.ID,
		CompanyValue:  r.Value,
		SectorAverage: sectorAverage,
		Gap:           gap,
		Coefficient:   coefficient,
		IsInverted:    r.IsInverted,
		WeightedScore: RelativeScore(weighted),
	}
}
