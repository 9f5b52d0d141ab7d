// Package service ties the scoring engine, the question catalog and the
// stores together into the operations exposed by the CLI and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"github.com/sells-group/circularity-cli/internal/benchmark"
	"github.com/sells-group/circularity-cli/internal/catalog"
	"github.com/sells-group/circularity-cli/internal/config"
	"github.com/sells-group/circularity-cli/internal/model"
	"github.com/sells-group/circularity-cli/internal/plan"
	"github.com/sells-group/circularity-cli/internal/scorer"
	"github.com/sells-group/circularity-cli/internal/store"
)

// ErrValidation is wrapped by request validation failures.
var ErrValidation = errors.New("validation failed")

// Options configures a Service.
type Options struct {
	Scoring   config.ScoringConfig
	Plan      plan.Options
	Benchmark config.BenchmarkConfig
}

// OptionsFromConfig derives service options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Scoring:   cfg.Scoring,
		Plan:      plan.Options{IncludeEnvironmental: cfg.Plan.IncludeEnvironmental},
		Benchmark: cfg.Benchmark,
	}
}

// Service implements the application operations. It is safe for concurrent
// use.
type Service struct {
	store    store.Store
	catalog  *catalog.Catalog
	engine   *scorer.Engine
	opts     Options
	validate *validator.Validate
	now      func() time.Time
}

// New creates a Service.
func New(st store.Store, cat *catalog.Catalog, opts Options) *Service {
	return &Service{
		store:    st,
		catalog:  cat,
		engine:   scorer.NewEngine(opts.Scoring, cat.IsGeneral),
		opts:     opts,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Catalog returns the question catalog the service normalizes against.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Questionnaire returns the ordered questions for a sector.
func (s *Service) Questionnaire(sector string) (*catalog.Questionnaire, error) {
	return s.catalog.ForSector(sector)
}

// --- Benchmarks ---

// ImportBenchmarks loads a benchmark workbook into the store.
func (s *Service) ImportBenchmarks(ctx context.Context, path string) (*benchmark.Result, error) {
	return benchmark.Import(ctx, s.store, path, s.importOptions())
}

// ImportBenchmarkRows loads already-read spreadsheet rows into the store.
func (s *Service) ImportBenchmarkRows(ctx context.Context, rows [][]string) (*benchmark.Result, error) {
	return benchmark.ImportRows(ctx, s.store, rows, s.importOptions())
}

func (s *Service) importOptions() benchmark.Options {
	return benchmark.Options{
		SheetName:     s.opts.Benchmark.SheetName,
		DefaultSource: s.opts.Benchmark.DefaultSource,
		Now:           s.now,
	}
}

// ListBenchmarks lists benchmarks ordered by sector and indicator.
func (s *Service) ListBenchmarks(ctx context.Context, filter model.BenchmarkFilter) ([]model.SectorBenchmark, error) {
	return s.store.ListBenchmarks(ctx, filter)
}

// DeleteBenchmark removes one benchmark.
func (s *Service) DeleteBenchmark(ctx context.Context, id string) error {
	return s.store.DeleteBenchmark(ctx, id)
}

// DeleteAllBenchmarks removes every benchmark and returns how many were
// deleted.
func (s *Service) DeleteAllBenchmarks(ctx context.Context) (int64, error) {
	return s.store.DeleteAllBenchmarks(ctx)
}

// BenchmarkLookup resolves sector averages from the store. A sector sent in
// the "Sector - Sub-sector" form falls back to its main sector when the full
// name has no benchmark.
func (s *Service) BenchmarkLookup() scorer.BenchmarkLookup {
	return scorer.BenchmarkLookupFunc(func(ctx context.Context, sector, employeeRange, indicator string) (float64, bool, error) {
		for _, candidate := range sectorCandidates(sector) {
			b, err := s.store.GetBenchmark(ctx, candidate, employeeRange, indicator)
			if err == nil {
				return b.AverageValue, true, nil
			}
			if !errors.Is(err, model.ErrNotFound) {
				return 0, false, err
			}
		}
		return 0, false, nil
	})
}

func sectorCandidates(sector string) []string {
	sector = strings.TrimSpace(sector)
	out := []string{sector}
	if main, _, ok := strings.Cut(sector, " - "); ok {
		if main = strings.TrimSpace(main); main != "" {
			out = append(out, main)
		}
	}
	return out
}

// validationError flattens validator errors into an ErrValidation wrap.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return eris.Wrapf(ErrValidation, "service: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
		}
	}
	return eris.Wrapf(ErrValidation, "service: %s", strings.Join(msgs, "; "))
}
