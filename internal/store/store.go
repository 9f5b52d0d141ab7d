package store

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/circularity-cli/internal/model"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// ScoreFilter specifies criteria for listing scores. A zero Limit lists
// every match.
type ScoreFilter struct {
	CompanyID string    `json:"company_id,omitempty"`
	Since     time.Time `json:"since,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

// Store defines the persistence interface for companies, scores, action
// plans and sector benchmarks. Lookups of missing records return an error
// wrapping model.ErrNotFound.
type Store interface {
	// Companies
	CreateCompany(ctx context.Context, c *model.Company) error
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	ListCompanies(ctx context.Context, filter model.CompanyFilter) ([]model.Company, error)

	// Scores
	CreateScore(ctx context.Context, s *model.Score) error
	GetScore(ctx context.Context, id string) (*model.Score, error)
	ListScores(ctx context.Context, filter ScoreFilter) ([]model.Score, error)

	// Action plans
	CreateActionPlan(ctx context.Context, p *model.ActionPlan) error
	GetActionPlanByScore(ctx context.Context, scoreID string) (*model.ActionPlan, error)

	// Benchmarks
	UpsertBenchmarks(ctx context.Context, rows []model.SectorBenchmark) (int64, error)
	GetBenchmark(ctx context.Context, sector, employeeRange, indicator string) (*model.SectorBenchmark, error)
	ListBenchmarks(ctx context.Context, filter model.BenchmarkFilter) ([]model.SectorBenchmark, error)
	DeleteBenchmark(ctx context.Context, id string) error
	DeleteAllBenchmarks(ctx context.Context) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// runMigrations applies the embedded goose migrations for a dialect.
func runMigrations(ctx context.Context, dialect goose.Dialect, db *sql.DB, dir string) error {
	sub, err := fs.Sub(migrationFS, dir)
	if err != nil {
		return eris.Wrapf(err, "store: migrations %s", dir)
	}

	provider, err := goose.NewProvider(dialect, db, sub)
	if err != nil {
		return eris.Wrap(err, "store: migration provider")
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return eris.Wrap(err, "store: apply migrations")
	}
	for _, r := range results {
		zap.L().Info("store: applied migration",
			zap.String("dialect", string(dialect)),
			zap.String("file", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}
	return nil
}
