package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/circularity-cli/internal/db"
	"github.com/sells-group/circularity-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	// sqlDB opens a database/sql handle over the pool for goose.
	sqlDB func() *sql.DB
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var benchmarkUpsert = db.UpsertConfig{
	Table:        "public.sector_benchmarks",
	Columns:      []string{"id", "sector", "employee_range", "indicator", "category", "average_value", "unit", "source", "year", "updated_at"},
	ConflictKeys: []string{"sector", "employee_range", "indicator"},
	UpdateCols:   []string{"category", "average_value", "unit", "source", "year", "updated_at"},
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{
		pool:    pool,
		closeFn: pool.Close,
		sqlDB:   func() *sql.DB { return stdlib.OpenDBFromPool(pool) },
	}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if s.sqlDB == nil {
		return eris.New("postgres: migrate: no database/sql handle")
	}
	sqlDB := s.sqlDB()
	defer sqlDB.Close()
	return eris.Wrap(runMigrations(ctx, goose.DialectPostgres, sqlDB, "migrations/postgres"), "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Companies ---

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	indicators, err := json.Marshal(c.Indicators)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal indicators")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO companies (`+companyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Sector, c.Email, c.Phone, c.EmployeeCount, indicators, c.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert company %s", c.Name)
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	c, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "postgres: company %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company %s", id)
	}
	return c, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context, filter model.CompanyFilter) ([]model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE 1=1`
	var args []any
	argN := 1

	if filter.Sector != "" {
		query += fmt.Sprintf(` AND sector = $%d`, argN)
		args = append(args, filter.Sector)
		argN++
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query += fmt.Sprintf(` AND (name ILIKE $%d OR email ILIKE $%d)`, argN, argN)
		args = append(args, "%"+q+"%")
		argN++
	}
	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argN)
		args = append(args, filter.Limit)
		argN++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argN)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

// --- Scores ---

func (s *PostgresStore) CreateScore(ctx context.Context, sc *model.Score) error {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO scores (`+scoreColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sc.ID, sc.CompanyID, sc.OverallScore, sc.GovernanceScore, sc.GeneralGovernanceScore,
		sc.EconomicScore, sc.SocialScore, sc.EnvironmentalScore, sc.MaturityLevel,
		encodeResponses(sc.Responses), sc.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert score for company %s", sc.CompanyID)
}

func (s *PostgresStore) GetScore(ctx context.Context, id string) (*model.Score, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+scoreColumns+` FROM scores WHERE id = $1`, id)
	sc, err := scanScore(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "postgres: score %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get score %s", id)
	}

	plan, err := s.GetActionPlanByScore(ctx, id)
	switch {
	case err == nil:
		sc.ActionPlan = plan
	case !errors.Is(err, model.ErrNotFound):
		return nil, err
	}
	return sc, nil
}

func (s *PostgresStore) ListScores(ctx context.Context, filter ScoreFilter) ([]model.Score, error) {
	query := `SELECT ` + scoreColumns + ` FROM scores WHERE 1=1`
	var args []any
	argN := 1

	if filter.CompanyID != "" {
		query += fmt.Sprintf(` AND company_id = $%d`, argN)
		args = append(args, filter.CompanyID)
		argN++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argN)
		args = append(args, filter.Since.UTC())
		argN++
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argN)
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scores")
	}
	defer rows.Close()

	var out []model.Score
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan score")
		}
		out = append(out, *sc)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list scores iterate")
}

// --- Action plans ---

func (s *PostgresStore) CreateActionPlan(ctx context.Context, p *model.ActionPlan) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	recs, err := encodeRecommendations(p.Recommendations)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO action_plans (`+planColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.ScoreID, recs, p.Priority, p.Timeline, p.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert action plan for score %s", p.ScoreID)
}

func (s *PostgresStore) GetActionPlanByScore(ctx context.Context, scoreID string) (*model.ActionPlan, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM action_plans WHERE score_id = $1`, scoreID)
	p, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "postgres: action plan for score %s", scoreID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get action plan for score %s", scoreID)
	}
	return p, nil
}

// --- Benchmarks ---

// UpsertBenchmarks bulk-loads rows through a COPY into a temp table. Rows
// must be unique on (sector, employee_range, indicator).
func (s *PostgresStore) UpsertBenchmarks(ctx context.Context, rows []model.SectorBenchmark) (int64, error) {
	now := time.Now().UTC()
	values := make([][]any, 0, len(rows))
	for _, b := range rows {
		id := b.ID
		if id == "" {
			id = uuid.New().String()
		}
		values = append(values, []any{
			id, b.Sector, b.EmployeeRange, b.Indicator, b.Category,
			b.AverageValue, b.Unit, b.Source, b.Year, now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, benchmarkUpsert, values)
	return n, eris.Wrap(err, "postgres: upsert benchmarks")
}

func (s *PostgresStore) GetBenchmark(ctx context.Context, sector, employeeRange, indicator string) (*model.SectorBenchmark, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+benchmarkColumns+` FROM sector_benchmarks WHERE sector = $1 AND employee_range = $2 AND indicator = $3`,
		sector, employeeRange, indicator,
	)
	b, err := scanBenchmark(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "postgres: benchmark %s/%s/%s", sector, employeeRange, indicator)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get benchmark")
	}
	return b, nil
}

func (s *PostgresStore) ListBenchmarks(ctx context.Context, filter model.BenchmarkFilter) ([]model.SectorBenchmark, error) {
	query := `SELECT ` + benchmarkColumns + ` FROM sector_benchmarks WHERE 1=1`
	var args []any
	argN := 1

	if filter.Sector != "" {
		query += fmt.Sprintf(` AND sector = $%d`, argN)
		args = append(args, filter.Sector)
		argN++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argN)
		args = append(args, filter.Category)
	}
	query += ` ORDER BY sector, indicator, employee_range`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list benchmarks")
	}
	defer rows.Close()

	var out []model.SectorBenchmark
	for rows.Next() {
		b, err := scanBenchmark(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan benchmark")
		}
		out = append(out, *b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list benchmarks iterate")
}

func (s *PostgresStore) DeleteBenchmark(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sector_benchmarks WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete benchmark %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrNotFound, "postgres: benchmark %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteAllBenchmarks(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sector_benchmarks`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete all benchmarks")
	}
	return tag.RowsAffected(), nil
}
