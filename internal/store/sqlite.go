package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/circularity-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// The pool is limited to one connection so per-connection pragmas hold.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return eris.Wrap(runMigrations(ctx, goose.DialectSQLite3, s.db, "migrations/sqlite"), "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Companies ---

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	indicators, err := json.Marshal(c.Indicators)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal indicators")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Sector, c.Email, c.Phone, c.EmployeeCount, string(indicators), c.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert company %s", c.Name)
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "sqlite: company %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, filter model.CompanyFilter) ([]model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE 1=1`
	var args []any

	if filter.Sector != "" {
		query += ` AND sector = ?`
		args = append(args, filter.Sector)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query += ` AND (name LIKE ? OR email LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	query += ` ORDER BY created_at DESC`

	// SQLite only accepts OFFSET after LIMIT; -1 means no limit.
	limit := -1
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	if limit > 0 || filter.Offset > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

// --- Scores ---

func (s *SQLiteStore) CreateScore(ctx context.Context, sc *model.Score) error {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (`+scoreColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.CompanyID, sc.OverallScore, sc.GovernanceScore, sc.GeneralGovernanceScore,
		sc.EconomicScore, sc.SocialScore, sc.EnvironmentalScore, sc.MaturityLevel,
		string(encodeResponses(sc.Responses)), sc.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert score for company %s", sc.CompanyID)
}

func (s *SQLiteStore) GetScore(ctx context.Context, id string) (*model.Score, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scoreColumns+` FROM scores WHERE id = ?`, id)
	sc, err := scanScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "sqlite: score %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get score %s", id)
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

func (s *SQLiteStore) ListScores(ctx context.Context, filter ScoreFilter) ([]model.Score, error) {
	query := `SELECT ` + scoreColumns + ` FROM scores WHERE 1=1`
	var args []any

	if filter.CompanyID != "" {
		query += ` AND company_id = ?`
		args = append(args, filter.CompanyID)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scores")
	}
	defer rows.Close()

	var out []model.Score
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score")
		}
		out = append(out, *sc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list scores iterate")
}

// --- Action plans ---

func (s *SQLiteStore) CreateActionPlan(ctx context.Context, p *model.ActionPlan) error {
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO action_plans (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.ScoreID, string(recs), p.Priority, p.Timeline, p.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert action plan for score %s", p.ScoreID)
}

func (s *SQLiteStore) GetActionPlanByScore(ctx context.Context, scoreID string) (*model.ActionPlan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM action_plans WHERE score_id = ?`, scoreID)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "sqlite: action plan for score %s", scoreID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get action plan for score %s", scoreID)
	}
	return p, nil
}

// --- Benchmarks ---

func (s *SQLiteStore) UpsertBenchmarks(ctx context.Context, rows []model.SectorBenchmark) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert benchmarks: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sector_benchmarks (`+benchmarkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (sector, employee_range, indicator) DO UPDATE SET
			category = excluded.category,
			average_value = excluded.average_value,
			unit = excluded.unit,
			source = excluded.source,
			year = excluded.year,
			updated_at = excluded.updated_at`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert benchmarks: prepare")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var n int64
	for _, b := range rows {
		id := b.ID
		if id == "" {
			id = uuid.New().String()
		}
		res, err := stmt.ExecContext(ctx, id, b.Sector, b.EmployeeRange, b.Indicator, b.Category,
			b.AverageValue, b.Unit, b.Source, b.Year, now)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert benchmark %s/%s/%s", b.Sector, b.EmployeeRange, b.Indicator)
		}
		affected, _ := res.RowsAffected()
		n += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert benchmarks: commit")
	}
	return n, nil
}

func (s *SQLiteStore) GetBenchmark(ctx context.Context, sector, employeeRange, indicator string) (*model.SectorBenchmark, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+benchmarkColumns+` FROM sector_benchmarks WHERE sector = ? AND employee_range = ? AND indicator = ?`,
		sector, employeeRange, indicator,
	)
	b, err := scanBenchmark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(model.ErrNotFound, "sqlite: benchmark %s/%s/%s", sector, employeeRange, indicator)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get benchmark")
	}
	return b, nil
}

func (s *SQLiteStore) ListBenchmarks(ctx context.Context, filter model.BenchmarkFilter) ([]model.SectorBenchmark, error) {
	query := `SELECT ` + benchmarkColumns + ` FROM sector_benchmarks WHERE 1=1`
	var args []any

	if filter.Sector != "" {
		query += ` AND sector = ?`
		args = append(args, filter.Sector)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY sector, indicator, employee_range`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list benchmarks")
	}
	defer rows.Close()

	var out []model.SectorBenchmark
	for rows.Next() {
		b, err := scanBenchmark(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan benchmark")
		}
		out = append(out, *b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list benchmarks iterate")
}

func (s *SQLiteStore) DeleteBenchmark(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sector_benchmarks WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete benchmark %s", id)
	}
	return checkRowsAffected(res, "benchmark", id)
}

func (s *SQLiteStore) DeleteAllBenchmarks(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sector_benchmarks`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete all benchmarks")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(model.ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
