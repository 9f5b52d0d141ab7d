package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/circularity-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "name", "sector", "email", "phone", "employee_count", "indicators", "created_at"}).
		AddRow("c1", "Atlas", "Agriculture", "a@atlas.ma", "", ptrInt(12), []byte(`{"women_pct":40}`), now)
	mock.ExpectQuery(`SELECT id, name, sector, email, phone, employee_count, indicators, created_at FROM companies WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(rows)

	got, err := s.GetCompany(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Atlas", got.Name)
	assert.Equal(t, 12, got.Employees())
	require.NotNil(t, got.Indicators.WomenPct)
	assert.InDelta(t, 40.0, *got.Indicators.WomenPct, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCompany_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM companies WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCompany(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCompany_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM companies WHERE id = \$1`).
		WithArgs("c1").
		WillReturnError(errors.New("connection reset"))

	_, err := s.GetCompany(context.Background(), "c1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "get company")
}

func TestPostgresStore_CreateCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO companies`).
		WithArgs(pgxmock.AnyArg(), "Atlas", "Agriculture", "a@atlas.ma", "", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := &model.Company{Name: "Atlas", Sector: "Agriculture", Email: "a@atlas.ma"}
	require.NoError(t, s.CreateCompany(context.Background(), c))
	assert.NotEmpty(t, c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCompanies_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM companies WHERE 1=1 AND sector = \$1 AND \(name ILIKE \$2 OR email ILIKE \$2\) ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("Agriculture", "%atl%", 10, 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "sector", "email", "phone", "employee_count", "indicators", "created_at"}))

	got, err := s.ListCompanies(context.Background(), model.CompanyFilter{Sector: "Agriculture", Query: "atl", Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCompanies_OffsetWithoutLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM companies WHERE 1=1 ORDER BY created_at DESC OFFSET \$1$`).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "sector", "email", "phone", "employee_count", "indicators", "created_at"}))

	_, err := s.ListCompanies(context.Background(), model.CompanyFilter{Offset: 5})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetScore_WithPlan(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM scores WHERE id = \$1`).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "company_id", "overall_score", "governance_score", "general_governance_score", "economic_score", "social_score", "environmental_score", "maturity_level", "responses", "created_at"}).
			AddRow("s1", "c1", 55.0, 40.0, 60.0, 50.0, 70.0, 55.0, "Émergent", []byte(`{}`), now))
	mock.ExpectQuery(`FROM action_plans WHERE score_id = \$1`).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "score_id", "recommendations", "priority", "timeline", "created_at"}).
			AddRow("p1", "s1", []byte(`[{"category":"Gouvernance","title":"t","description":"d","priority":"Haute","iso_reference":"ISO 59004:2024"}]`), "Haute", "6-12 mois", now))

	got, err := s.GetScore(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Émergent", got.MaturityLevel)
	require.NotNil(t, got.ActionPlan)
	assert.Len(t, got.ActionPlan.Recommendations, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetScore_NoPlan(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM scores WHERE id = \$1`).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "company_id", "overall_score", "governance_score", "general_governance_score", "economic_score", "social_score", "environmental_score", "maturity_level", "responses", "created_at"}).
			AddRow("s1", "c1", 85.0, 80.0, 90.0, 85.0, 88.0, 84.0, "Avancé", []byte(`{}`), now))
	mock.ExpectQuery(`FROM action_plans WHERE score_id = \$1`).
		WithArgs("s1").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetScore(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, got.ActionPlan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListScores_Since(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM scores WHERE 1=1 AND company_id = \$1 AND created_at >= \$2 ORDER BY created_at DESC, id LIMIT \$3`).
		WithArgs("c1", since, 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "company_id", "overall_score", "governance_score", "general_governance_score", "economic_score", "social_score", "environmental_score", "maturity_level", "responses", "created_at"}))

	got, err := s.ListScores(context.Background(), ScoreFilter{CompanyID: "c1", Since: since, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertBenchmarks(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_public_sector_benchmarks"}, benchmarkUpsert.Columns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "public"."sector_benchmarks" .* ON CONFLICT \("sector", "employee_range", "indicator"\) DO UPDATE SET "category" = EXCLUDED."category"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := s.UpsertBenchmarks(context.Background(), []model.SectorBenchmark{
		{Sector: "Agriculture", EmployeeRange: "1-10", Indicator: "a", Category: "environmental", AverageValue: 1, Year: 2024},
		{Sector: "Agriculture", EmployeeRange: "1-10", Indicator: "b", Category: "social", AverageValue: 2, Year: 2024},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertBenchmarks_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	n, err := s.UpsertBenchmarks(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteBenchmark_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM sector_benchmarks WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteBenchmark(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteAllBenchmarks(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM sector_benchmarks`).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := s.DeleteAllBenchmarks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate_NoHandle(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: migrate")
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`SELECT 1`).WillReturnResult(pgxmock.NewResult("SELECT", 1))

	require.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigration_ResponsesKeptVerbatim(t *testing.T) {
	ddl, err := migrationFS.ReadFile("migrations/postgres/00001_init.sql")
	require.NoError(t, err)

	var columnType string
	for _, line := range strings.Split(string(ddl), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "responses" {
			columnType = fields[1]
		}
	}
	// jsonb normalizes key order and drops duplicate keys.
	assert.Equal(t, "JSON", columnType)
}
