package benchmark

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/circularity-cli/internal/model"
)

type fakeUpserter struct {
	rows  []model.SectorBenchmark
	calls int
	err   error
}

func (f *fakeUpserter) UpsertBenchmarks(_ context.Context, rows []model.SectorBenchmark) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	f.rows = append(f.rows, rows...)
	return int64(len(rows)), nil
}

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "benchmarks.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

var header = []string{"secteur", "tranche_employes", "indicateur", "categorie", "valeur_moyenne", "unite", "source", "annee"}

func fixedNow() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }

func TestParse(t *testing.T) {
	rows := [][]string{
		header,
		{" Agriculture ", "11-50", "gen_env_1", "environmental", "3.5", "score", "HCP", "2024"},
		{"Agriculture", "1-10", "gen_env_1", "", "2,25", "", "", ""},
		{"", "1-10", "gen_env_2", "", "1", "", "", ""},
		{"Agriculture", "1-10", "gen_env_3", "", "", "", "", ""},
		{"Agriculture", "1-10", "gen_env_4", "", "beaucoup", "", "", ""},
		{"Agriculture", "1-10", "gen_env_5", "", "1", "", "", "deux mille"},
		{"", "", "", "", "", "", "", ""},
	}

	got, errs, err := Parse(rows, Options{Now: fixedNow})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.SectorBenchmark{
		Sector: "Agriculture", EmployeeRange: "11-50", Indicator: "gen_env_1", Category: "environmental",
		AverageValue: 3.5, Unit: "score", Source: "HCP", Year: 2024,
	}, got[0])

	assert.Equal(t, DefaultCategory, got[1].Category)
	assert.Equal(t, DefaultSource, got[1].Source)
	assert.Equal(t, 2025, got[1].Year)
	assert.InDelta(t, 2.25, got[1].AverageValue, 0.0001)

	require.Len(t, errs, 4)
	assert.Equal(t, 4, errs[0].Row)
	assert.Equal(t, 5, errs[1].Row)
	assert.Contains(t, errs[1].Reason, "missing average value")
	assert.Contains(t, errs[2].Reason, "invalid average value")
	assert.Contains(t, errs[3].Error(), "row 7: invalid year")
}

func TestParse_DuplicateKeysLastWins(t *testing.T) {
	rows := [][]string{
		header,
		{"Commerce", "1-10", "a", "", "1", "", "", "2024"},
		{"Commerce", "1-10", "b", "", "2", "", "", "2024"},
		{"Commerce", "1-10", "a", "", "9", "", "", "2024"},
	}

	got, errs, err := Parse(rows, Options{Now: fixedNow})
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Indicator)
	assert.InDelta(t, 9.0, got[0].AverageValue, 0.0001)
	assert.Equal(t, "b", got[1].Indicator)
}

func TestParse_HeaderVariants(t *testing.T) {
	rows := [][]string{
		{"Secteur", "Tranche_Employés", "Indicateur", "Valeur_Moyenne"},
		{"Commerce", "1-10", "a", "4"},
	}

	got, _, err := Parse(rows, Options{Now: fixedNow, DefaultSource: "Enquête 2025"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Enquête 2025", got[0].Source)
}

func TestParse_BadHeader(t *testing.T) {
	_, _, err := Parse(nil, Options{})
	assert.ErrorIs(t, err, ErrBadSheet)

	_, _, err = Parse([][]string{{"secteur", "indicateur"}}, Options{})
	require.ErrorIs(t, err, ErrBadSheet)
	assert.Contains(t, err.Error(), "tranche_employes")
	assert.Contains(t, err.Error(), "valeur_moyenne")
}

func TestImport_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Moyennes": {
			header,
			{"Agriculture", "11-50", "gen_env_1", "environmental", "3.5", "", "", "2024"},
			{"Agriculture", "", "gen_env_2", "environmental", "3.5", "", "", "2024"},
		},
	})

	up := &fakeUpserter{}
	res, err := Import(context.Background(), up, path, Options{Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 2, res.Rows)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)
	require.Len(t, up.rows, 1)
	assert.Equal(t, "gen_env_1", up.rows[0].Indicator)
}

func TestImport_NamedSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Notes": {{"rien"}},
		"Data": {
			header,
			{"Commerce", "1-10", "a", "", "1", "", "", ""},
		},
	})

	up := &fakeUpserter{}
	res, err := Import(context.Background(), up, path, Options{SheetName: "Data", Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	_, err = Import(context.Background(), up, path, Options{SheetName: "Absent"})
	require.ErrorIs(t, err, ErrBadSheet)
	assert.Contains(t, err.Error(), `sheet "Absent" not found`)
}

func TestImport_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmarks.csv")
	content := strings.Join([]string{
		"secteur;tranche_employes;indicateur;categorie;valeur_moyenne;unite;source;annee",
		"Commerce;1-10;gen_eco_1;economic;2,5;;;2023",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	up := &fakeUpserter{}
	res, err := Import(context.Background(), up, path, Options{Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	require.Len(t, up.rows, 1)
	assert.InDelta(t, 2.5, up.rows[0].AverageValue, 0.0001)
	assert.Equal(t, 2023, up.rows[0].Year)
}

func TestImport_CSVWithByteOrderMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmarks.csv")
	content := "\ufeffsecteur;tranche_employes;indicateur;valeur_moyenne\nTextile;1-10;waste;12,5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	up := &fakeUpserter{}
	res, err := Import(context.Background(), up, path, Options{Now: fixedNow})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	require.Len(t, up.rows, 1)
	assert.Equal(t, "Textile", up.rows[0].Sector)
	assert.InDelta(t, 12.5, up.rows[0].AverageValue, 0.0001)
}

func TestImport_NothingValid(t *testing.T) {
	up := &fakeUpserter{}
	res, err := ImportRows(context.Background(), up, [][]string{header, {"", "", "", "", "", "", "", "x"}}, Options{})
	require.NoError(t, err)
	assert.Zero(t, res.Imported)
	assert.Len(t, res.Errors, 1)
	assert.Zero(t, up.calls)
}

func TestImport_UpsertError(t *testing.T) {
	up := &fakeUpserter{err: errors.New("disk full")}
	_, err := ImportRows(context.Background(), up, [][]string{header, {"Commerce", "1-10", "a", "", "1", "", "", ""}}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "benchmark: upsert")
	assert.NotErrorIs(t, err, ErrBadSheet)
}

func TestImport_MissingFile(t *testing.T) {
	_, err := Import(context.Background(), &fakeUpserter{}, "/nonexistent/benchmarks.xlsx", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}

func TestReadCSV_CommaDelimited(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, rows)
}

func TestReadCSV_StripsByteOrderMark(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("\ufeffsecteur;indicateur\nTextile;waste\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"secteur", "indicateur"}, {"Textile", "waste"}}, rows)
}
