package benchmark

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/circularity-cli/internal/catalog"
	"github.com/sells-group/circularity-cli/internal/model"
)

// Spreadsheet header columns.
const (
	ColSector        = "secteur"
	ColEmployeeRange = "tranche_employes"
	ColIndicator     = "indicateur"
	ColCategory      = "categorie"
	ColAverageValue  = "valeur_moyenne"
	ColUnit          = "unite"
	ColSource        = "source"
	ColYear          = "annee"
)

// Defaults applied to rows that leave the optional columns empty.
const (
	DefaultCategory = "général"
	DefaultSource   = "Import manuel"
)

// ErrBadSheet marks an upload that cannot be read as a benchmark sheet: an
// unparseable file, a missing sheet or an unusable header row.
var ErrBadSheet = errors.New("unreadable benchmark sheet")

var requiredColumns = []string{ColSector, ColEmployeeRange, ColIndicator, ColAverageValue}

// Upserter persists benchmark rows keyed by (sector, employee range,
// indicator).
type Upserter interface {
	UpsertBenchmarks(ctx context.Context, rows []model.SectorBenchmark) (int64, error)
}

// Options configures an import.
type Options struct {
	SheetName     string
	DefaultSource string
	// Now supplies the default year. Defaults to time.Now.
	Now func() time.Time
}

// RowError describes a spreadsheet row that was skipped. Row is 1-based and
// counts the header.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Result summarizes an import.
type Result struct {
	Rows     int        `json:"rows"`
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors"`
}

// Import reads the benchmark workbook at path (xlsx, or csv by extension)
// and upserts its valid rows.
func Import(ctx context.Context, up Upserter, path string, opts Options) (*Result, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, eris.Wrap(openErr, "benchmark: open csv")
		}
		defer f.Close() //nolint:errcheck
		rows, err = ReadCSV(f)
	default:
		rows, err = ReadXLSX(path, XLSXOptions{SheetName: opts.SheetName})
	}
	if err != nil {
		return nil, eris.Wrapf(err, "benchmark: read %s", filepath.Base(path))
	}

	return ImportRows(ctx, up, rows, opts)
}

// ImportRows parses header-led rows and upserts the valid ones.
func ImportRows(ctx context.Context, up Upserter, rows [][]string, opts Options) (*Result, error) {
	benchmarks, rowErrs, err := Parse(rows, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{Rows: len(benchmarks) + len(rowErrs), Errors: rowErrs}
	if res.Errors == nil {
		res.Errors = []RowError{}
	}

	if len(benchmarks) > 0 {
		if _, err := up.UpsertBenchmarks(ctx, benchmarks); err != nil {
			return nil, eris.Wrap(err, "benchmark: upsert")
		}
	}
	res.Imported = len(benchmarks)

	zap.L().Info("benchmark: import complete",
		zap.Int("rows", res.Rows),
		zap.Int("imported", res.Imported),
		zap.Int("errors", len(res.Errors)),
	)
	if len(res.Errors) > 0 {
		zap.L().Warn("benchmark: rows skipped", zap.Int("count", len(res.Errors)))
	}
	return res, nil
}

// Parse converts header-led rows into benchmarks. Invalid rows are reported
// as RowErrors. Rows repeating a key replace the earlier row, keeping its
// position. An error is returned only when the header is unusable.
func Parse(rows [][]string, opts Options) ([]model.SectorBenchmark, []RowError, error) {
	if len(rows) == 0 {
		return nil, nil, eris.Wrap(ErrBadSheet, "benchmark: empty sheet")
	}

	cols := headerIndex(rows[0])
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, eris.Wrapf(ErrBadSheet, "benchmark: missing columns %s", strings.Join(missing, ", "))
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	source := opts.DefaultSource
	if source == "" {
		source = DefaultSource
	}
	year := now().Year()

	var (
		out    []model.SectorBenchmark
		errs   []RowError
		seen   = map[string]int{}
		cellAt = func(row []string, col string) string {
			i, ok := cols[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
	)

	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}

		b := model.SectorBenchmark{
			Sector:        cellAt(row, ColSector),
			EmployeeRange: cellAt(row, ColEmployeeRange),
			Indicator:     cellAt(row, ColIndicator),
			Category:      cellAt(row, ColCategory),
			Unit:          cellAt(row, ColUnit),
			Source:        cellAt(row, ColSource),
			Year:          year,
		}
		if b.Sector == "" || b.EmployeeRange == "" || b.Indicator == "" {
			errs = append(errs, RowError{Row: line, Reason: "missing sector, employee range or indicator"})
			continue
		}

		raw := cellAt(row, ColAverageValue)
		if raw == "" {
			errs = append(errs, RowError{Row: line, Reason: "missing average value"})
			continue
		}
		v, ok := parseNumber(raw)
		if !ok {
			errs = append(errs, RowError{Row: line, Reason: fmt.Sprintf("invalid average value %q", raw)})
			continue
		}
		b.AverageValue = v

		if y := cellAt(row, ColYear); y != "" {
			n, ok := parseNumber(y)
			if !ok || n != math.Trunc(n) {
				errs = append(errs, RowError{Row: line, Reason: fmt.Sprintf("invalid year %q", y)})
				continue
			}
			b.Year = int(n)
		}
		if b.Category == "" {
			b.Category = DefaultCategory
		}
		if b.Source == "" {
			b.Source = source
		}

		key := b.Sector + "\x00" + b.EmployeeRange + "\x00" + b.Indicator
		if idx, dup := seen[key]; dup {
			out[idx] = b
			continue
		}
		seen[key] = len(out)
		out = append(out, b)
	}

	return out, errs, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ReplaceAll(catalog.SectorKey(h), " ", "_")
		if key == "" {
			continue
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return cols
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber accepts both decimal separators.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
