package scorer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/circularity-cli/internal/model"
)

type benchKey struct{ sector, rng, indicator string }

func mapLookup(m map[benchKey]float64) BenchmarkLookupFunc {
	return func(_ context.Context, sector, rng, indicator string) (float64, bool, error) {
		v, ok := m[benchKey{sector, rng, indicator}]
		return v, ok, nil
	}
}

func TestCompareIndicator(t *testing.T) {
	d := CompareIndicator(ComparativeResponse{ID: "waste", Value: 120, Coefficient: 2}, 100)
	assert.InDelta(t, 20.0, d.Gap, 0.001)
	assert.InDelta(t, 40.0, float64(d.WeightedScore), 0.001)
	assert.Equal(t, 2, d.Coefficient)
}

func TestCompareIndicator_InversionNegates(t *testing.T) {
	base := ComparativeResponse{ID: "ratio", Value: 80, Coefficient: 3}
	inverted := base
	inverted.IsInverted = true

	plain := CompareIndicator(base, 100)
	flipped := CompareIndicator(inverted, 100)
	assert.InDelta(t, -60.0, float64(plain.WeightedScore), 0.001)
	assert.InDelta(t, float64(-plain.WeightedScore), float64(flipped.WeightedScore), 0.001)
}

func TestCompareIndicator_ZeroCoefficientDefaultsToOne(t *testing.T) {
	d := CompareIndicator(ComparativeResponse{ID: "x", Value: 150}, 100)
	assert.Equal(t, 1, d.Coefficient)
	assert.InDelta(t, 50.0, float64(d.WeightedScore), 0.001)
}

func TestComputeComparativeScore(t *testing.T) {
	c := &model.Company{ID: "c1", Sector: "Textile", EmployeeCount: ptrInt(30)}
	lookup := mapLookup(map[benchKey]float64{
		{"Textile", "11-50", "a"}: 100,
		{"Textile", "11-50", "b"}: 50,
		{"Textile", "11-50", "z"}: 0,
		{"Textile", "1-10", "c"}:  10,
	})
	responses := []ComparativeResponse{
		{ID: "a", Value: 120, Coefficient: 2},
		{ID: "b", Value: 25, Coefficient: 1},
		{ID: "c", Value: 99, Coefficient: 3},
		{ID: "z", Value: 5, Coefficient: 1},
	}

	got, err := ComputeComparativeScore(context.Background(), c, responses, lookup, 2)
	require.NoError(t, err)

	assert.Equal(t, "11-50", got.EmployeeRange)
	require.Len(t, got.Details, 2)
	assert.Equal(t, "a", got.Details[0].Indicator)
	assert.Equal(t, "b", got.Details[1].Indicator)
	assert.Equal(t, []string{"c", "z"}, got.Skipped)
	// (40 + -50) / 2
	assert.InDelta(t, -5.0, float64(got.Score), 0.001)
}

func TestComputeComparativeScore_NoBenchmarks(t *testing.T) {
	c := &model.Company{ID: "c1", Sector: "Agro"}
	responses := []ComparativeResponse{{ID: "a", Value: 10}, {ID: "b", Value: 20}}

	got, err := ComputeComparativeScore(context.Background(), c, responses, mapLookup(nil), 4)
	require.NoError(t, err)
	assert.Zero(t, got.Score)
	assert.Empty(t, got.Details)
	assert.Len(t, got.Skipped, 2)
	assert.Equal(t, model.EmployeeRange1to10, got.EmployeeRange)
}

func TestComputeComparativeScore_EmptyResponses(t *testing.T) {
	got, err := ComputeComparativeScore(context.Background(), &model.Company{}, nil, mapLookup(nil), 0)
	require.NoError(t, err)
	assert.Zero(t, got.Score)
}

func TestComputeComparativeScore_LookupError(t *testing.T) {
	boom := errors.New("db down")
	lookup := BenchmarkLookupFunc(func(context.Context, string, string, string) (float64, bool, error) {
		return 0, false, boom
	})

	_, err := ComputeComparativeScore(context.Background(), &model.Company{}, []ComparativeResponse{{ID: "a"}}, lookup, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestComputeComparativeScore_RequiresCompanyAndLookup(t *testing.T) {
	_, err := ComputeComparativeScore(context.Background(), nil, nil, mapLookup(nil), 1)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = ComputeComparativeScore(context.Background(), &model.Company{}, nil, nil, 1)
	assert.Error(t, err)
}

func TestComputeComparativeScore_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})
	lookup := BenchmarkLookupFunc(func(context.Context, string, string, string) (float64, bool, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return 100, true, nil
	})

	responses := make([]ComparativeResponse, 10)
	for i := range responses {
		responses[i] = ComparativeResponse{ID: "x", Value: 100}
	}

	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	defer unblock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = ComputeComparativeScore(context.Background(), &model.Company{}, responses, lookup, 3)
	}()

	require.Eventually(t, func() bool { return inFlight.Load() == 3 }, time.Second, time.Millisecond)
	// Every started lookup is blocked; no fourth one may start meanwhile.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), inFlight.Load())

	unblock()
	<-done
	assert.Equal(t, int32(3), peak.Load())
}

func TestComputeComparativeScore_NotRounded(t *testing.T) {
	c := &model.Company{Sector: "Textile", EmployeeCount: ptrInt(5)}
	lookup := mapLookup(map[benchKey]float64{
		{"Textile", "1-10", "a"}: 3,
		{"Textile", "1-10", "b"}: 3,
	})
	responses := []ComparativeResponse{
		{ID: "a", Value: 1},
		{ID: "b", Value: 1},
	}

	got, err := ComputeComparativeScore(context.Background(), c, responses, lookup, 2)
	require.NoError(t, err)
	assert.InDelta(t, -200.0/3, float64(got.Details[0].Gap), 1e-9)
	assert.InDelta(t, -200.0/3, float64(got.Details[0].WeightedScore), 1e-9)
	assert.InDelta(t, -200.0/3, float64(got.Score), 1e-9)
}

func TestComputeComparativeScore_DeterministicOrder(t *testing.T) {
	c := &model.Company{Sector: "BTP", EmployeeCount: ptrInt(300)}
	m := map[benchKey]float64{}
	var responses []ComparativeResponse
	for i, id := range []string{"i1", "i2", "i3", "i4", "i5", "i6"} {
		m[benchKey{"BTP", "201-500", id}] = float64(10 * (i + 1))
		responses = append(responses, ComparativeResponse{ID: id, Value: float64(7 * (i + 2)), Coefficient: i%3 + 1, IsInverted: i%2 == 0})
	}

	first, err := ComputeComparativeScore(context.Background(), c, responses, mapLookup(m), 6)
	require.NoError(t, err)
	for range 5 {
		again, err := ComputeComparativeScore(context.Background(), c, responses, mapLookup(m), 6)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	for i, d := range first.Details {
		assert.Equal(t, responses[i].ID, d.Indicator)
	}
}
