package featurebuild

import (
	"math"
	"testing"
	"time"

	"github.com/nsoti/resource-demand-prediction-ml-model/usagedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSingle(t *testing.T, rates []float64) []Row {
	t.Helper()
	start := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	rows := usagedataset.GenerateRows(
		usagedataset.TestMetadata("r1"),
		usagedataset.GenerateHourlyT(len(rates), start),
		rates,
	)
	ds, err := usagedataset.New(rows)
	require.Nil(t, err)
	return Build(ds)
}

func TestBuildLagPositions(t *testing.T) {
	rates := make([]float64, 200)
	for i := range rates {
		rates[i] = float64(i) / 1000.0
	}
	out := buildSingle(t, rates)
	require.Len(t, out, 200)

	testData := map[string]struct {
		k      int
		lag    func(Row) float64
		offset int
	}{
		"lag 1h row 1":      {1, func(r Row) float64 { return r.Lag1h }, 1},
		"lag 1h row 199":    {199, func(r Row) float64 { return r.Lag1h }, 1},
		"lag 24h row 24":    {24, func(r Row) float64 { return r.Lag24h }, 24},
		"lag 24h row 100":   {100, func(r Row) float64 { return r.Lag24h }, 24},
		"lag 168h row 168":  {168, func(r Row) float64 { return r.Lag168h }, 168},
		"lag 168h row 199":  {199, func(r Row) float64 { return r.Lag168h }, 168},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, rates[td.k-td.offset], td.lag(out[td.k]))
		})
	}
}

func TestBuildLagMissing(t *testing.T) {
	rates := make([]float64, 200)
	out := buildSingle(t, rates)

	assert.True(t, math.IsNaN(out[0].Lag1h))
	assert.True(t, math.IsNaN(out[23].Lag24h))
	assert.False(t, math.IsNaN(out[24].Lag24h))
	assert.True(t, math.IsNaN(out[167].Lag168h))
	assert.False(t, math.IsNaN(out[168].Lag168h))
	assert.True(t, math.IsNaN(out[0].Avg24h))
	assert.False(t, math.IsNaN(out[1].Avg24h))

	assert.False(t, out[167].Defined())
	assert.True(t, out[168].Defined())
}

func TestBuildRollingAverage(t *testing.T) {
	rates := make([]float64, 60)
	for i := range rates {
		rates[i] = float64(i)
	}
	out := buildSingle(t, rates)

	// partial window: mean of rows 0..k-1
	assert.InDelta(t, 0.0, out[1].Avg24h, 1e-12)
	assert.InDelta(t, 2.0, out[5].Avg24h, 1e-12) // mean(0..4)

	// full window at k=30: mean of rows 6..29
	assert.InDelta(t, 17.5, out[30].Avg24h, 1e-12)
}

func TestBuildStepSeries(t *testing.T) {
	// constant 0.5 through row 175, step to 0.8 from row 176 on
	rates := usagedataset.GenerateStepRates(200, 176, 0.5, 0.8)
	out := buildSingle(t, rates)

	assert.Equal(t, 0.5, out[176].Lag24h) // from row 152, before the step
	assert.Equal(t, 0.5, out[176].Lag1h)  // row 175
	assert.Equal(t, 0.8, out[177].Lag1h)  // row 176, after the step
	assert.Equal(t, 0.5, out[199].Lag168h)
}

func TestBuildPerResourceScope(t *testing.T) {
	start := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	rowsA := usagedataset.GenerateRows(usagedataset.TestMetadata("a"), usagedataset.GenerateHourlyT(3, start), []float64{0.1, 0.2, 0.3})
	rowsB := usagedataset.GenerateRows(usagedataset.TestMetadata("b"), usagedataset.GenerateHourlyT(3, start), []float64{0.7, 0.8, 0.9})
	ds, err := usagedataset.New(append(rowsA, rowsB...))
	require.Nil(t, err)

	out := Build(ds)
	require.Len(t, out, 6)

	// output sorted by resource id then time; lags never cross resources
	assert.Equal(t, "a", out[0].ResourceID)
	assert.Equal(t, "b", out[3].ResourceID)
	assert.True(t, math.IsNaN(out[3].Lag1h))
	assert.Equal(t, 0.7, out[4].Lag1h)
}

func TestBuildIdempotent(t *testing.T) {
	rates := usagedataset.GenerateStepRates(50, 20, 0.2, 0.6)
	first := buildSingle(t, rates)
	second := buildSingle(t, rates)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Row, second[i].Row)
		assertSameFloat(t, first[i].Lag1h, second[i].Lag1h)
		assertSameFloat(t, first[i].Lag24h, second[i].Lag24h)
		assertSameFloat(t, first[i].Lag168h, second[i].Lag168h)
		assertSameFloat(t, first[i].Avg24h, second[i].Avg24h)
	}
}

func assertSameFloat(t *testing.T, a, b float64) {
	t.Helper()
	if math.IsNaN(a) {
		assert.True(t, math.IsNaN(b))
		return
	}
	assert.Equal(t, a, b)
}
