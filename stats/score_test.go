package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatePerfectForecast(t *testing.T) {
	actual := []float64{0.1, 0.5, 0.9, 0.3, 0.7}
	predicted := append([]float64(nil), actual...)

	s, err := Evaluate(actual, predicted)
	require.Nil(t, err)
	assert.Equal(t, 0.0, s.MAE)
	assert.Equal(t, 0.0, s.RMSE)
	assert.Equal(t, 0.0, s.MAPE)
	assert.Equal(t, 1.0, s.R2)
	assert.Equal(t, 5, s.N)
}

func TestEvaluateKnownScores(t *testing.T) {
	actual := []float64{1, 2, 3, 4}
	predicted := []float64{1.5, 2.5, 2.5, 3.5}

	s, err := Evaluate(actual, predicted)
	require.Nil(t, err)
	assert.InDelta(t, 0.5, s.MAE, 1e-12)
	assert.InDelta(t, 0.5, s.RMSE, 1e-12)
	// |0.5|/1 + |0.5|/2 + |0.5|/3 + |0.5|/4 over 4
	assert.InDelta(t, (0.5+0.25+0.5/3.0+0.125)/4.0, s.MAPE, 1e-12)
	// ss_res = 1.0, ss_tot = 5.0
	assert.InDelta(t, 0.8, s.R2, 1e-12)
}

func TestEvaluateZeroActuals(t *testing.T) {
	actual := []float64{0, 0.5, 0}
	predicted := []float64{0.1, 0.5, 0}

	s, err := Evaluate(actual, predicted)
	require.Nil(t, err)
	assert.False(t, math.IsNaN(s.MAPE))
	assert.False(t, math.IsInf(s.MAPE, 1))
}

func TestEvaluateConstantActuals(t *testing.T) {
	actual := []float64{0.5, 0.5, 0.5}

	perfect, err := Evaluate(actual, []float64{0.5, 0.5, 0.5})
	require.Nil(t, err)
	assert.Equal(t, 1.0, perfect.R2)

	off, err := Evaluate(actual, []float64{0.6, 0.6, 0.6})
	require.Nil(t, err)
	assert.True(t, math.IsNaN(off.R2))
}

func TestEvaluateErrors(t *testing.T) {
	_, err := Evaluate([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrLenMismatch)

	_, err = Evaluate(nil, nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestAggregate(t *testing.T) {
	perResource := []ResourceScores{
		{ResourceID: "a", Scores: Scores{MAE: 0.1, RMSE: 0.2, MAPE: 0.05, R2: 0.9, N: 24}},
		{ResourceID: "b", Scores: Scores{MAE: 0.3, RMSE: 0.4, MAPE: 0.15, R2: 0.7, N: 24}},
	}

	agg := Aggregate(perResource)
	assert.InDelta(t, 0.2, agg.MAE, 1e-12)
	assert.InDelta(t, 0.1, agg.MAPE, 1e-12)
	assert.InDelta(t, 0.8, agg.R2, 1e-12)
	assert.InDelta(t, math.Sqrt((0.04+0.16)/2.0), agg.RMSE, 1e-12)
	assert.Equal(t, 48, agg.N)
}

func TestAggregateWeighting(t *testing.T) {
	perResource := []ResourceScores{
		{ResourceID: "a", Scores: Scores{MAE: 0.1, N: 72}},
		{ResourceID: "b", Scores: Scores{MAE: 0.4, N: 24}},
	}

	agg := Aggregate(perResource)
	// 72 points at 0.1 and 24 at 0.4
	assert.InDelta(t, 0.175, agg.MAE, 1e-12)
}

func TestAggregateSkipsNaNR2(t *testing.T) {
	perResource := []ResourceScores{
		{ResourceID: "a", Scores: Scores{R2: 0.8, N: 24}},
		{ResourceID: "b", Scores: Scores{R2: math.NaN(), N: 24}},
	}

	agg := Aggregate(perResource)
	assert.InDelta(t, 0.8, agg.R2, 1e-12)
}

func TestAggregateEmpty(t *testing.T) {
	agg := Aggregate(nil)
	assert.Equal(t, 0, agg.N)
	assert.Equal(t, 0.0, agg.MAE)
}
