package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrLenMismatch = errors.New("predicted and actual have different lengths")
	ErrNoData      = errors.New("no points to score")
)

// Epsilon floors the MAPE denominator so actual values at or near zero do
// not blow up the statistic.
const Epsilon = 1e-8

// Scores holds the error statistics of a forecast against held-out actuals.
// The median (p50) prediction is scored.
type Scores struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
	R2   float64 `json:"r2"`
	N    int     `json:"n"`
}

// Evaluate scores a p50 prediction sequence against the aligned actuals.
func Evaluate(actual, predicted []float64) (*Scores, error) {
	if len(actual) != len(predicted) {
		return nil, ErrLenMismatch
	}
	if len(actual) == 0 {
		return nil, ErrNoData
	}

	n := float64(len(actual))
	mean := stat.Mean(actual, nil)

	var absSum, sqSum, pctSum, ssTot float64
	for i := range actual {
		diff := actual[i] - predicted[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
		pctSum += math.Abs(diff) / math.Max(actual[i], Epsilon)
		dev := actual[i] - mean
		ssTot += dev * dev
	}

	r2 := 1.0
	if ssTot > 0 {
		r2 = 1.0 - sqSum/ssTot
	} else if sqSum > 0 {
		// constant actuals with prediction error leave R2 undefined
		r2 = math.NaN()
	}

	return &Scores{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
		MAPE: pctSum / n,
		R2:   r2,
		N:    len(actual),
	}, nil
}

// ResourceScores ties a score set to the resource it evaluates.
type ResourceScores struct {
	ResourceID string `json:"resource_id"`
	Scores
}

// Aggregate combines per-resource scores into overall statistics, weighting
// each resource by its number of evaluated points. NaN R2 values are skipped.
func Aggregate(perResource []ResourceScores) *Scores {
	agg := &Scores{}
	var n, r2N float64
	var sqSum, r2Sum float64
	for _, rs := range perResource {
		w := float64(rs.N)
		agg.MAE += rs.MAE * w
		agg.MAPE += rs.MAPE * w
		sqSum += rs.RMSE * rs.RMSE * w
		if !math.IsNaN(rs.R2) {
			r2Sum += rs.R2 * w
			r2N += w
		}
		n += w
		agg.N += rs.N
	}
	if n == 0 {
		return agg
	}
	agg.MAE /= n
	agg.MAPE /= n
	agg.RMSE = math.Sqrt(sqSum / n)
	if r2N > 0 {
		agg.R2 = r2Sum / r2N
	} else {
		agg.R2 = math.NaN()
	}
	return agg
}
