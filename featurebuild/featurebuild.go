package featurebuild

import (
	"math"

	"github.com/nsoti/resource-demand-prediction-ml-model/usagedataset"
	"gonum.org/v1/gonum/stat"
)

// Lag offsets in rows within a resource's sorted partition. Rows are hourly,
// so a row offset of 24 corresponds to the same hour on the previous day
// only when the series has no gaps.
const (
	LagRows1h   = 1
	LagRows24h  = 24
	LagRows168h = 168

	RollingWindowRows = 24
)

// Row is a usage row extended with derived occupancy features. Derived
// values are NaN when the partition holds too few prior rows to compute
// them.
type Row struct {
	usagedataset.Row

	Lag1h   float64
	Lag24h  float64
	Lag168h float64
	Avg24h  float64
}

// Defined reports whether every derived feature on the row is present.
func (r Row) Defined() bool {
	return !math.IsNaN(r.Lag1h) && !math.IsNaN(r.Lag24h) &&
		!math.IsNaN(r.Lag168h) && !math.IsNaN(r.Avg24h)
}

// Build derives the lag and rolling-average columns for every row of the
// dataset. Rows are partitioned by resource id and sorted by timestamp;
// lags are positional lookbacks within the sorted partition, and the
// rolling average is the mean over up to RollingWindowRows preceding rows.
// Output rows are ordered by resource id, then timestamp, so repeated runs
// over the same dataset are byte-for-byte identical.
func Build(ds *usagedataset.Dataset) []Row {
	parts := ds.Partition()

	out := make([]Row, 0, len(ds.Rows))
	for _, id := range ds.ResourceIDs() {
		rows := parts[id]
		rates := make([]float64, len(rows))
		for i, r := range rows {
			rates[i] = r.OccupancyRate
		}

		for k, r := range rows {
			out = append(out, Row{
				Row:     r,
				Lag1h:   lagAt(rates, k, LagRows1h),
				Lag24h:  lagAt(rates, k, LagRows24h),
				Lag168h: lagAt(rates, k, LagRows168h),
				Avg24h:  trailingMean(rates, k, RollingWindowRows),
			})
		}
	}
	return out
}

func lagAt(rates []float64, k, offset int) float64 {
	if k < offset {
		return math.NaN()
	}
	return rates[k-offset]
}

// trailingMean is the mean of rates[max(0,k-window):k]. Undefined for the
// first row of a partition.
func trailingMean(rates []float64, k, window int) float64 {
	if k == 0 {
		return math.NaN()
	}
	lo := k - window
	if lo < 0 {
		lo = 0
	}
	return stat.Mean(rates[lo:k], nil)
}
