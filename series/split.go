package series

import (
	"errors"
	"fmt"
	"time"

	"github.com/nsoti/resource-demand-prediction-ml-model/featurebuild"
)

var ErrHorizonTooLong = errors.New("forecast horizon leaves no training history")

// Split holds one resource's train/evaluation partition. Train carries the
// first L-H points of target and covariates; Horizon carries the covariates
// of the held-out window, which the forecasting service requires in full
// when predicting over that window; Actual is the ground-truth tail.
type Split struct {
	Train   *ResourceSeries
	Horizon *featurebuild.Dynamic
	Actual  []float64
	ActualT []time.Time
}

// SplitSeries holds out the final horizon points of s for evaluation and
// returns the remaining history as the training series. The invariant
// Train.Len() + horizon == s.Len() always holds on success.
func SplitSeries(s *ResourceSeries, horizon int) (*Split, error) {
	if err := s.Valid(); err != nil {
		return nil, err
	}
	if horizon <= 0 || horizon >= s.Len() {
		return nil, fmt.Errorf("horizon %d against %d points for resource %s, %w",
			horizon, s.Len(), s.ResourceID, ErrHorizonTooLong)
	}

	cut := s.Len() - horizon
	train := &ResourceSeries{
		ResourceID: s.ResourceID,
		Start:      s.Start,
		Interval:   s.Interval,
		Target:     append([]float64(nil), s.Target[:cut]...),
		Dynamic:    s.Dynamic.Truncate(cut),
		Meta:       s.Meta,
	}

	actual := append([]float64(nil), s.Target[cut:]...)
	actualT := make([]time.Time, 0, horizon)
	for i := cut; i < s.Len(); i++ {
		actualT = append(actualT, s.TimeAt(i))
	}

	return &Split{
		Train:   train,
		Horizon: s.Dynamic.Tail(cut),
		Actual:  actual,
		ActualT: actualT,
	}, nil
}
