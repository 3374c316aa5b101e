package occupancy

import (
	"log/slog"

	"github.com/nsoti/resource-demand-prediction-ml-model/deepar"
	"github.com/nsoti/resource-demand-prediction-ml-model/featurebuild"
)

// DefaultVizSampleCount is how many resources are drawn for the comparison
// charts when no count is configured.
const DefaultVizSampleCount = 5

type Options struct {
	Hyperparameters deepar.Hyperparameters

	// MinHistory is the fewest contiguous hourly rows a resource needs to
	// enter training.
	MinHistory int

	// VizSampleCount bounds how many resources get a comparison chart.
	VizSampleCount int

	// Calendar supplies future exam and peak covariates when forecasting
	// beyond held-out data. Optional for evaluation runs.
	Calendar *featurebuild.Calendar

	Logger *slog.Logger
}

func NewDefaultOptions() *Options {
	h := deepar.DefaultHyperparameters()
	return &Options{
		Hyperparameters: h,
		MinHistory:      h.MinHistory(),
		VizSampleCount:  DefaultVizSampleCount,
	}
}
