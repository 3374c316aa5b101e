package occupancy

import (
	"time"

	"github.com/nsoti/resource-demand-prediction-ml-model/deepar"
	"github.com/nsoti/resource-demand-prediction-ml-model/series"
	"github.com/nsoti/resource-demand-prediction-ml-model/stats"
)

// ResourceResult holds one resource's held-out window, the quantile
// forecast aligned to it, and the resulting error statistics.
type ResourceResult struct {
	ResourceID string                   `json:"resource_id"`
	T          []time.Time              `json:"time"`
	Actual     []float64                `json:"actual"`
	Forecast   *deepar.QuantileForecast `json:"forecast"`
	Scores     stats.Scores             `json:"scores"`
}

// Results is the evaluation output of a pipeline run.
type Results struct {
	ModelArtifact string               `json:"model_artifact"`
	Resources     []ResourceResult     `json:"resources"`
	Aggregate     *stats.Scores        `json:"aggregate"`
	Skipped       []series.Skip        `json:"-"`
	Failed        []deepar.RecordError `json:"-"`
}
