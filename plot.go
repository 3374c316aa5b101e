package occupancy

import (
	"io"
	"math/rand/v2"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineComparison generates an echart line chart for one evaluated resource
// plotting the held-out actuals against the median forecast with the
// p10/p90 band drawn as its own series pair.
func LineComparison(rr ResourceResult) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Occupancy Forecast " + rr.ResourceID,
			},
		),
	)

	n := len(rr.T)
	actual := make([]opts.LineData, 0, n)
	p50 := make([]opts.LineData, 0, n)
	p10 := make([]opts.LineData, 0, n)
	p90 := make([]opts.LineData, 0, n)
	for i := 0; i < n; i++ {
		actual = append(actual, opts.LineData{Value: rr.Actual[i]})
		p50 = append(p50, opts.LineData{Value: rr.Forecast.P50[i]})
		p10 = append(p10, opts.LineData{Value: rr.Forecast.P10[i]})
		p90 = append(p90, opts.LineData{Value: rr.Forecast.P90[i]})
	}

	line.SetXAxis(rr.T).
		AddSeries("Actual", actual).
		AddSeries("Forecast p50", p50).
		AddSeries("p90", p90).
		AddSeries("p10", p10)
	return line
}

// BarResourceMAE generates a bar chart of per-resource MAE as a batch
// overview.
func BarResourceMAE(resources []ResourceResult) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "MAE by Resource",
			},
		),
	)

	ids := make([]string, 0, len(resources))
	vals := make([]opts.BarData, 0, len(resources))
	for _, rr := range resources {
		ids = append(ids, rr.ResourceID)
		vals = append(vals, opts.BarData{Value: rr.Scores.MAE})
	}
	bar.SetXAxis(ids).AddSeries("MAE", vals)
	return bar
}

// SampleResources draws up to n evaluated resources uniformly at random
// using the provided source, preserving the original ordering of the
// drawn resources. A nil source means no sampling and everything is kept.
func SampleResources(resources []ResourceResult, n int, rng *rand.Rand) []ResourceResult {
	if rng == nil || n >= len(resources) {
		return resources
	}
	idx := rng.Perm(len(resources))[:n]
	sort.Ints(idx)
	out := make([]ResourceResult, 0, n)
	for _, i := range idx {
		out = append(out, resources[i])
	}
	return out
}

// RenderCharts writes the comparison page for a pipeline run to path: one
// chart per sampled resource plus the batch MAE overview.
func (p *Pipeline) RenderCharts(path string, res *Results, rng *rand.Rand) error {
	sampled := SampleResources(res.Resources, p.opt.VizSampleCount, rng)

	page := components.NewPage()
	page.AddCharts(BarResourceMAE(res.Resources))
	for _, rr := range sampled {
		page.AddCharts(LineComparison(rr))
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return page.Render(io.MultiWriter(file))
}
