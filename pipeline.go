package occupancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nsoti/resource-demand-prediction-ml-model/deepar"
	"github.com/nsoti/resource-demand-prediction-ml-model/featurebuild"
	"github.com/nsoti/resource-demand-prediction-ml-model/series"
	"github.com/nsoti/resource-demand-prediction-ml-model/stats"
	"github.com/nsoti/resource-demand-prediction-ml-model/usagedataset"
)

var (
	ErrNilForecaster = errors.New("no forecasting service client")
	ErrNothingToRun  = errors.New("no resource survived preparation")
)

// Pipeline prepares occupancy data for the remote forecasting service and
// evaluates the forecasts it returns. The model itself lives behind the
// Forecaster contract; the pipeline only holds series data.
type Pipeline struct {
	opt        *Options
	forecaster deepar.Forecaster
	logger     *slog.Logger
}

// New creates a Pipeline using the provided options. If no options are
// provided a default is used.
func New(opt *Options, fc deepar.Forecaster) (*Pipeline, error) {
	if fc == nil {
		return nil, ErrNilForecaster
	}
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &Pipeline{
		opt:        opt,
		forecaster: fc,
		logger:     opt.Logger,
	}, nil
}

// Prepared is the local output of the pipeline before any remote call:
// per-resource train/evaluation splits, the serialized training payload,
// and everything that was excluded along the way.
type Prepared struct {
	Splits  []*series.Split
	Skipped []series.Skip
	Failed  []deepar.RecordError
	Vocab   *series.Vocab
	Payload []byte
}

// Prepare runs the local half of the pipeline: derive features, assemble
// per-resource series, hold out the forecast horizon, and serialize the
// training payload. All validation happens here, before any remote cost is
// incurred.
func (p *Pipeline) Prepare(ds *usagedataset.Dataset) (*Prepared, error) {
	rows := featurebuild.Build(ds)

	asm, err := series.Assemble(rows, p.opt.MinHistory)
	if err != nil {
		return nil, fmt.Errorf("unable to assemble resource series, %w", err)
	}
	for _, skip := range asm.Skipped {
		p.logger.Warn("resource excluded", "resource", skip.ResourceID, "rows", skip.Rows, "reason", skip.Reason)
	}

	horizon := p.opt.Hyperparameters.PredictionLength
	prep := &Prepared{
		Skipped: asm.Skipped,
		Vocab:   asm.Vocab,
	}
	trains := make([]*series.ResourceSeries, 0, len(asm.Series))
	for _, s := range asm.Series {
		sp, err := series.SplitSeries(s, horizon)
		if err != nil {
			prep.Failed = append(prep.Failed, deepar.RecordError{ResourceID: s.ResourceID, Err: err})
			continue
		}
		prep.Splits = append(prep.Splits, sp)
		trains = append(trains, sp.Train)
	}
	if len(trains) == 0 {
		return nil, ErrNothingToRun
	}

	payload, failed, err := deepar.EncodeTraining(trains, asm.Vocab)
	if err != nil {
		return nil, fmt.Errorf("unable to encode training payload, %w", err)
	}
	prep.Failed = append(prep.Failed, failed...)
	prep.Payload = payload
	return prep, nil
}

// Run drives the full pipeline: Prepare, remote training, per-resource
// inference over the held-out window, and evaluation. A resource whose
// inference or evaluation fails is reported in Results.Failed without
// aborting the batch.
func (p *Pipeline) Run(ctx context.Context, ds *usagedataset.Dataset) (*Results, error) {
	prep, err := p.Prepare(ds)
	if err != nil {
		return nil, err
	}

	artifact, err := p.forecaster.Train(ctx, prep.Payload, p.opt.Hyperparameters)
	if err != nil {
		return nil, fmt.Errorf("remote training failed, %w", err)
	}
	p.logger.Info("training complete", "artifact", artifact, "series", len(prep.Splits))

	res := &Results{
		ModelArtifact: artifact,
		Skipped:       prep.Skipped,
		Failed:        prep.Failed,
	}
	perResource := make([]stats.ResourceScores, 0, len(prep.Splits))
	for _, sp := range prep.Splits {
		rr, err := p.evaluateSplit(ctx, sp, prep.Vocab)
		if err != nil {
			res.Failed = append(res.Failed, deepar.RecordError{ResourceID: sp.Train.ResourceID, Err: err})
			continue
		}
		res.Resources = append(res.Resources, *rr)
		perResource = append(perResource, stats.ResourceScores{
			ResourceID: rr.ResourceID,
			Scores:     rr.Scores,
		})
	}
	res.Aggregate = stats.Aggregate(perResource)
	return res, nil
}

func (p *Pipeline) evaluateSplit(ctx context.Context, sp *series.Split, vocab *series.Vocab) (*ResourceResult, error) {
	rec, err := deepar.InferenceRecord(sp, vocab)
	if err != nil {
		return nil, err
	}
	fc, err := p.forecaster.Forecast(ctx, rec)
	if err != nil {
		return nil, err
	}
	if len(fc.P50) != len(sp.Actual) {
		return nil, fmt.Errorf("forecast covers %d points but %d were held out, %w",
			len(fc.P50), len(sp.Actual), stats.ErrLenMismatch)
	}
	scores, err := stats.Evaluate(sp.Actual, fc.P50)
	if err != nil {
		return nil, err
	}
	return &ResourceResult{
		ResourceID: sp.Train.ResourceID,
		T:          sp.ActualT,
		Actual:     sp.Actual,
		Forecast:   fc,
		Scores:     *scores,
	}, nil
}
