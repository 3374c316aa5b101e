package series

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nsoti/resource-demand-prediction-ml-model/featurebuild"
	"github.com/nsoti/resource-demand-prediction-ml-model/usagedataset"
)

var (
	ErrInsufficientHistory = errors.New("insufficient contiguous history")
	ErrEmptySeries         = errors.New("empty resource series")
	ErrDynamicLenMismatch  = errors.New("dynamic feature length differs from target length")
)

// ResourceSeries is the per-resource unit submitted to the forecasting
// service: an hourly target sequence, time-aligned dynamic covariates of the
// same length, and the resource's static metadata.
type ResourceSeries struct {
	ResourceID string
	Start      time.Time
	Interval   time.Duration
	Target     []float64
	Dynamic    *featurebuild.Dynamic
	Meta       usagedataset.ResourceMetadata
}

// TimeAt returns the timestamp of the i-th point.
func (s *ResourceSeries) TimeAt(i int) time.Time {
	return s.Start.Add(time.Duration(i) * s.Interval)
}

// Len returns the number of points in the target sequence.
func (s *ResourceSeries) Len() int {
	return len(s.Target)
}

// Valid checks the series invariant: a non-empty target with every dynamic
// covariate sequence of identical length.
func (s *ResourceSeries) Valid() error {
	if s.Len() == 0 {
		return fmt.Errorf("resource %s, %w", s.ResourceID, ErrEmptySeries)
	}
	if len(s.Dynamic.DayOfWeek) != s.Len() ||
		len(s.Dynamic.ExamPeriod) != s.Len() ||
		len(s.Dynamic.PeakHour) != s.Len() {
		return fmt.Errorf("resource %s, %w", s.ResourceID, ErrDynamicLenMismatch)
	}
	return nil
}

// Skip records a resource excluded from assembly and why.
type Skip struct {
	ResourceID string
	Rows       int
	Reason     error
}

// Result is the assembly output: one series per qualifying resource, the
// skipped resources with reasons, and the categorical vocabulary spanning
// every resource seen.
type Result struct {
	Series  []*ResourceSeries
	Skipped []Skip
	Vocab   *Vocab
}

// SkippedIDs returns the ids of skipped resources in order.
func (r *Result) SkippedIDs() []string {
	ids := make([]string, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		ids = append(ids, s.ResourceID)
	}
	return ids
}

// Assemble groups feature rows by resource and packages each qualifying
// resource into a ResourceSeries. A resource qualifies when its trailing
// contiguous hourly run holds at least minHistory rows; shorter resources
// are reported in Skipped rather than dropped silently. Static metadata must
// agree across all of a resource's rows.
func Assemble(rows []featurebuild.Row, minHistory int) (*Result, error) {
	byResource := make(map[string][]featurebuild.Row)
	for _, r := range rows {
		byResource[r.ResourceID] = append(byResource[r.ResourceID], r)
	}

	ids := make([]string, 0, len(byResource))
	for id := range byResource {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	metas := make([]usagedataset.ResourceMetadata, 0, len(ids))
	res := &Result{}
	for _, id := range ids {
		part := byResource[id]
		sort.Slice(part, func(i, j int) bool {
			return part[i].Timestamp.Before(part[j].Timestamp)
		})

		meta := part[0].Metadata()
		for _, r := range part[1:] {
			if r.Metadata() != meta {
				return nil, fmt.Errorf("resource %s, %w", id, usagedataset.ErrInconsistentStatics)
			}
		}
		metas = append(metas, meta)

		run := trailingHourlyRun(part)
		if len(run) < minHistory {
			res.Skipped = append(res.Skipped, Skip{
				ResourceID: id,
				Rows:       len(run),
				Reason:     fmt.Errorf("%d of %d contiguous hourly rows, %w", len(run), minHistory, ErrInsufficientHistory),
			})
			continue
		}

		s := &ResourceSeries{
			ResourceID: id,
			Start:      run[0].Timestamp,
			Interval:   time.Hour,
			Target:     make([]float64, 0, len(run)),
			Dynamic:    &featurebuild.Dynamic{},
			Meta:       meta,
		}
		for _, r := range run {
			s.Target = append(s.Target, r.OccupancyRate)
			s.Dynamic.Append(r.DayOfWeek, r.IsExamPeriod, r.IsPeakHour)
		}
		if err := s.Valid(); err != nil {
			return nil, err
		}
		res.Series = append(res.Series, s)
	}

	res.Vocab = NewVocab(metas)
	return res, nil
}

// trailingHourlyRun returns the longest suffix of part whose consecutive
// timestamps are exactly one hour apart. A gap restarts the run, so only the
// most recent contiguous block is considered for assembly.
func trailingHourlyRun(part []featurebuild.Row) []featurebuild.Row {
	start := 0
	for i := 1; i < len(part); i++ {
		if part[i].Timestamp.Sub(part[i-1].Timestamp) != time.Hour {
			start = i
		}
	}
	return part[start:]
}
