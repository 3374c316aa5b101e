package deepar

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/nsoti/resource-demand-prediction-ml-model/series"
)

var (
	ErrEmptyTarget    = errors.New("record has an empty target")
	ErrLengthMismatch = errors.New("dynamic feature length inconsistent with target")
	ErrNoRecords      = errors.New("no records to encode")
)

// StartLayout is the timestamp format the forecasting service accepts for a
// series start.
const StartLayout = "2006-01-02 15:04:05"

// Record is one line of the JSON Lines payload consumed by the training and
// inference endpoints: a target sequence, equal-length dynamic covariate
// sequences, integer-encoded static categories, and the series start.
type Record struct {
	Start       string      `json:"start,omitempty"`
	Target      []float64   `json:"target"`
	Cat         []int       `json:"cat,omitempty"`
	DynamicFeat [][]float64 `json:"dynamic_feat,omitempty"`
}

// validate enforces the shape contract before anything is serialized. For
// training records every dynamic sequence matches the target length; for
// inference requests the sequences additionally cover horizon future steps.
func (r Record) validate(horizon int) error {
	if len(r.Target) == 0 {
		return ErrEmptyTarget
	}
	want := len(r.Target) + horizon
	for i, feat := range r.DynamicFeat {
		if len(feat) != want {
			return fmt.Errorf("dynamic feature %d has %d points, want %d, %w",
				i, len(feat), want, ErrLengthMismatch)
		}
	}
	return nil
}

// TrainingRecord serializes one training series into its request record.
func TrainingRecord(s *series.ResourceSeries, vocab *series.Vocab) (Record, error) {
	if err := s.Valid(); err != nil {
		return Record{}, err
	}
	cat, err := vocab.Encode(s.Meta)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		Start:  s.Start.UTC().Format(StartLayout),
		Target: s.Target,
		Cat:    cat,
		DynamicFeat: [][]float64{
			s.Dynamic.DayOfWeek,
			s.Dynamic.ExamPeriod,
			s.Dynamic.PeakHour,
		},
	}
	if err := rec.validate(0); err != nil {
		return Record{}, fmt.Errorf("resource %s, %w", s.ResourceID, err)
	}
	return rec, nil
}

// InferenceRecord builds the request record for forecasting a split's
// held-out window: the target covers only the training context while the
// dynamic covariates span context plus horizon.
func InferenceRecord(sp *series.Split, vocab *series.Vocab) (Record, error) {
	cat, err := vocab.Encode(sp.Train.Meta)
	if err != nil {
		return Record{}, err
	}
	dyn := sp.Train.Dynamic.Truncate(sp.Train.Len())
	dyn.Extend(sp.Horizon)

	rec := Record{
		Start:  sp.Train.Start.UTC().Format(StartLayout),
		Target: sp.Train.Target,
		Cat:    cat,
		DynamicFeat: [][]float64{
			dyn.DayOfWeek,
			dyn.ExamPeriod,
			dyn.PeakHour,
		},
	}
	if err := rec.validate(sp.Horizon.Len()); err != nil {
		return Record{}, fmt.Errorf("resource %s, %w", sp.Train.ResourceID, err)
	}
	return rec, nil
}

// RecordError ties a formatting failure to the resource it came from so one
// malformed series does not abort the batch.
type RecordError struct {
	ResourceID string
	Err        error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("resource %s: %v", e.ResourceID, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// EncodeTraining serializes training series into a JSON Lines payload, one
// record per line. Series that fail the shape contract are returned in the
// failure list and excluded from the payload. An error is returned only when
// nothing could be encoded.
func EncodeTraining(list []*series.ResourceSeries, vocab *series.Vocab) ([]byte, []RecordError, error) {
	var buf bytes.Buffer
	var failed []RecordError
	encoded := 0
	for _, s := range list {
		rec, err := TrainingRecord(s, vocab)
		if err != nil {
			failed = append(failed, RecordError{ResourceID: s.ResourceID, Err: err})
			continue
		}
		line, err := json.Marshal(rec)
		if err != nil {
			failed = append(failed, RecordError{ResourceID: s.ResourceID, Err: err})
			continue
		}
		buf.Write(line)
		buf.WriteByte('\n')
		encoded++
	}
	if encoded == 0 {
		return nil, failed, ErrNoRecords
	}
	return buf.Bytes(), failed, nil
}

// DecodeLines parses a JSON Lines payload back into records. The encode and
// decode pair round-trips exactly, which the tests rely on.
func DecodeLines(payload []byte) ([]Record, error) {
	var records []Record
	for i, line := range bytes.Split(payload, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("unable to decode line %d, %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
