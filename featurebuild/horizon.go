package featurebuild

import (
	"time"

	"github.com/rickar/cal/v2"
)

// Dynamic holds the per-timestep covariate sequences of a series, encoded
// numerically: weekday as 0-6 (Sunday first) and flags as 0/1. All three
// sequences always share a length.
type Dynamic struct {
	DayOfWeek  []float64
	ExamPeriod []float64
	PeakHour   []float64
}

// Len returns the number of timesteps covered.
func (d *Dynamic) Len() int {
	return len(d.DayOfWeek)
}

// Append adds one timestep.
func (d *Dynamic) Append(weekday time.Weekday, exam, peak bool) {
	d.DayOfWeek = append(d.DayOfWeek, float64(weekday))
	d.ExamPeriod = append(d.ExamPeriod, encodeBool(exam))
	d.PeakHour = append(d.PeakHour, encodeBool(peak))
}

// Extend appends the covariates of src to d.
func (d *Dynamic) Extend(src *Dynamic) {
	d.DayOfWeek = append(d.DayOfWeek, src.DayOfWeek...)
	d.ExamPeriod = append(d.ExamPeriod, src.ExamPeriod...)
	d.PeakHour = append(d.PeakHour, src.PeakHour...)
}

// Truncate returns the first n timesteps as a copy.
func (d *Dynamic) Truncate(n int) *Dynamic {
	out := &Dynamic{
		DayOfWeek:  make([]float64, n),
		ExamPeriod: make([]float64, n),
		PeakHour:   make([]float64, n),
	}
	copy(out.DayOfWeek, d.DayOfWeek[:n])
	copy(out.ExamPeriod, d.ExamPeriod[:n])
	copy(out.PeakHour, d.PeakHour[:n])
	return out
}

// Tail returns the timesteps from n onward as a copy.
func (d *Dynamic) Tail(n int) *Dynamic {
	out := &Dynamic{}
	out.DayOfWeek = append(out.DayOfWeek, d.DayOfWeek[n:]...)
	out.ExamPeriod = append(out.ExamPeriod, d.ExamPeriod[n:]...)
	out.PeakHour = append(out.PeakHour, d.PeakHour[n:]...)
	return out
}

func encodeBool(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// TimeWindow is a half-open [Start, End) span of wall time.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// HourSpan is a half-open [Start, End) span of hours of the day.
type HourSpan struct {
	Start int
	End   int
}

func (s HourSpan) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= s.Start && h < s.End
}

// Calendar answers whether a future timestep falls in an exam period or a
// peak hour, so covariates known in advance can be supplied for the forecast
// horizon. Peak hours only apply on workdays of the underlying business
// calendar, so configured holidays suppress the peak flag.
type Calendar struct {
	business *cal.BusinessCalendar
	exams    []TimeWindow
	peaks    []HourSpan
}

// NewCalendar builds a Calendar from exam term windows, daily peak-hour
// spans, and the campus holidays observed.
func NewCalendar(exams []TimeWindow, peaks []HourSpan, holidays ...*cal.Holiday) *Calendar {
	business := cal.NewBusinessCalendar()
	business.AddHoliday(holidays...)
	return &Calendar{
		business: business,
		exams:    exams,
		peaks:    peaks,
	}
}

// IsExamPeriod reports whether t falls inside any configured exam window.
func (c *Calendar) IsExamPeriod(t time.Time) bool {
	for _, w := range c.exams {
		if w.Contains(t) {
			return true
		}
	}
	return false
}

// IsPeakHour reports whether t falls inside a peak span on a workday.
func (c *Calendar) IsPeakHour(t time.Time) bool {
	if !c.business.IsWorkday(t) {
		return false
	}
	for _, s := range c.peaks {
		if s.Contains(t) {
			return true
		}
	}
	return false
}

// Horizon produces the covariate sequences for n future timesteps following
// last at the given interval.
func (c *Calendar) Horizon(last time.Time, interval time.Duration, n int) *Dynamic {
	d := &Dynamic{
		DayOfWeek:  make([]float64, 0, n),
		ExamPeriod: make([]float64, 0, n),
		PeakHour:   make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		t := last.Add(time.Duration(i+1) * interval)
		d.Append(t.Weekday(), c.IsExamPeriod(t), c.IsPeakHour(t))
	}
	return d
}
