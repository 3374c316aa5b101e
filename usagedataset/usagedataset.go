package usagedataset

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrNoRecords           = errors.New("no usage records")
	ErrDuplicateTimestamp  = errors.New("duplicate timestamp within resource")
	ErrInconsistentStatics = errors.New("inconsistent resource metadata across rows")
)

// Required columns of the input table. Order matches the upstream export.
var RequiredColumns = []string{
	"usage_id",
	"timestamp",
	"resource_id",
	"current_occupancy",
	"occupancy_rate",
	"day_of_week",
	"is_exam_period",
	"is_peak_hour",
	"resource_type",
	"name",
	"location",
	"total_capacity",
	"availability_hours",
}

// Optional columns. Absent columns leave the corresponding fields nil.
var OptionalColumns = []string{
	"total_free_students",
	"total_busy_students",
}

// Row is one denormalized observation from the input table: a usage
// measurement joined with the owning resource's metadata columns.
type Row struct {
	UsageID          string
	Timestamp        time.Time
	ResourceID       string
	CurrentOccupancy int
	OccupancyRate    float64
	DayOfWeek        time.Weekday
	IsExamPeriod     bool
	IsPeakHour       bool

	ResourceType      string
	Name              string
	Location          string
	TotalCapacity     int
	AvailabilityHours string

	TotalFreeStudents *int
	TotalBusyStudents *int
}

// ResourceMetadata holds the time-invariant attributes of a resource.
type ResourceMetadata struct {
	ResourceID        string
	ResourceType      string
	Name              string
	Location          string
	TotalCapacity     int
	AvailabilityHours string
}

// Metadata extracts the static attributes carried on this row.
func (r Row) Metadata() ResourceMetadata {
	return ResourceMetadata{
		ResourceID:        r.ResourceID,
		ResourceType:      r.ResourceType,
		Name:              r.Name,
		Location:          r.Location,
		TotalCapacity:     r.TotalCapacity,
		AvailabilityHours: r.AvailabilityHours,
	}
}

// Dataset is the loaded and schema-checked occupancy table.
type Dataset struct {
	Rows []Row
}

// New wraps rows in a Dataset after checking basic integrity: at least one
// row, and no duplicated timestamps within a resource. Rows are copied.
func New(rows []Row) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, ErrNoRecords
	}
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		key := r.ResourceID + "\x00" + r.Timestamp.UTC().Format(time.RFC3339)
		if _, exists := seen[key]; exists {
			return nil, fmt.Errorf("resource %s at %s, %w", r.ResourceID, r.Timestamp, ErrDuplicateTimestamp)
		}
		seen[key] = struct{}{}
	}
	cp := make([]Row, len(rows))
	copy(cp, rows)
	return &Dataset{Rows: cp}, nil
}

// ResourceIDs returns the sorted distinct resource ids present in the table.
func (d *Dataset) ResourceIDs() []string {
	set := make(map[string]struct{})
	for _, r := range d.Rows {
		set[r.ResourceID] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Partition groups rows by resource id, each group sorted by timestamp
// ascending. Group iteration order follows ResourceIDs.
func (d *Dataset) Partition() map[string][]Row {
	parts := make(map[string][]Row)
	for _, r := range d.Rows {
		parts[r.ResourceID] = append(parts[r.ResourceID], r)
	}
	for id := range parts {
		rows := parts[id]
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		})
		parts[id] = rows
	}
	return parts
}

// ParseWeekday maps a day_of_week cell to a time.Weekday. Accepts full
// English day names, case-insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unrecognized day of week %q", s)
}
