package usagedataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SchemaError reports required columns that are absent from the header or
// that failed coarse type parsing. The load never repairs or skips cells.
type SchemaError struct {
	Missing   []string
	Malformed map[string]string // column -> first offending cell description
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Malformed) > 0 {
		cols := make([]string, 0, len(e.Malformed))
		for col := range e.Malformed {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			parts = append(parts, fmt.Sprintf("malformed column %s: %s", col, e.Malformed[col]))
		}
	}
	return "schema: " + strings.Join(parts, "; ")
}

func (e *SchemaError) add(col string, rowNum int, err error) {
	if e.Malformed == nil {
		e.Malformed = make(map[string]string)
	}
	if _, exists := e.Malformed[col]; !exists {
		e.Malformed[col] = fmt.Sprintf("row %d: %v", rowNum, err)
	}
}

func (e *SchemaError) empty() bool {
	return len(e.Missing) == 0 && len(e.Malformed) == 0
}

// Timestamp layouts accepted by the loader, tried in order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// LoadCSV reads the occupancy table from path and validates it against the
// column contract. Returns a *SchemaError when the header is missing required
// columns or any cell fails type parsing.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read header, %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}

	schemaErr := &SchemaError{}
	for _, col := range RequiredColumns {
		if _, ok := colIdx[col]; !ok {
			schemaErr.Missing = append(schemaErr.Missing, col)
		}
	}
	if len(schemaErr.Missing) > 0 {
		return nil, schemaErr
	}

	var rows []Row
	for rowNum := 1; ; rowNum++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read row %d, %w", rowNum, err)
		}

		cell := func(col string) string { return strings.TrimSpace(rec[colIdx[col]]) }

		row := Row{
			UsageID:           cell("usage_id"),
			ResourceID:        cell("resource_id"),
			ResourceType:      cell("resource_type"),
			Name:              cell("name"),
			Location:          cell("location"),
			AvailabilityHours: cell("availability_hours"),
		}

		if row.Timestamp, err = parseTimestamp(cell("timestamp")); err != nil {
			schemaErr.add("timestamp", rowNum, err)
		}
		if row.CurrentOccupancy, err = parseNonNegInt(cell("current_occupancy")); err != nil {
			schemaErr.add("current_occupancy", rowNum, err)
		}
		if row.OccupancyRate, err = parseRate(cell("occupancy_rate")); err != nil {
			schemaErr.add("occupancy_rate", rowNum, err)
		}
		if row.DayOfWeek, err = ParseWeekday(cell("day_of_week")); err != nil {
			schemaErr.add("day_of_week", rowNum, err)
		}
		if row.IsExamPeriod, err = strconv.ParseBool(cell("is_exam_period")); err != nil {
			schemaErr.add("is_exam_period", rowNum, err)
		}
		if row.IsPeakHour, err = strconv.ParseBool(cell("is_peak_hour")); err != nil {
			schemaErr.add("is_peak_hour", rowNum, err)
		}
		if row.TotalCapacity, err = parsePosInt(cell("total_capacity")); err != nil {
			schemaErr.add("total_capacity", rowNum, err)
		}

		for _, col := range OptionalColumns {
			idx, ok := colIdx[col]
			if !ok || strings.TrimSpace(rec[idx]) == "" {
				continue
			}
			v, err := parseNonNegInt(strings.TrimSpace(rec[idx]))
			if err != nil {
				schemaErr.add(col, rowNum, err)
				continue
			}
			switch col {
			case "total_free_students":
				row.TotalFreeStudents = &v
			case "total_busy_students":
				row.TotalBusyStudents = &v
			}
		}

		rows = append(rows, row)
	}

	if !schemaErr.empty() {
		return nil, schemaErr
	}
	return New(rows)
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func parseNonNegInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %d", v)
	}
	return v, nil
}

func parsePosInt(s string) (int, error) {
	v, err := parseNonNegInt(s)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, fmt.Errorf("value must be positive")
	}
	return v, nil
}

func parseRate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("rate %f outside [0, 1]", v)
	}
	return v, nil
}
