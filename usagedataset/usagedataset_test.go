package usagedataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvHeader = "usage_id,timestamp,resource_id,current_occupancy,occupancy_rate,day_of_week,is_exam_period,is_peak_hour,resource_type,name,location,total_capacity,availability_hours,total_free_students,total_busy_students"

func csvRow(id, ts, resource, rate string) string {
	return strings.Join([]string{
		id, ts, resource, "12", rate, "Monday", "false", "true",
		"study_room", "Room A", "north_wing", "40", "08:00-22:00", "5", "7",
	}, ",")
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		csvHeader,
		csvRow("u1", "2025-03-03T09:00:00Z", "r1", "0.3"),
		csvRow("u2", "2025-03-03T10:00:00Z", "r1", "0.45"),
	}, "\n")

	ds, err := ReadCSV(strings.NewReader(input))
	require.Nil(t, err)
	require.Len(t, ds.Rows, 2)

	row := ds.Rows[0]
	assert.Equal(t, "u1", row.UsageID)
	assert.Equal(t, "r1", row.ResourceID)
	assert.Equal(t, time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), row.Timestamp)
	assert.Equal(t, 12, row.CurrentOccupancy)
	assert.Equal(t, 0.3, row.OccupancyRate)
	assert.Equal(t, time.Monday, row.DayOfWeek)
	assert.False(t, row.IsExamPeriod)
	assert.True(t, row.IsPeakHour)
	assert.Equal(t, 40, row.TotalCapacity)
	require.NotNil(t, row.TotalFreeStudents)
	assert.Equal(t, 5, *row.TotalFreeStudents)
	require.NotNil(t, row.TotalBusyStudents)
	assert.Equal(t, 7, *row.TotalBusyStudents)
}

func TestReadCSVMissingColumns(t *testing.T) {
	input := "usage_id,timestamp,resource_id\nu1,2025-03-03T09:00:00Z,r1"
	_, err := ReadCSV(strings.NewReader(input))
	require.NotNil(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Missing, "occupancy_rate")
	assert.Contains(t, schemaErr.Missing, "total_capacity")
	assert.NotContains(t, schemaErr.Missing, "usage_id")
}

func TestReadCSVMalformed(t *testing.T) {
	testData := map[string]struct {
		row    string
		column string
	}{
		"bad timestamp": {
			csvRow("u1", "yesterday", "r1", "0.3"),
			"timestamp",
		},
		"rate out of range": {
			csvRow("u1", "2025-03-03T09:00:00Z", "r1", "1.7"),
			"occupancy_rate",
		},
		"rate not numeric": {
			csvRow("u1", "2025-03-03T09:00:00Z", "r1", "full"),
			"occupancy_rate",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			input := csvHeader + "\n" + td.row
			_, err := ReadCSV(strings.NewReader(input))
			require.NotNil(t, err)

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Contains(t, schemaErr.Malformed, td.column)
		})
	}
}

func TestReadCSVOptionalColumnsAbsent(t *testing.T) {
	header := strings.Join(RequiredColumns, ",")
	row := strings.Join([]string{
		"u1", "2025-03-03T09:00:00Z", "r1", "12", "0.3", "Monday", "false", "true",
		"study_room", "Room A", "north_wing", "40", "08:00-22:00",
	}, ",")

	ds, err := ReadCSV(strings.NewReader(header + "\n" + row))
	require.Nil(t, err)
	require.Len(t, ds.Rows, 1)
	assert.Nil(t, ds.Rows[0].TotalFreeStudents)
	assert.Nil(t, ds.Rows[0].TotalBusyStudents)
}

func TestNewDuplicateTimestamp(t *testing.T) {
	meta := TestMetadata("r1")
	ts := GenerateHourlyT(2, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))
	rows := GenerateRows(meta, ts, []float64{0.1, 0.2})
	rows[1].Timestamp = rows[0].Timestamp

	_, err := New(rows)
	assert.ErrorIs(t, err, ErrDuplicateTimestamp)
}

func TestNewEmpty(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestRowMetadata(t *testing.T) {
	start := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	rows := GenerateRows(TestMetadata("r1"), GenerateHourlyT(1, start), []float64{0.1})

	meta := rows[0].Metadata()
	assert.Equal(t, "r1", meta.ResourceID)
	assert.Equal(t, "Room r1", meta.Name)
	assert.Equal(t, 40, meta.TotalCapacity)
	assert.Equal(t, TestMetadata("r1"), meta)
}

func TestPartitionSorts(t *testing.T) {
	start := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	rows := GenerateRows(TestMetadata("r1"), GenerateHourlyT(3, start), []float64{0.1, 0.2, 0.3})
	// shuffle the input ordering
	rows[0], rows[2] = rows[2], rows[0]

	ds, err := New(rows)
	require.Nil(t, err)

	parts := ds.Partition()
	require.Len(t, parts["r1"], 3)
	for i := 1; i < len(parts["r1"]); i++ {
		assert.True(t, parts["r1"][i-1].Timestamp.Before(parts["r1"][i].Timestamp))
	}
}

func TestParseWeekday(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected time.Weekday
		hasErr   bool
	}{
		"lower":      {"monday", time.Monday, false},
		"title":      {"Friday", time.Friday, false},
		"padded":     {" Sunday ", time.Sunday, false},
		"unknown":    {"Funday", 0, true},
		"empty cell": {"", 0, true},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			day, err := ParseWeekday(td.input)
			if td.hasErr {
				assert.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, day)
		})
	}
}
