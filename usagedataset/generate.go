package usagedataset

import (
	"fmt"
	"time"
)

// GenerateHourlyT produces n hourly timestamps starting at start.
func GenerateHourlyT(n int, start time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, start.Add(time.Duration(i)*time.Hour))
	}
	return t
}

// GenerateConstRates produces n copies of val.
func GenerateConstRates(n int, val float64) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = val
	}
	return y
}

// GenerateStepRates produces n values equal to before up to the step index
// and after from the step index onward.
func GenerateStepRates(n, step int, before, after float64) []float64 {
	y := make([]float64, n)
	for i := range y {
		if i < step {
			y[i] = before
		} else {
			y[i] = after
		}
	}
	return y
}

// GenerateRows builds one row per timestamp for a single resource carrying
// the given metadata and occupancy rates. Exam and peak flags default to
// false; capacity-derived fields are filled from the rate.
func GenerateRows(meta ResourceMetadata, t []time.Time, rates []float64) []Row {
	rows := make([]Row, 0, len(t))
	for i := range t {
		occ := int(rates[i] * float64(meta.TotalCapacity))
		rows = append(rows, Row{
			UsageID:           fmt.Sprintf("%s-%d", meta.ResourceID, i),
			Timestamp:         t[i],
			ResourceID:        meta.ResourceID,
			CurrentOccupancy:  occ,
			OccupancyRate:     rates[i],
			DayOfWeek:         t[i].Weekday(),
			ResourceType:      meta.ResourceType,
			Name:              meta.Name,
			Location:          meta.Location,
			TotalCapacity:     meta.TotalCapacity,
			AvailabilityHours: meta.AvailabilityHours,
		})
	}
	return rows
}

// TestMetadata returns a metadata fixture for the given id.
func TestMetadata(id string) ResourceMetadata {
	return ResourceMetadata{
		ResourceID:        id,
		ResourceType:      "study_room",
		Name:              "Room " + id,
		Location:          "north_wing",
		TotalCapacity:     40,
		AvailabilityHours: "08:00-22:00",
	}
}
