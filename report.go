package occupancy

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Metrics"

// WriteReport writes the per-resource and aggregate error statistics of a
// run as a spreadsheet: one row per evaluated resource, an overall row, and
// a second sheet listing excluded resources.
func WriteReport(path string, res *Results) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(reportSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	header := []any{"resource_id", "points", "mae", "rmse", "mape", "r2"}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return err
	}

	row := 2
	for _, rr := range res.Resources {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		vals := []any{rr.ResourceID, rr.Scores.N, rr.Scores.MAE, rr.Scores.RMSE, rr.Scores.MAPE, cellR2(rr.Scores.R2)}
		if err := f.SetSheetRow(reportSheet, cell, &vals); err != nil {
			return err
		}
		row++
	}

	if res.Aggregate != nil {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		vals := []any{"overall", res.Aggregate.N, res.Aggregate.MAE, res.Aggregate.RMSE, res.Aggregate.MAPE, cellR2(res.Aggregate.R2)}
		if err := f.SetSheetRow(reportSheet, cell, &vals); err != nil {
			return err
		}
	}

	if len(res.Skipped) > 0 {
		if _, err := f.NewSheet("Skipped"); err != nil {
			return err
		}
		skipHeader := []any{"resource_id", "contiguous_rows", "reason"}
		if err := f.SetSheetRow("Skipped", "A1", &skipHeader); err != nil {
			return err
		}
		for i, skip := range res.Skipped {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			vals := []any{skip.ResourceID, skip.Rows, fmt.Sprint(skip.Reason)}
			if err := f.SetSheetRow("Skipped", cell, &vals); err != nil {
				return err
			}
		}
	}

	f.DeleteSheet("Sheet1")
	return f.SaveAs(path)
}

// cellR2 keeps undefined R2 values readable in the sheet.
func cellR2(v float64) any {
	if math.IsNaN(v) {
		return "n/a"
	}
	return v
}
