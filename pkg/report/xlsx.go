package report

import (
	"github.com/xuri/excelize/v2"

	"github.com/martflow/martflow/pkg/errors"
)

// ExportXLSX writes each result set to its own sheet of a workbook.
func ExportXLSX(results []ResultSet, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeReportFailure, "failed to create header style")
	}

	for i, rs := range results {
		sheet := rs.Sheet
		if i == 0 {
			// Rename the default sheet instead of leaving an empty Sheet1.
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return errors.Wrap(err, errors.CodeReportFailure, "failed to rename sheet")
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return errors.Wrap(err, errors.CodeReportFailure, "failed to create sheet").
					WithContext("sheet", sheet)
			}
		}

		header := make([]interface{}, len(rs.Columns))
		for c, name := range rs.Columns {
			header[c] = name
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return errors.Wrap(err, errors.CodeReportFailure, "failed to write header").
				WithContext("sheet", sheet)
		}

		lastCol, err := excelize.ColumnNumberToName(len(rs.Columns))
		if err == nil {
			f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)
		}

		for r, row := range rs.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return errors.Wrap(err, errors.CodeReportFailure, "bad cell coordinates")
			}
			record := make([]interface{}, len(row))
			for c, v := range row {
				record[c] = v
			}
			if err := f.SetSheetRow(sheet, cell, &record); err != nil {
				return errors.Wrap(err, errors.CodeReportFailure, "failed to write row").
					WithContext("sheet", sheet)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, errors.CodeReportFailure, "failed to save workbook").
			WithContext("path", path)
	}
	return nil
}
