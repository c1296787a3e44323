package report

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Zscore"

// WriteXLSX writes rows to a workbook with a line chart of the z-score.
func WriteXLSX(rows []Row, path, title, firstHeader string, width int) error {
	if len(rows) == 0 {
		return errors.New("no data to write")
	}
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if defaultSheet != sheetName {
		if _, err := f.NewSheet(sheetName); err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("delete default sheet: %w", err)
		}
	}

	headers := []string{firstHeader, "number", "ones", "cumulative_mean", "z_test"}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{r.Label, r.Number, r.Ones, r.CumulativeMean, r.ZScore}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	endRow := len(rows) + 1
	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$E$1", sheetName),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetName, endRow),
				Values:     fmt.Sprintf("%s!$E$2:$E$%d", sheetName, endRow),
			},
		},
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Values"}}},
		YAxis: excelize.ChartAxis{
			Title:          []excelize.RichTextRun{{Text: fmt.Sprintf("Z-score - value width = %d bits", width)}},
			MajorGridLines: true,
		},
	}
	if err := f.AddChart(sheetName, "G2", chart); err != nil {
		return fmt.Errorf("add chart: %w", err)
	}

	return f.SaveAs(path)
}
