// Package excel exports datasets as xlsx workbooks and reads them back.
package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
)

// Sheet names
const (
	ObservationsSheet = "Observations"
	SummarySheet      = "Summary"
)

const failureHeader = "failure"

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func featureHeader(j int) string { return fmt.Sprintf("f%d", j) }

// WriteDataset writes one row per observation (features then the failure
// label) and a summary sheet with per-feature statistics.
func WriteDataset(w io.Writer, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ObservationsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeObservations(f, ds); err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeSummary(f, ds); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeObservations(f *excelize.File, ds *dataset.Dataset) error {
	sw, err := f.NewStreamWriter(ObservationsSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	header := make([]interface{}, 0, ds.FeatureCount+1)
	for j := 0; j < ds.FeatureCount; j++ {
		header = append(header, featureHeader(j))
	}
	header = append(header, failureHeader)
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, o := range ds.Observations {
		row := make([]interface{}, 0, len(o.Features)+1)
		for _, v := range o.Features {
			row = append(row, v)
		}
		row = append(row, o.Label())

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return sw.Flush()
}

func writeSummary(f *excelize.File, ds *dataset.Dataset) error {
	rows := [][]interface{}{
		{"name", ds.ID.String()},
		{"failures", ds.TotalPositive},
		{"good", ds.TotalNegative},
		{"created_at", ds.CreatedAt.Format("2006-01-02 15:04:05")},
		{},
		{"feature", "mean", "std_dev", "min", "max", "median"},
	}
	for _, s := range ds.Features {
		rows = append(rows, []interface{}{featureHeader(s.Index), s.Mean, s.StdDev, s.Min, s.Max, s.Median})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i, err)
		}
	}
	return nil
}

// ReadObservations reads the observations sheet of a workbook written by
// WriteDataset. The last column is the label; every other column is a
// feature.
func ReadObservations(r io.Reader) ([]dataset.Observation, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := ObservationsSheet
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	header := rows[0]
	if len(header) == 0 || !strings.EqualFold(strings.TrimSpace(header[len(header)-1]), failureHeader) {
		return nil, fmt.Errorf("last column of %s must be %q", sheet, failureHeader)
	}
	width := len(header) - 1

	observations := make([]dataset.Observation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if len(row) != width+1 {
			return nil, core.NewInconsistentSchemaError(i, len(row)-1, width)
		}
		features := make([]float64, width)
		for j := 0; j < width; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+2, j+1, err)
			}
			features[j] = v
		}
		label, err := strconv.ParseFloat(strings.TrimSpace(row[width]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d label: %w", i+2, err)
		}
		o := dataset.Observation{Features: features, Outcome: dataset.OutcomeGood}
		if label != 0 {
			o.Outcome = dataset.OutcomeFailure
		}
		observations = append(observations, o)
	}
	return observations, nil
}
