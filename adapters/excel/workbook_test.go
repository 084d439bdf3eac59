package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportable() *dataset.Dataset {
	return &dataset.Dataset{
		ID: core.NewDatasetID(),
		Observations: []dataset.Observation{
			{Features: []float64{1.5, 200}, Outcome: 0},
			{Features: []float64{2.25, 180}, Outcome: 3},
			{Features: []float64{0, 190}, Outcome: 0},
		},
		TotalPositive: 1,
		TotalNegative: 2,
		FeatureCount:  2,
		Features: []dataset.FeatureSummary{
			{Index: 0, Mean: 1.25, Min: 0, Max: 2.25, Median: 1.5},
			{Index: 1, Mean: 190, Min: 180, Max: 200, Median: 190},
		},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteDatasetSheets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, exportable()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ObservationsSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(ObservationsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"f0", "f1", "failure"}, rows[0])
	assert.Equal(t, "1", rows[2][2], "nonzero outcomes export as 1")

	good, err := f.GetCellValue(SummarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "2", good)
	mean, err := f.GetCellValue(SummarySheet, "B8")
	require.NoError(t, err)
	assert.Equal(t, "190", mean)
}

func TestReadObservationsRecoversExport(t *testing.T) {
	ds := exportable()
	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, ds))

	got, err := ReadObservations(&buf)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ds.Observations[0], got[0])
	assert.Equal(t, dataset.OutcomeFailure, got[1].Outcome)
	assert.Equal(t, []float64{2.25, 180}, got[1].Features)
}

func TestReadObservationsRejectsBadSheets(t *testing.T) {
	build := func(rows [][]interface{}) *bytes.Buffer {
		f := excelize.NewFile()
		defer f.Close()
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
		}
		var buf bytes.Buffer
		_, err := f.WriteTo(&buf)
		require.NoError(t, err)
		return &buf
	}

	_, err := ReadObservations(build([][]interface{}{{"a", "b"}, {1, 0}}))
	assert.Error(t, err, "missing failure column")

	_, err = ReadObservations(build([][]interface{}{{"a", "b", "failure"}, {1, 2, 0}, {1, 1}}))
	assert.ErrorIs(t, err, core.ErrInconsistentSchema)

	got, err := ReadObservations(build([][]interface{}{{"a", "failure"}, {4, 1}}))
	require.NoError(t, err)
	assert.Equal(t, []dataset.Observation{{Features: []float64{4}, Outcome: 1}}, got)
}
