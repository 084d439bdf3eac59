package app

import (
	"context"
	"testing"
	"time"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/internal/testkit"
	"github.com/raw-labs/machine-prediction-demo/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachineService(gw *testkit.InMemoryGateway) *MachineService {
	s := NewMachineService(gw, testkit.Catalog{}, nil)
	s.now = func() time.Time { return time.Date(2019, 5, 23, 13, 10, 0, 0, time.UTC) }
	return s
}

func TestListMachinesAddsURL(t *testing.T) {
	gw := testkit.NewInMemoryGateway().SetRows(ports.StmtMachineList, []ports.Row{
		{"id": 1.0, "model": "model3"},
		{"id": 42.0, "model": "model4"},
	})

	rows, err := newMachineService(gw).ListMachines(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "/machines/1", rows[0]["url"])
	assert.Equal(t, "/machines/42", rows[1]["url"])
}

func TestWarningsLevels(t *testing.T) {
	gw := testkit.NewInMemoryGateway().SetRows(ports.StmtMachineWarnings, []ports.Row{
		{"id": 7.0, "status": "Failure"},
		{"id": 9.0, "status": "Warning"},
	})

	warnings, err := newMachineService(gw).Warnings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Warning{
		{MachineID: int64(7), Timestamp: "2019-05-23 13:10:00", Level: LevelError, Msg: "machine 7 in status Failure"},
		{MachineID: int64(9), Timestamp: "2019-05-23 13:10:00", Level: LevelInfo, Msg: "machine 9 in status Warning"},
	}, warnings)
}

func TestReportsBindParameters(t *testing.T) {
	gw := testkit.NewInMemoryGateway().
		SetRows(ports.StmtFailuresByMonth, []ports.Row{{"month": 1.0}}).
		SetRows(ports.StmtFailuresByModel, nil)
	s := newMachineService(gw)

	months, err := s.FailuresByMonth(context.Background())
	require.NoError(t, err)
	assert.Len(t, months, 1)

	top, err := s.FailuresByModel(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, top, "empty reports serialize as []")

	queries := gw.Queries()
	require.Len(t, queries, 2)
	assert.Equal(t, ports.DateParam(ReportSince), queries[1].Params["since"])
	assert.Equal(t, ports.IntParam(TopMachines), queries[1].Params["limit"])
}

func TestStatus(t *testing.T) {
	gw := testkit.NewInMemoryGateway().SetRows(ports.StmtMachineStatus, []ports.Row{{"status": "OK", "age": 18.0}})
	s := newMachineService(gw)

	row, err := s.Status(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "OK", row["status"])
	assert.Equal(t, ports.IntParam(3), gw.Queries()[0].Params["machine_id"])

	gw.SetRows(ports.StmtMachineStatus, nil)
	_, err = s.Status(context.Background(), 3)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Status(context.Background(), 0)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestTelemetryCombinesQueries(t *testing.T) {
	g := testkit.NewTelemetryGenerator(testkit.DefaultTelemetryConfig())
	start := time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(47 * time.Hour)

	gw := testkit.NewInMemoryGateway().
		SetRows(ports.StmtTelemetry, g.GenerateTelemetry(start, end)).
		SetRows(ports.StmtErrors, g.GenerateEvents(3, "error", "error", 5)).
		SetRows(ports.StmtFailures, g.GenerateEvents(1, "failure", "comp", 4))

	report, err := newMachineService(gw).Telemetry(context.Background(), 5, start, end)
	require.NoError(t, err)
	assert.Len(t, report.Telemetry, 48)
	assert.Len(t, report.Errors, 3)
	assert.Len(t, report.Failures, 1)

	queries := gw.Queries()
	require.Len(t, queries, 3)
	for _, q := range queries {
		assert.Equal(t, ports.IntParam(5), q.Params["machine_id"])
		assert.Equal(t, ports.DateParam(start), q.Params["start"])
	}
	assert.Equal(t, 0, gw.OpenIterators())
}

func TestTelemetryFailsAsAWhole(t *testing.T) {
	start := time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC)
	gw := testkit.NewInMemoryGateway().
		SetRows(ports.StmtTelemetry, []ports.Row{{"volt": 1.0}}).
		Set(ports.StmtErrors, testkit.Result{QueryErr: &core.UpstreamError{Status: 500, Message: "boom"}}).
		SetRows(ports.StmtFailures, nil)

	report, err := newMachineService(gw).Telemetry(context.Background(), 5, start, start.AddDate(0, 0, 1))
	assert.Nil(t, report)
	assert.ErrorIs(t, err, core.ErrUpstreamQuery)
}

func TestTelemetryValidatesWindow(t *testing.T) {
	s := newMachineService(testkit.NewInMemoryGateway())
	start := time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Telemetry(context.Background(), 5, start, start.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	_, err = s.Telemetry(context.Background(), 5, time.Time{}, start)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
	_, err = s.Telemetry(context.Background(), -1, start, start)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestMachineURL(t *testing.T) {
	assert.Equal(t, "/machines/12", MachineURL(12.0))
	assert.Equal(t, "/machines/12", MachineURL(int64(12)))
	assert.Equal(t, "/machines/abc", MachineURL("abc"))
}
