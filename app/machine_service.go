package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/internal"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// ReportSince bounds the failure reports.
var ReportSince = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

// TopMachines is the length of the failures-by-machine report.
const TopMachines = 10

// Warning levels
const (
	LevelError = "Error"
	LevelInfo  = "Info"
)

// Warning is a dashboard notice about a machine that is not OK
type Warning struct {
	MachineID interface{} `json:"machine_id"`
	Timestamp string      `json:"timestamp"`
	Level     string      `json:"level"`
	Msg       string      `json:"msg"`
}

// TelemetryReport combines the three per-machine time series
type TelemetryReport struct {
	Telemetry []ports.Row `json:"telemetry"`
	Errors    []ports.Row `json:"errors"`
	Failures  []ports.Row `json:"failures"`
}

// MachineService answers the dashboard's read-only machine queries
type MachineService struct {
	gateway ports.QueryGateway
	catalog ports.Catalog
	logger  *internal.Logger
	now     func() time.Time
}

// NewMachineService creates a machine service
func NewMachineService(gateway ports.QueryGateway, catalog ports.Catalog, logger *internal.Logger) *MachineService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &MachineService{gateway: gateway, catalog: catalog, logger: logger, now: time.Now}
}

// collect runs a catalog statement and drains the result
func (s *MachineService) collect(ctx context.Context, name ports.Statement, params map[string]ports.Param) ([]ports.Row, error) {
	text, err := s.catalog.Statement(name)
	if err != nil {
		return nil, err
	}
	it, err := s.gateway.Query(ctx, ports.Query{Text: text, Params: params})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer it.Close()

	rows := []ports.Row{}
	for it.Next() {
		rows = append(rows, it.Row())
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return rows, nil
}

// MachineURL is the dashboard page of a machine.
func MachineURL(id interface{}) string {
	if f, ok := id.(float64); ok && f == math.Trunc(f) {
		return fmt.Sprintf("/machines/%d", int64(f))
	}
	return fmt.Sprintf("/machines/%v", id)
}

// ListMachines returns every machine with a link to its page
func (s *MachineService) ListMachines(ctx context.Context) ([]ports.Row, error) {
	rows, err := s.collect(ctx, ports.StmtMachineList, nil)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		r["url"] = MachineURL(r["id"])
	}
	return rows, nil
}

// Warnings converts machines that are not OK into warnings
func (s *MachineService) Warnings(ctx context.Context) ([]Warning, error) {
	rows, err := s.collect(ctx, ports.StmtMachineWarnings, nil)
	if err != nil {
		return nil, err
	}
	stamp := s.now().UTC().Format("2006-01-02 15:04:05")
	warnings := make([]Warning, 0, len(rows))
	for _, r := range rows {
		status := fmt.Sprint(r["status"])
		level := LevelInfo
		if status == "Failure" {
			level = LevelError
		}
		id := r["id"]
		if f, ok := id.(float64); ok && f == math.Trunc(f) {
			id = int64(f)
		}
		warnings = append(warnings, Warning{
			MachineID: id,
			Timestamp: stamp,
			Level:     level,
			Msg:       fmt.Sprintf("machine %v in status %s", id, status),
		})
	}
	return warnings, nil
}

// FailuresByMonth reports failures per month and model
func (s *MachineService) FailuresByMonth(ctx context.Context) ([]ports.Row, error) {
	return s.collect(ctx, ports.StmtFailuresByMonth, map[string]ports.Param{
		"since": ports.DateParam(ReportSince),
	})
}

// FailuresByModel reports the machines with the most failures
func (s *MachineService) FailuresByModel(ctx context.Context) ([]ports.Row, error) {
	return s.collect(ctx, ports.StmtFailuresByModel, map[string]ports.Param{
		"since": ports.DateParam(ReportSince),
		"limit": ports.IntParam(TopMachines),
	})
}

// Status returns the status row of one machine
func (s *MachineService) Status(ctx context.Context, machineID int64) (ports.Row, error) {
	if machineID <= 0 {
		return nil, core.NewInvalidParameterError("machine_id", fmt.Sprintf("must be positive, got %d", machineID))
	}
	rows, err := s.collect(ctx, ports.StmtMachineStatus, map[string]ports.Param{
		"machine_id": ports.IntParam(machineID),
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.NewNotFoundError("machine", fmt.Sprint(machineID))
	}
	return rows[0], nil
}

// Telemetry fetches readings, errors and failures of one machine in
// [start, end]. The three queries run concurrently; the first failure
// cancels the others.
func (s *MachineService) Telemetry(ctx context.Context, machineID int64, start, end time.Time) (*TelemetryReport, error) {
	if machineID <= 0 {
		return nil, core.NewInvalidParameterError("machine_id", fmt.Sprintf("must be positive, got %d", machineID))
	}
	if start.IsZero() || end.IsZero() {
		return nil, core.NewInvalidParameterError("start/end", "are required")
	}
	if end.Before(start) {
		return nil, core.NewInvalidParameterError("end", fmt.Sprintf("%s is before start %s",
			end.Format(dataset.DateLayout), start.Format(dataset.DateLayout)))
	}

	params := map[string]ports.Param{
		"machine_id": ports.IntParam(machineID),
		"start":      ports.DateParam(start),
		"end":        ports.DateParam(end),
	}

	report := &TelemetryReport{}
	g, gctx := errgroup.WithContext(ctx)
	targets := []struct {
		stmt ports.Statement
		dst  *[]ports.Row
	}{
		{ports.StmtTelemetry, &report.Telemetry},
		{ports.StmtErrors, &report.Errors},
		{ports.StmtFailures, &report.Failures},
	}
	for _, t := range targets {
		t := t
		g.Go(func() error {
			rows, err := s.collect(gctx, t.stmt, params)
			if err != nil {
				return err
			}
			*t.dst = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("telemetry for machine %d failed: %v", machineID, err)
		return nil, err
	}
	return report, nil
}
