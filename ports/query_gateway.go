package ports

import (
	"context"
	"fmt"
	"time"
)

// Row is one record returned by the analytics engine. Its shape is a
// property of the statement, not of the gateway.
type Row map[string]interface{}

// RowIterator is a lazy sequence of rows. Callers must Close it.
type RowIterator interface {
	Next() bool
	Row() Row
	// Err reports the error that stopped iteration, if any.
	Err() error
	Close() error
}

// Query is statement text plus its typed parameters.
type Query struct {
	Text   string
	Params map[string]Param
}

// QueryGateway sends queries to the remote analytics engine. It never
// retries; failures surface as core.UpstreamError.
type QueryGateway interface {
	Query(ctx context.Context, q Query) (RowIterator, error)
}

// Statement names a query in a dialect catalog.
type Statement string

const (
	StmtMachineList     Statement = "machine_list"
	StmtMachineWarnings Statement = "machine_warnings"
	StmtFailuresByMonth Statement = "failures_by_month"
	StmtFailuresByModel Statement = "failures_by_model"
	StmtMachineStatus   Statement = "machine_status"
	StmtTelemetry       Statement = "telemetry"
	StmtErrors          Statement = "errors"
	StmtFailures        Statement = "failures"
	StmtFeatures        Statement = "features"
)

// Catalog resolves statement names to dialect-specific query text.
type Catalog interface {
	Statement(name Statement) (string, error)
}

// ParamKind restricts what a parameter may hold.
type ParamKind int

const (
	ParamInt ParamKind = iota
	ParamDate
	ParamDays
)

// Param is a typed query parameter. Gateways without bind variables render
// it from the typed value, never from caller-provided text.
type Param struct {
	Kind ParamKind
	Int  int64
	Date time.Time
}

// IntParam binds an integer.
func IntParam(v int64) Param { return Param{Kind: ParamInt, Int: v} }

// DateParam binds a calendar date (time of day is dropped).
func DateParam(t time.Time) Param {
	y, m, d := t.Date()
	return Param{Kind: ParamDate, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DaysParam binds an interval expressed in whole days.
func DaysParam(days int) Param { return Param{Kind: ParamDays, Int: int64(days)} }

// Validate checks the value against its kind.
func (p Param) Validate() error {
	switch p.Kind {
	case ParamInt:
		return nil
	case ParamDate:
		if p.Date.IsZero() {
			return fmt.Errorf("date parameter is zero")
		}
		return nil
	case ParamDays:
		if p.Int <= 0 {
			return fmt.Errorf("day interval must be positive, got %d", p.Int)
		}
		return nil
	default:
		return fmt.Errorf("unknown parameter kind %d", p.Kind)
	}
}

// Value returns the Go value suitable for a driver bind variable.
func (p Param) Value() interface{} {
	switch p.Kind {
	case ParamDate:
		return p.Date
	default:
		return p.Int
	}
}
