package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/internal"
	"github.com/raw-labs/machine-prediction-demo/internal/metrics"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

const backendLabel = "postgres"

// Gateway runs catalog statements against a Postgres mirror of the
// telemetry schema.
type Gateway struct {
	db     *sqlx.DB
	logger *internal.Logger
}

// Connect opens and pings the database.
func Connect(ctx context.Context, databaseURL string, logger *internal.Logger) (*Gateway, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, &core.UpstreamError{Message: "failed to connect to database", Cause: err}
	}
	return NewGateway(db, logger), nil
}

// NewGateway wraps an open database.
func NewGateway(db *sqlx.DB, logger *internal.Logger) *Gateway {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Gateway{db: db, logger: logger}
}

// DB exposes the underlying handle for migrations.
func (g *Gateway) DB() *sqlx.DB { return g.db }

// Close closes the database.
func (g *Gateway) Close() error { return g.db.Close() }

// Query binds the typed parameters to :name placeholders.
func (g *Gateway) Query(ctx context.Context, q ports.Query) (ports.RowIterator, error) {
	args, err := bindArgs(q.Params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := g.db.NamedQueryContext(ctx, q.Text, args)
	metrics.Since(metrics.GatewayQueryDuration.WithLabelValues(backendLabel), start)
	if err != nil {
		metrics.GatewayQueries.WithLabelValues(backendLabel, metrics.OutcomeError).Inc()
		g.logger.Warn("postgres query failed: %v", err)
		return nil, classify(err)
	}
	metrics.GatewayQueries.WithLabelValues(backendLabel, metrics.OutcomeOK).Inc()
	return &rowIterator{rows: rows}, nil
}

func bindArgs(params map[string]ports.Param) (map[string]interface{}, error) {
	args := make(map[string]interface{}, len(params))
	for name, p := range params {
		if err := p.Validate(); err != nil {
			return nil, core.NewInvalidParameterError(name, err.Error())
		}
		args[name] = p.Value()
	}
	return args, nil
}

// classify maps driver errors onto the upstream error statuses used by
// the executor: syntax and undefined objects are a bad query, auth
// failures are rejected credentials.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		status := 0
		switch pqErr.Code.Class() {
		case "42":
			status = http.StatusBadRequest
		case "28":
			status = http.StatusUnauthorized
		}
		return &core.UpstreamError{Status: status, Message: pqErr.Message, Cause: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &core.UpstreamError{Message: "query cancelled", Cause: err}
	}
	return &core.UpstreamError{Message: "postgres query failed", Cause: err}
}

type rowIterator struct {
	rows *sqlx.Rows
	row  ports.Row
	err  error
}

func (it *rowIterator) Next() bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}
	row := make(map[string]interface{})
	if err := it.rows.MapScan(row); err != nil {
		it.err = classify(fmt.Errorf("scan row: %w", err))
		return false
	}
	for k, v := range row {
		// text, numeric and array columns arrive as bytes
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	it.row = row
	return true
}

func (it *rowIterator) Row() ports.Row { return it.row }

func (it *rowIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	if err := it.rows.Err(); err != nil {
		return classify(err)
	}
	return nil
}

func (it *rowIterator) Close() error { return it.rows.Close() }

var _ ports.QueryGateway = (*Gateway)(nil)
