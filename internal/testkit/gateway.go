package testkit

import (
	"context"
	"fmt"
	"sync"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// Catalog resolves every statement to its own name, which lets an
// InMemoryGateway key its results by statement.
type Catalog struct{}

// Statement returns the statement name as query text.
func (Catalog) Statement(name ports.Statement) (string, error) {
	return string(name), nil
}

// Result is what an InMemoryGateway returns for one statement.
type Result struct {
	Rows []ports.Row
	// QueryErr fails the Query call itself.
	QueryErr error
	// FailAfter, when positive, makes the iterator fail with StreamErr
	// after yielding that many rows.
	FailAfter int
	StreamErr error
}

// InMemoryGateway serves canned results and records the queries it
// receives. It is safe for concurrent use.
type InMemoryGateway struct {
	mu      sync.Mutex
	results map[string]Result
	queries []ports.Query
	open    int
}

// NewInMemoryGateway creates an empty gateway.
func NewInMemoryGateway() *InMemoryGateway {
	return &InMemoryGateway{results: make(map[string]Result)}
}

// Set registers the result for a statement.
func (g *InMemoryGateway) Set(name ports.Statement, result Result) *InMemoryGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[string(name)] = result
	return g
}

// SetRows registers plain rows for a statement.
func (g *InMemoryGateway) SetRows(name ports.Statement, rows []ports.Row) *InMemoryGateway {
	return g.Set(name, Result{Rows: rows})
}

// Query implements ports.QueryGateway.
func (g *InMemoryGateway) Query(ctx context.Context, q ports.Query) (ports.RowIterator, error) {
	for name, p := range q.Params {
		if err := p.Validate(); err != nil {
			return nil, core.NewInvalidParameterError(name, err.Error())
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, &core.UpstreamError{Message: "query cancelled", Cause: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.queries = append(g.queries, q)

	result, ok := g.results[q.Text]
	if !ok {
		return nil, &core.UpstreamError{Status: 400, Message: fmt.Sprintf("unknown statement %q", q.Text)}
	}
	if result.QueryErr != nil {
		return nil, result.QueryErr
	}
	g.open++
	return &sliceIterator{ctx: ctx, gateway: g, result: result, pos: -1}, nil
}

// Queries returns the queries received so far.
func (g *InMemoryGateway) Queries() []ports.Query {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ports.Query(nil), g.queries...)
}

// OpenIterators returns how many iterators have not been closed.
func (g *InMemoryGateway) OpenIterators() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

type sliceIterator struct {
	ctx     context.Context
	gateway *InMemoryGateway
	result  Result
	pos     int
	err     error
	closed  bool
}

func (it *sliceIterator) Next() bool {
	if it.err != nil || it.closed {
		return false
	}
	if err := it.ctx.Err(); err != nil {
		it.err = &core.UpstreamError{Message: "query cancelled", Cause: err}
		return false
	}
	if it.result.FailAfter > 0 && it.pos+1 >= it.result.FailAfter {
		it.err = it.result.StreamErr
		if it.err == nil {
			it.err = &core.UpstreamError{Message: "stream interrupted"}
		}
		return false
	}
	it.pos++
	return it.pos < len(it.result.Rows)
}

func (it *sliceIterator) Row() ports.Row {
	if it.pos < 0 || it.pos >= len(it.result.Rows) {
		return nil
	}
	return it.result.Rows[it.pos]
}

func (it *sliceIterator) Err() error { return it.err }

func (it *sliceIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.gateway.mu.Lock()
	it.gateway.open--
	it.gateway.mu.Unlock()
	return nil
}
