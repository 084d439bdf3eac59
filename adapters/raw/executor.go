// Package raw is the query gateway for the remote analytics engine's
// executor API.
package raw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/internal"
	"github.com/raw-labs/machine-prediction-demo/internal/metrics"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

const backendLabel = "raw"

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// Executor sends RQL queries to the executor and streams the results.
type Executor struct {
	config     ExecutorConfig
	httpClient *http.Client
	logger     *internal.Logger
}

// NewExecutor creates an executor client.
func NewExecutor(config ExecutorConfig, logger *internal.Logger) (*Executor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Executor{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}, nil
}

// WithHTTPClient replaces the underlying client.
func (e *Executor) WithHTTPClient(c *http.Client) *Executor {
	e.httpClient = c
	return e
}

// Query renders q, posts it and returns an iterator over the response
// body. The body stays open until the iterator is closed.
func (e *Executor) Query(ctx context.Context, q ports.Query) (ports.RowIterator, error) {
	text, err := Render(q)
	if err != nil {
		return nil, err
	}

	req, err := e.buildRequest(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	metrics.Since(metrics.GatewayQueryDuration.WithLabelValues(backendLabel), start)
	if err != nil {
		metrics.GatewayQueries.WithLabelValues(backendLabel, metrics.OutcomeError).Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &core.UpstreamError{Message: "query cancelled", Cause: ctxErr}
		}
		return nil, &core.UpstreamError{Message: "executor unreachable", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		metrics.GatewayQueries.WithLabelValues(backendLabel, metrics.OutcomeError).Inc()
		uerr := &core.UpstreamError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
		e.logger.Warn("executor returned %d: %s", resp.StatusCode, uerr.Message)
		return nil, uerr
	}

	metrics.GatewayQueries.WithLabelValues(backendLabel, metrics.OutcomeOK).Inc()
	e.logger.Trace("executor query accepted after %s", time.Since(start))
	return newRowStream(resp.Body), nil
}

// buildRequest creates an HTTP request with authentication
func (e *Executor) buildRequest(ctx context.Context, text string) (*http.Request, error) {
	payload, err := json.Marshal(map[string]string{"query": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.BaseURL+"/query", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	for k, v := range e.config.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+e.config.Token)
	}
	return req, nil
}

// errorMessage pulls a readable message out of an error body. The
// executor reports failures in a few shapes depending on the stage that
// failed.
func errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "error.message", "errors.0.message", "error", "detail"} {
			if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String && r.String() != "" {
				return r.String()
			}
		}
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "credentials rejected or expired"
	case http.StatusBadRequest:
		return "query rejected"
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}

var _ ports.QueryGateway = (*Executor)(nil)
