// Package features turns telemetry windows into labeled datasets.
package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/internal"
	"github.com/raw-labs/machine-prediction-demo/internal/metrics"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// Extractor runs the features statement and commits complete results to a
// feature store.
type Extractor struct {
	gateway ports.QueryGateway
	catalog ports.Catalog
	store   ports.FeatureStore
	logger  *internal.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(gateway ports.QueryGateway, catalog ports.Catalog, store ports.FeatureStore, logger *internal.Logger) *Extractor {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Extractor{gateway: gateway, catalog: catalog, store: store, logger: logger}
}

// Query builds the features query for a window.
func Query(catalog ports.Catalog, window dataset.ExtractionWindow) (ports.Query, error) {
	text, err := catalog.Statement(ports.StmtFeatures)
	if err != nil {
		return ports.Query{}, err
	}
	return ports.Query{
		Text: text,
		Params: map[string]ports.Param{
			"measure":    ports.DaysParam(window.MeasureDays),
			"prediction": ports.DaysParam(window.PredictionDays),
			"start":      ports.DateParam(window.Start),
			"end":        ports.DateParam(window.End),
		},
	}, nil
}

// Extract drains the whole result before storing anything, so a failure
// midway leaves the store untouched.
func (e *Extractor) Extract(ctx context.Context, window dataset.ExtractionWindow) (ds *dataset.Dataset, err error) {
	defer func() { metrics.Extractions.WithLabelValues(metrics.Outcome(err)).Inc() }()

	if err := window.Validate(); err != nil {
		return nil, err
	}
	q, err := Query(e.catalog, window)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("extracting features: measure=%dd prediction=%dd %s..%s",
		window.MeasureDays, window.PredictionDays,
		window.Start.Format(dataset.DateLayout), window.End.Format(dataset.DateLayout))

	observations, err := e.drain(ctx, q)
	if err != nil {
		return nil, err
	}

	ds = &dataset.Dataset{
		Window:       window,
		Observations: observations,
		CreatedAt:    time.Now().UTC(),
	}
	for _, o := range observations {
		if o.IsFailure() {
			ds.TotalPositive++
		} else {
			ds.TotalNegative++
		}
	}
	if ds.FeatureCount, err = dataset.CheckSchema(observations); err != nil {
		return nil, err
	}
	if ds.Features, err = Summarize(observations); err != nil {
		return nil, fmt.Errorf("failed to summarize features: %w", err)
	}

	if _, err := e.store.Put(ctx, ds); err != nil {
		return nil, fmt.Errorf("failed to store dataset: %w", err)
	}

	metrics.ExtractedObservations.WithLabelValues("failure").Add(float64(ds.TotalPositive))
	metrics.ExtractedObservations.WithLabelValues("good").Add(float64(ds.TotalNegative))
	e.logger.Info("stored dataset %s: %d failures, %d good, %d features",
		ds.ID, ds.TotalPositive, ds.TotalNegative, ds.FeatureCount)
	return ds, nil
}

func (e *Extractor) drain(ctx context.Context, q ports.Query) ([]dataset.Observation, error) {
	rows, err := e.gateway.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []dataset.Observation
	width := -1
	for rows.Next() {
		o, err := parseObservation(rows.Row())
		if err != nil {
			e.logger.Warn("malformed features row %d: %v", len(observations), err)
			return nil, &core.UpstreamError{Message: fmt.Sprintf("malformed features row %d", len(observations)), Cause: err}
		}
		if width < 0 {
			width = len(o.Features)
		} else if len(o.Features) != width {
			return nil, core.NewInconsistentSchemaError(len(observations), len(o.Features), width)
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		e.logger.Zap().Warn("features stream failed",
			zap.Int("rows_read", len(observations)), zap.Error(err))
		if errors.Is(err, core.ErrUpstreamQuery) {
			return nil, err
		}
		return nil, &core.UpstreamError{Message: "reading features", Cause: err}
	}
	return observations, nil
}
