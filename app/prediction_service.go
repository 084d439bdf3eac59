package app

import (
	"context"
	"fmt"
	"time"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/domain/evaluation"
	"github.com/raw-labs/machine-prediction-demo/internal"
	"github.com/raw-labs/machine-prediction-demo/internal/features"
	"github.com/raw-labs/machine-prediction-demo/internal/harness"
	"github.com/raw-labs/machine-prediction-demo/internal/metrics"
	"github.com/raw-labs/machine-prediction-demo/internal/split"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// PredictionService creates feature datasets and trains classifiers on them
type PredictionService struct {
	extractor *features.Extractor
	store     ports.FeatureStore
	harness   *harness.Harness
	logger    *internal.Logger
}

// TrainRequest selects a stored dataset, a classifier and the split
type TrainRequest struct {
	Name       core.DatasetID
	Classifier evaluation.ClassifierKind
	Split      evaluation.SplitParams
}

// ClassifierInfo describes a registry entry
type ClassifierInfo struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewPredictionService creates a prediction service
func NewPredictionService(extractor *features.Extractor, store ports.FeatureStore, factory ports.ClassifierFactory, logger *internal.Logger) *PredictionService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &PredictionService{
		extractor: extractor,
		store:     store,
		harness:   harness.New(factory),
		logger:    logger,
	}
}

// CreateFeatures extracts and stores a dataset for the window
func (s *PredictionService) CreateFeatures(ctx context.Context, window dataset.ExtractionWindow) (*dataset.Dataset, error) {
	ds, err := s.extractor.Extract(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to create features: %w", err)
	}
	return ds, nil
}

// Train splits the named dataset and evaluates the selected classifier.
// The dataset is read once; nothing in the store is held while training.
func (s *PredictionService) Train(ctx context.Context, req TrainRequest) (report *evaluation.Report, err error) {
	if !req.Classifier.Valid() {
		return nil, core.NewInvalidParameterError("classifier",
			fmt.Sprintf("index %d out of range [0,%d)", int(req.Classifier), len(evaluation.ClassifierKinds)))
	}
	if err := req.Split.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.Trainings.WithLabelValues(req.Classifier.String(), metrics.Outcome(err)).Inc()
		if err == nil {
			metrics.Since(metrics.TrainingDuration.WithLabelValues(req.Classifier.String()), start)
		}
	}()

	ds, err := s.store.Get(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", req.Name, err)
	}

	subsets, err := split.Balanced(ds.Observations, req.Split)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("dataset %s split: train %d, test %d (%+v)",
		req.Name, len(subsets.Train), len(subsets.Test), subsets.Counts)

	report, err = s.harness.TrainAndEvaluate(ctx,
		evaluation.Observations(subsets.Train), evaluation.Observations(subsets.Test), req.Classifier)
	if err != nil {
		return nil, fmt.Errorf("failed to train %s on %s: %w", req.Classifier, req.Name, err)
	}

	s.logger.Info("trained %s on %s in %s: good %d/%d, failure %d/%d",
		req.Classifier, req.Name, time.Since(start).Round(time.Millisecond),
		report.Good.Correct, report.Good.Total, report.Failure.Correct, report.Failure.Total)
	return report, nil
}

// Datasets lists stored datasets, newest first
func (s *PredictionService) Datasets(ctx context.Context) ([]dataset.Info, error) {
	return s.store.List(ctx)
}

// Dataset returns a stored dataset
func (s *PredictionService) Dataset(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	return s.store.Get(ctx, id)
}

// Classifiers lists the registry in selector order
func (s *PredictionService) Classifiers() []ClassifierInfo {
	out := make([]ClassifierInfo, len(evaluation.ClassifierKinds))
	for i, k := range evaluation.ClassifierKinds {
		out[i] = ClassifierInfo{Index: int(k), Name: k.String(), Description: k.Description()}
	}
	return out
}
