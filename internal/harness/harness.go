// Package harness trains a registry classifier on one subset of a dataset
// and scores it on another.
package harness

import (
	"context"
	"fmt"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/domain/evaluation"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// Harness evaluates classifiers built by a factory.
type Harness struct {
	factory ports.ClassifierFactory
}

// New creates a harness backed by factory.
func New(factory ports.ClassifierFactory) *Harness {
	return &Harness{factory: factory}
}

// TrainAndEvaluate fits a fresh classifier of the given kind on train, then
// predicts every test observation and tallies the results per class.
//
// The context is checked between the fit and the scoring loop; a fit in
// progress is not interrupted.
func (h *Harness) TrainAndEvaluate(ctx context.Context, train, test []dataset.Observation, kind evaluation.ClassifierKind) (*evaluation.Report, error) {
	if !kind.Valid() {
		return nil, core.NewInvalidParameterError("classifier", fmt.Sprintf("index %d out of range [0,%d)", int(kind), len(evaluation.ClassifierKinds)))
	}
	if err := checkClasses(train); err != nil {
		return nil, err
	}
	if _, err := dataset.CheckSchema(append(append([]dataset.Observation(nil), train...), test...)); err != nil {
		return nil, err
	}

	classifier, err := h.factory.New(kind)
	if err != nil {
		return nil, err
	}

	x, y := matrix(train)
	if err := classifier.Fit(x, y); err != nil {
		return nil, fmt.Errorf("failed to fit %s: %w", kind, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &evaluation.Report{
		Used: evaluation.Usage{Training: len(train), Testing: len(test)},
	}
	for _, o := range test {
		report.Record(o.Label(), classifier.Predict(o.Features))
	}
	return report, nil
}

func checkClasses(train []dataset.Observation) error {
	if len(train) == 0 {
		return core.NewInsufficientDataError("training subset is empty")
	}
	var good, failures int
	for _, o := range train {
		if o.IsFailure() {
			failures++
		} else {
			good++
		}
	}
	switch {
	case failures == 0:
		return core.NewInsufficientDataError(fmt.Sprintf("training subset has no failures (%d good)", good))
	case good == 0:
		return core.NewInsufficientDataError(fmt.Sprintf("training subset has no good observations (%d failures)", failures))
	}
	return nil
}

func matrix(observations []dataset.Observation) ([][]float64, []int) {
	x := make([][]float64, len(observations))
	y := make([]int, len(observations))
	for i, o := range observations {
		x[i] = o.Features
		y[i] = o.Label()
	}
	return x, y
}
