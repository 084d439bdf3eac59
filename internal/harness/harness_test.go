package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/raw-labs/machine-prediction-demo/adapters/ml"
	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/domain/evaluation"
	"github.com/raw-labs/machine-prediction-demo/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClassifierFactory struct {
	mock.Mock
}

func (m *MockClassifierFactory) New(kind evaluation.ClassifierKind) (ports.Classifier, error) {
	args := m.Called(kind)
	if c := args.Get(0); c != nil {
		return c.(ports.Classifier), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Fit(x [][]float64, y []int) error {
	args := m.Called(x, y)
	return args.Error(0)
}

func (m *MockClassifier) Predict(x []float64) int {
	args := m.Called(x)
	return args.Int(0)
}

func obs(outcome int, features ...float64) dataset.Observation {
	return dataset.Observation{Features: features, Outcome: outcome}
}

func TestTrainAndEvaluateTallies(t *testing.T) {
	train := []dataset.Observation{obs(0, 0), obs(0, 1), obs(1, 9), obs(1, 10)}
	test := []dataset.Observation{obs(0, 0.5), obs(0, 8), obs(2, 9.5), obs(1, 2)}

	classifier := new(MockClassifier)
	classifier.On("Fit", [][]float64{{0}, {1}, {9}, {10}}, []int{0, 0, 1, 1}).Return(nil)
	classifier.On("Predict", []float64{0.5}).Return(0)
	classifier.On("Predict", []float64{8.0}).Return(1)
	classifier.On("Predict", []float64{9.5}).Return(1)
	classifier.On("Predict", []float64{2.0}).Return(0)

	factory := new(MockClassifierFactory)
	factory.On("New", evaluation.DecisionTree).Return(classifier, nil)

	report, err := New(factory).TrainAndEvaluate(context.Background(), train, test, evaluation.DecisionTree)
	require.NoError(t, err)

	assert.Equal(t, evaluation.Report{
		Used:    evaluation.Usage{Training: 4, Testing: 4},
		Good:    evaluation.ClassCounts{Total: 2, Correct: 1},
		Failure: evaluation.ClassCounts{Total: 2, Correct: 1},
	}, *report)
	assert.Equal(t, report.Used.Testing, report.Good.Total+report.Failure.Total)
	classifier.AssertExpectations(t)
	factory.AssertExpectations(t)
}

func TestTrainAndEvaluateValidation(t *testing.T) {
	balanced := []dataset.Observation{obs(0, 1, 2), obs(1, 3, 4)}

	tests := []struct {
		name  string
		train []dataset.Observation
		test  []dataset.Observation
		kind  evaluation.ClassifierKind
		want  error
	}{
		{"kind out of range", balanced, nil, evaluation.ClassifierKind(7), core.ErrInvalidParameter},
		{"negative kind", balanced, nil, evaluation.ClassifierKind(-1), core.ErrInvalidParameter},
		{"empty train", nil, balanced, evaluation.NaiveBayes, core.ErrInsufficientData},
		{"no failures", []dataset.Observation{obs(0, 1, 2), obs(0, 2, 3)}, nil, evaluation.NaiveBayes, core.ErrInsufficientData},
		{"no good", []dataset.Observation{obs(1, 1, 2)}, nil, evaluation.NaiveBayes, core.ErrInsufficientData},
		{"ragged train", []dataset.Observation{obs(0, 1, 2), obs(1, 3)}, nil, evaluation.NaiveBayes, core.ErrInconsistentSchema},
		{"test wider than train", balanced, []dataset.Observation{obs(0, 1, 2, 3)}, evaluation.NaiveBayes, core.ErrInconsistentSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := new(MockClassifierFactory)

			report, err := New(factory).TrainAndEvaluate(context.Background(), tt.train, tt.test, tt.kind)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, tt.want)
			factory.AssertNotCalled(t, "New", mock.Anything)
		})
	}
}

func TestTrainAndEvaluateFitError(t *testing.T) {
	fitErr := errors.New("singular")
	classifier := new(MockClassifier)
	classifier.On("Fit", mock.Anything, mock.Anything).Return(fitErr)
	factory := new(MockClassifierFactory)
	factory.On("New", evaluation.QuadraticDiscriminant).Return(classifier, nil)

	_, err := New(factory).TrainAndEvaluate(context.Background(),
		[]dataset.Observation{obs(0, 1), obs(1, 2)}, []dataset.Observation{obs(0, 1)}, evaluation.QuadraticDiscriminant)
	assert.ErrorIs(t, err, fitErr)
	classifier.AssertNotCalled(t, "Predict", mock.Anything)
}

func TestTrainAndEvaluateCancelledAfterFit(t *testing.T) {
	classifier := new(MockClassifier)
	classifier.On("Fit", mock.Anything, mock.Anything).Return(nil)
	factory := new(MockClassifierFactory)
	factory.On("New", evaluation.NearestNeighbors).Return(classifier, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(factory).TrainAndEvaluate(ctx,
		[]dataset.Observation{obs(0, 1), obs(1, 2)}, []dataset.Observation{obs(0, 1)}, evaluation.NearestNeighbors)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainAndEvaluateWithRegistry(t *testing.T) {
	var train, test []dataset.Observation
	for i := 0; i < 20; i++ {
		v := float64(i % 5)
		train = append(train, obs(0, v, v), obs(1, 20+v, 20+v))
		test = append(test, obs(0, v+0.5, v), obs(1, 20+v, 20.5+v))
	}

	report, err := New(ml.NewRegistry()).TrainAndEvaluate(context.Background(), train, test, evaluation.NearestNeighbors)
	require.NoError(t, err)

	assert.Equal(t, 40, report.Used.Training)
	assert.Equal(t, 40, report.Used.Testing)
	assert.Equal(t, evaluation.ClassCounts{Total: 20, Correct: 20}, report.Good)
	assert.Equal(t, evaluation.ClassCounts{Total: 20, Correct: 20}, report.Failure)
}
