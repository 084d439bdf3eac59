package ports

import "github.com/raw-labs/machine-prediction-demo/domain/evaluation"

// Classifier is a binary classifier over dense feature vectors.
// Labels are 0 (good) and 1 (failure).
type Classifier interface {
	Fit(x [][]float64, y []int) error
	Predict(x []float64) int
}

// ClassifierFactory builds a fresh, untrained classifier for a registry entry.
type ClassifierFactory interface {
	New(kind evaluation.ClassifierKind) (Classifier, error)
}
