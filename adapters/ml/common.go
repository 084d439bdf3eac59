// Package ml implements the classifier registry: small, dependency-light
// binary classifiers over dense float64 feature vectors.
package ml

import (
	"fmt"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
)

// checkTrainingSet validates shapes shared by every Fit implementation.
func checkTrainingSet(x [][]float64, y []int) error {
	if len(x) == 0 {
		return core.NewInsufficientDataError("training set is empty")
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d feature rows but %d labels", core.ErrInvalidParameter, len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return core.NewInconsistentSchemaError(i, len(row), width)
		}
	}
	return nil
}

// splitByClass returns the row indices of each class.
func splitByClass(y []int) (good, failures []int) {
	for i, label := range y {
		if label != 0 {
			failures = append(failures, i)
		} else {
			good = append(good, i)
		}
	}
	return good, failures
}

func argmax2(scoreGood, scoreFailure float64) int {
	if scoreFailure > scoreGood {
		return 1
	}
	return 0
}
