package evaluation

import (
	"fmt"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
)

// SplitParams controls the balanced train/test split.
type SplitParams struct {
	// TrainFraction is the share of failure observations used for training.
	TrainFraction float64 `json:"train_test"`
	// TargetPositiveRate is the desired share of failures in each subset.
	TargetPositiveRate float64 `json:"good_bad"`
}

// Validate rejects ratios outside the open interval (0,1).
func (p SplitParams) Validate() error {
	if !(p.TrainFraction > 0 && p.TrainFraction < 1) {
		return core.NewInvalidParameterError("train_test", fmt.Sprintf("must be in (0,1), got %v", p.TrainFraction))
	}
	if !(p.TargetPositiveRate > 0 && p.TargetPositiveRate < 1) {
		return core.NewInvalidParameterError("good_bad", fmt.Sprintf("must be in (0,1), got %v", p.TargetPositiveRate))
	}
	return nil
}

// Sample is an observation together with its position in the source dataset.
type Sample struct {
	Index int
	dataset.Observation
}

// SplitCounts records the sizes computed by the splitter before slicing.
type SplitCounts struct {
	TrainPositive int `json:"train_positive"`
	TrainNegative int `json:"train_negative"`
	TestPositive  int `json:"test_positive"`
	TestNegative  int `json:"test_negative"`
}

// Split holds disjoint train and test subsets. Within each subset all good
// observations precede all failures.
type Split struct {
	Train  []Sample
	Test   []Sample
	Counts SplitCounts
}

// Observations strips the source indices from a subset.
func Observations(samples []Sample) []dataset.Observation {
	out := make([]dataset.Observation, len(samples))
	for i, s := range samples {
		out[i] = s.Observation
	}
	return out
}

// ClassCounts tallies test examples of one class.
type ClassCounts struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Usage records how many examples went into training and testing.
type Usage struct {
	Training int `json:"training"`
	Testing  int `json:"testing"`
}

// Report is the outcome of training one classifier and scoring it on the
// test subset.
type Report struct {
	Used    Usage       `json:"used"`
	Good    ClassCounts `json:"good"`
	Failure ClassCounts `json:"failure"`
}

// Record scores one prediction against the true label.
func (r *Report) Record(truth, predicted int) {
	counts := &r.Good
	if truth != dataset.OutcomeGood {
		counts = &r.Failure
	}
	counts.Total++
	if truth == predicted {
		counts.Correct++
	}
}
