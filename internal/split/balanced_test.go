package split

import (
	"testing"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/domain/evaluation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeObservations interleaves failures among good observations so that
// partitioning has to preserve relative order within each class. Every
// observation has the same features so only the index can tell them apart.
func makeObservations(positives, negatives int) []dataset.Observation {
	total := positives + negatives
	obs := make([]dataset.Observation, 0, total)
	p, n := 0, 0
	for i := 0; i < total; i++ {
		if p < positives && (n >= negatives || i%2 == 1) {
			obs = append(obs, dataset.Observation{Features: []float64{1, 1}, Outcome: 1})
			p++
		} else {
			obs = append(obs, dataset.Observation{Features: []float64{1, 1}, Outcome: 0})
			n++
		}
	}
	return obs
}

func countClasses(samples []evaluation.Sample) (good, failures int) {
	for _, s := range samples {
		if s.IsFailure() {
			failures++
		} else {
			good++
		}
	}
	return good, failures
}

func TestBalancedSizing(t *testing.T) {
	obs := makeObservations(100, 1000)

	result, err := Balanced(obs, evaluation.SplitParams{TrainFraction: 0.7, TargetPositiveRate: 0.5})
	require.NoError(t, err)

	assert.Equal(t, evaluation.SplitCounts{
		TrainPositive: 70,
		TrainNegative: 70,
		TestPositive:  30,
		TestNegative:  30,
	}, result.Counts)

	good, failures := countClasses(result.Train)
	assert.Equal(t, 70, good)
	assert.Equal(t, 70, failures)

	good, failures = countClasses(result.Test)
	assert.Equal(t, 30, good)
	assert.Equal(t, 30, failures)
}

func TestBalancedTestTakesAllRemainingFailures(t *testing.T) {
	obs := makeObservations(100, 1000)

	for _, rate := range []float64{0.1, 0.25, 0.5, 0.9} {
		result, err := Balanced(obs, evaluation.SplitParams{TrainFraction: 0.7, TargetPositiveRate: rate})
		require.NoError(t, err)

		_, failures := countClasses(result.Test)
		assert.Equal(t, 30, failures, "rate %v", rate)
	}
}

func TestBalancedTestFailuresUnboundedByTestCount(t *testing.T) {
	// floor(10*0.75)=7 for training, floor(10*0.25)=2 computed for testing,
	// yet all 3 remaining failures land in the test subset.
	obs := makeObservations(10, 100)

	result, err := Balanced(obs, evaluation.SplitParams{TrainFraction: 0.75, TargetPositiveRate: 0.5})
	require.NoError(t, err)

	assert.Equal(t, 7, result.Counts.TrainPositive)
	assert.Equal(t, 2, result.Counts.TestPositive)

	good, failures := countClasses(result.Test)
	assert.Equal(t, 3, failures)
	assert.Equal(t, 2, good)
}

func TestBalancedDisjointByIdentity(t *testing.T) {
	obs := makeObservations(40, 300)

	result, err := Balanced(obs, evaluation.SplitParams{TrainFraction: 0.6, TargetPositiveRate: 0.2})
	require.NoError(t, err)

	seen := make(map[int]string)
	for _, s := range result.Train {
		_, dup := seen[s.Index]
		require.False(t, dup, "index %d repeated in train", s.Index)
		seen[s.Index] = "train"
	}
	for _, s := range result.Test {
		where, dup := seen[s.Index]
		require.False(t, dup, "index %d already in %s", s.Index, where)
		seen[s.Index] = "test"
	}
}

func TestBalancedOrdering(t *testing.T) {
	obs := makeObservations(20, 200)

	result, err := Balanced(obs, evaluation.SplitParams{TrainFraction: 0.5, TargetPositiveRate: 0.5})
	require.NoError(t, err)

	for _, subset := range [][]evaluation.Sample{result.Train, result.Test} {
		seenFailure := false
		last := map[bool]int{false: -1, true: -1}
		for _, s := range subset {
			if s.IsFailure() {
				seenFailure = true
			} else {
				assert.False(t, seenFailure, "good observation %d after a failure", s.Index)
			}
			assert.Greater(t, s.Index, last[s.IsFailure()], "source order not preserved")
			last[s.IsFailure()] = s.Index
		}
	}

	// Test good observations start right after the training ones.
	lastTrainGood := result.Train[result.Counts.TrainNegative-1].Index
	assert.Greater(t, result.Test[0].Index, lastTrainGood)
}

func TestBalancedTruncatesWhenGoodRunsShort(t *testing.T) {
	obs := makeObservations(100, 50)

	result, err := Balanced(obs, evaluation.SplitParams{TrainFraction: 0.7, TargetPositiveRate: 0.5})
	require.NoError(t, err)

	good, failures := countClasses(result.Train)
	assert.Equal(t, 50, good)
	assert.Equal(t, 70, failures)

	good, failures = countClasses(result.Test)
	assert.Equal(t, 0, good)
	assert.Equal(t, 30, failures)
}

func TestBalancedDropsExcessGood(t *testing.T) {
	obs := makeObservations(10, 1000)

	result, err := Balanced(obs, evaluation.SplitParams{TrainFraction: 0.5, TargetPositiveRate: 0.5})
	require.NoError(t, err)

	assert.Len(t, result.Train, 10)
	assert.Len(t, result.Test, 10)
}

func TestBalancedRejectsDegenerateParams(t *testing.T) {
	obs := makeObservations(10, 10)

	tests := []evaluation.SplitParams{
		{TrainFraction: 0.7, TargetPositiveRate: 0},
		{TrainFraction: 0.7, TargetPositiveRate: 1},
		{TrainFraction: 0, TargetPositiveRate: 0.5},
		{TrainFraction: 1, TargetPositiveRate: 0.5},
		{TrainFraction: -0.2, TargetPositiveRate: 0.5},
		{TrainFraction: 0.7, TargetPositiveRate: 1.5},
	}

	for _, params := range tests {
		result, err := Balanced(obs, params)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, core.ErrInvalidParameter, "params %+v", params)
	}
}

func TestBalancedEmptyDataset(t *testing.T) {
	result, err := Balanced(nil, evaluation.SplitParams{TrainFraction: 0.7, TargetPositiveRate: 0.5})
	require.NoError(t, err)

	assert.Empty(t, result.Train)
	assert.Empty(t, result.Test)
}

func TestBalancedExtremeRates(t *testing.T) {
	obs := makeObservations(100, 1000)

	tests := []struct {
		name                     string
		params                   evaluation.SplitParams
		trainGood, trainFailures int
		testGood, testFailures   int
	}{
		{"tiny failure share", evaluation.SplitParams{TrainFraction: 0.7, TargetPositiveRate: 1e-9}, 1000, 70, 0, 30},
		{"failure share below float precision", evaluation.SplitParams{TrainFraction: 0.7, TargetPositiveRate: 1e-18}, 1000, 70, 0, 30},
		{"almost only failures", evaluation.SplitParams{TrainFraction: 0.7, TargetPositiveRate: 1 - 1e-12}, 0, 70, 0, 30},
		{"almost everything trains", evaluation.SplitParams{TrainFraction: 1 - 1e-12, TargetPositiveRate: 1e-18}, 1000, 99, 0, 1},
		{"almost nothing trains", evaluation.SplitParams{TrainFraction: 1e-12, TargetPositiveRate: 1e-18}, 0, 0, 1000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result *evaluation.Split
			var err error
			require.NotPanics(t, func() { result, err = Balanced(obs, tt.params) })
			require.NoError(t, err)

			good, failures := countClasses(result.Train)
			assert.Equal(t, tt.trainGood, good, "train good")
			assert.Equal(t, tt.trainFailures, failures, "train failures")

			good, failures = countClasses(result.Test)
			assert.Equal(t, tt.testGood, good, "test good")
			assert.Equal(t, tt.testFailures, failures, "test failures")

			seen := make(map[int]bool, len(result.Train))
			for _, s := range result.Train {
				seen[s.Index] = true
			}
			for _, s := range result.Test {
				assert.False(t, seen[s.Index], "index %d in both subsets", s.Index)
			}
		})
	}
}

func TestCountsSaturate(t *testing.T) {
	counts := Counts(100, evaluation.SplitParams{TrainFraction: 0.7, TargetPositiveRate: 1e-18})
	assert.Equal(t, 70, counts.TrainPositive)
	assert.Equal(t, 30, counts.TestPositive)
	assert.Positive(t, counts.TrainNegative)
	assert.Positive(t, counts.TestNegative)
}
