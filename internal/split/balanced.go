// Package split builds class-balanced train/test partitions from an
// imbalanced dataset where failures are scarce and good observations are
// abundant.
package split

import (
	"math"

	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/domain/evaluation"
)

// Balanced partitions observations without shuffling. Source order within
// each class is the iteration order, so the same dataset and parameters
// always produce the same split.
//
// Sizing:
//
//	trainPos = floor(P * trainFraction)
//	trainNeg = floor(trainPos * (1-rate) / rate)
//	testPos  = floor(P * (1-trainFraction))
//	testNeg  = floor(testPos * (1-rate) / rate)
//
// train = good[:trainNeg] ++ failures[:trainPos]
// test  = good[trainNeg:trainNeg+testNeg] ++ failures[trainPos:]
//
// The test subset takes every failure not used for training rather than
// testPos of them. Only the good slice is bounded by testNeg. Good
// observations beyond trainNeg+testNeg are dropped, and when there are
// fewer good observations than requested the slices are truncated.
func Balanced(observations []dataset.Observation, params evaluation.SplitParams) (*evaluation.Split, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var good, failures []evaluation.Sample
	for i, o := range observations {
		s := evaluation.Sample{Index: i, Observation: o}
		if o.IsFailure() {
			failures = append(failures, s)
		} else {
			good = append(good, s)
		}
	}

	counts := Counts(len(failures), params)

	trainGood := window(good, 0, counts.TrainNegative)
	testGood := window(good, counts.TrainNegative, addCapped(counts.TrainNegative, counts.TestNegative))
	trainFailures := window(failures, 0, counts.TrainPositive)
	testFailures := window(failures, counts.TrainPositive, len(failures))

	train := make([]evaluation.Sample, 0, len(trainGood)+len(trainFailures))
	train = append(append(train, trainGood...), trainFailures...)

	test := make([]evaluation.Sample, 0, len(testGood)+len(testFailures))
	test = append(append(test, testGood...), testFailures...)

	return &evaluation.Split{Train: train, Test: test, Counts: counts}, nil
}

// Counts computes the subset sizes for a dataset holding positives
// failures. params must already be valid.
func Counts(positives int, params evaluation.SplitParams) evaluation.SplitCounts {
	ratio := (1 - params.TargetPositiveRate) / params.TargetPositiveRate

	trainPos := floor(float64(positives) * params.TrainFraction)
	testPos := floor(float64(positives) * (1 - params.TrainFraction))

	return evaluation.SplitCounts{
		TrainPositive: trainPos,
		TrainNegative: floor(float64(trainPos) * ratio),
		TestPositive:  testPos,
		TestNegative:  floor(float64(testPos) * ratio),
	}
}

// floor saturates at math.MaxInt: a rate close to zero asks for more good
// observations than any dataset holds, and the slices truncate anyway.
func floor(v float64) int {
	if v >= math.MaxInt {
		return math.MaxInt
	}
	return int(math.Floor(v))
}

func addCapped(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// window returns s[lo:hi] clamped to the bounds of s.
func window(s []evaluation.Sample, lo, hi int) []evaluation.Sample {
	if lo < 0 {
		lo = 0
	}
	if lo > len(s) {
		lo = len(s)
	}
	if hi > len(s) {
		hi = len(s)
	}
	if hi < lo {
		hi = lo
	}
	return s[lo:hi]
}
