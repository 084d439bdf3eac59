package ml

import "math"

// AdaBoostConfig configures discrete AdaBoost.
type AdaBoostConfig struct {
	Estimators   int
	LearningRate float64
}

// WeakLearner is the contract boosted estimators satisfy.
type WeakLearner interface {
	FitWeighted(x [][]float64, y []int, weights []float64) error
	Predict(x []float64) int
}

type boostedStage struct {
	learner WeakLearner
	alpha   float64
}

// AdaBoostClassifier is two-class SAMME boosting over decision stumps.
type AdaBoostClassifier struct {
	config AdaBoostConfig
	stages []boostedStage
}

// NewAdaBoost creates an untrained ensemble.
func NewAdaBoost(config AdaBoostConfig) *AdaBoostClassifier {
	if config.Estimators < 1 {
		config.Estimators = 50
	}
	if config.LearningRate <= 0 {
		config.LearningRate = 1
	}
	return &AdaBoostClassifier{config: config}
}

// Fit reweights samples after each stump. Boosting stops early on a
// perfect stump or one no better than chance.
func (a *AdaBoostClassifier) Fit(x [][]float64, y []int) error {
	if err := checkTrainingSet(x, y); err != nil {
		return err
	}
	n := len(y)
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}
	a.stages = a.stages[:0]

	for m := 0; m < a.config.Estimators; m++ {
		stump := NewDecisionTree(TreeConfig{MaxDepth: 1})
		if err := stump.FitWeighted(x, y, weights); err != nil {
			return err
		}

		var errSum, wSum float64
		wrong := make([]bool, n)
		for i := range x {
			wSum += weights[i]
			if stump.Predict(x[i]) != label(y[i]) {
				wrong[i] = true
				errSum += weights[i]
			}
		}
		errRate := errSum / wSum

		if errRate <= 0 {
			a.stages = append(a.stages, boostedStage{learner: stump, alpha: 1})
			break
		}
		if errRate >= 0.5 {
			if len(a.stages) == 0 {
				a.stages = append(a.stages, boostedStage{learner: stump, alpha: 1})
			}
			break
		}

		alpha := a.config.LearningRate * math.Log((1-errRate)/errRate)
		a.stages = append(a.stages, boostedStage{learner: stump, alpha: alpha})

		var total float64
		for i := range weights {
			if wrong[i] {
				weights[i] *= math.Exp(alpha)
			}
			total += weights[i]
		}
		for i := range weights {
			weights[i] /= total
		}
	}
	return nil
}

// Predict returns the class with the larger weighted vote.
func (a *AdaBoostClassifier) Predict(x []float64) int {
	var good, failures float64
	for _, s := range a.stages {
		if s.learner.Predict(x) != 0 {
			failures += s.alpha
		} else {
			good += s.alpha
		}
	}
	return argmax2(good, failures)
}

func label(y int) int {
	if y != 0 {
		return 1
	}
	return 0
}
