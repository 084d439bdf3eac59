package ml

import (
	"math"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// varSmoothing is the fraction of the largest feature variance added to
// every class variance for numerical stability.
const varSmoothing = 1e-9

type gaussianClass struct {
	logPrior float64
	means    []float64
	vars     []float64
}

// GaussianNaiveBayes assumes features are independent and normally
// distributed within each class.
type GaussianNaiveBayes struct {
	classes [2]*gaussianClass
}

// NewGaussianNaiveBayes creates an untrained classifier.
func NewGaussianNaiveBayes() *GaussianNaiveBayes {
	return &GaussianNaiveBayes{}
}

// Fit estimates per-class priors, means and population variances.
func (nb *GaussianNaiveBayes) Fit(x [][]float64, y []int) error {
	if err := checkTrainingSet(x, y); err != nil {
		return err
	}
	good, failures := splitByClass(y)
	if len(good) == 0 || len(failures) == 0 {
		return core.NewInsufficientDataError("naive Bayes needs both classes in the training set")
	}

	width := len(x[0])
	epsilon := 0.0
	column := make([]float64, len(x))
	for f := 0; f < width; f++ {
		for i := range x {
			column[i] = x[i][f]
		}
		_, v := stat.PopMeanVariance(column, nil)
		epsilon = math.Max(epsilon, v)
	}
	epsilon *= varSmoothing

	for c, rows := range [][]int{good, failures} {
		class := &gaussianClass{
			logPrior: math.Log(float64(len(rows)) / float64(len(y))),
			means:    make([]float64, width),
			vars:     make([]float64, width),
		}
		values := make([]float64, len(rows))
		for f := 0; f < width; f++ {
			for k, i := range rows {
				values[k] = x[i][f]
			}
			mean, variance := stat.PopMeanVariance(values, nil)
			class.means[f] = mean
			class.vars[f] = variance + epsilon
		}
		nb.classes[c] = class
	}
	return nil
}

// Predict picks the class with the higher joint log likelihood.
func (nb *GaussianNaiveBayes) Predict(x []float64) int {
	var scores [2]float64
	for c, class := range nb.classes {
		if class == nil {
			scores[c] = math.Inf(-1)
			continue
		}
		score := class.logPrior
		for f, v := range x {
			if class.vars[f] == 0 {
				// Constant feature with zero smoothing: only an exact match is possible.
				if v != class.means[f] {
					score = math.Inf(-1)
					break
				}
				continue
			}
			score += distuv.Normal{Mu: class.means[f], Sigma: math.Sqrt(class.vars[f])}.LogProb(v)
		}
		scores[c] = score
	}
	return argmax2(scores[0], scores[1])
}
