package ml

import (
	"fmt"
	"math"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ridgeFraction scales the diagonal loading applied to a singular
// covariance matrix, relative to its mean variance.
const ridgeFraction = 1e-6

type quadraticClass struct {
	logPrior float64
	mean     *mat.VecDense
	chol     mat.Cholesky
	logDet   float64
}

// QuadraticDiscriminant fits one Gaussian with its own full covariance per
// class and classifies by the larger log posterior.
type QuadraticDiscriminant struct {
	classes [2]*quadraticClass
}

// NewQuadraticDiscriminant creates an untrained classifier.
func NewQuadraticDiscriminant() *QuadraticDiscriminant {
	return &QuadraticDiscriminant{}
}

// Fit estimates class means and sample covariances. Each class needs at
// least two observations.
func (q *QuadraticDiscriminant) Fit(x [][]float64, y []int) error {
	if err := checkTrainingSet(x, y); err != nil {
		return err
	}
	good, failures := splitByClass(y)
	if len(good) < 2 || len(failures) < 2 {
		return core.NewInsufficientDataError(fmt.Sprintf(
			"QDA needs at least 2 observations per class, got %d good and %d failures", len(good), len(failures)))
	}

	width := len(x[0])
	for c, rows := range [][]int{good, failures} {
		data := mat.NewDense(len(rows), width, nil)
		for r, i := range rows {
			data.SetRow(r, x[i])
		}

		mean := mat.NewVecDense(width, nil)
		for f := 0; f < width; f++ {
			mean.SetVec(f, stat.Mean(mat.Col(nil, f, data), nil))
		}

		var cov mat.SymDense
		stat.CovarianceMatrix(&cov, data, nil)

		class := &quadraticClass{
			logPrior: math.Log(float64(len(rows)) / float64(len(y))),
			mean:     mean,
		}
		if !factorize(&class.chol, &cov) {
			return fmt.Errorf("%w: covariance of class %d is not positive definite", core.ErrInsufficientData, c)
		}
		class.logDet = class.chol.LogDet()
		q.classes[c] = class
	}
	return nil
}

// factorize attempts a Cholesky factorization, loading the diagonal with
// increasing ridges when the covariance is singular (collinear or constant
// features).
func factorize(chol *mat.Cholesky, cov *mat.SymDense) bool {
	if chol.Factorize(cov) {
		return true
	}
	n := cov.SymmetricDim()
	scale := 0.0
	for i := 0; i < n; i++ {
		scale += cov.At(i, i)
	}
	scale /= float64(n)
	if scale <= 0 {
		scale = 1
	}
	for ridge := scale * ridgeFraction; ridge <= scale; ridge *= 10 {
		loaded := mat.NewSymDense(n, nil)
		loaded.CopySym(cov)
		for i := 0; i < n; i++ {
			loaded.SetSym(i, i, cov.At(i, i)+ridge)
		}
		if chol.Factorize(loaded) {
			return true
		}
	}
	return false
}

// Predict evaluates the log discriminant of each class.
func (q *QuadraticDiscriminant) Predict(x []float64) int {
	var scores [2]float64
	point := mat.NewVecDense(len(x), append([]float64(nil), x...))
	for c, class := range q.classes {
		if class == nil {
			scores[c] = math.Inf(-1)
			continue
		}
		var diff, solved mat.VecDense
		diff.SubVec(point, class.mean)
		if err := class.chol.SolveVecTo(&solved, &diff); err != nil {
			scores[c] = math.Inf(-1)
			continue
		}
		mahalanobis := mat.Dot(&diff, &solved)
		scores[c] = class.logPrior - 0.5*class.logDet - 0.5*mahalanobis
	}
	return argmax2(scores[0], scores[1])
}
