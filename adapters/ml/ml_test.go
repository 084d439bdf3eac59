package ml

import (
	"math/rand"
	"testing"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/evaluation"
	"github.com/raw-labs/machine-prediction-demo/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs draws two well separated Gaussian clouds: good around the origin,
// failures around (6,6).
func blobs(seed int64, good, failures int) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	var x [][]float64
	var y []int
	for i := 0; i < good; i++ {
		x = append(x, []float64{rng.NormFloat64(), rng.NormFloat64()})
		y = append(y, 0)
	}
	for i := 0; i < failures; i++ {
		x = append(x, []float64{6 + rng.NormFloat64(), 6 + rng.NormFloat64()})
		y = append(y, 1)
	}
	return x, y
}

func accuracy(c ports.Classifier, x [][]float64, y []int) float64 {
	correct := 0
	for i := range x {
		if c.Predict(x[i]) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x))
}

func testRegistry() *Registry {
	r := NewRegistry()
	r.MLP = MLPConfig{Hidden: 16, Alpha: 1e-4, MaxIter: 300, LearningRate: 0.01, BatchSize: 16}
	return r
}

func TestRegistrySeparatesBlobs(t *testing.T) {
	trainX, trainY := blobs(1, 60, 40)
	testX, testY := blobs(2, 30, 30)
	registry := testRegistry()

	for _, kind := range evaluation.ClassifierKinds {
		t.Run(kind.String(), func(t *testing.T) {
			c, err := registry.New(kind)
			require.NoError(t, err)
			require.NoError(t, c.Fit(trainX, trainY))

			assert.GreaterOrEqual(t, accuracy(c, testX, testY), 0.95)
		})
	}
}

func TestRegistryDeterministic(t *testing.T) {
	trainX, trainY := blobs(3, 50, 50)
	probeX, _ := blobs(4, 20, 20)
	registry := testRegistry()

	for _, kind := range []evaluation.ClassifierKind{evaluation.RandomForest, evaluation.NeuralNet} {
		first, err := registry.New(kind)
		require.NoError(t, err)
		second, err := registry.New(kind)
		require.NoError(t, err)
		require.NoError(t, first.Fit(trainX, trainY))
		require.NoError(t, second.Fit(trainX, trainY))

		for _, p := range probeX {
			assert.Equal(t, first.Predict(p), second.Predict(p), "%s diverged", kind)
		}
	}
}

func TestRegistryRejectsUnknownKind(t *testing.T) {
	_, err := NewRegistry().New(evaluation.ClassifierKind(7))
	assert.ErrorIs(t, err, core.ErrInvalidParameter)
}

func TestFitRejectsBadShapes(t *testing.T) {
	registry := testRegistry()
	for _, kind := range evaluation.ClassifierKinds {
		c, err := registry.New(kind)
		require.NoError(t, err)

		assert.ErrorIs(t, c.Fit(nil, nil), core.ErrInsufficientData, kind.String())
		assert.ErrorIs(t, c.Fit([][]float64{{1, 2}, {3}}, []int{0, 1}), core.ErrInconsistentSchema, kind.String())
	}
}

func TestKNearestNeighborsMajorityOfThree(t *testing.T) {
	knn := NewKNearestNeighbors(3)
	x := [][]float64{{0}, {1}, {2}, {10}, {11}}
	y := []int{0, 0, 1, 1, 1}
	require.NoError(t, knn.Fit(x, y))

	// nearest to 1.4 are 1, 2, 0 → two good, one failure
	assert.Equal(t, 0, knn.Predict([]float64{1.4}))
	// nearest to 9 are 10, 11, 2 → all failures
	assert.Equal(t, 1, knn.Predict([]float64{9}))
}

func TestDecisionTreeDepthLimit(t *testing.T) {
	// A staircase needs one split per step; depth 1 can only learn one.
	x := [][]float64{{0}, {1}, {2}, {3}}
	y := []int{0, 1, 0, 1}

	stump := NewDecisionTree(TreeConfig{MaxDepth: 1})
	require.NoError(t, stump.Fit(x, y))
	deep := NewDecisionTree(TreeConfig{MaxDepth: 5})
	require.NoError(t, deep.Fit(x, y))

	assert.Less(t, accuracy(stump, x, y), 1.0)
	assert.Equal(t, 1.0, accuracy(deep, x, y))
}

func TestDecisionTreeWeightsShiftMajority(t *testing.T) {
	x := [][]float64{{1}, {1}, {1}}
	y := []int{0, 0, 1}

	tree := NewDecisionTree(TreeConfig{MaxDepth: 3})
	require.NoError(t, tree.FitWeighted(x, y, []float64{1, 1, 5}))
	assert.Equal(t, 1, tree.Predict([]float64{1}))

	require.NoError(t, tree.FitWeighted(x, y, nil))
	assert.Equal(t, 0, tree.Predict([]float64{1}))
}

func TestAdaBoostStopsOnPerfectStump(t *testing.T) {
	x := [][]float64{{0}, {1}, {5}, {6}}
	y := []int{0, 0, 1, 1}

	boost := NewAdaBoost(AdaBoostConfig{Estimators: 50})
	require.NoError(t, boost.Fit(x, y))

	assert.Len(t, boost.stages, 1)
	assert.Equal(t, 1.0, accuracy(boost, x, y))
}

func TestSingleClassModelsNeedBothClasses(t *testing.T) {
	x := [][]float64{{0, 1}, {1, 0}, {1, 1}}
	y := []int{0, 0, 0}

	assert.ErrorIs(t, NewGaussianNaiveBayes().Fit(x, y), core.ErrInsufficientData)
	assert.ErrorIs(t, NewQuadraticDiscriminant().Fit(x, y), core.ErrInsufficientData)
}

func TestQuadraticDiscriminantHandlesConstantFeature(t *testing.T) {
	trainX, trainY := blobs(5, 40, 40)
	withConstant := make([][]float64, len(trainX))
	for i, row := range trainX {
		withConstant[i] = []float64{row[0], row[1], 3}
	}

	qda := NewQuadraticDiscriminant()
	require.NoError(t, qda.Fit(withConstant, trainY))

	assert.Equal(t, 0, qda.Predict([]float64{0, 0, 3}))
	assert.Equal(t, 1, qda.Predict([]float64{6, 6, 3}))
}

func TestMLPLossDecreases(t *testing.T) {
	x, y := blobs(6, 40, 40)

	short := NewMLP(MLPConfig{Hidden: 8, Alpha: 1e-4, MaxIter: 1, LearningRate: 0.01, BatchSize: 16, Seed: 1})
	require.NoError(t, short.Fit(x, y))
	long := NewMLP(MLPConfig{Hidden: 8, Alpha: 1e-4, MaxIter: 200, LearningRate: 0.01, BatchSize: 16, Seed: 1})
	require.NoError(t, long.Fit(x, y))

	assert.Less(t, long.Loss, short.Loss)
	assert.LessOrEqual(t, long.Epochs, 200)
}
