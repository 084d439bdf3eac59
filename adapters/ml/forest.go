package ml

import "math/rand"

// ForestConfig configures a random forest.
type ForestConfig struct {
	Trees       int
	MaxDepth    int
	MaxFeatures int
	Seed        int64
}

// RandomForest averages the failure probability of bootstrapped trees.
type RandomForest struct {
	config ForestConfig
	trees  []*DecisionTree
}

// NewRandomForest creates an untrained forest.
func NewRandomForest(config ForestConfig) *RandomForest {
	if config.Trees < 1 {
		config.Trees = 1
	}
	return &RandomForest{config: config}
}

// Fit trains each tree on a bootstrap sample drawn from a seeded source.
func (f *RandomForest) Fit(x [][]float64, y []int) error {
	if err := checkTrainingSet(x, y); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(f.config.Seed))
	f.trees = make([]*DecisionTree, 0, f.config.Trees)

	for t := 0; t < f.config.Trees; t++ {
		// Bootstrap as per-sample multiplicities, so the tree sees each
		// drawn row once with a weight equal to how often it was drawn.
		weights := make([]float64, len(y))
		for i := 0; i < len(y); i++ {
			weights[rng.Intn(len(y))]++
		}
		tree := NewDecisionTree(TreeConfig{
			MaxDepth:    f.config.MaxDepth,
			MaxFeatures: f.config.MaxFeatures,
			Seed:        rng.Int63(),
		})
		bx, by, bw := nonZero(x, y, weights)
		if err := tree.FitWeighted(bx, by, bw); err != nil {
			return err
		}
		f.trees = append(f.trees, tree)
	}
	return nil
}

// Predict thresholds the mean failure probability at one half.
func (f *RandomForest) Predict(x []float64) int {
	if len(f.trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.FailureProbability(x)
	}
	mean := sum / float64(len(f.trees))
	return argmax2(1-mean, mean)
}

func nonZero(x [][]float64, y []int, w []float64) ([][]float64, []int, []float64) {
	var bx [][]float64
	var by []int
	var bw []float64
	for i, weight := range w {
		if weight > 0 {
			bx = append(bx, x[i])
			by = append(by, y[i])
			bw = append(bw, weight)
		}
	}
	return bx, by, bw
}
