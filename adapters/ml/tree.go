package ml

import (
	"math"
	"math/rand"
	"sort"
)

// TreeConfig configures a CART tree.
type TreeConfig struct {
	MaxDepth int
	// MaxFeatures limits how many randomly chosen features are tried at
	// each split. Zero tries every feature.
	MaxFeatures int
	// MinSamplesSplit is the smallest node that may be split.
	MinSamplesSplit int
	Seed            int64
}

type treeNode struct {
	leaf      bool
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	// failureProb is the weighted share of failures that reached the node.
	failureProb float64
}

// DecisionTree is a binary CART classifier using Gini impurity. It accepts
// per-sample weights so that boosting can reuse it.
type DecisionTree struct {
	config TreeConfig
	rng    *rand.Rand
	root   *treeNode
}

// NewDecisionTree creates an untrained tree.
func NewDecisionTree(config TreeConfig) *DecisionTree {
	if config.MinSamplesSplit < 2 {
		config.MinSamplesSplit = 2
	}
	return &DecisionTree{config: config, rng: rand.New(rand.NewSource(config.Seed))}
}

// Fit trains the tree with uniform weights.
func (t *DecisionTree) Fit(x [][]float64, y []int) error {
	return t.FitWeighted(x, y, nil)
}

// FitWeighted trains the tree; nil weights means uniform.
func (t *DecisionTree) FitWeighted(x [][]float64, y []int, weights []float64) error {
	if err := checkTrainingSet(x, y); err != nil {
		return err
	}
	if weights == nil {
		weights = make([]float64, len(y))
		for i := range weights {
			weights[i] = 1
		}
	}
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	t.root = t.build(x, y, weights, idx, 0)
	return nil
}

// Predict returns the majority class of the leaf x falls into.
func (t *DecisionTree) Predict(x []float64) int {
	if t.FailureProbability(x) > 0.5 {
		return 1
	}
	return 0
}

// FailureProbability returns the weighted failure share of x's leaf.
func (t *DecisionTree) FailureProbability(x []float64) float64 {
	n := t.root
	if n == nil {
		return 0
	}
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.failureProb
}

func (t *DecisionTree) build(x [][]float64, y []int, w []float64, idx []int, depth int) *treeNode {
	var total, failures float64
	for _, i := range idx {
		total += w[i]
		if y[i] != 0 {
			failures += w[i]
		}
	}
	node := &treeNode{leaf: true}
	if total > 0 {
		node.failureProb = failures / total
	}

	pure := failures == 0 || failures == total
	if pure || len(idx) < t.config.MinSamplesSplit || (t.config.MaxDepth > 0 && depth >= t.config.MaxDepth) {
		return node
	}

	feature, threshold, ok := t.bestSplit(x, y, w, idx, total, failures)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.leaf = false
	node.feature = feature
	node.threshold = threshold
	node.left = t.build(x, y, w, left, depth+1)
	node.right = t.build(x, y, w, right, depth+1)
	return node
}

// bestSplit scans candidate features for the threshold with the lowest
// weighted Gini impurity. Thresholds are midpoints between consecutive
// distinct values. With MaxFeatures set, features are visited in random
// order and the search stops once that many features offered a valid
// split; constant features do not count toward the limit.
func (t *DecisionTree) bestSplit(x [][]float64, y []int, w []float64, idx []int, total, failures float64) (int, float64, bool) {
	bestImpurity := math.Inf(1)
	bestFeature, bestThreshold, found := -1, 0.0, false
	visited := 0

	for _, f := range t.featureOrder(len(x[idx[0]])) {
		if t.config.MaxFeatures > 0 && visited >= t.config.MaxFeatures {
			break
		}
		sorted := make([]int, len(idx))
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return x[sorted[a]][f] < x[sorted[b]][f] })

		valid := false
		var leftTotal, leftFailures float64
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			leftTotal += w[i]
			if y[i] != 0 {
				leftFailures += w[i]
			}
			cur, next := x[i][f], x[sorted[k+1]][f]
			if cur == next {
				continue
			}
			valid = true
			rightTotal := total - leftTotal
			rightFailures := failures - leftFailures
			impurity := (leftTotal*gini(leftFailures, leftTotal) + rightTotal*gini(rightFailures, rightTotal)) / total
			if impurity < bestImpurity-1e-12 {
				bestImpurity = impurity
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				if bestThreshold >= next {
					bestThreshold = cur
				}
				found = true
			}
		}
		if valid {
			visited++
		}
	}
	return bestFeature, bestThreshold, found
}

func (t *DecisionTree) featureOrder(width int) []int {
	if t.config.MaxFeatures <= 0 || t.config.MaxFeatures >= width {
		all := make([]int, width)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return t.rng.Perm(width)
}

func gini(failures, total float64) float64 {
	if total <= 0 {
		return 0
	}
	p := failures / total
	return 1 - p*p - (1-p)*(1-p)
}
