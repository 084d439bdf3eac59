package ml

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// KNearestNeighbors classifies by majority vote among the K closest
// training vectors under Euclidean distance.
type KNearestNeighbors struct {
	K int
	x [][]float64
	y []int
}

// NewKNearestNeighbors creates an untrained classifier.
func NewKNearestNeighbors(k int) *KNearestNeighbors {
	if k < 1 {
		k = 1
	}
	return &KNearestNeighbors{K: k}
}

// Fit memorizes the training set.
func (c *KNearestNeighbors) Fit(x [][]float64, y []int) error {
	if err := checkTrainingSet(x, y); err != nil {
		return err
	}
	c.x, c.y = x, y
	return nil
}

// Predict votes among the nearest neighbors. Equal distances keep training
// order; a tied vote goes to the good class.
func (c *KNearestNeighbors) Predict(x []float64) int {
	type neighbor struct {
		dist  float64
		label int
	}
	neighbors := make([]neighbor, len(c.x))
	for i, row := range c.x {
		neighbors[i] = neighbor{dist: floats.Distance(row, x, 2), label: c.y[i]}
	}
	sort.SliceStable(neighbors, func(a, b int) bool { return neighbors[a].dist < neighbors[b].dist })

	k := c.K
	if k > len(neighbors) {
		k = len(neighbors)
	}
	var good, failures float64
	for _, n := range neighbors[:k] {
		if n.label != 0 {
			failures++
		} else {
			good++
		}
	}
	return argmax2(good, failures)
}
