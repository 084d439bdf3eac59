package evaluation

import (
	"fmt"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
)

// ClassifierKind names one entry of the classifier registry. The numeric
// value is the selector clients send; it must never be reordered.
type ClassifierKind int

const (
	NearestNeighbors ClassifierKind = iota
	DecisionTree
	RandomForest
	NeuralNet
	AdaBoost
	NaiveBayes
	QuadraticDiscriminant
)

// ClassifierKinds lists the registry in selector order.
var ClassifierKinds = []ClassifierKind{
	NearestNeighbors,
	DecisionTree,
	RandomForest,
	NeuralNet,
	AdaBoost,
	NaiveBayes,
	QuadraticDiscriminant,
}

var classifierNames = map[ClassifierKind]string{
	NearestNeighbors:      "nearest_neighbors",
	DecisionTree:          "decision_tree",
	RandomForest:          "random_forest",
	NeuralNet:             "neural_net",
	AdaBoost:              "adaboost",
	NaiveBayes:            "naive_bayes",
	QuadraticDiscriminant: "qda",
}

var classifierDescriptions = map[ClassifierKind]string{
	NearestNeighbors:      "k-nearest neighbors, k=3",
	DecisionTree:          "CART decision tree, max depth 5",
	RandomForest:          "random forest, 10 trees, max depth 5, 1 feature per split",
	NeuralNet:             "multilayer perceptron, 100 hidden units, alpha=1, max 1000 iterations",
	AdaBoost:              "AdaBoost (SAMME) over 50 decision stumps",
	NaiveBayes:            "Gaussian naive Bayes",
	QuadraticDiscriminant: "quadratic discriminant analysis",
}

// ParseClassifierKind maps a client selector onto a registry entry.
func ParseClassifierKind(index int) (ClassifierKind, error) {
	if index < 0 || index >= len(ClassifierKinds) {
		return 0, core.NewInvalidParameterError("classifier",
			fmt.Sprintf("must be between 0 and %d, got %d", len(ClassifierKinds)-1, index))
	}
	return ClassifierKinds[index], nil
}

// Valid reports whether k is a registry entry.
func (k ClassifierKind) Valid() bool {
	return k >= 0 && int(k) < len(ClassifierKinds)
}

func (k ClassifierKind) String() string {
	if name, ok := classifierNames[k]; ok {
		return name
	}
	return fmt.Sprintf("classifier(%d)", int(k))
}

// Description is a human readable summary of the configuration.
func (k ClassifierKind) Description() string {
	return classifierDescriptions[k]
}
