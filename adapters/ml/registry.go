package ml

import (
	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/evaluation"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// DefaultSeed fixes the randomness of the forest and the network so that
// the same training set always yields the same model.
const DefaultSeed int64 = 42

// Registry builds classifiers for each entry of evaluation.ClassifierKinds.
type Registry struct {
	Seed int64
	// MLP overrides the network configuration; zero fields take defaults.
	MLP MLPConfig
}

// NewRegistry creates a registry with the default seed and configurations.
func NewRegistry() *Registry {
	return &Registry{Seed: DefaultSeed, MLP: DefaultMLPConfig()}
}

// New returns a fresh classifier for kind.
func (r *Registry) New(kind evaluation.ClassifierKind) (ports.Classifier, error) {
	switch kind {
	case evaluation.NearestNeighbors:
		return NewKNearestNeighbors(3), nil
	case evaluation.DecisionTree:
		return NewDecisionTree(TreeConfig{MaxDepth: 5, Seed: r.Seed}), nil
	case evaluation.RandomForest:
		return NewRandomForest(ForestConfig{Trees: 10, MaxDepth: 5, MaxFeatures: 1, Seed: r.Seed}), nil
	case evaluation.NeuralNet:
		config := r.MLP
		config.Seed = r.Seed
		return NewMLP(config), nil
	case evaluation.AdaBoost:
		return NewAdaBoost(AdaBoostConfig{Estimators: 50, LearningRate: 1}), nil
	case evaluation.NaiveBayes:
		return NewGaussianNaiveBayes(), nil
	case evaluation.QuadraticDiscriminant:
		return NewQuadraticDiscriminant(), nil
	default:
		return nil, core.NewInvalidParameterError("classifier", "is not a registry entry: "+kind.String())
	}
}

var _ ports.ClassifierFactory = (*Registry)(nil)
