package ml

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// MLPConfig configures the multilayer perceptron.
type MLPConfig struct {
	Hidden       int
	Alpha        float64 // L2 penalty
	MaxIter      int     // epochs
	LearningRate float64
	BatchSize    int
	Tol          float64
	NoChange     int // epochs without Tol improvement before stopping
	Seed         int64
}

// DefaultMLPConfig mirrors the classic scikit-learn defaults with a
// strong L2 penalty.
func DefaultMLPConfig() MLPConfig {
	return MLPConfig{
		Hidden:       100,
		Alpha:        1,
		MaxIter:      1000,
		LearningRate: 0.001,
		BatchSize:    200,
		Tol:          1e-4,
		NoChange:     10,
	}
}

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
	probEpsilon = 1e-15
)

// MLP is a one-hidden-layer ReLU network with a logistic output, trained
// with mini-batch Adam on L2-regularized log loss.
//
// Parameters live in one flat vector:
//
//	[ w1 (hidden*in) | b1 (hidden) | w2 (hidden) | b2 ]
type MLP struct {
	config MLPConfig
	in     int
	params []float64
	// Loss is the training loss after the last epoch.
	Loss float64
	// Epochs is the number of epochs actually run.
	Epochs int
}

// NewMLP creates an untrained network.
func NewMLP(config MLPConfig) *MLP {
	def := DefaultMLPConfig()
	if config.Hidden <= 0 {
		config.Hidden = def.Hidden
	}
	if config.MaxIter <= 0 {
		config.MaxIter = def.MaxIter
	}
	if config.LearningRate <= 0 {
		config.LearningRate = def.LearningRate
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.NoChange <= 0 {
		config.NoChange = def.NoChange
	}
	return &MLP{config: config}
}

func (m *MLP) w1(j int) []float64 { return m.params[j*m.in : (j+1)*m.in] }
func (m *MLP) b1Offset() int      { return m.config.Hidden * m.in }
func (m *MLP) w2Offset() int      { return m.b1Offset() + m.config.Hidden }
func (m *MLP) b2Offset() int      { return m.w2Offset() + m.config.Hidden }

// isWeight reports whether parameter p is subject to the L2 penalty.
func (m *MLP) isWeight(p int) bool {
	return p < m.b1Offset() || (p >= m.w2Offset() && p < m.b2Offset())
}

// Fit trains until MaxIter epochs or until the loss stops improving.
func (m *MLP) Fit(x [][]float64, y []int) error {
	if err := checkTrainingSet(x, y); err != nil {
		return err
	}
	rng := rand.New(rand.NewSource(m.config.Seed))
	m.init(len(x[0]), rng)

	n := len(x)
	batch := m.config.BatchSize
	if batch > n {
		batch = n
	}

	grads := make([]float64, len(m.params))
	moment := make([]float64, len(m.params))
	velocity := make([]float64, len(m.params))
	hidden := make([]float64, m.config.Hidden)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	bestLoss := math.Inf(1)
	stale := 0
	step := 0

	for epoch := 0; epoch < m.config.MaxIter; epoch++ {
		rng.Shuffle(n, func(a, b int) { order[a], order[b] = order[b], order[a] })

		var epochLoss float64
		for start := 0; start < n; start += batch {
			end := start + batch
			if end > n {
				end = n
			}
			size := float64(end - start)
			for p := range grads {
				grads[p] = 0
			}

			var batchLoss float64
			for _, i := range order[start:end] {
				batchLoss += m.backprop(x[i], y[i], hidden, grads)
			}
			batchLoss /= size

			var l2 float64
			for p, w := range m.params {
				if m.isWeight(p) {
					l2 += w * w
					grads[p] += m.config.Alpha * w
				}
				grads[p] /= size
			}
			batchLoss += 0.5 * m.config.Alpha * l2 / size
			epochLoss += batchLoss * size

			step++
			m.adam(grads, moment, velocity, step)
		}

		m.Loss = epochLoss / float64(n)
		m.Epochs = epoch + 1

		if m.Loss > bestLoss-m.config.Tol {
			stale++
		} else {
			stale = 0
		}
		if m.Loss < bestLoss {
			bestLoss = m.Loss
		}
		if stale > m.config.NoChange {
			break
		}
	}
	return nil
}

// init draws Glorot-uniform weights and biases.
func (m *MLP) init(in int, rng *rand.Rand) {
	m.in = in
	h := m.config.Hidden
	m.params = make([]float64, h*in+h+h+1)

	bound1 := math.Sqrt(6 / float64(in+h))
	for p := 0; p < m.w2Offset(); p++ {
		m.params[p] = (rng.Float64()*2 - 1) * bound1
	}
	bound2 := math.Sqrt(6 / float64(h+1))
	for p := m.w2Offset(); p < len(m.params); p++ {
		m.params[p] = (rng.Float64()*2 - 1) * bound2
	}
}

// forward fills hidden and returns the failure probability.
func (m *MLP) forward(x []float64, hidden []float64) float64 {
	b1 := m.params[m.b1Offset():m.w2Offset()]
	for j := range hidden {
		hidden[j] = math.Max(0, floats.Dot(m.w1(j), x)+b1[j])
	}
	w2 := m.params[m.w2Offset():m.b2Offset()]
	z := floats.Dot(w2, hidden) + m.params[m.b2Offset()]
	return 1 / (1 + math.Exp(-z))
}

// backprop accumulates the log-loss gradient of one sample into grads and
// returns its loss.
func (m *MLP) backprop(x []float64, y int, hidden, grads []float64) float64 {
	p := m.forward(x, hidden)
	target := float64(label(y))
	clipped := math.Min(math.Max(p, probEpsilon), 1-probEpsilon)
	loss := -(target*math.Log(clipped) + (1-target)*math.Log(1-clipped))

	dz := p - target
	w2 := m.params[m.w2Offset():m.b2Offset()]
	gw2 := grads[m.w2Offset():m.b2Offset()]
	gb1 := grads[m.b1Offset():m.w2Offset()]
	floats.AddScaled(gw2, dz, hidden)
	grads[m.b2Offset()] += dz

	for j, h := range hidden {
		if h <= 0 {
			continue
		}
		dh := dz * w2[j]
		floats.AddScaled(grads[j*m.in:(j+1)*m.in], dh, x)
		gb1[j] += dh
	}
	return loss
}

func (m *MLP) adam(grads, moment, velocity []float64, step int) {
	t := float64(step)
	rate := m.config.LearningRate * math.Sqrt(1-math.Pow(adamBeta2, t)) / (1 - math.Pow(adamBeta1, t))
	for p, g := range grads {
		moment[p] = adamBeta1*moment[p] + (1-adamBeta1)*g
		velocity[p] = adamBeta2*velocity[p] + (1-adamBeta2)*g*g
		m.params[p] -= rate * moment[p] / (math.Sqrt(velocity[p]) + adamEpsilon)
	}
}

// Predict thresholds the output probability at one half.
func (m *MLP) Predict(x []float64) int {
	if m.params == nil {
		return 0
	}
	hidden := make([]float64, m.config.Hidden)
	if m.forward(x, hidden) > 0.5 {
		return 1
	}
	return 0
}
