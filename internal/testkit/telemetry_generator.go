package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// TelemetryGeneratorConfig configures the synthetic telemetry generator
type TelemetryGeneratorConfig struct {
	MachineCount int       `json:"machine_count"`
	Observations int       `json:"observations"`
	FailureRate  float64   `json:"failure_rate"`
	FeatureCount int       `json:"feature_count"`
	Drift        float64   `json:"drift"` // shift of failing machines, in standard deviations
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Seed         int64     `json:"seed"`
}

// DefaultTelemetryConfig returns sensible defaults for telemetry generation
func DefaultTelemetryConfig() TelemetryGeneratorConfig {
	return TelemetryGeneratorConfig{
		MachineCount: 100,
		Observations: 1000,
		FailureRate:  0.1,
		FeatureCount: 4,
		Drift:        2.5,
		StartDate:    time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC),
		Seed:         42,
	}
}

// Sensor baselines for volt, rotate, pressure and vibration.
var sensorBaselines = []struct {
	mean, std float64
}{
	{170, 15},
	{446, 52},
	{100, 11},
	{40, 5},
}

var machineModels = []string{"model1", "model2", "model3", "model4"}

// TelemetryGenerator generates feature vectors that resemble windowed
// sensor aggregates, with failing machines drifting away from baseline.
type TelemetryGenerator struct {
	config TelemetryGeneratorConfig
	rng    *rand.Rand
}

// NewTelemetryGenerator creates a new telemetry generator
func NewTelemetryGenerator(config TelemetryGeneratorConfig) *TelemetryGenerator {
	return &TelemetryGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateObservations draws Observations labeled observations. Exactly
// round(Observations*FailureRate) of them are failures, spread through
// the sequence.
func (g *TelemetryGenerator) GenerateObservations() []dataset.Observation {
	n := g.config.Observations
	failures := int(math.Round(float64(n) * g.config.FailureRate))
	labels := make([]int, n)
	for i := 0; i < failures; i++ {
		labels[i] = dataset.OutcomeFailure
	}
	g.rng.Shuffle(n, func(a, b int) { labels[a], labels[b] = labels[b], labels[a] })

	observations := make([]dataset.Observation, n)
	for i, label := range labels {
		observations[i] = dataset.Observation{Features: g.features(label), Outcome: label}
	}
	return observations
}

func (g *TelemetryGenerator) features(label int) []float64 {
	out := make([]float64, g.config.FeatureCount)
	for j := range out {
		base := sensorBaselines[j%len(sensorBaselines)]
		z := g.rng.NormFloat64()
		if label == dataset.OutcomeFailure {
			z += g.config.Drift
		}
		out[j] = base.mean + z*base.std
	}
	return out
}

// FeatureRows renders observations the way the executor returns the
// features statement.
func FeatureRows(observations []dataset.Observation) []ports.Row {
	rows := make([]ports.Row, len(observations))
	for i, o := range observations {
		features := make([]interface{}, len(o.Features))
		for j, f := range o.Features {
			features[j] = f
		}
		rows[i] = ports.Row{"features": features, "failure": float64(o.Outcome)}
	}
	return rows
}

// GenerateMachines returns machine list rows.
func (g *TelemetryGenerator) GenerateMachines() []ports.Row {
	statuses := []string{"OK", "OK", "OK", "OK", "Warning", "Failure"}
	rows := make([]ports.Row, g.config.MachineCount)
	for i := range rows {
		rows[i] = ports.Row{
			"id":       float64(i + 1),
			"model":    machineModels[g.rng.Intn(len(machineModels))],
			"age":      float64(g.rng.Intn(21)),
			"lat":      46.5 + g.rng.Float64(),
			"long":     6.5 + g.rng.Float64(),
			"lmaint":   g.randomDate().Format(dataset.DateLayout),
			"lfailure": g.randomDate().Format(dataset.DateLayout),
			"status":   statuses[g.rng.Intn(len(statuses))],
		}
	}
	return rows
}

// GenerateTelemetry returns hourly sensor readings for one machine.
func (g *TelemetryGenerator) GenerateTelemetry(start, end time.Time) []ports.Row {
	var rows []ports.Row
	for t := start; !t.After(end); t = t.Add(time.Hour) {
		rows = append(rows, ports.Row{
			"datetime":  t.Format(time.RFC3339),
			"volt":      g.reading(0),
			"rotate":    g.reading(1),
			"pressure":  g.reading(2),
			"vibration": g.reading(3),
		})
	}
	return rows
}

// GenerateEvents returns n timestamped events carrying value under key,
// such as errors ("error", "error1") or failures ("failure", "comp2").
func (g *TelemetryGenerator) GenerateEvents(n int, key, prefix string, components int) []ports.Row {
	rows := make([]ports.Row, n)
	for i := range rows {
		rows[i] = ports.Row{
			"datetime": g.randomDate().Format(time.RFC3339),
			key:        fmt.Sprintf("%s%d", prefix, g.rng.Intn(components)+1),
		}
	}
	return rows
}

func (g *TelemetryGenerator) reading(sensor int) float64 {
	base := sensorBaselines[sensor]
	return base.mean + g.rng.NormFloat64()*base.std
}

func (g *TelemetryGenerator) randomDate() time.Time {
	span := g.config.EndDate.Sub(g.config.StartDate)
	if span <= 0 {
		return g.config.StartDate
	}
	days := int(span.Hours() / 24)
	return g.config.StartDate.AddDate(0, 0, g.rng.Intn(days+1))
}
