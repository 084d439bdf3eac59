package dataset

import (
	"fmt"
	"time"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
)

// Outcome labels for the two classes an observation can belong to.
const (
	OutcomeGood    = 0
	OutcomeFailure = 1
)

// Observation is one labeled training example: the feature vector measured
// over a window and whether the machine failed in the following window.
type Observation struct {
	Features []float64 `json:"features"`
	Outcome  int       `json:"failure"`
}

// IsFailure reports whether the observation belongs to the positive class.
// Any nonzero outcome counts as a failure.
func (o Observation) IsFailure() bool {
	return o.Outcome != OutcomeGood
}

// Label collapses the outcome to 0 or 1.
func (o Observation) Label() int {
	if o.IsFailure() {
		return OutcomeFailure
	}
	return OutcomeGood
}

// FeatureSummary describes one column of the feature matrix.
type FeatureSummary struct {
	Index  int     `json:"index"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Dataset is the full, ordered result of one extraction.
// It is immutable once handed to a feature store.
type Dataset struct {
	ID            core.DatasetID   `json:"name"`
	Window        ExtractionWindow `json:"window"`
	Observations  []Observation    `json:"observations"`
	TotalPositive int              `json:"failures"`
	TotalNegative int              `json:"good"`
	FeatureCount  int              `json:"feature_count"`
	Features      []FeatureSummary `json:"features,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Len returns the number of observations.
func (d *Dataset) Len() int { return len(d.Observations) }

// Info returns the listing view of the dataset.
func (d *Dataset) Info() Info {
	return Info{
		ID:            d.ID,
		TotalPositive: d.TotalPositive,
		TotalNegative: d.TotalNegative,
		FeatureCount:  d.FeatureCount,
		CreatedAt:     d.CreatedAt,
	}
}

// Info is the light-weight listing entry for a stored dataset.
type Info struct {
	ID            core.DatasetID `json:"name"`
	TotalPositive int            `json:"failures"`
	TotalNegative int            `json:"good"`
	FeatureCount  int            `json:"feature_count"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CheckSchema verifies that every observation carries the same number of
// features and returns that number.
func CheckSchema(observations []Observation) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}
	width := len(observations[0].Features)
	for i, o := range observations {
		if len(o.Features) != width {
			return 0, core.NewInconsistentSchemaError(i, len(o.Features), width)
		}
	}
	return width, nil
}

// ExtractionWindow describes how the remote engine slices telemetry into
// observations: features are measured over MeasureDays and labeled with
// failures occurring in the following PredictionDays, for slices between
// Start and End.
type ExtractionWindow struct {
	MeasureDays    int       `json:"measure_days"`
	PredictionDays int       `json:"prediction_days"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

// DateLayout is the date format accepted and emitted by the API.
const DateLayout = "2006-01-02"

// Validate checks the window for values the engine cannot interpret.
func (w ExtractionWindow) Validate() error {
	if w.MeasureDays <= 0 {
		return core.NewInvalidParameterError("measureDays", fmt.Sprintf("must be positive, got %d", w.MeasureDays))
	}
	if w.PredictionDays <= 0 {
		return core.NewInvalidParameterError("predictionDays", fmt.Sprintf("must be positive, got %d", w.PredictionDays))
	}
	if w.Start.IsZero() || w.End.IsZero() {
		return core.NewInvalidParameterError("start/end", "are required")
	}
	if w.End.Before(w.Start) {
		return core.NewInvalidParameterError("end", fmt.Sprintf("%s is before start %s",
			w.End.Format(DateLayout), w.Start.Format(DateLayout)))
	}
	return nil
}
