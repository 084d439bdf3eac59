package features

import (
	"github.com/montanaflynn/stats"

	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
)

// Summarize computes per-column statistics of the feature matrix.
// It expects a consistent schema.
func Summarize(observations []dataset.Observation) ([]dataset.FeatureSummary, error) {
	if len(observations) == 0 {
		return nil, nil
	}
	width := len(observations[0].Features)
	summaries := make([]dataset.FeatureSummary, width)
	column := make(stats.Float64Data, len(observations))

	for j := 0; j < width; j++ {
		for i, o := range observations {
			column[i] = o.Features[j]
		}

		mean, err := column.Mean()
		if err != nil {
			return nil, err
		}
		stdDev, err := column.StandardDeviation()
		if err != nil {
			return nil, err
		}
		min, err := column.Min()
		if err != nil {
			return nil, err
		}
		max, err := column.Max()
		if err != nil {
			return nil, err
		}
		median, err := column.Median()
		if err != nil {
			return nil, err
		}

		summaries[j] = dataset.FeatureSummary{
			Index:  j,
			Mean:   mean,
			StdDev: stdDev,
			Min:    min,
			Max:    max,
			Median: median,
		}
	}
	return summaries, nil
}
