package features

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// Column names produced by the features statement.
const (
	columnFeatures = "features"
	columnFailure  = "failure"
)

// parseObservation converts one features row. Rows from the executor carry
// JSON arrays; rows from Postgres may carry array literals.
func parseObservation(row ports.Row) (dataset.Observation, error) {
	raw, ok := row[columnFeatures]
	if !ok {
		return dataset.Observation{}, fmt.Errorf("row has no %q column", columnFeatures)
	}
	features, err := toFloats(raw)
	if err != nil {
		return dataset.Observation{}, fmt.Errorf("column %q: %w", columnFeatures, err)
	}

	rawFailure, ok := row[columnFailure]
	if !ok {
		return dataset.Observation{}, fmt.Errorf("row has no %q column", columnFailure)
	}
	failure, err := toFloat(rawFailure)
	if err != nil {
		return dataset.Observation{}, fmt.Errorf("column %q: %w", columnFailure, err)
	}

	outcome := dataset.OutcomeGood
	if failure != 0 {
		outcome = dataset.OutcomeFailure
	}
	return dataset.Observation{Features: features, Outcome: outcome}, nil
}

func toFloats(v interface{}) ([]float64, error) {
	switch t := v.(type) {
	case []float64:
		return t, nil
	case []interface{}:
		out := make([]float64, len(t))
		for i, item := range t {
			f, err := toFloat(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	case []byte:
		return parseArrayText(string(t))
	case string:
		return parseArrayText(t)
	case nil:
		return nil, fmt.Errorf("is null")
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

func parseArrayText(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var out []float64
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var arr pq.Float64Array
	if err := arr.Scan(s); err != nil {
		return nil, err
	}
	return []float64(arr), nil
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}
