package ports

import (
	"context"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
)

// FeatureStore is a scratch cache for extracted datasets. It is not a
// system of record: contents live no longer than the process.
type FeatureStore interface {
	// Put stores ds under a freshly minted identifier, which it also
	// writes into ds.ID. Identifiers are never reused.
	Put(ctx context.Context, ds *dataset.Dataset) (core.DatasetID, error)
	// Get returns the dataset or an error matching core.ErrNotFound.
	Get(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error)
	// List returns listing entries, newest first.
	List(ctx context.Context) ([]dataset.Info, error)
	Close() error
}
