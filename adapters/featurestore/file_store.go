// Package featurestore holds the process-scoped caches for extracted
// datasets.
package featurestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/internal"
	"github.com/raw-labs/machine-prediction-demo/internal/metrics"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// DefaultDirPrefix names the temporary directory of a FileStore.
const DefaultDirPrefix = "raw-app-features"

// FileStore keeps one JSON document per dataset in a temporary directory
// that lives as long as the store.
type FileStore struct {
	dir    string
	logger *internal.Logger

	mu    sync.RWMutex
	index map[core.DatasetID]dataset.Info
}

// NewFileStore creates the backing directory under the system temp dir.
func NewFileStore(prefix string, logger *internal.Logger) (*FileStore, error) {
	if prefix == "" {
		prefix = DefaultDirPrefix
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create features directory: %w", err)
	}
	logger.Info("using %s as features folder", dir)
	return &FileStore{dir: dir, logger: logger, index: make(map[core.DatasetID]dataset.Info)}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id core.DatasetID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

// Put writes the dataset to a temporary file and renames it into place,
// so a concurrent Get sees either nothing or the whole document.
func (s *FileStore) Put(ctx context.Context, ds *dataset.Dataset) (core.DatasetID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := core.NewDatasetID()
	ds.ID = id

	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := json.NewEncoder(tmp).Encode(ds); err != nil {
		tmp.Close()
		os.Remove(tmpName) // Clean up on failure
		return "", fmt.Errorf("failed to encode dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := os.Rename(tmpName, s.path(id)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to commit dataset: %w", err)
	}

	s.mu.Lock()
	s.index[id] = ds.Info()
	n := len(s.index)
	s.mu.Unlock()
	metrics.StoredDatasets.Set(float64(n))

	s.logger.Debug("wrote dataset %s (%d observations)", id, ds.Len())
	return id, nil
}

// Get reads the dataset document. No lock is held while decoding.
func (s *FileStore) Get(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := core.ParseDatasetID(id.String()); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}

	f, err := os.Open(s.path(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	var ds dataset.Dataset
	if err := json.NewDecoder(f).Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to decode dataset %s: %w", id, err)
	}
	return &ds, nil
}

// List returns the datasets written by this store, newest first.
func (s *FileStore) List(ctx context.Context) ([]dataset.Info, error) {
	s.mu.RLock()
	infos := make([]dataset.Info, 0, len(s.index))
	for _, info := range s.index {
		infos = append(infos, info)
	}
	s.mu.RUnlock()
	sortNewestFirst(infos)
	return infos, nil
}

// Close deletes the directory and everything in it.
func (s *FileStore) Close() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove features directory: %w", err)
	}
	return nil
}

// sortNewestFirst orders by creation time, then by identifier, which is
// time ordered as well.
func sortNewestFirst(infos []dataset.Info) {
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].ID > infos[j].ID
	})
}

var _ ports.FeatureStore = (*FileStore)(nil)
