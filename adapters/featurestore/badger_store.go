package featurestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/raw-labs/machine-prediction-demo/domain/core"
	"github.com/raw-labs/machine-prediction-demo/domain/dataset"
	"github.com/raw-labs/machine-prediction-demo/internal"
	"github.com/raw-labs/machine-prediction-demo/internal/metrics"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// Key prefixes. Listing reads only the small info records.
var (
	dataPrefix = []byte("ds/")
	infoPrefix = []byte("info/")
)

// BadgerStore keeps datasets in an in-memory badger database.
type BadgerStore struct {
	db     *badger.DB
	logger *internal.Logger
}

// NewBadgerStore opens an in-memory database.
func NewBadgerStore(logger *internal.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

func dataKey(id core.DatasetID) []byte { return append(append([]byte(nil), dataPrefix...), id.String()...) }
func infoKey(id core.DatasetID) []byte { return append(append([]byte(nil), infoPrefix...), id.String()...) }

// Put writes the dataset and its listing record in one transaction.
func (s *BadgerStore) Put(ctx context.Context, ds *dataset.Dataset) (core.DatasetID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := core.NewDatasetID()
	ds.ID = id

	data, err := json.Marshal(ds)
	if err != nil {
		return "", fmt.Errorf("failed to encode dataset: %w", err)
	}
	info, err := json.Marshal(ds.Info())
	if err != nil {
		return "", fmt.Errorf("failed to encode dataset info: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(dataKey(id), data); err != nil {
			return err
		}
		return txn.Set(infoKey(id), info)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store dataset: %w", err)
	}

	if n, err := s.count(); err == nil {
		metrics.StoredDatasets.Set(float64(n))
	}
	s.logger.Debug("stored dataset %s (%d bytes)", id, len(data))
	return id, nil
}

// Get copies the stored document out of the transaction before decoding.
func (s *BadgerStore) Get(ctx context.Context, id core.DatasetID) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dataKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", core.ErrDatasetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var ds dataset.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode dataset %s: %w", id, err)
	}
	return &ds, nil
}

// List returns listing records, newest first.
func (s *BadgerStore) List(ctx context.Context) ([]dataset.Info, error) {
	var infos []dataset.Info
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = infoPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var info dataset.Info
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &info)
			}); err != nil {
				return err
			}
			infos = append(infos, info)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	sortNewestFirst(infos)
	return infos, nil
}

func (s *BadgerStore) count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = infoPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close releases the database; its contents are gone afterwards.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's internal logging through the leveled logger.
type badgerLogger struct {
	logger *internal.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.logger.Error(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.logger.Warn(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.logger.Debug(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.logger.Trace(format, args...) }

var _ ports.FeatureStore = (*BadgerStore)(nil)
