package container

import (
	"context"
	"testing"
	"time"

	"github.com/raw-labs/machine-prediction-demo/adapters/featurestore"
	"github.com/raw-labs/machine-prediction-demo/adapters/raw"
	"github.com/raw-labs/machine-prediction-demo/internal/config"
	apperrors "github.com/raw-labs/machine-prediction-demo/internal/errors"
	"github.com/raw-labs/machine-prediction-demo/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawConfig(store string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "5000", ShutdownTimeout: time.Second},
		Gateway: config.GatewayConfig{
			Backend:     config.GatewayRaw,
			ExecutorURL: "http://localhost:54321/executor",
		},
		Store: config.StoreConfig{Backend: store, DirPrefix: "container-test"},
	}
}

func TestNewWiresRawGatewayAndStores(t *testing.T) {
	for _, backend := range []string{config.StoreFile, config.StoreBadger} {
		t.Run(backend, func(t *testing.T) {
			c, err := New(context.Background(), rawConfig(backend), nil)
			require.NoError(t, err)
			defer c.Shutdown(context.Background())

			assert.IsType(t, &raw.Executor{}, c.Gateway)
			assert.Equal(t, raw.Catalog{}, c.Catalog)
			assert.NotNil(t, c.Machines)
			assert.NotNil(t, c.Prediction)
			assert.Len(t, c.Prediction.Classifiers(), 7)

			switch backend {
			case config.StoreFile:
				assert.IsType(t, &featurestore.FileStore{}, c.Store)
			case config.StoreBadger:
				assert.IsType(t, &featurestore.BadgerStore{}, c.Store)
			}
		})
	}
}

func TestNewRejectsUnknownBackends(t *testing.T) {
	cfg := rawConfig("s3")
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))

	cfg = rawConfig(config.StoreFile)
	cfg.Gateway.Backend = "mysql"
	_, err = New(context.Background(), cfg, nil)
	require.Error(t, err)

	_, err = New(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestShutdownRemovesFileStore(t *testing.T) {
	c, err := New(context.Background(), rawConfig(config.StoreFile), nil)
	require.NoError(t, err)
	dir := c.Store.(*featurestore.FileStore).Dir()
	assert.DirExists(t, dir)

	require.NoError(t, c.Shutdown(context.Background()))
	assert.NoDirExists(t, dir)
	assert.NoError(t, c.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestNewWithComponents(t *testing.T) {
	store, err := featurestore.NewBadgerStore(nil)
	require.NoError(t, err)
	defer store.Close()

	c := NewWithComponents(rawConfig(config.StoreBadger), testkit.NewInMemoryGateway(), testkit.Catalog{}, store, nil)
	assert.NotNil(t, c.Registry)
	assert.NotNil(t, c.Prediction)
}
