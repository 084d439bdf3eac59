package container

import (
	"context"
	"fmt"

	"github.com/raw-labs/machine-prediction-demo/adapters/featurestore"
	"github.com/raw-labs/machine-prediction-demo/adapters/ml"
	"github.com/raw-labs/machine-prediction-demo/adapters/postgres"
	"github.com/raw-labs/machine-prediction-demo/adapters/raw"
	"github.com/raw-labs/machine-prediction-demo/app"
	"github.com/raw-labs/machine-prediction-demo/internal"
	"github.com/raw-labs/machine-prediction-demo/internal/config"
	"github.com/raw-labs/machine-prediction-demo/internal/errors"
	"github.com/raw-labs/machine-prediction-demo/internal/features"
	"github.com/raw-labs/machine-prediction-demo/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	Gateway  ports.QueryGateway
	Catalog  ports.Catalog
	Store    ports.FeatureStore
	Registry *ml.Registry

	// Services
	Machines   *app.MachineService
	Prediction *app.PredictionService

	closers []func() error
}

// New creates a new dependency injection container and initializes every
// component the configuration selects.
func New(ctx context.Context, cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if err := c.initGateway(ctx); err != nil {
		c.Shutdown(ctx)
		return nil, errors.Wrap(err, "failed to initialize query gateway")
	}
	if err := c.initStore(); err != nil {
		c.Shutdown(ctx)
		return nil, errors.Wrap(err, "failed to initialize feature store")
	}
	c.initServices()

	logger.Info("container initialized: gateway=%s store=%s", cfg.Gateway.Backend, cfg.Store.Backend)
	return c, nil
}

// NewWithComponents assembles the services around externally built
// infrastructure.
func NewWithComponents(cfg *config.Config, gateway ports.QueryGateway, catalog ports.Catalog, store ports.FeatureStore, logger *internal.Logger) *Container {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Gateway: gateway,
		Catalog: catalog,
		Store:   store,
	}
	c.initServices()
	return c
}

// initGateway connects to the analytics engine the config selects
func (c *Container) initGateway(ctx context.Context) error {
	gatewayLogger := c.Logger.With(internal.Component("gateway"))

	switch c.Config.Gateway.Backend {
	case config.GatewayRaw:
		executorConfig := raw.DefaultExecutorConfig()
		executorConfig.BaseURL = c.Config.Gateway.ExecutorURL
		executorConfig.Token = c.Config.Gateway.Token
		executorConfig.Timeout = c.Config.Gateway.Timeout

		executor, err := raw.NewExecutor(executorConfig, gatewayLogger)
		if err != nil {
			return err
		}
		c.Gateway = executor
		c.Catalog = raw.Catalog{}

	case config.GatewayPostgres:
		gateway, err := postgres.Connect(ctx, c.Config.Gateway.DatabaseURL, gatewayLogger)
		if err != nil {
			return err
		}
		c.Gateway = gateway
		c.Catalog = postgres.Catalog{}
		c.closers = append(c.closers, gateway.Close)

	default:
		return errors.ConfigInvalid("unknown gateway backend " + c.Config.Gateway.Backend)
	}
	return nil
}

// initStore creates the feature store scratch space
func (c *Container) initStore() error {
	storeLogger := c.Logger.With(internal.Component("featurestore"))

	switch c.Config.Store.Backend {
	case config.StoreFile:
		store, err := featurestore.NewFileStore(c.Config.Store.DirPrefix, storeLogger)
		if err != nil {
			return err
		}
		c.Store = store
	case config.StoreBadger:
		store, err := featurestore.NewBadgerStore(storeLogger)
		if err != nil {
			return err
		}
		c.Store = store
	default:
		return errors.ConfigInvalid("unknown feature store backend " + c.Config.Store.Backend)
	}
	c.closers = append(c.closers, c.Store.Close)
	return nil
}

func (c *Container) initServices() {
	if c.Registry == nil {
		c.Registry = ml.NewRegistry()
	}
	extractor := features.NewExtractor(c.Gateway, c.Catalog, c.Store, c.Logger.With(internal.Component("features")))
	c.Machines = app.NewMachineService(c.Gateway, c.Catalog, c.Logger.With(internal.Component("machines")))
	c.Prediction = app.NewPredictionService(extractor, c.Store, c.Registry, c.Logger.With(internal.Component("prediction")))
}

// Shutdown releases the store and database connection. The feature
// store's contents do not survive it.
func (c *Container) Shutdown(ctx context.Context) error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("shutdown: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	c.closers = nil
	return first
}
