package main

import (
	"context"
	stderrors "errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/raw-labs/machine-prediction-demo/internal"
	"github.com/raw-labs/machine-prediction-demo/internal/config"
	"github.com/raw-labs/machine-prediction-demo/internal/container"
	"github.com/raw-labs/machine-prediction-demo/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := run(appConfig); err != nil {
		log.Fatalf("%v", err)
	}
}

// run serves until a signal arrives or a listener fails. Deferred cleanup
// always runs before main decides the exit status.
func run(appConfig *config.Config) error {
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Log.Level))
	defer logger.Sync()
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(ctx, appConfig, logger)
	if err != nil {
		logger.Error("Failed to create application container: %v", err)
		return err
	}

	server := ui.NewServer(appContainer.Machines, appContainer.Prediction, logger.With(internal.Component("http")))
	httpServer := &http.Server{
		Addr:    ":" + appConfig.Server.Port,
		Handler: server.Handler(),
	}

	// Health, metrics and pprof live on a separate port
	var adminServer *http.Server
	if appConfig.Profiling.Enabled {
		adminServer = &http.Server{
			Addr:    ":" + appConfig.Profiling.Port,
			Handler: ui.NewAdminRouter(),
		}
		go func() {
			logger.Info("admin server listening on :%s (/healthz, /metrics, /debug/pprof)", appConfig.Profiling.Port)
			if err := adminServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				logger.Error("admin server failed: %v", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("dashboard API listening on :%s (gateway=%s, store=%s)",
			appConfig.Server.Port, appConfig.Gateway.Backend, appConfig.Store.Backend)
		serveErr <- httpServer.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed: %v", err)
			runErr = err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown: %v", err)
	}
	if adminServer != nil {
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin shutdown: %v", err)
		}
	}
	if err := appContainer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("container shutdown: %v", err)
	}
	return runErr
}
