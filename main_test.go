package main

import (
	"testing"
	"time"

	"github.com/raw-labs/machine-prediction-demo/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRunReturnsContainerErrors(t *testing.T) {
	cfg := &config.Config{
		Server:  config.ServerConfig{Port: "0", GinMode: "test", ShutdownTimeout: time.Second},
		Gateway: config.GatewayConfig{Backend: "mysql"},
		Store:   config.StoreConfig{Backend: config.StoreFile, DirPrefix: "run-test"},
		Log:     config.LogConfig{Level: "error"},
	}

	assert.Error(t, run(cfg))
}
