package raw

import (
	"fmt"
	"strings"
	"time"
)

// ExecutorConfig holds configuration for the executor client
type ExecutorConfig struct {
	// Connection settings
	BaseURL string        `json:"base_url"` // e.g. https://eu-just-ask.raw-labs.com/executor
	Token   string        `json:"-"`        // pre-issued bearer token
	Timeout time.Duration `json:"timeout"`  // zero means no client-side timeout

	// Headers sent with every request
	Headers map[string]string `json:"headers,omitempty"`
}

// DefaultExecutorConfig returns the public executor endpoint.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		BaseURL: "https://eu-just-ask.raw-labs.com/executor",
	}
}

// Validate checks if the configuration is valid
func (c ExecutorConfig) Validate() error {
	if c.BaseURL == "" {
		return &ValidationError{Field: "BaseURL", Message: "is required"}
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return &ValidationError{Field: "BaseURL", Message: "must be an http(s) URL"}
	}
	if c.Timeout < 0 {
		return &ValidationError{Field: "Timeout", Message: "must not be negative"}
	}
	return nil
}

// ValidationError reports an invalid configuration field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("executor config: %s %s", e.Field, e.Message)
}
