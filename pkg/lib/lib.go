package lib

import (
	"fmt"
	"net/http"
	"time"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/backend/rest"
	"github.com/slok/deployboard/internal/log"
)

// Config configures the SDK client.
//
// All fields are optional, an empty Config{} talks to a backend on
// http://127.0.0.1:8080.
type Config struct {
	// BackendURL is the deployment backend address.
	// Default: http://127.0.0.1:8080.
	BackendURL string

	// Timeout is the timeout of each backend request.
	// Default: 10s.
	Timeout time.Duration

	// HTTPClient replaces the default HTTP client, Timeout is ignored when set.
	HTTPClient *http.Client

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "lib.Client"})

	return nil
}

// Client is the main SDK entry point.
//
// A Client is safe for concurrent use.
type Client struct {
	backend backend.Client
	logger  log.Logger
}

// New creates a new SDK client for the HTTP backend.
func New(cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	b, err := rest.NewClient(rest.ClientConfig{
		BaseURL:    cfg.BackendURL,
		Timeout:    cfg.Timeout,
		HTTPClient: cfg.HTTPClient,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create backend client: %w", err))
	}

	return &Client{
		backend: b,
		logger:  cfg.Logger,
	}, nil
}
