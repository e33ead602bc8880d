// Package rest implements the backend client over the JSON HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/deployboard/internal/backend"
	"github.com/slok/deployboard/internal/log"
	"github.com/slok/deployboard/internal/model"
)

// RequestIDHeader is the header used to correlate requests.
const RequestIDHeader = "X-Request-Id"

// ClientConfig is the configuration of the HTTP client.
type ClientConfig struct {
	// BaseURL is the backend address, the API is served under `/api`.
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		c.BaseURL = "http://127.0.0.1:8080"
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base url scheme %q", u.Scheme)
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.rest.Client"})

	return nil
}

// Client is a backend.Client over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

var _ backend.Client = &Client{}

// NewClient returns a new HTTP backend client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

// ListStages returns the stage catalog, undecodable entries are dropped.
func (c *Client) ListStages(ctx context.Context) ([]model.StageDefinition, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/stages", nil, &raw); err != nil {
		return nil, fmt.Errorf("could not list stages: %w", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.Debugf("Stage catalog is not a list, using an empty one: %s", err)
		return []model.StageDefinition{}, nil
	}

	stages := make([]model.StageDefinition, 0, len(items))
	for _, item := range items {
		var s model.StageDefinition
		if err := json.Unmarshal(item, &s); err != nil {
			c.logger.Debugf("Dropping undecodable stage: %s", err)
			continue
		}
		stages = append(stages, s)
	}

	return stages, nil
}

// GetDefaults returns the UI defaults, fields with unexpected types are ignored.
func (c *Client) GetDefaults(ctx context.Context) (*model.UIDefaults, error) {
	var raw struct {
		Stages     []any          `json:"stages"`
		RunOptions map[string]any `json:"run_options"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/defaults", nil, &raw); err != nil {
		return nil, fmt.Errorf("could not get defaults: %w", err)
	}

	defaults := &model.UIDefaults{}
	for _, s := range raw.Stages {
		if name, ok := s.(string); ok {
			defaults.Stages = append(defaults.Stages, name)
		}
	}

	optBool := func(key string) *bool {
		v, ok := raw.RunOptions[key].(bool)
		if !ok {
			return nil
		}
		return &v
	}
	defaults.RunOptions = model.RunOptions{
		DryRun:           optBool("dry_run"),
		StrictValidation: optBool("strict_validation"),
		Debug:            optBool("debug"),
	}

	return defaults, nil
}

// ListTasks returns the tasks snapshot. Undecodable tasks or tasks without ID are
// dropped.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var raw struct {
		Items json.RawMessage `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &raw); err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw.Items, &items); err != nil || items == nil {
		return nil, fmt.Errorf("could not list tasks: missing items: %w", model.ErrNotValid)
	}

	tasks := make([]model.Task, 0, len(items))
	for _, item := range items {
		var t model.Task
		if err := json.Unmarshal(item, &t); err != nil {
			c.logger.Debugf("Dropping undecodable task: %s", err)
			continue
		}
		if t.ID == "" {
			c.logger.Debugf("Dropping task without ID")
			continue
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// GetTask returns a task.
func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, fmt.Errorf("could not get task %s: %w", id, err)
	}

	return &t, nil
}

// SubmitTask creates a task.
func (c *Client) SubmitTask(ctx context.Context, req model.RunRequest) (*model.Task, error) {
	var t *model.Task
	if err := c.do(ctx, http.MethodPost, "/api/run", req, &t); err != nil {
		return nil, fmt.Errorf("could not submit task: %w", err)
	}
	if t == nil || t.ID == "" {
		return nil, fmt.Errorf("could not submit task: created task without ID: %w", model.ErrNotValid)
	}

	return t, nil
}

// AbortTask requests a task abort.
func (c *Client) AbortTask(ctx context.Context, id, reason string) (*model.Task, error) {
	var t *model.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/abort", backend.AbortRequest{Reason: reason}, &t)
	if err != nil {
		return nil, fmt.Errorf("could not abort task %s: %w", id, err)
	}

	return t, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("could not delete task %s: %w", id, err)
	}

	return nil
}

// do executes the request and decodes the response into out. Responses without
// content leave out untouched.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	reqID := ulid.Make().String()
	ctx = c.logger.SetValuesOnCtx(ctx, log.Kv{"request-id": reqID})

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := c.logger.WithCtxValues(ctx).WithValues(log.Kv{"method": method, "path": path})
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	logger.Debugf("Request finished with %d in %s", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if resp.StatusCode == http.StatusNoContent || out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}

	return nil
}

func newAPIError(code int, body []byte) *backend.APIError {
	msg := strings.TrimSpace(string(body))

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if v, ok := fields[key].(string); ok && v != "" {
				msg = v
				break
			}
		}
	}

	if msg == "" {
		msg = fmt.Sprintf("%d %s", code, http.StatusText(code))
	}

	return &backend.APIError{StatusCode: code, Message: msg}
}
