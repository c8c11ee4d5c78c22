// Package backend wraps the generation backend's HTTP API. The pipeline itself
// (LLM calls, image generation, PDF rendering) lives entirely behind this API;
// the panel only submits requests and reads status.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cvpanel/internal/config"
	"cvpanel/internal/models"
)

const defaultTimeout = 10 * time.Second

// HTTPDoer describes the HTTP client used to reach the backend.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL string
	client  HTTPDoer
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

func NewClient(cfg config.Backend, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// StartGeneration submits a batch generation request and returns the backend's
// accepted batch identifier.
func (c *Client) StartGeneration(ctx context.Context, req models.GenerationRequest) (*models.GenerationResponse, error) {
	var res models.GenerationResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate", req, &res); err != nil {
		return nil, fmt.Errorf("start generation: %w", err)
	}

	return &res, nil
}

// BatchStatus fetches the current status of one batch.
func (c *Client) BatchStatus(ctx context.Context, batchID string) (*models.BatchStatus, error) {
	var res models.BatchStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/status/"+batchID, nil, &res); err != nil {
		return nil, fmt.Errorf("batch %s status: %w", batchID, err)
	}

	return &res, nil
}

// Models lists the LLM and image models the backend can generate with.
func (c *Client) Models(ctx context.Context) (*models.ModelsResponse, error) {
	var res models.ModelsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/models", nil, &res); err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	return &res, nil
}

// Files lists generated HTML/PDF output files.
func (c *Client) Files(ctx context.Context) (*models.FilesResponse, error) {
	var res models.FilesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/files", nil, &res); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	return &res, nil
}

// DeleteFile removes one generated file.
func (c *Client) DeleteFile(ctx context.Context, filename string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/api/files/"+filename, nil, nil); err != nil {
		return fmt.Errorf("delete file %s: %w", filename, err)
	}

	return nil
}

// Health reports whether the backend is reachable and configured.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var res models.HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &res); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return &res, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// statusError extracts the backend's detail message when present so submission
// failures surface something better than a bare status code.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Detail != "" {
			return fmt.Errorf("backend returned %d: %s", resp.StatusCode, payload.Detail)
		}
		if payload.Error != "" {
			return fmt.Errorf("backend returned %d: %s", resp.StatusCode, payload.Error)
		}
	}

	return fmt.Errorf("backend returned %d", resp.StatusCode)
}
