// Package client is an HTTP client for a remote mock engine. It mirrors the
// engine's operation surface, so callers (notably the protocol adapter) can
// target an in-process engine and a remote one interchangeably.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tmfmock/tmfmockd/pkg/engine"
	"github.com/tmfmock/tmfmockd/pkg/hub"
)

// ErrUpstreamUnavailable wraps network-level failures reaching the engine.
var ErrUpstreamUnavailable = errors.New("upstream engine unreachable")

// RemoteError is an error response returned by the engine.
type RemoteError struct {
	Status int
	Code   string
	Reason string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("engine returned %d: %s", e.Status, e.Reason)
}

// StatusCode returns the HTTP status the engine answered with.
func (e *RemoteError) StatusCode() int {
	return e.Status
}

// Client talks to a remote mock engine.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	paths map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the engine at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the engine address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListResources returns the engine's resource catalog.
func (c *Client) ListResources(ctx context.Context) ([]engine.ResourceInfo, error) {
	resp, err := c.get(ctx, "/resources")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var infos []engine.ResourceInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return nil, fmt.Errorf("failed to decode resources: %w", err)
	}

	c.mu.Lock()
	c.paths = make(map[string]string, len(infos))
	for _, info := range infos {
		c.paths[info.Name] = info.BasePath
	}
	c.mu.Unlock()

	return infos, nil
}

// ListRecords lists records of one resource type, with optional exact-match
// filters and a where expression.
func (c *Client) ListRecords(ctx context.Context, resource string, filter map[string]string, where string) ([]map[string]any, error) {
	base, err := c.basePath(ctx, resource)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	for field, value := range filter {
		query.Set(field, value)
	}
	if where != "" {
		query.Set("where", where)
	}
	path := base
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var records []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// GetRecord returns one record by ID.
func (c *Client) GetRecord(ctx context.Context, resource, recordID string) (map[string]any, error) {
	base, err := c.basePath(ctx, resource)
	if err != nil {
		return nil, err
	}

	resp, err := c.get(ctx, base+"/"+url.PathEscape(recordID))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}
	return decodeRecord(resp)
}

// CreateRecord stores a new record.
func (c *Client) CreateRecord(ctx context.Context, resource string, record map[string]any) (map[string]any, error) {
	base, err := c.basePath(ctx, resource)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodPost, base, record)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}
	return decodeRecord(resp)
}

// UpdateRecord replaces a record wholesale.
func (c *Client) UpdateRecord(ctx context.Context, resource, recordID string, record map[string]any) (map[string]any, error) {
	base, err := c.basePath(ctx, resource)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodPut, base+"/"+url.PathEscape(recordID), record)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}
	return decodeRecord(resp)
}

// PatchRecord shallow-merges fields into a record.
func (c *Client) PatchRecord(ctx context.Context, resource, recordID string, fields map[string]any) (map[string]any, error) {
	base, err := c.basePath(ctx, resource)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodPatch, base+"/"+url.PathEscape(recordID), fields)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}
	return decodeRecord(resp)
}

// DeleteRecord removes a record.
func (c *Client) DeleteRecord(ctx context.Context, resource, recordID string) error {
	base, err := c.basePath(ctx, resource)
	if err != nil {
		return err
	}

	resp, err := c.delete(ctx, base+"/"+url.PathEscape(recordID))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// CreateSubscription registers an event listener on the engine's hub.
func (c *Client) CreateSubscription(ctx context.Context, callback, query string) (hub.Subscription, error) {
	body := map[string]string{"callback": callback}
	if query != "" {
		body["query"] = query
	}

	resp, err := c.send(ctx, http.MethodPost, "/hub", body)
	if err != nil {
		return hub.Subscription{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return hub.Subscription{}, c.parseError(resp)
	}

	var sub hub.Subscription
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return hub.Subscription{}, fmt.Errorf("failed to decode subscription: %w", err)
	}
	return sub, nil
}

// DeleteSubscription removes an event listener.
func (c *Client) DeleteSubscription(ctx context.Context, subID string) error {
	resp, err := c.delete(ctx, "/hub/"+url.PathEscape(subID))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return c.parseError(resp)
	}
	return nil
}

// ListSubscriptions returns registered listeners.
func (c *Client) ListSubscriptions(ctx context.Context) ([]hub.Subscription, error) {
	resp, err := c.get(ctx, "/hub")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var subs []hub.Subscription
	if err := json.NewDecoder(resp.Body).Decode(&subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}

// Health checks engine liveness, reporting the upstream address checked.
func (c *Client) Health(ctx context.Context) (engine.Health, error) {
	resp, err := c.get(ctx, "/health")
	if err != nil {
		return engine.Health{Status: "unreachable", Upstream: c.baseURL}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return engine.Health{Status: "unhealthy", Upstream: c.baseURL}, c.parseError(resp)
	}

	var health engine.Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return engine.Health{}, fmt.Errorf("failed to decode health: %w", err)
	}
	health.Upstream = c.baseURL
	return health, nil
}

// Reset restores the engine to its seed state.
func (c *Client) Reset(ctx context.Context) ([]string, error) {
	resp, err := c.send(ctx, http.MethodPost, "/__debug/reset", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result struct {
		Reset     bool     `json:"reset"`
		Resources []string `json:"resources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode reset response: %w", err)
	}
	return result.Resources, nil
}

// basePath resolves a resource name to its CRUD path, fetching the catalog
// on first use.
func (c *Client) basePath(ctx context.Context, resource string) (string, error) {
	c.mu.Lock()
	cached := c.paths
	c.mu.Unlock()

	if cached == nil {
		if _, err := c.ListResources(ctx); err != nil {
			return "", err
		}
		c.mu.Lock()
		cached = c.paths
		c.mu.Unlock()
	}

	base, ok := cached[resource]
	if !ok {
		return "", &RemoteError{
			Status: http.StatusNotFound,
			Code:   "404",
			Reason: fmt.Sprintf("resource %q not found", resource),
		}
	}
	return base, nil
}

// HTTP helpers

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) delete(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var errResp struct {
		Code   string `json:"code"`
		Reason string `json:"reason"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Reason != "" {
		return &RemoteError{Status: resp.StatusCode, Code: errResp.Code, Reason: errResp.Reason}
	}
	return &RemoteError{
		Status: resp.StatusCode,
		Code:   fmt.Sprintf("%d", resp.StatusCode),
		Reason: fmt.Sprintf("request failed: status %d", resp.StatusCode),
	}
}

func decodeRecord(resp *http.Response) (map[string]any, error) {
	var record map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return record, nil
}
