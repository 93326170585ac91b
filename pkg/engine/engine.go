// Package engine composes a resource schema registry, the record store and
// the event hub into one mock API engine instance. Engines are independent:
// nothing here is global, and several can run side by side in one process.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tmfmock/tmfmockd/pkg/hub"
	"github.com/tmfmock/tmfmockd/pkg/logging"
	"github.com/tmfmock/tmfmockd/pkg/schema"
	"github.com/tmfmock/tmfmockd/pkg/store"
)

// Health reports engine liveness. Upstream is set by remote clients to the
// address they checked.
type Health struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream,omitempty"`
}

// ResourceInfo describes one registered resource type.
type ResourceInfo struct {
	Name     string `json:"name"`
	BasePath string `json:"basePath"`
	Records  int    `json:"records"`
}

// Engine is the composition root: registry + store + hub.
type Engine struct {
	registry *schema.Registry
	store    *store.Store
	hub      *hub.Hub
	metrics  *store.MetricsObserver
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	log     *slog.Logger
	hubOpts []hub.Option
}

// WithLogger sets the engine logger, shared with the store and hub.
func WithLogger(log *slog.Logger) Option {
	return func(c *engineConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHubOptions forwards options to the event hub.
func WithHubOptions(opts ...hub.Option) Option {
	return func(c *engineConfig) {
		c.hubOpts = append(c.hubOpts, opts...)
	}
}

// New builds an engine over the given registry, loading seed data.
func New(registry *schema.Registry, opts ...Option) (*Engine, error) {
	cfg := &engineConfig{log: logging.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}

	hubOpts := append([]hub.Option{hub.WithLogger(cfg.log)}, cfg.hubOpts...)
	h := hub.New(hubOpts...)

	metrics := store.NewMetricsObserver()
	st, err := store.New(registry,
		store.WithEventSink(h),
		store.WithObserver(store.Observers(metrics, &store.LogObserver{Log: cfg.log})),
		store.WithLogger(cfg.log),
	)
	if err != nil {
		h.Close()
		return nil, err
	}

	return &Engine{
		registry: registry,
		store:    st,
		hub:      h,
		metrics:  metrics,
		log:      cfg.log,
	}, nil
}

// Close shuts down event delivery.
func (e *Engine) Close() {
	e.hub.Close()
}

// Registry exposes the resource type catalog.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// Metrics returns a snapshot of operation counters.
func (e *Engine) Metrics() store.MetricsSnapshot {
	return e.metrics.Snapshot()
}

// HubStats returns event delivery counters.
func (e *Engine) HubStats() hub.Stats {
	return e.hub.Stats()
}

// ListResources returns all resource types in registration order.
func (e *Engine) ListResources(ctx context.Context) ([]ResourceInfo, error) {
	out := make([]ResourceInfo, 0, e.registry.Len())
	for _, name := range e.store.Names() {
		res, err := e.store.Resource(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ResourceInfo{
			Name:     res.Name(),
			BasePath: res.Type().BasePath,
			Records:  res.Count(),
		})
	}
	return out, nil
}

// ListRecords lists records of one resource type. filter entries must all
// match exactly; where is an optional boolean expression.
func (e *Engine) ListRecords(ctx context.Context, resource string, filter map[string]string, where string) ([]map[string]any, error) {
	res, err := e.store.Resource(resource)
	if err != nil {
		return nil, err
	}
	return res.List(&store.Filter{Equals: filter, Where: where})
}

// GetRecord returns one record by ID.
func (e *Engine) GetRecord(ctx context.Context, resource, recordID string) (map[string]any, error) {
	res, err := e.store.Resource(resource)
	if err != nil {
		return nil, err
	}
	return res.Get(recordID)
}

// CreateRecord stores a new record and returns it with its assigned ID.
func (e *Engine) CreateRecord(ctx context.Context, resource string, record map[string]any) (map[string]any, error) {
	res, err := e.store.Resource(resource)
	if err != nil {
		return nil, err
	}
	return res.Create(record)
}

// UpdateRecord replaces a record wholesale.
func (e *Engine) UpdateRecord(ctx context.Context, resource, recordID string, record map[string]any) (map[string]any, error) {
	res, err := e.store.Resource(resource)
	if err != nil {
		return nil, err
	}
	return res.Update(recordID, record)
}

// PatchRecord shallow-merges fields into a record.
func (e *Engine) PatchRecord(ctx context.Context, resource, recordID string, fields map[string]any) (map[string]any, error) {
	res, err := e.store.Resource(resource)
	if err != nil {
		return nil, err
	}
	return res.Patch(recordID, fields)
}

// DeleteRecord removes a record.
func (e *Engine) DeleteRecord(ctx context.Context, resource, recordID string) error {
	res, err := e.store.Resource(resource)
	if err != nil {
		return err
	}
	return res.Delete(recordID)
}

// CreateSubscription registers an event listener callback.
func (e *Engine) CreateSubscription(ctx context.Context, callback, query string) (hub.Subscription, error) {
	return e.hub.Subscribe(callback, query)
}

// DeleteSubscription removes an event listener.
func (e *Engine) DeleteSubscription(ctx context.Context, subID string) error {
	return e.hub.Unsubscribe(subID)
}

// ListSubscriptions returns registered listeners in registration order.
func (e *Engine) ListSubscriptions(ctx context.Context) ([]hub.Subscription, error) {
	return e.hub.List(), nil
}

// Health reports engine liveness.
func (e *Engine) Health(ctx context.Context) (Health, error) {
	return Health{Status: "ok"}, nil
}

// Dump returns store state for debugging: every record of every resource
// type, or just one type when resource is non-empty.
func (e *Engine) Dump(ctx context.Context, resource string) (map[string][]map[string]any, error) {
	if resource == "" {
		return e.store.Dump(), nil
	}

	res, err := e.store.Resource(resource)
	if err != nil {
		return nil, err
	}
	records, err := res.List(nil)
	if err != nil {
		return nil, err
	}
	return map[string][]map[string]any{resource: records}, nil
}

// Reset restores every resource to its seed snapshot and rewinds ID
// counters. Subscriptions and event sequence numbers are kept.
func (e *Engine) Reset(ctx context.Context) ([]string, error) {
	return e.store.Reset(), nil
}

// SimulateError builds a synthetic TMF-style error body for the given HTTP
// status code. State is not touched.
func (e *Engine) SimulateError(ctx context.Context, code int) (int, map[string]any, error) {
	if code < 400 || code > 599 {
		return 0, nil, fmt.Errorf("status code %d out of error range", code)
	}

	reason := http.StatusText(code)
	if reason == "" {
		reason = "Simulated Error"
	}
	return code, map[string]any{
		"code":   fmt.Sprintf("%d", code),
		"reason": reason,
	}, nil
}
