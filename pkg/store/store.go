// Package store keeps the in-memory record collections of a mock engine:
// one keyed, insertion-ordered collection per registered resource type, with
// seed data, deterministic reset, and change events on every mutation.
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tmfmock/tmfmockd/pkg/hub"
	"github.com/tmfmock/tmfmockd/pkg/logging"
	"github.com/tmfmock/tmfmockd/pkg/schema"
)

// EventSink receives one event per successful mutation. Satisfied by
// *hub.Hub.
type EventSink interface {
	Publish(ev hub.Event)
}

// Store is the container managing all resource collections. The resource
// set is fixed at construction; per-record operations go through Resource.
type Store struct {
	mu        sync.RWMutex
	resources map[string]*Resource
	order     []string
	observer  Observer
	log       *slog.Logger
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	sink     EventSink
	observer Observer
	log      *slog.Logger
}

// WithEventSink routes mutation events to the given sink.
func WithEventSink(sink EventSink) Option {
	return func(c *storeConfig) { c.sink = sink }
}

// WithObserver installs an operation observer.
func WithObserver(observer Observer) Option {
	return func(c *storeConfig) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *storeConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// New builds a store with one collection per type in the registry, loading
// and validating each type's seed data.
func New(registry *schema.Registry, opts ...Option) (*Store, error) {
	cfg := &storeConfig{
		observer: &NoopObserver{},
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Store{
		resources: make(map[string]*Resource, registry.Len()),
		observer:  cfg.observer,
		log:       cfg.log,
	}

	for _, name := range registry.Names() {
		typ, err := registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		res, err := newResource(typ, cfg.sink, cfg.observer)
		if err != nil {
			return nil, err
		}
		s.resources[name] = res
		s.order = append(s.order, name)
		s.log.Debug("resource loaded", "resource", name, "seeds", res.Count())
	}

	return s, nil
}

// Resource returns the collection for a resource type.
func (s *Store) Resource(name string) (*Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.resources[name]
	if !ok {
		return nil, &NotFoundError{Resource: name}
	}
	return res, nil
}

// Names returns resource type names in registration order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Counts returns the record count per resource type.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int, len(s.order))
	for _, name := range s.order {
		out[name] = s.resources[name].Count()
	}
	return out
}

// Dump returns the full state: every record of every resource type, in
// insertion order.
func (s *Store) Dump() map[string][]map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]map[string]any, len(s.order))
	for _, name := range s.order {
		records, _ := s.resources[name].List(nil)
		out[name] = records
	}
	return out
}

// Reset restores every collection to its seed snapshot and rewinds the ID
// counters. Returns the names of the resources reset. The store-level lock
// keeps concurrent operations from observing a half-reset state.
func (s *Store) Reset() []string {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.order))
	for _, name := range s.order {
		s.resources[name].Reset()
		names = append(names, name)
	}

	s.observer.OnReset(names, time.Since(start))
	s.log.Info("state reset to seed data", "resources", len(names))
	return names
}
