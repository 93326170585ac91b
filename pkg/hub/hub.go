// Package hub implements the event hub: listener subscriptions with
// best-effort asynchronous HTTP delivery of change notifications.
package hub

import (
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tmfmock/tmfmockd/internal/id"
	"github.com/tmfmock/tmfmockd/pkg/logging"
)

const (
	// DefaultQueueSize bounds the per-subscriber delivery queue.
	DefaultQueueSize = 64

	// DefaultDeliveryTimeout bounds a single callback POST.
	DefaultDeliveryTimeout = 5 * time.Second
)

// Subscription is a registered listener.
type Subscription struct {
	ID       string `json:"id"`
	Callback string `json:"callback"`
	Query    string `json:"query,omitempty"`
}

// subscriber pairs a Subscription with its delivery queue. Each subscriber
// has exactly one worker goroutine draining the queue in FIFO order.
type subscriber struct {
	Subscription
	queue chan Event
}

// Hub manages subscriptions and dispatches events to their callbacks.
// Publish never blocks: events for a subscriber whose queue is full are
// dropped and counted.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*subscriber
	order  []string
	closed bool

	client    *http.Client
	queueSize int
	timeout   time.Duration
	log       *slog.Logger
	wg        sync.WaitGroup

	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// Option configures a Hub.
type Option func(*Hub)

// WithQueueSize sets the per-subscriber queue depth.
func WithQueueSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueSize = n
		}
	}
}

// WithDeliveryTimeout sets the per-POST timeout.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithHTTPClient sets the client used for callback delivery.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Hub) {
		if c != nil {
			h.client = c
		}
	}
}

// WithLogger sets the hub logger.
func WithLogger(log *slog.Logger) Option {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// New creates an event hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		subs:      make(map[string]*subscriber),
		client:    &http.Client{},
		queueSize: DefaultQueueSize,
		timeout:   DefaultDeliveryTimeout,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a listener callback and starts its delivery worker.
// The callback must be a non-empty absolute URL.
func (h *Hub) Subscribe(callback, query string) (Subscription, error) {
	if callback == "" {
		return Subscription{}, &ValidationError{Message: "callback is required"}
	}
	if u, err := url.Parse(callback); err != nil || u.Scheme == "" || u.Host == "" {
		return Subscription{}, &ValidationError{Message: "callback must be an absolute URL"}
	}

	sub := &subscriber{
		Subscription: Subscription{
			ID:       id.UUID(),
			Callback: callback,
			Query:    query,
		},
		queue: make(chan Event, h.queueSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return Subscription{}, &ValidationError{Message: "hub is closed"}
	}

	h.subs[sub.ID] = sub
	h.order = append(h.order, sub.ID)

	h.wg.Add(1)
	go h.deliverLoop(sub)

	h.log.Debug("subscription registered", "id", sub.ID, "callback", callback, "query", query)
	return sub.Subscription, nil
}

// Unsubscribe removes a subscription. Events already queued for it are still
// delivered before its worker exits.
func (h *Hub) Unsubscribe(subID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[subID]
	if !ok {
		return &NotFoundError{ID: subID}
	}

	delete(h.subs, subID)
	for i, sid := range h.order {
		if sid == subID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	close(sub.queue)

	h.log.Debug("subscription removed", "id", subID)
	return nil
}

// Get returns a subscription by ID.
func (h *Hub) Get(subID string) (Subscription, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sub, ok := h.subs[subID]
	if !ok {
		return Subscription{}, &NotFoundError{ID: subID}
	}
	return sub.Subscription, nil
}

// List returns all subscriptions in registration order.
func (h *Hub) List() []Subscription {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Subscription, 0, len(h.order))
	for _, sid := range h.order {
		if sub, ok := h.subs[sid]; ok {
			out = append(out, sub.Subscription)
		}
	}
	return out
}

// Publish enqueues the event for every matching subscriber. It never blocks:
// a full queue drops the event for that subscriber and bumps the drop
// counter. Enqueue order equals call order, so callers that serialize their
// mutations get FIFO delivery per subscriber.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for _, sid := range h.order {
		sub, ok := h.subs[sid]
		if !ok || !ev.matchesQuery(sub.Query) {
			continue
		}
		select {
		case sub.queue <- ev:
		default:
			h.dropped.Add(1)
			h.log.Warn("event dropped, subscriber queue full",
				"subscription", sub.ID, "event", ev.ID, "type", ev.WireName())
		}
	}
}

// Stats is a point-in-time snapshot of delivery counters.
type Stats struct {
	Subscriptions int   `json:"subscriptions"`
	Delivered     int64 `json:"delivered"`
	Failed        int64 `json:"failed"`
	Dropped       int64 `json:"dropped"`
}

// Stats returns current delivery counters.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	n := len(h.subs)
	h.mu.RUnlock()

	return Stats{
		Subscriptions: n,
		Delivered:     h.delivered.Load(),
		Failed:        h.failed.Load(),
		Dropped:       h.dropped.Load(),
	}
}

// Close removes all subscriptions and waits for in-flight deliveries.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	ids := make([]string, len(h.order))
	copy(ids, h.order)
	sort.Strings(ids)
	for _, sid := range ids {
		close(h.subs[sid].queue)
	}
	h.subs = make(map[string]*subscriber)
	h.order = nil
	h.mu.Unlock()

	h.wg.Wait()
}
