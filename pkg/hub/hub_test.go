package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(kind, resource, recordID string, seq uint64) Event {
	return Event{
		ID:       "evt-" + recordID,
		Sequence: seq,
		Kind:     kind,
		Resource: resource,
		RecordID: recordID,
		Time:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Record:   map[string]any{"id": recordID, "name": "Fiber"},
	}
}

func TestWireName(t *testing.T) {
	tests := []struct {
		kind, resource, want string
	}{
		{KindCreated, "productOffering", "ProductOfferingCreateEvent"},
		{KindUpdated, "productOffering", "ProductOfferingAttributeValueChangeEvent"},
		{KindDeleted, "catalog", "CatalogDeleteEvent"},
		{"unknown", "catalog", "CatalogEvent"},
	}

	for _, tt := range tests {
		ev := Event{Kind: tt.kind, Resource: tt.resource}
		assert.Equal(t, tt.want, ev.WireName())
	}
}

func TestWirePayload(t *testing.T) {
	ev := testEvent(KindCreated, "catalog", "1", 1)
	payload := ev.WirePayload()

	assert.Equal(t, "evt-1", payload["eventId"])
	assert.Equal(t, "CatalogCreateEvent", payload["eventType"])
	assert.Equal(t, "2024-06-01T12:00:00Z", payload["eventTime"])

	wrapped, ok := payload["event"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, ev.Record, wrapped["catalog"])
}

func TestSubscribeAndDeliver(t *testing.T) {
	received := make(chan map[string]any, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		received <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := New()
	defer h.Close()

	sub, err := h.Subscribe(srv.URL, "")
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, srv.URL, sub.Callback)

	h.Publish(testEvent(KindCreated, "catalog", "1", 1))

	select {
	case body := <-received:
		assert.Equal(t, "CatalogCreateEvent", body["eventType"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	h.Close()
	assert.Equal(t, int64(1), h.Stats().Delivered)
}

func TestDeliveryOrderPerSubscriber(t *testing.T) {
	received := make(chan string, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- body["eventId"].(string)
	}))
	defer srv.Close()

	h := New()
	_, err := h.Subscribe(srv.URL, "")
	require.NoError(t, err)

	for i, rid := range []string{"a", "b", "c", "d"} {
		h.Publish(testEvent(KindCreated, "catalog", rid, uint64(i+1)))
	}
	h.Close()

	var got []string
	for len(got) < 4 {
		select {
		case id := <-received:
			got = append(got, id)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, []string{"evt-a", "evt-b", "evt-c", "evt-d"}, got)
}

func TestQueryFilter(t *testing.T) {
	received := make(chan string, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- body["eventType"].(string)
	}))
	defer srv.Close()

	h := New()
	_, err := h.Subscribe(srv.URL, "eventType=CatalogDeleteEvent")
	require.NoError(t, err)

	h.Publish(testEvent(KindCreated, "catalog", "1", 1))
	h.Publish(testEvent(KindDeleted, "catalog", "1", 2))
	h.Close()

	select {
	case typ := <-received:
		assert.Equal(t, "CatalogDeleteEvent", typ)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	select {
	case typ := <-received:
		t.Fatalf("unexpected extra delivery %q", typ)
	default:
	}
}

func TestQueryMatchesPlainKind(t *testing.T) {
	ev := testEvent(KindUpdated, "catalog", "1", 1)
	assert.True(t, ev.matchesQuery(""))
	assert.True(t, ev.matchesQuery("updated"))
	assert.True(t, ev.matchesQuery("eventType=updated"))
	assert.True(t, ev.matchesQuery("CatalogAttributeValueChangeEvent"))
	assert.False(t, ev.matchesQuery("created"))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := New()

	sub, err := h.Subscribe(srv.URL, "")
	require.NoError(t, err)
	require.NoError(t, h.Unsubscribe(sub.ID))

	h.Publish(testEvent(KindCreated, "catalog", "1", 1))
	h.Publish(testEvent(KindDeleted, "catalog", "1", 2))

	// Close waits for every worker, so any stray delivery would have
	// landed by now.
	h.Close()
	assert.Zero(t, hits.Load())
	assert.Zero(t, h.Stats().Delivered)
}

func TestUnsubscribe(t *testing.T) {
	h := New()
	defer h.Close()

	sub, err := h.Subscribe("http://localhost:1/listener", "")
	require.NoError(t, err)

	require.NoError(t, h.Unsubscribe(sub.ID))

	err = h.Unsubscribe(sub.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, sub.ID, nf.ID)
	assert.Equal(t, http.StatusNotFound, nf.StatusCode())
}

func TestSubscribeRejectsBadCallback(t *testing.T) {
	h := New()
	defer h.Close()

	for _, callback := range []string{"", "not-a-url", "/relative/path"} {
		_, err := h.Subscribe(callback, "")
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve, "callback %q", callback)
	}
}

func TestList(t *testing.T) {
	h := New()
	defer h.Close()

	first, err := h.Subscribe("http://localhost:1/a", "")
	require.NoError(t, err)
	second, err := h.Subscribe("http://localhost:1/b", "created")
	require.NoError(t, err)

	subs := h.List()
	require.Len(t, subs, 2)
	assert.Equal(t, first.ID, subs[0].ID)
	assert.Equal(t, second.ID, subs[1].ID)
	assert.Equal(t, "created", subs[1].Query)
}

func TestDropOnFullQueue(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
	}))
	defer srv.Close()

	h := New(WithQueueSize(1))
	_, err := h.Subscribe(srv.URL, "")
	require.NoError(t, err)

	// First event occupies the worker inside the callback.
	h.Publish(testEvent(KindCreated, "catalog", "a", 1))
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never reached the callback")
	}

	// Second fills the queue, third has nowhere to go.
	h.Publish(testEvent(KindCreated, "catalog", "b", 2))
	h.Publish(testEvent(KindCreated, "catalog", "c", 3))
	assert.Equal(t, int64(1), h.Stats().Dropped)

	close(release)
	go func() {
		for range entered {
			// drain the second delivery
		}
	}()
	h.Close()
	close(entered)
}

func TestStats(t *testing.T) {
	h := New()
	defer h.Close()

	_, err := h.Subscribe("http://localhost:1/listener", "")
	require.NoError(t, err)

	stats := h.Stats()
	assert.Equal(t, 1, stats.Subscriptions)
	assert.Zero(t, stats.Delivered)
}
