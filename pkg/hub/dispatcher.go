package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// deliverLoop drains one subscriber's queue until the queue is closed.
// Delivery is best effort: failures are logged and counted, never retried.
func (h *Hub) deliverLoop(sub *subscriber) {
	defer h.wg.Done()

	for ev := range sub.queue {
		h.deliver(sub, ev)
	}
}

func (h *Hub) deliver(sub *subscriber, ev Event) {
	body, err := json.Marshal(ev.WirePayload())
	if err != nil {
		h.failed.Add(1)
		h.log.Warn("event encode failed", "subscription", sub.ID, "event", ev.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Callback, bytes.NewReader(body))
	if err != nil {
		h.failed.Add(1)
		h.log.Warn("callback request failed", "subscription", sub.ID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		h.failed.Add(1)
		h.log.Warn("event delivery failed",
			"subscription", sub.ID, "callback", sub.Callback, "event", ev.ID, "error", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		h.failed.Add(1)
		h.log.Warn("event delivery rejected",
			"subscription", sub.ID, "callback", sub.Callback, "event", ev.ID, "status", resp.StatusCode)
		return
	}

	h.delivered.Add(1)
	h.log.Debug("event delivered",
		"subscription", sub.ID, "event", ev.ID, "type", ev.WireName(), "status", resp.StatusCode)
}
