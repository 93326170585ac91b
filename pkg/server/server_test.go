package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmfmock/tmfmockd/pkg/engine"
	"github.com/tmfmock/tmfmockd/pkg/schema"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg := schema.NewRegistry()
	require.NoError(t, reg.Register(&schema.ResourceType{
		Name:     "catalog",
		BasePath: "/tmf-api/productCatalogManagement/v4/catalog",
		Fields: map[string]schema.FieldKind{
			"href":           schema.KindString,
			"name":           schema.KindString,
			"lifecycleState": schema.KindString,
		},
		Required: []string{"name"},
		SeedData: []map[string]any{
			{"id": "cat-001", "name": "Consumer Catalog", "lifecycleState": "Active"},
		},
	}))

	eng, err := engine.New(reg)
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	srv := httptest.NewServer(New(eng).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func decodeMap(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestCRUDRoundtrip(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/tmf-api/productCatalogManagement/v4/catalog"

	resp, raw := doJSON(t, http.MethodPost, base, map[string]any{"name": "Business Catalog"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeMap(t, raw)
	assert.Equal(t, "1", created["id"])
	assert.Equal(t, "/tmf-api/productCatalogManagement/v4/catalog/1", created["href"])

	resp, raw = doJSON(t, http.MethodGet, base+"/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Business Catalog", decodeMap(t, raw)["name"])

	resp, raw = doJSON(t, http.MethodPatch, base+"/1", map[string]any{"lifecycleState": "Active"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	patched := decodeMap(t, raw)
	assert.Equal(t, "Business Catalog", patched["name"])
	assert.Equal(t, "Active", patched["lifecycleState"])

	resp, raw = doJSON(t, http.MethodPut, base+"/1", map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeMap(t, raw)
	assert.Equal(t, "Renamed", updated["name"])
	_, hasState := updated["lifecycleState"]
	assert.False(t, hasState)

	resp, _ = doJSON(t, http.MethodDelete, base+"/1", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = doJSON(t, http.MethodGet, base+"/1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeMap(t, raw)
	assert.Equal(t, "404", body["code"])
	assert.NotEmpty(t, body["reason"])
}

func TestListWithFilters(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/tmf-api/productCatalogManagement/v4/catalog"

	_, _ = doJSON(t, http.MethodPost, base, map[string]any{"name": "B2B", "lifecycleState": "Launched"})

	resp, raw := doJSON(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(raw, &all))
	assert.Len(t, all, 2)

	resp, raw = doJSON(t, http.MethodGet, base+"?lifecycleState=Launched", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var filtered []map[string]any
	require.NoError(t, json.Unmarshal(raw, &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, "B2B", filtered[0]["name"])

	resp, raw = doJSON(t, http.MethodGet, base+`?where=name+%3D%3D+"B2B"`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &filtered))
	assert.Len(t, filtered, 1)

	resp, _ = doJSON(t, http.MethodGet, base+"?where=name+%3D%3D", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrorResponses(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/tmf-api/productCatalogManagement/v4/catalog"

	resp, raw := doJSON(t, http.MethodPost, base, map[string]any{"name": "X", "bogus": 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "400", decodeMap(t, raw)["code"])

	resp, _ = doJSON(t, http.MethodPost, base, map[string]any{"id": "cat-001", "name": "Dup"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, base, bytes.NewReader([]byte("{broken")))
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestHubEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, raw := doJSON(t, http.MethodPost, srv.URL+"/hub", map[string]any{
		"callback": "http://localhost:1/listener",
		"query":    "eventType=CatalogCreateEvent",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sub := decodeMap(t, raw)
	assert.NotEmpty(t, sub["id"])
	assert.Equal(t, "http://localhost:1/listener", sub["callback"])
	assert.Equal(t, "eventType=CatalogCreateEvent", sub["query"])

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/hub", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var subs []map[string]any
	require.NoError(t, json.Unmarshal(raw, &subs))
	assert.Len(t, subs, 1)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/hub/"+sub["id"].(string), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/hub/"+sub["id"].(string), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/hub", map[string]any{"callback": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotificationDelivery(t *testing.T) {
	received := make(chan map[string]any, 4)
	listener := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer listener.Close()

	srv := newTestServer(t)
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/hub", map[string]any{"callback": listener.URL})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	base := srv.URL + "/tmf-api/productCatalogManagement/v4/catalog"
	resp, _ = doJSON(t, http.MethodPost, base, map[string]any{"name": "Notify Me"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	select {
	case body := <-received:
		assert.Equal(t, "CatalogCreateEvent", body["eventType"])
		assert.NotEmpty(t, body["eventId"])
		event := body["event"].(map[string]any)
		snapshot := event["catalog"].(map[string]any)
		assert.Equal(t, "Notify Me", snapshot["name"])
	case <-time.After(3 * time.Second):
		t.Fatal("notification never arrived")
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeMap(t, raw)["status"])
}

func TestDebugSurface(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/tmf-api/productCatalogManagement/v4/catalog"

	_, _ = doJSON(t, http.MethodPost, base, map[string]any{"name": "Temp"})

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/__debug/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decodeMap(t, raw)
	resources := state["resources"].(map[string]any)
	assert.Len(t, resources["catalog"], 2)

	resp, raw = doJSON(t, http.MethodPost, srv.URL+"/__debug/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reset := decodeMap(t, raw)
	assert.Equal(t, true, reset["reset"])

	resp, raw = doJSON(t, http.MethodGet, srv.URL+"/__debug/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state = decodeMap(t, raw)
	resources = state["resources"].(map[string]any)
	assert.Len(t, resources["catalog"], 1)
}

func TestDebugStateScopedToResource(t *testing.T) {
	srv := newTestServer(t)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/__debug/state?resource=catalog", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resources := decodeMap(t, raw)["resources"].(map[string]any)
	assert.Len(t, resources, 1)
	assert.Len(t, resources["catalog"], 1)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/__debug/state?resource=nosuch", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSimulatedErrors(t *testing.T) {
	srv := newTestServer(t)

	resp, raw := doJSON(t, http.MethodGet, srv.URL+"/__debug/errors/503", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decodeMap(t, raw)
	assert.Equal(t, "503", body["code"])
	assert.Equal(t, "Service Unavailable", body["reason"])

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/__debug/errors/200", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/__debug/errors/nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDelayMiddleware(t *testing.T) {
	reg := schema.NewRegistry()
	require.NoError(t, reg.Register(&schema.ResourceType{Name: "thing"}))
	eng, err := engine.New(reg)
	require.NoError(t, err)
	defer eng.Close()

	srv := httptest.NewServer(New(eng, WithDelay(30*time.Millisecond)).Handler())
	defer srv.Close()

	start := time.Now()
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
