package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmfmock/tmfmockd/pkg/schema"
	"github.com/tmfmock/tmfmockd/pkg/store"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	reg := schema.NewRegistry()
	require.NoError(t, reg.Register(&schema.ResourceType{
		Name:     "catalog",
		BasePath: "/tmf-api/productCatalogManagement/v4/catalog",
		Fields: map[string]schema.FieldKind{
			"href": schema.KindString,
			"name": schema.KindString,
		},
		Required: []string{"name"},
		SeedData: []map[string]any{
			{"id": "cat-001", "name": "Consumer Catalog"},
		},
	}))
	require.NoError(t, reg.Register(&schema.ResourceType{
		Name:   "productOffering",
		Fields: map[string]schema.FieldKind{"name": schema.KindString},
	}))
	return reg
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	e, err := New(testRegistry(t))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestListResources(t *testing.T) {
	e := newTestEngine(t)

	infos, err := e.ListResources(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "catalog", infos[0].Name)
	assert.Equal(t, "/tmf-api/productCatalogManagement/v4/catalog", infos[0].BasePath)
	assert.Equal(t, 1, infos[0].Records)
	assert.Equal(t, "productOffering", infos[1].Name)
	assert.Zero(t, infos[1].Records)
}

func TestRecordLifecycle(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	created, err := e.CreateRecord(ctx, "productOffering", map[string]any{"name": "Fiber"})
	require.NoError(t, err)
	recID := created["id"].(string)
	assert.Equal(t, "1", recID)

	got, err := e.GetRecord(ctx, "productOffering", recID)
	require.NoError(t, err)
	assert.Equal(t, "Fiber", got["name"])

	patched, err := e.PatchRecord(ctx, "productOffering", recID, map[string]any{"name": "Fiber Plus"})
	require.NoError(t, err)
	assert.Equal(t, "Fiber Plus", patched["name"])

	listed, err := e.ListRecords(ctx, "productOffering", map[string]string{"name": "Fiber Plus"}, "")
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, e.DeleteRecord(ctx, "productOffering", recID))
	_, err = e.GetRecord(ctx, "productOffering", recID)
	var nf *store.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUnknownResourceType(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ListRecords(ctx, "nope", nil, "")
	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = e.CreateRecord(ctx, "nope", map[string]any{"name": "X"})
	assert.ErrorAs(t, err, &nf)
}

func TestSubscriptions(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	sub, err := e.CreateSubscription(ctx, "http://localhost:1/listener", "")
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)

	subs, err := e.ListSubscriptions(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	require.NoError(t, e.DeleteSubscription(ctx, sub.ID))
	require.Error(t, e.DeleteSubscription(ctx, sub.ID))
}

func TestHealth(t *testing.T) {
	e := newTestEngine(t)

	h, err := e.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
}

func TestDumpAndReset(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateRecord(ctx, "productOffering", map[string]any{"name": "Fiber"})
	require.NoError(t, err)

	dump, err := e.Dump(ctx, "")
	require.NoError(t, err)
	assert.Len(t, dump["catalog"], 1)
	assert.Len(t, dump["productOffering"], 1)

	names, err := e.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"catalog", "productOffering"}, names)

	dump, err = e.Dump(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, dump["productOffering"])
	assert.Len(t, dump["catalog"], 1)
}

func TestDumpScopedToResource(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateRecord(ctx, "productOffering", map[string]any{"name": "Fiber"})
	require.NoError(t, err)

	dump, err := e.Dump(ctx, "productOffering")
	require.NoError(t, err)
	assert.Len(t, dump, 1)
	assert.Len(t, dump["productOffering"], 1)
	assert.NotContains(t, dump, "catalog")

	_, err = e.Dump(ctx, "nosuch")
	var nf *store.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nosuch", nf.Resource)
}

func TestSimulateError(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	code, body, err := e.SimulateError(ctx, 503)
	require.NoError(t, err)
	assert.Equal(t, 503, code)
	assert.Equal(t, "503", body["code"])
	assert.Equal(t, "Service Unavailable", body["reason"])

	_, _, err = e.SimulateError(ctx, 200)
	assert.Error(t, err)

	// State untouched.
	dump, err := e.Dump(ctx, "")
	require.NoError(t, err)
	assert.Len(t, dump["catalog"], 1)
}

func TestMetricsSnapshot(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateRecord(ctx, "productOffering", map[string]any{"name": "Fiber"})
	require.NoError(t, err)
	_, err = e.GetRecord(ctx, "productOffering", "1")
	require.NoError(t, err)

	snap := e.Metrics()
	assert.Equal(t, int64(1), snap.CreateCount)
	assert.Equal(t, int64(1), snap.ReadCount)
}
