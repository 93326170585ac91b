package mcp

import (
	"context"

	"github.com/tmfmock/tmfmockd/pkg/engine"
	"github.com/tmfmock/tmfmockd/pkg/hub"
)

// Backend is the operation surface tools execute against. It is satisfied
// by both *engine.Engine (in-process) and *client.Client (remote engine),
// so the adapter works the same way in either deployment.
type Backend interface {
	ListResources(ctx context.Context) ([]engine.ResourceInfo, error)
	ListRecords(ctx context.Context, resource string, filter map[string]string, where string) ([]map[string]any, error)
	GetRecord(ctx context.Context, resource, recordID string) (map[string]any, error)
	CreateRecord(ctx context.Context, resource string, record map[string]any) (map[string]any, error)
	UpdateRecord(ctx context.Context, resource, recordID string, record map[string]any) (map[string]any, error)
	PatchRecord(ctx context.Context, resource, recordID string, fields map[string]any) (map[string]any, error)
	DeleteRecord(ctx context.Context, resource, recordID string) error
	CreateSubscription(ctx context.Context, callback, query string) (hub.Subscription, error)
	DeleteSubscription(ctx context.Context, subID string) error
	Health(ctx context.Context) (engine.Health, error)
}
