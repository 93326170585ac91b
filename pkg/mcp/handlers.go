package mcp

import "context"

func (a *Adapter) handleListResources(ctx context.Context, args map[string]any) (any, error) {
	return a.backend.ListResources(ctx)
}

func (a *Adapter) handleListRecords(ctx context.Context, args map[string]any) (any, error) {
	return a.backend.ListRecords(ctx,
		getString(args, "resource"),
		getStringMap(args, "filter"),
		getString(args, "where"),
	)
}

func (a *Adapter) handleGetRecord(ctx context.Context, args map[string]any) (any, error) {
	return a.backend.GetRecord(ctx, getString(args, "resource"), getString(args, "id"))
}

func (a *Adapter) handleCreateRecord(ctx context.Context, args map[string]any) (any, error) {
	return a.backend.CreateRecord(ctx, getString(args, "resource"), getMap(args, "record"))
}

func (a *Adapter) handleUpdateRecord(ctx context.Context, args map[string]any) (any, error) {
	return a.backend.UpdateRecord(ctx,
		getString(args, "resource"),
		getString(args, "id"),
		getMap(args, "record"),
	)
}

func (a *Adapter) handlePatchRecord(ctx context.Context, args map[string]any) (any, error) {
	return a.backend.PatchRecord(ctx,
		getString(args, "resource"),
		getString(args, "id"),
		getMap(args, "fields"),
	)
}

func (a *Adapter) handleDeleteRecord(ctx context.Context, args map[string]any) (any, error) {
	recordID := getString(args, "id")
	if err := a.backend.DeleteRecord(ctx, getString(args, "resource"), recordID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true, "id": recordID}, nil
}

func (a *Adapter) handleCreateSubscription(ctx context.Context, args map[string]any) (any, error) {
	return a.backend.CreateSubscription(ctx, getString(args, "callback"), getString(args, "query"))
}

func (a *Adapter) handleDeleteSubscription(ctx context.Context, args map[string]any) (any, error) {
	subID := getString(args, "id")
	if err := a.backend.DeleteSubscription(ctx, subID); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true, "id": subID}, nil
}

func (a *Adapter) handleGetHealth(ctx context.Context, args map[string]any) (any, error) {
	return a.backend.Health(ctx)
}
