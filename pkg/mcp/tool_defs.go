package mcp

// registerBuiltinTools wires the full tool catalog: CRUD over records,
// event subscriptions and health. The debug surface is deliberately not
// exposed as tools.
func (a *Adapter) registerBuiltinTools() {
	a.register(&Tool{
		Definition: defListResources,
		Handler:    a.handleListResources,
	})
	a.register(&Tool{
		Definition: defListRecords,
		Params: []Param{
			{Name: "resource", Kind: ParamString, Required: true},
			{Name: "filter", Kind: ParamObject},
			{Name: "where", Kind: ParamString},
		},
		Handler: a.handleListRecords,
	})
	a.register(&Tool{
		Definition: defGetRecord,
		Params: []Param{
			{Name: "resource", Kind: ParamString, Required: true},
			{Name: "id", Kind: ParamString, Required: true},
		},
		Handler: a.handleGetRecord,
	})
	a.register(&Tool{
		Definition: defCreateRecord,
		Params: []Param{
			{Name: "resource", Kind: ParamString, Required: true},
			{Name: "record", Kind: ParamObject, Required: true},
		},
		Handler: a.handleCreateRecord,
	})
	a.register(&Tool{
		Definition: defUpdateRecord,
		Params: []Param{
			{Name: "resource", Kind: ParamString, Required: true},
			{Name: "id", Kind: ParamString, Required: true},
			{Name: "record", Kind: ParamObject, Required: true},
		},
		Handler: a.handleUpdateRecord,
	})
	a.register(&Tool{
		Definition: defPatchRecord,
		Params: []Param{
			{Name: "resource", Kind: ParamString, Required: true},
			{Name: "id", Kind: ParamString, Required: true},
			{Name: "fields", Kind: ParamObject, Required: true},
		},
		Handler: a.handlePatchRecord,
	})
	a.register(&Tool{
		Definition: defDeleteRecord,
		Params: []Param{
			{Name: "resource", Kind: ParamString, Required: true},
			{Name: "id", Kind: ParamString, Required: true},
		},
		Handler: a.handleDeleteRecord,
	})
	a.register(&Tool{
		Definition: defCreateSubscription,
		Params: []Param{
			{Name: "callback", Kind: ParamString, Required: true},
			{Name: "query", Kind: ParamString},
		},
		Handler: a.handleCreateSubscription,
	})
	a.register(&Tool{
		Definition: defDeleteSubscription,
		Params: []Param{
			{Name: "id", Kind: ParamString, Required: true},
		},
		Handler: a.handleDeleteSubscription,
	})
	a.register(&Tool{
		Definition: defGetHealth,
		Handler:    a.handleGetHealth,
	})
}

var defListResources = ToolDefinition{
	Name:        "list_resources",
	Description: "List all resource types served by the mock engine. Returns name, base path and current record count for each. Use this first to discover what resources exist.",
	InputSchema: map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	},
}

var defListRecords = ToolDefinition{
	Name:        "list_records",
	Description: "List records of one resource type, in insertion order. Optional exact-match filters (field name to expected value, compared as strings) and an optional 'where' boolean expression (e.g. `price < 20 && isBundle`).",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resource": map[string]any{
				"type":        "string",
				"description": "Resource type name (e.g. productOffering)",
			},
			"filter": map[string]any{
				"type":        "object",
				"description": "Exact-match filters: field name to expected value",
			},
			"where": map[string]any{
				"type":        "string",
				"description": "Boolean expression evaluated against each record",
			},
		},
		"required": []string{"resource"},
	},
}

var defGetRecord = ToolDefinition{
	Name:        "get_record",
	Description: "Get a single record by resource type and ID.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resource": map[string]any{
				"type":        "string",
				"description": "Resource type name",
			},
			"id": map[string]any{
				"type":        "string",
				"description": "Record identifier",
			},
		},
		"required": []string{"resource", "id"},
	},
}

var defCreateRecord = ToolDefinition{
	Name:        "create_record",
	Description: "Create a record. Omit the identifier to have one assigned; a supplied identifier is kept if free. Fields must match the resource's declared schema. Returns the stored record including its ID.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resource": map[string]any{
				"type":        "string",
				"description": "Resource type name",
			},
			"record": map[string]any{
				"type":        "object",
				"description": "The record fields",
			},
		},
		"required": []string{"resource", "record"},
	},
}

var defUpdateRecord = ToolDefinition{
	Name:        "update_record",
	Description: "Replace a record wholesale. Fields not present in the new record are dropped. The identifier cannot be changed.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resource": map[string]any{
				"type":        "string",
				"description": "Resource type name",
			},
			"id": map[string]any{
				"type":        "string",
				"description": "Record identifier",
			},
			"record": map[string]any{
				"type":        "object",
				"description": "The full replacement record",
			},
		},
		"required": []string{"resource", "id", "record"},
	},
}

var defPatchRecord = ToolDefinition{
	Name:        "patch_record",
	Description: "Merge fields into an existing record. The merge is shallow: a nested object value replaces the stored one wholesale. The identifier cannot be changed.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resource": map[string]any{
				"type":        "string",
				"description": "Resource type name",
			},
			"id": map[string]any{
				"type":        "string",
				"description": "Record identifier",
			},
			"fields": map[string]any{
				"type":        "object",
				"description": "Fields to merge into the record",
			},
		},
		"required": []string{"resource", "id", "fields"},
	},
}

var defDeleteRecord = ToolDefinition{
	Name:        "delete_record",
	Description: "Delete a record by resource type and ID. The ID is never reassigned to later records.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"resource": map[string]any{
				"type":        "string",
				"description": "Resource type name",
			},
			"id": map[string]any{
				"type":        "string",
				"description": "Record identifier",
			},
		},
		"required": []string{"resource", "id"},
	},
}

var defCreateSubscription = ToolDefinition{
	Name:        "create_subscription",
	Description: "Register a listener callback URL on the event hub. Every successful create/update/delete produces a notification POSTed to the callback. Optional query narrows the events (e.g. eventType=ProductOfferingCreateEvent).",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"callback": map[string]any{
				"type":        "string",
				"description": "Absolute URL to POST notifications to",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "Optional event filter",
			},
		},
		"required": []string{"callback"},
	},
}

var defDeleteSubscription = ToolDefinition{
	Name:        "delete_subscription",
	Description: "Remove an event hub subscription by ID.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{
				"type":        "string",
				"description": "Subscription ID returned by create_subscription",
			},
		},
		"required": []string{"id"},
	},
}

var defGetHealth = ToolDefinition{
	Name:        "get_health",
	Description: "Check that the mock engine is alive. When the adapter targets a remote engine, this reports the upstream address checked.",
	InputSchema: map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	},
}
