package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmfmock/tmfmockd/pkg/client"
	"github.com/tmfmock/tmfmockd/pkg/logging"
)

// ToolHandler executes one tool against the backend. It returns the
// success-path content; errors are translated into the envelope by Invoke.
type ToolHandler func(ctx context.Context, args map[string]any) (any, error)

// ParamKind is the expected JSON type of a tool parameter.
type ParamKind string

// Parameter kinds.
const (
	ParamString ParamKind = "string"
	ParamObject ParamKind = "object"
)

// Param declares one tool parameter for validation.
type Param struct {
	Name     string
	Kind     ParamKind
	Required bool
}

// Tool pairs a definition with its parameter contract and handler.
type Tool struct {
	Definition ToolDefinition
	Params     []Param
	Handler    ToolHandler
}

// Adapter maps a static tool catalog onto a Backend. Tool names and
// parameter schemas are fixed at construction; Invoke never panics past its
// boundary and always produces a ToolResult envelope.
type Adapter struct {
	backend Backend
	log     *slog.Logger
	tools   []*Tool
	byName  map[string]*Tool
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(log *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAdapter creates an adapter with the built-in tool catalog.
func NewAdapter(backend Backend, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		backend: backend,
		log:     logging.Nop(),
		byName:  make(map[string]*Tool, 16),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.registerBuiltinTools()
	return a
}

func (a *Adapter) register(tool *Tool) {
	a.tools = append(a.tools, tool)
	a.byName[tool.Definition.Name] = tool
}

// Tools returns all tool definitions in registration order.
func (a *Adapter) Tools() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(a.tools))
	for _, tool := range a.tools {
		defs = append(defs, tool.Definition)
	}
	return defs
}

// Invoke executes a tool by name. Every outcome is a ToolResult envelope:
// unknown tools, bad parameters and backend failures all come back as
// status "error", never as a panic or a bare Go error.
func (a *Adapter) Invoke(ctx context.Context, name string, args map[string]any) (result ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("tool handler panicked", "tool", name, "panic", r)
			result = errorResult(name, fmt.Sprintf("internal error: %v", r))
		}
	}()

	tool, ok := a.byName[name]
	if !ok {
		return errorResult(name, fmt.Sprintf("UnknownTool: no tool named %q", name))
	}

	if err := validateParams(tool.Params, args); err != nil {
		return errorResult(name, "InvalidParameters: "+err.Error())
	}

	content, err := tool.Handler(ctx, args)
	if err != nil {
		if errors.Is(err, client.ErrUpstreamUnavailable) {
			return errorResult(name, "UpstreamUnavailable: "+err.Error())
		}
		return errorResult(name, err.Error())
	}

	return ToolResult{
		Tool:    name,
		Status:  StatusSuccess,
		Content: content,
	}
}

func errorResult(tool, message string) ToolResult {
	return ToolResult{
		Tool:    tool,
		Status:  StatusError,
		Content: map[string]any{},
		Error:   message,
	}
}

// validateParams checks presence and JSON types against the declared
// parameter contract. Unknown arguments are rejected, matching how the
// engine treats unknown record fields.
func validateParams(params []Param, args map[string]any) error {
	declared := make(map[string]Param, len(params))
	for _, p := range params {
		declared[p.Name] = p
	}

	for name := range args {
		if _, ok := declared[name]; !ok {
			return fmt.Errorf("unknown argument %q", name)
		}
	}

	for _, p := range params {
		value, present := args[p.Name]
		if !present {
			if p.Required {
				return fmt.Errorf("missing required argument %q", p.Name)
			}
			continue
		}

		switch p.Kind {
		case ParamString:
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("argument %q must be a string", p.Name)
			}
			if p.Required && s == "" {
				return fmt.Errorf("argument %q must not be empty", p.Name)
			}
		case ParamObject:
			if _, ok := value.(map[string]any); !ok {
				return fmt.Errorf("argument %q must be an object", p.Name)
			}
		}
	}
	return nil
}

// Argument extraction helpers

func getString(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getMap(args map[string]any, key string) map[string]any {
	if v, ok := args[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func getStringMap(args map[string]any, key string) map[string]string {
	m := getMap(args, key)
	if m == nil {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = fmt.Sprintf("%v", v)
	}
	return result
}
