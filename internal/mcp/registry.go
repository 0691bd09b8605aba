package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Handler executes a tool call with schema-validated arguments and
// returns the raw JSON result to embed in the response content.
type Handler interface {
	Call(ctx context.Context, args map[string]interface{}) (json.RawMessage, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, args map[string]interface{}) (json.RawMessage, error)

func (f HandlerFunc) Call(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	return f(ctx, args)
}

// Entry pairs a tool descriptor with its handler and compiled schema.
type Entry struct {
	Tool    Tool
	Handler Handler
	schema  *jsonschema.Schema
}

// ValidateArguments checks the supplied arguments against the tool's
// declared input schema. Validation happens before the handler runs so
// a bad call never reaches the upstream API.
func (e *Entry) ValidateArguments(args map[string]interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	// Round-trip through encoding/json so the validator always sees
	// plain decoded JSON values.
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return e.schema.Validate(value)
}

// Registry is a fixed, ordered mapping from tool name to descriptor and
// handler. The set is built once at startup; there is no dynamic
// registration afterwards, so reads need no synchronization.
type Registry struct {
	order   []string
	entries map[string]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register compiles the tool's input schema and stores the entry.
// Registration order is preserved for List output.
func (r *Registry) Register(tool Tool, handler Handler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool %q: handler is required", tool.Name)
	}
	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("tool %q: already registered", tool.Name)
	}
	for _, required := range tool.InputSchema.Required {
		if _, ok := tool.InputSchema.Properties[required]; !ok {
			return fmt.Errorf("tool %q: required property %q not declared", tool.Name, required)
		}
	}

	schemaJSON, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return fmt.Errorf("tool %q: failed to encode input schema: %w", tool.Name, err)
	}
	schema, err := jsonschema.CompileString(tool.Name+".schema.json", string(schemaJSON))
	if err != nil {
		return fmt.Errorf("tool %q: invalid input schema: %w", tool.Name, err)
	}

	r.entries[tool.Name] = &Entry{Tool: tool, Handler: handler, schema: schema}
	r.order = append(r.order, tool.Name)
	return nil
}

// List returns all tool descriptors in registration order.
func (r *Registry) List() []Tool {
	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.entries[name].Tool)
	}
	return tools
}

// Resolve finds the entry for the given tool name.
func (r *Registry) Resolve(name string) (*Entry, bool) {
	entry, ok := r.entries[name]
	return entry, ok
}
