package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rakesh1308/screenapp-mcp-server/internal/screenapp"
)

// Server identity advertised in initialize responses and stream
// announcements.
const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "screenapp"
	ServerVersion   = "1.0.0"
)

// Dispatcher routes JSON-RPC requests to the tool registry and
// normalizes handler outcomes into response envelopes. It holds no
// per-request state, so one instance serves all transports.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Registry exposes the tool catalog to transports that describe it.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Handle processes one raw JSON-RPC request body and returns the
// response envelope. Notifications return nil: they are accepted but
// produce no response.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) *JSONRPCResponse {
	var request JSONRPCRequest
	if err := json.Unmarshal(body, &request); err != nil {
		return errorResponse(1, CodeParseError, "Parse error", err.Error())
	}

	// Echo the request id on every response; default to 1 when absent.
	id := request.ID
	if id == nil {
		id = 1
	}

	switch request.Method {
	case "":
		return errorResponse(id, CodeInvalidRequest, "Invalid request", "method is required")
	case "initialize":
		return d.handleInitialize(id)
	case "initialized", "notifications/initialized":
		return nil
	case "tools/list":
		return d.handleToolsList(id)
	case "tools/call":
		return d.handleToolCall(ctx, id, request.Params)
	default:
		return errorResponse(id, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", request.Method), "")
	}
}

// handleInitialize returns the static server identity and capability
// advertisement. It has no side effects and may be called any number of
// times.
func (d *Dispatcher) handleInitialize(id interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    ServerCapabilities{Tools: ToolCapabilities{}},
			ServerInfo:      ServerInfo{Name: ServerName, Version: ServerVersion},
		},
	}
}

func (d *Dispatcher) handleToolsList(id interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  ToolsListResult{Tools: d.registry.List()},
	}
}

func (d *Dispatcher) handleToolCall(ctx context.Context, id interface{}, params json.RawMessage) *JSONRPCResponse {
	var callParams ToolCallParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &callParams); err != nil {
			return errorResponse(id, CodeInvalidParams, "Invalid params", err.Error())
		}
	}
	if callParams.Name == "" {
		return errorResponse(id, CodeInvalidParams, "Invalid params", "tool name is required")
	}

	entry, ok := d.registry.Resolve(callParams.Name)
	if !ok {
		return errorResponse(id, CodeMethodNotFound, fmt.Sprintf("Tool not found: %s", callParams.Name), "")
	}

	args := callParams.Arguments
	if args == nil {
		args = map[string]interface{}{}
	}

	logger := log.With().
		Str("component", "dispatcher").
		Str("tool", callParams.Name).
		Logger()

	if err := entry.ValidateArguments(args); err != nil {
		logger.Warn().Err(err).Msg("Argument validation failed")
		return errorResponse(id, CodeInvalidParams, "Invalid params", err.Error())
	}

	logger.Debug().Msg("Invoking tool handler")
	result, err := entry.Handler.Call(ctx, args)
	if err != nil {
		var apiErr *screenapp.APIError
		if errors.As(err, &apiErr) {
			// Upstream failures surface as a failed tool result with
			// the status and body intact.
			logger.Warn().Int("status_code", apiErr.StatusCode).Msg("Upstream call failed")
			failure, _ := json.Marshal(map[string]interface{}{
				"success": false,
				"error":   apiErr.Error(),
			})
			return &JSONRPCResponse{
				JSONRPC: "2.0",
				ID:      id,
				Result: ToolCallResult{
					Content: []Content{{Type: "text", Text: string(failure)}},
					IsError: true,
				},
			}
		}
		logger.Error().Err(err).Msg("Tool execution failed")
		return errorResponse(id, CodeInternalError, fmt.Sprintf("Internal error: %s", err.Error()), "")
	}

	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: ToolCallResult{
			Content: []Content{{Type: "text", Text: string(result)}},
		},
	}
}

func errorResponse(id interface{}, code int, message, data string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}
