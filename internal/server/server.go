// Package server provides the HTTP and SSE transports over the MCP
// dispatcher.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/rakesh1308/screenapp-mcp-server/internal/mcp"
	"github.com/rakesh1308/screenapp-mcp-server/internal/screenapp"
)

// defaultHeartbeatInterval keeps idle SSE connections alive through
// intermediaries that drop quiet streams.
const defaultHeartbeatInterval = 15 * time.Second

// Server wires the MCP dispatcher to the HTTP surface: the JSON-RPC
// request/response endpoints, the SSE stream, and the service
// descriptor and health endpoints.
type Server struct {
	cfg               screenapp.Config
	dispatcher        *mcp.Dispatcher
	router            *chi.Mux
	heartbeatInterval time.Duration
}

// New constructs a Server with middleware and routes configured.
func New(cfg screenapp.Config, dispatcher *mcp.Dispatcher) *Server {
	s := &Server{
		cfg:               cfg,
		dispatcher:        dispatcher,
		router:            chi.NewRouter(),
		heartbeatInterval: defaultHeartbeatInterval,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/sse", s.handleSSE)
	s.router.Post("/sse", s.handleMessage)
	s.router.Post("/message", s.handleMessage)

	return s
}

// Router exposes the root HTTP handler for the server.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	tools := s.dispatcher.Registry().List()
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":     "ScreenApp MCP Server",
		"version":  mcp.ServerVersion,
		"protocol": "MCP over SSE",
		"status":   "running",
		"endpoints": map[string]string{
			"sse":     "/sse",
			"health":  "/health",
			"message": "/message",
		},
		"tools":      len(tools),
		"tool_names": names,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "healthy",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"screenapp_url":      s.cfg.BaseURL,
		"api_key_configured": s.cfg.APIKey != "",
		"tools_available":    len(s.dispatcher.Registry().List()),
	})
}

// handleMessage accepts one JSON-RPC request body and returns exactly
// one JSON-RPC response body. Serves both POST /message and POST /sse.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, parseErrorEnvelope("failed to read request body"))
		return
	}
	if !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, parseErrorEnvelope("invalid JSON"))
		return
	}

	response := s.dispatcher.Handle(r.Context(), body)
	if response == nil {
		// Notification: accepted, nothing to send back.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func parseErrorEnvelope(detail string) *mcp.JSONRPCResponse {
	return &mcp.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      1,
		Error: &mcp.JSONRPCError{
			Code:    mcp.CodeParseError,
			Message: "Parse error",
			Data:    detail,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}
