package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rakesh1308/screenapp-mcp-server/internal/mcp"
)

// handleSSE opens the push stream: one initialized notification up
// front, then a heartbeat comment every interval until the client
// disconnects. Tool calls are not carried on the stream; they go
// through the paired POST endpoints.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	logger := log.With().
		Str("component", "sse").
		Str("connection_id", uuid.New().String()).
		Logger()
	logger.Info().Msg("Stream opened")

	initialized := mcp.JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
		Params: map[string]interface{}{
			"protocolVersion": mcp.ProtocolVersion,
			"serverInfo":      mcp.ServerInfo{Name: mcp.ServerName, Version: mcp.ServerVersion},
			"capabilities":    mcp.ServerCapabilities{},
		},
	}
	if err := writeEvent(w, flusher, "message", initialized); err != nil {
		logger.Warn().Err(err).Msg("Failed to write initialized event")
		return
	}

	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Info().Msg("Client disconnected")
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				logger.Warn().Err(err).Msg("Heartbeat write failed")
				s.writeErrorEvent(w, flusher, err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeErrorEvent emits one terminal error event before the stream
// closes. A failure here means the connection is already gone.
func (s *Server) writeErrorEvent(w http.ResponseWriter, flusher http.Flusher, cause error) {
	notification := mcp.JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  "notifications/error",
		Params:  map[string]interface{}{"error": cause.Error()},
	}
	_ = writeEvent(w, flusher, "error", notification)
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
