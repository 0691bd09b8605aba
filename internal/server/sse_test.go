package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakesh1308/screenapp-mcp-server/internal/mcp"
)

// openStream connects to /sse on a live test server and returns a line
// scanner over the event stream.
func openStream(t *testing.T, s *Server) (context.CancelFunc, *bufio.Scanner) {
	t.Helper()

	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sse", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	return cancel, bufio.NewScanner(resp.Body)
}

func TestSSE_InitialEventAndHeartbeat(t *testing.T) {
	s := newTestServer(t, http.StatusOK, `{}`)
	s.heartbeatInterval = 50 * time.Millisecond

	cancel, scanner := openStream(t, s)
	defer cancel()

	var lines []string
	sawHeartbeat := false
	deadline := time.Now().Add(3 * time.Second)
	for scanner.Scan() && time.Now().Before(deadline) {
		line := scanner.Text()
		lines = append(lines, line)
		if line == ": heartbeat" {
			sawHeartbeat = true
			break
		}
	}
	require.True(t, sawHeartbeat, "expected a heartbeat comment, got lines: %v", lines)

	// The first event is the initialized announcement, sent before any
	// heartbeat.
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "event: message", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "data: "))

	var notification mcp.JSONRPCNotification
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &notification))
	assert.Equal(t, "2.0", notification.JSONRPC)
	assert.Equal(t, "notifications/initialized", notification.Method)

	params, ok := notification.Params.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, mcp.ProtocolVersion, params["protocolVersion"])

	// No other events appear between the announcement and the first
	// heartbeat.
	for _, line := range lines[2 : len(lines)-1] {
		assert.False(t, strings.HasPrefix(line, "event: "), "unexpected event line %q", line)
	}
}

func TestSSE_ClientDisconnectStopsStream(t *testing.T) {
	s := newTestServer(t, http.StatusOK, `{}`)
	s.heartbeatInterval = 50 * time.Millisecond

	cancel, scanner := openStream(t, s)

	// Read the initial announcement, then drop the connection while the
	// heartbeat loop is sleeping.
	require.True(t, scanner.Scan())
	cancel()

	done := make(chan struct{})
	go func() {
		for scanner.Scan() {
		}
		close(done)
	}()

	select {
	case <-done:
		// Stream ended after disconnect.
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate after client disconnect")
	}
}
