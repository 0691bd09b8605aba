package mcp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakesh1308/screenapp-mcp-server/internal/screenapp"
)

// upstreamRequest captures what the gateway sent to the fake upstream.
type upstreamRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]interface{}
}

// newToolsetDispatcher wires the real toolset against a fake upstream
// and records each request the gateway makes.
func newToolsetDispatcher(t *testing.T, status int, responseBody string) (*Dispatcher, *upstreamRequest) {
	t.Helper()

	captured := &upstreamRequest{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Query = r.URL.Query()
		if raw, err := io.ReadAll(r.Body); err == nil && len(raw) > 0 {
			var body map[string]interface{}
			if json.Unmarshal(raw, &body) == nil {
				captured.Body = body
			}
		}
		w.WriteHeader(status)
		w.Write([]byte(responseBody))
	}))
	t.Cleanup(upstream.Close)

	client := screenapp.NewClient(screenapp.Config{BaseURL: upstream.URL, APIKey: "test-key"})
	registry := NewRegistry()
	require.NoError(t, NewToolset(client).Register(registry))
	return NewDispatcher(registry), captured
}

func toolResult(t *testing.T, response *JSONRPCResponse) ToolCallResult {
	t.Helper()
	require.NotNil(t, response)
	require.Nil(t, response.Error)
	result, ok := response.Result.(ToolCallResult)
	require.True(t, ok)
	require.NotEmpty(t, result.Content)
	return result
}

func TestToolset_CatalogComplete(t *testing.T) {
	dispatcher, _ := newToolsetDispatcher(t, http.StatusOK, `{}`)

	want := []string{
		"list_teams", "get_team", "list_recordings", "get_recording",
		"search_recordings", "ask_recording", "ask_multiple_recordings",
		"ask_multimodal", "get_profile", "add_file_tag", "remove_file_tag",
		"register_webhook", "unregister_webhook",
	}

	tools := dispatcher.Registry().List()
	require.Len(t, tools, len(want))
	for i, tool := range tools {
		assert.Equal(t, want[i], tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.Equal(t, "object", tool.InputSchema.Type)
	}
}

func TestToolset_ListTeams(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{"teams":[]}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "list_teams", map[string]interface{}{}))
	result := toolResult(t, response)

	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"teams":[]}`, result.Content[0].Text)
	assert.Equal(t, http.MethodGet, captured.Method)
	assert.Equal(t, "/teams", captured.Path)
}

func TestToolset_ListTeams_UpstreamUnauthorized(t *testing.T) {
	dispatcher, _ := newToolsetDispatcher(t, http.StatusUnauthorized, `{"message":"bad token"}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "list_teams", map[string]interface{}{}))
	result := toolResult(t, response)

	assert.True(t, result.IsError)
	var failure map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &failure))
	assert.Equal(t, false, failure["success"])
	assert.Contains(t, failure["error"], "401")
}

func TestToolset_ListRecordings_Defaults(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{"recordings":[]}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "list_recordings", map[string]interface{}{
		"team_id": "team-1",
	}))
	toolResult(t, response)

	assert.Equal(t, "/teams/team-1/recordings", captured.Path)
	assert.Equal(t, []string{"20"}, captured.Query["limit"])
	assert.Equal(t, []string{"0"}, captured.Query["offset"])
}

func TestToolset_ListRecordings_ExplicitPagination(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{"recordings":[]}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "list_recordings", map[string]interface{}{
		"team_id": "team-1",
		"limit":   5,
		"offset":  10,
	}))
	toolResult(t, response)

	assert.Equal(t, []string{"5"}, captured.Query["limit"])
	assert.Equal(t, []string{"10"}, captured.Query["offset"])
}

func TestToolset_GetRecording(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{"id":"f1"}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "get_recording", map[string]interface{}{
		"file_id": "f1",
	}))
	toolResult(t, response)

	assert.Equal(t, http.MethodGet, captured.Method)
	assert.Equal(t, "/recordings/f1", captured.Path)
}

func TestToolset_SearchRecordings_BodyKeys(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{"results":[]}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "search_recordings", map[string]interface{}{
		"team_id":       "team-1",
		"query":         "standup",
		"created_after": "2026-01-01T00:00:00Z",
	}))
	toolResult(t, response)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/teams/team-1/recordings/search", captured.Path)
	assert.Equal(t, "standup", captured.Body["query"])
	assert.Equal(t, "2026-01-01T00:00:00Z", captured.Body["createdAfter"])
	assert.NotContains(t, captured.Body, "createdBefore")
}

func TestToolset_AskRecording(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{"answer":"yes"}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "ask_recording", map[string]interface{}{
		"file_id":  "f1",
		"question": "what happened?",
	}))
	toolResult(t, response)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/recordings/f1/ask", captured.Path)
	assert.Equal(t, "what happened?", captured.Body["question"])
}

func TestToolset_AskMultipleRecordings_FileIDs(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{"answer":"no"}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "ask_multiple_recordings", map[string]interface{}{
		"team_id":  "team-1",
		"question": "any blockers?",
		"file_ids": []string{"f1", "f2"},
	}))
	toolResult(t, response)

	assert.Equal(t, "/teams/team-1/recordings/ask", captured.Path)
	assert.Equal(t, []interface{}{"f1", "f2"}, captured.Body["fileIds"])
}

func TestToolset_AskMultimodal_SegmentDefaults(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{"answer":"maybe"}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "ask_multimodal", map[string]interface{}{
		"file_id":     "f1",
		"prompt_text": "describe the screen",
	}))
	toolResult(t, response)

	assert.Equal(t, "/files/f1/ask/multimodal", captured.Path)
	assert.Equal(t, "describe the screen", captured.Body["promptText"])

	options, ok := captured.Body["mediaAnalysisOptions"].(map[string]interface{})
	require.True(t, ok)
	transcript, ok := options["transcript"].(map[string]interface{})
	require.True(t, ok)
	segments, ok := transcript["segments"].([]interface{})
	require.True(t, ok)
	require.Len(t, segments, 1)
	segment := segments[0].(map[string]interface{})
	assert.Equal(t, float64(0), segment["start"])
	assert.Equal(t, float64(120), segment["end"])
}

func TestToolset_AddFileTag(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{"tagged":true}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "add_file_tag", map[string]interface{}{
		"file_id": "f1",
		"key":     "project",
		"value":   "gateway",
	}))
	toolResult(t, response)

	assert.Equal(t, http.MethodPost, captured.Method)
	assert.Equal(t, "/files/f1/tag", captured.Path)
	assert.Equal(t, "project", captured.Body["key"])
	assert.Equal(t, "gateway", captured.Body["value"])
}

func TestToolset_RemoveFileTag_DeleteWithBody(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{"removed":true}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "remove_file_tag", map[string]interface{}{
		"file_id": "f1",
		"key":     "project",
	}))
	toolResult(t, response)

	assert.Equal(t, http.MethodDelete, captured.Method)
	assert.Equal(t, "/files/f1/tag", captured.Path)
	assert.Equal(t, "project", captured.Body["key"])
}

func TestToolset_UnregisterWebhook_QueryParam(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{"removed":true}`)

	response := dispatcher.Handle(context.Background(), callBody(1, "unregister_webhook", map[string]interface{}{
		"team_id": "team-1",
		"url":     "https://example.com/hook",
	}))
	toolResult(t, response)

	assert.Equal(t, http.MethodDelete, captured.Method)
	assert.Equal(t, "/team/team-1/integrations/webhook", captured.Path)
	assert.Equal(t, []string{"https://example.com/hook"}, captured.Query["url"])
}

func TestToolset_RequiredArgumentEnforced(t *testing.T) {
	dispatcher, captured := newToolsetDispatcher(t, http.StatusOK, `{}`)

	// get_team without team_id must fail at validation, before any
	// upstream request is made.
	response := dispatcher.Handle(context.Background(), callBody(1, "get_team", map[string]interface{}{}))
	require.NotNil(t, response.Error)
	assert.Equal(t, CodeInvalidParams, response.Error.Code)
	assert.Empty(t, captured.Method)
}
