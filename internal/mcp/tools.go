package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rakesh1308/screenapp-mcp-server/internal/screenapp"
)

// Toolset fulfils each tool call with one request to the ScreenApp API.
type Toolset struct {
	client *screenapp.Client
}

// NewToolset creates a toolset over the given client.
func NewToolset(client *screenapp.Client) *Toolset {
	return &Toolset{client: client}
}

// Register declares the full tool catalog on the registry. The order
// here is the order clients see in tools/list.
func (t *Toolset) Register(registry *Registry) error {
	catalog := []struct {
		tool    Tool
		handler HandlerFunc
	}{
		{
			tool: Tool{
				Name:        "list_teams",
				Description: "List all teams the user belongs to in ScreenApp",
				InputSchema: ToolInputSchema{
					Type:       "object",
					Properties: map[string]interface{}{},
				},
			},
			handler: t.listTeams,
		},
		{
			tool: Tool{
				Name:        "get_team",
				Description: "Get detailed information about a specific team",
				InputSchema: ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"team_id": map[string]interface{}{"type": "string", "description": "The team ID"},
					},
					Required: []string{"team_id"},
				},
			},
			handler: t.getTeam,
		},
		{
			tool: Tool{
				Name:        "list_recordings",
				Description: "List recordings from a specific team with pagination",
				InputSchema: ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"team_id": map[string]interface{}{"type": "string", "description": "The team ID"},
						"limit":   map[string]interface{}{"type": "number", "description": "Number of recordings to return (default: 20)", "default": 20},
						"offset":  map[string]interface{}{"type": "number", "description": "Pagination offset (default: 0)", "default": 0},
					},
					Required: []string{"team_id"},
				},
			},
			handler: t.listRecordings,
		},
		{
			tool: Tool{
				Name:        "get_recording",
				Description: "Get detailed information about a specific recording including transcript and metadata",
				InputSchema: ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"file_id": map[string]interface{}{"type": "string", "description": "The recording/file ID"},
					},
					Required: []string{"file_id"},
				},
			},
			handler: t.getRecording,
		},
		{
			tool: Tool{
				Name:        "search_recordings",
				Description: "Search for content within recording transcripts using keywords",
				InputSchema: ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"team_id":        map[string]interface{}{"type": "string", "description": "The team ID"},
						"query":          map[string]interface{}{"type": "string", "description": "Search query string"},
						"created_after":  map[string]interface{}{"type": "string", "description": "Filter recordings created after this date (ISO 8601)"},
						"created_before": map[string]interface{}{"type": "string", "description": "Filter recordings created before this date (ISO 8601)"},
					},
					Required: []string{"team_id", "query"},
				},
			},
			handler: t.searchRecordings,
		},
		{
			tool: Tool{
				Name:        "ask_recording",
				Description: "Ask AI a question about a specific recording using its transcript",
				InputSchema: ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"file_id":  map[string]interface{}{"type": "string", "description": "The recording/file ID"},
						"question": map[string]interface{}{"type": "string", "description": "Question to ask about the recording"},
					},
					Required: []string{"file_id", "question"},
				},
			},
			handler: t.askRecording,
		},
		{
			tool: Tool{
				Name:        "ask_multiple_recordings",
				Description: "Ask AI a question across multiple recordings to find patterns or insights",
				InputSchema: ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"team_id":  map[string]interface{}{"type": "string", "description": "The team ID"},
						"question": map[string]interface{}{"type": "string", "description": "Question to ask across recordings"},
						"file_ids": map[string]interface{}{
							"type":        "array",
							"items":       map[string]interface{}{"type": "string"},
							"description": "Optional list of specific file IDs to query",
						},
					},
					Required: []string{"team_id", "question"},
				},
			},
			handler: t.askMultipleRecordings,
		},
		{
			tool: Tool{
				Name:        "ask_multimodal",
				Description: "Ask a multimodal AI question about a recording using both transcript and video",
				InputSchema: ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"file_id":          map[string]interface{}{"type": "string", "description": "The recording/file ID"},
						"prompt_text":      map[string]interface{}{"type": "string", "description": "The question or analysis prompt"},
						"transcript_start": map[string]interface{}{"type": "number", "description": "Start time for transcript segment in seconds (default: 0)", "default": 0},
						"transcript_end":   map[string]interface{}{"type": "number", "description": "End time for transcript segment in seconds (default: 120)", "default": 120},
					},
					Required: []string{"file_id", "prompt_text"},
				},
			},
			handler: t.askMultimodal,
		},
		{
			tool: Tool{
				Name:        "get_profile",
				Description: "Get the current user's ScreenApp profile information",
				InputSchema: ToolInputSchema{
					Type:       "object",
					Properties: map[string]interface{}{},
				},
			},
			handler: t.getProfile,
		},
		{
			tool: Tool{
				Name:        "add_file_tag",
				Description: "Add a tag to a file/recording for organization",
				InputSchema: ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"file_id": map[string]interface{}{"type": "string", "description": "The file ID"},
						"key":     map[string]interface{}{"type": "string", "description": "Tag key (e.g., 'project', 'category')"},
						"value":   map[string]interface{}{"type": "string", "description": "Tag value"},
					},
					Required: []string{"file_id", "key", "value"},
				},
			},
			handler: t.addFileTag,
		},
		{
			tool: Tool{
				Name:        "remove_file_tag",
				Description: "Remove a tag from a file/recording",
				InputSchema: ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"file_id": map[string]interface{}{"type": "string", "description": "The file ID"},
						"key":     map[string]interface{}{"type": "string", "description": "Tag key to remove"},
					},
					Required: []string{"file_id", "key"},
				},
			},
			handler: t.removeFileTag,
		},
		{
			tool: Tool{
				Name:        "register_webhook",
				Description: "Register a webhook URL to receive real-time notifications for team recording events",
				InputSchema: ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"team_id": map[string]interface{}{"type": "string", "description": "The team ID"},
						"url":     map[string]interface{}{"type": "string", "description": "Webhook URL (must be HTTPS)"},
						"name":    map[string]interface{}{"type": "string", "description": "Name/description of the webhook"},
					},
					Required: []string{"team_id", "url", "name"},
				},
			},
			handler: t.registerWebhook,
		},
		{
			tool: Tool{
				Name:        "unregister_webhook",
				Description: "Unregister/remove a webhook URL for a team",
				InputSchema: ToolInputSchema{
					Type: "object",
					Properties: map[string]interface{}{
						"team_id": map[string]interface{}{"type": "string", "description": "The team ID"},
						"url":     map[string]interface{}{"type": "string", "description": "Webhook URL to unregister"},
					},
					Required: []string{"team_id", "url"},
				},
			},
			handler: t.unregisterWebhook,
		},
	}

	for _, item := range catalog {
		if err := registry.Register(item.tool, item.handler); err != nil {
			return err
		}
	}
	return nil
}

func (t *Toolset) listTeams(ctx context.Context, _ map[string]interface{}) (json.RawMessage, error) {
	return t.client.Get(ctx, "/teams", nil)
}

func (t *Toolset) getTeam(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	teamID, err := stringArg(args, "team_id")
	if err != nil {
		return nil, err
	}
	return t.client.Get(ctx, "/team/"+teamID, nil)
}

func (t *Toolset) listRecordings(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	teamID, err := stringArg(args, "team_id")
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(int(numberArg(args, "limit", 20))))
	query.Set("offset", strconv.Itoa(int(numberArg(args, "offset", 0))))
	return t.client.Get(ctx, fmt.Sprintf("/teams/%s/recordings", teamID), query)
}

func (t *Toolset) getRecording(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	fileID, err := stringArg(args, "file_id")
	if err != nil {
		return nil, err
	}
	return t.client.Get(ctx, "/recordings/"+fileID, nil)
}

func (t *Toolset) searchRecordings(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	teamID, err := stringArg(args, "team_id")
	if err != nil {
		return nil, err
	}
	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{"query": query}
	if after, ok := optionalStringArg(args, "created_after"); ok {
		body["createdAfter"] = after
	}
	if before, ok := optionalStringArg(args, "created_before"); ok {
		body["createdBefore"] = before
	}
	return t.client.Post(ctx, fmt.Sprintf("/teams/%s/recordings/search", teamID), body)
}

func (t *Toolset) askRecording(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	fileID, err := stringArg(args, "file_id")
	if err != nil {
		return nil, err
	}
	question, err := stringArg(args, "question")
	if err != nil {
		return nil, err
	}
	return t.client.Ask(ctx, fmt.Sprintf("/recordings/%s/ask", fileID), map[string]interface{}{
		"question": question,
	})
}

func (t *Toolset) askMultipleRecordings(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	teamID, err := stringArg(args, "team_id")
	if err != nil {
		return nil, err
	}
	question, err := stringArg(args, "question")
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{"question": question}
	if fileIDs := stringSliceArg(args, "file_ids"); len(fileIDs) > 0 {
		body["fileIds"] = fileIDs
	}
	return t.client.Ask(ctx, fmt.Sprintf("/teams/%s/recordings/ask", teamID), body)
}

func (t *Toolset) askMultimodal(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	fileID, err := stringArg(args, "file_id")
	if err != nil {
		return nil, err
	}
	promptText, err := stringArg(args, "prompt_text")
	if err != nil {
		return nil, err
	}
	body := map[string]interface{}{
		"promptText": promptText,
		"mediaAnalysisOptions": map[string]interface{}{
			"transcript": map[string]interface{}{
				"segments": []map[string]interface{}{
					{
						"start": numberArg(args, "transcript_start", 0),
						"end":   numberArg(args, "transcript_end", 120),
					},
				},
			},
		},
	}
	return t.client.Ask(ctx, fmt.Sprintf("/files/%s/ask/multimodal", fileID), body)
}

func (t *Toolset) getProfile(ctx context.Context, _ map[string]interface{}) (json.RawMessage, error) {
	return t.client.Get(ctx, "/profile", nil)
}

func (t *Toolset) addFileTag(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	fileID, err := stringArg(args, "file_id")
	if err != nil {
		return nil, err
	}
	key, err := stringArg(args, "key")
	if err != nil {
		return nil, err
	}
	value, err := stringArg(args, "value")
	if err != nil {
		return nil, err
	}
	return t.client.Post(ctx, fmt.Sprintf("/files/%s/tag", fileID), map[string]interface{}{
		"key":   key,
		"value": value,
	})
}

func (t *Toolset) removeFileTag(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	fileID, err := stringArg(args, "file_id")
	if err != nil {
		return nil, err
	}
	key, err := stringArg(args, "key")
	if err != nil {
		return nil, err
	}
	return t.client.Delete(ctx, fmt.Sprintf("/files/%s/tag", fileID), nil, map[string]interface{}{
		"key": key,
	})
}

func (t *Toolset) registerWebhook(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	teamID, err := stringArg(args, "team_id")
	if err != nil {
		return nil, err
	}
	webhookURL, err := stringArg(args, "url")
	if err != nil {
		return nil, err
	}
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	return t.client.Post(ctx, fmt.Sprintf("/team/%s/integrations/webhook", teamID), map[string]interface{}{
		"url":  webhookURL,
		"name": name,
	})
}

func (t *Toolset) unregisterWebhook(ctx context.Context, args map[string]interface{}) (json.RawMessage, error) {
	teamID, err := stringArg(args, "team_id")
	if err != nil {
		return nil, err
	}
	webhookURL, err := stringArg(args, "url")
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("url", webhookURL)
	return t.client.Delete(ctx, fmt.Sprintf("/team/%s/integrations/webhook", teamID), query, nil)
}

// Argument helpers. Arguments have already passed schema validation,
// but handlers still reject missing or mistyped values so a bad call
// fails before the upstream request is made.

func stringArg(args map[string]interface{}, key string) (string, error) {
	value, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return s, nil
}

func optionalStringArg(args map[string]interface{}, key string) (string, bool) {
	s, ok := args[key].(string)
	return s, ok && s != ""
}

func numberArg(args map[string]interface{}, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func stringSliceArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
