package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"

	"github.com/kavelar/moviemind/domains/discovery"
)

// OpenAIContentProvider is the adapter for the OpenAI Chat Completions API.
type OpenAIContentProvider struct {
	client    openai.Client
	model     string
	chatModel string
}

// NewOpenAIContentProvider fails on a missing key so misconfiguration is
// caught at startup. Transient retries are handled by the SDK itself.
func NewOpenAIContentProvider(apiKey, model, chatModel string) (*OpenAIContentProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(3),
	)

	if chatModel == "" {
		chatModel = model
	}
	return &OpenAIContentProvider{client: client, model: model, chatModel: chatModel}, nil
}

func (p *OpenAIContentProvider) Name() string {
	return "openai"
}

// GenerateItems asks for strict JSON-schema output. The API requires a
// top-level object in strict mode, so the array rides inside a "results"
// wrapper that is unwrapped before returning.
func (p *OpenAIContentProvider) GenerateItems(ctx context.Context, req discovery.ItemsRequest) ([]discovery.ContentItem, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Instruction),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "content_items",
					Schema: any(contentItemsWrapperSchema()),
					Strict: openai.Bool(true),
				},
			},
		},
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	var wrapper struct {
		Results []discovery.ContentItem `json:"results"`
	}
	raw := stripMarkdownFence(completion.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		logrus.WithError(err).WithField("model", p.model).Warn("openai returned an unparseable item payload")
		return nil, fmt.Errorf("response is not a content item array: %w", err)
	}
	return wrapper.Results, nil
}

// Chat replays the accumulated turns and appends the new user message.
func (p *OpenAIContentProvider) Chat(ctx context.Context, system string, history []discovery.ChatTurn, message string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
	}
	for _, t := range history {
		if t.Text == "" {
			continue
		}
		if t.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(t.Text))
		} else {
			messages = append(messages, openai.UserMessage(t.Text))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.chatModel),
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// contentItemsWrapperSchema is the strict-mode schema. Strict output requires
// every property listed in required, so optional fields are modeled as
// empty-when-unknown instead.
func contentItemsWrapperSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":            map[string]any{"type": "integer"},
			"title":         map[string]any{"type": "string"},
			"overview":      map[string]any{"type": "string"},
			"poster_path":   map[string]any{"type": "string", "description": "Real TMDB poster file path, or empty string."},
			"backdrop_path": map[string]any{"type": "string", "description": "Real TMDB backdrop file path, or empty string."},
			"release_date":  map[string]any{"type": "string", "description": "ISO date, YYYY-MM-DD, or empty string."},
			"vote_average":  map[string]any{"type": "number"},
			"genres":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"reason":        map[string]any{"type": "string", "description": "Why this title matches the request, or empty string."},
		},
		"required":             []string{"id", "title", "overview", "poster_path", "backdrop_path", "release_date", "vote_average", "genres", "reason"},
		"additionalProperties": false,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"results": map[string]any{"type": "array", "items": item},
		},
		"required":             []string{"results"},
		"additionalProperties": false,
	}
}
