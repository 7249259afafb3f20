package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"github.com/kavelar/moviemind/domains/discovery"
)

// GeminiContentProvider is the adapter for the Google Gemini API.
type GeminiContentProvider struct {
	client    *genai.Client
	model     string
	chatModel string
}

// NewGeminiContentProvider builds the client once at startup. A missing API
// key is a configuration error and fails here, before any request is served.
func NewGeminiContentProvider(ctx context.Context, apiKey, model, chatModel string) (*GeminiContentProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	if chatModel == "" {
		chatModel = model
	}
	return &GeminiContentProvider{client: client, model: model, chatModel: chatModel}, nil
}

func (p *GeminiContentProvider) Name() string {
	return "gemini"
}

// GenerateItems runs a schema-constrained generation and parses the array.
func (p *GeminiContentProvider) GenerateItems(ctx context.Context, req discovery.ItemsRequest) ([]discovery.ContentItem, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, ""),
		ResponseMIMEType:  "application/json",
		ResponseJsonSchema: &genai.Schema{
			Type:  "array",
			Items: contentItemSchema(),
		},
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: req.Instruction}},
	}}

	result, err := p.generateWithRetry(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, err
	}

	items, err := parseContentItems(result.Text())
	if err != nil {
		logrus.WithError(err).WithField("model", p.model).Warn("gemini returned an unparseable item payload")
		return nil, err
	}
	return items, nil
}

// Chat sends the prior turns plus the new message as a plain conversation.
func (p *GeminiContentProvider) Chat(ctx context.Context, system string, history []discovery.ChatTurn, message string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, ""),
	}

	var contents []*genai.Content
	for _, t := range history {
		if t.Text == "" {
			continue
		}
		role := genai.RoleUser
		if t.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: t.Text}},
		})
	}
	contents = append(contents, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: message}},
	})

	result, err := p.generateWithRetry(ctx, p.chatModel, contents, cfg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text()), nil
}

// generateWithRetry retries overload responses (503/429) with exponential
// backoff. Anything else fails immediately.
func (p *GeminiContentProvider) generateWithRetry(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	for i := 0; i < 3; i++ {
		result, err := p.client.Models.GenerateContent(ctx, model, contents, cfg)
		if err == nil {
			return result, nil
		}
		if strings.Contains(err.Error(), "503") || strings.Contains(err.Error(), "429") {
			select {
			case <-time.After(time.Duration(1<<uint(i)) * time.Second):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return nil, err
	}
	return nil, fmt.Errorf("max retries exceeded")
}

func contentItemSchema() *genai.Schema {
	return &genai.Schema{
		Type: "object",
		Properties: map[string]*genai.Schema{
			"id":            {Type: "integer", Description: "Stable numeric identifier for the title."},
			"title":         {Type: "string"},
			"overview":      {Type: "string", Description: "Two or three sentence synopsis."},
			"poster_path":   {Type: "string", Description: "Real TMDB poster file path, or empty."},
			"backdrop_path": {Type: "string", Description: "Real TMDB backdrop file path, or empty."},
			"release_date":  {Type: "string", Description: "ISO date, YYYY-MM-DD."},
			"vote_average":  {Type: "number", Description: "Average rating on a 0-10 scale."},
			"genres":        {Type: "array", Items: &genai.Schema{Type: "string"}},
			"reason":        {Type: "string", Description: "Why this title matches the request."},
		},
		Required: []string{"id", "title", "overview", "vote_average"},
	}
}
