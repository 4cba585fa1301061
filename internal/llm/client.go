package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"storyline/internal/suggest"
	"storyline/internal/timeline"
)

// Client is the Suggestion Service client. It speaks the OpenAI chat
// completions protocol, which llama.cpp and most hosted models expose.
type Client struct {
	BaseURL string
	Model   string
	client  *openai.Client
}

// NewClient creates a new suggestion client. baseURL is the server root;
// requests go to baseURL/v1/chat/completions.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		BaseURL: baseURL,
		Model:   model,
		client:  openai.NewClientWithConfig(cfg),
	}
}

// Continue returns an inline continuation for the active scene of req.
func (c *Client) Continue(ctx context.Context, req suggest.Request) (string, error) {
	req.Mode = suggest.ModeContinue

	content, err := c.complete(ctx, req, continueParams, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(content, " \n"), nil
}

// GenerateScene asks for a complete new scene. The reply must be a JSON
// object; anything else is a *timeline.MalformedResponseError and nothing is
// returned.
func (c *Client) GenerateScene(ctx context.Context, req suggest.Request) (suggest.GeneratedScene, error) {
	req.Mode = suggest.ModeScene

	format := &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	content, err := c.complete(ctx, req, sceneParams, format)
	if err != nil {
		return suggest.GeneratedScene{}, err
	}

	return parseGeneratedScene(content)
}

func (c *Client) complete(ctx context.Context, req suggest.Request, params GenerationParams, format *openai.ChatCompletionResponseFormat) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.Mode)},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
		MaxTokens:      params.MaxTokens,
		Temperature:    params.Temperature,
		ResponseFormat: format,
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", &timeline.NetworkError{Op: "suggestion " + string(req.Mode), Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &timeline.MalformedResponseError{Err: errors.New("no choices returned")}
	}

	return resp.Choices[0].Message.Content, nil
}

func parseGeneratedScene(content string) (suggest.GeneratedScene, error) {
	raw := stripCodeFence(content)

	var payload generatedScenePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return suggest.GeneratedScene{}, &timeline.MalformedResponseError{
			Payload: content,
			Err:     fmt.Errorf("failed to decode scene: %w", err),
		}
	}
	if strings.TrimSpace(payload.Content) == "" {
		return suggest.GeneratedScene{}, &timeline.MalformedResponseError{
			Payload: content,
			Err:     errors.New("scene content is empty"),
		}
	}

	scene := suggest.GeneratedScene{
		Content: payload.Content,
		Title:   strings.TrimSpace(payload.Title),
	}
	for _, ch := range payload.NewCharacters {
		name := strings.TrimSpace(ch.Name)
		if name == "" {
			continue
		}
		scene.NewCharacters = append(scene.NewCharacters, suggest.CharacterBrief{
			Name:        name,
			Role:        ch.Role,
			Description: ch.Description,
		})
	}
	return scene, nil
}
