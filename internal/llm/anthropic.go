package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sahana-ai/assistant-platform/internal/model"
)

// AnthropicClient is the Anthropic LLM client. It serves the no-tool path
// of the turn protocol only; tool declarations are not forwarded and tool
// invocations are never returned.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// Models returns available models.
func (c *AnthropicClient) Models() []string {
	return []string{
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
		"claude-3-opus-20240229",
		"claude-3-haiku-20240307",
	}
}

// Chat sends a text-only chat request.
func (c *AnthropicClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req.FunctionResult != nil {
		return nil, fmt.Errorf("tool result resubmission: %w", ErrNotSupported)
	}

	start := time.Now()

	modelName := req.Model
	if modelName == "" {
		modelName = "claude-3-5-sonnet-20241022"
	}

	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, entry := range req.History {
		role := anthropic.MessageParamRoleUser
		if entry.Role == model.RoleModel {
			role = anthropic.MessageParamRoleAssistant
		}
		var content string
		for _, p := range entry.Parts {
			content += p.Text
		}
		messages = append(messages, anthropic.MessageParam{
			Role: anthropic.F(role),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{
				anthropic.TextBlockParam{
					Type: anthropic.F(anthropic.TextBlockParamTypeText),
					Text: anthropic.F(content),
				},
			}),
		})
	}
	messages = append(messages, anthropic.MessageParam{
		Role: anthropic.F(anthropic.MessageParamRoleUser),
		Content: anthropic.F([]anthropic.ContentBlockParamUnion{
			anthropic.TextBlockParam{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(req.UserText),
			},
		}),
	})

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(modelName),
		MaxTokens: anthropic.F(int64(4096)),
		Messages:  anthropic.F(messages),
	}
	if req.System != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{{
			Type: anthropic.F(anthropic.TextBlockParamTypeText),
			Text: anthropic.F(req.System),
		}})
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}

	return &ChatResponse{
		Text:      content,
		Model:     resp.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// GroundedSearch is not available through the Anthropic provider.
func (c *AnthropicClient) GroundedSearch(ctx context.Context, query string) (*SearchResponse, error) {
	return nil, fmt.Errorf("grounded search: %w", ErrNotSupported)
}

// GenerateImage is not available through the Anthropic provider.
func (c *AnthropicClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("image generation: %w", ErrNotSupported)
}
