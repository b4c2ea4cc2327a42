package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/sahana-ai/assistant-platform/internal/model"
)

// OpenAIClient is the OpenAI LLM client.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &OpenAIClient{
		client: openai.NewClient(apiKey),
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Models returns available models.
func (c *OpenAIClient) Models() []string {
	return []string{
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4-turbo",
		"gpt-3.5-turbo",
	}
}

// Chat sends a chat request with the declared tools.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	modelName := req.Model
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	messages, err := c.buildMessages(req)
	if err != nil {
		return nil, err
	}

	tools := make([]openai.Tool, len(req.Tools))
	for i, tool := range req.Tools {
		tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    modelName,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	choice := resp.Choices[0].Message
	out := &ChatResponse{
		Text:      choice.Content,
		Model:     resp.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}

	if len(choice.ToolCalls) > 0 {
		call := choice.ToolCalls[0]
		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
			}
		}
		out.FunctionCall = &FunctionCall{
			ID:   call.ID,
			Name: call.Function.Name,
			Args: args,
		}
	}
	return out, nil
}

// GroundedSearch is not available through the OpenAI provider.
func (c *OpenAIClient) GroundedSearch(ctx context.Context, query string) (*SearchResponse, error) {
	return nil, fmt.Errorf("grounded search: %w", ErrNotSupported)
}

// GenerateImage requests one 1024x1024 JPEG-equivalent image and returns it
// as a data URI.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", errors.New("image generation returned no data")
	}
	return "data:image/jpeg;base64," + resp.Data[0].B64JSON, nil
}

func (c *OpenAIClient) buildMessages(req *ChatRequest) ([]openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+4)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, entry := range req.History {
		role := openai.ChatMessageRoleUser
		if entry.Role == model.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		var content string
		for _, p := range entry.Parts {
			content += p.Text
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserText,
	})

	if fr := req.FunctionResult; fr != nil {
		callID := fr.Call.ID
		if callID == "" {
			callID = "call_0"
		}
		args, err := json.Marshal(fr.Call.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tool arguments: %w", err)
		}
		result, err := json.Marshal(fr.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tool result: %w", err)
		}
		messages = append(messages,
			openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   callID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      fr.Call.Name,
						Arguments: string(args),
					},
				}},
			},
			openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: callID,
				Content:    string(result),
			},
		)
	}
	return messages, nil
}
