// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"

	"github.com/sahana-ai/assistant-platform/internal/model"
)

// ErrNotSupported is returned by providers for capabilities they lack.
var ErrNotSupported = errors.New("operation not supported by provider")

// ToolDefinition declares a callable tool to the remote model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// FunctionCall is a structured request from the model to execute a tool.
type FunctionCall struct {
	// ID is the provider-assigned call identifier, empty when the provider
	// does not use one.
	ID   string
	Name string
	Args map[string]any
}

// FunctionResult carries a tool's output back to the model for the final
// synthesis.
type FunctionResult struct {
	Call    *FunctionCall
	Content map[string]any
}

// ChatRequest represents one remote chat call.
type ChatRequest struct {
	Model    string
	System   string
	History  []model.HistoryEntry
	UserText string
	Tools    []ToolDefinition

	// FunctionResult, when set, resubmits a tool result as the follow-up
	// message of the same exchange.
	FunctionResult *FunctionResult
}

// ChatResponse represents the model's reply: either text or a tool
// invocation request.
type ChatResponse struct {
	Text         string
	FunctionCall *FunctionCall
	Model        string
	LatencyMs    int64
}

// SearchResponse is a grounded-search summary with cited sources in
// relevance order.
type SearchResponse struct {
	Summary string
	Sources []model.SearchResult
}

// Client is the interface for LLM providers.
type Client interface {
	// Chat sends a chat request and returns the response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// GroundedSearch performs a search-grounded call and returns a summary
	// with cited sources.
	GroundedSearch(ctx context.Context, query string) (*SearchResponse, error)

	// GenerateImage requests a single 1:1 image and returns it as a
	// data:image/jpeg;base64 URI.
	GenerateImage(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// NewClient creates a new LLM client based on provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	default:
		return NewGeminiClient(apiKey)
	}
}
