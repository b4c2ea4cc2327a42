// Package assistant implements the conversational turn protocol: one chat
// round trip, an optional tool dispatch, and the final synthesis.
package assistant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sahana-ai/assistant-platform/internal/events"
	"github.com/sahana-ai/assistant-platform/internal/llm"
	"github.com/sahana-ai/assistant-platform/internal/model"
	"github.com/sahana-ai/assistant-platform/pkg/logger"
	"github.com/sahana-ai/assistant-platform/pkg/metrics"
)

const systemInstruction = "You are a friendly personal assistant for Sri Lankan users. " +
	"Answer in Sinhala when the user writes in Sinhala, otherwise answer in the user's language. " +
	"Keep answers short and conversational; they may be read aloud. " +
	"Use the declared tools when a question needs current information, an image, or the time."

// Reply is the outcome of one completed turn: exactly one synthesized text,
// plus the invoked tool's structured byproduct when there was one.
type Reply struct {
	Text          string
	ImageURL      string
	SearchResults []model.SearchResult
}

// Client orchestrates conversational turns against an LLM provider.
type Client struct {
	llm    llm.Client
	events *events.Publisher
	logger *logger.Logger
	model  string
	clock  func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the provider's default chat model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithClock overrides the wall clock. Used in tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Client) { c.clock = clock }
}

// New creates a new assistant client.
func New(llmClient llm.Client, pub *events.Publisher, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		llm:    llmClient,
		events: pub,
		logger: log,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Converse runs one turn: submit the user text with history and the
// declared tool set; if the model requests a tool, execute it and resubmit
// the result for the final synthesis. Tool-internal failures degrade to a
// textual result fed back to the model; only remote-call faults and
// contract violations surface as errors.
func (c *Client) Converse(ctx context.Context, username, userText string, history []model.HistoryEntry) (*Reply, error) {
	first, err := c.chat(ctx, &llm.ChatRequest{
		Model:    c.model,
		System:   systemInstruction,
		History:  history,
		UserText: userText,
		Tools:    Declarations(),
	})
	if err != nil {
		c.events.Publish(model.EventTypeRemoteFault, username, err.Error(), nil)
		return nil, err
	}

	if first.FunctionCall == nil {
		return &Reply{Text: first.Text}, nil
	}

	call := first.FunctionCall
	result, byproduct, err := c.dispatch(ctx, username, call)
	if err != nil {
		return nil, err
	}

	final, err := c.chat(ctx, &llm.ChatRequest{
		Model:    c.model,
		System:   systemInstruction,
		History:  history,
		UserText: userText,
		Tools:    Declarations(),
		FunctionResult: &llm.FunctionResult{
			Call:    call,
			Content: result,
		},
	})
	if err != nil {
		c.events.Publish(model.EventTypeRemoteFault, username, err.Error(), nil)
		return nil, err
	}

	reply := &Reply{Text: final.Text}
	if byproduct != nil {
		reply.ImageURL = byproduct.ImageURL
		reply.SearchResults = byproduct.SearchResults
	}
	return reply, nil
}

// byproduct carries the structured output a tool attaches to the final
// reply.
type byproduct struct {
	ImageURL      string
	SearchResults []model.SearchResult
}

func (c *Client) dispatch(ctx context.Context, username string, call *llm.FunctionCall) (map[string]any, *byproduct, error) {
	c.logger.Info("tool invocation requested",
		zap.String("tool", call.Name),
		zap.String("username", username),
	)
	c.events.Publish(model.EventTypeToolInvoked, username, call.Name, call.Args)

	switch call.Name {
	case ToolSearchTheWeb:
		query := stringArg(call.Args, "query")
		search, err := c.llm.GroundedSearch(ctx, query)
		if err != nil {
			metrics.ToolInvocationsTotal.WithLabelValues(call.Name, "failure").Inc()
			c.logger.Warn("search tool failed", zap.Error(err))
			return map[string]any{"error": "the web search failed"}, nil, nil
		}
		metrics.ToolInvocationsTotal.WithLabelValues(call.Name, "success").Inc()
		return map[string]any{"summary": search.Summary},
			&byproduct{SearchResults: search.Sources}, nil

	case ToolGenerateImage:
		prompt := stringArg(call.Args, "prompt")
		imageURL, err := c.llm.GenerateImage(ctx, prompt)
		if err != nil {
			metrics.ToolInvocationsTotal.WithLabelValues(call.Name, "failure").Inc()
			c.logger.Warn("image tool failed", zap.Error(err))
			return map[string]any{"error": "the image could not be generated"}, nil, nil
		}
		metrics.ToolInvocationsTotal.WithLabelValues(call.Name, "success").Inc()
		return map[string]any{"result": "image generated and shown to the user"},
			&byproduct{ImageURL: imageURL}, nil

	case ToolGetCurrentTime:
		metrics.ToolInvocationsTotal.WithLabelValues(call.Name, "success").Inc()
		now := c.clock()
		return map[string]any{"time": now.Format("Monday, 2 January 2006 3:04 PM")}, nil, nil

	default:
		// The declared capability set has drifted from the implementation.
		// This must stay observable, not degrade quietly into an apology.
		metrics.ContractViolationsTotal.Inc()
		c.logger.Error("unknown tool requested by model",
			zap.String("tool", call.Name),
			zap.String("username", username),
		)
		c.events.Publish(model.EventTypeContractViolation, username, call.Name, nil)
		return nil, nil, &UnknownToolError{Name: call.Name}
	}
}

func (c *Client) chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	start := time.Now()
	resp, err := c.llm.Chat(ctx, req)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordLLMRequest(c.llm.Name(), status, time.Since(start).Seconds())
	return resp, err
}
