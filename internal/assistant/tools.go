package assistant

import (
	"fmt"

	"github.com/sahana-ai/assistant-platform/internal/llm"
)

// Tool names declared to the remote model. The dispatch switch in Converse
// must cover every name listed here; a response naming anything else is a
// contract violation.
const (
	ToolSearchTheWeb   = "searchTheWeb"
	ToolGenerateImage  = "generateImage"
	ToolGetCurrentTime = "getCurrentTime"
)

// UnknownToolError indicates the model requested a tool the client does not
// implement. This is a programming-level fault: the declared capability set
// has drifted from the implementation.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("model requested unknown tool %q", e.Name)
}

// Declarations returns the tool set declared on every chat call.
func Declarations() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        ToolSearchTheWeb,
			Description: "Search the web for current information and return a grounded summary with sources.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query.",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        ToolGenerateImage,
			Description: "Generate a single image from a text prompt.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"prompt": map[string]any{
						"type":        "string",
						"description": "A detailed description of the image to generate.",
					},
				},
				"required": []string{"prompt"},
			},
		},
		{
			Name:        ToolGetCurrentTime,
			Description: "Get the current local date and time. Takes no arguments.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
