// Package tools defines the document-retrieval tools the agent can invoke
// during a conversation. Each tool satisfies both this package's interface
// and Eino's tool.BaseTool interface so they can be registered directly with
// a ReAct agent. Tools never return a Go error to the agent runtime: every
// outcome, including internal failures, is reported as a structured JSON
// result so the model can react to it.
package tools

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// DocumentTool is the interface all document tools satisfy. It extends the
// basic Eino tool contract with accessors so the agent can log and route
// tool calls by name without type assertions.
type DocumentTool interface {
	// Name returns the unique tool name registered with the agent.
	Name() string

	// Description returns the LLM-facing description of this tool.
	Description() string

	// Info returns the Eino tool metadata including the JSON input schema.
	Info(ctx context.Context) (*schema.ToolInfo, error)

	// InvokableRun executes the tool with JSON-serialised arguments.
	InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error)
}

// statusResult is the common shape of every tool response.
type statusResult struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Action    string   `json:"action,omitempty"`
	Documents []string `json:"documents,omitempty"`
	Count     int      `json:"count,omitempty"`
}

// encodeResult marshals a statusResult; marshal failure cannot realistically
// happen for this shape, but a plain-text error keeps the contract anyway.
func encodeResult(r statusResult) string {
	raw, err := json.Marshal(r)
	if err != nil {
		return `{"status":"error","message":"failed to encode tool result"}`
	}
	return string(raw)
}

// errorResult builds a JSON error response.
func errorResult(message string) string {
	return encodeResult(statusResult{Status: "error", Message: message})
}
