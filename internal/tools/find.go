package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/manualiq/manualiq-go/internal/logging"
	"github.com/manualiq/manualiq-go/internal/search"
)

// FindDocumentsTool searches the manual catalog for documents relevant to a
// natural-language query and returns a ranked list of document names.
type FindDocumentsTool struct {
	engine *search.Engine
}

// findInput is the JSON-serialisable input schema for FindDocumentsTool.
type findInput struct {
	// Query is the natural-language description of what the user needs.
	Query string `json:"query"`
}

// NewFindDocumentsTool constructs a FindDocumentsTool over the given engine.
func NewFindDocumentsTool(engine *search.Engine) *FindDocumentsTool {
	return &FindDocumentsTool{engine: engine}
}

// Name returns the tool name registered with the agent.
func (t *FindDocumentsTool) Name() string { return "find_documents" }

// Description returns the LLM-facing description of this tool.
func (t *FindDocumentsTool) Description() string {
	return "Searches the appliance manual catalog for documents relevant to a query. " +
		"Returns a ranked list of document filenames with relevance scores. " +
		"Use this first to discover which manual covers the user's appliance or question."
}

// Info returns the Eino tool metadata including the JSON input schema.
func (t *FindDocumentsTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Natural-language description of the appliance or topic to look up.",
				Required: true,
			},
		}),
	}, nil
}

// InvokableRun runs the search and returns a structured JSON result. All
// failures, including panics, are reported in the result body; the returned
// error is always nil so the agent runtime never sees an exception from this
// boundary.
func (t *FindDocumentsTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (result string, err error) {
	log := logging.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error("document search panicked", "panic", r)
			result, err = errorResult(fmt.Sprintf("search failed: %v", r)), nil
		}
	}()

	var input findInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
		return errorResult(fmt.Sprintf("invalid input: %v", err)), nil
	}
	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query is required"), nil
	}

	results, err := t.engine.Search(ctx, input.Query)
	if err != nil {
		log.Error("document search failed", "query", input.Query, "error", err)
		if errors.Is(err, search.ErrEmbeddingFailed) {
			return errorResult("failed to generate embedding for query"), nil
		}
		return errorResult(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return encodeResult(statusResult{
			Status:  "success",
			Message: "No documents found matching the query.",
		}), nil
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s (relevance: %.3f)", i+1, r.DocumentID, r.Similarity)
	}

	log.Debug("document search completed", "query", input.Query, "results", len(results))
	return encodeResult(statusResult{
		Status:  "success",
		Message: sb.String(),
	}), nil
}
