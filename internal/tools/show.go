package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/manualiq/manualiq-go/internal/display"
	"github.com/manualiq/manualiq-go/internal/logging"
)

// defaultPage is used when the caller does not name a page or the page part
// of a "filename:page" spec does not parse.
const defaultPage = 1

// DisplayDocumentTool queues a show-document command so the presentation
// layer opens a manual page for the user.
type DisplayDocumentTool struct {
	queue *display.Queue
}

// displayInput is the JSON-serialisable input schema for DisplayDocumentTool.
type displayInput struct {
	// Document is the filename, optionally with a page suffix,
	// e.g. "001.pdf" or "001.pdf:5".
	Document string `json:"document"`
}

// NewDisplayDocumentTool constructs a DisplayDocumentTool over the given queue.
func NewDisplayDocumentTool(queue *display.Queue) *DisplayDocumentTool {
	return &DisplayDocumentTool{queue: queue}
}

// Name returns the tool name registered with the agent.
func (t *DisplayDocumentTool) Name() string { return "display_document" }

// Description returns the LLM-facing description of this tool.
func (t *DisplayDocumentTool) Description() string {
	return "Displays a manual document to the user, optionally opened at a specific page. " +
		"Pass the filename returned by find_documents, with an optional ':page' suffix, " +
		"e.g. '001.pdf' or '001.pdf:5'."
}

// Info returns the Eino tool metadata including the JSON input schema.
func (t *DisplayDocumentTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"document": {
				Type:     schema.String,
				Desc:     "Document filename with optional page, e.g. '001.pdf' or '001.pdf:5'.",
				Required: true,
			},
		}),
	}, nil
}

// parseSpec splits a "filename:page" spec. A missing or unparsable page
// defaults to page 1 rather than failing the call.
func parseSpec(spec string) (filename string, page int) {
	filename = spec
	page = defaultPage

	idx := strings.LastIndex(spec, ":")
	if idx < 0 {
		return filename, page
	}

	if p, err := strconv.Atoi(strings.TrimSpace(spec[idx+1:])); err == nil && p > 0 {
		page = p
	}
	return spec[:idx], page
}

// InvokableRun enqueues exactly one display command on success. All failures,
// including panics, are reported in the result body; the returned error is
// always nil.
func (t *DisplayDocumentTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (result string, err error) {
	log := logging.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error("display command panicked", "panic", r)
			result, err = errorResult(fmt.Sprintf("failed to queue display command: %v", r)), nil
		}
	}()

	var input displayInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
		return errorResult(fmt.Sprintf("invalid input: %v", err)), nil
	}

	spec := strings.TrimSpace(input.Document)
	if spec == "" {
		return errorResult("document is required"), nil
	}

	filename, page := parseSpec(spec)
	if filename == "" {
		return errorResult("document is required"), nil
	}

	if err := t.queue.Enqueue(display.ShowDocument(filename, page)); err != nil {
		if errors.Is(err, display.ErrQueueFull) {
			log.Warn("display queue full, command dropped", "document", filename, "page", page)
			return errorResult("display queue is full, try again shortly"), nil
		}
		return errorResult(fmt.Sprintf("failed to queue display command: %v", err)), nil
	}

	label := fmt.Sprintf("%s (page %d)", filename, page)
	log.Debug("display command queued", "document", filename, "page", page)
	return encodeResult(statusResult{
		Status:    "success",
		Action:    "document_display_queued",
		Documents: []string{label},
		Count:     1,
		Message:   fmt.Sprintf("Queued %s for display.", label),
	}), nil
}
