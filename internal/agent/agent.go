// Package agent wires together the Eino ReAct agent with the document
// retrieval tools to form the ManualIQ assistant. The agent handles the full
// ReAct loop: it decides when to search the manual catalog, when to queue a
// document for display, and when to respond directly.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"github.com/manualiq/manualiq-go/internal/budget"
	"github.com/manualiq/manualiq-go/internal/logging"
	"github.com/manualiq/manualiq-go/internal/store"
)

// systemPrompt is the base system prompt injected into every conversation.
// It establishes the agent's persona and the tool-use workflow.
const systemPrompt = `You are ManualIQ, a helpful assistant for the residents of a serviced
apartment building. Every appliance and fixture in the building — ovens,
washing machines, dishwashers, thermostats, intercoms — has its instruction
manual stored as a PDF in the building's document catalog.

Your job is to answer residents' questions about their appliances by finding
the right manual and showing them the right page.

## How You Work

1. When a resident asks about an appliance, call find_documents with a short
   description of the appliance or topic. It returns a ranked list of manual
   filenames with relevance scores.
2. Once you know which manual is relevant, call display_document to open it
   for the resident. Pass the filename, with an optional ':page' suffix when
   you know the page, e.g. '052.pdf:12'.
3. Answer in plain language. Residents are not technicians — avoid jargon,
   and refer to the manual you displayed rather than reciting long passages.

## Rules

- Always search before claiming a manual does or does not exist.
- If find_documents returns no results, say so and suggest the resident
  rephrase — never invent a filename.
- Display at most one document per answer unless the resident asks to
  compare manuals.
- If a tool reports an error, tell the resident something went wrong and
  suggest trying again; do not retry the tool in a loop.`

// Config holds the dependencies required to construct a ManualAgent.
type Config struct {
	// ChatModel is the LLM backend constructed by the provider factory.
	ChatModel model.ToolCallingChatModel

	// Tools is the list of document tools available to the agent.
	Tools []tool.BaseTool

	// History is the optional conversation store used to persist and replay
	// prior turns. If nil, each query is stateless.
	History store.ConversationStore

	// HistoryDepth is the number of prior turns (user+assistant pairs) to
	// inject per query. Defaults to 10 if zero.
	HistoryDepth int

	// MaxContextTokens is the estimated token budget for the full input
	// context (system prompt + history + user message). History is trimmed
	// oldest-first to fit. Defaults to budget.DefaultMaxContextTokens if zero.
	MaxContextTokens int
}

// ManualAgent wraps the Eino ReAct agent with ManualIQ-specific behaviour:
// conversation history injection and token budget enforcement.
type ManualAgent struct {
	reactAgent *react.Agent

	history          store.ConversationStore
	historyDepth     int
	maxContextTokens int
}

// New constructs a ManualAgent from the provided Config.
func New(ctx context.Context, cfg *Config) (*ManualAgent, error) {
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("agent: ChatModel must not be nil")
	}

	reactAgent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: cfg.ChatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: cfg.Tools,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("agent: failed to create ReAct agent: %w", err)
	}

	depth := cfg.HistoryDepth
	if depth <= 0 {
		depth = 10
	}

	maxCtx := cfg.MaxContextTokens
	if maxCtx <= 0 {
		maxCtx = budget.DefaultMaxContextTokens
	}

	return &ManualAgent{
		reactAgent:       reactAgent,
		history:          cfg.History,
		historyDepth:     depth,
		maxContextTokens: maxCtx,
	}, nil
}

// Query sends a user message to the agent and streams the response to the
// provided writer. If a conversation store is configured, prior turns for the
// session are injected and the new turn is persisted after completion.
func (a *ManualAgent) Query(ctx context.Context, userMessage, sessionID string, w io.Writer) error {
	messages := a.buildMessages(ctx, userMessage, sessionID)

	sr, err := a.reactAgent.Stream(ctx, messages)
	if err != nil {
		return fmt.Errorf("agent: stream failed: %w", err)
	}
	defer sr.Close()

	var msgBuf strings.Builder
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("agent: stream receive error: %w", err)
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		msgBuf.WriteString(msg.Content)
		if _, err := fmt.Fprint(w, msg.Content); err != nil {
			return fmt.Errorf("agent: write error: %w", err)
		}
	}

	// Persist the turn to the conversation store (non-fatal on error).
	if a.history != nil {
		if err := a.history.Append(ctx, sessionID, store.RoleUser, userMessage); err != nil {
			logging.FromContext(ctx).Warn("history: failed to persist user message", slog.Any("error", err))
		}
		if err := a.history.Append(ctx, sessionID, store.RoleAssistant, msgBuf.String()); err != nil {
			logging.FromContext(ctx).Warn("history: failed to persist assistant message", slog.Any("error", err))
		}
	}

	return nil
}

// buildMessages constructs the message slice for the agent: system prompt,
// trimmed conversation history, then the current user message.
func (a *ManualAgent) buildMessages(ctx context.Context, userMessage, sessionID string) []*schema.Message {
	system := schema.SystemMessage(systemPrompt)
	user := schema.UserMessage(userMessage)

	var historyMsgs []*schema.Message
	if a.history != nil {
		prior, err := a.history.Recent(ctx, sessionID, a.historyDepth*2)
		if err != nil {
			logging.FromContext(ctx).Warn("history: failed to load prior messages", slog.Any("error", err))
		} else {
			for _, m := range prior {
				switch m.Role {
				case store.RoleUser:
					historyMsgs = append(historyMsgs, schema.UserMessage(m.Content))
				case store.RoleAssistant:
					historyMsgs = append(historyMsgs, schema.AssistantMessage(m.Content, nil))
				}
			}
		}
	}

	fixed := []*schema.Message{system, user}
	before := len(historyMsgs)
	historyMsgs = budget.TrimHistory(fixed, historyMsgs, a.maxContextTokens)
	if dropped := before - len(historyMsgs); dropped > 0 {
		logging.FromContext(ctx).Warn("budget: dropped history messages to fit context window",
			slog.Int("dropped", dropped),
			slog.Int("retained", len(historyMsgs)),
			slog.Int("max_tokens", a.maxContextTokens),
		)
	}

	result := make([]*schema.Message, 0, 2+len(historyMsgs))
	result = append(result, system)
	result = append(result, historyMsgs...)
	result = append(result, user)
	return result
}
