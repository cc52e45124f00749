package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/neurowell/support-ai-platform/internal/prompts"
	"github.com/neurowell/support-ai-platform/pkg/logging"
)

// Retriever exposes the vector-index query capability the answerer needs.
type Retriever interface {
	Query(ctx context.Context, query string, topK int) ([]string, error)
}

// Answerer produces retrieval-augmented answers: it combines top-k relevant
// knowledge-base chunks, the recent conversation window, and the question
// into a single persona prompt and issues one completion call.
type Answerer struct {
	llm       LLMClient
	retriever Retriever
	topK      int
	logger    *logging.Logger
}

// NewAnswerer wires an answerer over the given completion client and retriever.
func NewAnswerer(llm LLMClient, retriever Retriever, topK int, logger *logging.Logger) *Answerer {
	if llm == nil {
		panic("chat: llm client cannot be nil")
	}
	if retriever == nil {
		panic("chat: retriever cannot be nil")
	}
	if topK <= 0 {
		topK = 3
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Answerer{llm: llm, retriever: retriever, topK: topK, logger: logger}
}

// Answer returns the completion service's reply verbatim. Errors from the
// retriever or the completion service propagate to the caller; no local
// recovery is attempted here.
func (a *Answerer) Answer(ctx context.Context, question string, window []Message) (string, error) {
	chunks, err := a.retriever.Query(ctx, question, a.topK)
	if err != nil {
		return "", fmt.Errorf("chat: retrieve context: %w", err)
	}

	prompt := fmt.Sprintf(prompts.Persona(),
		formatHistory(window),
		strings.Join(chunks, "\n\n"),
		question,
	)

	resp, err := a.llm.Complete(ctx, LLMRequest{
		Turns: []Turn{{Role: RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	a.logger.Debug("retrieval-augmented answer generated",
		"chunks", len(chunks),
		"window", len(window),
	)
	return resp.Text, nil
}

// formatHistory renders a most-recent-first window in chronological order,
// the way dialogue context is fed to the completion service.
func formatHistory(window []Message) string {
	if len(window) == 0 {
		return "(no prior messages)"
	}
	var b strings.Builder
	for _, msg := range Chronological(window) {
		role := "User"
		if msg.Role == RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, msg.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
