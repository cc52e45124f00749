package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neurowell/support-ai-platform/internal/chat"
	"github.com/neurowell/support-ai-platform/internal/prompts"
	"github.com/neurowell/support-ai-platform/pkg/logging"
)

// NotMentioned is the sentinel substituted when optional extraction fails.
// It distinguishes "the user never said" from an upstream error.
const NotMentioned = "Not Mentioned"

const (
	noHistoryMessage     = "No conversation history found."
	summaryFailurePrefix = "Error generating summary:"
)

// ErrNoHistory aborts synthesis when the user has no chat history; its
// message is the user-facing reply.
var ErrNoHistory = errors.New(noHistoryMessage)

type historyReader interface {
	LastN(ctx context.Context, userID string, n int) ([]chat.Message, error)
}

// Draft holds the structured fields and narrative summary derived from a
// user's chat history.
type Draft struct {
	UserID         string
	Name           string
	Age            string
	PrimaryConcern string
	Summary        string
	GeneratedAt    time.Time
}

// SummaryFailed reports whether the summary carries the failure marker. The
// renderer refuses to produce a document for a failed summary.
func (d *Draft) SummaryFailed() bool {
	return strings.Contains(d.Summary, summaryFailurePrefix)
}

// Synthesizer derives report drafts from chat history via independent
// completion calls. Name, age, and concern are best-effort and degrade
// silently to the sentinel; the summary degrades loudly with a flagged
// failure string.
type Synthesizer struct {
	llm     CompletionClient
	history historyReader
	window  int
	logger  *logging.Logger
}

// NewSynthesizer wires a synthesizer over the completion client and history
// log. window bounds how many recent messages feed each prompt.
func NewSynthesizer(llm CompletionClient, history historyReader, window int, logger *logging.Logger) *Synthesizer {
	if llm == nil {
		panic("report: completion client cannot be nil")
	}
	if history == nil {
		panic("report: history reader cannot be nil")
	}
	if window <= 0 {
		window = 10
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Synthesizer{llm: llm, history: history, window: window, logger: logger}
}

// Synthesize builds a report draft for the user. An empty chat history
// short-circuits before any completion call is issued.
func (s *Synthesizer) Synthesize(ctx context.Context, userID string) (*Draft, error) {
	window, err := s.history.LastN(ctx, userID, s.window)
	if err != nil {
		return nil, fmt.Errorf("Error fetching chat history: %v", err)
	}
	if len(window) == 0 {
		return nil, ErrNoHistory
	}

	historyText := formatHistoryBag(window)

	draft := &Draft{
		UserID:         userID,
		Name:           NotMentioned,
		Age:            NotMentioned,
		PrimaryConcern: s.extractPrimaryConcern(ctx, historyText),
		Summary:        s.summarize(ctx, historyText),
		GeneratedAt:    time.Now().UTC(),
	}
	draft.Name, draft.Age = s.extractUserDetails(ctx, historyText)

	return draft, nil
}

// extractPrimaryConcern asks for a single concern label. Completion errors
// are swallowed and mapped to the sentinel, never propagated.
func (s *Synthesizer) extractPrimaryConcern(ctx context.Context, historyText string) string {
	text, err := s.llm.Complete(ctx, fmt.Sprintf(prompts.PrimaryConcern(), historyText))
	if err != nil {
		s.logger.Warn("primary concern extraction failed", "error", err)
		return NotMentioned
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "Primary Concern:"))
	if text == "" {
		return NotMentioned
	}
	return text
}

// extractUserDetails parses "Name: <x>, Age: <y>" by locating the literal
// markers. Any call or parse failure maps both fields to the sentinel.
func (s *Synthesizer) extractUserDetails(ctx context.Context, historyText string) (string, string) {
	text, err := s.llm.Complete(ctx, fmt.Sprintf(prompts.UserDetails(), historyText))
	if err != nil {
		s.logger.Warn("user detail extraction failed", "error", err)
		return NotMentioned, NotMentioned
	}

	name, age := NotMentioned, NotMentioned
	if idx := strings.Index(text, "Name:"); idx >= 0 {
		rest := text[idx+len("Name:"):]
		if comma := strings.Index(rest, ","); comma >= 0 {
			rest = rest[:comma]
		}
		if v := strings.TrimSpace(rest); v != "" {
			name = v
		}
	}
	if idx := strings.Index(text, "Age:"); idx >= 0 {
		if v := strings.TrimSpace(text[idx+len("Age:"):]); v != "" {
			age = v
		}
	}
	return name, age
}

// summarize produces the counselor-facing narrative. Unlike the extraction
// steps, a failure here is flagged in the returned string so the renderer
// can refuse to produce a document.
func (s *Synthesizer) summarize(ctx context.Context, historyText string) string {
	text, err := s.llm.Complete(ctx, fmt.Sprintf(prompts.Summary(), historyText))
	if err != nil {
		s.logger.Error("summary generation failed", "error", err)
		return fmt.Sprintf("%s %v", summaryFailurePrefix, err)
	}
	return strings.TrimSpace(strings.TrimPrefix(text, "Summary:"))
}

// formatHistoryBag renders the window as plain lines. Ordering is
// irrelevant for synthesis prompts; the window arrives most-recent-first
// and is passed through as-is.
func formatHistoryBag(window []chat.Message) string {
	lines := make([]string, 0, len(window))
	for _, msg := range window {
		lines = append(lines, msg.Text)
	}
	return strings.Join(lines, "\n")
}
