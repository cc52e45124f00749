package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/neurowell/support-ai-platform/internal/observability/metrics"
	"github.com/neurowell/support-ai-platform/internal/prompts"
	"github.com/neurowell/support-ai-platform/pkg/logging"
)

var routerTracer = otel.Tracer("neurowell/conversation-router")

// ErrEmptyMessage rejects messages that are empty after trimming. It is the
// only failure surfaced as a client error; everything else comes back as an
// ordinary chat response.
var ErrEmptyMessage = errors.New("chat: message cannot be empty")

// ErrAlreadyEscalated is returned by escalation guards when a record with
// requested=true already exists for the user.
var ErrAlreadyEscalated = errors.New("chat: escalation already requested")

// Outcome is the terminal routing decision for one message. State is not
// held across invocations; every message re-enters the router fresh.
type Outcome string

const (
	OutcomeAlreadyEscalated Outcome = "already_escalated"
	OutcomeEscalating       Outcome = "escalating"
	OutcomeComforting       Outcome = "comforting"
	OutcomeAnswering        Outcome = "answering"
)

const (
	alreadyForwardedReply = "Your request has already been forwarded to our counselor. They will reach out to you soon."
	escalatedReplyFormat  = "Your request has been forwarded to our counselor. Here's the report: [Download Report](%s)."
	neutralComfortReply   = "I'm glad to hear that! Let me know if there's anything else I can help with."
	fallbackReply         = "I'm having a little trouble responding right now, but I'm still here with you. Could you say that again?"

	escalationSummary = "User requested counselor connection"
)

// escalationPhrases trigger the counselor handoff; matching is a
// case-insensitive substring test and takes precedence over emotion routing.
var escalationPhrases = []string{"connect me", "meet"}

// EscalationGuard checks and records counselor escalations with at-most-once
// semantics per user. Record must be an atomic insert-if-absent returning
// ErrAlreadyEscalated when a concurrent request already won.
type EscalationGuard interface {
	AlreadyRequested(ctx context.Context, userID string) (bool, error)
	Record(ctx context.Context, userID, summary, pdfRef string) error
}

// ReportGenerator runs the synthesize/render/store pipeline and returns the
// stored report filename. A returned error carries the user-facing failure
// message produced by whichever step failed.
type ReportGenerator interface {
	Generate(ctx context.Context, userID string) (string, error)
}

// Router decides, per inbound message, which response strategy applies.
type Router struct {
	history    *HistoryStore
	guard      EscalationGuard
	reports    ReportGenerator
	answerer   *Answerer
	llm        LLMClient
	windowSize int
	logger     *logging.Logger
	metrics    *metrics.ChatMetrics
}

// NewRouter wires the conversation router.
func NewRouter(history *HistoryStore, guard EscalationGuard, reports ReportGenerator, answerer *Answerer, llm LLMClient, windowSize int, logger *logging.Logger, m *metrics.ChatMetrics) *Router {
	if history == nil {
		panic("chat: history store cannot be nil")
	}
	if guard == nil {
		panic("chat: escalation guard cannot be nil")
	}
	if reports == nil {
		panic("chat: report generator cannot be nil")
	}
	if answerer == nil {
		panic("chat: answerer cannot be nil")
	}
	if llm == nil {
		panic("chat: llm client cannot be nil")
	}
	if windowSize <= 0 {
		windowSize = 3
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Router{
		history:    history,
		guard:      guard,
		reports:    reports,
		answerer:   answerer,
		llm:        llm,
		windowSize: windowSize,
		logger:     logger,
		metrics:    m,
	}
}

// Route handles one inbound message and returns the terminal outcome plus
// the user-facing reply. Steps run in strict order: validation, history
// append, escalation short-circuit, escalation phrase, emotion, open-domain
// answer. Failures past validation come back as ordinary replies.
func (r *Router) Route(ctx context.Context, userID, text string) (Outcome, string, error) {
	ctx, span := routerTracer.Start(ctx, "chat.route")
	defer span.End()
	span.SetAttributes(attribute.String("neurowell.user_id", userID))

	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return "", "", ErrEmptyMessage
	}

	// The message is logged before any routing so escalation and error
	// paths still leave an auditable trail.
	if err := r.history.Append(ctx, Message{UserID: userID, Role: RoleUser, Text: normalized}); err != nil {
		span.RecordError(err)
		return "", "", fmt.Errorf("chat: persist message: %w", err)
	}

	window, err := r.history.LastN(ctx, userID, r.windowSize)
	if err != nil {
		span.RecordError(err)
		return "", "", fmt.Errorf("chat: load conversation window: %w", err)
	}

	requested, err := r.guard.AlreadyRequested(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return "", "", fmt.Errorf("chat: check escalation state: %w", err)
	}
	if requested {
		r.observe(OutcomeAlreadyEscalated)
		return OutcomeAlreadyEscalated, alreadyForwardedReply, nil
	}

	if containsEscalationPhrase(normalized) {
		outcome, reply := r.escalate(ctx, userID)
		r.observe(outcome)
		return outcome, reply, nil
	}

	if emotion := Classify(normalized); emotion != EmotionNeutral {
		r.observe(OutcomeComforting)
		return OutcomeComforting, r.comfort(ctx, emotion), nil
	}

	start := time.Now()
	answer, err := r.answerer.Answer(ctx, normalized, window)
	r.metrics.ObserveCompletionLatency("groq", time.Since(start).Seconds())
	if err != nil {
		// Upstream failures are rendered as a fallback chat reply, not a
		// protocol-level error.
		span.RecordError(err)
		r.logger.Error("retrieval-augmented answer failed", "user_id", userID, "error", err)
		r.observe(OutcomeAnswering)
		return OutcomeAnswering, fallbackReply, nil
	}

	r.observe(OutcomeAnswering)
	return OutcomeAnswering, answer, nil
}

// escalate runs the report pipeline end-to-end and records the escalation
// only after the report is fully stored. A pipeline failure becomes the
// reply and no escalation record is written.
func (r *Router) escalate(ctx context.Context, userID string) (Outcome, string) {
	filename, err := r.reports.Generate(ctx, userID)
	if err != nil {
		r.logger.Error("report generation failed", "user_id", userID, "error", err)
		return OutcomeEscalating, err.Error()
	}

	if err := r.guard.Record(ctx, userID, escalationSummary, filename); err != nil {
		if errors.Is(err, ErrAlreadyEscalated) {
			// A concurrent request won the conditional insert.
			return OutcomeAlreadyEscalated, alreadyForwardedReply
		}
		r.logger.Error("escalation record failed", "user_id", userID, "error", err)
		return OutcomeEscalating, err.Error()
	}

	r.logger.Info("conversation escalated to counselor", "user_id", userID, "report", filename)
	return OutcomeEscalating, fmt.Sprintf(escalatedReplyFormat, filename)
}

// comfort issues one completion call naming the detected emotion. The
// neutral branch keeps its fixed sentence even though routing never reaches
// it with a neutral label.
func (r *Router) comfort(ctx context.Context, emotion EmotionLabel) string {
	if emotion == EmotionNeutral {
		return neutralComfortReply
	}

	start := time.Now()
	resp, err := r.llm.Complete(ctx, LLMRequest{
		System: fmt.Sprintf(prompts.Comfort(), emotion),
		Turns:  []Turn{{Role: RoleUser, Content: fmt.Sprintf("I feel %s.", emotion)}},
	})
	r.metrics.ObserveCompletionLatency("groq", time.Since(start).Seconds())
	if err != nil {
		r.logger.Error("comfort reply failed", "emotion", emotion, "error", err)
		return fallbackReply
	}
	return resp.Text
}

func (r *Router) observe(outcome Outcome) {
	r.metrics.ObserveRouted(string(outcome))
}

func containsEscalationPhrase(text string) bool {
	for _, phrase := range escalationPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
