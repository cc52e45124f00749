package report

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"

	"github.com/neurowell/support-ai-platform/internal/observability/metrics"
	"github.com/neurowell/support-ai-platform/pkg/logging"
)

var pipelineTracer = otel.Tracer("neurowell.internal.report.pipeline")

type draftSynthesizer interface {
	Synthesize(ctx context.Context, userID string) (*Draft, error)
}

type documentRenderer interface {
	Render(draft *Draft) (*RenderedDocument, error)
}

type documentStore interface {
	Save(ctx context.Context, draft *Draft, doc *RenderedDocument) (string, error)
}

// Pipeline runs synthesize, render, store in order and returns the stored
// object key. It satisfies the chat router's report generator contract:
// the first failing step aborts the run and its error message becomes the
// user-facing reply.
type Pipeline struct {
	synthesizer draftSynthesizer
	renderer    documentRenderer
	store       documentStore
	logger      *logging.Logger
	metrics     *metrics.ChatMetrics
}

func NewPipeline(synthesizer draftSynthesizer, renderer documentRenderer, store documentStore, logger *logging.Logger, m *metrics.ChatMetrics) *Pipeline {
	if synthesizer == nil {
		panic("report: synthesizer cannot be nil")
	}
	if renderer == nil {
		panic("report: renderer cannot be nil")
	}
	if store == nil {
		panic("report: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Pipeline{synthesizer: synthesizer, renderer: renderer, store: store, logger: logger, metrics: m}
}

// Generate produces and persists the counselor report for the user.
func (p *Pipeline) Generate(ctx context.Context, userID string) (string, error) {
	ctx, span := pipelineTracer.Start(ctx, "report.pipeline.generate")
	defer span.End()

	draft, err := p.synthesizer.Synthesize(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNoHistory) {
			span.RecordError(err)
		}
		p.metrics.ObserveReport("synthesis_failed")
		p.logger.Warn("report synthesis failed", "user_id", userID, "error", err)
		return "", err
	}

	doc, err := p.renderer.Render(draft)
	if err != nil {
		span.RecordError(err)
		p.metrics.ObserveReport("render_failed")
		p.logger.Error("report render failed", "user_id", userID, "error", err)
		return "", err
	}

	key, err := p.store.Save(ctx, draft, doc)
	if err != nil {
		span.RecordError(err)
		p.metrics.ObserveReport("store_failed")
		p.logger.Error("report store failed", "user_id", userID, "error", err)
		return "", err
	}

	p.metrics.ObserveReport("success")
	p.logger.Info("report generated", "user_id", userID, "key", key)
	return key, nil
}
