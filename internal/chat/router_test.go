package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGuard struct {
	requested  bool
	checkErr   error
	recordErr  error
	recorded   int
	lastPDFRef string
	lastSummry string
}

func (g *fakeGuard) AlreadyRequested(_ context.Context, _ string) (bool, error) {
	return g.requested, g.checkErr
}

func (g *fakeGuard) Record(_ context.Context, _, summary, pdfRef string) error {
	if g.recordErr != nil {
		return g.recordErr
	}
	g.recorded++
	g.requested = true
	g.lastSummry = summary
	g.lastPDFRef = pdfRef
	return nil
}

type fakeReports struct {
	filename string
	err      error
	calls    int
}

func (r *fakeReports) Generate(_ context.Context, _ string) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return r.filename, nil
}

type fakeLLM struct {
	reply string
	err   error
	reqs  []LLMRequest
}

func (l *fakeLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	l.reqs = append(l.reqs, req)
	if l.err != nil {
		return LLMResponse{}, l.err
	}
	return LLMResponse{Text: l.reply}, nil
}

type fakeRetriever struct {
	chunks []string
	err    error
}

func (r *fakeRetriever) Query(_ context.Context, _ string, _ int) ([]string, error) {
	return r.chunks, r.err
}

type routerFixture struct {
	router    *Router
	history   *HistoryStore
	guard     *fakeGuard
	reports   *fakeReports
	llm       *fakeLLM
	retriever *fakeRetriever
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	history := newTestHistoryStore(t)
	guard := &fakeGuard{}
	reports := &fakeReports{filename: "u-1_report.pdf"}
	llm := &fakeLLM{reply: "a caring reply"}
	retriever := &fakeRetriever{chunks: []string{"coping techniques"}}
	answerer := NewAnswerer(llm, retriever, 3, nil)
	return &routerFixture{
		router:    NewRouter(history, guard, reports, answerer, llm, 3, nil, nil),
		history:   history,
		guard:     guard,
		reports:   reports,
		llm:       llm,
		retriever: retriever,
	}
}

func TestRouteRejectsEmptyMessage(t *testing.T) {
	f := newRouterFixture(t)

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, _, err := f.router.Route(context.Background(), "u-1", msg)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	window, err := f.history.LastN(context.Background(), "u-1", 10)
	require.NoError(t, err)
	assert.Empty(t, window, "rejected messages must not reach the history log")
}

func TestRoutePersistsMessageBeforeRouting(t *testing.T) {
	f := newRouterFixture(t)
	f.guard.requested = true

	_, _, err := f.router.Route(context.Background(), "u-1", "Connect Me please")
	require.NoError(t, err)

	window, err := f.history.LastN(context.Background(), "u-1", 10)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "connect me please", window[0].Text)
}

func TestRouteAlreadyEscalated(t *testing.T) {
	f := newRouterFixture(t)
	f.guard.requested = true

	outcome, reply, err := f.router.Route(context.Background(), "u-1", "connect me again")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAlreadyEscalated, outcome)
	assert.Equal(t, alreadyForwardedReply, reply)
	assert.Zero(t, f.reports.calls, "no new report once escalated")
	assert.Zero(t, f.guard.recorded)
}

func TestRouteEscalation(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"connect me phrase", "please connect me to someone"},
		{"meet phrase", "can I meet a counselor"},
		{"mixed case", "CONNECT ME now"},
		{"phrase beats emotion", "I'm anxious, connect me to a counselor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)

			outcome, reply, err := f.router.Route(context.Background(), "u-1", tt.message)
			require.NoError(t, err)

			assert.Equal(t, OutcomeEscalating, outcome)
			assert.Equal(t, fmt.Sprintf(escalatedReplyFormat, "u-1_report.pdf"), reply)
			assert.Equal(t, 1, f.reports.calls)
			assert.Equal(t, 1, f.guard.recorded)
			assert.Equal(t, "u-1_report.pdf", f.guard.lastPDFRef)
			assert.Equal(t, escalationSummary, f.guard.lastSummry)
		})
	}
}

func TestRouteEscalationExactlyOnce(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	outcome, _, err := f.router.Route(ctx, "u-1", "connect me")
	require.NoError(t, err)
	assert.Equal(t, OutcomeEscalating, outcome)

	outcome, reply, err := f.router.Route(ctx, "u-1", "meet someone please")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyEscalated, outcome)
	assert.Equal(t, alreadyForwardedReply, reply)

	assert.Equal(t, 1, f.reports.calls)
	assert.Equal(t, 1, f.guard.recorded)
}

func TestRouteEscalationPipelineFailure(t *testing.T) {
	f := newRouterFixture(t)
	f.reports.err = errors.New("Error generating summary: service unavailable")

	outcome, reply, err := f.router.Route(context.Background(), "u-1", "connect me")
	require.NoError(t, err)

	assert.Equal(t, OutcomeEscalating, outcome)
	assert.Equal(t, "Error generating summary: service unavailable", reply)
	assert.Zero(t, f.guard.recorded, "no escalation record on pipeline failure")
}

func TestRouteEscalationLostRace(t *testing.T) {
	f := newRouterFixture(t)
	f.guard.recordErr = ErrAlreadyEscalated

	outcome, reply, err := f.router.Route(context.Background(), "u-1", "connect me")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAlreadyEscalated, outcome)
	assert.Equal(t, alreadyForwardedReply, reply)
}

func TestRouteComforting(t *testing.T) {
	f := newRouterFixture(t)

	outcome, reply, err := f.router.Route(context.Background(), "u-1", "I feel hopeless today")
	require.NoError(t, err)

	assert.Equal(t, OutcomeComforting, outcome)
	assert.Equal(t, "a caring reply", reply)
	require.Len(t, f.llm.reqs, 1)
	assert.Contains(t, f.llm.reqs[0].System, "depressed")
}

func TestRouteComfortingFallsBackOnError(t *testing.T) {
	f := newRouterFixture(t)
	f.llm.err = errors.New("completion unavailable")

	outcome, reply, err := f.router.Route(context.Background(), "u-1", "I feel so sad")
	require.NoError(t, err)

	assert.Equal(t, OutcomeComforting, outcome)
	assert.Equal(t, fallbackReply, reply)
}

func TestRouteAnswering(t *testing.T) {
	f := newRouterFixture(t)
	f.llm.reply = "Mindfulness can help you unwind."

	outcome, reply, err := f.router.Route(context.Background(), "u-1", "how do I practice mindfulness")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswering, outcome)
	assert.Equal(t, "Mindfulness can help you unwind.", reply)
	require.Len(t, f.llm.reqs, 1)
	require.Len(t, f.llm.reqs[0].Turns, 1)
	prompt := f.llm.reqs[0].Turns[0].Content
	assert.Contains(t, prompt, "coping techniques", "retrieved chunks feed the prompt")
	assert.Contains(t, prompt, "how do i practice mindfulness")
}

func TestRouteAnsweringFallsBackOnError(t *testing.T) {
	f := newRouterFixture(t)
	f.retriever.err = errors.New("index unavailable")

	outcome, reply, err := f.router.Route(context.Background(), "u-1", "tell me about meditation")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswering, outcome)
	assert.Equal(t, fallbackReply, reply)
}

func TestComfortNeutralKeepsFixedSentence(t *testing.T) {
	f := newRouterFixture(t)
	assert.Equal(t, neutralComfortReply, f.router.comfort(context.Background(), EmotionNeutral))
	assert.Empty(t, f.llm.reqs)
}

func TestContainsEscalationPhrase(t *testing.T) {
	assert.True(t, containsEscalationPhrase("connect me to a human"))
	assert.True(t, containsEscalationPhrase("a meeting tomorrow"))
	assert.False(t, containsEscalationPhrase("i need advice"))
	assert.False(t, containsEscalationPhrase(strings.Repeat("x", 100)))
}
