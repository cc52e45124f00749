package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurowell/support-ai-platform/internal/chat"
)

type stubGuard struct{}

func (stubGuard) AlreadyRequested(context.Context, string) (bool, error) { return false, nil }
func (stubGuard) Record(context.Context, string, string, string) error   { return nil }

type stubReports struct{}

func (stubReports) Generate(context.Context, string) (string, error) { return "u1_report.pdf", nil }

type stubLLM struct{}

func (stubLLM) Complete(context.Context, chat.LLMRequest) (chat.LLMResponse, error) {
	return chat.LLMResponse{Text: "A steady reply."}, nil
}

type stubRetriever struct{}

func (stubRetriever) Query(context.Context, string, int) ([]string, error) {
	return []string{"chunk"}, nil
}

func testHandler(t *testing.T) *chat.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	history := chat.NewHistoryStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	llm := stubLLM{}
	answerer := chat.NewAnswerer(llm, stubRetriever{}, 3, nil)
	router := chat.NewRouter(history, stubGuard{}, stubReports{}, answerer, llm, 3, nil, nil)
	return chat.NewHandler(router, nil)
}

func TestRouterRoutes(t *testing.T) {
	h := New(&Config{ChatHandler: testHandler(t)})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"chat", http.MethodPost, "/chat", `{"user_id":"u1","message":"hello"}`, http.StatusOK},
		{"chat empty message", http.MethodPost, "/chat", `{"user_id":"u1","message":"  "}`, http.StatusBadRequest},
		{"unknown path", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"chat wrong method", http.MethodGet, "/chat", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	metricsHit := false
	h := New(&Config{
		ChatHandler: testHandler(t),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			metricsHit = true
			w.WriteHeader(http.StatusOK)
		}),
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, metricsHit)
}

func TestRouterRateLimitsChat(t *testing.T) {
	h := New(&Config{
		ChatHandler:     testHandler(t),
		RateLimitPerSec: 0.001,
		RateLimitBurst:  1,
	})

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"user_id":"u1","message":"hi"}`)))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"user_id":"u1","message":"hi"}`)))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Health stays reachable while chat is throttled.
	health := httptest.NewRecorder()
	h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestRouterCORSHeaders(t *testing.T) {
	h := New(&Config{
		ChatHandler:        testHandler(t),
		CORSAllowedOrigins: []string{"https://app.neurowell.example"},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.neurowell.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.neurowell.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
