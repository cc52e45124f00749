package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/neurowell/support-ai-platform/pkg/logging"
)

// ChatRequest is the single inbound request type.
type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// ChatResponse is the reply body. Failures past input validation come back
// through this same shape.
type ChatResponse struct {
	Response string `json:"response"`
}

// Handler wires HTTP requests to the conversation router.
type Handler struct {
	router *Router
	logger *logging.Logger
}

// NewHandler creates a chat handler.
func NewHandler(router *Router, logger *logging.Logger) *Handler {
	if router == nil {
		panic("chat: router cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{router: router, logger: logger}
}

// Chat handles POST /chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode chat request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	outcome, reply, err := h.router.Route(r.Context(), req.UserID, req.Message)
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			http.Error(w, "Provide a valid input.", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to route message", "user_id", req.UserID, "error", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	h.logger.Info("message routed", "user_id", req.UserID, "outcome", outcome)
	h.writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
