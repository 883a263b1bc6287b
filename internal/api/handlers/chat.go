package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akshad113/loom-ai-instructor/internal/ai"
	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// ChatHandler handles the free-form tutor chat endpoint
type ChatHandler struct {
	tutor      *ai.Tutor
	configured bool
}

// NewChatHandler creates a new chat handler. configured reports whether
// the AI backend has credentials; without them chat fails outright.
func NewChatHandler(tutor *ai.Tutor, configured bool) *ChatHandler {
	return &ChatHandler{tutor: tutor, configured: configured}
}

// ChatRequest carries a free-form question
type ChatRequest struct {
	Message string `json:"message"`
}

// Chat answers a question without lesson context
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		writeDomainError(w, r, fmt.Errorf("%w: AI provider API key is not set", domain.ErrConfiguration))
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request payload")
		return
	}
	if req.Message == "" {
		BadRequest(w, r, "message is required")
		return
	}

	reply, err := h.tutor.Chat(r.Context(), req.Message)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
