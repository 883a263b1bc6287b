package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akshad113/loom-ai-instructor/internal/domain"
)

// SettingsStore reads and writes the singleton settings row.
type SettingsStore interface {
	Get() (*domain.Settings, error)
	Save(settings *domain.Settings) error
}

// SettingsHandler handles the preferences endpoints
type SettingsHandler struct {
	store SettingsStore
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(store SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// Get returns the settings, creating the default row on first read
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Get()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, settings)
}

// UpdateRequest is the body for overwriting settings
type UpdateRequest struct {
	Theme        string `json:"theme"`
	VoiceEnabled int    `json:"voice_enabled"`
}

// Update overwrites the settings row with the posted values
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, r, "invalid request payload")
		return
	}

	if req.Theme == "" {
		BadRequest(w, r, "theme is required")
		return
	}
	if req.VoiceEnabled != 0 && req.VoiceEnabled != 1 {
		BadRequest(w, r, "voice_enabled must be 0 or 1")
		return
	}

	settings := &domain.Settings{
		ID:           domain.SettingsID,
		Theme:        req.Theme,
		VoiceEnabled: req.VoiceEnabled,
	}
	if err := h.store.Save(settings); err != nil {
		writeDomainError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
