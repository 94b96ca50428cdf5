package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dagingaa/bank-transaction-review/internal/api/middleware"
	"github.com/dagingaa/bank-transaction-review/internal/presets"
)

// PresetsHandler handles preset and category-label endpoints.
type PresetsHandler struct {
	store *presets.Store
	log   zerolog.Logger
}

// NewPresetsHandler creates a new presets handler.
func NewPresetsHandler(store *presets.Store, log zerolog.Logger) *PresetsHandler {
	return &PresetsHandler{store: store, log: log}
}

// List handles GET /api/presets.
func (h *PresetsHandler) List(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"presets":  h.store.Presets(),
		"selected": h.store.Selected(),
		"active":   h.store.ActiveLabels(),
	})
}

type createPresetRequest struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories,omitempty"`
}

// Create handles POST /api/presets.
func (h *PresetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	preset, err := h.store.CreatePreset(req.Name, req.Categories)
	if err != nil {
		writePresetError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, preset)
}

type renamePresetRequest struct {
	Name string `json:"name"`
}

// Rename handles PUT /api/presets/{name}.
func (h *PresetsHandler) Rename(w http.ResponseWriter, r *http.Request, name string) {
	var req renamePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.store.RenamePreset(name, req.Name); err != nil {
		writePresetError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"name": req.Name})
}

// Delete handles DELETE /api/presets/{name}.
func (h *PresetsHandler) Delete(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.store.DeletePreset(name); err != nil {
		writePresetError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"selected": h.store.Selected(),
		"active":   h.store.ActiveLabels(),
	})
}

// Select handles POST /api/presets/{name}/select.
func (h *PresetsHandler) Select(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.store.SelectPreset(name); err != nil {
		writePresetError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"selected": h.store.Selected(),
		"active":   h.store.ActiveLabels(),
	})
}

type addLabelsRequest struct {
	Input string `json:"input"`
}

// AddLabels handles POST /api/categories with a comma-separated input.
func (h *PresetsHandler) AddLabels(w http.ResponseWriter, r *http.Request) {
	var req addLabelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	labels := h.store.AddLabels(req.Input)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"active": labels})
}

// RemoveLabel handles DELETE /api/categories/{label}. Removing the sentinel
// label is silently a no-op.
func (h *PresetsHandler) RemoveLabel(w http.ResponseWriter, r *http.Request, label string) {
	labels := h.store.RemoveLabel(label)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"active": labels})
}

func writePresetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, presets.ErrDuplicateName):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, presets.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, presets.ErrProtected):
		middleware.WriteError(w, http.StatusForbidden, err.Error())
	default:
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	}
}
