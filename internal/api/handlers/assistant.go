package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dagingaa/bank-transaction-review/internal/api/middleware"
	"github.com/dagingaa/bank-transaction-review/internal/assistant"
	"github.com/dagingaa/bank-transaction-review/internal/localstore"
)

// APIKeyStorageKey is the stable key the assistant API key lives under in
// durable storage.
const APIKeyStorageKey = "geminiApiKey"

// AssistantHandler proxies prompts to the Gemini API and manages the stored
// API key.
type AssistantHandler struct {
	client  *assistant.Client
	storage localstore.Storage
	log     zerolog.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(client *assistant.Client, storage localstore.Storage, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{client: client, storage: storage, log: log}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// Generate handles POST /api/assistant. The key comes from the X-API-KEY
// header, falling back to the stored key. One attempt, no retry.
func (h *AssistantHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		middleware.WriteError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	apiKey := r.Header.Get("X-API-KEY")
	if apiKey == "" {
		apiKey = h.storedKey()
	}
	if apiKey == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "API key is required")
		return
	}

	text, err := h.client.GenerateText(r.Context(), apiKey, req.Prompt)
	if err != nil {
		h.log.Error().Err(err).Msg("Assistant generation failed")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to process request")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"response": text})
}

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

// GetAPIKey handles GET /api/settings/api-key. Only reports whether a key is
// configured; the key itself never leaves storage.
func (h *AssistantHandler) GetAPIKey(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{
		"configured": h.storedKey() != "",
	})
}

// SetAPIKey handles PUT /api/settings/api-key. An empty key clears it.
func (h *AssistantHandler) SetAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.APIKey == "" {
		if err := h.storage.Delete(APIKeyStorageKey); err != nil {
			h.log.Warn().Err(err).Msg("Failed to clear API key")
		}
		middleware.WriteJSON(w, http.StatusOK, map[string]bool{"configured": false})
		return
	}

	raw, _ := json.Marshal(req.APIKey)
	if err := h.storage.Set(APIKeyStorageKey, raw); err != nil {
		// Best effort: the in-memory value is gone on restart but the
		// session keeps working.
		h.log.Warn().Err(err).Msg("Failed to persist API key")
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"configured": true})
}

func (h *AssistantHandler) storedKey() string {
	raw, ok := h.storage.Get(APIKeyStorageKey)
	if !ok {
		return ""
	}
	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return ""
	}
	return key
}
