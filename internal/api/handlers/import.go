package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dagingaa/bank-transaction-review/internal/api/middleware"
	"github.com/dagingaa/bank-transaction-review/internal/ingest"
	"github.com/dagingaa/bank-transaction-review/internal/jobs"
	"github.com/dagingaa/bank-transaction-review/internal/session"
)

// ImportHandler handles the preview and import endpoints.
type ImportHandler struct {
	session     *session.Session
	publisher   jobs.Publisher
	previewRows int
	log         zerolog.Logger
}

// NewImportHandler creates a new import handler.
func NewImportHandler(sess *session.Session, publisher jobs.Publisher, previewRows int, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		session:     sess,
		publisher:   publisher,
		previewRows: previewRows,
		log:         log,
	}
}

type previewRequest struct {
	Content      string `json:"content"`
	Delimiter    string `json:"delimiter,omitempty"`
	HasHeaderRow *bool  `json:"has_header_row,omitempty"`
}

// Preview handles POST /api/import/preview. It tokenizes a bounded number of
// rows and suggests a column mapping; nothing is committed.
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		middleware.WriteError(w, http.StatusBadRequest, "content is required")
		return
	}

	opts := ingest.Options{
		HasHeaderRow:   true,
		MaxPreviewRows: h.previewRows,
	}
	if req.HasHeaderRow != nil {
		opts.HasHeaderRow = *req.HasHeaderRow
	}
	if req.Delimiter != "" {
		opts.Delimiter = rune(req.Delimiter[0])
	}

	result, err := ingest.Parse(req.Content, opts)
	if err != nil {
		if errors.Is(err, ingest.ErrParse) {
			middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Preview parse failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to parse file")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"headers":           result.Headers,
		"delimiter":         string(result.Delimiter),
		"suggested_mapping": ingest.SuggestMapping(result.Headers),
		"rows":              result.Records,
	})
}

type importRequest struct {
	Content      string               `json:"content"`
	FileName     string               `json:"file_name,omitempty"`
	Delimiter    string               `json:"delimiter,omitempty"`
	HasHeaderRow *bool                `json:"has_header_row,omitempty"`
	Mapping      ingest.ColumnMapping `json:"mapping"`
}

// Import handles POST /api/import. The mapping must be complete; a second
// import while one runs is rejected rather than racing it.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		middleware.WriteError(w, http.StatusBadRequest, "content is required")
		return
	}
	if !req.Mapping.Validate() {
		middleware.WriteError(w, http.StatusBadRequest, "date, description, amountIn and amountOut columns must all be mapped")
		return
	}

	if err := h.session.BeginImport(); err != nil {
		middleware.WriteError(w, http.StatusConflict, err.Error())
		return
	}

	job := &jobs.ImportJob{
		FileName:     req.FileName,
		RawText:      req.Content,
		Mapping:      req.Mapping,
		HasHeaderRow: true,
	}
	if req.HasHeaderRow != nil {
		job.HasHeaderRow = *req.HasHeaderRow
	}
	if req.Delimiter != "" {
		job.Delimiter = rune(req.Delimiter[0])
	}

	if err := h.publisher.PublishImport(r.Context(), job); err != nil {
		h.session.FailImport()
		h.log.Error().Err(err).Msg("Failed to enqueue import job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue import")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("file_name", req.FileName).Msg("Import job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// Reset handles POST /api/reset, discarding the current session.
func (h *ImportHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
