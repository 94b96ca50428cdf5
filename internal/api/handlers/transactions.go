package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dagingaa/bank-transaction-review/internal/api/middleware"
	"github.com/dagingaa/bank-transaction-review/internal/dates"
	"github.com/dagingaa/bank-transaction-review/internal/export"
	"github.com/dagingaa/bank-transaction-review/internal/presets"
	"github.com/dagingaa/bank-transaction-review/internal/session"
	"github.com/dagingaa/bank-transaction-review/internal/view"
)

// TransactionsHandler serves the derived view, category assignment, the
// aggregate summary, and CSV export.
type TransactionsHandler struct {
	session        *session.Session
	presets        *presets.Store
	exportDelim    rune
	interestColumn string
	log            zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(sess *session.Session, store *presets.Store, exportDelim rune, interestColumn string, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		session:        sess,
		presets:        store,
		exportDelim:    exportDelim,
		interestColumn: interestColumn,
		log:            log,
	}
}

type transactionDTO struct {
	ID          string          `json:"id"`
	Date        string          `json:"date,omitempty"`
	DisplayDate string          `json:"display_date,omitempty"`
	Description string          `json:"description"`
	AmountOut   decimal.Decimal `json:"amountOut"`
	AmountIn    decimal.Decimal `json:"amountIn"`
	Category    string          `json:"category"`
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	viewed, assignments, ok := h.deriveFromQuery(w, r)
	if !ok {
		return
	}

	out := make([]transactionDTO, 0, len(viewed))
	for _, tx := range viewed {
		dto := transactionDTO{
			ID:          tx.ID,
			Description: tx.Description,
			AmountOut:   tx.AmountOut,
			AmountIn:    tx.AmountIn,
			Category:    view.ResolveLabel(tx, assignments),
		}
		if tx.HasDate() {
			dto.Date = tx.Date.String()
			dto.DisplayDate = dates.FormatDisplay(tx.Date)
		}
		out = append(out, dto)
	}

	middleware.WriteJSON(w, http.StatusOK, out)
}

// Summary handles GET /api/summary.
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	viewed, assignments, ok := h.deriveFromQuery(w, r)
	if !ok {
		return
	}

	summary := view.Aggregate(viewed, assignments, h.presets.ActiveLabels())
	middleware.WriteJSON(w, http.StatusOK, summary)
}

type assignRequest struct {
	Category string `json:"category"`
}

// AssignCategory handles PUT /api/transactions/{id}/category. An empty
// category clears the assignment back to unset.
func (h *TransactionsHandler) AssignCategory(w http.ResponseWriter, r *http.Request, id string) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.session.AssignCategory(id, req.Category) {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "category": req.Category})
}

type bulkAssignRequest struct {
	IDs      []string `json:"ids"`
	Category string   `json:"category"`
}

// BulkAssign handles POST /api/transactions/categories, applying one label
// to every listed transaction (the UI sends the filtered set's ids).
func (h *TransactionsHandler) BulkAssign(w http.ResponseWriter, r *http.Request) {
	var req bulkAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "ids is required")
		return
	}

	updated := h.session.AssignCategoryBulk(req.IDs, req.Category)
	middleware.WriteJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// Export handles POST /api/export, returning the delimited text for the
// current filtered view.
func (h *TransactionsHandler) Export(w http.ResponseWriter, r *http.Request) {
	viewed, assignments, ok := h.deriveFromQuery(w, r)
	if !ok {
		return
	}
	if len(viewed) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No transactions to export")
		return
	}

	body := export.Export(viewed, assignments, export.Options{
		Delimiter:          h.exportDelim,
		InterestDateColumn: h.interestColumn,
	})

	filename := export.Filename(time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// deriveFromQuery resolves the filtered, sorted view from query parameters.
// Absent range parameters fall back to the default range observed at import.
func (h *TransactionsHandler) deriveFromQuery(w http.ResponseWriter, r *http.Request) ([]*session.Transaction, map[string]string, bool) {
	query := r.URL.Query()

	defStart, defEnd := h.session.DefaultRange()
	dateRange := view.DateRange{Start: defStart, End: defEnd}

	if query.Has("start_date") {
		d, ok := parseQueryDate(query.Get("start_date"))
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return nil, nil, false
		}
		dateRange.Start = d
	}
	if query.Has("end_date") {
		d, ok := parseQueryDate(query.Get("end_date"))
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return nil, nil, false
		}
		dateRange.End = d
	}

	spec := view.SortSpec{
		Field:     view.SortField(query.Get("sort")),
		Direction: view.SortDirection(query.Get("direction")),
	}

	transactions, assignments := h.session.Snapshot()
	viewed := view.DeriveView(transactions, dateRange, spec, assignments)
	return viewed, assignments, true
}

// parseQueryDate accepts an ISO date or the empty string, which clears the
// bound on that side.
func parseQueryDate(s string) (civil.Date, bool) {
	if s == "" {
		return civil.Date{}, true
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, false
	}
	return d, true
}
