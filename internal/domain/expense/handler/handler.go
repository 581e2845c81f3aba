// Package handler exposes expense CRUD, bulk load, category assignment,
// and analytics over HTTP.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/trackr/internal/domain/common"
	"github.com/FACorreiaa/trackr/internal/domain/expense"
	"github.com/FACorreiaa/trackr/internal/domain/expense/service"
	"github.com/FACorreiaa/trackr/pkg/middleware"
)

// ExpenseHandler serves the expense endpoints.
type ExpenseHandler struct {
	svc *service.Service
}

// NewExpenseHandler constructs a new handler.
func NewExpenseHandler(svc *service.Service) *ExpenseHandler {
	return &ExpenseHandler{svc: svc}
}

// Routes mounts the expense endpoints onto a router.
func (h *ExpenseHandler) Routes(r chi.Router) {
	r.Get("/expenses", h.List)
	r.Post("/expenses", h.Create)
	r.Post("/expenses/bulk", h.BulkCreate)
	r.Get("/expenses/{expense_id}", h.Get)
	r.Put("/expenses/{expense_id}", h.Update)
	r.Delete("/expenses/{expense_id}", h.Delete)
	r.Patch("/expenses/{expense_id}/category", h.AssignCategory)

	r.Get("/analytics/summary", h.Summary)
	r.Get("/analytics/by-category", h.ByCategory)
	r.Get("/analytics/by-month", h.ByMonth)
}

// List returns the caller's expenses, filtered by query parameters.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	expenses, err := h.svc.List(r.Context(), userID, filter)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, expenses)
}

// Get returns one expense.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "expense_id"))
	if err != nil {
		common.WriteBadRequest(w, "invalid expense id")
		return
	}

	e, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, e)
}

// Create stores one manually entered expense.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	var req service.BulkInput
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	e, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, e)
}

// BulkCreate stores many expenses at once. Rows that fail validation or
// persistence are reported alongside the successes; the response is 201
// whenever at least one row was stored, 400 when every row failed.
func (h *ExpenseHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	var req struct {
		Transactions []service.BulkInput `json:"transactions"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if len(req.Transactions) == 0 {
		common.WriteBadRequest(w, "transactions list is empty")
		return
	}

	result, err := h.svc.BulkCreate(r.Context(), userID, req.Transactions)
	if err != nil {
		common.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if len(result.Created) == 0 {
		status = http.StatusBadRequest
	}
	common.WriteJSON(w, status, result)
}

// Update rewrites one expense.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "expense_id"))
	if err != nil {
		common.WriteBadRequest(w, "invalid expense id")
		return
	}

	var req service.BulkInput
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	e, err := h.svc.Update(r.Context(), userID, id, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, e)
}

// Delete removes one expense.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "expense_id"))
	if err != nil {
		common.WriteBadRequest(w, "invalid expense id")
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "expense deleted"})
}

// AssignCategory sets an expense's category, optionally creating a keyword
// rule from its description and re-applying it to uncategorized expenses.
func (h *ExpenseHandler) AssignCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "expense_id"))
	if err != nil {
		common.WriteBadRequest(w, "invalid expense id")
		return
	}

	var req struct {
		CategoryID uuid.UUID `json:"category"`
		CreateRule bool      `json:"create_rule"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	e, err := h.svc.AssignCategory(r.Context(), userID, id, req.CategoryID, req.CreateRule)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, e)
}

// Summary returns income, expenses, and net totals for a date range,
// defaulting to the current month.
func (h *ExpenseHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var err error
	if v := r.URL.Query().Get("start"); v != "" {
		if start, err = time.Parse("2006-01-02", v); err != nil {
			common.WriteBadRequest(w, "invalid start date, expected YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if end, err = time.Parse("2006-01-02", v); err != nil {
			common.WriteBadRequest(w, "invalid end date, expected YYYY-MM-DD")
			return
		}
		end = end.AddDate(0, 0, 1)
	}

	summary, err := h.svc.Summary(r.Context(), userID, start, end)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, summary)
}

// ByCategory returns totals grouped by category for one transaction type.
func (h *ExpenseHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	breakdown, err := h.svc.ByCategory(r.Context(), userID, r.URL.Query().Get("type"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, breakdown)
}

// ByMonth returns monthly income and expense totals.
func (h *ExpenseHandler) ByMonth(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	months := 0
	if v := r.URL.Query().Get("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			common.WriteBadRequest(w, "invalid months parameter")
			return
		}
		months = parsed
	}

	totals, err := h.svc.ByMonth(r.Context(), userID, months)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, totals)
}

// parseFilter builds an expense filter from list query parameters.
func parseFilter(r *http.Request) (expense.Filter, error) {
	var f expense.Filter
	q := r.URL.Query()

	if v := q.Get("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, common.ErrBadRequest
		}
		f.CategoryID = &id
	}
	if v := q.Get("type"); v != "" {
		if !expense.ValidType(v) {
			return f, common.ErrBadRequest
		}
		f.TransactionType = v
	}
	if v := q.Get("start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, common.ErrBadRequest
		}
		f.StartDate = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, common.ErrBadRequest
		}
		f.EndDate = &t
	}
	if v := q.Get("uncategorized"); v == "true" {
		f.Uncategorized = true
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, common.ErrBadRequest
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, common.ErrBadRequest
		}
		f.Offset = n
	}
	return f, nil
}
