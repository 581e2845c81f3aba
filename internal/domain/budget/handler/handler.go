// Package handler exposes monthly budget management over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/trackr/internal/domain/budget"
	"github.com/FACorreiaa/trackr/internal/domain/budget/repository"
	"github.com/FACorreiaa/trackr/internal/domain/common"
	"github.com/FACorreiaa/trackr/pkg/middleware"
)

// BudgetHandler serves the budget endpoints.
type BudgetHandler struct {
	repo repository.BudgetRepository
}

// NewBudgetHandler constructs a new handler.
func NewBudgetHandler(repo repository.BudgetRepository) *BudgetHandler {
	return &BudgetHandler{repo: repo}
}

// Routes mounts the budget endpoints onto a router.
func (h *BudgetHandler) Routes(r chi.Router) {
	r.Get("/budgets", h.List)
	r.Put("/budgets", h.Upsert)
	r.Delete("/budgets/{budget_id}", h.Delete)
}

// List returns the caller's budgets for one month (default: current) with
// the spending recorded against each.
func (h *BudgetHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	month := time.Now().UTC()
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := time.Parse("2006-01", v)
		if err != nil {
			common.WriteBadRequest(w, "invalid month, expected YYYY-MM")
			return
		}
		month = parsed
	}

	budgets, err := h.repo.List(r.Context(), userID, month)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, budgets)
}

// Upsert sets the budget amount for a category and month.
func (h *BudgetHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	var req struct {
		CategoryID uuid.UUID       `json:"category"`
		Amount     decimal.Decimal `json:"amount"`
		Month      string          `json:"month"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if req.Amount.IsNegative() {
		common.WriteBadRequest(w, "amount must be non-negative")
		return
	}
	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		common.WriteBadRequest(w, "invalid month, expected YYYY-MM")
		return
	}

	b := &budget.Budget{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount.Round(2),
		Month:      month,
	}
	if err := h.repo.Upsert(r.Context(), b); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, b)
}

// Delete removes one budget.
func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "budget_id"))
	if err != nil {
		common.WriteBadRequest(w, "invalid budget id")
		return
	}

	if err := h.repo.Delete(r.Context(), userID, id); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "budget deleted"})
}
