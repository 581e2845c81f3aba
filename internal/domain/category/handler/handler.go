// Package handler exposes category and rule management over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/trackr/internal/domain/category/service"
	"github.com/FACorreiaa/trackr/internal/domain/common"
	"github.com/FACorreiaa/trackr/pkg/middleware"
)

// CategoryHandler serves the category and keyword-rule endpoints.
type CategoryHandler struct {
	svc *service.Service
}

// NewCategoryHandler constructs a new handler.
func NewCategoryHandler(svc *service.Service) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// Routes mounts the category endpoints onto a router.
func (h *CategoryHandler) Routes(r chi.Router) {
	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)
	r.Delete("/categories/{category_id}", h.DeleteCategory)

	r.Get("/rules", h.ListRules)
	r.Post("/rules", h.UpsertRule)
	r.Delete("/rules/{rule_id}", h.DeleteRule)
}

// ListCategories returns the caller's categories plus shared defaults.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	categories, err := h.svc.ListCategories(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, categories)
}

// CreateCategory creates a user-scoped category.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	c, err := h.svc.CreateCategory(r.Context(), userID, req.Name, req.Color)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, c)
}

// DeleteCategory removes a user-owned category.
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "category_id"))
	if err != nil {
		common.WriteBadRequest(w, "invalid category id")
		return
	}

	if err := h.svc.DeleteCategory(r.Context(), userID, id); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}

// ListRules returns the caller's keyword rules in evaluation order.
func (h *CategoryHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	rules, err := h.svc.ListRules(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, rules)
}

// UpsertRule creates or repoints the rule for a keyword.
func (h *CategoryHandler) UpsertRule(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	var req struct {
		Keyword    string    `json:"keyword"`
		CategoryID uuid.UUID `json:"category"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	rule, err := h.svc.UpsertRule(r.Context(), userID, req.Keyword, req.CategoryID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, rule)
}

// DeleteRule removes one keyword rule.
func (h *CategoryHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "rule_id"))
	if err != nil {
		common.WriteBadRequest(w, "invalid rule id")
		return
	}

	if err := h.svc.DeleteRule(r.Context(), userID, id); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "rule deleted"})
}
