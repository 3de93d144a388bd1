package interfaces

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
)

type CategoryServiceInterface interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Category, error)
	GetByID(ctx context.Context, categoryID int64) (*domain.Category, error)
	Create(ctx context.Context, name string, userID int64) (*domain.Category, error)
	Rename(ctx context.Context, categoryID int64, newName string, userID int64) (*domain.Category, error)
	Delete(ctx context.Context, categoryID, userID int64) error
}

type CategoryView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toCategoryView(c domain.Category) CategoryView {
	return CategoryView{ID: c.ID, Name: c.Name}
}

type CategoryHandler struct {
	service      CategoryServiceInterface
	respondJSON  JSONResponder
	respondError ErrorResponder
	logger       *slog.Logger
}

func NewCategoryHandler(
	service CategoryServiceInterface,
	respondJSON JSONResponder,
	respondError ErrorResponder,
	logger *slog.Logger,
) *CategoryHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &CategoryHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
		logger:       logger.With("component", "category_handler"),
	}
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	categories, err := h.service.ListByUser(r.Context(), u.ID)
	if err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}

	views := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, toCategoryView(c))
	}
	h.respondJSON(w, http.StatusOK, views)
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	categoryID, ok := pathID(r, "id")
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	category, err := h.service.GetByID(r.Context(), categoryID)
	if err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}
	if !category.OwnedBy(u.ID) {
		h.respondError(w, http.StatusForbidden, "You don't have permission to view this category")
		return
	}

	h.respondJSON(w, http.StatusOK, toCategoryView(*category))
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.service.Create(r.Context(), req.Name, u.ID)
	if err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toCategoryView(*category))
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	categoryID, ok := pathID(r, "id")
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.service.Rename(r.Context(), categoryID, req.Name, u.ID)
	if err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toCategoryView(*category))
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	categoryID, ok := pathID(r, "id")
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	if err := h.service.Delete(r.Context(), categoryID, u.ID); err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
