package interfaces

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
	"github.com/shopspring/decimal"
)

type ExpenseServiceInterface interface {
	Create(ctx context.Context, amount decimal.Decimal, description string, categoryID, userID int64) (*domain.Expense, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Expense, error)
	ListByUserAndCategory(ctx context.Context, userID, categoryID int64) ([]domain.Expense, error)
	ListByUserAndDateRange(ctx context.Context, userID int64, start, end *time.Time) ([]domain.Expense, error)
	GetByID(ctx context.Context, expenseID int64) (*domain.Expense, error)
	Update(ctx context.Context, expenseID int64, patch domain.ExpensePatch, userID int64) (*domain.Expense, error)
	Delete(ctx context.Context, expenseID, userID int64) error
}

// ExpenseView is the wire shape of an expense. CategoryID is null for an
// expense whose category was deleted under the orphan policy.
type ExpenseView struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CategoryID  *int64          `json:"categoryId"`
	Date        time.Time       `json:"date"`
}

func toExpenseView(e domain.Expense) ExpenseView {
	return ExpenseView{
		ID:          e.ID,
		Amount:      e.Amount,
		Description: e.Description,
		CategoryID:  e.CategoryID,
		Date:        e.CreatedAt,
	}
}

func toExpenseViews(expenses []domain.Expense) []ExpenseView {
	views := make([]ExpenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, toExpenseView(e))
	}
	return views
}

type ExpenseHandler struct {
	service      ExpenseServiceInterface
	categories   CategoryServiceInterface
	respondJSON  JSONResponder
	respondError ErrorResponder
	logger       *slog.Logger
}

func NewExpenseHandler(
	service ExpenseServiceInterface,
	categories CategoryServiceInterface,
	respondJSON JSONResponder,
	respondError ErrorResponder,
	logger *slog.Logger,
) *ExpenseHandler {
	if service == nil || categories == nil || respondJSON == nil || respondError == nil {
		panic("Services and response functions must not be nil")
	}
	return &ExpenseHandler{
		service:      service,
		categories:   categories,
		respondJSON:  respondJSON,
		respondError: respondError,
		logger:       logger.With("component", "expense_handler"),
	}
}

type createExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
	CategoryID  *int64           `json:"categoryId"`
}

type updateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	CategoryID  *int64           `json:"categoryId"`
}

func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CategoryID == nil {
		h.respondError(w, http.StatusBadRequest, "Category is required")
		return
	}
	if req.Amount == nil {
		h.respondError(w, http.StatusBadRequest, "Amount is required")
		return
	}

	expense, err := h.service.Create(r.Context(), *req.Amount, req.Description, *req.CategoryID, u.ID)
	if err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toExpenseView(*expense))
}

func (h *ExpenseHandler) GetExpenses(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	expenses, err := h.service.ListByUser(r.Context(), u.ID)
	if err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toExpenseViews(expenses))
}

func (h *ExpenseHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	expenseID, ok := pathID(r, "id")
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid expense ID")
		return
	}

	expense, err := h.service.GetByID(r.Context(), expenseID)
	if err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}
	if !expense.OwnedBy(u.ID) {
		h.respondError(w, http.StatusForbidden, "You do not have permission to view this expense")
		return
	}

	h.respondJSON(w, http.StatusOK, toExpenseView(*expense))
}

func (h *ExpenseHandler) GetExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	categoryID, ok := pathID(r, "categoryId")
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	category, err := h.categories.GetByID(r.Context(), categoryID)
	if err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}
	if !category.OwnedBy(u.ID) {
		h.respondError(w, http.StatusForbidden, "You don't have access to this category")
		return
	}

	expenses, err := h.service.ListByUserAndCategory(r.Context(), u.ID, categoryID)
	if err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toExpenseViews(expenses))
}

func (h *ExpenseHandler) GetExpensesByDateRange(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	start, err := parseTimestamp(r.URL.Query().Get("start"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid start date format")
		return
	}
	end, err := parseTimestamp(r.URL.Query().Get("end"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid end date format")
		return
	}

	expenses, err := h.service.ListByUserAndDateRange(r.Context(), u.ID, start, end)
	if err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toExpenseViews(expenses))
}

func (h *ExpenseHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	expenseID, ok := pathID(r, "id")
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid expense ID")
		return
	}
	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patch := domain.ExpensePatch{
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}
	expense, err := h.service.Update(r.Context(), expenseID, patch, u.ID)
	if err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toExpenseView(*expense))
}

func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	u, ok := caller(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	expenseID, ok := pathID(r, "id")
	if !ok {
		h.respondError(w, http.StatusBadRequest, "Invalid expense ID")
		return
	}

	if err := h.service.Delete(r.Context(), expenseID, u.ID); err != nil {
		serviceError(h.respondError, h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
