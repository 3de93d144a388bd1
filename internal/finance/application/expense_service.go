package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	database "github.com/sebuszqo/FinanceDashboard/internal/db"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceDashboard/internal/finance/errors"
	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 1000

type ExpenseOptions struct {
	Now func() time.Time
}

type ExpenseService struct {
	repo       domain.ExpenseRepository
	categories domain.CategoryRepository
	tx         database.Transactor
	logger     *slog.Logger
	now        func() time.Time
}

func NewExpenseService(repo domain.ExpenseRepository, categories domain.CategoryRepository, tx database.Transactor, logger *slog.Logger, opts ExpenseOptions) *ExpenseService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ExpenseService{
		repo:       repo,
		categories: categories,
		tx:         tx,
		logger:     logger.With("component", "expense_service"),
		now:        now,
	}
}

func validateAmount(amount decimal.Decimal) error {
	err := domain.ValidateAmount(amount)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAmountPrecision):
		return financeErrors.NewBadRequestError("The amount must have at most 2 decimal places and 17 integer digits")
	default:
		return financeErrors.NewBadRequestError("The amount must be greater than zero")
	}
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return financeErrors.NewBadRequestError("Description must be at most 1000 characters")
	}
	return nil
}

// ownedCategory loads the category and checks it belongs to userID.
func (s *ExpenseService) ownedCategory(ctx context.Context, categoryID, userID int64) (*domain.Category, error) {
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, financeErrors.NewNotFoundError("Category not found")
		}
		return nil, financeErrors.NewInternalError("Failed to retrieve category", err)
	}
	if !category.OwnedBy(userID) {
		s.logger.Warn("category ownership check failed", "category_id", categoryID, "user_id", userID)
		return nil, financeErrors.NewForbiddenError("You don't have access to this category")
	}
	return category, nil
}

func (s *ExpenseService) findExpense(ctx context.Context, expenseID int64) (*domain.Expense, error) {
	expense, err := s.repo.FindByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, domain.ErrExpenseNotFound) {
			s.logger.Warn("expense not found", "expense_id", expenseID)
			return nil, financeErrors.NewNotFoundError("Expense not found")
		}
		return nil, financeErrors.NewInternalError("Failed to retrieve expense", err)
	}
	return expense, nil
}

func (s *ExpenseService) findOwnedExpense(ctx context.Context, expenseID, userID int64, action string) (*domain.Expense, error) {
	expense, err := s.findExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if !expense.OwnedBy(userID) {
		s.logger.Warn("expense ownership check failed", "expense_id", expenseID, "user_id", userID, "action", action)
		return nil, financeErrors.NewForbiddenError("You do not have permission to " + action + " this expense")
	}
	return expense, nil
}

func (s *ExpenseService) Create(ctx context.Context, amount decimal.Decimal, description string, categoryID, userID int64) (*domain.Expense, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	var expense *domain.Expense
	err := s.tx.WithinTx(ctx, false, func(ctx context.Context) error {
		category, err := s.ownedCategory(ctx, categoryID, userID)
		if err != nil {
			return err
		}

		now := s.now().UTC().Truncate(time.Microsecond)
		expense = &domain.Expense{
			Amount:      amount,
			Description: description,
			UserID:      userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := expense.AssignCategory(category); err != nil {
			return financeErrors.NewForbiddenError("You don't have access to this category")
		}
		if err := s.repo.Create(ctx, expense); err != nil {
			return financeErrors.NewInternalError("Failed to create expense", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("expense created", "expense_id", expense.ID, "category_id", categoryID, "user_id", userID)
	return expense, nil
}

func (s *ExpenseService) list(ctx context.Context, find func(ctx context.Context) ([]domain.Expense, error)) ([]domain.Expense, error) {
	var expenses []domain.Expense
	err := s.tx.WithinTx(ctx, true, func(ctx context.Context) error {
		found, err := find(ctx)
		if err != nil {
			return financeErrors.NewInternalError("Failed to retrieve expenses", err)
		}
		expenses = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	return expenses, nil
}

func (s *ExpenseService) ListByUser(ctx context.Context, userID int64) ([]domain.Expense, error) {
	return s.list(ctx, func(ctx context.Context) ([]domain.Expense, error) {
		return s.repo.FindByUser(ctx, userID)
	})
}

func (s *ExpenseService) ListByUserAndCategory(ctx context.Context, userID, categoryID int64) ([]domain.Expense, error) {
	return s.list(ctx, func(ctx context.Context) ([]domain.Expense, error) {
		return s.repo.FindByUserAndCategory(ctx, userID, categoryID)
	})
}

// ListByUserAndDateRange returns the expenses created in [start, end], both bounds inclusive.
func (s *ExpenseService) ListByUserAndDateRange(ctx context.Context, userID int64, start, end *time.Time) ([]domain.Expense, error) {
	if start == nil || end == nil {
		return nil, financeErrors.NewBadRequestError("Start and end dates are required")
	}
	if start.After(*end) {
		return nil, financeErrors.NewBadRequestError("Start date must be earlier than the end date")
	}
	from, to := start.UTC(), end.UTC()
	return s.list(ctx, func(ctx context.Context) ([]domain.Expense, error) {
		return s.repo.FindByUserAndCreatedAtBetween(ctx, userID, from, to)
	})
}

// GetByID does not check ownership, callers authorize with Expense.OwnedBy.
func (s *ExpenseService) GetByID(ctx context.Context, expenseID int64) (*domain.Expense, error) {
	var expense *domain.Expense
	err := s.tx.WithinTx(ctx, true, func(ctx context.Context) error {
		found, err := s.findExpense(ctx, expenseID)
		expense = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *ExpenseService) Update(ctx context.Context, expenseID int64, patch domain.ExpensePatch, userID int64) (*domain.Expense, error) {
	var expense *domain.Expense
	err := s.tx.WithinTx(ctx, false, func(ctx context.Context) error {
		found, err := s.findOwnedExpense(ctx, expenseID, userID, "edit")
		if err != nil {
			return err
		}

		if patch.Amount != nil {
			if err := validateAmount(*patch.Amount); err != nil {
				return err
			}
			found.Amount = *patch.Amount
		}
		if patch.Description != nil {
			description := strings.TrimSpace(*patch.Description)
			if err := validateDescription(description); err != nil {
				return err
			}
			found.Description = description
		}
		if patch.CategoryID != nil {
			category, err := s.ownedCategory(ctx, *patch.CategoryID, userID)
			if err != nil {
				return err
			}
			previous, err := found.AssignCategory(category)
			if err != nil {
				return financeErrors.NewForbiddenError("You don't have access to this category")
			}
			s.logger.Info("expense category changed", "expense_id", expenseID, "from", categoryLabel(previous), "to", category.ID)
		}

		found.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)
		if err := s.repo.Update(ctx, found); err != nil {
			return financeErrors.NewInternalError("Failed to update expense", err)
		}
		expense = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("expense updated", "expense_id", expenseID, "user_id", userID)
	return expense, nil
}

func (s *ExpenseService) Delete(ctx context.Context, expenseID, userID int64) error {
	err := s.tx.WithinTx(ctx, false, func(ctx context.Context) error {
		if _, err := s.findOwnedExpense(ctx, expenseID, userID, "delete"); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, expenseID); err != nil {
			return financeErrors.NewInternalError("Failed to delete expense", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("expense deleted", "expense_id", expenseID, "user_id", userID)
	return nil
}

func categoryLabel(categoryID *int64) any {
	if categoryID == nil {
		return "none"
	}
	return *categoryID
}
