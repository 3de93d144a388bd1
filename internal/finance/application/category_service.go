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
)

const maxCategoryNameLength = 255

type CategoryOptions struct {
	DeletePolicy domain.CategoryDeletePolicy
	Now          func() time.Time
}

type CategoryService struct {
	repo     domain.CategoryRepository
	expenses domain.ExpenseRepository
	tx       database.Transactor
	policy   domain.CategoryDeletePolicy
	logger   *slog.Logger
	now      func() time.Time
}

func NewCategoryService(repo domain.CategoryRepository, expenses domain.ExpenseRepository, tx database.Transactor, logger *slog.Logger, opts CategoryOptions) *CategoryService {
	s := &CategoryService{
		repo:     repo,
		expenses: expenses,
		tx:       tx,
		policy:   opts.DeletePolicy,
		logger:   logger.With("component", "category_service"),
		now:      opts.Now,
	}
	if !s.policy.Valid() {
		s.policy = domain.DeletePolicyCascade
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *CategoryService) DeletePolicy() domain.CategoryDeletePolicy {
	return s.policy
}

func normalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", financeErrors.NewBadRequestError("Category name is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLength {
		return "", financeErrors.NewBadRequestError("Category name must be at most 255 characters")
	}
	return name, nil
}

func (s *CategoryService) ListByUser(ctx context.Context, userID int64) ([]domain.Category, error) {
	var categories []domain.Category
	err := s.tx.WithinTx(ctx, true, func(ctx context.Context) error {
		found, err := s.repo.FindByUser(ctx, userID)
		if err != nil {
			return financeErrors.NewInternalError("Failed to retrieve categories", err)
		}
		categories = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// GetByID does not check ownership, callers authorize with Category.OwnedBy.
func (s *CategoryService) GetByID(ctx context.Context, categoryID int64) (*domain.Category, error) {
	var category *domain.Category
	err := s.tx.WithinTx(ctx, true, func(ctx context.Context) error {
		found, err := s.findCategory(ctx, categoryID)
		category = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) findCategory(ctx context.Context, categoryID int64) (*domain.Category, error) {
	category, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			s.logger.Warn("category not found", "category_id", categoryID)
			return nil, financeErrors.NewNotFoundError("Category not found")
		}
		return nil, financeErrors.NewInternalError("Failed to retrieve category", err)
	}
	return category, nil
}

func (s *CategoryService) findOwnedCategory(ctx context.Context, categoryID, userID int64, action string) (*domain.Category, error) {
	category, err := s.findCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !category.OwnedBy(userID) {
		s.logger.Warn("category ownership check failed", "category_id", categoryID, "user_id", userID, "action", action)
		return nil, financeErrors.NewForbiddenError("You don't have permission to " + action + " this category")
	}
	return category, nil
}

func (s *CategoryService) Create(ctx context.Context, name string, userID int64) (*domain.Category, error) {
	name, err := normalizeCategoryName(name)
	if err != nil {
		return nil, err
	}

	var category *domain.Category
	err = s.tx.WithinTx(ctx, false, func(ctx context.Context) error {
		exists, err := s.repo.ExistsByNameAndUser(ctx, name, userID)
		if err != nil {
			return financeErrors.NewInternalError("Failed to create category", err)
		}
		if exists {
			s.logger.Warn("duplicate category rejected", "name", name, "user_id", userID)
			return financeErrors.NewConflictError("Category with name '" + name + "' already exists")
		}

		now := s.now().UTC().Truncate(time.Microsecond)
		category = &domain.Category{
			Name:      name,
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Create(ctx, category); err != nil {
			return financeErrors.NewInternalError("Failed to create category", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("category created", "category_id", category.ID, "user_id", userID)
	return category, nil
}

func (s *CategoryService) Rename(ctx context.Context, categoryID int64, newName string, userID int64) (*domain.Category, error) {
	var category *domain.Category
	err := s.tx.WithinTx(ctx, false, func(ctx context.Context) error {
		found, err := s.findOwnedCategory(ctx, categoryID, userID, "edit")
		if err != nil {
			return err
		}
		name, err := normalizeCategoryName(newName)
		if err != nil {
			return err
		}

		existing, err := s.repo.FindByNameAndUser(ctx, name, userID)
		if err != nil && !errors.Is(err, domain.ErrCategoryNotFound) {
			return financeErrors.NewInternalError("Failed to update category", err)
		}
		if existing != nil && existing.ID != categoryID {
			s.logger.Warn("rename to existing category name rejected", "name", name, "user_id", userID)
			return financeErrors.NewConflictError("Category with name '" + name + "' already exists")
		}

		found.Name = name
		found.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)
		if err := s.repo.Update(ctx, found); err != nil {
			return financeErrors.NewInternalError("Failed to update category", err)
		}
		category = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("category renamed", "category_id", categoryID, "user_id", userID)
	return category, nil
}

// Delete resolves every expense of the category according to the delete
// policy and then removes the category, all in one transaction.
func (s *CategoryService) Delete(ctx context.Context, categoryID, userID int64) error {
	err := s.tx.WithinTx(ctx, false, func(ctx context.Context) error {
		if _, err := s.findOwnedCategory(ctx, categoryID, userID, "delete"); err != nil {
			return err
		}

		if err := s.resolveExpenses(ctx, categoryID); err != nil {
			s.logger.Error("failed to resolve category expenses", "category_id", categoryID, "policy", s.policy, "error", err)
			return financeErrors.NewInternalError("Failed to delete category", err)
		}

		if err := s.repo.Delete(ctx, categoryID); err != nil {
			s.logger.Error("failed to delete category", "category_id", categoryID, "error", err)
			return financeErrors.NewInternalError("Failed to delete category", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("category deleted", "category_id", categoryID, "user_id", userID, "policy", s.policy)
	return nil
}

func (s *CategoryService) resolveExpenses(ctx context.Context, categoryID int64) error {
	expenses, err := s.expenses.FindByCategory(ctx, categoryID)
	if err != nil {
		return err
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	for i := range expenses {
		expense := &expenses[i]
		switch s.policy {
		case domain.DeletePolicyOrphan:
			expense.DetachCategory()
			expense.UpdatedAt = now
			if err := s.expenses.Update(ctx, expense); err != nil {
				return err
			}
		default:
			if err := s.expenses.Delete(ctx, expense.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
