package infrastructure_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sebuszqo/FinanceDashboard/internal/db/dbtest"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/application"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
	financeErrors "github.com/sebuszqo/FinanceDashboard/internal/finance/errors"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/infrastructure"
	"github.com/sebuszqo/FinanceDashboard/internal/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepositories(t *testing.T) {
	db := dbtest.NewPostgres(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

	users := user.NewUserRepository(db.DB)
	categories := infrastructure.NewCategoryRepository(db.DB)
	expenses := infrastructure.NewExpenseRepository(db.DB)

	newUser := func(t *testing.T, email string) int64 {
		u := &user.User{FirstName: "Ada", LastName: "Lovelace", Email: email, PasswordHash: "hash", CreatedAt: now}
		require.NoError(t, users.CreateUser(ctx, u))
		return u.ID
	}

	t.Run("user email is unique", func(t *testing.T) {
		newUser(t, "unique@example.com")
		err := users.CreateUser(ctx, &user.User{FirstName: "B", LastName: "C", Email: "unique@example.com", PasswordHash: "x", CreatedAt: now})
		assert.ErrorIs(t, err, user.ErrEmailAlreadyExists)

		_, err = users.GetUserByEmail(ctx, "missing@example.com")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("category crud", func(t *testing.T) {
		owner := newUser(t, "categories@example.com")
		c := &domain.Category{Name: "Food", UserID: owner, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, categories.Create(ctx, c))
		require.NotZero(t, c.ID)

		exists, err := categories.ExistsByNameAndUser(ctx, "Food", owner)
		require.NoError(t, err)
		assert.True(t, exists)

		byName, err := categories.FindByNameAndUser(ctx, "Food", owner)
		require.NoError(t, err)
		assert.Equal(t, c.ID, byName.ID)

		c.Name = "Groceries"
		c.UpdatedAt = now.Add(time.Hour)
		require.NoError(t, categories.Update(ctx, c))

		got, err := categories.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Groceries", got.Name)
		assert.True(t, got.UpdatedAt.Equal(now.Add(time.Hour)))

		list, err := categories.FindByUser(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, categories.Delete(ctx, c.ID))
		_, err = categories.FindByID(ctx, c.ID)
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
		assert.ErrorIs(t, categories.Delete(ctx, c.ID), domain.ErrCategoryNotFound)
	})

	t.Run("expense queries", func(t *testing.T) {
		owner := newUser(t, "expenses@example.com")
		c := &domain.Category{Name: "Food", UserID: owner, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, categories.Create(ctx, c))

		first := &domain.Expense{Amount: decimal.RequireFromString("12.50"), Description: "lunch", CategoryID: &c.ID, UserID: owner, CreatedAt: now, UpdatedAt: now}
		second := &domain.Expense{Amount: decimal.RequireFromString("3.99"), CategoryID: &c.ID, UserID: owner, CreatedAt: now.Add(48 * time.Hour), UpdatedAt: now}
		require.NoError(t, expenses.Create(ctx, first))
		require.NoError(t, expenses.Create(ctx, second))

		got, err := expenses.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.50")))
		assert.Equal(t, "lunch", got.Description)
		require.NotNil(t, got.CategoryID)
		assert.Equal(t, c.ID, *got.CategoryID)

		inRange, err := expenses.FindByUserAndCreatedAtBetween(ctx, owner, now, now)
		require.NoError(t, err)
		require.Len(t, inRange, 1)
		assert.Equal(t, first.ID, inRange[0].ID)

		byCategory, err := expenses.FindByUserAndCategory(ctx, owner, c.ID)
		require.NoError(t, err)
		assert.Len(t, byCategory, 2)

		got.CategoryID = nil
		require.NoError(t, expenses.Update(ctx, got))
		orphan, err := expenses.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Nil(t, orphan.CategoryID)

		require.NoError(t, expenses.Delete(ctx, second.ID))
		_, err = expenses.FindByID(ctx, second.ID)
		assert.ErrorIs(t, err, domain.ErrExpenseNotFound)
	})

	for _, policy := range []domain.CategoryDeletePolicy{domain.DeletePolicyCascade, domain.DeletePolicyOrphan} {
		t.Run("delete category "+string(policy), func(t *testing.T) {
			owner := newUser(t, string(policy)+"@example.com")
			categorySvc := application.NewCategoryService(categories, expenses, db, logger, application.CategoryOptions{DeletePolicy: policy})
			expenseSvc := application.NewExpenseService(expenses, categories, db, logger, application.ExpenseOptions{})

			food, err := categorySvc.Create(ctx, "Food", owner)
			require.NoError(t, err)
			_, err = categorySvc.Create(ctx, "Food", owner)
			assert.True(t, financeErrors.Is(err, financeErrors.KindConflict))

			e, err := expenseSvc.Create(ctx, decimal.RequireFromString("12.50"), "", food.ID, owner)
			require.NoError(t, err)

			require.NoError(t, categorySvc.Delete(ctx, food.ID, owner))

			list, err := categorySvc.ListByUser(ctx, owner)
			require.NoError(t, err)
			assert.Empty(t, list)

			remaining, err := expenseSvc.ListByUser(ctx, owner)
			require.NoError(t, err)
			if policy == domain.DeletePolicyOrphan {
				require.Len(t, remaining, 1)
				assert.Equal(t, e.ID, remaining[0].ID)
				assert.Nil(t, remaining[0].CategoryID)
			} else {
				assert.Empty(t, remaining)
			}
		})
	}

	t.Run("stored expense matches the created one", func(t *testing.T) {
		owner := newUser(t, "roundtrip@example.com")
		categorySvc := application.NewCategoryService(categories, expenses, db, logger, application.CategoryOptions{})
		expenseSvc := application.NewExpenseService(expenses, categories, db, logger, application.ExpenseOptions{})
		food, err := categorySvc.Create(ctx, "Food", owner)
		require.NoError(t, err)

		_, err = expenseSvc.Create(ctx, decimal.RequireFromString("0.001"), "", food.ID, owner)
		assert.True(t, financeErrors.Is(err, financeErrors.KindBadRequest))
		_, err = expenseSvc.Create(ctx, decimal.RequireFromString("12.345"), "", food.ID, owner)
		assert.True(t, financeErrors.Is(err, financeErrors.KindBadRequest))

		created, err := expenseSvc.Create(ctx, decimal.RequireFromString("99999999999999999.99"), "", food.ID, owner)
		require.NoError(t, err)
		stored, err := expenseSvc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, stored.Amount.Equal(created.Amount))
		assert.True(t, stored.CreatedAt.Equal(created.CreatedAt), "timestamps survive the TIMESTAMPTZ round trip")
	})

	t.Run("failed transaction rolls back", func(t *testing.T) {
		owner := newUser(t, "rollback@example.com")
		categorySvc := application.NewCategoryService(categories, expenses, db, logger, application.CategoryOptions{})

		err := db.WithinTx(ctx, false, func(ctx context.Context) error {
			if _, err := categorySvc.Create(ctx, "Temp", owner); err != nil {
				return err
			}
			_, err := categorySvc.Create(ctx, "Temp", owner)
			return err
		})
		assert.True(t, financeErrors.Is(err, financeErrors.KindConflict))

		list, err := categorySvc.ListByUser(ctx, owner)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
