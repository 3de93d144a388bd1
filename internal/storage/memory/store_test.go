package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
	"github.com/sebuszqo/FinanceDashboard/internal/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, s *Store, email string) int64 {
	t.Helper()
	u := &user.User{FirstName: "F", LastName: "L", Email: email, PasswordHash: "x", CreatedAt: testNow}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u.ID
}

func seedCategory(t *testing.T, s *Store, name string, userID int64) *domain.Category {
	t.Helper()
	c := &domain.Category{Name: name, UserID: userID, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, s.Categories().Create(context.Background(), c))
	return c
}

func seedExpense(t *testing.T, s *Store, categoryID *int64, userID int64) *domain.Expense {
	t.Helper()
	e := &domain.Expense{Amount: decimal.NewFromInt(5), CategoryID: categoryID, UserID: userID, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, s.Expenses().Create(context.Background(), e))
	return e
}

func TestUsers_UniqueEmail(t *testing.T) {
	s := NewStore()
	id := seedUser(t, s, "a@example.com")

	err := s.Users().CreateUser(context.Background(), &user.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, user.ErrEmailAlreadyExists)

	got, err := s.Users().GetUserByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = s.Users().GetUserByEmail(context.Background(), "b@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestCategories_ForeignKeys(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.Categories().Create(ctx, &domain.Category{Name: "Food", UserID: 99})
	assert.ErrorIs(t, err, ErrForeignKey)

	owner := seedUser(t, s, "a@example.com")
	food := seedCategory(t, s, "Food", owner)
	seedExpense(t, s, &food.ID, owner)

	assert.ErrorIs(t, s.Categories().Delete(ctx, food.ID), ErrCategoryReferenced)

	missing := int64(999)
	err = s.Expenses().Create(ctx, &domain.Expense{Amount: decimal.NewFromInt(1), CategoryID: &missing, UserID: owner})
	assert.ErrorIs(t, err, ErrForeignKey)
}

func TestCategories_UpdateKeepsOwner(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "a@example.com")
	food := seedCategory(t, s, "Food", owner)

	require.NoError(t, s.Categories().Update(ctx, &domain.Category{ID: food.ID, Name: "Groceries", UserID: 77}))

	got, err := s.Categories().FindByID(ctx, food.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)
	assert.Equal(t, owner, got.UserID)
	assert.Equal(t, testNow, got.CreatedAt)

	exists, err := s.Categories().ExistsByNameAndUser(ctx, "Food", owner)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestExpenses_RelinkKeepsIndexesInStep(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "a@example.com")
	food := seedCategory(t, s, "Food", owner)
	rent := seedCategory(t, s, "Rent", owner)
	e := seedExpense(t, s, &food.ID, owner)

	e.CategoryID = &rent.ID
	require.NoError(t, s.Expenses().Update(ctx, e))
	assert.NotContains(t, s.state.categoryExpenses[food.ID], e.ID)
	assert.Contains(t, s.state.categoryExpenses[rent.ID], e.ID)

	e.CategoryID = nil
	require.NoError(t, s.Expenses().Update(ctx, e))
	assert.Empty(t, s.state.categoryExpenses[rent.ID])
	assert.Contains(t, s.state.userExpenses[owner], e.ID)

	require.NoError(t, s.Categories().Delete(ctx, rent.ID))
	assert.NotContains(t, s.state.userCategories[owner], rent.ID)

	require.NoError(t, s.Expenses().Delete(ctx, e.ID))
	assert.Empty(t, s.state.userExpenses[owner])
	assert.ErrorIs(t, s.Expenses().Delete(ctx, e.ID), domain.ErrExpenseNotFound)
}

func TestExpenses_ReturnedValuesAreCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "a@example.com")
	food := seedCategory(t, s, "Food", owner)
	e := seedExpense(t, s, &food.ID, owner)

	got, err := s.Expenses().FindByID(ctx, e.ID)
	require.NoError(t, err)
	*got.CategoryID = 12345

	again, err := s.Expenses().FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, food.ID, *again.CategoryID)
}

func TestExpenses_DateRangeInclusive(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "a@example.com")
	food := seedCategory(t, s, "Food", owner)
	e := seedExpense(t, s, &food.ID, owner)

	list, err := s.Expenses().FindByUserAndCreatedAtBetween(ctx, owner, testNow, testNow)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.ID, list[0].ID)

	list, err = s.Expenses().FindByUserAndCreatedAtBetween(ctx, owner, testNow.Add(time.Nanosecond), testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "a@example.com")

	boom := errors.New("boom")
	err := s.WithinTx(ctx, false, func(ctx context.Context) error {
		c := &domain.Category{Name: "Food", UserID: owner}
		if err := s.Categories().Create(ctx, c); err != nil {
			return err
		}
		e := &domain.Expense{Amount: decimal.NewFromInt(1), CategoryID: &c.ID, UserID: owner}
		if err := s.Expenses().Create(ctx, e); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	categories, err := s.Categories().FindByUser(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, categories)
	expenses, err := s.Expenses().FindByUser(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, expenses)

	next := seedCategory(t, s, "Rent", owner)
	assert.Equal(t, int64(1), next.ID, "sequence is rolled back with the rest of the state")
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "a@example.com")

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, false, func(ctx context.Context) error {
			_ = s.Categories().Create(ctx, &domain.Category{Name: "Food", UserID: owner})
			panic("unexpected")
		})
	})

	categories, err := s.Categories().FindByUser(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestWithinTx_ReadOnlyRejectsWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "a@example.com")

	err := s.WithinTx(ctx, true, func(ctx context.Context) error {
		return s.Categories().Create(ctx, &domain.Category{Name: "Food", UserID: owner})
	})
	assert.ErrorIs(t, err, ErrReadOnlyTx)

	err = s.WithinTx(ctx, true, func(ctx context.Context) error {
		return s.WithinTx(ctx, false, func(context.Context) error { return nil })
	})
	assert.ErrorIs(t, err, ErrReadOnlyTx)

	err = s.WithinTx(ctx, true, func(ctx context.Context) error {
		_, err := s.Categories().FindByUser(ctx, owner)
		return err
	})
	assert.NoError(t, err)
}
