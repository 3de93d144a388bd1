package application_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sebuszqo/FinanceDashboard/internal/finance/application"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
	"github.com/sebuszqo/FinanceDashboard/internal/storage/memory"
	"github.com/sebuszqo/FinanceDashboard/internal/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	store      *memory.Store
	clock      *clock
	categories *application.CategoryService
	expenses   *application.ExpenseService
}

func newFixture(t *testing.T, policy domain.CategoryDeletePolicy) *fixture {
	t.Helper()
	store := memory.NewStore()
	c := &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	logger := discardLogger()

	return &fixture{
		store: store,
		clock: c,
		categories: application.NewCategoryService(store.Categories(), store.Expenses(), store, logger,
			application.CategoryOptions{DeletePolicy: policy, Now: c.Now}),
		expenses: application.NewExpenseService(store.Expenses(), store.Categories(), store, logger,
			application.ExpenseOptions{Now: c.Now}),
	}
}

func (f *fixture) user(t *testing.T, email string) int64 {
	t.Helper()
	u := &user.User{FirstName: "Test", LastName: "User", Email: email, PasswordHash: "x", CreatedAt: f.clock.Now()}
	require.NoError(t, f.store.Users().CreateUser(context.Background(), u))
	return u.ID
}

func (f *fixture) category(t *testing.T, name string, userID int64) *domain.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), name, userID)
	require.NoError(t, err)
	return c
}

func (f *fixture) expense(t *testing.T, amount string, categoryID, userID int64) *domain.Expense {
	t.Helper()
	e, err := f.expenses.Create(context.Background(), decimal.RequireFromString(amount), "", categoryID, userID)
	require.NoError(t, err)
	return e
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}
