package interfaces

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sebuszqo/FinanceDashboard/internal/finance/application"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
	"github.com/sebuszqo/FinanceDashboard/internal/storage/memory"
	"github.com/sebuszqo/FinanceDashboard/internal/user"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store      *memory.Store
	categories *application.CategoryService
	expenses   *application.ExpenseService
	category   *CategoryHandler
	expense    *ExpenseHandler
	now        time.Time
}

func newTestEnv(t *testing.T, policy domain.CategoryDeletePolicy) *testEnv {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{store: store, now: time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return env.now }

	env.categories = application.NewCategoryService(store.Categories(), store.Expenses(), store, logger,
		application.CategoryOptions{DeletePolicy: policy, Now: clock})
	env.expenses = application.NewExpenseService(store.Expenses(), store.Categories(), store, logger,
		application.ExpenseOptions{Now: clock})
	env.category = NewCategoryHandler(env.categories, RespondJSON, RespondError, logger)
	env.expense = NewExpenseHandler(env.expenses, env.categories, RespondJSON, RespondError, logger)
	return env
}

func (e *testEnv) user(t *testing.T, email string) *user.User {
	t.Helper()
	u := &user.User{FirstName: "Test", LastName: "User", Email: email, PasswordHash: "x", CreatedAt: e.now}
	require.NoError(t, e.store.Users().CreateUser(context.Background(), u))
	return u
}

// request builds a request as the identity middleware would hand it over.
// pathValues are name/value pairs.
func request(method, target, body string, u *user.User, pathValues ...string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	if u != nil {
		r = r.WithContext(user.WithUser(r.Context(), u))
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		r.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return r
}

func serve(handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}
