package user_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sebuszqo/FinanceDashboard/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireEmailIdentity(t *testing.T) {
	h := newTestHandler(t)
	register(t, h, "a@example.com")

	var resolved *user.User
	protected := h.RequireEmailIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := user.FromContext(r.Context())
		require.True(t, ok)
		resolved = u
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("known email", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		req.Header.Set(user.EmailHeader, "a@example.com")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		require.NotNil(t, resolved)
		assert.Equal(t, "a@example.com", resolved.Email)
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		req.Header.Set(user.EmailHeader, "ghost@example.com")
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFromContext_Empty(t *testing.T) {
	_, ok := user.FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
