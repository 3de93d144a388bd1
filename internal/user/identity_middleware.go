package user

import (
	"context"
	"net/http"
	"strings"
)

// EmailHeader carries the caller identity. It is a bare claim, not a
// credential: whoever knows an email address can act as that user.
const EmailHeader = "Email"

type contextKey struct{}

// FromContext returns the user resolved by RequireEmailIdentity.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextKey{}).(*User)
	return u, ok
}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// RequireEmailIdentity resolves the Email header to a User before calling next.
func (h *Handler) RequireEmailIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get(EmailHeader))
		if email == "" {
			respondError(w, http.StatusBadRequest, "Email header is required")
			return
		}

		caller, err := h.userService.GetUserByEmail(r.Context(), email)
		if err != nil {
			h.respondServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), caller)))
	})
}
