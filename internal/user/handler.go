package user

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	financeErrors "github.com/sebuszqo/FinanceDashboard/internal/finance/errors"
	"github.com/sebuszqo/FinanceDashboard/internal/logging"
)

type Handler struct {
	userService Service
	logger      *slog.Logger
}

func NewHandler(userService Service, logger *slog.Logger) *Handler {
	return &Handler{
		userService: userService,
		logger:      logger.With("component", "user_handler"),
	}
}

type View struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toView(u *User) View {
	return View{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("JSON encoding error", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, errors ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}
	if len(errors) > 0 && len(errors[0]) > 0 {
		payload["errors"] = errors[0]
	}
	respondJSON(w, status, payload)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := financeErrors.KindOf(err)
	status := financeErrors.StatusCode(kind)
	if kind == financeErrors.KindInternal {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path,
			"request_id", logging.RequestIDFromContext(r.Context()), "error", err)
	}
	var details []string
	if ve, ok := err.(*financeErrors.ValidationErrors); ok {
		details = ve.Messages()
	}
	respondError(w, status, financeErrors.Message(err), details)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	message, err := h.userService.Register(r.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(message))
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	existingUser, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toView(existingUser))
}
