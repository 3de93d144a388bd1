package interfaces

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	financeErrors "github.com/sebuszqo/FinanceDashboard/internal/finance/errors"
	"github.com/sebuszqo/FinanceDashboard/internal/logging"
	"github.com/sebuszqo/FinanceDashboard/internal/user"
)

type (
	JSONResponder  func(w http.ResponseWriter, status int, payload interface{})
	ErrorResponder func(w http.ResponseWriter, status int, message string, errors ...[]string)
)

func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("JSON encoding error", "error", err)
	}
}

func RespondError(w http.ResponseWriter, status int, message string, errors ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}
	if len(errors) > 0 && len(errors[0]) > 0 {
		payload["errors"] = errors[0]
	}
	RespondJSON(w, status, payload)
}

// serviceError translates a service failure into the error body. Internal
// causes are logged and never written to the client.
func serviceError(respondError ErrorResponder, logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	kind := financeErrors.KindOf(err)
	if kind == financeErrors.KindInternal {
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", logging.RequestIDFromContext(r.Context()), "error", err)
	}
	var details []string
	if ve, ok := err.(*financeErrors.ValidationErrors); ok {
		details = ve.Messages()
	}
	respondError(w, financeErrors.StatusCode(kind), financeErrors.Message(err), details)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func caller(r *http.Request) (*user.User, bool) {
	return user.FromContext(r.Context())
}
