package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/interfaces"
	"github.com/sebuszqo/FinanceDashboard/internal/logging"
	"github.com/sebuszqo/FinanceDashboard/internal/user"
)

type Response struct {
	Message string `json:"message"`
}

type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Server struct {
	router          *http.ServeMux
	userHandler     *user.Handler
	categoryHandler *interfaces.CategoryHandler
	expenseHandler  *interfaces.ExpenseHandler
	health          HealthChecker
	logger          *slog.Logger
}

func NewServer(userHandler *user.Handler, categoryHandler *interfaces.CategoryHandler, expenseHandler *interfaces.ExpenseHandler, health HealthChecker, logger *slog.Logger) *Server {
	return &Server{
		router:          http.NewServeMux(),
		userHandler:     userHandler,
		categoryHandler: categoryHandler,
		expenseHandler:  expenseHandler,
		health:          health,
		logger:          logger,
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	interfaces.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	stats := s.health.Health(ctx)
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	interfaces.RespondJSON(w, status, stats)
}

func (s *Server) RegisterRoutes() {
	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("POST /api/register", http.HandlerFunc(s.userHandler.HandleRegister))
	publicRoutes.Handle("POST /api/auth/login", http.HandlerFunc(s.userHandler.HandleLogin))
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))
	publicRoutes.Handle("GET /api/health", http.HandlerFunc(s.handleHealth))

	// Routes that resolve the caller from the Email header
	withIdentity := s.userHandler.RequireEmailIdentity
	protectedRoutes := http.NewServeMux()

	protectedRoutes.Handle("GET /api/categories", withIdentity(http.HandlerFunc(s.categoryHandler.GetCategories)))
	protectedRoutes.Handle("POST /api/categories", withIdentity(http.HandlerFunc(s.categoryHandler.CreateCategory)))
	protectedRoutes.Handle("GET /api/categories/{id}", withIdentity(http.HandlerFunc(s.categoryHandler.GetCategory)))
	protectedRoutes.Handle("PUT /api/categories/{id}", withIdentity(http.HandlerFunc(s.categoryHandler.UpdateCategory)))
	protectedRoutes.Handle("DELETE /api/categories/{id}", withIdentity(http.HandlerFunc(s.categoryHandler.DeleteCategory)))

	protectedRoutes.Handle("GET /api/expenses", withIdentity(http.HandlerFunc(s.expenseHandler.GetExpenses)))
	protectedRoutes.Handle("POST /api/expenses", withIdentity(http.HandlerFunc(s.expenseHandler.CreateExpense)))
	protectedRoutes.Handle("GET /api/expenses/{id}", withIdentity(http.HandlerFunc(s.expenseHandler.GetExpense)))
	protectedRoutes.Handle("PUT /api/expenses/{id}", withIdentity(http.HandlerFunc(s.expenseHandler.UpdateExpense)))
	protectedRoutes.Handle("DELETE /api/expenses/{id}", withIdentity(http.HandlerFunc(s.expenseHandler.DeleteExpense)))
	protectedRoutes.Handle("GET /api/expenses/category/{categoryId}", withIdentity(http.HandlerFunc(s.expenseHandler.GetExpensesByCategory)))
	protectedRoutes.Handle("GET /api/expenses/date-range", withIdentity(http.HandlerFunc(s.expenseHandler.GetExpensesByDateRange)))

	// Main router
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/categories", protectedRoutes)
	mainRouter.Handle("/api/categories/", protectedRoutes)
	mainRouter.Handle("/api/expenses", protectedRoutes)
	mainRouter.Handle("/api/expenses/", protectedRoutes)
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

// Handler wraps the router with CORS and request logging.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", user.EmailHeader, logging.RequestIDHeader},
		ExposedHeaders:   []string{logging.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return logging.Middleware(s.logger)(corsHandler(s.router))
}
