package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	database "github.com/sebuszqo/FinanceDashboard/internal/db"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
)

type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

const expenseColumns = "id, amount, description, category_id, user_id, created_at, updated_at"

func scanExpense(row interface{ Scan(dest ...any) error }) (*domain.Expense, error) {
	var (
		expense    domain.Expense
		categoryID sql.NullInt64
	)
	err := row.Scan(&expense.ID, &expense.Amount, &expense.Description, &categoryID,
		&expense.UserID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		expense.CategoryID = &categoryID.Int64
	}
	return &expense, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	query := `
		INSERT INTO expenses (amount, description, category_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, query,
		expense.Amount, expense.Description, nullableID(expense.CategoryID),
		expense.UserID, expense.CreatedAt, expense.UpdatedAt,
	).Scan(&expense.ID)
	if err != nil {
		return fmt.Errorf("could not create expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) FindByID(ctx context.Context, expenseID int64) (*domain.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses WHERE id = $1"
	expense, err := scanExpense(database.Conn(ctx, r.db).QueryRowContext(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("could not find expense: %w", err)
	}
	return expense, nil
}

func (r *ExpenseRepository) query(ctx context.Context, where string, args ...any) ([]domain.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses WHERE " + where + " ORDER BY id"
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *expense)
	}
	return expenses, rows.Err()
}

func (r *ExpenseRepository) FindByUser(ctx context.Context, userID int64) ([]domain.Expense, error) {
	return r.query(ctx, "user_id = $1", userID)
}

func (r *ExpenseRepository) FindByUserAndCategory(ctx context.Context, userID, categoryID int64) ([]domain.Expense, error) {
	return r.query(ctx, "user_id = $1 AND category_id = $2", userID, categoryID)
}

func (r *ExpenseRepository) FindByCategory(ctx context.Context, categoryID int64) ([]domain.Expense, error) {
	return r.query(ctx, "category_id = $1", categoryID)
}

func (r *ExpenseRepository) FindByUserAndCreatedAtBetween(ctx context.Context, userID int64, start, end time.Time) ([]domain.Expense, error) {
	return r.query(ctx, "user_id = $1 AND created_at BETWEEN $2 AND $3", userID, start, end)
}

// Update writes the mutable fields. Owner and created_at never change.
func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	query := `
		UPDATE expenses
		SET amount = $1, description = $2, category_id = $3, updated_at = $4
		WHERE id = $5`
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query,
		expense.Amount, expense.Description, nullableID(expense.CategoryID), expense.UpdatedAt, expense.ID)
	if err != nil {
		return fmt.Errorf("could not update expense: %w", err)
	}
	return expectAffected(result, domain.ErrExpenseNotFound)
}

func (r *ExpenseRepository) Delete(ctx context.Context, expenseID int64) error {
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, "DELETE FROM expenses WHERE id = $1", expenseID)
	if err != nil {
		return fmt.Errorf("could not delete expense: %w", err)
	}
	return expectAffected(result, domain.ErrExpenseNotFound)
}
