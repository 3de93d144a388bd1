package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrExpenseNotFound       = errors.New("expense not found")
	ErrNonPositiveAmount     = errors.New("the amount must be greater than zero")
	ErrAmountPrecision       = errors.New("the amount must have at most 2 decimal places and 17 integer digits")
	ErrCategoryOwnerMismatch = errors.New("category belongs to another user")
)

// Expense is a single spend event. CategoryID is nil only for an orphan, i.e.
// an expense whose category was deleted under DeletePolicyOrphan.
type Expense struct {
	ID          int64
	Amount      decimal.Decimal
	Description string
	CategoryID  *int64
	UserID      int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ExpensePatch carries a partial update; nil fields are left untouched.
type ExpensePatch struct {
	Amount      *decimal.Decimal
	Description *string
	CategoryID  *int64
}

// Amounts are stored as NUMERIC(19, 2).
const (
	AmountScale         = 2
	amountIntegerDigits = 17
)

var maxAmount = decimal.New(1, amountIntegerDigits)

// ValidateAmount rejects amounts the store could not keep exactly.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !amount.Equal(amount.Truncate(AmountScale)) || amount.GreaterThanOrEqual(maxAmount) {
		return ErrAmountPrecision
	}
	return nil
}

func (e *Expense) OwnedBy(userID int64) bool {
	return e.UserID == userID
}

func (e *Expense) InCategory(categoryID int64) bool {
	return e.CategoryID != nil && *e.CategoryID == categoryID
}

// AssignCategory points e at c. The expense and the category must share the
// same owner. It returns the previous category id, nil when there was none.
func (e *Expense) AssignCategory(c *Category) (*int64, error) {
	if !c.OwnedBy(e.UserID) {
		return nil, ErrCategoryOwnerMismatch
	}
	previous := e.CategoryID
	id := c.ID
	e.CategoryID = &id
	return previous, nil
}

// DetachCategory clears the category reference and returns the previous one.
func (e *Expense) DetachCategory() *int64 {
	previous := e.CategoryID
	e.CategoryID = nil
	return previous
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) error
	FindByID(ctx context.Context, expenseID int64) (*Expense, error)
	FindByUser(ctx context.Context, userID int64) ([]Expense, error)
	FindByUserAndCategory(ctx context.Context, userID, categoryID int64) ([]Expense, error)
	FindByCategory(ctx context.Context, categoryID int64) ([]Expense, error)
	FindByUserAndCreatedAtBetween(ctx context.Context, userID int64, start, end time.Time) ([]Expense, error)
	Update(ctx context.Context, expense *Expense) error
	Delete(ctx context.Context, expenseID int64) error
}
