package memory

import (
	"context"
	"time"

	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
)

type expenseRepository struct {
	store *Store
}

func (r *expenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	return r.store.write(ctx, func(st *state) error {
		if err := st.checkExpenseReferences(*expense); err != nil {
			return err
		}
		st.seqExpense++
		expense.ID = st.seqExpense
		stored := copyExpense(*expense)
		st.expenses[expense.ID] = stored
		st.linkExpense(stored)
		return nil
	})
}

func (st *state) checkExpenseReferences(e domain.Expense) error {
	if _, ok := st.users[e.UserID]; !ok {
		return ErrForeignKey
	}
	if e.CategoryID != nil {
		if _, ok := st.categories[*e.CategoryID]; !ok {
			return ErrForeignKey
		}
	}
	return nil
}

func (r *expenseRepository) FindByID(ctx context.Context, expenseID int64) (*domain.Expense, error) {
	var found domain.Expense
	err := r.store.read(ctx, func(st *state) error {
		e, ok := st.expenses[expenseID]
		if !ok {
			return domain.ErrExpenseNotFound
		}
		found = copyExpense(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *expenseRepository) collect(ctx context.Context, index func(st *state) idSet, keep func(e domain.Expense) bool) ([]domain.Expense, error) {
	expenses := []domain.Expense{}
	err := r.store.read(ctx, func(st *state) error {
		for _, id := range sortedIDs(index(st)) {
			e := st.expenses[id]
			if keep == nil || keep(e) {
				expenses = append(expenses, copyExpense(e))
			}
		}
		return nil
	})
	return expenses, err
}

func (r *expenseRepository) FindByUser(ctx context.Context, userID int64) ([]domain.Expense, error) {
	return r.collect(ctx, func(st *state) idSet { return st.userExpenses[userID] }, nil)
}

func (r *expenseRepository) FindByUserAndCategory(ctx context.Context, userID, categoryID int64) ([]domain.Expense, error) {
	return r.collect(ctx,
		func(st *state) idSet { return st.categoryExpenses[categoryID] },
		func(e domain.Expense) bool { return e.UserID == userID },
	)
}

func (r *expenseRepository) FindByCategory(ctx context.Context, categoryID int64) ([]domain.Expense, error) {
	return r.collect(ctx, func(st *state) idSet { return st.categoryExpenses[categoryID] }, nil)
}

func (r *expenseRepository) FindByUserAndCreatedAtBetween(ctx context.Context, userID int64, start, end time.Time) ([]domain.Expense, error) {
	return r.collect(ctx,
		func(st *state) idSet { return st.userExpenses[userID] },
		func(e domain.Expense) bool { return !e.CreatedAt.Before(start) && !e.CreatedAt.After(end) },
	)
}

func (r *expenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	return r.store.write(ctx, func(st *state) error {
		previous, ok := st.expenses[expense.ID]
		if !ok {
			return domain.ErrExpenseNotFound
		}
		if err := st.checkExpenseReferences(*expense); err != nil {
			return err
		}
		updated := copyExpense(*expense)
		updated.UserID = previous.UserID
		updated.CreatedAt = previous.CreatedAt
		st.expenses[expense.ID] = updated
		st.relinkExpense(previous, updated)
		return nil
	})
}

func (r *expenseRepository) Delete(ctx context.Context, expenseID int64) error {
	return r.store.write(ctx, func(st *state) error {
		e, ok := st.expenses[expenseID]
		if !ok {
			return domain.ErrExpenseNotFound
		}
		st.unlinkExpense(e)
		delete(st.expenses, expenseID)
		return nil
	})
}
