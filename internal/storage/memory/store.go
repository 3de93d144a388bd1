// Package memory is an arena-style backend: entities live in maps keyed by
// numeric id and relationships are explicit index sets kept in step by the
// link/unlink routines in relations.go.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
	"github.com/sebuszqo/FinanceDashboard/internal/user"
)

var (
	ErrReadOnlyTx         = errors.New("write attempted in a read-only transaction")
	ErrForeignKey         = errors.New("referenced row does not exist")
	ErrCategoryReferenced = errors.New("category is still referenced by expenses")
)

type idSet map[int64]struct{}

type state struct {
	users        map[int64]user.User
	usersByEmail map[string]int64
	categories   map[int64]domain.Category
	expenses     map[int64]domain.Expense

	userCategories   map[int64]idSet
	userExpenses     map[int64]idSet
	categoryExpenses map[int64]idSet

	seqUser     int64
	seqCategory int64
	seqExpense  int64
}

func newState() *state {
	return &state{
		users:            make(map[int64]user.User),
		usersByEmail:     make(map[string]int64),
		categories:       make(map[int64]domain.Category),
		expenses:         make(map[int64]domain.Expense),
		userCategories:   make(map[int64]idSet),
		userExpenses:     make(map[int64]idSet),
		categoryExpenses: make(map[int64]idSet),
	}
}

func (st *state) clone() *state {
	c := newState()
	for id, u := range st.users {
		c.users[id] = u
	}
	for email, id := range st.usersByEmail {
		c.usersByEmail[email] = id
	}
	for id, cat := range st.categories {
		c.categories[id] = cat
	}
	for id, e := range st.expenses {
		c.expenses[id] = copyExpense(e)
	}
	cloneIndex(c.userCategories, st.userCategories)
	cloneIndex(c.userExpenses, st.userExpenses)
	cloneIndex(c.categoryExpenses, st.categoryExpenses)
	c.seqUser, c.seqCategory, c.seqExpense = st.seqUser, st.seqCategory, st.seqExpense
	return c
}

func cloneIndex(dst, src map[int64]idSet) {
	for key, set := range src {
		copied := make(idSet, len(set))
		for id := range set {
			copied[id] = struct{}{}
		}
		dst[key] = copied
	}
}

func copyExpense(e domain.Expense) domain.Expense {
	if e.CategoryID != nil {
		id := *e.CategoryID
		e.CategoryID = &id
	}
	return e
}

// Store holds the whole entity graph behind one lock. Write transactions run
// against the live state and restore a snapshot when they fail.
type Store struct {
	mu    sync.RWMutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

type txMarker struct {
	readOnly bool
}

func (s *Store) WithinTx(ctx context.Context, readOnly bool, fn func(ctx context.Context) error) (err error) {
	if marker, ok := ctx.Value(txKey{}).(*txMarker); ok {
		if marker.readOnly && !readOnly {
			return ErrReadOnlyTx
		}
		return fn(ctx)
	}

	txCtx := context.WithValue(ctx, txKey{}, &txMarker{readOnly: readOnly})
	if readOnly {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fn(txCtx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()
	return fn(txCtx)
}

func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if _, ok := ctx.Value(txKey{}).(*txMarker); ok {
		return fn(s.state)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if marker, ok := ctx.Value(txKey{}).(*txMarker); ok {
		if marker.readOnly {
			return ErrReadOnlyTx
		}
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func (s *Store) Health(_ context.Context) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]string{
		"status":  "up",
		"message": "in-memory store",
	}
}

func (s *Store) Users() user.Repository {
	return &userRepository{store: s}
}

func (s *Store) Categories() domain.CategoryRepository {
	return &categoryRepository{store: s}
}

func (s *Store) Expenses() domain.ExpenseRepository {
	return &expenseRepository{store: s}
}
