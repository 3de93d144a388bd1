package memory

import (
	"sort"

	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
)

func (st *state) linkCategory(c domain.Category) {
	addToIndex(st.userCategories, c.UserID, c.ID)
}

func (st *state) unlinkCategory(c domain.Category) {
	removeFromIndex(st.userCategories, c.UserID, c.ID)
	delete(st.categoryExpenses, c.ID)
}

func (st *state) linkExpense(e domain.Expense) {
	addToIndex(st.userExpenses, e.UserID, e.ID)
	if e.CategoryID != nil {
		addToIndex(st.categoryExpenses, *e.CategoryID, e.ID)
	}
}

func (st *state) unlinkExpense(e domain.Expense) {
	removeFromIndex(st.userExpenses, e.UserID, e.ID)
	if e.CategoryID != nil {
		removeFromIndex(st.categoryExpenses, *e.CategoryID, e.ID)
	}
}

// relinkExpense moves e between category expense sets when its category
// reference changed between previous and updated.
func (st *state) relinkExpense(previous, updated domain.Expense) {
	if sameCategory(previous.CategoryID, updated.CategoryID) {
		return
	}
	if previous.CategoryID != nil {
		removeFromIndex(st.categoryExpenses, *previous.CategoryID, previous.ID)
	}
	if updated.CategoryID != nil {
		addToIndex(st.categoryExpenses, *updated.CategoryID, updated.ID)
	}
}

func sameCategory(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func addToIndex(index map[int64]idSet, key, id int64) {
	set, ok := index[key]
	if !ok {
		set = make(idSet)
		index[key] = set
	}
	set[id] = struct{}{}
}

func removeFromIndex(index map[int64]idSet, key, id int64) {
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(index, key)
	}
}

// sortedIDs returns the ids of set in ascending order. Ids are sequential, so
// this is also creation order.
func sortedIDs(set idSet) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
