package memory

import (
	"context"
	"errors"

	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
)

type categoryRepository struct {
	store *Store
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	return r.store.write(ctx, func(st *state) error {
		if _, ok := st.users[category.UserID]; !ok {
			return ErrForeignKey
		}
		st.seqCategory++
		category.ID = st.seqCategory
		st.categories[category.ID] = *category
		st.linkCategory(*category)
		return nil
	})
}

func (r *categoryRepository) FindByID(ctx context.Context, categoryID int64) (*domain.Category, error) {
	var found domain.Category
	err := r.store.read(ctx, func(st *state) error {
		c, ok := st.categories[categoryID]
		if !ok {
			return domain.ErrCategoryNotFound
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *categoryRepository) FindByUser(ctx context.Context, userID int64) ([]domain.Category, error) {
	categories := []domain.Category{}
	err := r.store.read(ctx, func(st *state) error {
		for _, id := range sortedIDs(st.userCategories[userID]) {
			categories = append(categories, st.categories[id])
		}
		return nil
	})
	return categories, err
}

func (r *categoryRepository) FindByNameAndUser(ctx context.Context, name string, userID int64) (*domain.Category, error) {
	var found *domain.Category
	err := r.store.read(ctx, func(st *state) error {
		for _, id := range sortedIDs(st.userCategories[userID]) {
			if c := st.categories[id]; c.Name == name {
				found = &c
				return nil
			}
		}
		return domain.ErrCategoryNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *categoryRepository) ExistsByNameAndUser(ctx context.Context, name string, userID int64) (bool, error) {
	_, err := r.FindByNameAndUser(ctx, name, userID)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	return r.store.write(ctx, func(st *state) error {
		stored, ok := st.categories[category.ID]
		if !ok {
			return domain.ErrCategoryNotFound
		}
		// the owner is set once at creation
		category.UserID = stored.UserID
		category.CreatedAt = stored.CreatedAt
		st.categories[category.ID] = *category
		return nil
	})
}

func (r *categoryRepository) Delete(ctx context.Context, categoryID int64) error {
	return r.store.write(ctx, func(st *state) error {
		c, ok := st.categories[categoryID]
		if !ok {
			return domain.ErrCategoryNotFound
		}
		if len(st.categoryExpenses[categoryID]) > 0 {
			return ErrCategoryReferenced
		}
		st.unlinkCategory(c)
		delete(st.categories, categoryID)
		return nil
	})
}
