package domain

import (
	"context"
	"errors"
	"time"
)

var ErrCategoryNotFound = errors.New("category not found")

// Category is a named expense bucket. Name is unique per owner, not globally.
type Category struct {
	ID        int64
	Name      string
	UserID    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Category) OwnedBy(userID int64) bool {
	return c.UserID == userID
}

// CategoryDeletePolicy decides what happens to the expenses of a deleted category.
type CategoryDeletePolicy string

const (
	// DeletePolicyCascade removes every expense of the category along with it.
	DeletePolicyCascade CategoryDeletePolicy = "cascade"
	// DeletePolicyOrphan clears the category reference and keeps the expenses.
	DeletePolicyOrphan CategoryDeletePolicy = "orphan"
)

func (p CategoryDeletePolicy) Valid() bool {
	return p == DeletePolicyCascade || p == DeletePolicyOrphan
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	FindByID(ctx context.Context, categoryID int64) (*Category, error)
	FindByUser(ctx context.Context, userID int64) ([]Category, error)
	FindByNameAndUser(ctx context.Context, name string, userID int64) (*Category, error)
	ExistsByNameAndUser(ctx context.Context, name string, userID int64) (bool, error)
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, categoryID int64) error
}
