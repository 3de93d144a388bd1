package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	database "github.com/sebuszqo/FinanceDashboard/internal/db"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = "id, name, user_id, created_at, updated_at"

func scanCategory(row interface{ Scan(dest ...any) error }) (*domain.Category, error) {
	var category domain.Category
	if err := row.Scan(&category.ID, &category.Name, &category.UserID, &category.CreatedAt, &category.UpdatedAt); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, query,
		category.Name, category.UserID, category.CreatedAt, category.UpdatedAt,
	).Scan(&category.ID)
	if err != nil {
		return fmt.Errorf("could not create category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, categoryID int64) (*domain.Category, error) {
	query := "SELECT " + categoryColumns + " FROM categories WHERE id = $1"
	category, err := scanCategory(database.Conn(ctx, r.db).QueryRowContext(ctx, query, categoryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("could not find category: %w", err)
	}
	return category, nil
}

func (r *CategoryRepository) FindByUser(ctx context.Context, userID int64) ([]domain.Category, error) {
	query := "SELECT " + categoryColumns + " FROM categories WHERE user_id = $1 ORDER BY id"
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) FindByNameAndUser(ctx context.Context, name string, userID int64) (*domain.Category, error) {
	query := "SELECT " + categoryColumns + " FROM categories WHERE name = $1 AND user_id = $2 ORDER BY id LIMIT 1"
	category, err := scanCategory(database.Conn(ctx, r.db).QueryRowContext(ctx, query, name, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("could not find category: %w", err)
	}
	return category, nil
}

func (r *CategoryRepository) ExistsByNameAndUser(ctx context.Context, name string, userID int64) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM categories WHERE name = $1 AND user_id = $2)"
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, query, name, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Update writes the name and updated_at. Owner and created_at never change.
func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := "UPDATE categories SET name = $1, updated_at = $2 WHERE id = $3"
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, category.Name, category.UpdatedAt, category.ID)
	if err != nil {
		return fmt.Errorf("could not update category: %w", err)
	}
	return expectAffected(result, domain.ErrCategoryNotFound)
}

func (r *CategoryRepository) Delete(ctx context.Context, categoryID int64) error {
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, "DELETE FROM categories WHERE id = $1", categoryID)
	if err != nil {
		return fmt.Errorf("could not delete category: %w", err)
	}
	return expectAffected(result, domain.ErrCategoryNotFound)
}

func expectAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
