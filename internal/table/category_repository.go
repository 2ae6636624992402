package table

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const categoryColumns = `id, name, description, status, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM table_categories ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query table categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan table category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table categories: %w", err)
	}

	return categories, nil
}

func (r *Repository) GetCategory(ctx context.Context, id string) (*Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM table_categories WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query table category: %w", err)
	}

	return &c, nil
}

func (r *Repository) GetCategoryByName(ctx context.Context, name string) (*Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM table_categories WHERE name = $1
	`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query table category by name: %w", err)
	}

	return &c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, input CategoryInput) (Category, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Category{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	c := Category{
		ID:          id.String(),
		Name:        input.Name,
		Description: input.Description,
		Status:      input.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO table_categories (id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, c.ID, c.Name, c.Description, c.Status, now)
	if err != nil {
		return Category{}, fmt.Errorf("insert table category: %w", err)
	}

	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id string, input CategoryInput) (Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `
		UPDATE table_categories
		SET name = $2, description = $3, status = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+categoryColumns+`
	`, id, input.Name, input.Description, input.Status, time.Now().UTC()))
	if err != nil {
		return Category{}, fmt.Errorf("update table category: %w", err)
	}

	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM table_categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete table category: %w", err)
	}

	return nil
}

func (r *Repository) CountTables(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM dining_tables WHERE category_id = $1
	`, categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tables in category: %w", err)
	}

	return count, nil
}
