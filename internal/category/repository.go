package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const columns = `c.id, c.name, c.description, c.status, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM products p WHERE p.category_id = c.id)`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Status, &c.CreatedAt, &c.UpdatedAt, &c.Products)
	return c, err
}

func (r *Repository) List(ctx context.Context, includeInactive bool) ([]Category, error) {
	query := `SELECT ` + columns + ` FROM categories c WHERE c.status = 'ACTIVE' ORDER BY c.name ASC`
	if includeInactive {
		query = `SELECT ` + columns + ` FROM categories c ORDER BY c.name ASC`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `
		SELECT `+columns+` FROM categories c WHERE c.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query category: %w", err)
	}

	return &c, nil
}

func (r *Repository) GetByName(ctx context.Context, name string) (*Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `
		SELECT `+columns+` FROM categories c WHERE c.name = $1
	`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query category by name: %w", err)
	}

	return &c, nil
}

func (r *Repository) Create(ctx context.Context, input CategoryInput) (Category, error) {
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
		INSERT INTO categories (id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, c.ID, c.Name, c.Description, c.Status, now)
	if err != nil {
		return Category{}, fmt.Errorf("insert category: %w", err)
	}

	return c, nil
}

func (r *Repository) Update(ctx context.Context, id string, input CategoryInput) (Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `
		UPDATE categories c
		SET name = $2, description = $3, status = $4, updated_at = $5
		WHERE c.id = $1
		RETURNING `+columns+`
	`, id, input.Name, input.Description, input.Status, time.Now().UTC()))
	if err != nil {
		return Category{}, fmt.Errorf("update category: %w", err)
	}

	return c, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	return nil
}

func (r *Repository) SetStatus(ctx context.Context, id, status string) (Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, `
		UPDATE categories c
		SET status = $2, updated_at = $3
		WHERE c.id = $1
		RETURNING `+columns+`
	`, id, status, time.Now().UTC()))
	if err != nil {
		return Category{}, fmt.Errorf("set category status: %w", err)
	}

	return c, nil
}

func (r *Repository) CountProducts(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM products WHERE category_id = $1
	`, categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products in category: %w", err)
	}

	return count, nil
}
