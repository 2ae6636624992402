package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const columns = `id, name, description, price, category_id, stock, image_url, status, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.Stock, &p.ImageURL, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) List(ctx context.Context, filter Filter) ([]Product, error) {
	query := `SELECT ` + columns + ` FROM products`
	where := ""
	args := []any{}

	appendClause := func(clause string, value any) {
		args = append(args, value)
		placeholder := "$" + strconv.Itoa(len(args))
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, placeholder)
	}

	if filter.CategoryID != "" {
		appendClause("category_id = %s", filter.CategoryID)
	}
	if filter.Status != "" {
		appendClause("status = %s", filter.Status)
	}
	if filter.Search != "" {
		appendClause("(name ILIKE %[1]s OR description ILIKE %[1]s)", "%"+filter.Search+"%")
	}

	rows, err := r.db.QueryContext(ctx, query+where+` ORDER BY name ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT `+columns+` FROM products WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query product: %w", err)
	}

	return &p, nil
}

func (r *Repository) GetByNameInCategory(ctx context.Context, name, categoryID, excludeID string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT `+columns+` FROM products
		WHERE name = $1 AND category_id = $2 AND ($3 = '' OR id <> $3)
		LIMIT 1
	`, name, categoryID, excludeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query product by name: %w", err)
	}

	return &p, nil
}

func (r *Repository) Create(ctx context.Context, input ProductInput) (Product, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	p := Product{
		ID:          id.String(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
		Status:      input.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, category_id, stock, image_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.Stock, p.ImageURL, p.Status, now)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}

	return p, nil
}

func (r *Repository) Update(ctx context.Context, id string, input ProductInput) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, category_id = $5, stock = $6, image_url = $7, status = $8, updated_at = $9
		WHERE id = $1
		RETURNING `+columns+`
	`, id, input.Name, input.Description, input.Price, input.CategoryID, input.Stock, input.ImageURL, input.Status, time.Now().UTC()))
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}

	return p, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	return nil
}

func (r *Repository) SetStatus(ctx context.Context, id, status string) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		UPDATE products
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+columns+`
	`, id, status, time.Now().UTC()))
	if err != nil {
		return Product{}, fmt.Errorf("set product status: %w", err)
	}

	return p, nil
}

func (r *Repository) HasOrderItems(ctx context.Context, productID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM order_items WHERE product_id = $1)
	`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query order items for product: %w", err)
	}

	return exists, nil
}
