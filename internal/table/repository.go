package table

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

const tableColumns = `id, number, description, capacity, status, category_id, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }) (Table, error) {
	var t Table
	err := row.Scan(&t.ID, &t.Number, &t.Description, &t.Capacity, &t.Status, &t.CategoryID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *Repository) List(ctx context.Context, categoryID string) ([]Table, error) {
	query := `SELECT ` + tableColumns + ` FROM dining_tables ORDER BY number ASC, description ASC`
	args := []any{}
	if categoryID != "" {
		query = `SELECT ` + tableColumns + ` FROM dining_tables WHERE category_id = $1 ORDER BY number ASC, description ASC`
		args = append(args, categoryID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	tables := make([]Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return tables, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx, `
		SELECT `+tableColumns+` FROM dining_tables WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query table: %w", err)
	}

	return &t, nil
}

func (r *Repository) GetByNumber(ctx context.Context, number int) (*Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx, `
		SELECT `+tableColumns+` FROM dining_tables WHERE number = $1
	`, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query table by number: %w", err)
	}

	return &t, nil
}

func (r *Repository) Create(ctx context.Context, input TableInput) (Table, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Table{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	t := Table{
		ID:          id.String(),
		Number:      input.Number,
		Description: input.Description,
		Capacity:    input.Capacity,
		Status:      input.Status,
		CategoryID:  input.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO dining_tables (id, number, description, capacity, status, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, t.ID, t.Number, t.Description, t.Capacity, t.Status, t.CategoryID, now)
	if err != nil {
		return Table{}, fmt.Errorf("insert table: %w", err)
	}

	return t, nil
}

func (r *Repository) Update(ctx context.Context, id string, input TableInput) (Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx, `
		UPDATE dining_tables
		SET number = $2, description = $3, capacity = $4, status = $5, category_id = $6, updated_at = $7
		WHERE id = $1
		RETURNING `+tableColumns+`
	`, id, input.Number, input.Description, input.Capacity, input.Status, input.CategoryID, time.Now().UTC()))
	if err != nil {
		return Table{}, fmt.Errorf("update table: %w", err)
	}

	return t, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM dining_tables WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete table: %w", err)
	}

	return nil
}

func (r *Repository) HasOpenOrder(ctx context.Context, tableID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM orders WHERE table_id = $1 AND status = 'OPEN')
	`, tableID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query open orders for table: %w", err)
	}

	return exists, nil
}

// SetStatus is used by the order workflow when a table is seated or freed.
func (r *Repository) SetStatus(ctx context.Context, id, status string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE dining_tables SET status = $2, updated_at = $3 WHERE id = $1
	`, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("set table status: %w", err)
	}

	return nil
}
