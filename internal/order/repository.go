package order

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

const orderColumns = `id, table_id, waiter_id, status, created_at, updated_at`
const itemColumns = `id, order_id, product_id, quantity, unit_price, notes, status`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.TableID, &o.WaiterID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func scanItem(row interface{ Scan(...any) error }) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Notes, &item.Status)
	return item, err
}

// Create inserts the order and its items and marks the table OCCUPIED in a
// single transaction.
func (r *Repository) Create(ctx context.Context, waiterID string, input CreateInput) (Order, error) {
	orderID, err := uuid.NewV7()
	if err != nil {
		return Order{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	o := Order{
		ID:        orderID.String(),
		TableID:   input.TableID,
		WaiterID:  waiterID,
		Status:    StatusOpen,
		Items:     make([]Item, 0, len(input.Items)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, table_id, waiter_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, o.ID, o.TableID, o.WaiterID, o.Status, now)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for _, in := range input.Items {
		itemID, err := uuid.NewV7()
		if err != nil {
			return Order{}, fmt.Errorf("generate uuid v7: %w", err)
		}

		item := Item{
			ID:        itemID.String(),
			OrderID:   o.ID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Notes:     in.Notes,
			Status:    ItemStatusPending,
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, notes, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Notes, item.Status)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}

		o.Items = append(o.Items, item)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE dining_tables SET status = 'OCCUPIED', updated_at = $2 WHERE id = $1
	`, o.TableID, now)
	if err != nil {
		return Order{}, fmt.Errorf("occupy table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Order{}, fmt.Errorf("commit transaction: %w", err)
	}

	return o, nil
}

func (r *Repository) List(ctx context.Context) ([]Order, error) {
	return r.listWhere(ctx, ``)
}

func (r *Repository) ListByTable(ctx context.Context, tableID string) ([]Order, error) {
	return r.listWhere(ctx, ` WHERE table_id = $1`, tableID)
}

func (r *Repository) ListByStatus(ctx context.Context, status string) ([]Order, error) {
	return r.listWhere(ctx, ` WHERE status = $1`, status)
}

func (r *Repository) ListByWaiter(ctx context.Context, waiterID string) ([]Order, error) {
	return r.listWhere(ctx, ` WHERE waiter_id = $1`, waiterID)
}

// CurrentForTable returns the open order seated on the table, or nil when
// the table has none.
func (r *Repository) CurrentForTable(ctx context.Context, tableID string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE table_id = $1 AND status = 'OPEN'
		ORDER BY created_at DESC
		LIMIT 1
	`, tableID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query current order for table: %w", err)
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *Repository) listWhere(ctx context.Context, where string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders`+where+` ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		items, err := r.itemsFor(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query order: %w", err)
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *Repository) itemsFor(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+` FROM order_items WHERE order_id = $1 ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id, status string) (Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+orderColumns+`
	`, id, status, time.Now().UTC()))
	if err != nil {
		return Order{}, fmt.Errorf("update order status: %w", err)
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items

	return o, nil
}

func (r *Repository) UpdateItem(ctx context.Context, orderID string, patch ItemUpdate) (*Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, `
		UPDATE order_items
		SET quantity = $3, unit_price = $4, notes = $5,
			status = COALESCE(NULLIF($6, ''), status)
		WHERE id = $2 AND order_id = $1
		RETURNING `+itemColumns+`
	`, orderID, patch.ID, patch.Quantity, patch.UnitPrice, patch.Notes, patch.Status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update order item: %w", err)
	}

	return &item, nil
}

func (r *Repository) UpdateItemStatus(ctx context.Context, orderID, itemID, status string) (*Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, `
		UPDATE order_items
		SET status = $3
		WHERE id = $2 AND order_id = $1
		RETURNING `+itemColumns+`
	`, orderID, itemID, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update order item status: %w", err)
	}

	return &item, nil
}

// Delete removes the order and its items and frees the table back to
// AVAILABLE in a single transaction.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var tableID string
	if err := tx.QueryRowContext(ctx, `SELECT table_id FROM orders WHERE id = $1`, id).Scan(&tableID); err != nil {
		return fmt.Errorf("query order table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE dining_tables SET status = 'AVAILABLE', updated_at = $2 WHERE id = $1
	`, tableID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("free table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *Repository) GetTableStatus(ctx context.Context, tableID string) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM dining_tables WHERE id = $1`, tableID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("query table status: %w", err)
	}

	return status, nil
}

func (r *Repository) GetProductStatus(ctx context.Context, productID string) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM products WHERE id = $1`, productID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("query product status: %w", err)
	}

	return status, nil
}
