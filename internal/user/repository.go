package user

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

const userColumns = `id, name, email, password_hash, role_id, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	for i := range users {
		role, err := r.GetRole(ctx, users[i].RoleID)
		if err != nil {
			return nil, err
		}
		users[i].Role = role
	}

	return users, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	role, err := r.GetRole(ctx, u.RoleID)
	if err != nil {
		return nil, err
	}
	u.Role = role

	return &u, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email, excludeID string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE email = $1 AND ($2 = '' OR id <> $2)
		LIMIT 1
	`, email, excludeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email: %w", err)
	}

	return &u, nil
}

func (r *Repository) Create(ctx context.Context, input UserInput, passwordHash string) (User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return User{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	u := User{
		ID:           id.String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		RoleID:       input.RoleID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.RoleID, u.IsActive, now)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *Repository) Update(ctx context.Context, id string, input UserInput, passwordHash string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, role_id = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, input.Name, input.Email, passwordHash, input.RoleID, time.Now().UTC()))
	if err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}

	return u, nil
}

func (r *Repository) Deactivate(ctx context.Context, id string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users
		SET is_active = FALSE, updated_at = $2
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, time.Now().UTC()))
	if err != nil {
		return User{}, fmt.Errorf("deactivate user: %w", err)
	}

	return u, nil
}

const roleColumns = `id, name, description, created_at`

func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+roleColumns+` FROM roles ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	roles := make([]Role, 0)
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	for i := range roles {
		permissions, err := r.permissionsFor(ctx, roles[i].ID)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = permissions
	}

	return roles, nil
}

func (r *Repository) GetRole(ctx context.Context, id string) (*Role, error) {
	var role Role
	err := r.db.QueryRowContext(ctx, `
		SELECT `+roleColumns+` FROM roles WHERE id = $1
	`, id).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query role: %w", err)
	}

	permissions, err := r.permissionsFor(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = permissions

	return &role, nil
}

func (r *Repository) GetRoleByName(ctx context.Context, name, excludeID string) (*Role, error) {
	var role Role
	err := r.db.QueryRowContext(ctx, `
		SELECT `+roleColumns+` FROM roles
		WHERE name = $1 AND ($2 = '' OR id <> $2)
		LIMIT 1
	`, name, excludeID).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query role by name: %w", err)
	}

	permissions, err := r.permissionsFor(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = permissions

	return &role, nil
}

func (r *Repository) CreateRole(ctx context.Context, input RoleInput) (Role, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Role{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now().UTC()
	role := Role{
		ID:          id.String(),
		Name:        input.Name,
		Description: input.Description,
		Permissions: input.Permissions,
		CreatedAt:   now,
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Role{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO roles (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)
	`, role.ID, role.Name, role.Description, now)
	if err != nil {
		return Role{}, fmt.Errorf("insert role: %w", err)
	}

	for _, permission := range role.Permissions {
		permID, err := uuid.NewV7()
		if err != nil {
			return Role{}, fmt.Errorf("generate uuid v7: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO role_permissions (id, role_id, permission)
			VALUES ($1, $2, $3)
		`, permID.String(), role.ID, permission)
		if err != nil {
			return Role{}, fmt.Errorf("insert role permission: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Role{}, fmt.Errorf("commit transaction: %w", err)
	}

	return role, nil
}

// UpdateRole rewrites the role and replaces its permission set in a
// single transaction.
func (r *Repository) UpdateRole(ctx context.Context, id string, input RoleInput) (Role, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Role{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var role Role
	err = tx.QueryRowContext(ctx, `
		UPDATE roles
		SET name = $2, description = $3
		WHERE id = $1
		RETURNING `+roleColumns+`
	`, id, input.Name, input.Description).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt)
	if err != nil {
		return Role{}, fmt.Errorf("update role: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
		return Role{}, fmt.Errorf("clear role permissions: %w", err)
	}

	for _, permission := range input.Permissions {
		permID, err := uuid.NewV7()
		if err != nil {
			return Role{}, fmt.Errorf("generate uuid v7: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO role_permissions (id, role_id, permission)
			VALUES ($1, $2, $3)
		`, permID.String(), id, permission)
		if err != nil {
			return Role{}, fmt.Errorf("insert role permission: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Role{}, fmt.Errorf("commit transaction: %w", err)
	}

	role.Permissions = input.Permissions
	return role, nil
}

func (r *Repository) DeleteRole(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
		return fmt.Errorf("delete role permissions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *Repository) CountUsersWithRole(ctx context.Context, roleID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE role_id = $1
	`, roleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users with role: %w", err)
	}

	return count, nil
}

func (r *Repository) permissionsFor(ctx context.Context, roleID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT permission FROM role_permissions WHERE role_id = $1 ORDER BY permission ASC
	`, roleID)
	if err != nil {
		return nil, fmt.Errorf("query role permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]string, 0)
	for rows.Next() {
		var permission string
		if err := rows.Scan(&permission); err != nil {
			return nil, fmt.Errorf("scan role permission: %w", err)
		}
		permissions = append(permissions, permission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role permissions: %w", err)
	}

	return permissions, nil
}
