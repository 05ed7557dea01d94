package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) ports.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, email, password_hash, created_at)
VALUES (?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at
FROM users
WHERE email = ?`,
		email,
	)
	return r.loadUser(ctx, row)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at
FROM users
WHERE id = ?`,
		id,
	)
	return r.loadUser(ctx, row)
}

func (r *UserRepository) EnsureRole(ctx context.Context, role string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO roles (name) VALUES (?)`, role); err != nil {
		return fmt.Errorf("ensure role %s: %w", role, err)
	}
	return nil
}

func (r *UserRepository) AddToRole(ctx context.Context, userID, role string) error {
	if err := r.EnsureRole(ctx, role); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO user_roles (user_id, role)
SELECT id, ? FROM users WHERE id = ?`,
		role, userID,
	)
	if err != nil {
		return fmt.Errorf("add user to role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Either already a member or no such user.
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, userID).Scan(&exists); err != nil {
			return fmt.Errorf("user exists: %w", err)
		}
		if !exists {
			return domain.ErrUserNotFound
		}
	}
	return nil
}

func (r *UserRepository) loadUser(ctx context.Context, row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()

	rows, err := r.db.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`, user.ID)
	if err != nil {
		return nil, fmt.Errorf("query user roles: %w", err)
	}
	defer rows.Close()

	user.Roles = []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		user.Roles = append(user.Roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user roles: %w", err)
	}
	return &user, nil
}
