package ports

import (
	"context"

	"github.com/99minutos/product-catalog/internal/core/domain"
)

// UserRepository defines persistence operations for accounts and role membership.
type UserRepository interface {
	// Create stores the user. A duplicate email yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) error
	// FindByEmail and FindByID load the user with its roles.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// EnsureRole creates the role if it does not exist yet.
	EnsureRole(ctx context.Context, role string) error
	// AddToRole is a no-op when the user is already a member.
	AddToRole(ctx context.Context, userID, role string) error
}
