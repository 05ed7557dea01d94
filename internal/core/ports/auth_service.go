package ports

import (
	"context"

	"github.com/99minutos/product-catalog/internal/core/domain"
)

// AuthService signs callers in and out and resolves tokens back to callers.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Verify returns the caller behind token, or domain.ErrUnauthenticated.
	Verify(ctx context.Context, token string) (domain.Caller, error)
	Logout(ctx context.Context, token string) error
}
