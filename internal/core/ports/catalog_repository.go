package ports

import (
	"context"

	"github.com/99minutos/product-catalog/internal/core/domain"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategoryID     *int64 // nil = every category
	IncludeCreator bool   // join the creating user
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	// List returns every category ordered by name.
	List(ctx context.Context) ([]domain.Category, error)
	FindByID(ctx context.Context, id int64) (*domain.Category, error)
	FindByName(ctx context.Context, name string) (*domain.Category, error)
	// Create stores c and assigns its ID. A duplicate name yields domain.ErrCategoryExists.
	Create(ctx context.Context, c *domain.Category) error
	// Delete removes the category together with every product referencing it.
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	// List returns products with their category joined, ordered by id.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	// FindByID returns a product with category and creator joined.
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	// Update writes the mutable fields of p. When no row matched it returns
	// domain.ErrConcurrencyConflict.
	Update(ctx context.Context, p *domain.Product) error
	// Delete removes the product and reports whether it existed.
	Delete(ctx context.Context, id int64) (bool, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}
