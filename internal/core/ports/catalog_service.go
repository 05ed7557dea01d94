package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/product-catalog/internal/core/domain"
)

// ProductInput carries the fields a caller may set on create or update.
// ID is only meaningful on update, where it must match the path id.
type ProductInput struct {
	ID           int64
	Name         string
	Price        decimal.Decimal
	StartDate    time.Time
	DurationDays int
	CategoryID   int64
}

// Catalog is a product listing together with the category filter options.
type Catalog struct {
	Products           []domain.Product
	Categories         []domain.Category
	SelectedCategoryID *int64
}

// CatalogService defines the use cases behind the product and category pages.
type CatalogService interface {
	ListPublic(ctx context.Context, categoryID *int64) (*Catalog, error)
	ListAdmin(ctx context.Context, caller domain.Caller, categoryID *int64) (*Catalog, error)
	GetDetail(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, caller domain.Caller, in ProductInput) (*domain.Product, error)
	Update(ctx context.Context, caller domain.Caller, id int64, in ProductInput) (*domain.Product, error)
	// Delete reports whether a product was removed; a missing id is not an error.
	Delete(ctx context.Context, caller domain.Caller, id int64) (bool, error)

	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, caller domain.Caller, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, caller domain.Caller, id int64) error
}
