package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

// CatalogService applies the visibility filter and the authorization gate
// around the product and category stores.
type CatalogService struct {
	categories ports.CategoryRepository
	products   ports.ProductRepository
	clock      ports.Clock
	logger     zerolog.Logger
}

func NewCatalogService(
	categories ports.CategoryRepository,
	products ports.ProductRepository,
	clock ports.Clock,
	logger zerolog.Logger,
) *CatalogService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &CatalogService{
		categories: categories,
		products:   products,
		clock:      clock,
		logger:     logger,
	}
}

// ListPublic returns the products that are live right now.
func (s *CatalogService) ListPublic(ctx context.Context, categoryID *int64) (*ports.Catalog, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list public: categories: %w", err)
	}

	products, err := s.products.List(ctx, ports.ProductFilter{CategoryID: categoryID})
	if err != nil {
		return nil, fmt.Errorf("list public: products: %w", err)
	}

	return &ports.Catalog{
		Products:           domain.FilterLive(products, s.clock.Now()),
		Categories:         categories,
		SelectedCategoryID: categoryID,
	}, nil
}

// ListAdmin returns every product regardless of its date window, with the
// creating user joined.
func (s *CatalogService) ListAdmin(ctx context.Context, caller domain.Caller, categoryID *int64) (*ports.Catalog, error) {
	if err := domain.Check(domain.OpViewAdminCatalog, caller); err != nil {
		return nil, err
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admin: categories: %w", err)
	}

	products, err := s.products.List(ctx, ports.ProductFilter{CategoryID: categoryID, IncludeCreator: true})
	if err != nil {
		return nil, fmt.Errorf("list admin: products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}

	return &ports.Catalog{
		Products:           products,
		Categories:         categories,
		SelectedCategoryID: categoryID,
	}, nil
}

// GetDetail resolves a product by id without applying the visibility filter,
// so a direct link to an inactive product still works.
func (s *CatalogService) GetDetail(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

// Create stores a new product stamped with the current time and the caller.
func (s *CatalogService) Create(ctx context.Context, caller domain.Caller, in ports.ProductInput) (*domain.Product, error) {
	if err := domain.Check(domain.OpCreate, caller); err != nil {
		return nil, err
	}
	category, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	p := &domain.Product{
		Name:            strings.TrimSpace(in.Name),
		Price:           in.Price,
		StartDate:       in.StartDate.UTC(),
		DurationDays:    in.DurationDays,
		CategoryID:      in.CategoryID,
		CreatedAt:       s.clock.Now(),
		CreatedByUserID: caller.UserID,
		Category:        category,
	}

	if err := s.products.Create(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("name", p.Name).Msg("failed to create product")
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.Info().Int64("product_id", p.ID).Str("user_id", caller.UserID).Msg("product created")
	return p, nil
}

// Update overwrites the mutable fields of an existing product. CreatedAt and
// CreatedByUserID are never touched.
func (s *CatalogService) Update(ctx context.Context, caller domain.Caller, id int64, in ports.ProductInput) (*domain.Product, error) {
	if err := domain.Check(domain.OpUpdate, caller); err != nil {
		return nil, err
	}
	if in.ID != id {
		return nil, fmt.Errorf("update product %d: payload id %d: %w", id, in.ID, domain.ErrProductNotFound)
	}
	category, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}

	existing.Name = strings.TrimSpace(in.Name)
	existing.StartDate = in.StartDate.UTC()
	existing.DurationDays = in.DurationDays
	existing.Price = in.Price
	existing.CategoryID = in.CategoryID
	existing.Category = category

	if err := s.products.Update(ctx, existing); err != nil {
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return nil, fmt.Errorf("update product %d: %w", id, err)
		}
		// The row vanished between read and write: report it as missing.
		exists, existsErr := s.products.Exists(ctx, id)
		if existsErr != nil {
			return nil, fmt.Errorf("update product %d: %w", id, existsErr)
		}
		if !exists {
			s.logger.Warn().Int64("product_id", id).Msg("product deleted during update")
			return nil, fmt.Errorf("update product %d: %w", id, domain.ErrProductNotFound)
		}
		s.logger.Error().Err(err).Int64("product_id", id).Msg("update conflict")
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}

	s.logger.Info().Int64("product_id", id).Str("user_id", caller.UserID).Msg("product updated")
	return existing, nil
}

// Delete removes a product. Deleting an id that does not exist succeeds.
func (s *CatalogService) Delete(ctx context.Context, caller domain.Caller, id int64) (bool, error) {
	if err := domain.Check(domain.OpDelete, caller); err != nil {
		return false, err
	}

	deleted, err := s.products.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete product %d: %w", id, err)
	}

	if deleted {
		s.logger.Info().Int64("product_id", id).Str("user_id", caller.UserID).Msg("product deleted")
	} else {
		s.logger.Debug().Int64("product_id", id).Msg("delete of absent product ignored")
	}
	return deleted, nil
}

// ListCategories returns every category ordered by name.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, caller domain.Caller, name string) (*domain.Category, error) {
	if err := domain.Check(domain.OpManageCategories, caller); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		ve := domain.NewValidationError()
		ve.Add("name", "name is required")
		return nil, ve
	}

	c := &domain.Category{Name: name}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.Info().Int64("category_id", c.ID).Str("name", c.Name).Msg("category created")
	return c, nil
}

// DeleteCategory removes a category and, with it, every product in it.
func (s *CatalogService) DeleteCategory(ctx context.Context, caller domain.Caller, id int64) error {
	if err := domain.Check(domain.OpManageCategories, caller); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}

	s.logger.Info().Int64("category_id", id).Str("user_id", caller.UserID).Msg("category deleted")
	return nil
}

// validate checks the input and returns the category it references.
func (s *CatalogService) validate(ctx context.Context, in ports.ProductInput) (*domain.Category, error) {
	ve := domain.NewValidationError()
	var category *domain.Category

	if strings.TrimSpace(in.Name) == "" {
		ve.Add("name", "name is required")
	}
	if in.CategoryID <= 0 {
		ve.Add("category_id", "category is required")
	} else if c, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
		if !errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, fmt.Errorf("validate product: %w", err)
		}
		ve.Add("category_id", "category does not exist")
	} else {
		category = c
	}

	if !ve.Empty() {
		return nil, ve
	}
	return category, nil
}
